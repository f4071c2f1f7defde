package web

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zcordelier/imagegen/prompt"
)

func (s *Server) apiUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := s.uploader.Upload(c.Request.Context(), file.Filename, contentType, data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (s *Server) apiModelSizes(c *gin.Context) {
	name := c.Param("model")
	c.JSON(http.StatusOK, gin.H{
		"sizes":               allowedSizes(s.registry, name),
		"default":             defaultSize(s.registry, name),
		"supports_image_urls": supportsImageURLs(s.registry, name),
	})
}

func (s *Server) apiGetPrompt(c *gin.Context) {
	s.serveText(c, s.cfg.PromptsDir, c.Param("name"))
}

func (s *Server) apiGetStyle(c *gin.Context) {
	s.serveText(c, s.cfg.StylesDir, c.Param("name"))
}

func (s *Server) serveText(c *gin.Context, dir, name string) {
	text, err := prompt.Read(prompt.Path(dir, name))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"text": ""})
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

// namedText is the request body shared by the prompt and style endpoints.
type namedText struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

func (s *Server) apiSavePrompt(c *gin.Context) {
	var body namedText
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing name or text"})
		return
	}

	if err := os.MkdirAll(s.cfg.PromptsDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	name := prompt.Normalize(body.Name)
	if err := prompt.Write(prompt.Path(s.cfg.PromptsDir, name), body.Text); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "saved_name": name})
}

func (s *Server) apiDeletePrompt(c *gin.Context) {
	var body namedText
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing name"})
		return
	}

	name := strings.TrimSpace(body.Name)
	path := prompt.Path(s.cfg.PromptsDir, name)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Prompt '%s' not found", name)})
		return
	}
	if err := os.Remove(path); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted_name": name})
}

func (s *Server) apiDuplicatePrompt(c *gin.Context) {
	var body namedText
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing name or text"})
		return
	}

	if err := os.MkdirAll(s.cfg.PromptsDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	name := prompt.NextCopyName(strings.TrimSpace(body.Name))
	if err := prompt.Write(prompt.Path(s.cfg.PromptsDir, name), body.Text); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "duplicated_name": name})
}

func (s *Server) apiSaveStyle(c *gin.Context) {
	var body namedText
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing name or text"})
		return
	}

	if err := os.MkdirAll(s.cfg.StylesDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Style saves never overwrite: collisions get a numeric suffix.
	base := prompt.Normalize(body.Name)
	name := base
	for counter := 1; ; counter++ {
		if _, err := os.Stat(prompt.Path(s.cfg.StylesDir, name)); os.IsNotExist(err) {
			break
		}
		name = fmt.Sprintf("%s_%d", base, counter)
	}

	if err := prompt.Write(prompt.Path(s.cfg.StylesDir, name), body.Text); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "saved_name": name})
}

func (s *Server) apiDeleteStyle(c *gin.Context) {
	var body namedText
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing name"})
		return
	}

	name := strings.TrimSpace(body.Name)
	path := prompt.Path(s.cfg.StylesDir, name)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Style '%s' not found", name)})
		return
	}
	if err := os.Remove(path); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted_name": name})
}
