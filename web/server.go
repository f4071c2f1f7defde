// Package web serves the browser front end: a prompt editor backed by files
// under the prompts directory, a generation form and an asset gallery.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	imagegen "github.com/zcordelier/imagegen"
	"github.com/zcordelier/imagegen/asset"
	"github.com/zcordelier/imagegen/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// ImageGenerator runs one generation round trip.
type ImageGenerator interface {
	Generate(ctx context.Context, res *imagegen.Resolved) ([]string, error)
}

// Uploader stores a file remotely and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// Server is the web editor.
type Server struct {
	cfg       *imagegen.Config
	registry  *model.Registry
	resolver  *imagegen.Resolver
	generator ImageGenerator
	uploader  Uploader
	log       zerolog.Logger
	engine    *gin.Engine
}

// NewServer wires the editor's routes.
func NewServer(
	cfg *imagegen.Config,
	registry *model.Registry,
	resolver *imagegen.Resolver,
	generator ImageGenerator,
	uploader Uploader,
	log zerolog.Logger,
) (*Server, error) {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(log))
	engine.SetHTMLTemplate(tmpl)

	s := &Server{
		cfg:       cfg,
		registry:  registry,
		resolver:  resolver,
		generator: generator,
		uploader:  uploader,
		log:       log,
		engine:    engine,
	}

	engine.GET("/", s.index)
	engine.POST("/", s.index)
	engine.GET("/assets/*filename", s.serveAsset)

	api := engine.Group("/api")
	api.POST("/upload", s.apiUpload)
	api.GET("/model-sizes/:model", s.apiModelSizes)
	api.GET("/prompt/:name", s.apiGetPrompt)
	api.GET("/style/:name", s.apiGetStyle)
	api.POST("/save-prompt", s.apiSavePrompt)
	api.POST("/delete-prompt", s.apiDeletePrompt)
	api.POST("/duplicate-prompt", s.apiDuplicatePrompt)
	api.POST("/save-style", s.apiSaveStyle)
	api.POST("/delete-style", s.apiDeleteStyle)

	return s, nil
}

// Handler exposes the routes for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Addr(), Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", srv.Addr).Msg("web editor listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) serveAsset(c *gin.Context) {
	path := asset.Resolve(s.cfg.AssetsDir, c.Param("filename"))
	if path == "" {
		c.Status(http.StatusNotFound)
		return
	}
	c.File(path)
}

// requestLogger emits one line per request with the status and elapsed time.
func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}
