package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	imagegen "github.com/zcordelier/imagegen"
	"github.com/zcordelier/imagegen/asset"
	"github.com/zcordelier/imagegen/exif"
	"github.com/zcordelier/imagegen/prompt"
)

// indexView is the template model for the editor page.
type indexView struct {
	PromptNames    []string
	SelectedPrompt string
	StyleNames     []string
	SelectedStyle  string
	PromptText     string

	StatusMessage string
	ErrorMessage  string

	ModelNames    []string
	SelectedModel string

	ImageSizeValue string
	AllowedSizes   []string

	IncludePromptMetadata bool
	SupportsImageURLs     bool
	ImageURLsText         string

	AssetEntries []asset.Entry
	AssetCount   int

	GalleryWidth   int
	GalleryHeight  int
	GalleryEntries []asset.Entry
}

func (s *Server) index(c *gin.Context) {
	view := indexView{
		PromptNames: prompt.Names(s.cfg.PromptsDir),
		StyleNames:  prompt.Names(s.cfg.StylesDir),
		ModelNames:  s.registry.Names(),
	}

	view.SelectedPrompt = strings.TrimSpace(c.Query("prompt"))
	view.SelectedStyle = firstNonEmpty(
		strings.TrimSpace(c.PostForm("style_name_custom")),
		strings.TrimSpace(c.PostForm("style_name_preset")),
		strings.TrimSpace(c.PostForm("style_name")),
	)
	view.SelectedModel = firstNonEmpty(
		c.PostForm("model_name"),
		c.Query("model"),
		s.cfg.StartupModel,
	)
	view.ImageSizeValue = c.PostForm("image_size_preset")
	if view.ImageSizeValue == "" {
		view.ImageSizeValue = defaultSize(s.registry, view.SelectedModel)
	}
	view.IncludePromptMetadata = ParseCheckbox(c.PostFormArray("include_prompt_metadata"), true)
	view.ImageURLsText = c.PostForm("image_urls")
	view.SupportsImageURLs = supportsImageURLs(s.registry, view.SelectedModel)
	view.GalleryWidth = ParseGalleryWidth(firstNonEmpty(c.Query("gallery_width"), c.PostForm("gallery_width")))
	view.GalleryHeight = ParseGalleryHeight(firstNonEmpty(c.Query("gallery_height"), c.PostForm("gallery_height")))

	if c.Request.Method == http.MethodPost {
		s.handleIndexAction(c, &view)
	} else if view.SelectedPrompt != "" {
		path := prompt.Path(s.cfg.PromptsDir, view.SelectedPrompt)
		if text, err := prompt.Read(path); err == nil {
			view.PromptText = text
		}
	}

	view.AllowedSizes = allowedSizes(s.registry, view.SelectedModel)

	assetPaths, err := asset.List(s.cfg.AssetsDir)
	if err != nil {
		s.log.Warn().Err(err).Str("dir", s.cfg.AssetsDir).Msg("listing assets")
	}
	view.AssetCount = len(assetPaths)
	limit := min(view.GalleryWidth*view.GalleryHeight, len(assetPaths))
	view.GalleryEntries = asset.GalleryEntries(assetPaths[:limit], s.cfg.AssetsDir)

	c.HTML(http.StatusOK, "index.html", view)
}

func (s *Server) handleIndexAction(c *gin.Context, view *indexView) {
	action := c.PostForm("action")
	rawName := firstNonEmpty(
		strings.TrimSpace(c.PostForm("prompt_name_custom")),
		strings.TrimSpace(c.PostForm("prompt_name_preset")),
		strings.TrimSpace(c.PostForm("prompt_name")),
	)
	view.SelectedPrompt = prompt.Normalize(rawName)
	view.PromptText = c.PostForm("prompt_text")

	switch action {
	case "asset_load", "asset_delete":
		s.handleAssetAction(c, view, action)
	case "append_style":
		view.PromptText = prompt.AppendStyle(view.PromptText, s.cfg.StylesDir, view.SelectedStyle)
		if view.SelectedStyle != "" {
			view.StatusMessage = fmt.Sprintf("Added style '%s'.", view.SelectedStyle)
		}
	case "run":
		s.handleRun(c, view)
	case "":
	default:
		view.ErrorMessage = fmt.Sprintf("Unknown action: %s", action)
	}
}

func (s *Server) handleAssetAction(c *gin.Context, view *indexView, action string) {
	filename := strings.TrimSpace(c.PostForm("asset_filename"))
	path := asset.Resolve(s.cfg.AssetsDir, filename)
	if path == "" {
		view.ErrorMessage = "Asset file not found."
		return
	}
	if _, err := os.Stat(path); err != nil {
		view.ErrorMessage = "Asset file not found."
		return
	}

	if action == "asset_delete" {
		if err := os.Remove(path); err != nil {
			view.ErrorMessage = fmt.Sprintf("Unable to delete asset: %v", err)
			return
		}
		s.removeCleanCopy(path)
		view.StatusMessage = fmt.Sprintf("Deleted asset '%s'.", filename)
		return
	}

	description, err := exif.ReadDescription(path)
	if err != nil || description == "" {
		view.ErrorMessage = "No prompt metadata found in the selected asset."
		return
	}
	info := exif.ParseDescription(description)
	if info.Prompt == "" {
		view.ErrorMessage = "No prompt metadata found in the selected asset."
		return
	}

	view.PromptText = info.Prompt
	view.SelectedPrompt = asset.PromptNameFromFilename(filename)
	if info.PromptName != "" {
		view.SelectedPrompt = info.PromptName
	}
	if info.StyleName != "" {
		view.SelectedStyle = info.StyleName
	}
	if _, ok := s.registry.Lookup(info.Model); ok {
		view.SelectedModel = info.Model
	}
	view.StatusMessage = fmt.Sprintf("Loaded prompt from asset '%s'.", filename)
}

// removeCleanCopy mirrors an asset deletion into the metadata-stripped copy
// directory kept next to the assets directory.
func (s *Server) removeCleanCopy(path string) {
	if !s.cfg.SaveCleanCopy {
		return
	}
	dir := filepath.Dir(path)
	cleanPath := filepath.Join(filepath.Dir(dir), filepath.Base(dir)+"_clean", filepath.Base(path))
	if err := os.Remove(cleanPath); err != nil && !os.IsNotExist(err) {
		s.log.Warn().Err(err).Str("path", cleanPath).Msg("removing clean copy")
	}
}

func (s *Server) handleRun(c *gin.Context, view *indexView) {
	if view.SelectedModel == "" {
		view.ErrorMessage = "A model must be selected before running."
		return
	}

	promptFile := prompt.Path(s.cfg.PromptsDir, view.SelectedPrompt)
	if err := os.MkdirAll(s.cfg.PromptsDir, 0o755); err != nil {
		view.ErrorMessage = err.Error()
		return
	}
	if err := prompt.Write(promptFile, view.PromptText); err != nil {
		view.ErrorMessage = err.Error()
		return
	}

	in := imagegen.Inputs{File: promptFile, Values: map[string][]string{}}
	if size := strings.TrimSpace(view.ImageSizeValue); size != "" {
		if name := sizeOptionName(s.registry, view.SelectedModel); name != "" {
			in.Values[name] = []string{size}
		}
	}
	if view.SupportsImageURLs {
		for _, u := range prompt.SplitMultiValue(view.ImageURLsText) {
			in.Values["image_urls"] = append(in.Values["image_urls"], u)
		}
	}

	common := imagegen.DefaultCommon()
	common.AddPromptMetadata = view.IncludePromptMetadata
	common.Preview = false

	meta := map[string]string{}
	if view.SelectedPrompt != "" {
		meta["prompt_name"] = view.SelectedPrompt
	}
	if view.SelectedStyle != "" {
		meta["style_name"] = view.SelectedStyle
	}
	if len(meta) > 0 {
		encoded, err := json.Marshal(meta)
		if err == nil {
			common.Meta = string(encoded)
		}
	}

	resolved, err := s.resolver.Resolve(view.SelectedModel, in, common)
	if err != nil {
		view.ErrorMessage = fmt.Sprintf("Unable to parse arguments: %v", err)
		return
	}

	paths, err := s.generator.Generate(c.Request.Context(), resolved)
	if err != nil {
		view.ErrorMessage = err.Error()
		return
	}

	view.AssetEntries = asset.BuildEntries(paths, s.cfg.AssetsDir)
	view.StatusMessage = fmt.Sprintf("Generated %d image(s) with '%s'.", len(paths), view.SelectedModel)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
