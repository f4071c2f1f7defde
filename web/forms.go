package web

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/zcordelier/imagegen/model"
)

// ParseCheckbox interprets an HTML checkbox value list; an absent field
// falls back to def.
func ParseCheckbox(values []string, def bool) bool {
	if len(values) == 0 {
		return def
	}
	for _, v := range values {
		if v == "on" {
			return true
		}
	}
	return false
}

// ParseGalleryWidth clamps the gallery column count to 1..5, defaulting
// to 3.
func ParseGalleryWidth(raw string) int {
	value, err := strconv.Atoi(raw)
	if err != nil {
		value = 3
	}
	return max(1, min(value, 5))
}

// ParseGalleryHeight returns the gallery row count, at least 1, defaulting
// to 100.
func ParseGalleryHeight(raw string) int {
	value, err := strconv.Atoi(raw)
	if err != nil {
		value = 100
	}
	return max(1, value)
}

// allowedSizes lists the size presets a model accepts, sorted for stable
// rendering.
func allowedSizes(reg *model.Registry, name string) []string {
	def, ok := reg.Lookup(name)
	if !ok {
		return nil
	}
	opt, ok := def.SizeOption()
	if !ok || len(opt.AllowedSizes) == 0 {
		return nil
	}
	sizes := append([]string(nil), opt.AllowedSizes...)
	sort.Strings(sizes)
	return sizes
}

// defaultSize is the model's default size token rendered as text.
func defaultSize(reg *model.Registry, name string) string {
	def, ok := reg.Lookup(name)
	if !ok {
		return ""
	}
	opt, ok := def.SizeOption()
	if !ok || opt.Default == nil {
		return ""
	}
	return fmt.Sprintf("%v", opt.Default)
}

// sizeOptionName is the form parameter the size token resolves under.
func sizeOptionName(reg *model.Registry, name string) string {
	def, ok := reg.Lookup(name)
	if !ok {
		return ""
	}
	opt, ok := def.SizeOption()
	if !ok {
		return ""
	}
	return opt.Name
}

// supportsImageURLs reports whether the model takes source image URLs.
func supportsImageURLs(reg *model.Registry, name string) bool {
	def, ok := reg.Lookup(name)
	return ok && def.HasOption("image_urls")
}
