package imagegen

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

// maxSlugChars bounds the prompt-text slug embedded in filenames.
const maxSlugChars = 50

// SanitizeComponent lower-cases alphanumerics and replaces everything else
// with a dash, trimming leading and trailing dashes. An empty result
// becomes the literal "image".
func SanitizeComponent(component string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(component) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteByte('-')
		}
	}
	sanitized := strings.Trim(b.String(), "-")
	if sanitized == "" {
		return "image"
	}
	return sanitized
}

// TruncateWords truncates text to at most max bytes, rounding down to the
// nearest complete word. When no space falls inside the limit the text is
// cut at the last rune boundary within max, never mid-rune.
func TruncateWords(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	truncated := text[:cut]
	if idx := strings.LastIndex(truncated, " "); idx > 0 {
		return truncated[:idx]
	}
	return truncated
}

// BaseComponent derives the human-legible part of an output filename from
// the resolved parameters, by priority: prompt file stem plus a truncated
// prompt slug, then the prompt slug alone, then the model name. Truncation
// happens before sanitization so it never splits inside a word.
func BaseComponent(res *Resolved) string {
	promptText := strings.TrimSpace(res.PromptText())

	if file := res.PromptFile(); file != "" {
		stem := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		name := SanitizeComponent(stem)
		if promptText == "" {
			return name
		}
		return name + "-" + SanitizeComponent(TruncateWords(promptText, maxSlugChars))
	}

	if promptText != "" {
		return SanitizeComponent(TruncateWords(promptText, maxSlugChars))
	}

	return SanitizeComponent(res.Model)
}

// knownImageSuffixes are the URL suffixes trusted without sniffing.
var knownImageSuffixes = map[string]string{
	".png":  ".png",
	".jpg":  ".jpg",
	".jpeg": ".jpg",
}

// ExtensionFor infers the file extension for a downloaded image: from the
// URL path suffix when it is a known image suffix (normalizing .jpeg to
// .jpg), else from the response content type, else by sniffing the bytes,
// defaulting to .png.
func ExtensionFor(rawURL, contentType string, data []byte) string {
	if parsed, err := url.Parse(rawURL); err == nil {
		suffix := strings.ToLower(path.Ext(parsed.Path))
		if ext, ok := knownImageSuffixes[suffix]; ok {
			return ext
		}
	}

	if contentType != "" {
		lowered := strings.ToLower(contentType)
		switch {
		case strings.Contains(lowered, "png"):
			return ".png"
		case strings.Contains(lowered, "jpeg"), strings.Contains(lowered, "jpg"):
			return ".jpg"
		}
	}

	if len(data) > 0 {
		switch mimetype.Detect(data).String() {
		case "image/png":
			return ".png"
		case "image/jpeg":
			return ".jpg"
		}
	}

	return ".png"
}
