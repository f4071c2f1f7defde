package imagegen

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeComponent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases and dashes", "A Quiet Harbor!", "a-quiet-harbor"},
		{"keeps digits", "scene 01", "scene-01"},
		{"trims leading and trailing dashes", "  --hello-- ", "hello"},
		{"empty input falls back", "", "image"},
		{"punctuation only falls back", "!!!", "image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeComponent(tt.in))
		})
	}
}

func TestTruncateWords(t *testing.T) {
	t.Run("short text passes through", func(t *testing.T) {
		assert.Equal(t, "a b c", TruncateWords("a b c", 50))
	})

	t.Run("cuts at the last space inside the limit", func(t *testing.T) {
		text := "a b c-dreamy forest scene and more words here padding"
		got := TruncateWords(text, 50)
		assert.Equal(t, "a b c-dreamy forest scene and more words here", got)
		assert.LessOrEqual(t, len(got), 50)
	})

	t.Run("text without spaces is cut hard", func(t *testing.T) {
		assert.Equal(t, "aaaaa", TruncateWords("aaaaaaaaaa", 5))
	})

	t.Run("never cuts inside a rune", func(t *testing.T) {
		got := TruncateWords("ééééé", 5)
		assert.Equal(t, "éé", got)
		assert.True(t, utf8.ValidString(got))
	})

	t.Run("a space before an oversized rune still wins", func(t *testing.T) {
		assert.Equal(t, "ab", TruncateWords("ab ééé", 4))
	})
}

func TestBaseComponent(t *testing.T) {
	t.Run("file stem plus prompt slug", func(t *testing.T) {
		res := &Resolved{Model: "schnell", Params: map[string]any{
			"file":   "prompts/scene_01.txt",
			"prompt": "Misty Morning",
		}}
		assert.Equal(t, "scene-01-misty-morning", BaseComponent(res))
	})

	t.Run("prompt slug alone", func(t *testing.T) {
		res := &Resolved{Model: "schnell", Params: map[string]any{
			"prompt": "A Quiet Harbor",
		}}
		assert.Equal(t, "a-quiet-harbor", BaseComponent(res))
	})

	t.Run("model name when nothing else is available", func(t *testing.T) {
		res := &Resolved{Model: "nano-banana", Params: map[string]any{}}
		assert.Equal(t, "nano-banana", BaseComponent(res))
	})

	t.Run("long prompts truncate at a word boundary", func(t *testing.T) {
		res := &Resolved{Model: "schnell", Params: map[string]any{
			"prompt": "a b c-dreamy forest scene and more words here padding",
		}}
		assert.Equal(t, "a-b-c-dreamy-forest-scene-and-more-words-here", BaseComponent(res))
	})
}

func TestExtensionFor(t *testing.T) {
	pngHeader := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}

	tests := []struct {
		name        string
		url         string
		contentType string
		data        []byte
		want        string
	}{
		{"png url suffix", "https://cdn.example/a.png", "", nil, ".png"},
		{"jpg url suffix", "https://cdn.example/a.jpg", "", nil, ".jpg"},
		{"jpeg url suffix normalizes", "https://cdn.example/a.jpeg", "", nil, ".jpg"},
		{"query string does not hide the suffix", "https://cdn.example/a.png?sig=xyz", "", nil, ".png"},
		{"content type fallback", "https://cdn.example/file", "image/jpeg", nil, ".jpg"},
		{"content type with parameters", "https://cdn.example/file", "image/png; charset=binary", nil, ".png"},
		{"sniffed png bytes", "https://cdn.example/file", "", pngHeader, ".png"},
		{"default is png", "https://cdn.example/file", "application/octet-stream", nil, ".png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtensionFor(tt.url, tt.contentType, tt.data))
		})
	}
}
