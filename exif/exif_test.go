package exif

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJPEG(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shot.jpg")
	require.NoError(t, os.WriteFile(path, []byte{0xFF, 0xD8, 0xFF, 0xD9}, 0o644))
	return path
}

func writeTempPNG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	path := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestFormatDescription(t *testing.T) {
	t.Run("frames model and prompt", func(t *testing.T) {
		got := FormatDescription("schnell", "a quiet harbor")
		assert.Equal(t, "Model: schnell Prompt: a quiet harbor ", got)
	})

	t.Run("collapses newlines", func(t *testing.T) {
		got := FormatDescription("dev", "line one\nline two")
		assert.NotContains(t, got, "\n")
		assert.Contains(t, got, "line one line two")
	})

	t.Run("omits an empty model", func(t *testing.T) {
		assert.Equal(t, "Prompt: hello ", FormatDescription("", "hello"))
	})
}

func TestWriteAndReadJPEG(t *testing.T) {
	path := writeTempJPEG(t)
	description := `Model: schnell Prompt: {"model":"schnell"} `

	require.NoError(t, Write(path, description))

	got, err := ReadDescription(path)
	require.NoError(t, err)
	assert.Equal(t, description, got)

	t.Run("rewriting replaces the previous description", func(t *testing.T) {
		require.NoError(t, Write(path, "Prompt: second "))
		got, err := ReadDescription(path)
		require.NoError(t, err)
		assert.Equal(t, "Prompt: second ", got)
	})

	t.Run("the file still starts with a JPEG marker", func(t *testing.T) {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []byte{0xFF, 0xD8}, data[:2])
	})
}

func TestWriteAndReadPNG(t *testing.T) {
	path := writeTempPNG(t)
	description := "Model: dev Prompt: jardin élégant "

	require.NoError(t, Write(path, description))

	got, err := ReadDescription(path)
	require.NoError(t, err)
	assert.Equal(t, description, got)

	t.Run("the file still decodes as a PNG", func(t *testing.T) {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		_, err = png.Decode(bytes.NewReader(data))
		assert.NoError(t, err)
	})

	t.Run("rewriting does not stack chunks", func(t *testing.T) {
		require.NoError(t, Write(path, "Prompt: second "))
		got, err := ReadDescription(path)
		require.NoError(t, err)
		assert.Equal(t, "Prompt: second ", got)
	})
}

func TestWriteRejectsOtherFormats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("text"), 0o644))

	assert.Error(t, Write(path, "Prompt: x "))
	_, err := ReadDescription(path)
	assert.Error(t, err)
}

func TestParseDescription(t *testing.T) {
	t.Run("parses a bare JSON description", func(t *testing.T) {
		info := ParseDescription(`{"model":"dev","style_name":"noir","prompt_name":"scene","arguments":{"prompt":"a harbor"}}`)

		assert.Equal(t, "dev", info.Model)
		assert.Equal(t, "noir", info.StyleName)
		assert.Equal(t, "scene", info.PromptName)
		assert.Equal(t, "a harbor", info.Prompt)
	})

	t.Run("parses the legacy framing", func(t *testing.T) {
		info := ParseDescription("Model: schnell Prompt: a quiet harbor ")

		assert.Equal(t, "schnell", info.Model)
		assert.Equal(t, "a quiet harbor", info.Prompt)
	})

	t.Run("parses JSON nested in the legacy framing", func(t *testing.T) {
		info := ParseDescription(`Model: schnell Prompt: {"model":"schnell","prompt_name":"scene","arguments":{"prompt":"hills"}} `)

		assert.Equal(t, "schnell", info.Model)
		assert.Equal(t, "scene", info.PromptName)
		assert.Equal(t, "hills", info.Prompt)
	})

	t.Run("prompt-only framing leaves the model empty", func(t *testing.T) {
		info := ParseDescription("Prompt: hello ")
		assert.Empty(t, info.Model)
		assert.Equal(t, "hello", info.Prompt)
	})

	t.Run("unrecognized text yields nothing", func(t *testing.T) {
		info := ParseDescription("just some words")
		assert.Equal(t, Info{}, info)
	})
}

func TestRepairEncoding(t *testing.T) {
	t.Run("repairs a latin-1 round trip", func(t *testing.T) {
		original := "jardin élégant"
		mangled := ""
		for _, b := range []byte(original) {
			mangled += string(rune(b))
		}

		assert.Equal(t, original, RepairEncoding(mangled))
	})

	t.Run("ascii passes through", func(t *testing.T) {
		assert.Equal(t, "plain text", RepairEncoding("plain text"))
	})

	t.Run("text with wide runes passes through", func(t *testing.T) {
		assert.Equal(t, "日本語", RepairEncoding("日本語"))
	})
}
