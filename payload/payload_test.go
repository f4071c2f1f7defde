package payload

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLs(t *testing.T) {
	t.Run("collects nested urls in document order", func(t *testing.T) {
		doc := FromJSON([]byte(`{
			"images": [
				{"url": "https://cdn.example/a.png", "width": 1024},
				{"url": "https://cdn.example/b.png"}
			],
			"extra": {"preview": "https://cdn.example/c.jpg"}
		}`))

		assert.Equal(t, []string{
			"https://cdn.example/a.png",
			"https://cdn.example/b.png",
			"https://cdn.example/c.jpg",
		}, URLs(doc))
	})

	t.Run("deduplicates repeated urls", func(t *testing.T) {
		doc := FromJSON([]byte(`["https://cdn.example/a.png", "https://cdn.example/a.png"]`))
		assert.Equal(t, []string{"https://cdn.example/a.png"}, URLs(doc))
	})

	t.Run("ignores non-url strings and non-strings", func(t *testing.T) {
		doc := FromJSON([]byte(`{"status": "done", "count": 3, "ok": true, "note": null}`))
		assert.Empty(t, URLs(doc))
	})

	t.Run("matches the scheme prefix case-insensitively", func(t *testing.T) {
		doc := FromJSON([]byte(`{"url": "HTTPS://cdn.example/a.png"}`))
		assert.Equal(t, []string{"HTTPS://cdn.example/a.png"}, URLs(doc))
	})

	t.Run("empty document yields nothing", func(t *testing.T) {
		assert.Empty(t, URLs(FromJSON([]byte(`{}`))))
		assert.Empty(t, URLs(FromJSON(nil)))
	})
}

func TestToken(t *testing.T) {
	t.Run("finds a nested request id", func(t *testing.T) {
		doc := FromJSON([]byte(`{"detail": {"request_id": "abc123"}}`))

		token, ok := Token(doc, DefaultTokenKeys)
		require.True(t, ok)
		assert.Equal(t, "abc123", token)
	})

	t.Run("earlier keys win over later ones", func(t *testing.T) {
		doc := FromJSON([]byte(`{"id": "low", "request_id": "high"}`))

		token, ok := Token(doc, DefaultTokenKeys)
		require.True(t, ok)
		assert.Equal(t, "high", token)
	})

	t.Run("non-string ids are skipped", func(t *testing.T) {
		doc := FromJSON([]byte(`{"id": 42}`))
		_, ok := Token(doc, DefaultTokenKeys)
		assert.False(t, ok)
	})

	t.Run("only the first occurrence of a key counts", func(t *testing.T) {
		doc := FromJSON([]byte(`{
			"request_id": 7,
			"detail": {"request_id": "later", "id": "fallback"}
		}`))

		token, ok := Token(doc, DefaultTokenKeys)
		require.True(t, ok)
		assert.Equal(t, "fallback", token)
	})

	t.Run("missing keys report absence", func(t *testing.T) {
		doc := FromJSON([]byte(`{"images": []}`))
		_, ok := Token(doc, DefaultTokenKeys)
		assert.False(t, ok)
	})
}

type jsonWrapper struct{ body []byte }

func (w jsonWrapper) JSON() []byte { return w.body }

type resultWrapper struct{ inner any }

func (w resultWrapper) Result() any { return w.inner }

func TestFromAny(t *testing.T) {
	t.Run("unwraps a json carrier", func(t *testing.T) {
		doc := FromAny(jsonWrapper{body: []byte(`{"url": "https://cdn.example/a.png"}`)})
		assert.Equal(t, []string{"https://cdn.example/a.png"}, URLs(doc))
	})

	t.Run("unwraps chained accessors", func(t *testing.T) {
		inner := map[string]any{"request_id": "abc"}
		doc := FromAny(resultWrapper{inner: resultWrapper{inner: inner}})

		token, ok := Token(doc, DefaultTokenKeys)
		require.True(t, ok)
		assert.Equal(t, "abc", token)
	})

	t.Run("normalizes decoded maps with sorted keys", func(t *testing.T) {
		doc := FromAny(map[string]any{
			"b": "https://cdn.example/b.png",
			"a": "https://cdn.example/a.png",
		})
		assert.Equal(t, []string{
			"https://cdn.example/a.png",
			"https://cdn.example/b.png",
		}, URLs(doc))
	})

	t.Run("accepts raw messages", func(t *testing.T) {
		doc := FromAny(json.RawMessage(`["https://cdn.example/a.png"]`))
		assert.Equal(t, []string{"https://cdn.example/a.png"}, URLs(doc))
	})
}
