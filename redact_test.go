package imagegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zcordelier/imagegen/model"
)

func TestRedact(t *testing.T) {
	resolver := testResolver()

	t.Run("drops the local file path", func(t *testing.T) {
		res := resolve(t, "schnell", Inputs{Prompt: "x"})
		res.Params["file"] = "/home/zoe/prompts/scene.txt"

		redacted := resolver.Redact(res)
		arguments := redacted["arguments"].(map[string]any)
		assert.NotContains(t, arguments, "file")
		assert.Equal(t, "x", arguments["prompt"])
	})

	t.Run("shortens source image urls back to bare names", func(t *testing.T) {
		res := resolve(t, "kontext", Inputs{
			Prompt: "x",
			Values: map[string][]string{"image_url": {"keks"}},
		})

		arguments := resolver.Redact(res)["arguments"].(map[string]any)
		assert.Equal(t, "keks.jpg", arguments["image_url"])
	})

	t.Run("keeps foreign urls verbatim", func(t *testing.T) {
		res := resolve(t, "kontext", Inputs{
			Prompt: "x",
			Values: map[string][]string{"image_url": {"https://other.host/pic.jpg"}},
		})

		arguments := resolver.Redact(res)["arguments"].(map[string]any)
		assert.Equal(t, "https://other.host/pic.jpg", arguments["image_url"])
	})

	t.Run("shortens every entry of a url list", func(t *testing.T) {
		res := resolve(t, "nano-banana-edit", Inputs{
			Prompt: "x",
			Values: map[string][]string{"image_urls": {"keks,zimt", "https://other.host/pic.jpg"}},
		})

		arguments := resolver.Redact(res)["arguments"].(map[string]any)
		assert.Equal(t,
			[]string{"keks.jpg", "zimt.jpg", "https://other.host/pic.jpg"},
			arguments["image_urls"])

		data, err := MarshalDescription(resolver.Redact(res))
		require.NoError(t, err)
		assert.NotContains(t, string(data), "example.com")
	})

	t.Run("shortens lora paths and keeps weights", func(t *testing.T) {
		res := resolve(t, "krea-lora", Inputs{
			Prompt: "x",
			Values: map[string][]string{"loras": {"styleA;0.5"}},
		})

		arguments := resolver.Redact(res)["arguments"].(map[string]any)
		assert.Equal(t, []LoraRef{{Path: "styleA.safetensors", Scale: 0.5}}, arguments["loras"])
	})

	t.Run("carries call identity and extra metadata", func(t *testing.T) {
		common := DefaultCommon()
		common.Meta = `{"prompt_name":"scene"}`
		res, err := resolver.Resolve("nano-banana", Inputs{Prompt: "x"}, common)
		require.NoError(t, err)

		redacted := resolver.Redact(res)
		assert.Equal(t, "nano-banana", redacted["model"])
		assert.Equal(t, "fal-ai/nano-banana", redacted["endpoint"])
		assert.Equal(t, string(model.CallRun), redacted["call"])
		assert.Equal(t, "scene", redacted["prompt_name"])
	})

	t.Run("extra metadata cannot displace the call identity", func(t *testing.T) {
		common := DefaultCommon()
		common.Meta = `{"model":"spoofed","endpoint":"evil","call":"nope","arguments":"gone","prompt_name":"scene"}`
		res, err := resolver.Resolve("schnell", Inputs{Prompt: "x"}, common)
		require.NoError(t, err)

		redacted := resolver.Redact(res)
		assert.Equal(t, "schnell", redacted["model"])
		assert.Equal(t, "fal-ai/flux/schnell", redacted["endpoint"])
		assert.Equal(t, string(model.CallSubscribe), redacted["call"])
		assert.IsType(t, map[string]any{}, redacted["arguments"])
		assert.Equal(t, "scene", redacted["prompt_name"])
	})
}

func TestMarshalDescription(t *testing.T) {
	t.Run("produces deterministic compact bytes", func(t *testing.T) {
		description := map[string]any{
			"model":     "schnell",
			"endpoint":  "fal-ai/flux/schnell",
			"arguments": map[string]any{"b": 2, "a": 1},
		}

		first, err := MarshalDescription(description)
		require.NoError(t, err)
		second, err := MarshalDescription(description)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t,
			`{"arguments":{"a":1,"b":2},"endpoint":"fal-ai/flux/schnell","model":"schnell"}`,
			string(first))
	})

	t.Run("keeps non-ascii text verbatim", func(t *testing.T) {
		data, err := MarshalDescription(map[string]any{"prompt": "jardin élégant"})
		require.NoError(t, err)
		assert.Contains(t, string(data), "élégant")
		assert.NotContains(t, string(data), `\u`)
	})

	t.Run("does not escape html characters", func(t *testing.T) {
		data, err := MarshalDescription(map[string]any{"url": "https://a/b?c=1&d=2"})
		require.NoError(t, err)
		assert.Contains(t, string(data), "&d=2")
	})
}
