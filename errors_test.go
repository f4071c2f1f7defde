package imagegen

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownModelError(t *testing.T) {
	err := &UnknownModelError{Model: "flux9000", Known: []string{"dev", "schnell"}}

	assert.Contains(t, err.Error(), `"flux9000"`)
	assert.Contains(t, err.Error(), "dev, schnell")
	assert.True(t, IsUnknownModel(err))
	assert.True(t, IsUnknownModel(fmt.Errorf("resolving: %w", err)))
	assert.False(t, IsUnknownModel(errors.New("other")))
}

func TestInvalidOptionError(t *testing.T) {
	err := invalidOption("seed", "expects an integer, got %q", "abc")

	require.True(t, IsInvalidOption(err))
	assert.Equal(t, "seed", err.Option)
	assert.Equal(t, `invalid option "seed": expects an integer, got "abc"`, err.Error())
	assert.False(t, IsInvalidOption(errors.New("other")))
}

func TestRemoteCallError(t *testing.T) {
	t.Run("wraps the underlying error", func(t *testing.T) {
		underlying := errors.New("connection refused")
		err := &RemoteCallError{Endpoint: "fal-ai/flux/dev", Err: underlying}

		assert.ErrorIs(t, err, underlying)
		assert.Contains(t, err.Error(), "fal-ai/flux/dev")
	})

	t.Run("includes the status code", func(t *testing.T) {
		err := &RemoteCallError{Endpoint: "fal-ai/flux/dev", Status: 503}
		assert.Contains(t, err.Error(), "503")
	})
}

func TestMetadataWriteError(t *testing.T) {
	underlying := errors.New("permission denied")
	err := &MetadataWriteError{Path: "assets/a.jpg", Err: underlying}

	assert.ErrorIs(t, err, underlying)
	assert.Contains(t, err.Error(), "assets/a.jpg")
}
