package imagegen

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zcordelier/imagegen/exif"
	"github.com/zcordelier/imagegen/model"
	"github.com/zcordelier/imagegen/payload"
)

// Invocation is one completed remote call. JSON returns the raw response
// body as the service produced it.
type Invocation interface {
	JSON() []byte
}

// Transport performs remote calls against the image service. Implementations
// live in the client package; tests substitute fakes.
type Transport interface {
	// Run invokes the endpoint synchronously.
	Run(ctx context.Context, endpoint string, args map[string]any) (Invocation, error)
	// Subscribe submits to the queue and waits for the result.
	Subscribe(ctx context.Context, endpoint string, args map[string]any) (Invocation, error)
}

// Generator turns a resolved request into image files on disk: it invokes
// the endpoint, extracts image URLs from the response, downloads each one
// and writes it under OutputDir with optional embedded metadata.
type Generator struct {
	Transport Transport
	Resolver  *Resolver

	// OutputDir receives the generated files; "" means the working
	// directory.
	OutputDir string

	// HTTP downloads image URLs; nil means http.DefaultClient.
	HTTP *http.Client

	Log zerolog.Logger

	// Now stamps filenames; nil means time.Now.
	Now func() time.Time

	// Preview opens a written file for viewing; nil disables previews.
	Preview func(path string)
}

// Generate performs one generation round trip and returns the paths of the
// files written, in response order. A failure on any image abandons the
// whole batch.
func (g *Generator) Generate(ctx context.Context, res *Resolved) ([]string, error) {
	args := make(map[string]any, len(res.Params))
	for name, value := range res.Params {
		if name == "file" {
			continue
		}
		args[name] = value
	}

	keys := make([]string, 0, len(args))
	for name := range args {
		keys = append(keys, name)
	}
	sort.Strings(keys)

	start := time.Now()
	g.Log.Info().
		Str("model", res.Model).
		Str("endpoint", res.Endpoint).
		Str("call", string(res.Call)).
		Strs("args", keys).
		Msg("invoking endpoint")

	var (
		inv Invocation
		err error
	)
	switch res.Call {
	case model.CallRun:
		inv, err = g.Transport.Run(ctx, res.Endpoint, args)
	default:
		inv, err = g.Transport.Subscribe(ctx, res.Endpoint, args)
	}
	if err != nil {
		return nil, err
	}
	g.Log.Info().
		Str("endpoint", res.Endpoint).
		Dur("elapsed", time.Since(start)).
		Msg("endpoint responded")

	doc := payload.FromJSON(inv.JSON())
	urls := payload.URLs(doc)
	if len(urls) == 0 {
		return nil, fmt.Errorf("%s: %w", res.Endpoint, ErrNoImages)
	}

	token, ok := payload.Token(doc, payload.DefaultTokenKeys)
	if !ok {
		token = shortToken()
	}

	var description []byte
	if res.AddPromptMetadata {
		marshaled, merr := MarshalDescription(g.Resolver.Redact(res))
		if merr != nil {
			return nil, merr
		}
		description = marshaled
	}

	stamp := g.timestamp()
	base := BaseComponent(res)

	paths := make([]string, 0, len(urls))
	for i, imageURL := range urls {
		data, contentType, derr := g.download(ctx, imageURL)
		if derr != nil {
			return nil, derr
		}

		ext := ExtensionFor(imageURL, contentType, data)
		if res.AsJPEG && ext == ".png" {
			converted, cerr := pngToJPEG(data, res.JPEGOptions)
			if cerr != nil {
				return nil, fmt.Errorf("converting %s: %w", imageURL, cerr)
			}
			data, ext = converted, ".jpg"
		}

		path := g.outputPath(base, stamp, i, ext, token)
		if werr := os.WriteFile(path, data, 0o644); werr != nil {
			return nil, werr
		}

		if description != nil {
			text := exif.FormatDescription(res.Model, string(description))
			if merr := exif.Write(path, text); merr != nil {
				mwe := &MetadataWriteError{Path: path, Err: merr}
				g.Log.Warn().Err(mwe).Str("path", path).Msg("metadata not embedded")
			}
		}

		g.Log.Info().Str("path", path).Str("url", imageURL).Msg("image written")
		if res.Preview && g.Preview != nil {
			g.Preview(path)
		}
		paths = append(paths, path)
	}

	return paths, nil
}

func (g *Generator) timestamp() string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	return now().Format("20060102150405")
}

// outputPath assembles <base>-<stamp>[-<n>]<ext> under OutputDir, appending
// the response token when the name is already taken.
func (g *Generator) outputPath(base, stamp string, index int, ext, token string) string {
	name := base + "-" + stamp
	if index > 0 {
		name = fmt.Sprintf("%s-%d", name, index+1)
	}

	path := filepath.Join(g.OutputDir, name+ext)
	if _, err := os.Stat(path); err == nil {
		path = filepath.Join(g.OutputDir, name+"-"+token+ext)
	}
	return path
}

func (g *Generator) download(ctx context.Context, rawURL string) ([]byte, string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, "", fmt.Errorf("unusable image url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}

	httpClient := g.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, "", &RemoteCallError{Endpoint: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &RemoteCallError{Endpoint: rawURL, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &RemoteCallError{Endpoint: rawURL, Err: err}
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// pngToJPEG re-encodes a PNG as JPEG, flattening any alpha channel onto a
// white background first.
func pngToJPEG(data []byte, opts JPEGOptions) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	flattened := image.NewRGBA(bounds)
	draw.Draw(flattened, bounds, image.NewUniform(image.White), image.Point{}, draw.Src)
	draw.Draw(flattened, bounds, img, bounds.Min, draw.Over)

	quality := opts.Quality
	if quality <= 0 {
		quality = DefaultJPEGOptions().Quality
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flattened, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// shortToken is the fallback asset token when the response carries no
// request identifier.
func shortToken() string {
	return strings.Split(uuid.NewString(), "-")[0]
}
