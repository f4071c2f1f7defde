package imagegen

import (
	"encoding/json"
	"math/rand"
	"strconv"
	"strings"

	"github.com/zcordelier/imagegen/model"
	"github.com/zcordelier/imagegen/prompt"
)

// Inputs carries the raw user-supplied values for one resolution: inline
// prompt text or a prompt-file reference, plus every other option value as
// it arrived from a flag or form field.
type Inputs struct {
	// Prompt is the inline prompt text; empty means not supplied.
	Prompt string
	// File is the prompt filespec; empty means not supplied. Ignored when
	// Prompt is set.
	File string
	// Values maps option names to their raw string values. Repeatable
	// options carry one entry per occurrence; for single-valued options
	// the last entry wins.
	Values map[string][]string
}

// Common carries the options shared by every model.
type Common struct {
	// AddPromptMetadata embeds the redacted request into each output file.
	AddPromptMetadata bool
	// Preview opens generated files after they are written.
	Preview bool
	// AsJPEG re-encodes PNG responses as JPEG files.
	AsJPEG bool
	// JPEGOptions is the raw comma-separated key=value encoder settings.
	JPEGOptions string
	// Meta is a raw JSON object with additional metadata to embed.
	Meta string
}

// DefaultCommon returns the common options as the CLI defaults them.
func DefaultCommon() Common {
	return Common{Preview: true, AsJPEG: true}
}

// JPEGOptions holds the JPEG encoder settings for PNG conversions.
type JPEGOptions struct {
	Quality     int
	Subsampling int
	Progressive bool
	Optimize    bool
}

// DefaultJPEGOptions returns the encoder defaults.
func DefaultJPEGOptions() JPEGOptions {
	return JPEGOptions{Quality: 75, Subsampling: 2, Progressive: true, Optimize: true}
}

// SizeValue is an explicit width/height pair sent in place of a preset.
type SizeValue struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// LoraRef is a weighted LoRA reference as the endpoint expects it.
type LoraRef struct {
	Path  string  `json:"path"`
	Scale float64 `json:"scale"`
}

// Resolved is the validated, typed parameter set ready to send to the
// remote service, together with the local handling flags that never leave
// the process.
type Resolved struct {
	Model    string
	Endpoint string
	Call     model.CallMode

	// Params is sent to the endpoint as the request arguments. It also
	// carries the resolved prompt file path under "file"; the redactor
	// drops that entry before anything is persisted.
	Params map[string]any

	AddPromptMetadata bool
	Preview           bool
	AsJPEG            bool
	JPEGOptions       JPEGOptions

	// Extra is additional metadata embedded alongside the request, never
	// sent to the remote service.
	Extra map[string]any
}

// PromptText returns the resolved prompt, or "".
func (r *Resolved) PromptText() string {
	if text, ok := r.Params["prompt"].(string); ok {
		return text
	}
	return ""
}

// PromptFile returns the resolved prompt file path, or "".
func (r *Resolved) PromptFile() string {
	if path, ok := r.Params["file"].(string); ok {
		return path
	}
	return ""
}

// Resolver validates raw inputs against a model's option schema.
type Resolver struct {
	registry *model.Registry
	// baseDir anchors relative prompt filespecs; "" means the current
	// working directory.
	baseDir         string
	sourceImageBase string
	safetensorsBase string
}

// NewResolver builds a resolver over the given registry using the
// configured resource base URLs.
func NewResolver(reg *model.Registry, cfg *Config) *Resolver {
	return &Resolver{
		registry:        reg,
		sourceImageBase: cfg.SourceImageBase,
		safetensorsBase: cfg.SafetensorsBase,
	}
}

// WithBaseDir returns a copy of the resolver that anchors relative prompt
// filespecs at dir.
func (r *Resolver) WithBaseDir(dir string) *Resolver {
	clone := *r
	clone.baseDir = dir
	return &clone
}

// Resolve runs the two-pass resolution algorithm: defaults are seeded from
// the model's option schema, then each raw input is validated against its
// declared spec and layered on top. All validation happens before any
// network call.
func (r *Resolver) Resolve(modelName string, in Inputs, common Common) (*Resolved, error) {
	def, ok := r.registry.Lookup(modelName)
	if !ok {
		return nil, &UnknownModelError{Model: modelName, Known: r.registry.Names()}
	}

	for name := range in.Values {
		if !def.HasOption(name) {
			return nil, invalidOption(name, "not supported by model %q", modelName)
		}
	}

	params := make(map[string]any)
	for _, spec := range def.Options {
		if spec.Default != nil && spec.Kind != model.KindPrompt {
			params[spec.Name] = spec.Default
		}
	}

	if err := r.resolvePrompt(def, in, params); err != nil {
		return nil, err
	}
	if err := r.resolveSize(def, in, params); err != nil {
		return nil, err
	}

	for _, spec := range def.Options {
		switch spec.Kind {
		case model.KindPrompt, model.KindSizePreset, model.KindSizeFlexible:
			continue
		}
		if spec.Name == "width" || spec.Name == "height" {
			continue
		}
		raw, supplied := lastValue(in.Values[spec.Name])
		if !supplied && spec.Kind != model.KindResourceList {
			continue
		}

		switch spec.Kind {
		case model.KindInt:
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, invalidOption(spec.Name, "expects an integer, got %q", raw)
			}
			params[spec.Name] = n
		case model.KindFloat:
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, invalidOption(spec.Name, "expects a number, got %q", raw)
			}
			params[spec.Name] = f
		case model.KindBool:
			b, err := parseBool(raw)
			if err != nil {
				return nil, invalidOption(spec.Name, "expects true or false, got %q", raw)
			}
			params[spec.Name] = b
		case model.KindString:
			params[spec.Name] = raw
		case model.KindResource:
			params[spec.Name] = r.expandResource(raw, spec.Resource)
		case model.KindResourceList:
			values := in.Values[spec.Name]
			if len(values) == 0 {
				continue
			}
			resolved, err := r.expandResourceList(values, spec)
			if err != nil {
				return nil, err
			}
			params[spec.Name] = resolved
		}
	}

	if spec, ok := def.Option("seed"); ok && spec.Kind == model.KindInt {
		if _, set := params["seed"]; !set {
			params["seed"] = int64(rand.Uint32())
		}
	}

	for _, alias := range def.Aliases {
		if value, ok := params[alias.From]; ok {
			delete(params, alias.From)
			params[alias.To] = value
		}
	}

	jpegOpts, err := ParseJPEGOptions(common.JPEGOptions)
	if err != nil {
		return nil, err
	}

	extra := map[string]any{}
	if strings.TrimSpace(common.Meta) != "" {
		if err := json.Unmarshal([]byte(common.Meta), &extra); err != nil {
			return nil, invalidOption("meta", "invalid JSON: %v", err)
		}
	}

	return &Resolved{
		Model:             modelName,
		Endpoint:          def.Endpoint,
		Call:              def.Call,
		Params:            params,
		AddPromptMetadata: common.AddPromptMetadata,
		Preview:           common.Preview,
		AsJPEG:            common.AsJPEG,
		JPEGOptions:       jpegOpts,
		Extra:             extra,
	}, nil
}

func (r *Resolver) resolvePrompt(def model.Definition, in Inputs, params map[string]any) error {
	spec, ok := def.Option("prompt")
	if !ok || spec.Kind != model.KindPrompt {
		if in.Prompt != "" || in.File != "" {
			return invalidOption("prompt", "not supported by model %q", def.Name)
		}
		return nil
	}

	switch {
	case in.Prompt != "":
		params["prompt"] = in.Prompt
		delete(params, "file")
	case in.File != "":
		path, err := prompt.ResolveFilespec(in.File, r.baseDir)
		if err != nil {
			return err
		}
		text, err := prompt.Read(path)
		if err != nil {
			return err
		}
		params["file"] = path
		params["prompt"] = text
	default:
		if spec.Default != nil {
			params["prompt"] = spec.Default
		}
	}
	return nil
}

func (r *Resolver) resolveSize(def model.Definition, in Inputs, params map[string]any) error {
	width, widthSet := lastValue(in.Values["width"])
	height, heightSet := lastValue(in.Values["height"])

	usedDimensions := false
	if widthSet || heightSet {
		if widthSet != heightSet {
			return invalidOption("width", "width and height must be provided together")
		}
		if !def.AllowsDimensions() {
			return invalidOption("width", "explicit dimensions are not supported by model %q", def.Name)
		}
		w, err := positiveInt(width)
		if err != nil {
			return invalidOption("width", "expects a positive integer, got %q", width)
		}
		h, err := positiveInt(height)
		if err != nil {
			return invalidOption("height", "expects a positive integer, got %q", height)
		}
		sizeSpec, _ := def.SizeOption()
		params[sizeSpec.Name] = SizeValue{Width: w, Height: h}
		usedDimensions = true
	}

	sizeSpec, ok := def.SizeOption()
	if !ok {
		return nil
	}
	raw, supplied := lastValue(in.Values[sizeSpec.Name])
	if !supplied || usedDimensions {
		return nil
	}

	value, err := parseSizeToken(sizeSpec.Name, raw, sizeSpec.AllowedSizes, sizeSpec.AllowDimensions)
	if err != nil {
		return err
	}
	params[sizeSpec.Name] = value
	return nil
}

// parseSizeToken validates a size preset or, when permitted, a literal
// <width>x<height> token. Presets match case-insensitively and resolve to
// their lower-cased form.
func parseSizeToken(option, raw string, allowed []string, allowDimensions bool) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", invalidOption(option, "must not be empty")
	}

	lowered := strings.ToLower(candidate)
	for _, size := range allowed {
		if strings.ToLower(size) == lowered {
			return lowered, nil
		}
	}

	if allowDimensions {
		if parts := strings.Split(lowered, "x"); len(parts) == 2 {
			w, werr := positiveInt(parts[0])
			h, herr := positiveInt(parts[1])
			if werr != nil || herr != nil {
				return "", invalidOption(option, "must be <width>x<height> with positive integer values, got %q", raw)
			}
			return strconv.Itoa(w) + "x" + strconv.Itoa(h), nil
		}
	}

	message := "must be one of " + strings.Join(allowed, ", ")
	if allowDimensions {
		message += " or <width>x<height>"
	}
	return "", invalidOption(option, "%s, got %q", message, raw)
}

// expandResourceList splits raw values on commas and newlines and expands
// each reference, honoring ";weight" suffixes when the spec declares them.
func (r *Resolver) expandResourceList(values []string, spec model.OptionSpec) (any, error) {
	var tokens []string
	for _, value := range values {
		tokens = append(tokens, prompt.SplitMultiValue(value)...)
	}

	if spec.Resource.WithWeights {
		refs := make([]LoraRef, 0, len(tokens))
		for _, token := range tokens {
			path, weight := splitWeight(token)
			refs = append(refs, LoraRef{Path: r.expandResource(path, spec.Resource), Scale: weight})
		}
		return refs, nil
	}

	urls := make([]string, 0, len(tokens))
	for _, token := range tokens {
		urls = append(urls, r.expandResource(token, spec.Resource))
	}
	return urls, nil
}

// expandResource turns a short reference into a full URL. References that
// already carry a scheme pass through verbatim; references without an
// extension get the spec's default suffix.
func (r *Resolver) expandResource(token string, spec *model.ResourceSpec) string {
	if strings.Contains(token, "://") {
		return token
	}
	name := token
	if !strings.Contains(name, ".") {
		name += spec.DefaultSuffix
	}
	base := r.sourceImageBase
	if spec.Base == model.BaseSafetensors {
		base = r.safetensorsBase
	}
	return strings.TrimRight(base, "/") + "/" + name
}

// splitWeight peels a trailing ";weight" off a resource token. A weight
// that fails to parse leaves the token intact with weight 1.
func splitWeight(token string) (string, float64) {
	idx := strings.LastIndex(token, ";")
	if idx < 0 {
		return token, 1.0
	}
	weight, err := strconv.ParseFloat(strings.TrimSpace(token[idx+1:]), 64)
	if err != nil {
		return token, 1.0
	}
	return token[:idx], weight
}

// ParseJPEGOptions parses the comma-separated key=value JPEG encoder
// settings. An empty input returns the defaults.
func ParseJPEGOptions(raw string) (JPEGOptions, error) {
	opts := DefaultJPEGOptions()
	if strings.TrimSpace(raw) == "" {
		return opts, nil
	}

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, value, found := strings.Cut(entry, "=")
		if !found {
			return opts, invalidOption("jpg-options", "entries must be key=value pairs (quality, subsampling, progressive, optimize)")
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "quality", "subsampling":
			n, err := strconv.Atoi(value)
			if err != nil {
				return opts, invalidOption("jpg-options", "%q expects an integer, got %q", key, value)
			}
			if key == "quality" {
				opts.Quality = n
			} else {
				opts.Subsampling = n
			}
		case "progressive", "optimize":
			b, err := parseBool(value)
			if err != nil {
				return opts, invalidOption("jpg-options", "%q expects true or false, got %q", key, value)
			}
			if key == "progressive" {
				opts.Progressive = b
			} else {
				opts.Optimize = b
			}
		default:
			return opts, invalidOption("jpg-options", "unknown key %q (valid keys: quality, subsampling, progressive, optimize)", key)
		}
	}
	return opts, nil
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, strconv.ErrSyntax
}

func lastValue(values []string) (string, bool) {
	if len(values) == 0 {
		return "", false
	}
	return values[len(values)-1], true
}

func positiveInt(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
