package imagegen

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/zcordelier/imagegen/model"
)

// Redact produces the metadata view of a resolved call: the local prompt
// file path is dropped and resource URLs under the shared bases are
// shortened back to their bare names, so the embedded description carries
// no information about the local filesystem or the resource hosts.
func (r *Resolver) Redact(res *Resolved) map[string]any {
	def, known := r.registry.Lookup(res.Model)

	arguments := make(map[string]any, len(res.Params))
	for name, value := range res.Params {
		if name == "file" {
			continue
		}
		if known {
			if opt, ok := def.Option(name); ok && opt.Resource != nil {
				value = r.redactResource(opt, value)
			}
		}
		arguments[name] = value
	}

	description := map[string]any{
		"model":     res.Model,
		"endpoint":  res.Endpoint,
		"call":      string(res.Call),
		"arguments": arguments,
	}
	for key, value := range res.Extra {
		// Extra metadata never displaces the identity of the call itself.
		if _, reserved := description[key]; reserved {
			continue
		}
		description[key] = value
	}
	return description
}

// redactResource reverses the expansion applied by expandResource: values
// that still carry the configured base URL prefix are reduced to the part
// after it, anything else is kept verbatim.
func (r *Resolver) redactResource(opt model.OptionSpec, value any) any {
	base := r.resourceBase(opt.Resource.Base)
	if base == "" {
		return value
	}

	switch v := value.(type) {
	case string:
		return stripBase(v, base)
	case []string:
		redacted := make([]string, len(v))
		for i, entry := range v {
			redacted[i] = stripBase(entry, base)
		}
		return redacted
	case []LoraRef:
		redacted := make([]LoraRef, len(v))
		for i, ref := range v {
			redacted[i] = LoraRef{Path: stripBase(ref.Path, base), Scale: ref.Scale}
		}
		return redacted
	}
	return value
}

func (r *Resolver) resourceBase(base model.ResourceBase) string {
	switch base {
	case model.BaseSourceImage:
		return r.sourceImageBase
	case model.BaseSafetensors:
		return r.safetensorsBase
	}
	return ""
}

func stripBase(value, base string) string {
	prefix := strings.TrimRight(base, "/") + "/"
	return strings.TrimPrefix(value, prefix)
}

// MarshalDescription serializes a redacted description to compact JSON
// with deterministic key order and without HTML escaping, so identical
// inputs always produce identical bytes.
func MarshalDescription(description map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(description); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
