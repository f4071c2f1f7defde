package model

import "sort"

// CallMode is how an endpoint is invoked.
type CallMode string

const (
	// CallRun performs a direct synchronous invocation.
	CallRun CallMode = "run"
	// CallSubscribe submits to the queue and waits for completion.
	CallSubscribe CallMode = "subscribe"
)

// ParamAlias renames a resolved parameter before transmission, e.g. a model
// that expects "aspect_ratio" where the schema declares "image_size".
type ParamAlias struct {
	From string
	To   string
}

// Definition describes one remote model: its endpoint, invocation mode, and
// ordered option schema. Definitions are immutable after load; the resolver
// never mutates them.
type Definition struct {
	Name     string
	Endpoint string
	Call     CallMode
	DocURL   string
	Options  []OptionSpec
	Aliases  []ParamAlias
}

// Option returns the spec for the named option.
func (d Definition) Option(name string) (OptionSpec, bool) {
	for _, opt := range d.Options {
		if opt.Name == name {
			return opt, true
		}
	}
	return OptionSpec{}, false
}

// HasOption reports whether the model declares the named option.
func (d Definition) HasOption(name string) bool {
	_, ok := d.Option(name)
	return ok
}

// SizeOption returns the model's size-typed option, if any.
func (d Definition) SizeOption() (OptionSpec, bool) {
	for _, opt := range d.Options {
		if opt.IsSize() {
			return opt, true
		}
	}
	return OptionSpec{}, false
}

// AllowsDimensions reports whether the model accepts an explicit
// width/height pair.
func (d Definition) AllowsDimensions() bool {
	size, ok := d.SizeOption()
	return ok && size.Kind == KindSizeFlexible && d.HasOption("width") && d.HasOption("height")
}

// Registry maps model names to definitions.
type Registry struct {
	byName map[string]Definition
}

// NewRegistry builds a registry from the given definitions.
func NewRegistry(defs ...Definition) *Registry {
	byName := make(map[string]Definition, len(defs))
	for _, def := range defs {
		byName[def.Name] = def
	}
	return &Registry{byName: byName}
}

// Lookup returns the definition for the named model.
func (r *Registry) Lookup(name string) (Definition, bool) {
	def, ok := r.byName[name]
	return def, ok
}

// Names returns all model names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
