package model

// OptionKind selects how an option's raw value is parsed and validated.
type OptionKind int

const (
	// KindPrompt is the free-text prompt. Exactly one of inline text or a
	// prompt-file reference resolves it; the default applies only when
	// neither is supplied.
	KindPrompt OptionKind = iota
	// KindSizePreset accepts one of the declared preset tokens
	// (case-insensitive), and a literal WxH token when AllowDimensions is
	// set on the spec.
	KindSizePreset
	// KindSizeFlexible behaves like KindSizePreset but the model also
	// declares width and height options; an explicit pair takes precedence
	// over any preset value.
	KindSizeFlexible
	// KindInt is a plain integer option.
	KindInt
	// KindFloat is a plain floating point option.
	KindFloat
	// KindBool is a toggle with an enable and a disable flag.
	KindBool
	// KindString is a free-form string option.
	KindString
	// KindResource is a single external resource reference, expanded
	// against a configured base URL unless it already carries a scheme.
	KindResource
	// KindResourceList is a repeatable, comma/newline separated list of
	// resource references, each optionally carrying a ";weight" suffix.
	KindResourceList
)

// String returns the kind name used in help output and error messages.
func (k OptionKind) String() string {
	switch k {
	case KindPrompt:
		return "prompt"
	case KindSizePreset:
		return "size"
	case KindSizeFlexible:
		return "size+dimensions"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindResource:
		return "resource"
	case KindResourceList:
		return "resource list"
	default:
		return "unknown"
	}
}

// ResourceBase selects which configured base URL a resource option expands
// against.
type ResourceBase int

const (
	// BaseSourceImage expands references against SOURCE_IMAGE_URL.
	BaseSourceImage ResourceBase = iota
	// BaseSafetensors expands references against SAFETENSORS_URL.
	BaseSafetensors
)

// ResourceSpec describes how resource-kind option values are expanded.
type ResourceSpec struct {
	Base ResourceBase
	// DefaultSuffix is appended to references that carry no extension.
	DefaultSuffix string
	// WithWeights parses a trailing ";weight" from each reference and
	// produces weighted entries instead of plain URLs.
	WithWeights bool
}

// OptionSpec declares a single named option of a model.
type OptionSpec struct {
	Name string
	Kind OptionKind

	// Default is the value seeded before user input is applied; nil means
	// no default. For KindInt seed options a nil default requests a fresh
	// random seed per invocation.
	Default any

	Help string
	// FileHelp documents the prompt-file alternative (KindPrompt only).
	FileHelp string
	// DisableHelp documents the disabling flag (KindBool only).
	DisableHelp string

	// Shorthand is the single-letter flag alias, "" for none.
	Shorthand string

	// AllowedSizes lists the valid preset tokens (size kinds only).
	AllowedSizes []string
	// AllowDimensions permits a literal WxH token in the size value
	// itself (size kinds only).
	AllowDimensions bool

	// Resource configures expansion for resource kinds.
	Resource *ResourceSpec
}

// IsSize reports whether the option is one of the size kinds.
func (s OptionSpec) IsSize() bool {
	return s.Kind == KindSizePreset || s.Kind == KindSizeFlexible
}
