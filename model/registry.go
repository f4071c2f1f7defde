package model

// fluxSizes are the preset tokens shared by the flux family endpoints.
var fluxSizes = []string{
	"square_hd", "square",
	"portrait_4_3", "portrait_16_9",
	"landscape_4_3", "landscape_16_9",
}

// bananaRatios are the aspect ratio tokens accepted by the nano-banana
// endpoints; the schema keeps them under image_size and an alias renames
// the parameter before transmission.
var bananaRatios = []string{"1:1", "3:4", "4:3", "9:16", "16:9", "21:9"}

func promptOption() OptionSpec {
	return OptionSpec{
		Name:      "prompt",
		Kind:      KindPrompt,
		Help:      "prompt text",
		FileHelp:  "prompt file in prompts/",
		Shorthand: "p",
	}
}

func seedOption() OptionSpec {
	return OptionSpec{
		Name:      "seed",
		Kind:      KindInt,
		Help:      "random seed (fresh value per call when omitted)",
		Shorthand: "s",
	}
}

func safetyOption() OptionSpec {
	return OptionSpec{
		Name:        "enable_safety_checker",
		Kind:        KindBool,
		Default:     false,
		Help:        "enable safety checker",
		DisableHelp: "disable safety checker",
	}
}

var definitions = []Definition{
	{
		Name:     "schnell",
		Endpoint: "fal-ai/flux/schnell",
		Call:     CallSubscribe,
		DocURL:   "https://fal.ai/models/fal-ai/flux/schnell/api#schema",
		Options: []OptionSpec{
			promptOption(),
			{Name: "image_size", Kind: KindSizePreset, Default: "landscape_4_3", AllowedSizes: fluxSizes, Help: "preset image size", Shorthand: "i"},
			{Name: "num_inference_steps", Kind: KindInt, Default: 4, Help: "number of diffusion steps"},
			{Name: "num_images", Kind: KindInt, Default: 1, Help: "number of images to generate"},
			seedOption(),
			safetyOption(),
		},
	},
	{
		Name:     "dev",
		Endpoint: "fal-ai/flux/dev",
		Call:     CallSubscribe,
		DocURL:   "https://fal.ai/models/fal-ai/flux/dev/api#schema",
		Options: []OptionSpec{
			promptOption(),
			{Name: "image_size", Kind: KindSizeFlexible, Default: "landscape_4_3", AllowedSizes: fluxSizes, Help: "preset image size", Shorthand: "i"},
			{Name: "width", Kind: KindInt, Help: "explicit width in pixels (requires --height)"},
			{Name: "height", Kind: KindInt, Help: "explicit height in pixels (requires --width)"},
			{Name: "num_inference_steps", Kind: KindInt, Default: 28, Help: "number of diffusion steps"},
			{Name: "guidance_scale", Kind: KindFloat, Default: 3.5, Help: "classifier-free guidance scale"},
			{Name: "num_images", Kind: KindInt, Default: 1, Help: "number of images to generate"},
			seedOption(),
			safetyOption(),
		},
	},
	{
		Name:     "krea-lora",
		Endpoint: "fal-ai/flux-krea-lora",
		Call:     CallSubscribe,
		DocURL:   "https://fal.ai/models/fal-ai/flux-krea-lora/api#schema",
		Options: []OptionSpec{
			promptOption(),
			{Name: "image_size", Kind: KindSizeFlexible, Default: "landscape_4_3", AllowedSizes: fluxSizes, Help: "preset image size", Shorthand: "i"},
			{Name: "width", Kind: KindInt, Help: "explicit width in pixels (requires --height)"},
			{Name: "height", Kind: KindInt, Help: "explicit height in pixels (requires --width)"},
			{
				Name: "loras", Kind: KindResourceList,
				Resource: &ResourceSpec{Base: BaseSafetensors, DefaultSuffix: ".safetensors", WithWeights: true},
				Help:     "comma-separated LoRA references, each optionally suffixed with ;weight",
			},
			{Name: "num_inference_steps", Kind: KindInt, Default: 28, Help: "number of diffusion steps"},
			{Name: "guidance_scale", Kind: KindFloat, Default: 3.5, Help: "classifier-free guidance scale"},
			seedOption(),
			safetyOption(),
		},
	},
	{
		Name:     "realism",
		Endpoint: "fal-ai/flux-realism",
		Call:     CallSubscribe,
		DocURL:   "https://fal.ai/models/fal-ai/flux-realism/api#schema",
		Options: []OptionSpec{
			promptOption(),
			{Name: "image_size", Kind: KindSizePreset, Default: "landscape_4_3", AllowedSizes: fluxSizes, Help: "preset image size", Shorthand: "i"},
			{Name: "strength", Kind: KindFloat, Default: 1.0, Help: "realism strength"},
			{Name: "num_inference_steps", Kind: KindInt, Default: 28, Help: "number of diffusion steps"},
			{Name: "guidance_scale", Kind: KindFloat, Default: 3.5, Help: "classifier-free guidance scale"},
			seedOption(),
			safetyOption(),
		},
	},
	{
		Name:     "hidream-fast",
		Endpoint: "fal-ai/hidream-i1-fast",
		Call:     CallSubscribe,
		DocURL:   "https://fal.ai/models/fal-ai/hidream-i1-fast/api#schema",
		Options: []OptionSpec{
			promptOption(),
			{Name: "negative_prompt", Kind: KindString, Default: "", Help: "things to avoid in the image", Shorthand: "n"},
			{Name: "image_size", Kind: KindSizePreset, Default: "portrait_4_3", AllowedSizes: fluxSizes, Help: "preset image size", Shorthand: "i"},
			{Name: "num_inference_steps", Kind: KindInt, Default: 16, Help: "number of diffusion steps"},
			{Name: "num_images", Kind: KindInt, Default: 1, Help: "number of images to generate"},
			{Name: "output_format", Kind: KindString, Default: "jpeg", Help: "remote output format (jpeg or png)"},
			seedOption(),
			safetyOption(),
		},
	},
	{
		Name:     "qwen",
		Endpoint: "fal-ai/qwen-image",
		Call:     CallSubscribe,
		DocURL:   "https://fal.ai/models/fal-ai/qwen-image/api#schema",
		Options: []OptionSpec{
			promptOption(),
			{Name: "image_size", Kind: KindSizePreset, Default: "landscape_4_3", AllowedSizes: fluxSizes, AllowDimensions: true, Help: "preset image size or <width>x<height>", Shorthand: "i"},
			{Name: "num_inference_steps", Kind: KindInt, Default: 30, Help: "number of diffusion steps"},
			{Name: "guidance_scale", Kind: KindFloat, Default: 2.5, Help: "classifier-free guidance scale"},
			{Name: "num_images", Kind: KindInt, Default: 1, Help: "number of images to generate"},
			seedOption(),
			safetyOption(),
		},
	},
	{
		Name:     "kontext",
		Endpoint: "fal-ai/flux-pro/kontext",
		Call:     CallRun,
		DocURL:   "https://fal.ai/models/fal-ai/flux-pro/kontext/api#schema",
		Options: []OptionSpec{
			promptOption(),
			{
				Name: "image_url", Kind: KindResource,
				Resource:  &ResourceSpec{Base: BaseSourceImage, DefaultSuffix: ".jpg"},
				Help:      "source image reference or URL",
				Shorthand: "u",
			},
			{Name: "guidance_scale", Kind: KindFloat, Default: 3.5, Help: "classifier-free guidance scale"},
			{Name: "num_images", Kind: KindInt, Default: 1, Help: "number of images to generate"},
			seedOption(),
			safetyOption(),
		},
	},
	{
		Name:     "nano-banana",
		Endpoint: "fal-ai/nano-banana",
		Call:     CallRun,
		DocURL:   "https://fal.ai/models/fal-ai/nano-banana/api#schema",
		Options: []OptionSpec{
			promptOption(),
			{Name: "image_size", Kind: KindSizePreset, Default: "1:1", AllowedSizes: bananaRatios, Help: "aspect ratio", Shorthand: "i"},
			{Name: "num_images", Kind: KindInt, Default: 1, Help: "number of images to generate"},
			{Name: "output_format", Kind: KindString, Default: "jpeg", Help: "remote output format (jpeg or png)"},
		},
		Aliases: []ParamAlias{{From: "image_size", To: "aspect_ratio"}},
	},
	{
		Name:     "nano-banana-edit",
		Endpoint: "fal-ai/nano-banana/edit",
		Call:     CallRun,
		DocURL:   "https://fal.ai/models/fal-ai/nano-banana/edit/api#schema",
		Options: []OptionSpec{
			promptOption(),
			{
				Name: "image_urls", Kind: KindResourceList,
				Resource:  &ResourceSpec{Base: BaseSourceImage, DefaultSuffix: ".jpg"},
				Help:      "comma-separated source image references or URLs",
				Shorthand: "u",
			},
			{Name: "image_size", Kind: KindSizePreset, Default: "1:1", AllowedSizes: bananaRatios, Help: "aspect ratio", Shorthand: "i"},
			{Name: "num_images", Kind: KindInt, Default: 1, Help: "number of images to generate"},
			{Name: "output_format", Kind: KindString, Default: "jpeg", Help: "remote output format (jpeg or png)"},
		},
		Aliases: []ParamAlias{{From: "image_size", To: "aspect_ratio"}},
	},
}

var defaultRegistry = NewRegistry(definitions...)

// Default returns the built-in model registry.
func Default() *Registry {
	return defaultRegistry
}
