// Command imagegen generates images from the terminal: one subcommand per
// registered model, with flags derived from the model's option schema.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	imagegen "github.com/zcordelier/imagegen"
	"github.com/zcordelier/imagegen/client"
	"github.com/zcordelier/imagegen/model"
)

var version = "1.0.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// common carries the flags shared by every model subcommand.
type common struct {
	addPromptMetadata bool
	noPreview         bool
	asJPG             bool
	noAsJPG           bool
	jpgOptions        string
	meta              string
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "imagegen",
		Short: "Generate images with hosted diffusion models",
		Long: `imagegen invokes hosted image models and saves the results locally.

Each model is a subcommand; run "imagegen <model> --help" for its options.

Examples:
  imagegen schnell -p "a lighthouse at dusk"
  imagegen dev -f scene -i landscape_16_9
  imagegen qwen -p "city at night" -i 1024x768`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	shared := &common{}
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&shared.addPromptMetadata, "add-prompt", "a", false,
		"store the provided prompt in the image metadata")
	flags.BoolVar(&shared.noPreview, "no-preview", false,
		"do not open generated images after they are saved")
	flags.BoolVar(&shared.asJPG, "as-jpg", true, "save PNG responses as JPEGs")
	flags.BoolVar(&shared.noAsJPG, "no-as-jpg", false, "keep PNG responses as PNG files")
	flags.StringVar(&shared.jpgOptions, "jpg-options", "",
		"comma-separated JPEG options (quality, subsampling, progressive, optimize)")
	flags.StringVar(&shared.meta, "meta", "",
		"JSON object with additional metadata to embed")

	registry := model.Default()
	for _, name := range registry.Names() {
		def, _ := registry.Lookup(name)
		rootCmd.AddCommand(newModelCommand(def, registry, shared))
	}
	return rootCmd
}

func newModelCommand(def model.Definition, registry *model.Registry, shared *common) *cobra.Command {
	cmd := &cobra.Command{
		Use:   def.Name,
		Short: fmt.Sprintf("Generate images with %s", def.Endpoint),
		Long:  fmt.Sprintf("Generate images with %s.\n\nDocs: %s", def.Endpoint, def.DocURL),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModel(cmd, def, registry, shared)
		},
	}

	flags := cmd.Flags()
	for _, opt := range def.Options {
		help := opt.Help
		if opt.Default != nil {
			help = fmt.Sprintf("%s (default %v)", help, opt.Default)
		}

		switch opt.Kind {
		case model.KindPrompt:
			flags.StringP("prompt", "p", "", opt.Help)
			flags.StringP("file", "f", "", opt.FileHelp)
		case model.KindBool:
			flags.Bool(flagName(opt.Name), false, help)
			flags.Bool("no-"+flagName(opt.Name), false, disableHelp(opt))
		case model.KindResourceList:
			flags.StringArrayP(flagName(opt.Name), opt.Shorthand, nil, help)
		default:
			flags.StringP(flagName(opt.Name), opt.Shorthand, "", help)
		}
	}

	if def.HasOption("prompt") {
		cmd.MarkFlagsMutuallyExclusive("prompt", "file")
		cmd.MarkFlagsOneRequired("prompt", "file")
	}
	return cmd
}

func runModel(cmd *cobra.Command, def model.Definition, registry *model.Registry, shared *common) error {
	cfg, err := imagegen.LoadConfig()
	if err != nil {
		return err
	}
	log := imagegen.NewLogger(cfg)

	in := imagegen.Inputs{Values: map[string][]string{}}
	flags := cmd.Flags()
	for _, opt := range def.Options {
		switch opt.Kind {
		case model.KindPrompt:
			in.Prompt, _ = flags.GetString("prompt")
			in.File, _ = flags.GetString("file")
		case model.KindBool:
			if flags.Changed(flagName(opt.Name)) {
				in.Values[opt.Name] = []string{"true"}
			}
			if flags.Changed("no-" + flagName(opt.Name)) {
				in.Values[opt.Name] = []string{"false"}
			}
		case model.KindResourceList:
			if values, _ := flags.GetStringArray(flagName(opt.Name)); len(values) > 0 {
				in.Values[opt.Name] = values
			}
		default:
			if flags.Changed(flagName(opt.Name)) {
				value, _ := flags.GetString(flagName(opt.Name))
				in.Values[opt.Name] = []string{value}
			}
		}
	}

	commonOpts := imagegen.DefaultCommon()
	commonOpts.AddPromptMetadata = shared.addPromptMetadata
	commonOpts.Preview = !shared.noPreview
	commonOpts.AsJPEG = shared.asJPG && !shared.noAsJPG
	commonOpts.JPEGOptions = shared.jpgOptions
	commonOpts.Meta = shared.meta

	resolver := imagegen.NewResolver(registry, cfg)
	resolved, err := resolver.Resolve(def.Name, in, commonOpts)
	if err != nil {
		return err
	}

	gen := &imagegen.Generator{
		Transport: client.New(cfg.FalKey, client.WithLogger(log)),
		Resolver:  resolver,
		OutputDir: cfg.AssetsDir,
		Log:       log,
	}
	if resolved.Preview {
		gen.Preview = openPreview
	}
	if err := os.MkdirAll(cfg.AssetsDir, 0o755); err != nil {
		return err
	}

	paths, err := gen.Generate(cmd.Context(), resolved)
	if err != nil {
		return err
	}
	for _, path := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	return nil
}

func flagName(option string) string {
	return strings.ReplaceAll(option, "_", "-")
}

func disableHelp(opt model.OptionSpec) string {
	if opt.DisableHelp != "" {
		return opt.DisableHelp
	}
	return fmt.Sprintf("disable %s", strings.ReplaceAll(opt.Name, "_", " "))
}
