// Package imagegen turns declarative model definitions into validated fal
// invocations and persists the returned images with provenance metadata.
//
// The package is organized around a small pipeline:
//
//   - [Resolver]: validates raw flag or form input against a model's option
//     schema and produces a [Resolved] parameter set.
//   - [Generator]: sends the resolved parameters to the remote endpoint
//     through a [Transport], extracts image URLs from the arbitrarily shaped
//     response, downloads each image, and writes it under a derived name.
//   - [Resolver.Redact]: rebuilds a safe-to-embed copy of the request (no
//     local file paths, no private base URLs) for storage inside each image.
//
// Model schemas live in the [github.com/zcordelier/imagegen/model] package,
// the fal HTTP transport in [github.com/zcordelier/imagegen/client], and
// response traversal in [github.com/zcordelier/imagegen/payload].
//
// # Basic Usage
//
//	cfg, err := imagegen.LoadConfig()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resolver := imagegen.NewResolver(model.Default(), cfg)
//	res, err := resolver.Resolve("schnell", imagegen.Inputs{Prompt: "two cats"}, imagegen.DefaultCommon())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	gen := &imagegen.Generator{
//	    Transport: client.New(cfg.FalKey),
//	    Resolver:  resolver,
//	    OutputDir: cfg.AssetsDir,
//	    Log:       logger,
//	}
//	paths, err := gen.Generate(ctx, res)
package imagegen
