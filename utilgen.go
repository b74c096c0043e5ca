// Package utilgen generates on-demand utility stylesheets from a
// tailwind.config.js style descriptor.
//
// utilgen reads the descriptor, resolves its plugins, scans the content
// globs for class candidates and emits only the utilities that are used,
// plus the safelist.
//
// # Building
//
//	res, err := utilgen.Build(ctx, utilgen.Config{
//		DescriptorPath: "tailwind.config.js",
//		OutputPath:     "dist/app.css",
//	})
//
// A Builder keeps the content cache between builds:
//
//	b, err := utilgen.NewBuilder(config)
//	res, err := b.Build(ctx)
//	rules, err := b.Explain("md:hover:bg-red-500")
//
// # Watching
//
//	err := b.Watch(ctx, utilgen.DefaultDebounce, func(res *utilgen.Result, err error) {
//		// report each build
//	})
//
// # Descriptors
//
// Descriptors may be JavaScript or TypeScript object literals
// (module.exports = {...}, export default {...}), YAML, JSON or TOML.
// Every format goes through DescriptorFromMap, so validation and errors are
// the same for all of them.
//
// # CLI Tool
//
// utilgen also provides a CLI tool. Install with:
//
//	go install github.com/yacobolo/utilgen/cmd/utilgen@latest
package utilgen
