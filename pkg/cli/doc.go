// Package cli provides the shared plumbing of the echomemo command:
// directory layout under ~/.giztoy, result output (YAML, JSON, tables),
// and the process logger.
//
// Example usage:
//
//	paths, err := cli.NewPaths("echomemo")
//	logger, closer, err := cli.NewLogger(cli.LogOptions{Level: "debug"}, os.Stderr)
//
//	cli.Output(entries, cli.OutputOptions{Format: cli.FormatJSON})
package cli
