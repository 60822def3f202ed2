// Command ledgerlens executes analytics report specs against JSON entity
// fixtures and prints the resulting tables and metric series.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ledgerlens/ledgerlens/render"
	"github.com/ledgerlens/ledgerlens/schema"
)

func main() {
	cmd := &cli.Command{
		Name:  "ledgerlens",
		Usage: "Run analytics reports over entity fixtures",
		Commands: []*cli.Command{
			runCommand(),
			sqlCommand(),
			validateCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// schemaFlag and verboseFlag are shared by every subcommand.
func schemaFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "schema",
		Aliases: []string{"s"},
		Usage:   "schema catalog YAML (default: built-in billing catalog)",
		Sources: cli.EnvVars("LEDGERLENS_SCHEMA"),
	}
}

func verboseFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "verbose output",
	}
}

func loadCatalog(cmd *cli.Command) (*schema.Catalog, error) {
	if path := cmd.String("schema"); path != "" {
		return schema.Load(path)
	}

	return schema.Default(), nil
}

// newLogger logs to stderr so stdout stays clean for report output.
func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}

	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	return config.Build()
}

func renderOptions(cmd *cli.Command) render.Options {
	if cmd.Bool("plain") {
		return render.Options{}
	}

	fd := os.Stdout.Fd()

	return render.Options{Styled: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)}
}
