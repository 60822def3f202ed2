package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/ledgerlens/ledgerlens"
	"github.com/ledgerlens/ledgerlens/render"
	"github.com/ledgerlens/ledgerlens/warehouse"
)

// Run command errors.
var ErrNoReportFile = errors.New("no report file given")

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Execute a report spec and print the result",
		ArgsUsage: "<report.yaml>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "directory of <entity>.json fixture files",
				Value:   ".",
				Sources: cli.EnvVars("LEDGERLENS_DATA"),
			},
			&cli.BoolFlag{
				Name:  "plain",
				Usage: "disable styled output",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "output the result as JSON",
			},
			schemaFlag(),
			verboseFlag(),
		},
		Action: runReport,
	}
}

func runReport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return ErrNoReportFile
	}

	spec, err := ledgerlens.LoadReport(path)
	if err != nil {
		return err
	}

	catalog, err := loadCatalog(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd.Bool("verbose"))
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	store := warehouse.NewStore(
		warehouse.NewFixtureLoader(os.DirFS(cmd.String("data"))),
		warehouse.WithLogger(logger),
	)

	runner := ledgerlens.NewRunner(catalog, store, ledgerlens.WithLogger(logger))

	result, err := runner.Run(ctx, spec)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(result)
	}

	fmt.Print(render.Result(result, renderOptions(cmd)))

	return nil
}
