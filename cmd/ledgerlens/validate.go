package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/ledgerlens/ledgerlens"
	"github.com/ledgerlens/ledgerlens/engine"
)

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check a report spec against the schema catalog",
		ArgsUsage: "<report.yaml>",
		Flags:     []cli.Flag{schemaFlag()},
		Action:    validateReport,
	}
}

func validateReport(_ context.Context, cmd *cli.Command) error {
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

	if err := spec.Validate(catalog); err != nil {
		return err
	}

	fmt.Printf("%s: valid\n", path)

	// Advisory only: an oversized series is still executable.
	start, end, err := spec.Range()
	if err != nil {
		return err
	}

	validation := engine.ValidateGranularityRange(start, end, spec.ResolveGranularity(), spec.MaxBuckets)
	if !validation.Valid {
		fmt.Println("warning:", validation.Warning)
	}

	return nil
}
