package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/ledgerlens/ledgerlens"
	"github.com/ledgerlens/ledgerlens/sqltext"
)

func sqlCommand() *cli.Command {
	return &cli.Command{
		Name:      "sql",
		Usage:     "Print a report spec as readable SQL",
		ArgsUsage: "<report.yaml>",
		Flags:     []cli.Flag{schemaFlag()},
		Action:    printSQL,
	}
}

func printSQL(_ context.Context, cmd *cli.Command) error {
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

	fmt.Print(sqltext.Generate(spec, catalog))

	return nil
}
