package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-csodata/pkg/dataset"
	"github.com/robert-malhotra/go-csodata/pkg/export"
	"github.com/robert-malhotra/go-csodata/pkg/table"
)

func newDatasetCommand() *cli.Command {
	return &cli.Command{
		Name:      "dataset",
		Usage:     "Download the observations of a table",
		ArgsUsage: "<table-code>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "long, wide (one column per period) or tidy (one column per statistic)",
				Value:   "long",
			},
			&cli.StringSliceFlag{
				Name:  "filter",
				Usage: "keep rows where dimension=value[,value...]; repeatable",
			},
			&cli.StringFlag{
				Name:  "include-ids",
				Usage: "ID columns to keep: none, all, spatial_only or a list of dimensions",
				Value: "none",
			},
			&cli.BoolFlag{Name: "drop-filtered", Usage: "drop columns reduced by --filter"},
			&cli.BoolFlag{Name: "drop-national", Usage: "drop State/Ireland aggregate rows"},
			&cli.BoolFlag{Name: "convert-dates", Usage: "convert the time column to dates or years"},
			&cli.BoolFlag{Name: "geo", Usage: "attach boundary geometry"},
			outputFlag(),
			outFileFlag(),
		},
		Action: datasetAction,
	}
}

func newDescribeCommand() *cli.Command {
	return &cli.Command{
		Name:      "describe",
		Usage:     "Show the metadata of a table",
		ArgsUsage: "<table-code>",
		Flags:     []cli.Flag{outputFlag(), outFileFlag()},
		Action:    describeAction,
	}
}

func datasetAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("expected 1 argument: table code")
	}
	format, err := table.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	filters, err := parseFilters(cmd.StringSlice("filter"))
	if err != nil {
		return err
	}

	e, err := envFromCommand(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ds, err := dataset.Open(ctx, e.client, cmd.Args().First(),
		dataset.WithFilters(filters),
		dataset.WithIncludeIDs(parseIncludeIDs(cmd.String("include-ids"))),
		dataset.WithDropFilteredColumns(cmd.Bool("drop-filtered")),
		dataset.WithDropNationalData(cmd.Bool("drop-national")),
		dataset.WithConvertDates(cmd.Bool("convert-dates")),
		dataset.WithSanitise(e.cfg.Sanitise),
		dataset.WithLogger(e.logger),
	)
	if err != nil {
		return err
	}
	e.logger.Debugf("opened %s", ds)

	if cmd.Bool("geo") {
		g, err := ds.GeoTable(ctx, format)
		if err != nil {
			return err
		}
		return writeGeoTable(cmd, g)
	}
	t, err := ds.Table(ctx, format)
	if err != nil {
		return err
	}
	return writeTable(cmd, t)
}

func describeAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("expected 1 argument: table code")
	}
	f, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	if f == export.Parquet || f == export.GeoJSON {
		return fmt.Errorf("describe supports table, csv or json output, not %s", f)
	}

	e, err := envFromCommand(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ds, err := dataset.Open(ctx, e.client, cmd.Args().First(),
		dataset.WithSanitise(e.cfg.Sanitise),
		dataset.WithLogger(e.logger),
	)
	if err != nil {
		return err
	}
	return writeTable(cmd, metadataTable(ds.Metadata()))
}
