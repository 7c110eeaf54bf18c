package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-csodata/pkg/catalogue"
)

func fromFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "from",
		Usage: "only tables released on or after this date (YYYY-MM-DD)",
	}
}

func newTOCCommand() *cli.Command {
	return &cli.Command{
		Name:   "toc",
		Usage:  "List the table of contents",
		Flags:  []cli.Flag{fromFlag(), outputFlag(), outFileFlag()},
		Action: tocAction,
	}
}

func newSearchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the table of contents",
		Description: "Text criteria accept AND, OR, NOT, parentheses and quoted phrases,\n" +
			`e.g. --title 'population AND (county OR "electoral division")'.`,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "code", Usage: "table code contains this text"},
			&cli.StringFlag{Name: "title", Usage: "boolean expression over the title"},
			&cli.StringFlag{Name: "variables", Usage: "boolean expression over variable names"},
			&cli.StringFlag{Name: "time-variable", Usage: "boolean expression over the time variable"},
			&cli.StringFlag{Name: "time-range", Usage: `date ("2020") or range ("(2016, 2022)") the table must cover`},
			fromFlag(),
			&cli.StringFlag{Name: "organisation", Usage: "organisation contains this text"},
			&cli.StringFlag{Name: "exceptional", Usage: "true or false"},
			outputFlag(),
			outFileFlag(),
		},
		Action: searchAction,
	}
}

func tocAction(ctx context.Context, cmd *cli.Command) error {
	e, err := envFromCommand(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	cat := e.catalogue()
	entries, err := cat.TOC(ctx, cmd.String("from"))
	if err != nil {
		return err
	}
	e.reportSkipped(cat)
	return writeTable(cmd, catalogue.Table(entries))
}

func searchAction(ctx context.Context, cmd *cli.Command) error {
	q := catalogue.Query{
		Code:         cmd.String("code"),
		Title:        cmd.String("title"),
		Variables:    cmd.String("variables"),
		TimeVariable: cmd.String("time-variable"),
		TimeRange:    cmd.String("time-range"),
		FromDate:     cmd.String("from"),
		Organisation: cmd.String("organisation"),
	}
	if cmd.IsSet("exceptional") {
		v, err := strconv.ParseBool(cmd.String("exceptional"))
		if err != nil {
			return fmt.Errorf("flag --exceptional: %w", err)
		}
		q.Exceptional = &v
	}

	e, err := envFromCommand(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	cat := e.catalogue()
	entries, err := cat.Search(ctx, q)
	if err != nil {
		return err
	}
	e.reportSkipped(cat)
	e.logger.Debugf("search: %d tables matched", len(entries))
	return writeTable(cmd, catalogue.Table(entries))
}

func (e *env) catalogue() *catalogue.Catalogue {
	return catalogue.New(e.client,
		catalogue.WithSanitise(e.cfg.Sanitise),
		catalogue.WithCache(e.cfg.Cache),
		catalogue.WithLogger(e.logger),
	)
}

func (e *env) reportSkipped(cat *catalogue.Catalogue) {
	if n := cat.Skipped(); n > 0 {
		e.logger.Warnf("catalogue: skipped %d malformed items", n)
	}
}
