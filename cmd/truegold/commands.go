package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/truegold/internal/appraisal"
	"github.com/mtlprog/truegold/internal/domain"
	"github.com/mtlprog/truegold/internal/export"
	"github.com/mtlprog/truegold/internal/fx"
	"github.com/mtlprog/truegold/internal/pricing"
)

func ratesCommand() *cli.Command {
	return &cli.Command{
		Name:  "rates",
		Usage: "print the resolved exchange-rate table",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "refresh", Usage: "fetch live rates and store them in the cache"},
		},
		Action: func(c *cli.Context) error {
			return withApp(c, func(a *app) error {
				var (
					table  domain.RateTable
					source fx.Source
				)
				if c.Bool("refresh") {
					t, err := a.resolver.Refresh(c.Context)
					if err != nil {
						return cli.Exit(fmt.Sprintf("refreshing rates: %v", err), 1)
					}
					table, source = t, fx.SourceLive
				} else {
					table, source = a.resolver.ResolveWithSource(c.Context)
				}
				return printRates(c.App.Writer, table, source)
			})
		},
	}
}

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "convert an amount between currencies",
		ArgsUsage: "AMOUNT FROM TO",
		Action: func(c *cli.Context) error {
			if c.NArg() != 3 {
				return cli.Exit("usage: truegold convert AMOUNT FROM TO", 2)
			}
			amount, err := strconv.ParseFloat(c.Args().Get(0), 64)
			if err != nil {
				return cli.Exit(fmt.Sprintf("invalid amount %q", c.Args().Get(0)), 2)
			}
			from, err := domain.ParseCurrency(c.Args().Get(1))
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			to, err := domain.ParseCurrency(c.Args().Get(2))
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}

			return withApp(c, func(a *app) error {
				result := fx.NewConverter(a.resolver).Convert(c.Context, amount, from, to)
				_, err := fmt.Fprintf(c.App.Writer, "%s %s = %s %s\n",
					domain.FormatMoney(amount), from, domain.FormatMoney(result), to)
				return err
			})
		},
	}
}

func marketCommand() *cli.Command {
	return &cli.Command{
		Name:  "market",
		Usage: "print the market board for every metal kind",
		Flags: boardFlags(),
		Action: func(c *cli.Context) error {
			return withApp(c, func(a *app) error {
				board, err := buildBoard(c, a)
				if err != nil {
					return err
				}
				return printBoard(c.App.Writer, board)
			})
		},
	}
}

func appraiseCommand() *cli.Command {
	return &cli.Command{
		Name:  "appraise",
		Usage: "value a weight of metal at the current price",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Value: string(domain.GoldSpot), Usage: "metal kind"},
			&cli.StringFlag{Name: "purity", Usage: "purity preset ID (default: the metal's default)"},
			&cli.StringFlag{Name: "weight", Required: true, Usage: "weight, comma or dot decimal"},
			&cli.StringFlag{Name: "unit", Value: "gram", Usage: "weight unit"},
			&cli.StringFlag{Name: "currency", Value: "USD", Usage: "target currency"},
		},
		Action: func(c *cli.Context) error {
			return withApp(c, func(a *app) error {
				result, err := a.calculator.AppraiseWeight(c.Context, appraisal.Request{
					Kind:     c.String("kind"),
					Purity:   c.String("purity"),
					Weight:   c.String("weight"),
					Unit:     c.String("unit"),
					Currency: c.String("currency"),
				})
				if err != nil {
					return cli.Exit(err.Error(), 2)
				}
				_, err = fmt.Fprintf(c.App.Writer, "%s %s (%s %s per gram)\n%s\n",
					domain.FormatMoney(result.Total), result.Currency,
					domain.FormatMoney(result.PerGram), result.Currency, result.Note)
				return err
			})
		},
	}
}

func exportCommand() *cli.Command {
	flags := append(boardFlags(),
		&cli.StringFlag{Name: "xlsx", Usage: "write the board workbook to `PATH` (default: XLSX_EXPORT_PATH)"},
		&cli.BoolFlag{Name: "sheets", Usage: "publish the board to the configured Google spreadsheet"},
	)
	return &cli.Command{
		Name:  "export",
		Usage: "export the market board to XLSX and/or Google Sheets",
		Flags: flags,
		Action: func(c *cli.Context) error {
			return withApp(c, func(a *app) error {
				path := c.String("xlsx")
				if path == "" {
					path = a.cfg.XLSXExportPath
				}
				if path == "" && !c.Bool("sheets") {
					return cli.Exit("nothing to export: pass --xlsx PATH or --sheets", 2)
				}

				board, err := buildBoard(c, a)
				if err != nil {
					return err
				}

				if path != "" {
					if err := export.NewXLSXWriter(path).Export(c.Context, board); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "wrote %s\n", path)
				}
				if c.Bool("sheets") {
					if a.cfg.GoogleSheetsID == "" || a.cfg.GoogleCredentialsJSON == "" {
						return cli.Exit("GOOGLE_SHEETS_ID and GOOGLE_CREDENTIALS_JSON are required for --sheets", 2)
					}
					w, err := export.NewSheetsWriter(c.Context, a.cfg.GoogleSheetsID, a.cfg.GoogleCredentialsJSON)
					if err != nil {
						return err
					}
					if err := w.Export(c.Context, board); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "published to Google Sheets")
				}
				return nil
			})
		},
	}
}

func boardFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "currency", Value: "USD", Usage: "board currency"},
		&cli.StringFlag{Name: "unit", Value: "gram", Usage: "board unit: gram or ozt"},
	}
}

func buildBoard(c *cli.Context, a *app) (pricing.Board, error) {
	target, err := domain.ParseCurrency(c.String("currency"))
	if err != nil {
		return pricing.Board{}, cli.Exit(err.Error(), 2)
	}
	unit, err := domain.ParseWeightUnit(c.String("unit"))
	if err != nil {
		return pricing.Board{}, cli.Exit(err.Error(), 2)
	}
	board, err := a.engine.Board(c.Context, target, unit)
	if err != nil {
		return pricing.Board{}, cli.Exit(err.Error(), 2)
	}
	return board, nil
}

func printRates(out io.Writer, table domain.RateTable, source fx.Source) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "source: %s\n", source)
	for _, code := range table.Codes() {
		fmt.Fprintf(tw, "%s\t%s\n", code, strconv.FormatFloat(table[code], 'f', -1, 64))
	}
	return tw.Flush()
}

func printBoard(out io.Writer, board pricing.Board) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if board.Notice != "" {
		fmt.Fprintln(tw, board.Notice)
	}
	fmt.Fprintf(tw, "KIND\tPER GRAM\tPER %s\tSOURCE\n", board.Unit.Name)
	for _, row := range board.Rows {
		switch {
		case row.Error != "":
			fmt.Fprintf(tw, "%s\t-\t-\t%s\n", row.Title, row.Error)
		case !row.Available:
			fmt.Fprintf(tw, "%s\t-\t-\tno %s rate\n", row.Title, board.Currency)
		default:
			fmt.Fprintf(tw, "%s\t%s %s\t%s %s\t%s\n", row.Title,
				domain.FormatMoney(row.PerGram), board.Currency,
				domain.FormatMoney(row.PerUnit), board.Currency, row.Source)
		}
	}
	fmt.Fprintf(tw, "rates: %s\n", board.RateSource)
	return tw.Flush()
}
