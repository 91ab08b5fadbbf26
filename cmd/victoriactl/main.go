// victoriactl is the one-shot companion to the victoria service: parse a
// chat export to CSV/XLSX without a database, ingest one into the store,
// print a rankings report, or apply migrations.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/fortuna/victoria/internal/clock"
	"github.com/fortuna/victoria/internal/config"
	"github.com/fortuna/victoria/internal/export"
	"github.com/fortuna/victoria/internal/ingest/htmlexport"
	"github.com/fortuna/victoria/internal/ingest/whatsapp"
	"github.com/fortuna/victoria/internal/rank"
	"github.com/fortuna/victoria/internal/service"
	"github.com/fortuna/victoria/internal/store"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "victoriactl",
		Usage: "parse chat exports and compute mini-game leaderboards",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: "config.yaml",
				Usage: "path to the configuration file",
			},
		},
		Commands: []*cli.Command{
			newParseCommand(),
			newReportCommand(),
			newIngestCommand(),
			newMigrateCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newParseCommand() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "parse a chat export file into a result table",
		ArgsUsage: "<chat-export-file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "csv", Usage: "write the table to this CSV path"},
			&cli.StringFlag{Name: "xlsx", Usage: "write the table and rankings to this XLSX path"},
			&cli.StringFlag{Name: "format", Value: "", Usage: "export format: txt or html (default: by file extension)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one chat export file")
			}
			path := c.Args().First()

			table, err := parseFile(path, c.String("format"))
			if err != nil {
				return err
			}
			fmt.Printf("Extracted %d game results from %s\n", len(table), path)

			if out := c.String("csv"); out != "" {
				if err := writeCSVFile(out, table); err != nil {
					return err
				}
				fmt.Printf("Wrote %s\n", out)
			}

			if out := c.String("xlsx"); out != "" {
				cfg, err := config.LoadConfig(c.String("config"))
				if err != nil {
					return err
				}
				report, err := rank.NewBuilder().Report(table, cfg.Games.Names, rank.DayAll, nil)
				if err != nil && !errors.Is(err, rank.ErrNoResults) {
					return err
				}
				if err := writeXLSXFile(out, table, report); err != nil {
					return err
				}
				fmt.Printf("Wrote %s\n", out)
			}

			if c.String("csv") == "" && c.String("xlsx") == "" {
				printTable(table)
			}
			return nil
		},
	}
}

func newReportCommand() *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "compute rankings from a chat export file",
		ArgsUsage: "<chat-export-file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "day", Value: rank.DayAll, Usage: "day filter: All or YYYY-MM-DD"},
			&cli.StringFlag{Name: "start", Usage: "only count days from this date on (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "format", Value: "", Usage: "export format: txt or html (default: by file extension)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one chat export file")
			}

			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return err
			}

			table, err := parseFile(c.Args().First(), c.String("format"))
			if err != nil {
				return err
			}

			var startDate *time.Time
			if startStr := c.String("start"); startStr != "" {
				start, err := time.Parse("2006-01-02", startStr)
				if err != nil {
					return fmt.Errorf("invalid start date %q: %w", startStr, err)
				}
				startDate = &start
			}

			report, err := rank.NewBuilder().Report(table, cfg.Games.Names, c.String("day"), startDate)
			if err != nil {
				return err
			}

			printReport(report)
			return nil
		},
	}
}

func newIngestCommand() *cli.Command {
	return &cli.Command{
		Name:      "ingest",
		Usage:     "parse a chat export file and store it as a new snapshot",
		ArgsUsage: "<chat-export-file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Value: "", Usage: "export format: txt or html (default: by file extension)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one chat export file")
			}
			path := c.Args().First()

			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return err
			}

			db, err := store.NewDatabase(cfg.Postgres.DSN)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close()

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			ingest := service.NewIngestService(db, nil, nil)
			upload, results, err := ingest.IngestChatExport(context.Background(), f, sourceFor(path, c.String("format")), path)
			if err != nil {
				return err
			}

			fmt.Printf("Stored snapshot %s with %d results\n", upload.UploadID, len(results))
			return nil
		},
	}
}

func newMigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply database migrations",
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return err
			}

			db, err := store.NewDatabase(cfg.Postgres.DSN)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close()

			return db.RunMigrations()
		},
	}
}

func sourceFor(path, format string) string {
	switch format {
	case "html":
		return service.SourceTelegramHTML
	case "txt":
		return service.SourceWhatsAppTxt
	}
	if strings.HasSuffix(strings.ToLower(path), ".html") {
		return service.SourceTelegramHTML
	}
	return service.SourceWhatsAppTxt
}

func parseFile(path, format string) ([]store.GameResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	parser := whatsapp.NewParser()
	if sourceFor(path, format) == service.SourceTelegramHTML {
		flattened, err := htmlexport.Reader(f)
		if err != nil {
			return nil, err
		}
		return parser.Parse(flattened)
	}
	return parser.Parse(f)
}

func writeCSVFile(path string, table []store.GameResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return export.WriteCSV(f, table)
}

func writeXLSXFile(path string, table []store.GameResult, report *rank.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return export.WriteXLSX(f, table, report)
}

func printTable(table []store.GameResult) {
	for _, r := range table {
		ceo := "-"
		if r.CEOPercent.Valid {
			ceo = fmt.Sprintf("%d%%", r.CEOPercent.Int32)
		}
		fmt.Printf("%s  %-20s %-12s #%-5d %6s  %s\n",
			r.Date.Format("2006-01-02"), r.Sender, r.Game, r.GameNumber,
			clock.MMSS(r.PlayTimeSeconds), ceo)
	}
}

func printReport(report *rank.Report) {
	fmt.Println("=== Total Scores ===")
	for i, row := range report.TotalPoints {
		fmt.Printf("%2d. %-20s %.2f\n", i+1, row.Player, row.Points)
	}
	fmt.Printf("(%s)\n", report.ScoringNote)

	for _, view := range report.PerGame {
		fmt.Printf("\n=== %s ===\n", view.Game)
		for i, row := range view.Rows {
			fmt.Printf("%2d. %-20s avg %6s  min %6s  days won %d  score %.2f\n",
				i+1, row.Player, row.AvgTime, row.MinTime, row.BestOfDayCount, row.Points)
		}
	}

	if len(report.TotalTime) > 0 {
		fmt.Println("\n=== Total Time (normalized) ===")
		for i, row := range report.TotalTime {
			fmt.Printf("%2d. %-20s %s over %d games\n", i+1, row.Player, row.TotalTime, row.GamesPlayed)
		}
	}

	fmt.Println("\n=== Overall Days Won ===")
	for i, row := range report.BestOfDay {
		fmt.Printf("%2d. %-20s %d\n", i+1, row.Player, row.Wins)
	}
}
