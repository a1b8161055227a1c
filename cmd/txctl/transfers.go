package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/txflow/internal/bus/kafka"
	"github.com/MrJamesThe3rd/txflow/internal/database"
	"github.com/MrJamesThe3rd/txflow/internal/export"
	"github.com/MrJamesThe3rd/txflow/internal/importer"
	"github.com/MrJamesThe3rd/txflow/internal/transaction"
	txStore "github.com/MrJamesThe3rd/txflow/internal/transaction/store"
)

var (
	exportStatus string
	exportBefore string
	exportLimit  int
	exportOutput string
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Create transactions from a transfer file",
		Long: `Read a CSV file with source account, target account and value columns
and create one transaction per row, in file order. Comma, semicolon and tab
delimiters are accepted; lines above the header are ignored.

Examples:
  txctl import transfers.csv`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write transactions to CSV",
		Long: `Examples:
  txctl export --status Rejected -o rejected.csv
  txctl export --before 2026-01-01T00:00:00Z --limit 1000`,
		RunE: runExport,
	}

	cmd.Flags().StringVar(&exportStatus, "status", "", "only transactions with this status")
	cmd.Flags().StringVar(&exportBefore, "before", "", "only transactions created before this RFC 3339 time")
	cmd.Flags().IntVarP(&exportLimit, "limit", "n", 0, "maximum rows, 0 for all")
	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	db, err := database.New(ctx, cfg.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()

	producer, err := kafka.NewProducer(cfg.Kafka, logger)
	if err != nil {
		return err
	}
	defer producer.Close()

	svc := importer.NewService(transaction.NewService(txStore.New(db), producer, cfg.Kafka.CreatedTopic, logger), logger)

	res, importErr := svc.Import(ctx, f)
	if res == nil {
		return importErr
	}

	t := table.New().Headers("LINE", "RESULT")

	for _, tx := range res.Created {
		t.Row("", "created "+tx.ExternalID.String()+" "+tx.Value.StringFixed(2))
	}

	for _, failed := range res.Failed {
		t.Row(fmt.Sprint(failed.Line), "error: "+failed.Err.Error())
	}

	fmt.Println(t.Render())
	fmt.Printf("%d created, %d failed\n", len(res.Created), len(res.Failed))

	return importErr
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	filter := transaction.ListFilter{Limit: exportLimit}

	if exportStatus != "" {
		status, err := transaction.ParseStatus(exportStatus)
		if err != nil {
			return err
		}

		filter.Status = &status
	}

	if exportBefore != "" {
		before, err := time.Parse(time.RFC3339, exportBefore)
		if err != nil {
			return fmt.Errorf("invalid --before: %w", err)
		}

		filter.CreatedBefore = &before
	}

	db, err := database.New(ctx, cfg.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()

	var out io.Writer = os.Stdout

	if exportOutput != "" {
		file, err := os.Create(exportOutput)
		if err != nil {
			return err
		}
		defer file.Close()

		out = file
	}

	svc := export.NewService(transaction.NewService(txStore.New(db), nil, cfg.Kafka.CreatedTopic, logger))

	n, err := svc.Export(ctx, out, filter)
	if err != nil {
		return err
	}

	logger.Info("export written", "rows", n, "output", exportOutput)

	return nil
}
