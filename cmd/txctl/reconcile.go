package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/txflow/internal/bus/kafka"
	"github.com/MrJamesThe3rd/txflow/internal/database"
	"github.com/MrJamesThe3rd/txflow/internal/transaction"
	txStore "github.com/MrJamesThe3rd/txflow/internal/transaction/store"
)

var (
	reconcileOlderThan time.Duration
	reconcileLimit     int
	reconcileDryRun    bool
)

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Re-emit created events for transactions stuck in Pending",
		Long: `Find transactions that are still Pending after --older-than and publish
their created event again. Use this after the API stored a transaction but
could not reach the broker.

Examples:
  txctl reconcile --older-than 15m --dry-run
  txctl reconcile --older-than 1h --limit 500`,
		RunE: runReconcile,
	}

	cmd.Flags().DurationVar(&reconcileOlderThan, "older-than", 10*time.Minute, "only consider transactions created before now minus this")
	cmd.Flags().IntVarP(&reconcileLimit, "limit", "n", 100, "maximum transactions to republish")
	cmd.Flags().BoolVar(&reconcileDryRun, "dry-run", false, "list the transactions without publishing")

	return cmd
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

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

	svc := transaction.NewService(txStore.New(db), producer, cfg.Kafka.CreatedTopic, logger)

	stale, err := svc.ListStale(ctx, reconcileOlderThan, reconcileLimit)
	if err != nil {
		return fmt.Errorf("listing stale transactions: %w", err)
	}

	if len(stale) == 0 {
		fmt.Println("nothing to reconcile")
		return nil
	}

	t := table.New().Headers("ID", "SOURCE", "VALUE", "CREATED", "RESULT")

	failed := 0

	for _, tx := range stale {
		result := "skipped"

		if !reconcileDryRun {
			if _, err := svc.Republish(ctx, tx.ExternalID); err != nil {
				result = "error: " + err.Error()
				failed++
			} else {
				result = "republished"
			}
		}

		t.Row(tx.ExternalID.String(), tx.SourceAccountID.String(), tx.Value.StringFixed(2),
			tx.CreatedAt.Format(time.RFC3339), result)
	}

	fmt.Fprintln(os.Stdout, t.Render())

	if failed > 0 {
		return fmt.Errorf("%d of %d transactions could not be republished", failed, len(stale))
	}

	return nil
}
