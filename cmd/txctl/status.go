package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/txflow/internal/database"
	"github.com/MrJamesThe3rd/txflow/internal/transaction"
	txStore "github.com/MrJamesThe3rd/txflow/internal/transaction/store"
)

var statusDay string

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [transaction id]",
		Short: "Show the stored state of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE:  runStatus,
	}

	cmd.Flags().StringVar(&statusDay, "day", "", "creation day (YYYY-MM-DD) the transaction must match")

	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid transaction id: %w", err)
	}

	ctx := cmd.Context()

	db, err := database.New(ctx, cfg.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()

	// Lookups never publish.
	svc := transaction.NewService(txStore.New(db), nil, cfg.Kafka.CreatedTopic, logger)

	var tx *transaction.Transaction

	if statusDay != "" {
		day, perr := time.Parse(time.DateOnly, statusDay)
		if perr != nil {
			return fmt.Errorf("invalid --day: %w", perr)
		}

		tx, err = svc.GetOnDay(ctx, id, day)
	} else {
		tx, err = svc.Get(ctx, id)
	}

	if err != nil {
		return err
	}

	updated := "-"
	if tx.UpdatedAt != nil {
		updated = tx.UpdatedAt.UTC().Format(time.RFC3339)
	}

	t := table.New().
		Row("ID", tx.ExternalID.String()).
		Row("Source", tx.SourceAccountID.String()).
		Row("Target", tx.TargetAccountID.String()).
		Row("Value", tx.Value.StringFixed(2)).
		Row("Status", tx.Status.String()).
		Row("Created", tx.CreatedAt.Format(time.RFC3339)).
		Row("Updated", updated)

	fmt.Println(t.Render())

	return nil
}
