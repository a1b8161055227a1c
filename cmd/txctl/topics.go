package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/txflow/internal/bus/kafka"
	"github.com/MrJamesThe3rd/txflow/internal/database"
)

func topicsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "Create the created and validated topics if they are missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := kafka.EnsureTopics(cmd.Context(), cfg.Kafka, logger); err != nil {
				return err
			}

			fmt.Printf("topics ready: %s, %s (%d partitions, replication %d)\n",
				cfg.Kafka.CreatedTopic, cfg.Kafka.ValidatedTopic, cfg.Kafka.TopicPartitions, cfg.Kafka.TopicReplication)

			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the transactions schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.New(cmd.Context(), cfg.ConnectionString())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(cmd.Context(), db); err != nil {
				return err
			}

			fmt.Println("schema applied")

			return nil
		},
	}
}
