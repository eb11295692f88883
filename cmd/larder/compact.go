package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var compactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Fold the operation log into a snapshot and truncate it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		before, err := db.Stats()
		if err != nil {
			return err
		}
		if err := db.Compact(); err != nil {
			return err
		}
		fmt.Printf("compacted %d log entries\n", before.Storage.LogEntries)
		return nil
	},
}
