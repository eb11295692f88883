package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <dir>",
	Short: "Replace current state with a backup",
	Long: `Restore replaces the data directory's snapshot and operation log
with the copies found in the backup directory and rebuilds state from
them. Tables not present in the backup are gone afterwards.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Restore(args[0]); err != nil {
			return err
		}
		fmt.Printf("restored from %s (%d tables)\n", args[0], len(db.ListTables()))
		return nil
	},
}
