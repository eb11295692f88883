package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <file.db>",
	Short: "Export all tables to a standalone SQLite file",
	Long: `Export writes a one-way SQLite copy of every table for inspection
with external tooling. The export is never read back; the data
directory stays the source of truth.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.ExportSQLite(args[0]); err != nil {
			return err
		}
		fmt.Printf("exported to %s\n", args[0])
		return nil
	},
}
