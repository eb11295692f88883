package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show table, row, and storage statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		st, err := db.Stats()
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(st)
		}
		fmt.Printf("tables:        %d\n", st.TotalTables)
		fmt.Printf("rows:          %d\n", st.TotalRows)
		fmt.Printf("log entries:   %d (%d bytes)\n", st.Storage.LogEntries, st.Storage.LogBytes)
		fmt.Printf("last log id:   %d\n", st.Storage.LastLogID)
		if st.Storage.HasSnapshot {
			fmt.Printf("snapshot:      %d bytes\n", st.Storage.SnapshotSize)
		} else {
			fmt.Println("snapshot:      none")
		}
		for name, rows := range st.RowsPerTable {
			fmt.Printf("  %s\t%d rows\n", name, rows)
		}
		return nil
	},
}
