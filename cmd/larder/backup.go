package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup <dir>",
	Short: "Copy the snapshot and operation log into a backup directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Backup(args[0]); err != nil {
			return err
		}
		fmt.Printf("backup written to %s\n", args[0])
		return nil
	},
}
