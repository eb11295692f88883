package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/larder/pkg/larder"
)

var tablesCmd = &cobra.Command{
	Use:   "tables [name]",
	Short: "List tables, or show one table's schema and row count",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		if len(args) == 1 {
			return showTable(db, args[0])
		}
		return listTables(db)
	},
}

func listTables(db *larder.DB) error {
	names := db.ListTables()
	if flagJSON {
		return printJSON(names)
	}
	for _, name := range names {
		tbl, err := db.TableInfo(name)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%d rows\n", name, tbl.RowCount())
	}
	return nil
}

func showTable(db *larder.DB, name string) error {
	tbl, err := db.TableInfo(name)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(tbl)
	}
	fmt.Printf("table %s (%d rows)\n", tbl.Name, tbl.RowCount())
	for _, col := range tbl.Schema.Columns {
		attrs := ""
		if col.PrimaryKey {
			attrs += " primary-key"
		}
		if col.Unique && !col.PrimaryKey {
			attrs += " unique"
		}
		if !col.Nullable {
			attrs += " not-null"
		}
		fmt.Printf("  %s\t%s%s\n", col.Name, col.DataType, attrs)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
