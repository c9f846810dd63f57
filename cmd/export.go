package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flockmap/flock-cli/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export <roster.xlsx>",
	Short: "Export the full roster to an xlsx workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := export.Roster(ctx, st, args[0]); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", args[0])
		return nil
	},
}

func init() { rootCmd.AddCommand(exportCmd) }
