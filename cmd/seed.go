package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flockmap/flock-cli/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed <fixture.yaml>",
	Short: "Load groups, families, people, and meeting points from a YAML fixture",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		counts, err := seed.Load(ctx, st, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("seeded %d groups, %d families, %d people, %d meeting points\n",
			counts.Groups, counts.Families, counts.Persons, counts.Meetings)
		return nil
	},
}

func init() { rootCmd.AddCommand(seedCmd) }
