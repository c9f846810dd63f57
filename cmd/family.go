package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flockmap/flock-cli/internal/geometry"
	"github.com/flockmap/flock-cli/internal/model"
)

var familyCmd = &cobra.Command{
	Use:   "family",
	Short: "Manage families",
}

var (
	familyName string
	familyLat  float64
	familyLng  float64
)

var familyAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a family at a home location",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		f := &model.Family{
			Name:     familyName,
			Location: geometry.Point{Lat: familyLat, Lng: familyLng},
		}
		if err := st.CreateFamily(ctx, f); err != nil {
			return err
		}
		fmt.Printf("created family %s\n", f.ID)
		return nil
	},
}

var familyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List families",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		families, err := st.ListFamilies(ctx)
		if err != nil {
			return err
		}
		sortByName(families, func(f model.Family) string { return f.Name })
		for _, f := range families {
			fmt.Printf("%s\t%s\t(%.5f, %.5f)\n", f.ID, f.Name, f.Location.Lat, f.Location.Lng)
		}
		return nil
	},
}

func init() {
	familyAddCmd.Flags().StringVar(&familyName, "name", "", "family name")
	familyAddCmd.Flags().Float64Var(&familyLat, "lat", 0, "latitude")
	familyAddCmd.Flags().Float64Var(&familyLng, "lng", 0, "longitude")
	_ = familyAddCmd.MarkFlagRequired("name")

	familyCmd.AddCommand(familyAddCmd, familyListCmd)
	rootCmd.AddCommand(familyCmd)
}
