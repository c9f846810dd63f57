package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flockmap/flock-cli/internal/region"
)

var regionCmd = &cobra.Command{
	Use:   "region",
	Short: "Inspect and recompute group regions",
}

var regionRecomputeCmd = &cobra.Command{
	Use:   "recompute [group-id]",
	Short: "Recompute one group's region, or all regions",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		d, _ := newDispatcher(st)
		if len(args) == 1 {
			d.Handle(ctx, region.Event{Type: region.GroupUpdated, GroupID: args[0]})
			printRegion(d.Store().Get(args[0]))
			return nil
		}

		if err := d.RecomputeAll(ctx, cfg.Region.BatchConcurrency); err != nil {
			return err
		}
		for _, rec := range d.Store().GetAll() {
			printRegion(&rec)
		}
		return nil
	},
}

var regionListCmd = &cobra.Command{
	Use:   "list",
	Short: "Compute and print every group's region",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		d, _ := newDispatcher(st)
		if err := d.RecomputeAll(ctx, cfg.Region.BatchConcurrency); err != nil {
			return err
		}
		records := d.Store().GetAll()
		if len(records) == 0 {
			fmt.Println("no regions (no groups have located members)")
			return nil
		}
		for _, rec := range records {
			printRegion(&rec)
		}
		return nil
	},
}

var regionShowCmd = &cobra.Command{
	Use:   "show <group-id>",
	Short: "Show a group's region in detail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		d, _ := newDispatcher(st)
		d.Handle(ctx, region.Event{Type: region.GroupUpdated, GroupID: args[0]})

		rec := d.Store().Get(args[0])
		if rec == nil {
			fmt.Println("no region (group has no located members)")
			return nil
		}
		printRegion(rec)
		if p, ok := rec.Shape.(region.Polygon); ok {
			for i, v := range p.Vertices {
				fmt.Printf("  vertex %d: (%.6f, %.6f)\n", i, v.Lat, v.Lng)
			}
		}
		return nil
	},
}

func init() {
	regionCmd.AddCommand(regionRecomputeCmd, regionListCmd, regionShowCmd)
	rootCmd.AddCommand(regionCmd)
}

// printRegion writes a one-line summary of a computed region to stdout.
func printRegion(rec *region.Record) {
	if rec == nil {
		fmt.Println("no region (group has no located members)")
		return
	}
	switch s := rec.Shape.(type) {
	case region.Polygon:
		fmt.Printf("%s\tpolygon\t%d vertices\tcolor=%s\tvisible=%t\n",
			rec.GroupID, len(s.Vertices), rec.Color, rec.Visible)
	case region.Circle:
		fmt.Printf("%s\tcircle\tcenter=(%.5f, %.5f) r=%.1fm\tcolor=%s\tvisible=%t\n",
			rec.GroupID, s.Center.Lat, s.Center.Lng, s.RadiusMeters, rec.Color, rec.Visible)
	}
}
