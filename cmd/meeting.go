package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flockmap/flock-cli/internal/geometry"
	"github.com/flockmap/flock-cli/internal/importer"
	"github.com/flockmap/flock-cli/internal/model"
	"github.com/flockmap/flock-cli/internal/region"
)

var meetingCmd = &cobra.Command{
	Use:   "meeting",
	Short: "Manage meeting points",
}

var (
	meetingName  string
	meetingLat   float64
	meetingLng   float64
	meetingGroup string
)

var meetingAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a meeting point",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		m := &model.MeetingPoint{
			Name:     meetingName,
			Location: geometry.Point{Lat: meetingLat, Lng: meetingLng},
			GroupID:  meetingGroup,
		}
		if err := st.CreateMeeting(ctx, m); err != nil {
			return err
		}
		fmt.Printf("created meeting point %s\n", m.ID)

		if m.GroupID != "" {
			d, _ := newDispatcher(st)
			d.Handle(ctx, region.Event{Type: region.MemberCreated, GroupID: m.GroupID})
			printRegion(d.Store().Get(m.GroupID))
		}
		return nil
	},
}

var meetingImportCmd = &cobra.Command{
	Use:   "import <file.shp>",
	Short: "Import meeting points from an ESRI shapefile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := importer.MeetingPoints(ctx, st, args[0], meetingGroup)
		if err != nil {
			return err
		}
		fmt.Printf("imported %d meeting points\n", n)

		if meetingGroup != "" && n > 0 {
			d, _ := newDispatcher(st)
			d.Handle(ctx, region.Event{Type: region.MemberCreated, GroupID: meetingGroup})
			printRegion(d.Store().Get(meetingGroup))
		}
		return nil
	},
}

var meetingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List meeting points",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		meetings, err := st.ListMeetings(ctx)
		if err != nil {
			return err
		}
		sortByName(meetings, func(m model.MeetingPoint) string { return m.Name })
		for _, m := range meetings {
			fmt.Printf("%s\t%s\t(%.5f, %.5f)\tgroup=%s\n", m.ID, m.Name, m.Location.Lat, m.Location.Lng, m.GroupID)
		}
		return nil
	},
}

func init() {
	meetingAddCmd.Flags().StringVar(&meetingName, "name", "", "meeting point name")
	meetingAddCmd.Flags().Float64Var(&meetingLat, "lat", 0, "latitude")
	meetingAddCmd.Flags().Float64Var(&meetingLng, "lng", 0, "longitude")
	meetingAddCmd.Flags().StringVar(&meetingGroup, "group", "", "group id")
	_ = meetingAddCmd.MarkFlagRequired("name")

	meetingImportCmd.Flags().StringVar(&meetingGroup, "group", "", "group id for imported points")

	meetingCmd.AddCommand(meetingAddCmd, meetingImportCmd, meetingListCmd)
	rootCmd.AddCommand(meetingCmd)
}
