package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flockmap/flock-cli/internal/geometry"
	"github.com/flockmap/flock-cli/internal/model"
	"github.com/flockmap/flock-cli/internal/region"
)

var personCmd = &cobra.Command{
	Use:   "person",
	Short: "Manage tracked people",
}

var (
	personName   string
	personLat    float64
	personLng    float64
	personGroup  string
	personFamily string
)

var personAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a person at a location",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		p := &model.Person{
			Name:     personName,
			Location: geometry.Point{Lat: personLat, Lng: personLng},
			GroupID:  personGroup,
			FamilyID: personFamily,
		}
		if err := st.CreatePerson(ctx, p); err != nil {
			return err
		}
		fmt.Printf("created person %s\n", p.ID)

		if p.GroupID != "" {
			d, _ := newDispatcher(st)
			d.Handle(ctx, region.Event{Type: region.MemberCreated, GroupID: p.GroupID})
			printRegion(d.Store().Get(p.GroupID))
		}
		return nil
	},
}

var personMoveCmd = &cobra.Command{
	Use:   "move <person-id>",
	Short: "Update a person's location",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.UpdatePersonLocation(ctx, args[0], geometry.Point{Lat: personLat, Lng: personLng}); err != nil {
			return err
		}
		fmt.Printf("moved person %s\n", args[0])

		p, err := st.GetPerson(ctx, args[0])
		if err != nil {
			return err
		}
		if p.GroupID != "" {
			d, _ := newDispatcher(st)
			d.Handle(ctx, region.Event{Type: region.MemberUpdated, GroupID: p.GroupID})
			printRegion(d.Store().Get(p.GroupID))
		}
		return nil
	},
}

var personAssignCmd = &cobra.Command{
	Use:   "assign <person-id> <group-id>",
	Short: "Assign a person to a group (empty group id unassigns)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		groupID := ""
		if len(args) == 2 {
			groupID = args[1]
		}

		p, err := st.GetPerson(ctx, args[0])
		if err != nil {
			return err
		}
		priorGroup := p.GroupID

		if err := st.AssignPersonGroup(ctx, args[0], groupID); err != nil {
			return err
		}
		fmt.Printf("assigned person %s\n", args[0])

		d, _ := newDispatcher(st)
		if priorGroup != "" && priorGroup != groupID {
			d.Handle(ctx, region.Event{Type: region.MemberUpdated, GroupID: priorGroup})
		}
		if groupID != "" {
			d.Handle(ctx, region.Event{Type: region.MemberUpdated, GroupID: groupID})
			printRegion(d.Store().Get(groupID))
		}
		return nil
	},
}

var personListCmd = &cobra.Command{
	Use:   "list",
	Short: "List people",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		people, err := st.ListPersons(ctx)
		if err != nil {
			return err
		}
		sortByName(people, func(p model.Person) string { return p.Name })
		for _, p := range people {
			fmt.Printf("%s\t%s\t(%.5f, %.5f)\tgroup=%s\n", p.ID, p.Name, p.Location.Lat, p.Location.Lng, p.GroupID)
		}
		return nil
	},
}

func init() {
	personAddCmd.Flags().StringVar(&personName, "name", "", "person name")
	personAddCmd.Flags().Float64Var(&personLat, "lat", 0, "latitude")
	personAddCmd.Flags().Float64Var(&personLng, "lng", 0, "longitude")
	personAddCmd.Flags().StringVar(&personGroup, "group", "", "group id")
	personAddCmd.Flags().StringVar(&personFamily, "family", "", "family id")
	_ = personAddCmd.MarkFlagRequired("name")

	personMoveCmd.Flags().Float64Var(&personLat, "lat", 0, "latitude")
	personMoveCmd.Flags().Float64Var(&personLng, "lng", 0, "longitude")

	personCmd.AddCommand(personAddCmd, personMoveCmd, personAssignCmd, personListCmd)
	rootCmd.AddCommand(personCmd)
}
