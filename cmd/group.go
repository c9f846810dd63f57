package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flockmap/flock-cli/internal/model"
	"github.com/flockmap/flock-cli/internal/region"
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage groups",
}

var (
	groupName         string
	groupColor        string
	groupRequirements string
)

var groupAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a group",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		g := &model.Group{Name: groupName, Color: groupColor, Requirements: groupRequirements}
		if err := st.CreateGroup(ctx, g); err != nil {
			return err
		}
		fmt.Printf("created group %s\n", g.ID)

		d, _ := newDispatcher(st)
		d.Handle(ctx, region.Event{Type: region.GroupCreated, GroupID: g.ID})
		return nil
	},
}

var groupUpdateCmd = &cobra.Command{
	Use:   "update <group-id>",
	Short: "Update a group's name, color, or requirements",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		g, err := st.GetGroup(ctx, args[0])
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("name") {
			g.Name = groupName
		}
		if cmd.Flags().Changed("color") {
			g.Color = groupColor
		}
		if cmd.Flags().Changed("requirements") {
			g.Requirements = groupRequirements
		}
		if err := st.UpdateGroup(ctx, g); err != nil {
			return err
		}
		fmt.Printf("updated group %s\n", g.ID)

		d, _ := newDispatcher(st)
		d.Handle(ctx, region.Event{Type: region.GroupUpdated, GroupID: g.ID})
		printRegion(d.Store().Get(g.ID))
		return nil
	},
}

var groupDeleteCmd = &cobra.Command{
	Use:   "delete <group-id>",
	Short: "Delete a group and detach its members",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.DeleteGroup(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted group %s\n", args[0])

		d, _ := newDispatcher(st)
		d.Handle(ctx, region.Event{Type: region.GroupDeleted, GroupID: args[0]})
		return nil
	},
}

var groupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List groups",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		groups, err := st.ListGroups(ctx)
		if err != nil {
			return err
		}
		sortByName(groups, func(g model.Group) string { return g.Name })
		for _, g := range groups {
			fmt.Printf("%s\t%s\t%s\n", g.ID, g.Name, g.Color)
		}
		return nil
	},
}

func init() {
	groupAddCmd.Flags().StringVar(&groupName, "name", "", "group name")
	groupAddCmd.Flags().StringVar(&groupColor, "color", model.DefaultGroupColor, "region color")
	groupAddCmd.Flags().StringVar(&groupRequirements, "requirements", "", "membership requirements")
	_ = groupAddCmd.MarkFlagRequired("name")

	groupUpdateCmd.Flags().StringVar(&groupName, "name", "", "group name")
	groupUpdateCmd.Flags().StringVar(&groupColor, "color", "", "region color")
	groupUpdateCmd.Flags().StringVar(&groupRequirements, "requirements", "", "membership requirements")

	groupCmd.AddCommand(groupAddCmd, groupUpdateCmd, groupDeleteCmd, groupListCmd)
	rootCmd.AddCommand(groupCmd)
}
