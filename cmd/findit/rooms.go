package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRoomsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rooms",
		Aliases: []string{"room"},
		Short:   "Manage rooms",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List rooms",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				rooms, err := a.catalog.ListRooms(cmd.Context())
				if err != nil {
					return err
				}
				return a.printRooms(cmd.OutOrStdout(), rooms)
			},
		},
		&cobra.Command{
			Use:   "add <name>",
			Short: "Add a room",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				room, err := a.catalog.CreateRoom(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.printRoom(cmd.OutOrStdout(), room)
			},
		},
		&cobra.Command{
			Use:   "rename <id> <name>",
			Short: "Rename a room",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				room, err := a.catalog.RenameRoom(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				if room == nil {
					return usageErrorf("room %q not found", args[0])
				}
				return a.printRoom(cmd.OutOrStdout(), room)
			},
		},
		newRoomsDeleteCmd(a),
	)
	return cmd
}

func newRoomsDeleteCmd(a *app) *cobra.Command {
	var reassign string
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a room",
		Long: `Delete removes a room. Its items move to the room given with --reassign,
or are left without a room.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.catalog.DeleteRoom(cmd.Context(), args[0], reassign); err != nil {
				return err
			}
			return a.printDone(cmd.OutOrStdout(), fmt.Sprintf("Deleted room %s", args[0]))
		},
	}
	cmd.Flags().StringVar(&reassign, "reassign", "", "room id that receives the deleted room's items")
	return cmd
}
