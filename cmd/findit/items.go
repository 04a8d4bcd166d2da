package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vbonduro/findit/internal/domain"
	"github.com/vbonduro/findit/internal/service"
)

func newItemsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "items",
		Aliases: []string{"item"},
		Short:   "Capture, find and manage items",
	}
	cmd.AddCommand(
		newItemsListCmd(a),
		newItemsSearchCmd(a),
		newItemsGetCmd(a),
		newItemsAddCmd(a),
		newItemsEditCmd(a),
		newItemsLocateCmd(a),
		newItemsDeleteCmd(a),
		newItemsClearCmd(a),
	)
	return cmd
}

func newItemsListCmd(a *app) *cobra.Command {
	var room string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the newest items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := a.catalog.FindItems(cmd.Context(), "", room)
			if err != nil {
				return err
			}
			return a.printItems(cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().StringVar(&room, "room", "", "only items in this room id")
	return cmd
}

func newItemsSearchCmd(a *app) *cobra.Command {
	var room string
	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Find items whose label or note contains term",
		Long: `Search matches term case-insensitively against each item's label and note.
A blank term lists every item.

Example:
  findit items search passport
  findit items search "red mug" --room 3f1c...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := a.catalog.FindItems(cmd.Context(), args[0], room)
			if err != nil {
				return err
			}
			return a.printItems(cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().StringVar(&room, "room", "", "only items in this room id")
	return cmd
}

func newItemsGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := a.catalog.GetItem(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if item == nil {
				return usageErrorf("item %q not found", args[0])
			}
			return a.printItem(cmd.OutOrStdout(), item)
		},
	}
}

// locationFlags are shared by add and locate.
type locationFlags struct {
	lat, lon, accuracy float64
}

func (f *locationFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.lat, "lat", 0, "latitude in degrees")
	cmd.Flags().Float64Var(&f.lon, "lon", 0, "longitude in degrees")
	cmd.Flags().Float64Var(&f.accuracy, "accuracy", 0, "horizontal accuracy in metres")
}

// location returns nil when neither --lat nor --lon was given.
func (f *locationFlags) location(cmd *cobra.Command) (*domain.Location, error) {
	hasLat, hasLon := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lon")
	if !hasLat && !hasLon {
		if cmd.Flags().Changed("accuracy") {
			return nil, usageErrorf("--accuracy needs --lat and --lon")
		}
		return nil, nil
	}
	if hasLat != hasLon {
		return nil, usageErrorf("--lat and --lon must be given together")
	}
	if f.lat < -90 || f.lat > 90 || f.lon < -180 || f.lon > 180 {
		return nil, usageErrorf("location %v,%v is out of range", f.lat, f.lon)
	}

	loc := &domain.Location{Lat: f.lat, Lon: f.lon}
	if cmd.Flags().Changed("accuracy") {
		acc := f.accuracy
		loc.Accuracy = &acc
	}
	return loc, nil
}

func newItemsAddCmd(a *app) *cobra.Command {
	var (
		req service.CaptureRequest
		loc locationFlags
	)
	cmd := &cobra.Command{
		Use:   "add <photo>",
		Short: "Capture a new item from a photo",
		Long: `Add moves the photo into the photo directory and records a new item.

When --label is omitted and a vision backend is configured, a label is
suggested from the photo.

Example:
  findit items add ~/Pictures/IMG_0042.jpg --label "Spare keys" --room <id>
  findit items add shot.jpg --lat 51.5007 --lon -0.1246 --accuracy 8`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			location, err := loc.location(cmd)
			if err != nil {
				return err
			}
			req.SourcePath = args[0]
			req.Location = location

			item, err := a.catalog.CaptureItem(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.printItem(cmd.OutOrStdout(), item)
		},
	}
	cmd.Flags().StringVar(&req.Label, "label", "", "item label")
	cmd.Flags().StringVar(&req.Note, "note", "", "free-form note")
	cmd.Flags().StringVar(&req.RoomID, "room", "", "room id")
	loc.register(cmd)
	return cmd
}

func newItemsEditCmd(a *app) *cobra.Command {
	var label, note, room string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change an item's label, note or room",
		Long: `Edit replaces the label, note and room of an item. Fields whose flag is not
given keep their current value; pass an empty string to clear a note or room.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			current, err := a.catalog.GetItem(ctx, args[0])
			if err != nil {
				return err
			}
			if current == nil {
				return usageErrorf("item %q not found", args[0])
			}

			if !cmd.Flags().Changed("label") {
				label = current.Label
			}
			if !cmd.Flags().Changed("note") {
				note = deref(current.Note)
			}
			if !cmd.Flags().Changed("room") {
				room = deref(current.RoomID)
			}

			item, err := a.catalog.UpdateItem(ctx, current.ID, label, note, room)
			if err != nil {
				return err
			}
			return a.printItem(cmd.OutOrStdout(), item)
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "new label")
	cmd.Flags().StringVar(&note, "note", "", "new note")
	cmd.Flags().StringVar(&room, "room", "", "new room id")
	return cmd
}

func newItemsLocateCmd(a *app) *cobra.Command {
	var loc locationFlags
	cmd := &cobra.Command{
		Use:   "locate <id>",
		Short: "Set the GPS location of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			location, err := loc.location(cmd)
			if err != nil {
				return err
			}
			if location == nil {
				return usageErrorf("--lat and --lon are required")
			}

			item, err := a.catalog.SetLocation(cmd.Context(), args[0], *location)
			if err != nil {
				return err
			}
			if item == nil {
				return usageErrorf("item %q not found", args[0])
			}
			return a.printItem(cmd.OutOrStdout(), item)
		},
	}
	loc.register(cmd)
	return cmd
}

func newItemsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item and its photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.catalog.DeleteItem(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.printDone(cmd.OutOrStdout(), fmt.Sprintf("Deleted item %s", args[0]))
		},
	}
}

func newItemsClearCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every item and photo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return usageErrorf("clear deletes every item; pass --yes to confirm")
			}
			if err := a.catalog.ClearItems(cmd.Context()); err != nil {
				return err
			}
			return a.printDone(cmd.OutOrStdout(), "Deleted all items")
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting everything")
	return cmd
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
