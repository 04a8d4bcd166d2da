package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/vbonduro/findit/internal/db"
	"github.com/vbonduro/findit/internal/domain"
)

type itemView struct {
	ID        string        `json:"id"`
	Label     string        `json:"label"`
	Note      *string       `json:"note,omitempty"`
	PhotoURI  string        `json:"photoUri"`
	CreatedAt int64         `json:"createdAt"`
	Location  *locationView `json:"location,omitempty"`
	RoomID    *string       `json:"roomId,omitempty"`
	RoomName  *string       `json:"roomName,omitempty"`
}

type locationView struct {
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	Accuracy *float64 `json:"accuracy,omitempty"`
}

type roomView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Sort int    `json:"sort"`
}

type reportView struct {
	Applied []string          `json:"applied"`
	Skipped map[string]string `json:"skipped"`
}

func toItemView(item *domain.Item) itemView {
	v := itemView{
		ID:        item.ID,
		Label:     item.Label,
		Note:      item.Note,
		PhotoURI:  item.PhotoURI,
		CreatedAt: item.CreatedAt,
		RoomID:    item.RoomID,
		RoomName:  item.RoomName,
	}
	if item.Location != nil {
		v.Location = &locationView{
			Lat:      item.Location.Lat,
			Lon:      item.Location.Lon,
			Accuracy: item.Location.Accuracy,
		}
	}
	return v
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

func (a *app) printItems(w io.Writer, items []*domain.Item) error {
	if a.json {
		views := make([]itemView, 0, len(items))
		for _, item := range items {
			views = append(views, toItemView(item))
		}
		return writeJSON(w, views)
	}
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No items.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLABEL\tROOM\tCREATED")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", item.ID, orDash(&item.Label), orDash(item.RoomName), formatTime(item.CreatedAt))
	}
	return tw.Flush()
}

func (a *app) printItem(w io.Writer, item *domain.Item) error {
	if a.json {
		return writeJSON(w, toItemView(item))
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", item.ID)
	fmt.Fprintf(tw, "Label:\t%s\n", orDash(&item.Label))
	fmt.Fprintf(tw, "Note:\t%s\n", orDash(item.Note))
	fmt.Fprintf(tw, "Room:\t%s\n", orDash(item.RoomName))
	fmt.Fprintf(tw, "Photo:\t%s\n", item.PhotoURI)
	fmt.Fprintf(tw, "Created:\t%s\n", formatTime(item.CreatedAt))
	if loc := item.Location; loc != nil {
		if loc.Accuracy != nil {
			fmt.Fprintf(tw, "Location:\t%.6f, %.6f (±%.0fm)\n", loc.Lat, loc.Lon, *loc.Accuracy)
		} else {
			fmt.Fprintf(tw, "Location:\t%.6f, %.6f\n", loc.Lat, loc.Lon)
		}
	}
	return tw.Flush()
}

func (a *app) printRooms(w io.Writer, rooms []*domain.Room) error {
	if a.json {
		views := make([]roomView, 0, len(rooms))
		for _, r := range rooms {
			views = append(views, roomView{ID: r.ID, Name: r.Name, Sort: r.Sort})
		}
		return writeJSON(w, views)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME")
	for _, r := range rooms {
		fmt.Fprintf(tw, "%s\t%s\n", r.ID, r.Name)
	}
	return tw.Flush()
}

func (a *app) printRoom(w io.Writer, room *domain.Room) error {
	if a.json {
		return writeJSON(w, roomView{ID: room.ID, Name: room.Name, Sort: room.Sort})
	}
	_, err := fmt.Fprintf(w, "%s\t%s\n", room.ID, room.Name)
	return err
}

func (a *app) printReport(w io.Writer, report *db.Report) error {
	view := reportView{Applied: []string{}, Skipped: map[string]string{}}
	if report != nil {
		view.Applied = append(view.Applied, report.Applied...)
		for _, s := range report.Skipped {
			view.Skipped[s.Step] = s.Err.Error()
		}
	}
	if a.json {
		return writeJSON(w, view)
	}

	for _, name := range view.Applied {
		fmt.Fprintf(w, "applied  %s\n", name)
	}
	if report != nil {
		for _, s := range report.Skipped {
			fmt.Fprintf(w, "skipped  %s: %v\n", s.Step, s.Err)
		}
	}
	return nil
}

// printDone reports a mutation that has nothing to show.
func (a *app) printDone(w io.Writer, msg string) error {
	if a.json {
		return writeJSON(w, map[string]bool{"ok": true})
	}
	_, err := fmt.Fprintln(w, msg)
	return err
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func formatTime(ms int64) string {
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}
