package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/emilythestrangee/decision-board/backend/internal/models"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatTally(t models.Tally) string {
	s := fmt.Sprintf("▲ %d  ▼ %d", t.Up, t.Down)
	if t.UserVote != nil {
		s += fmt.Sprintf("  (you: %s)", *t.UserVote)
	}
	return s
}

func printDecisions(w io.Writer, list []models.DecisionView) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No decisions yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tVOTES\tCOMMENTS")
	for _, d := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", d.ID, d.Title, category(d.Category), formatTally(d.Votes), d.CommentCount)
	}
	tw.Flush()
}

func printDecision(w io.Writer, d models.DecisionView) {
	fmt.Fprintf(w, "%s\n", d.Title)
	fmt.Fprintf(w, "by %s · %s · %s\n", d.Author.Username, category(d.Category), d.Status)
	if d.Description != "" {
		fmt.Fprintf(w, "\n%s\n", d.Description)
	}
	if d.ImageURL != nil {
		fmt.Fprintf(w, "\nImage: %s\n", *d.ImageURL)
	}
	fmt.Fprintf(w, "\n%s\n", formatTally(d.Votes))
	if d.ExpiresAt != nil {
		if d.Closed(time.Now()) {
			fmt.Fprintln(w, "Voting closed.")
		} else {
			fmt.Fprintf(w, "Voting closes %s\n", d.ExpiresAt.Local().Format(time.RFC1123))
		}
	}
}

func printComments(w io.Writer, comments []models.CommentView) {
	fmt.Fprintf(w, "\n%d comment(s)\n", len(comments))
	for _, c := range comments {
		fmt.Fprintf(w, "  %s: %s\n", c.Author.Username, c.Comment)
	}
}

func printBreakdown(w io.Writer, b models.GenderBreakdown) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tUP\tDOWN")
	fmt.Fprintf(tw, "male\t%d\t%d\n", b.Male.Up, b.Male.Down)
	fmt.Fprintf(tw, "female\t%d\t%d\n", b.Female.Up, b.Female.Down)
	tw.Flush()
}

func printDashboard(w io.Writer, d models.Dashboard) {
	fmt.Fprintf(w, "Decisions: %d  Up: %d  Down: %d  Comments: %d\n",
		d.TotalDecisions, d.TotalUp, d.TotalDown, d.TotalComments)

	cats := make([]string, 0, len(d.Categories))
	for c := range d.Categories {
		cats = append(cats, c)
	}
	slices.Sort(cats)
	parts := make([]string, 0, len(cats))
	for _, c := range cats {
		parts = append(parts, fmt.Sprintf("%s %d", c, d.Categories[c]))
	}
	if len(parts) > 0 {
		fmt.Fprintf(w, "Categories: %s\n", strings.Join(parts, ", "))
	}
	if len(d.Trend) > 0 {
		fmt.Fprintln(w, "Recent:")
		for _, p := range d.Trend {
			fmt.Fprintf(w, "  %-40s ▲ %d  ▼ %d\n", p.Title, p.Up, p.Down)
		}
	}
}

func category(c *string) string {
	if c == nil || *c == "" {
		return models.UncategorizedLabel
	}
	return *c
}
