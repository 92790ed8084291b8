// Package output formats presets, comments and profiles for the terminal.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/nfrund/presetmarket/internal/domain"
)

// Formats accepted by the --format flag.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// CheckFormat rejects formats other than table and json.
func CheckFormat(format string) error {
	switch format {
	case FormatTable, FormatJSON:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q, use %q or %q", format, FormatTable, FormatJSON)
	}
}

// JSON writes v indented.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func when(t domain.Timestamp) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t.Time)
}

// Presets writes one catalog page as a table followed by a page indicator.
func Presets(w io.Writer, items []domain.PresetSummary, q domain.ListQuery, total int) {
	if len(items) == 0 {
		if q.Search != "" {
			fmt.Fprintf(w, "No presets match %q.\n", q.Search)
		} else {
			fmt.Fprintln(w, "No presets found.")
		}
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tAUTHOR\tLIKES\tDOWNLOADS\tCOMMENTS\tCREATED")
	for _, p := range items {
		likes := humanize.Comma(int64(p.LikeCount))
		if p.IsLiked {
			likes += " ♥"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID,
			truncateString(p.Name, 40),
			p.Author.Username,
			likes,
			humanize.Comma(int64(p.DownloadCount)),
			humanize.Comma(int64(p.CommentCount)),
			when(p.CreatedAt),
		)
	}
	tw.Flush()
	fmt.Fprintf(w, "\nPage %d of %d (%s presets, sorted by %s)\n",
		q.Page, domain.PageCount(total), humanize.Comma(int64(total)), q.Sort)
}

// OwnPresets writes the viewer's presets as a table.
func OwnPresets(w io.Writer, items []domain.OwnPreset) {
	if len(items) == 0 {
		fmt.Fprintln(w, "You have not shared any presets yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tVISIBILITY\tLIKES\tDOWNLOADS\tCREATED")
	for _, p := range items {
		visibility := "private"
		if p.IsPublic {
			visibility = "public"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			p.ID,
			truncateString(p.Name, 40),
			visibility,
			humanize.Comma(int64(p.LikeCount)),
			humanize.Comma(int64(p.DownloadCount)),
			when(p.CreatedAt),
		)
	}
	tw.Flush()
}

// Detail writes a preset, its layout and its comment thread.
func Detail(w io.Writer, p domain.PresetDetail, comments []domain.Comment) {
	fmt.Fprintf(w, "%s (#%d)\n", p.Name, p.ID)
	fmt.Fprintf(w, "by %s, %s\n", p.Author.Username, when(p.CreatedAt))
	if p.Description != "" {
		fmt.Fprintf(w, "\n%s\n", p.Description)
	}
	liked := ""
	if p.IsLiked {
		liked = " (you like this)"
	}
	fmt.Fprintf(w, "\n%s likes%s, %s downloads\n",
		humanize.Comma(int64(p.LikeCount)), liked, humanize.Comma(int64(p.DownloadCount)))

	fmt.Fprintln(w, "\nLayout:")
	var buf bytes.Buffer
	if err := json.Indent(&buf, p.Layout, "  ", "  "); err != nil {
		buf.Reset()
		buf.Write(p.Layout)
	}
	fmt.Fprintf(w, "  %s\n", buf.String())

	fmt.Fprintf(w, "\nComments (%d):\n", len(comments))
	for _, c := range comments {
		fmt.Fprintf(w, "  [%d] %s, %s: %s\n", c.ID, c.Author.Username, when(c.CreatedAt), c.Content)
	}
}

// Profile writes the logged-in user.
func Profile(w io.Writer, p *domain.Profile) {
	fmt.Fprintf(w, "Logged in as %s (id %d)\n", p.Username, p.ID)
	if p.Email != "" {
		fmt.Fprintf(w, "Email: %s\n", p.Email)
	}
}

// Size renders a byte count for messages.
func Size(n int) string {
	return humanize.Bytes(uint64(n))
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return strings.TrimSpace(string(r[:maxLen-3])) + "..."
}
