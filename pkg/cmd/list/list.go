package list

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/araddon/dateparse"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/snyft/internal/store"
	cmdpkg "github.com/Paintersrp/snyft/pkg/cmd"
)

type options struct {
	since string
	tags  []string
	limit int
}

func NewCmdList(sess *cmdpkg.Session) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List notes, most recently modified first.",
		Long: heredoc.Doc(`
			This command prints the stored notes as a table.

			--since accepts a date in most common layouts, or an age such as
			36h or 7d.

			Examples:
			  snyft list
			  snyft list --since 2024-03-01
			  snyft list --since 7d --tag fieldwork
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sess.State(cmd.Context())
			if err != nil {
				return err
			}

			all, err := s.Store.ListNotes(cmd.Context())
			if err != nil {
				return err
			}
			filtered, err := filter(all, opts, time.Now())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(filtered) == 0 {
				fmt.Fprintln(out, "No notes found.")
				return nil
			}

			titleWidth := cmdpkg.TermWidth() - 12 - 16 - 24 - 8
			if titleWidth < 16 {
				titleWidth = 16
			}
			t := cmdpkg.NewTable(out, "ID", "Modified", "Title", "Tags")
			for _, n := range filtered {
				t.Append([]string{
					n.ID,
					n.ModifiedAt.Local().Format("2006-01-02 15:04"),
					cmdpkg.Clip(n.Title, titleWidth),
					cmdpkg.Clip(strings.Join(n.Tags, ", "), 24),
				})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.since, "since", "", "Only notes modified at or after this date or age")
	cmd.Flags().StringSliceVar(&opts.tags, "tag", nil, "Only notes carrying every given tag")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Print at most this many notes")
	return cmd
}

func filter(notes []store.Note, opts options, now time.Time) ([]store.Note, error) {
	var since time.Time
	if strings.TrimSpace(opts.since) != "" {
		t, err := parseSince(opts.since, now)
		if err != nil {
			return nil, err
		}
		since = t
	}

	var out []store.Note
	for _, n := range notes {
		if !since.IsZero() && n.ModifiedAt.Before(since) {
			continue
		}
		if !hasTags(n, opts.tags) {
			continue
		}
		out = append(out, n)
		if opts.limit > 0 && len(out) == opts.limit {
			break
		}
	}
	return out, nil
}

// parseSince reads an age (36h, 7d) relative to now, or an absolute date.
func parseSince(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if days, ok := strings.CutSuffix(value, "d"); ok {
		if n, err := strconv.Atoi(days); err == nil && n >= 0 {
			return now.AddDate(0, 0, -n), nil
		}
	}
	if d, err := time.ParseDuration(value); err == nil && d >= 0 {
		return now.Add(-d), nil
	}
	t, err := dateparse.ParseLocal(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since value %q: %w", value, err)
	}
	return t, nil
}

func hasTags(n store.Note, want []string) bool {
	for _, tag := range want {
		tag = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
		if tag == "" {
			continue
		}
		found := false
		for _, have := range n.Tags {
			if strings.EqualFold(have, tag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
