package search

import (
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/snyft/internal/search"
	cmdpkg "github.com/Paintersrp/snyft/pkg/cmd"
)

func NewCmdSearch(sess *cmdpkg.Session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "search <query>",
		Aliases: []string{"s"},
		Short:   "Search notes by title, tag, link and body.",
		Long: heredoc.Doc(`
			This command ranks notes against a query. Title hits rank above tag
			hits, tag hits above wiki link hits and link hits above body hits.
			Words starting with # filter by tag.

			Examples:
			  snyft search interview
			  snyft search "#fieldwork consent"
		`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sess.State(cmd.Context())
			if err != nil {
				return err
			}

			q := search.ParseQuery(strings.Join(args, " "))
			results, degraded, err := s.SearchNotes(cmd.Context(), q)
			if err != nil {
				return err
			}
			if degraded {
				fmt.Fprintln(cmd.ErrOrStderr(), "search index unavailable, results come from a plain scan")
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "No matching notes.")
				return nil
			}

			snippetWidth := cmdpkg.TermWidth() - 12 - 28 - 6 - 8
			if snippetWidth < 20 {
				snippetWidth = 20
			}
			t := cmdpkg.NewTable(out, "ID", "Title", "Match", "Snippet")
			for _, r := range results {
				t.Append([]string{
					r.ID,
					cmdpkg.Clip(r.Title, 28),
					r.MatchFrom,
					cmdpkg.Clip(r.Snippet, snippetWidth),
				})
			}
			t.Render()
			return nil
		},
	}

	return cmd
}
