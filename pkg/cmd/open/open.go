package open

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/snyft/internal/fzf"
	"github.com/Paintersrp/snyft/internal/tui/notes"
	cmdpkg "github.com/Paintersrp/snyft/pkg/cmd"
)

func NewCmdOpen(sess *cmdpkg.Session) *cobra.Command {
	var printID bool

	cmd := &cobra.Command{
		Use:     "open [query]",
		Aliases: []string{"o"},
		Short:   "Open a note picked with fuzzyfinding.",
		Long: heredoc.Doc(`
			This command lists every note in a fuzzy finder with a rendered
			preview and opens the chosen one in the editor.

			Examples:
			  snyft open             // Fuzzyfind no query
			  snyft o pilot          // Fuzzyfind with query
			  snyft open -p pilot    // Print the chosen id instead
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sess.State(cmd.Context())
			if err != nil {
				return err
			}

			all, err := s.Store.ListNotes(cmd.Context())
			if err != nil {
				return err
			}

			finder := fzf.NewFuzzyFinder(all, s.Preview, "Select note to open.")
			n, err := finder.Run(strings.Join(args, " "))
			if errors.Is(err, fzf.ErrNoneSelected) {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return nil
			}
			if err != nil {
				return err
			}

			if printID {
				fmt.Fprintln(cmd.OutOrStdout(), n.ID)
				return nil
			}
			return notes.Run(s, "", n.ID)
		},
	}

	cmd.Flags().BoolVarP(&printID, "print", "p", false, "Print the chosen note id instead of opening it")
	return cmd
}
