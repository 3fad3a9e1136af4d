package new

import (
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/snyft/internal/tui/notes"
	cmdpkg "github.com/Paintersrp/snyft/pkg/cmd"
)

func NewCmdNew(sess *cmdpkg.Session) *cobra.Command {
	var (
		tmpl     string
		openNote bool
	)

	cmd := &cobra.Command{
		Use:     "new [title]",
		Aliases: []string{"n"},
		Short:   "Create a new note.",
		Long: heredoc.Doc(`
			This command creates a new note. The title is optional; without one
			the note is named after the current time.

			A template fills in the starting body. Templates in
			~/.snyft/templates shadow the built in ones of the same name.

			Examples:
			  snyft new "Pilot interview"
			  snyft new --template meeting "Weekly sync"
			  snyft new -o
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sess.State(cmd.Context())
			if err != nil {
				return err
			}

			if tmpl != "" && (s.Templater == nil || !s.Templater.Has(tmpl)) {
				available := ""
				if s.Templater != nil {
					available = strings.Join(s.Templater.Names(), ", ")
				}
				return fmt.Errorf("unknown template %q. Available templates are: %s", tmpl, available)
			}

			n, err := s.CreateNote(cmd.Context(), strings.Join(args, " "), tmpl)
			if err != nil {
				return err
			}

			if openNote {
				return notes.Run(s, "", n.ID)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s  %s\n", n.ID, n.Title)
			return nil
		},
	}

	cmd.Flags().StringVarP(&tmpl, "template", "t", "", "Template for the starting body")
	cmd.Flags().BoolVarP(&openNote, "open", "o", false, "Open the new note in the browser")
	return cmd
}
