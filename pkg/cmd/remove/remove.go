package remove

import (
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/erikgeiser/promptkit/confirmation"
	"github.com/spf13/cobra"

	cmdpkg "github.com/Paintersrp/snyft/pkg/cmd"
)

// Confirm asks the user to confirm a destructive action.
var Confirm = func(prompt string) (bool, error) {
	return confirmation.New(prompt, confirmation.No).RunPrompt()
}

func NewCmdRemove(sess *cmdpkg.Session) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <note>",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete a note and its coded segments.",
		Long: heredoc.Doc(`
			This command deletes a note together with every coded segment in it.
			The note may be given by id, id prefix or title.

			Examples:
			  snyft rm "Pilot interview"
			  snyft rm 3f2a9c -y
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sess.State(cmd.Context())
			if err != nil {
				return err
			}

			n, err := cmdpkg.ResolveNote(cmd.Context(), s, args[0])
			if err != nil {
				return err
			}

			if !yes {
				ok, err := Confirm(fmt.Sprintf("Delete %q (%s)?", n.Title, n.ID))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Kept note.")
					return nil
				}
			}

			if err := s.DeleteNote(cmd.Context(), n.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s  %s\n", n.ID, n.Title)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking")
	return cmd
}
