package root

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Paintersrp/snyft/internal/constants"
	"github.com/Paintersrp/snyft/internal/tui/notes"
	cmdpkg "github.com/Paintersrp/snyft/pkg/cmd"
	"github.com/Paintersrp/snyft/pkg/cmd/codes"
	"github.com/Paintersrp/snyft/pkg/cmd/list"
	"github.com/Paintersrp/snyft/pkg/cmd/new"
	"github.com/Paintersrp/snyft/pkg/cmd/open"
	"github.com/Paintersrp/snyft/pkg/cmd/remove"
	"github.com/Paintersrp/snyft/pkg/cmd/search"
	"github.com/Paintersrp/snyft/pkg/cmd/segments"
)

func NewCmdRoot(sess *cmdpkg.Session, v *viper.Viper) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:     constants.AppName,
		Short:   "Write notes and code them for qualitative analysis.",
		Version: constants.Version,
		Long: heredoc.Doc(`
			snyft keeps notes in a local database and lets you code passages of
			them against a shared codebook while you write.

			Run without a command to open the note browser. Select text in the
			editor, press ctrl+t for highlight mode, then press a code's shortcut.

			Examples:
			  snyft                      // open the browser
			  snyft -s "#fieldwork"      // open the browser filtered by tag
			  snyft new "Pilot interview"
			  snyft codes list
		`),
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sess.State(cmd.Context())
			if err != nil {
				return err
			}
			return notes.Run(s, query, "")
		},
	}

	cmd.PersistentFlags().String("notes-dir", "", "Directory holding the notes database (default is $HOME/snyft)")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	v.BindPFlag("notes_dir", cmd.PersistentFlags().Lookup("notes-dir"))
	v.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level"))

	cmd.Flags().StringVarP(&query, "search", "s", "", "Start with this search in the browser")

	cmd.AddCommand(
		new.NewCmdNew(sess),
		list.NewCmdList(sess),
		search.NewCmdSearch(sess),
		open.NewCmdOpen(sess),
		remove.NewCmdRemove(sess),
		codes.NewCmdCodes(sess),
		segments.NewCmdSegments(sess),
	)

	return cmd
}
