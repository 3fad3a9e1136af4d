package segments

import (
	"context"
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/snyft/internal/buffer"
	"github.com/Paintersrp/snyft/internal/overlay"
	"github.com/Paintersrp/snyft/internal/state"
	cmdpkg "github.com/Paintersrp/snyft/pkg/cmd"
)

const excerptWidth = 48

func NewCmdSegments(sess *cmdpkg.Session) *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:     "segments [note]",
		Aliases: []string{"seg"},
		Short:   "Print the coded segments of a note or a code.",
		Long: heredoc.Doc(`
			This command prints coded segments with the text they cover.
			Offsets count user-perceived characters.

			Give a note to list its segments in order, or --code to list every
			segment of one code across notes.

			Examples:
			  snyft segments "Pilot interview"
			  snyft segments --code theme
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && code == "" {
				_ = cmd.Help()
				return fmt.Errorf("a note or --code is required")
			}

			s, err := sess.State(cmd.Context())
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			rows, err := collect(ctx, s, args, code)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No coded segments.")
				return nil
			}

			t := cmdpkg.NewTable(out, "Note", "Code", "Range", "Text", "Memo")
			for _, r := range rows {
				t.Append(r)
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVarP(&code, "code", "c", "", "List segments of this code (id, name or shortcut)")
	return cmd
}

func collect(ctx context.Context, s *state.State, args []string, code string) ([][]string, error) {
	var (
		segs   []overlay.Segment
		codeID string
	)
	if code != "" {
		c, ok := s.Codebook.Lookup(code)
		if !ok {
			return nil, fmt.Errorf("unknown code %q", code)
		}
		codeID = c.ID
	}

	if len(args) == 1 {
		n, err := cmdpkg.ResolveNote(ctx, s, args[0])
		if err != nil {
			return nil, err
		}
		all, err := s.Store.LoadSegments(ctx, n.ID)
		if err != nil {
			return nil, err
		}
		for _, seg := range all {
			if codeID == "" || seg.CodeID == codeID {
				segs = append(segs, seg)
			}
		}
	} else {
		var err error
		if segs, err = s.Store.SegmentsByCode(ctx, codeID); err != nil {
			return nil, err
		}
	}

	bodies := make(map[string]*buffer.Buffer)
	titles := make(map[string]string)
	rows := make([][]string, 0, len(segs))
	for _, seg := range segs {
		buf, ok := bodies[seg.NoteID]
		if !ok {
			n, err := s.Store.GetNote(ctx, seg.NoteID)
			if err != nil {
				return nil, err
			}
			buf = buffer.New(n.Body)
			bodies[seg.NoteID] = buf
			titles[seg.NoteID] = n.Title
		}

		text, err := buf.Slice(seg.Start, seg.End)
		if err != nil {
			text = "(out of range)"
		}
		name := seg.CodeID
		if c, ok := s.Codebook.Get(seg.CodeID); ok {
			name = c.Name
		}
		rows = append(rows, []string{
			cmdpkg.Clip(titles[seg.NoteID], 24),
			name,
			fmt.Sprintf("%d-%d", seg.Start, seg.End),
			cmdpkg.Clip(text, excerptWidth),
			cmdpkg.Clip(seg.Memo, 32),
		})
	}
	return rows, nil
}
