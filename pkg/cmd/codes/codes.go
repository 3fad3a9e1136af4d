package codes

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/snyft/internal/codebook"
	"github.com/Paintersrp/snyft/internal/state"
	cmdpkg "github.com/Paintersrp/snyft/pkg/cmd"
	"github.com/Paintersrp/snyft/pkg/cmd/remove"
)

func NewCmdCodes(sess *cmdpkg.Session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "codes",
		Aliases: []string{"c"},
		Short:   "Manage the codebook.",
		Long: heredoc.Doc(`
			The codebook holds the codes applied to passages of notes. A code is
			referred to by id, name or single character shortcut.

			Examples:
			  snyft codes list
			  snyft codes add "Power dynamics" --color "#aa5588" --shortcut p
			  snyft codes export > codebook.yaml
		`),
	}

	cmd.AddCommand(
		newCmdList(sess),
		newCmdAdd(sess),
		newCmdRename(sess),
		newCmdColor(sess),
		newCmdRemove(sess),
		newCmdExport(sess),
		newCmdImport(sess),
	)
	return cmd
}

func newCmdList(sess *cmdpkg.Session) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List codes with their segment counts.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sess.State(cmd.Context())
			if err != nil {
				return err
			}
			counts, err := s.Store.SegmentCounts(cmd.Context())
			if err != nil {
				return err
			}

			t := cmdpkg.NewTable(cmd.OutOrStdout(), "Key", "Name", "ID", "Color", "Segments", "Description")
			for _, c := range s.Codebook.All() {
				key := ""
				if c.Shortcut != 0 {
					key = string(c.Shortcut)
				}
				t.Append([]string{
					key,
					c.Name,
					c.ID,
					c.Color,
					strconv.Itoa(counts[c.ID]),
					cmdpkg.Clip(c.Description, 40),
				})
			}
			t.Render()
			return nil
		},
	}
}

func newCmdAdd(sess *cmdpkg.Session) *cobra.Command {
	var description, color, shortcut string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a code.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sess.State(cmd.Context())
			if err != nil {
				return err
			}
			r, err := parseShortcut(shortcut)
			if err != nil {
				return err
			}
			c, err := s.Codebook.Create(cmd.Context(), args[0], description, color, r)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added code %s (%s)\n", c.Name, c.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "What the code captures")
	cmd.Flags().StringVar(&color, "color", "#888888", "Highlight color as #rrggbb")
	cmd.Flags().StringVarP(&shortcut, "shortcut", "k", "", "Single character used in highlight mode")
	return cmd
}

func newCmdRename(sess *cmdpkg.Session) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <code> <new name>",
		Short: "Rename a code. Its id and segments are kept.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, c, err := lookup(cmd.Context(), sess, args[0])
			if err != nil {
				return err
			}
			if err := s.Codebook.Rename(cmd.Context(), c.ID, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", c.Name, args[1])
			return nil
		},
	}
}

func newCmdColor(sess *cmdpkg.Session) *cobra.Command {
	return &cobra.Command{
		Use:   "color <code> <color>",
		Short: "Change a code's highlight color.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, c, err := lookup(cmd.Context(), sess, args[0])
			if err != nil {
				return err
			}
			return s.Codebook.Recolor(cmd.Context(), c.ID, args[1])
		},
	}
}

func newCmdRemove(sess *cmdpkg.Session) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <code>",
		Aliases: []string{"remove"},
		Short:   "Delete a code and every segment coded with it.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, c, err := lookup(cmd.Context(), sess, args[0])
			if err != nil {
				return err
			}
			counts, err := s.Store.SegmentCounts(cmd.Context())
			if err != nil {
				return err
			}

			if !yes {
				ok, err := remove.Confirm(fmt.Sprintf("Delete code %q and its %d segments?", c.Name, counts[c.ID]))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Kept code.")
					return nil
				}
			}

			if _, err := s.DeleteCode(cmd.Context(), c.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted code %s\n", c.Name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking")
	return cmd
}

func newCmdExport(sess *cmdpkg.Session) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the codebook as YAML to a file or stdout.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sess.State(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 0 {
				return s.Codebook.Export(cmd.OutOrStdout())
			}

			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := s.Codebook.Export(f); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
}

func newCmdImport(sess *cmdpkg.Session) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Add the codes of a YAML codebook. Existing codes are kept.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sess.State(cmd.Context())
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			added, err := s.Codebook.Import(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d codes\n", added)
			return nil
		},
	}
}

func lookup(ctx context.Context, sess *cmdpkg.Session, key string) (*state.State, codebook.Code, error) {
	s, err := sess.State(ctx)
	if err != nil {
		return nil, codebook.Code{}, err
	}
	c, ok := s.Codebook.Lookup(key)
	if !ok {
		return nil, codebook.Code{}, fmt.Errorf("%w: %s", codebook.ErrNotFound, key)
	}
	return s, c, nil
}

func parseShortcut(value string) (rune, error) {
	r := []rune(value)
	switch len(r) {
	case 0:
		return 0, nil
	case 1:
		return r[0], nil
	}
	return 0, fmt.Errorf("shortcut must be a single character, got %q", value)
}
