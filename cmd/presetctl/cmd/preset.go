package cmd

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/nfrund/presetmarket/cmd/presetctl/internal/output"
	"github.com/nfrund/presetmarket/internal/detail"
	"github.com/nfrund/presetmarket/internal/domain"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// presetPage builds the detail view model for the id in args[0].
func (a *app) presetPage(args []string) (*detail.Page, error) {
	id, err := parseID(args[0])
	if err != nil {
		return nil, err
	}
	return detail.NewPage(id, a.client, a.store, a.logger), nil
}

func newShowCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show a preset with its layout and comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := output.CheckFormat(format); err != nil {
				return err
			}
			p, err := a.presetPage(args)
			if err != nil {
				return err
			}
			if err := p.Load(cmd.Context()); err != nil {
				return err
			}
			if format == output.FormatJSON {
				return output.JSON(cmd.OutOrStdout(), struct {
					Preset   any `json:"preset"`
					Comments any `json:"comments"`
				}{p.Preset(), p.Comments()})
			}
			output.Detail(cmd.OutOrStdout(), *p.Preset(), p.Comments())
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", output.FormatTable, "output format (table, json)")
	return cmd
}

func newLikeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "like ID",
		Short: "Like a preset, or take your like back",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.presetPage(args)
			if err != nil {
				return err
			}
			res, err := p.ToggleLike(cmd.Context())
			if err != nil {
				return err
			}
			verb := "Unliked"
			if res.Liked {
				verb = "Liked"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s preset %s (%d likes).\n", verb, args[0], res.LikeCount)
			return nil
		},
	}
}

func newCommentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "comment ID TEXT...",
		Short: "Comment on a preset",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.presetPage(args)
			if err != nil {
				return err
			}
			if err := p.AddComment(cmd.Context(), strings.Join(args[1:], " ")); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Comment posted (%d comments).\n", len(p.Comments()))
			return nil
		},
	}
}

func newDeleteCommentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-comment PRESET_ID COMMENT_ID",
		Short: "Delete one of your comments",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.presetPage(args)
			if err != nil {
				return err
			}
			commentID, err := parseID(args[1])
			if err != nil {
				return err
			}
			if err := p.DeleteComment(cmd.Context(), commentID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Comment deleted.")
			return nil
		},
	}
}

func newDownloadCmd(a *app) *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "download ID",
		Short: "Download a preset file",
		Long: `Download a preset file.

The file is written to --output, or to the name suggested by the backend in
the current directory. Some backends store the file themselves; then the
location they report is printed instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.presetPage(args)
			if err != nil {
				return err
			}
			if err := p.Load(cmd.Context()); err != nil {
				return err
			}
			dl, err := p.Download(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if dl.SavedPath != "" {
				fmt.Fprintf(out, "The backend saved the preset to %s\n", dl.SavedPath)
				return nil
			}

			path := target
			if path == "" {
				path = filepath.Base(dl.Filename)
			}
			if err := afero.WriteFile(a.fs, path, dl.Payload, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(out, "Wrote %s to %s\n", output.Size(len(dl.Payload)), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&target, "output", "o", "", "file to write")
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var (
		name, description string
		public, private   bool
	)
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change the name, description or visibility of one of your presets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			var u domain.PresetUpdate
			if cmd.Flags().Changed("name") {
				u.Name = &name
			}
			if cmd.Flags().Changed("description") {
				u.Description = &description
			}
			if public || private {
				u.IsPublic = &public
			}

			p, err := a.presetPage(args)
			if err != nil {
				return err
			}
			if err := p.Load(cmd.Context()); err != nil {
				return err
			}
			if err := p.Update(cmd.Context(), u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %q.\n", p.Preset().Name)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "new name")
	f.StringVar(&description, "description", "", "new description")
	f.BoolVar(&public, "public", false, "list the preset in the catalog")
	f.BoolVar(&private, "private", false, "hide the preset from the catalog")
	cmd.MarkFlagsMutuallyExclusive("public", "private")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete one of your presets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			p, err := a.presetPage(args)
			if err != nil {
				return err
			}
			if err := p.Load(cmd.Context()); err != nil {
				return err
			}
			if !p.CanDelete() {
				return p.Delete(cmd.Context())
			}

			out := cmd.OutOrStdout()
			if !yes {
				fmt.Fprintf(out, "Delete %q? This cannot be undone. [y/N] ", p.Preset().Name)
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if reply := strings.ToLower(strings.TrimSpace(answer)); reply != "y" && reply != "yes" {
					fmt.Fprintln(out, "Aborted.")
					return nil
				}
			}
			if err := p.Delete(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(out, "Preset deleted.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
