package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nfrund/presetmarket/internal/upload"
)

func newUploadCmd(a *app) *cobra.Command {
	var (
		name        string
		description string
		private     bool
	)
	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Share a preset file",
		Long: `Share a preset file.

The file must be JSON with a "layout" member. Its "name" and "description"
are used unless --name or --description are given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}

			f, err := a.fs.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			d := upload.NewDraft()
			if err := d.LoadFile(f); err != nil {
				return err
			}
			d.FileName = filepath.Base(args[0])
			if cmd.Flags().Changed("name") {
				d.Name = name
			}
			if cmd.Flags().Changed("description") {
				d.Description = description
			}
			d.IsPublic = !private

			created, err := d.Submit(cmd.Context(), a.client, a.store.Token())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published %q as preset %d.\n", created.Name, created.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "preset name")
	cmd.Flags().StringVarP(&description, "description", "d", "", "preset description")
	cmd.Flags().BoolVar(&private, "private", false, "only you can see the preset")
	return cmd
}
