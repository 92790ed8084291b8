package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/nfrund/presetmarket/cmd/presetctl/internal/output"
	"github.com/nfrund/presetmarket/internal/catalog"
	"github.com/nfrund/presetmarket/internal/domain"
)

func newListCmd(a *app) *cobra.Command {
	var (
		page   int
		sort   string
		search string
		format string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List presets",
		Long: `List one page of the preset catalog.

Examples:
  presetctl list                          # newest presets
  presetctl list --sort likes --page 2    # most liked, second page
  presetctl list --search cute -f json    # search, machine-readable`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := output.CheckFormat(format); err != nil {
				return err
			}
			b := catalog.NewBrowser(a.client, a.store, a.logger)
			defer b.Close()

			err := b.Load(cmd.Context(), domain.ListQuery{Page: page, Sort: domain.Sort(sort), Search: search})
			if err != nil && !errors.Is(err, catalog.ErrSuperseded) {
				return err
			}
			v := b.View()
			if format == output.FormatJSON {
				return output.JSON(cmd.OutOrStdout(), domain.PresetPage{Items: v.Items, Total: v.Total})
			}
			output.Presets(cmd.OutOrStdout(), v.Items, v.Query, v.Total)
			return nil
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	cmd.Flags().StringVarP(&sort, "sort", "s", string(domain.SortLatest), "sort order (latest, popular, likes)")
	cmd.Flags().StringVarP(&search, "search", "q", "", "search term")
	cmd.Flags().StringVarP(&format, "format", "f", output.FormatTable, "output format (table, json)")
	return cmd
}

func newMineCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "List your own presets, private ones included",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := output.CheckFormat(format); err != nil {
				return err
			}
			if err := a.requireLogin(); err != nil {
				return err
			}
			items, err := a.client.MyPresets(cmd.Context(), a.store.Token())
			if err != nil {
				return err
			}
			if format == output.FormatJSON {
				return output.JSON(cmd.OutOrStdout(), items)
			}
			output.OwnPresets(cmd.OutOrStdout(), items)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", output.FormatTable, "output format (table, json)")
	return cmd
}
