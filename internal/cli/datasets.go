package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tripmate/internal/app"
	"github.com/kailas-cloud/tripmate/internal/repository/workbook"
)

func newDatasetsCmd(st *state) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "List configured category/city sheets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := app.BuildCatalog(st.cfg.Datasets)
			if err != nil {
				return err
			}

			var sheets map[string]map[string]bool
			if check {
				sheets = workbookSheets(cmd, st, catalog.Files())
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			header := "CATEGORY\tCITY\tFILE\tSHEET"
			if check {
				header += "\tSTATUS"
			}
			fmt.Fprintln(tw, header)
			for _, e := range catalog.Entries() {
				line := fmt.Sprintf("%s\t%s\t%s\t%s", e.Domain, e.City, e.Ref.File, e.Ref.Sheet)
				if check {
					status := "missing"
					if sheets[e.Ref.File][e.Ref.Sheet] {
						status = "ok"
					}
					line += "\t" + status
				}
				fmt.Fprintln(tw, line)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "open each workbook and report whether the sheet exists")
	return cmd
}

func workbookSheets(cmd *cobra.Command, st *state, files []string) map[string]map[string]bool {
	store := workbook.New(st.cfg.DataDir, st.logger)
	out := make(map[string]map[string]bool, len(files))
	for _, f := range files {
		names, err := store.Sheets(cmd.Context(), f)
		if err != nil {
			st.logger.Warn("Workbook unreadable", zap.String("file", f), zap.Error(err))
			continue
		}
		set := make(map[string]bool, len(names))
		for _, n := range names {
			set[n] = true
		}
		out[f] = set
	}
	return out
}
