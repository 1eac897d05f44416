package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/tripmate/internal/usecase/recommend"
)

func newLikeCmd(st *state) *cobra.Command {
	var rf recommendFlags

	cmd := &cobra.Command{
		Use:   "like [name]",
		Short: "Credit one place with a like",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := st.engine(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.Recommend.Like(cmd.Context(), recommend.LikeRequest{
				City:     rf.city,
				Category: rf.category,
				Name:     strings.Join(args, " "),
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			switch {
			case resp.Matched == 0:
				fmt.Fprintln(cmd.OutOrStdout(), "No place with that name; nothing was saved.")
			case !resp.Persisted:
				fmt.Fprintln(cmd.OutOrStdout(), "Warning: the workbook could not be saved.")
			}
			return nil
		},
	}
	rf.register(cmd)
	return cmd
}
