package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/tripmate/internal/usecase/recommend"
)

type recommendFlags struct {
	city     string
	category string
}

func (f *recommendFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.city, "city", "", "city key, e.g. kl, penang, \"johor bahru\"")
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "attractions, hotels or restaurants")
	_ = cmd.MarkFlagRequired("city")
	_ = cmd.MarkFlagRequired("category")
}

func newQueryCmd(st *state) *cobra.Command {
	var (
		rf     recommendFlags
		liked  []string
		offset int
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "query [text]",
		Short: "Answer one query the way /chat does",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := st.engine(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if limit <= 0 {
				limit = st.cfg.Engine.DefaultLimit
			}
			resp, err := a.Recommend.HandleRequest(cmd.Context(), recommend.Request{
				City:     rf.city,
				Category: rf.category,
				Query:    strings.Join(args, " "),
				Liked:    liked,
				Offset:   offset,
				Limit:    limit,
			})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp.Payload())
			}
			printResponse(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	rf.register(cmd)
	cmd.Flags().StringSliceVar(&liked, "liked", nil, "names to credit with a like before searching")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of results to skip")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size (default engine.default_limit)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the response in the /chat JSON shape")
	return cmd
}

func printResponse(w io.Writer, resp recommend.Response) {
	if resp.Reply != "" {
		fmt.Fprintln(w, resp.Reply)
		return
	}
	if len(resp.Suggestions) == 0 {
		fmt.Fprintf(w, "No suggestions on this page (%d results in total).\n", resp.TotalResults)
		return
	}

	for i, s := range resp.Suggestions {
		fmt.Fprintf(w, "%d. %s\n", resp.Offset+i+1, s.Name)
		fmt.Fprintf(w, "   Relevance: %.2f  Likes: %d\n", s.Relevance, s.Likes)
		fmt.Fprintf(w, "   %s\n", s.Description)
		fmt.Fprintf(w, "   Address: %s\n", s.Address)

		keys := make([]string, 0, len(s.Extras))
		for k := range s.Extras {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "   %s: %s\n", strings.ToUpper(k[:1])+k[1:], s.Extras[k])
		}

		fmt.Fprintf(w, "   Reviews: %s\n", s.Reviews)
		fmt.Fprintf(w, "   Website: %s\n", s.Website)
	}

	shown := resp.Offset + len(resp.Suggestions)
	if shown < resp.TotalResults {
		fmt.Fprintf(w, "\nShowing %d of %d. Use --offset %d for more.\n", shown, resp.TotalResults, shown)
	}
}
