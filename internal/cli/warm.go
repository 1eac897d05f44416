package cli

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tripmate/internal/usecase/recommend"
)

type warmResult struct {
	entry   recommend.Entry
	records int
	err     error
}

func newWarmCmd(st *state) *cobra.Command {
	var (
		category string
		city     string
		workers  int
		quiet    bool
	)

	cmd := &cobra.Command{
		Use:   "warm",
		Short: "Embed every configured sheet to pre-fill the embedding cache",
		Long: `warm loads each configured sheet, builds its search index and so routes every
search text through the embedding cache. Run it after deploying new workbooks
or switching models so the first queries don't pay for embedding.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := st.engine(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if a.Store == nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Warning: cache.driver is none; warming only checks the sheets.")
			}

			entries := filterEntries(a.Catalog.Entries(), category, city)
			if len(entries) == 0 {
				return fmt.Errorf("no configured sheets match category=%q city=%q", category, city)
			}

			results, err := warmAll(cmd.Context(), a.Recommend, entries, workers, progress(cmd, quiet, len(entries)))
			if err != nil {
				return err
			}

			var failed, records int
			for _, r := range results {
				if r.err != nil {
					failed++
					st.logger.Warn("Warm failed",
						zap.String("category", string(r.entry.Domain)),
						zap.String("city", r.entry.City),
						zap.Error(r.err),
					)
					fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s/%s: %v\n", r.entry.Domain, r.entry.City, r.err)
					continue
				}
				records += r.records
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Warmed %d sheets (%d records), %d failed.\n",
				len(results)-failed, records, failed)
			if failed > 0 {
				return fmt.Errorf("%d of %d sheets failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "only warm this category")
	cmd.Flags().StringVar(&city, "city", "", "only warm this city")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "concurrent sheets (default NumCPU/2)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "no progress bar")
	return cmd
}

type warmer interface {
	Warm(ctx context.Context, category, city string) (int, error)
}

// warmAll runs Warm for every entry on an ants pool. Results keep entry order.
func warmAll(
	ctx context.Context, w warmer, entries []recommend.Entry, workers int, onDone func(),
) ([]warmResult, error) {
	if workers <= 0 {
		workers = runtime.NumCPU() / 2
	}
	if workers < 1 {
		workers = 1
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	results := make([]warmResult, len(entries))
	var wg sync.WaitGroup
	for i, e := range entries {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			n, err := w.Warm(ctx, string(e.Domain), e.City)
			results[i] = warmResult{entry: e, records: n, err: err}
			if onDone != nil {
				onDone()
			}
		})
		if err != nil {
			wg.Done()
			results[i] = warmResult{entry: e, err: fmt.Errorf("submit: %w", err)}
		}
	}
	wg.Wait()
	return results, nil
}

func filterEntries(entries []recommend.Entry, category, city string) []recommend.Entry {
	category = strings.ToLower(strings.TrimSpace(category))
	city = strings.ToLower(strings.TrimSpace(city))

	// city aliases share a sheet; warm it once
	seen := make(map[string]bool, len(entries))
	out := make([]recommend.Entry, 0, len(entries))
	for _, e := range entries {
		if category != "" && string(e.Domain) != category {
			continue
		}
		if city != "" && e.City != city {
			continue
		}
		if seen[e.Ref.String()] {
			continue
		}
		seen[e.Ref.String()] = true
		out = append(out, e)
	}
	return out
}

func progress(cmd *cobra.Command, quiet bool, total int) func() {
	if quiet {
		return nil
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetDescription("[cyan]Warming[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(cmd.ErrOrStderr())
		}),
	)
	var mu sync.Mutex
	return func() {
		mu.Lock()
		defer mu.Unlock()
		_ = bar.Add(1)
	}
}
