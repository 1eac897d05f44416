package recommend

import (
	"context"

	"github.com/kailas-cloud/tripmate/internal/domain/record"
	"github.com/kailas-cloud/tripmate/internal/usecase/index"
	"github.com/kailas-cloud/tripmate/internal/usecase/likes"
)

// TableLoader reads one sheet.
type TableLoader interface {
	Load(ctx context.Context, ref record.DatasetRef) (*record.Table, error)
}

// LikeCrediter credits names and returns the updated sheet.
type LikeCrediter interface {
	Credit(ctx context.Context, ref record.DatasetRef, nameColumn string, names []string) (likes.Outcome, error)
}

// IndexBuilder embeds search texts into a SearchIndex.
type IndexBuilder interface {
	Build(ctx context.Context, label string, texts []string) (*index.SearchIndex, error)
}
