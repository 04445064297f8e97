package ports

import (
	"context"
	"time"

	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/climate"
)

// LoadRequest narrows what the reader returns. Zero From/To means the full
// recorded range; zero filters keep every station.
type LoadRequest struct {
	From       time.Time
	To         time.Time
	ProvinceID int
	RegionID   int
	StationID  int
	Dedup      climate.DedupPolicy
}

// DatasetReader loads the raw daily climate records from a source location.
// Implementations validate the schema, normalize timestamps and enforce the
// per-station monotonicity invariant before returning a Dataset.
type DatasetReader interface {
	Load(ctx context.Context, req LoadRequest) (*climate.Dataset, error)
}
