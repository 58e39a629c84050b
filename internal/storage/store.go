package storage

import (
	"context"

	"houndsim/internal/model"
)

// Store defines persistence operations for completed simulation runs.
type Store interface {
	Init(ctx context.Context) error
	Reset(ctx context.Context) error
	SaveRun(ctx context.Context, record model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRunIDs(ctx context.Context) ([]string, error)
}
