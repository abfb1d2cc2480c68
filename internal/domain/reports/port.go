package reports

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("report not found")

// Repository port for persisted reports. Every call is scoped by organization.
type Repository interface {
	Save(ctx context.Context, r *SavedReport) error
	Get(ctx context.Context, org string, id ReportID) (*SavedReport, error)
	List(ctx context.Context, org string, limit, offset int) ([]*SavedReport, error)
	Delete(ctx context.Context, org string, id ReportID) error
}

// ArtifactStore port untuk penyimpanan hasil export
type ArtifactStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}
