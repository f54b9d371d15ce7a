package out

import (
	"context"

	"draft_worker/core/domain"
)

// ReportRepository stores run reports (MongoDB).
type ReportRepository interface {
	Save(ctx context.Context, report *domain.RunReport) error
	Recent(ctx context.Context, limit int) ([]*domain.RunReport, error)
}
