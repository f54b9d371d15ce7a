// Package in defines inbound ports for the application.
package in

import (
	"context"

	"draft_worker/core/domain"
)

// TriageService drafts Instagram packs from labeled inbox threads.
type TriageService interface {
	// Run processes every pending thread once. It returns apperr.ErrRunInProgress
	// when another run is active.
	Run(ctx context.Context) (*domain.RunReport, error)

	// Preview classifies a message and drafts its template caption without side effects.
	Preview(subject, body string) *domain.Preview

	// Running reports whether a run is active.
	Running() bool

	// RecentRuns returns the latest stored run reports, newest first.
	RecentRuns(ctx context.Context, limit int) ([]*domain.RunReport, error)
}
