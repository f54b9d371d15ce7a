// Package triage runs the inbox-to-draft pipeline.
package triage

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"draft_worker/core/domain"
	"draft_worker/core/port/in"
	"draft_worker/core/port/out"
	"draft_worker/core/service/classification"
	"draft_worker/core/service/dedupe"
	"draft_worker/core/service/draft"
	"draft_worker/core/service/notification"
	"draft_worker/core/service/pack"
	"draft_worker/pkg/apperr"
	"draft_worker/pkg/logger"
	"draft_worker/pkg/metrics"

	"github.com/google/uuid"
)

const untitled = "(Untitled)"

// Config holds the intake policy of a run.
type Config struct {
	InboxLabel     string
	ProcessedLabel string
	LookbackHours  int
	MaxThreads     int
}

// Assembler builds the Drive pack of one item.
type Assembler interface {
	Assemble(ctx context.Context, req pack.Request) (*domain.PackResult, error)
}

// Announcer delivers notifications.
type Announcer interface {
	Send(ctx context.Context, n *domain.Notification) error
}

// Deps are the collaborators of a Service. Titles, Notifier, Reports and Latency are optional.
type Deps struct {
	Mailbox  out.Mailbox
	Sheet    out.Spreadsheet
	Titles   out.TitleFetcher
	Seen     *dedupe.Store
	Drafter  *draft.Drafter
	Packs    Assembler
	Notifier Announcer
	Reports  out.ReportRepository
	Latency  *metrics.Registry
}

// Service processes labeled inbox threads one at a time. At most one run is active.
type Service struct {
	Deps
	cfg     Config
	running atomic.Bool
	now     func() time.Time
	log     *logger.Logger
}

var _ in.TriageService = (*Service)(nil)

// NewService creates a triage service.
func NewService(deps Deps, cfg Config, log *logger.Logger) *Service {
	return &Service{
		Deps: deps,
		cfg:  cfg,
		now:  time.Now,
		log:  log,
	}
}

// Query returns the mailbox search for pending threads.
func (s *Service) Query() string {
	return fmt.Sprintf(`label:"%s" -label:"%s" newer_than:%dh`, s.cfg.InboxLabel, s.cfg.ProcessedLabel, s.cfg.LookbackHours)
}

// Running reports whether a run is active.
func (s *Service) Running() bool {
	return s.running.Load()
}

// Run drafts every pending thread. Items are processed strictly in order; a failed
// item is reported and left for the next run. Errors that stop the whole run
// (search, sheet headers, state load) are returned alongside the partial report.
func (s *Service) Run(ctx context.Context) (*domain.RunReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, apperr.ErrRunInProgress
	}
	defer s.running.Store(false)

	report := &domain.RunReport{
		ID:        uuid.NewString(),
		StartedAt: s.now(),
		Query:     s.Query(),
		Items:     []domain.ItemOutcome{},
	}
	ctx = logger.ContextWithRunID(ctx, report.ID)
	log := s.log.WithContext(ctx)

	err := s.run(ctx, report)

	report.FinishedAt = s.now()
	if err != nil {
		report.Error = err.Error()
		log.WithError(err).Error("[Triage.Run] run aborted")
	}
	log.WithDuration(report.FinishedAt.Sub(report.StartedAt)).
		Info("[Triage.Run] finished: found=%d drafted=%d skipped=%d failed=%d",
			report.Found, report.Drafted, report.Skipped, report.Failed)

	if s.Reports != nil {
		if saveErr := s.Reports.Save(context.WithoutCancel(ctx), report); saveErr != nil {
			log.WithError(saveErr).Warn("[Triage.Run] failed to store run report")
		}
	}
	return report, err
}

func (s *Service) run(ctx context.Context, report *domain.RunReport) error {
	log := s.log.WithContext(ctx)

	threads, err := s.Mailbox.Search(ctx, report.Query, s.cfg.MaxThreads)
	if err != nil {
		return apperr.ExternalError("gmail", err)
	}
	report.Found = len(threads)
	log.Info("[Triage.Run] %d threads found", len(threads))
	if len(threads) == 0 {
		return nil
	}

	if err := s.EnsureHeaders(ctx); err != nil {
		return apperr.ExternalError("sheets", err)
	}

	session, err := s.Seen.Open(ctx)
	if err != nil {
		return err
	}

	for _, thread := range threads {
		if err := ctx.Err(); err != nil {
			return err
		}
		report.Add(s.processThread(ctx, session, thread))
	}
	return nil
}

func (s *Service) processThread(ctx context.Context, session *dedupe.Session, thread domain.InboxThread) domain.ItemOutcome {
	defer s.Latency.Time(metrics.StageItem)()

	msg := thread.Message
	subjectRaw := strings.TrimSpace(msg.Subject)
	c := classification.Classify(subjectRaw, msg.Body)
	fp := dedupe.Fingerprint(c.PrimaryLink, c.Subject, c.BodyCore)

	outcome := domain.ItemOutcome{
		ThreadID:    thread.ID,
		Subject:     subjectRaw,
		Type:        c.Type,
		Fingerprint: fp,
	}
	log := s.log.WithContext(ctx).WithField("thread_id", thread.ID)

	if session.IsDuplicate(fp) && !c.Flags.IsTest {
		log.Info("[Triage.Run] duplicate skipped: %s", subjectRaw)
		outcome.Status = domain.ItemDuplicate
		if err := s.Mailbox.MarkDone(ctx, thread.ID); err != nil {
			log.WithError(err).Warn("[Triage.Run] failed to mark duplicate done")
		}
		return outcome
	}

	res, title, err := s.draftItem(ctx, c, subjectRaw, msg)
	outcome.Title = title
	if err != nil {
		log.WithError(err).Error("[Triage.Run] item failed: %s", subjectRaw)
		outcome.Status = domain.ItemFailed
		outcome.Error = err.Error()
		return outcome
	}
	outcome.PackFolder = res.Folder.URL

	if err := session.RecordProcessed(ctx, fp); err != nil {
		log.WithError(err).Error("[Triage.Run] failed to record fingerprint")
		outcome.Status = domain.ItemFailed
		outcome.Error = err.Error()
		return outcome
	}
	if err := s.Mailbox.MarkDone(ctx, thread.ID); err != nil {
		log.WithError(err).Error("[Triage.Run] failed to mark thread done")
		outcome.Status = domain.ItemFailed
		outcome.Error = err.Error()
		return outcome
	}

	log.Info("[Triage.Run] draft created: type=%s title=%q folder=%s", c.Type, title, res.Folder.URL)
	outcome.Status = domain.ItemDrafted
	return outcome
}

// draftItem drafts the caption, assembles the pack, appends the sheet row and sends
// the notification.
func (s *Service) draftItem(ctx context.Context, c domain.Classification, subjectRaw string, msg domain.InboxMessage) (*domain.PackResult, string, error) {
	title := s.resolveTitle(ctx, c)
	notes := resolveNotes(c)
	input := domain.DraftInput{
		Type:   c.Type,
		Title:  title,
		Author: c.Overrides.Author,
		Link:   c.PrimaryLink,
		Notes:  notes,
	}
	stop := s.Latency.Time(metrics.StageDraft)
	content := s.Drafter.Draft(ctx, input, c.Flags)
	stop()

	images := msg.Images()
	stop = s.Latency.Time(metrics.StagePack)
	res, err := s.Packs.Assemble(ctx, pack.Request{
		Title:        title,
		Type:         c.Type,
		Author:       input.Author,
		Link:         input.Link,
		Notes:        notes,
		EmailSubject: subjectRaw,
		Draft:        content,
		Images:       images,
	})
	stop()
	if err != nil {
		return nil, title, fmt.Errorf("assemble pack: %w", err)
	}

	stop = s.Latency.Time(metrics.StageSheet)
	err = s.Sheet.AppendRow(ctx, SheetRow(res.Meta, content))
	stop()
	if err != nil {
		return nil, title, apperr.ExternalError("sheets", err)
	}

	if c.Flags.IsDraftOnly {
		s.log.WithContext(ctx).Info("[Triage.Run] draft-only, notification skipped: %s", subjectRaw)
		return res, title, nil
	}
	s.announce(ctx, input, content, res, images)
	return res, title, nil
}

// announce sends the drafted-item notification. Delivery failures are logged only.
func (s *Service) announce(ctx context.Context, input domain.DraftInput, content domain.DraftContent, res *domain.PackResult, images []domain.Attachment) {
	if s.Notifier == nil {
		return
	}
	defer s.Latency.Time(metrics.StageNotify)()

	item := notification.Item{
		Type:    input.Type,
		Title:   input.Title,
		Link:    input.Link,
		Notes:   input.Notes,
		Draft:   content,
		PackURL: res.Folder.URL,
	}
	if len(images) > 0 {
		item.CoverFile = &images[0]
	}
	n, err := notification.Compose(item)
	if err == nil {
		err = s.Notifier.Send(ctx, n)
	}
	if err != nil {
		s.log.WithContext(ctx).WithError(err).Warn("[Triage.Run] notification failed")
	}
}

// resolveTitle prefers the Title: override, then the linked page's title, then the
// cleaned subject.
func (s *Service) resolveTitle(ctx context.Context, c domain.Classification) string {
	if c.Overrides.Title != "" {
		return c.Overrides.Title
	}
	if s.Titles != nil && c.PrimaryLink != "" {
		stop := s.Latency.Time(metrics.StageTitle)
		title, err := s.Titles.FetchTitle(ctx, c.PrimaryLink)
		stop()
		if err != nil {
			s.log.WithContext(ctx).WithError(err).Debug("[Triage.Run] title fetch failed: %s", c.PrimaryLink)
		} else if title = strings.TrimSpace(title); title != "" {
			return title
		}
	}
	return fallbackTitle(c)
}

func fallbackTitle(c domain.Classification) string {
	if c.Overrides.Title != "" {
		return c.Overrides.Title
	}
	if c.Subject != "" {
		return c.Subject
	}
	return untitled
}

func resolveNotes(c domain.Classification) string {
	if c.Overrides.Notes != "" {
		return c.Overrides.Notes
	}
	return classification.ExtractNotes(c.BodyCore)
}

// Preview classifies a message and drafts its template caption. Nothing is fetched,
// written or recorded.
func (s *Service) Preview(subject, body string) *domain.Preview {
	c := classification.Classify(subject, body)
	title := fallbackTitle(c)
	notes := resolveNotes(c)

	content := draft.BuildCaption(domain.DraftInput{
		Type:   c.Type,
		Title:  title,
		Author: c.Overrides.Author,
		Link:   c.PrimaryLink,
		Notes:  notes,
	})
	if c.Flags.IsStoryOnly {
		content = draft.ApplyStoryOnly(content)
	}

	return &domain.Preview{
		Classification: c,
		Fingerprint:    dedupe.Fingerprint(c.PrimaryLink, c.Subject, c.BodyCore),
		Title:          title,
		Notes:          notes,
		Draft:          content,
	}
}

// RecentRuns returns the latest stored run reports.
func (s *Service) RecentRuns(ctx context.Context, limit int) ([]*domain.RunReport, error) {
	if s.Reports == nil {
		return []*domain.RunReport{}, nil
	}
	reports, err := s.Reports.Recent(ctx, limit)
	if err != nil {
		return nil, apperr.ExternalError("mongodb", err)
	}
	return reports, nil
}
