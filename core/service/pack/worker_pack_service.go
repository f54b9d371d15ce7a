package pack

import (
	"context"
	"fmt"
	"time"

	"draft_worker/core/domain"
	"draft_worker/core/port/out"
	"draft_worker/pkg/apperr"
	"draft_worker/pkg/resilience"

	"github.com/rs/zerolog"
)

// Config names the Drive resources packs are built from.
type Config struct {
	RootFolderID     string
	SlidesTemplateID string
	DocTemplateID    string
	// RetryAttempts bounds the consistency wait on fresh copies. Zero keeps the default.
	RetryAttempts int
}

// Request is everything needed to assemble one pack.
type Request struct {
	Title        string
	Type         string
	Author       string
	Link         string
	Notes        string
	EmailSubject string // raw, tags kept
	Draft        domain.DraftContent
	Images       []domain.Attachment
}

// Service assembles packs.
type Service struct {
	files  out.FileStore
	docs   out.Documents
	slides out.Presentations
	cfg    Config
	retry  resilience.RetryConfig
	now    func() time.Time
	log    zerolog.Logger
}

// NewService creates a pack Service. Calls against freshly copied files are retried
// on not-found with resilience.EventualConsistency.
func NewService(files out.FileStore, docs out.Documents, slides out.Presentations, cfg Config, log zerolog.Logger) *Service {
	retry := resilience.EventualConsistency(out.IsNotFound)
	if cfg.RetryAttempts > 0 {
		retry.Attempts = cfg.RetryAttempts
	}
	return &Service{
		files:  files,
		docs:   docs,
		slides: slides,
		cfg:    cfg,
		retry:  retry,
		now:    time.Now,
		log:    log,
	}
}

// Assemble builds the pack folder: source images, a slide deck with the first image
// as cover, a notes document and the JSON manifest. A failed cover image is logged
// and skipped; every other failure aborts the pack.
func (s *Service) Assemble(ctx context.Context, req Request) (*domain.PackResult, error) {
	safe := SafeFilename(req.Title)
	log := s.log.With().Str("pack", safe).Logger()

	folder, err := s.files.EnsureFolder(ctx, s.cfg.RootFolderID, safe)
	if err != nil {
		return nil, fmt.Errorf("ensure pack folder: %w", err)
	}

	images, err := s.uploadImages(ctx, folder.ID, safe, req.Images)
	if err != nil {
		return nil, err
	}

	// Slides and Docs fetch inline images by URL, so the uploads are shared for
	// the duration of the build.
	uris := s.shareImages(ctx, images, log)
	defer s.unshareImages(context.WithoutCancel(ctx), uris, log)

	slides, err := s.copyTemplate(ctx, s.cfg.SlidesTemplateID, folder.ID, SlidesName(safe))
	if err != nil {
		return nil, fmt.Errorf("copy slides template: %w", err)
	}
	if len(images) > 0 {
		if err := s.applyCover(ctx, slides.ID, images[0], uris); err != nil {
			log.Warn().Err(err).Str("slides_id", slides.ID).Msg("cover image failed, continuing")
		}
	}

	meta := domain.PackMeta{
		CreatedAt:     s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Title:         req.Title,
		Type:          req.Type,
		AuthorOrBrand: req.Author,
		Link:          req.Link,
		Notes:         req.Notes,
		MediaType:     domain.MediaTypeFor(len(images)),
		Images:        images,
		EmailSubject:  req.EmailSubject,
		SlidesURL:     slides.URL,
		PackFolderURL: folder.URL,
	}
	if len(images) > 0 {
		meta.CoverImageURL = images[0].URL
	}

	doc, err := s.copyTemplate(ctx, s.cfg.DocTemplateID, folder.ID, NotesName(safe))
	if err != nil {
		return nil, fmt.Errorf("copy doc template: %w", err)
	}
	err = resilience.Retry(ctx, s.retry, func(ctx context.Context) error {
		return s.docs.Rewrite(ctx, doc.ID, NotesParagraphs(meta, req.Draft), NotesImages(images, uris))
	})
	if err != nil {
		return nil, consistencyError("write notes document", err)
	}
	meta.DocURL = doc.URL

	manifest, err := EncodeManifest(req.Draft, meta)
	if err != nil {
		return nil, apperr.InternalWithError(err)
	}
	manifestFile, err := s.files.Upload(ctx, folder.ID, ManifestName(safe), "application/json", manifest)
	if err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	log.Debug().Int("images", len(images)).Str("folder", folder.URL).Msg("pack assembled")
	return &domain.PackResult{
		Folder:   folder,
		Slides:   slides,
		Doc:      doc,
		Manifest: manifestFile,
		Images:   images,
		Meta:     meta,
	}, nil
}

func (s *Service) uploadImages(ctx context.Context, folderID, safe string, attachments []domain.Attachment) ([]domain.PackImage, error) {
	images := make([]domain.PackImage, 0, len(attachments))
	for _, att := range attachments {
		if !att.IsImage() {
			continue
		}
		index := len(images) + 1
		name := SourceImageName(safe, index, att.ContentType)
		file, err := s.files.Upload(ctx, folderID, name, att.ContentType, att.Data)
		if err != nil {
			return nil, fmt.Errorf("upload %s: %w", name, err)
		}
		images = append(images, domain.PackImage{
			Index:       index,
			Name:        name,
			FileID:      file.ID,
			URL:         file.URL,
			ContentType: att.ContentType,
			Data:        att.Data,
		})
	}
	return images, nil
}

// copyTemplate copies a template into the pack folder and waits until Drive serves it.
func (s *Service) copyTemplate(ctx context.Context, templateID, folderID, name string) (domain.StoredFile, error) {
	file, err := s.files.Copy(ctx, templateID, folderID, name)
	if err != nil {
		return domain.StoredFile{}, err
	}
	err = resilience.Retry(ctx, s.retry, func(ctx context.Context) error {
		return s.files.Stat(ctx, file.ID)
	})
	if err != nil {
		return domain.StoredFile{}, consistencyError("wait for "+name, err)
	}
	return file, nil
}

func (s *Service) applyCover(ctx context.Context, slidesID string, cover domain.PackImage, uris map[string]string) error {
	uri, ok := uris[cover.FileID]
	if !ok {
		return fmt.Errorf("cover image %s is not shared", cover.Name)
	}

	var pageW, pageH float64
	err := resilience.Retry(ctx, s.retry, func(ctx context.Context) error {
		var err error
		pageW, pageH, err = s.slides.PageSize(ctx, slidesID)
		return err
	})
	if err != nil {
		return consistencyError("open slides", err)
	}

	imgW, imgH, _ := imageSize(cover.Data)
	box := ContainFit(imgW, imgH, pageW, pageH, coverPaddingPt)
	return resilience.Retry(ctx, s.retry, func(ctx context.Context) error {
		return s.slides.ReplaceFirstSlide(ctx, slidesID, uri, box)
	})
}

func (s *Service) shareImages(ctx context.Context, images []domain.PackImage, log zerolog.Logger) map[string]string {
	uris := make(map[string]string, len(images))
	for _, img := range images {
		uri, err := s.files.ShareWithLink(ctx, img.FileID)
		if err != nil {
			log.Warn().Err(err).Str("file", img.Name).Msg("share image failed")
			continue
		}
		uris[img.FileID] = uri
	}
	return uris
}

func (s *Service) unshareImages(ctx context.Context, uris map[string]string, log zerolog.Logger) {
	for fileID := range uris {
		if err := s.files.Unshare(ctx, fileID); err != nil {
			log.Warn().Err(err).Str("file_id", fileID).Msg("unshare image failed")
		}
	}
}

// consistencyError turns an exhausted not-found retry into a TIMEOUT.
func consistencyError(operation string, err error) error {
	if out.IsNotFound(err) {
		return apperr.Timeout(operation).WithError(err)
	}
	return fmt.Errorf("%s: %w", operation, err)
}
