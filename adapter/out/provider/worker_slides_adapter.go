package provider

import (
	"context"
	"fmt"

	"draft_worker/core/port/out"
	"draft_worker/pkg/resilience"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/slides/v1"
)

const emuPerPoint = 12700

// SlidesAdapter implements out.Presentations for Google Slides.
type SlidesAdapter struct {
	svc *slides.Service
	cb  *resilience.Breaker
}

var _ out.Presentations = (*SlidesAdapter)(nil)

// NewSlidesAdapter creates a Slides adapter authenticated with ts.
func NewSlidesAdapter(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (*SlidesAdapter, error) {
	svc, err := slides.NewService(ctx, ClientOptions(ts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create slides service: %w", err)
	}
	return &SlidesAdapter{svc: svc, cb: resilience.NewBreaker("slides-api")}, nil
}

func (a *SlidesAdapter) get(ctx context.Context, presentationID string) (*slides.Presentation, error) {
	var p *slides.Presentation
	err := a.cb.Execute("GetPresentation", func() error {
		var apiErr error
		p, apiErr = a.svc.Presentations.Get(presentationID).Context(ctx).Do()
		return apiErr
	})
	if err != nil {
		return nil, wrapError("slides", err, "failed to get presentation")
	}
	return p, nil
}

// PageSize returns the page dimensions in points.
func (a *SlidesAdapter) PageSize(ctx context.Context, presentationID string) (float64, float64, error) {
	p, err := a.get(ctx, presentationID)
	if err != nil {
		return 0, 0, err
	}
	if p.PageSize == nil {
		return 0, 0, out.NewProviderError("slides", out.ProviderErrInvalidInput, "presentation has no page size", nil, false)
	}
	return toPoints(p.PageSize.Width), toPoints(p.PageSize.Height), nil
}

// ReplaceFirstSlide clears the first slide and places the image inside box.
func (a *SlidesAdapter) ReplaceFirstSlide(ctx context.Context, presentationID, imageURI string, box out.Rect) error {
	p, err := a.get(ctx, presentationID)
	if err != nil {
		return err
	}
	if len(p.Slides) == 0 {
		return out.NewProviderError("slides", out.ProviderErrInvalidInput, "presentation has no slides", nil, false)
	}

	requests := buildSlideRequests(p.Slides[0], imageURI, box)
	err = a.cb.Execute("BatchUpdate", func() error {
		_, apiErr := a.svc.Presentations.BatchUpdate(presentationID, &slides.BatchUpdatePresentationRequest{
			Requests: requests,
		}).Context(ctx).Do()
		return apiErr
	})
	return wrapError("slides", err, "failed to replace first slide")
}

func buildSlideRequests(slide *slides.Page, imageURI string, box out.Rect) []*slides.Request {
	requests := make([]*slides.Request, 0, len(slide.PageElements)+1)
	for _, el := range slide.PageElements {
		requests = append(requests, &slides.Request{
			DeleteObject: &slides.DeleteObjectRequest{ObjectId: el.ObjectId},
		})
	}
	requests = append(requests, &slides.Request{
		CreateImage: &slides.CreateImageRequest{
			Url: imageURI,
			ElementProperties: &slides.PageElementProperties{
				PageObjectId: slide.ObjectId,
				Size: &slides.Size{
					Width:  &slides.Dimension{Magnitude: box.Width, Unit: "PT"},
					Height: &slides.Dimension{Magnitude: box.Height, Unit: "PT"},
				},
				Transform: &slides.AffineTransform{
					ScaleX:     1,
					ScaleY:     1,
					TranslateX: box.Left,
					TranslateY: box.Top,
					Unit:       "PT",
				},
			},
		},
	})
	return requests
}

func toPoints(d *slides.Dimension) float64 {
	if d == nil {
		return 0
	}
	if d.Unit == "EMU" {
		return d.Magnitude / emuPerPoint
	}
	return d.Magnitude
}
