package pack

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strconv"
	"strings"

	"draft_worker/core/domain"
	"draft_worker/core/port/out"
)

const (
	coverPaddingPt = 40
	docImageMaxPt  = 500
)

// imageSize returns the pixel dimensions of an encoded image, or ok=false when the
// format is not recognised.
func imageSize(data []byte) (w, h float64, ok bool) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width == 0 || cfg.Height == 0 {
		return 0, 0, false
	}
	return float64(cfg.Width), float64(cfg.Height), true
}

// ContainFit scales an imgW x imgH image to fit inside the page less padding on every
// side, keeping its aspect ratio, and centres it.
func ContainFit(imgW, imgH, pageW, pageH, padding float64) out.Rect {
	boxW := pageW - 2*padding
	boxH := pageH - 2*padding
	if imgW <= 0 || imgH <= 0 {
		return out.Rect{Left: padding, Top: padding, Width: boxW, Height: boxH}
	}
	scale := min(boxW/imgW, boxH/imgH)
	w := imgW * scale
	h := imgH * scale
	return out.Rect{
		Left:   (pageW - w) / 2,
		Top:    (pageH - h) / 2,
		Width:  w,
		Height: h,
	}
}

// ScaleToWidth shrinks w x h to at most maxW wide, keeping the aspect ratio.
// Images already narrow enough are returned unchanged.
func ScaleToWidth(w, h, maxW float64) (float64, float64) {
	if w <= maxW {
		return w, h
	}
	scale := maxW / w
	return float64(int(w*scale + 0.5)), float64(int(h*scale + 0.5))
}

// NotesParagraphs lays out the notes document body: a bold title followed by
// metadata, notes, caption and hashtags sections. Empty sections are omitted.
func NotesParagraphs(meta domain.PackMeta, draft domain.DraftContent) []out.DocParagraph {
	title := meta.Title
	if title == "" {
		title = "(Untitled)"
	}
	paras := []out.DocParagraph{{Text: title, Bold: true}, {}}
	add := func(text string) { paras = append(paras, out.DocParagraph{Text: text}) }

	add(strings.TrimSpace("Type: " + meta.Type))
	if meta.AuthorOrBrand != "" {
		add("Author/Brand: " + meta.AuthorOrBrand)
	}
	if meta.Link != "" {
		add("Link: " + meta.Link)
	}
	if meta.CreatedAt != "" {
		add("Created: " + meta.CreatedAt)
	}
	add("")

	if meta.Notes != "" {
		add("Notes:")
		add(meta.Notes)
		add("")
	}
	if draft.Caption != "" {
		add("Caption:")
		add(draft.Caption)
		add("")
	}
	if len(draft.Hashtags) > 0 {
		add("Hashtags:")
		add(draft.HashtagLine())
		add("")
	}
	if len(meta.Images) > 0 {
		add("Images:")
	}
	return paras
}

// NotesImages places each shared image under an "Image N" label, scaled to the
// document width limit.
func NotesImages(images []domain.PackImage, uris map[string]string) []out.DocImage {
	var docImages []out.DocImage
	for i, img := range images {
		uri, ok := uris[img.FileID]
		if !ok {
			continue
		}
		di := out.DocImage{Label: "Image " + strconv.Itoa(i+1), URI: uri}
		if w, h, ok := imageSize(img.Data); ok {
			di.Width, di.Height = ScaleToWidth(w, h, docImageMaxPt)
		} else {
			di.Width = docImageMaxPt
		}
		docImages = append(docImages, di)
	}
	return docImages
}
