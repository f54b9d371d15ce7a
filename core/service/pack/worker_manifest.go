package pack

import (
	"draft_worker/core/domain"

	"github.com/goccy/go-json"
)

// Manifest is the content of a pack's JSON file.
type Manifest struct {
	Caption  string          `json:"caption"`
	Hashtags []string        `json:"hashtags"`
	Meta     domain.PackMeta `json:"meta"`
}

// EncodeManifest renders the manifest with two-space indentation.
func EncodeManifest(draft domain.DraftContent, meta domain.PackMeta) ([]byte, error) {
	hashtags := draft.Hashtags
	if hashtags == nil {
		hashtags = []string{}
	}
	if meta.Images == nil {
		meta.Images = []domain.PackImage{}
	}
	return json.MarshalIndent(Manifest{
		Caption:  draft.Caption,
		Hashtags: hashtags,
		Meta:     meta,
	}, "", "  ")
}
