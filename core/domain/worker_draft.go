package domain

import "strings"

// Content types produced by subject flags and keyword inference. A body override
// (Type: line) may carry any other free-text value.
const (
	TypeBook       = "BOOK"
	TypePolitical  = "POLITICAL"
	TypeInferBook  = "Book"
	TypeRestaurant = "Restaurant"
	TypeThing      = "Thing"
)

// MaxHashtags caps every drafted hashtag list.
const MaxHashtags = 20

// Flags are behaviour switches parsed from bracket tags in a subject line.
type Flags struct {
	IsBook      bool `json:"is_book" yaml:"is_book"`
	IsPolitical bool `json:"is_political" yaml:"is_political"`
	IsDraftOnly bool `json:"is_draft_only" yaml:"is_draft_only"`
	IsStoryOnly bool `json:"is_story_only" yaml:"is_story_only"`
	IsTest      bool `json:"is_test" yaml:"is_test"`
	IsFast      bool `json:"is_fast" yaml:"is_fast"`
}

// ParsedOverrides holds explicit Type/Title/Author/Notes lines from a body.
// Missing fields are empty strings.
type ParsedOverrides struct {
	Type   string `json:"type" yaml:"type"`
	Title  string `json:"title" yaml:"title"`
	Author string `json:"author" yaml:"author"`
	Notes  string `json:"notes" yaml:"notes"`
}

// Classification is the result of classifying one message.
type Classification struct {
	Type         string          `json:"type" yaml:"type"`
	InferredType string          `json:"inferred_type" yaml:"inferred_type"`
	Flags        Flags           `json:"flags" yaml:"flags"`
	Overrides    ParsedOverrides `json:"overrides" yaml:"overrides"`
	Subject      string          `json:"subject" yaml:"subject"` // tags stripped
	BodyCore     string          `json:"-" yaml:"-"`
	PrimaryLink  string          `json:"primary_link" yaml:"primary_link"`
}

// DraftInput is everything a caption is drafted from.
type DraftInput struct {
	Type   string
	Title  string
	Author string
	Link   string
	Notes  string
}

// DraftContent is a drafted Instagram caption.
type DraftContent struct {
	Caption  string   `json:"caption" yaml:"caption"`
	Hashtags []string `json:"hashtags" yaml:"hashtags"`
}

// HashtagLine joins hashtags with single spaces.
func (d DraftContent) HashtagLine() string {
	return strings.Join(d.Hashtags, " ")
}

// Verbosity selects the caption length asked of the text generator.
type Verbosity int

const (
	VerbosityFull Verbosity = iota
	VerbosityFast
)

// MaxWords returns the caption word budget for v.
func (v Verbosity) MaxWords() int {
	if v == VerbosityFast {
		return 80
	}
	return 180
}

// Preview is a side-effect-free classification and template draft of one message.
type Preview struct {
	Classification Classification `json:"classification" yaml:"classification"`
	Fingerprint    string         `json:"fingerprint" yaml:"fingerprint"`
	Title          string         `json:"title" yaml:"title"`
	Notes          string         `json:"notes" yaml:"notes"`
	Draft          DraftContent   `json:"draft" yaml:"draft"`
}
