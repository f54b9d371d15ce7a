package draft

import (
	"context"

	"draft_worker/core/domain"

	"github.com/rs/zerolog"
)

// Drafter chooses between the generative and template caption paths.
type Drafter struct {
	gen   *Generator
	aiAll bool
	log   zerolog.Logger
}

// NewDrafter creates a Drafter. gen may be nil, in which case every caption comes
// from the templates. With aiAll the generator drafts every type, not only political items.
func NewDrafter(gen *Generator, aiAll bool, log zerolog.Logger) *Drafter {
	return &Drafter{gen: gen, aiAll: aiAll, log: log}
}

// Draft writes the caption for in. Generator failures fall back to the template and
// are never returned. Story-only trimming is applied last.
func (d *Drafter) Draft(ctx context.Context, in domain.DraftInput, flags domain.Flags) domain.DraftContent {
	content := d.draft(ctx, in, flags)
	if flags.IsStoryOnly {
		content = ApplyStoryOnly(content)
	}
	return content
}

func (d *Drafter) usesGenerator(typ string) bool {
	if d.gen == nil {
		return false
	}
	return d.aiAll || CategoryOf(typ) == CategoryPolitical
}

func (d *Drafter) draft(ctx context.Context, in domain.DraftInput, flags domain.Flags) domain.DraftContent {
	if !d.usesGenerator(in.Type) {
		return BuildCaption(in)
	}

	verbosity := domain.VerbosityFull
	if flags.IsFast {
		verbosity = domain.VerbosityFast
	}

	gen, err := d.gen.Generate(ctx, in, verbosity)
	if err != nil {
		d.log.Warn().Err(err).Str("title", in.Title).Msg("caption generation failed, using template")
		return BuildCaption(in)
	}

	switch g := gen.(type) {
	case Parsed:
		return finishGenerated(g, in.Link)
	case Malformed:
		d.log.Warn().Err(g.Err).Int("raw_len", len(g.Raw)).Str("title", in.Title).
			Msg("caption reply malformed, using template")
	}
	return BuildCaption(in)
}

func finishGenerated(p Parsed, link string) domain.DraftContent {
	caption := p.Content.Caption
	if p.StoryOpener != "" {
		caption += "\n\nStory opener: " + p.StoryOpener
	}
	if link != "" {
		caption += linkSuffix
	}
	return domain.DraftContent{
		Caption:  caption,
		Hashtags: NormalizeHashtags(p.Content.Hashtags),
	}
}
