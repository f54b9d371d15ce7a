package draft

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"draft_worker/core/domain"
	"draft_worker/core/port/out"

	"github.com/goccy/go-json"
)

// Generation is the outcome of one caption request to the text generator:
// either Parsed or Malformed.
type Generation interface {
	generation()
}

// Parsed is a well-formed generator reply.
type Parsed struct {
	Content     domain.DraftContent
	StoryOpener string
}

// Malformed is a reply that could not be used as a caption.
type Malformed struct {
	Raw string
	Err error
}

func (Parsed) generation()    {}
func (Malformed) generation() {}

var errEmptyCaption = errors.New("reply has no caption")

// Generator asks a TextGenerator for an audience-tuned caption.
type Generator struct {
	llm out.TextGenerator
}

// NewGenerator creates a Generator backed by llm.
func NewGenerator(llm out.TextGenerator) *Generator {
	return &Generator{llm: llm}
}

// Generate requests a caption. A non-nil error is a transport failure; a reply that
// does not decode is returned as Malformed.
func (g *Generator) Generate(ctx context.Context, in domain.DraftInput, v domain.Verbosity) (Generation, error) {
	raw, err := g.llm.CompleteJSON(ctx, BuildPrompt(in, v))
	if err != nil {
		return nil, err
	}
	return ParseGeneration(raw), nil
}

// BuildPrompt renders the caption prompt for in.
func BuildPrompt(in domain.DraftInput, v domain.Verbosity) string {
	return fmt.Sprintf(`You write Instagram captions for a Western Australia local-left audience.
Tone: calm, neighbourly, practical. Avoid US culture-war framing. No jargon.
Keep it concise and actionable.

Task:
Write:
1) a caption (max %d words)
2) 8-15 relevant hashtags (WA-appropriate)
3) a 1-line "story opener" (very short)

Context:
Type: %s
Title: %s
Author/Brand: %s
Link: %s
Notes: %s

Return ONLY valid JSON:
{"caption":"...","hashtags":["#..."],"story_opener":"..."}`,
		v.MaxWords(), in.Type, in.Title, orNone(in.Author), orNone(in.Link), orNone(in.Notes))
}

type generatorReply struct {
	Caption     string   `json:"caption"`
	Hashtags    []string `json:"hashtags"`
	StoryOpener string   `json:"story_opener"`
}

// ParseGeneration decodes a generator reply. Markdown code fences around the JSON
// object are tolerated.
func ParseGeneration(raw string) Generation {
	var reply generatorReply
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &reply); err != nil {
		return Malformed{Raw: raw, Err: err}
	}
	caption := strings.TrimSpace(reply.Caption)
	if caption == "" {
		return Malformed{Raw: raw, Err: errEmptyCaption}
	}
	return Parsed{
		Content: domain.DraftContent{
			Caption:  caption,
			Hashtags: NormalizeHashtags(reply.Hashtags),
		},
		StoryOpener: strings.TrimSpace(reply.StoryOpener),
	}
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
