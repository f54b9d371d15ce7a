package draft

import (
	"context"
	"errors"
	"strings"
	"testing"

	"draft_worker/core/domain"

	"github.com/rs/zerolog"
)

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		typ  string
		want Category
	}{
		{"BOOK", CategoryBook},
		{"Book", CategoryBook},
		{"audiobook", CategoryBook},
		{"POLITICAL", CategoryPolitical},
		{"politics", CategoryPolitical},
		{"Restaurant", CategoryGeneric},
		{"", CategoryGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			if got := CategoryOf(tt.typ); got != tt.want {
				t.Errorf("CategoryOf(%q) = %v, want %v", tt.typ, got, tt.want)
			}
		})
	}
}

func TestBuildCaption(t *testing.T) {
	tests := []struct {
		name        string
		in          domain.DraftInput
		wantCaption string
		wantTags    int
	}{
		{
			name:        "book with author and link",
			in:          domain.DraftInput{Type: "Book", Title: "Dune", Author: "Frank Herbert", Link: "https://example.com/dune"},
			wantCaption: "📚 Dune — Frank Herbert\n\nSaved for later.\n\n🔗 Link saved.",
			wantTags:    5,
		},
		{
			name:        "book with notes",
			in:          domain.DraftInput{Type: "BOOK", Title: "Dune", Notes: "reread"},
			wantCaption: "📚 Dune\n\nSaved for later.\n\nNotes: reread",
			wantTags:    5,
		},
		{
			name:        "political with notes",
			in:          domain.DraftInput{Type: "POLITICAL", Title: "Rent hike in Fremantle", Notes: "affects 200 tenants"},
			wantCaption: "🟥 Rent hike in Fremantle\n\nA quick local take:\n\n• affects 200 tenants\n\nIf this affects you, I’d like to hear your experience.",
			wantTags:    6,
		},
		{
			name:        "generic",
			in:          domain.DraftInput{Type: "Restaurant", Title: "Lulu"},
			wantCaption: "✨ Lulu\n\nSaved for later.",
			wantTags:    3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildCaption(tt.in)
			if got.Caption != tt.wantCaption {
				t.Errorf("Caption = %q, want %q", got.Caption, tt.wantCaption)
			}
			if len(got.Hashtags) != tt.wantTags {
				t.Errorf("len(Hashtags) = %d, want %d", len(got.Hashtags), tt.wantTags)
			}
		})
	}
}

func TestBuildCaption_PoliticalNudge(t *testing.T) {
	got := BuildCaption(domain.DraftInput{Type: "POLITICAL", Title: "Bus cuts"})
	if !strings.Contains(got.Caption, "• "+politicalNotesNudge) {
		t.Errorf("Caption = %q, want the notes nudge", got.Caption)
	}
}

func TestNormalizeHashtags(t *testing.T) {
	in := []string{" #a", "#b", "#a", "", "#B", "  "}
	got := NormalizeHashtags(in)
	want := []string{"#a", "#b", "#B"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("NormalizeHashtags() = %v, want %v", got, want)
	}

	if got := NormalizeHashtags(nil); got == nil || len(got) != 0 {
		t.Errorf("NormalizeHashtags(nil) = %#v, want empty non-nil", got)
	}
}

func TestApplyStoryOnly(t *testing.T) {
	got := ApplyStoryOnly(domain.DraftContent{
		Caption:  "line one\nline two\nline three\nline four",
		Hashtags: []string{"#x"},
	})
	if got.Caption != "line one\nline two" {
		t.Errorf("Caption = %q", got.Caption)
	}
	if got.Hashtags == nil || len(got.Hashtags) != 0 {
		t.Errorf("Hashtags = %#v, want empty non-nil", got.Hashtags)
	}
}

func TestParseGeneration(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantParsed bool
		wantOpener string
	}{
		{"valid", `{"caption":" Hi ","hashtags":["#a","#a","#b"],"story_opener":"Look"}`, true, "Look"},
		{"fenced", "```json\n{\"caption\":\"Hi\",\"hashtags\":[]}\n```", true, ""},
		{"not json", "Sure! Here is your caption", false, ""},
		{"empty caption", `{"caption":"  ","hashtags":["#a"]}`, false, ""},
		{"wrong hashtag type", `{"caption":"Hi","hashtags":[1,2]}`, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			switch g := ParseGeneration(tt.raw).(type) {
			case Parsed:
				if !tt.wantParsed {
					t.Fatalf("ParseGeneration() = Parsed, want Malformed")
				}
				if g.StoryOpener != tt.wantOpener {
					t.Errorf("StoryOpener = %q, want %q", g.StoryOpener, tt.wantOpener)
				}
				if strings.TrimSpace(g.Content.Caption) != g.Content.Caption {
					t.Errorf("Caption %q is not trimmed", g.Content.Caption)
				}
			case Malformed:
				if tt.wantParsed {
					t.Fatalf("ParseGeneration() = Malformed(%v), want Parsed", g.Err)
				}
				if g.Raw != tt.raw {
					t.Errorf("Raw = %q, want %q", g.Raw, tt.raw)
				}
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	in := domain.DraftInput{Type: "POLITICAL", Title: "Bus cuts"}
	full := BuildPrompt(in, domain.VerbosityFull)
	fast := BuildPrompt(in, domain.VerbosityFast)

	if !strings.Contains(full, "max 180 words") || !strings.Contains(fast, "max 80 words") {
		t.Errorf("word budgets missing from prompts")
	}
	if !strings.Contains(full, "Author/Brand: (none)") {
		t.Errorf("empty author should render as (none)")
	}
}

type fakeGenerator struct {
	reply  string
	err    error
	prompt string
	calls  int
}

func (f *fakeGenerator) CompleteJSON(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.reply, f.err
}

func TestDrafter_Draft(t *testing.T) {
	political := domain.DraftInput{Type: "POLITICAL", Title: "Bus cuts", Link: "https://example.com/bus"}
	template := BuildCaption(political)

	tests := []struct {
		name        string
		reply       string
		err         error
		aiAll       bool
		in          domain.DraftInput
		flags       domain.Flags
		wantCaption string
		wantCalls   int
	}{
		{
			name:        "parsed reply",
			reply:       `{"caption":"Routes 1 and 2 are going.","hashtags":["#perth"],"story_opener":"Bus news"}`,
			in:          political,
			wantCaption: "Routes 1 and 2 are going.\n\nStory opener: Bus news\n\n🔗 Link saved.",
			wantCalls:   1,
		},
		{
			name:        "malformed falls back",
			reply:       "no json here",
			in:          political,
			wantCaption: template.Caption,
			wantCalls:   1,
		},
		{
			name:        "transport error falls back",
			err:         errors.New("boom"),
			in:          political,
			wantCaption: template.Caption,
			wantCalls:   1,
		},
		{
			name:        "book uses template",
			reply:       `{"caption":"x"}`,
			in:          domain.DraftInput{Type: "BOOK", Title: "Dune"},
			wantCaption: "📚 Dune\n\nSaved for later.",
			wantCalls:   0,
		},
		{
			name:        "ai for all types",
			reply:       `{"caption":"Great read"}`,
			aiAll:       true,
			in:          domain.DraftInput{Type: "BOOK", Title: "Dune"},
			wantCaption: "Great read",
			wantCalls:   1,
		},
		{
			name:        "story only after generation",
			reply:       `{"caption":"one\ntwo\nthree","hashtags":["#a"]}`,
			in:          political,
			flags:       domain.Flags{IsStoryOnly: true},
			wantCaption: "one\ntwo",
			wantCalls:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeGenerator{reply: tt.reply, err: tt.err}
			d := NewDrafter(NewGenerator(llm), tt.aiAll, zerolog.Nop())

			got := d.Draft(context.Background(), tt.in, tt.flags)
			if got.Caption != tt.wantCaption {
				t.Errorf("Caption = %q, want %q", got.Caption, tt.wantCaption)
			}
			if llm.calls != tt.wantCalls {
				t.Errorf("generator calls = %d, want %d", llm.calls, tt.wantCalls)
			}
		})
	}
}

func TestDrafter_FastVerbosity(t *testing.T) {
	llm := &fakeGenerator{reply: `{"caption":"ok"}`}
	d := NewDrafter(NewGenerator(llm), false, zerolog.Nop())

	d.Draft(context.Background(), domain.DraftInput{Type: "POLITICAL", Title: "x"}, domain.Flags{IsFast: true})
	if !strings.Contains(llm.prompt, "max 80 words") {
		t.Errorf("fast flag should request the short caption budget")
	}
}

func TestDrafter_NoGenerator(t *testing.T) {
	d := NewDrafter(nil, true, zerolog.Nop())
	in := domain.DraftInput{Type: "POLITICAL", Title: "x", Notes: "n"}
	if got := d.Draft(context.Background(), in, domain.Flags{}); got.Caption != BuildCaption(in).Caption {
		t.Errorf("Draft() without a generator should use the template")
	}
}
