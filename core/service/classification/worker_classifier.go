package classification

import (
	"strings"

	"draft_worker/core/domain"
)

// Classify derives type, flags and overrides for one message. Flags are read from
// the raw subject before tags are stripped; the body is cut at its signature.
func Classify(subject, body string) domain.Classification {
	raw := strings.TrimSpace(subject)
	flags := ParseFlags(raw)
	clean := StripTags(raw)

	core := BodyCore(body)
	link := PrimaryURL(core)
	overrides := ParseOverrides(core)
	inferred := InferType(clean, core, link)

	return domain.Classification{
		Type:         ResolveEffectiveType(inferred, overrides.Type, flags),
		InferredType: inferred,
		Flags:        flags,
		Overrides:    overrides,
		Subject:      clean,
		BodyCore:     core,
		PrimaryLink:  link,
	}
}
