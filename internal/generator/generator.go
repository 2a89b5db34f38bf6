// Package generator produces draft content for candidates, either
// through the host's text-generation collaborator or a local template.
package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonesrussell/brand-studio/internal/models"
)

// TextGenerator is the contract for the external text-generation
// collaborator. Implementations must honor the context deadline.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// BuildPrompt assembles the generation prompt for one variant.
func BuildPrompt(topic, summary, channel, language, tone string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a %s post in %s about the topic below.\n", channel, languageName(language))
	if tone != "" {
		fmt.Fprintf(&b, "Tone: %s.\n", tone)
	}
	fmt.Fprintf(&b, "Topic: %s\nContext: %s\n", topic, summary)
	b.WriteString("Write from a first-person engineering perspective with practical takeaways. Return only the post content.")
	return b.String()
}

// TemplateVariant renders the deterministic local fallback for one
// variant. Used when the LLM collaborator is disabled or fails.
func TemplateVariant(topic, summary, language, tone string) string {
	suffix := ""
	if tone != "" {
		suffix = fmt.Sprintf(" (%s)", tone)
	}
	if language == models.LangPL {
		return strings.TrimSpace(fmt.Sprintf(
			"%s: %s Moja perspektywa inzynierska i praktyczne wnioski.%s", topic, summary, suffix,
		))
	}
	return strings.TrimSpace(fmt.Sprintf(
		"%s: %s My engineering perspective with practical takeaways.%s", topic, summary, suffix,
	))
}

func languageName(code string) string {
	switch code {
	case models.LangPL:
		return "Polish"
	case models.LangEN:
		return "English"
	default:
		return code
	}
}
