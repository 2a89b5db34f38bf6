package models

// Draft tones accepted by the generator.
const (
	ToneNeutral = "neutral"
	ToneExpert  = "expert"
	ToneShort   = "short"
	ToneCTA     = "cta"
)

// DraftVariant is channel+language specific generated content for one
// candidate.
type DraftVariant struct {
	Channel  string `json:"channel"`
	Language string `json:"language"`
	Content  string `json:"content"`
}

// DraftBundle is the generated content for one candidate. A bundle is
// immutable once produced; regeneration replaces it wholesale.
type DraftBundle struct {
	DraftID     string         `json:"draft_id"`
	CandidateID string         `json:"candidate_id"`
	Variants    []DraftVariant `json:"variants"`
}

// Variant returns the variant matching channel and language, if any.
func (b *DraftBundle) Variant(channel, language string) (DraftVariant, bool) {
	for _, v := range b.Variants {
		if v.Channel == channel && v.Language == language {
			return v, true
		}
	}
	return DraftVariant{}, false
}

// DraftGenerateRequest is the payload for POST /drafts/generate.
type DraftGenerateRequest struct {
	CandidateID string   `binding:"required"                                      json:"candidate_id"`
	Channels    []string `binding:"required,min=1,dive,oneof=x github blog devto" json:"channels"`
	Languages   []string `binding:"required,min=1,dive,oneof=pl en"               json:"languages"`
	Tone        string   `binding:"omitempty,oneof=neutral expert short cta"      json:"tone"`
	Refresh     bool     `json:"refresh"`
}
