package studio

import (
	"context"

	"github.com/jonesrussell/brand-studio/internal/generator"
	"github.com/jonesrussell/brand-studio/internal/logger"
	"github.com/jonesrussell/brand-studio/internal/models"
	"github.com/jonesrussell/brand-studio/internal/store"
)

const actionDraftGenerate = "draft.generate"

// GenerateDraft produces (or returns the cached) multi-channel,
// multi-language draft bundle for a candidate. Repeated calls with
// identical input return the stored bundle verbatim until the TTL
// elapses or a refresh is forced.
func (s *Service) GenerateDraft(ctx context.Context, actor string, req models.DraftGenerateRequest) (models.DraftBundle, error) {
	candidate, err := s.candidateByID(req.CandidateID)
	if err != nil {
		return models.DraftBundle{}, err
	}

	strategy := s.ActiveStrategy()
	key := fingerprint(req.CandidateID, req.Channels, req.Languages, req.Tone)

	if !req.Refresh {
		s.runtimeMu.Lock()
		cached, ok := s.runtime.Drafts[key]
		fresh := ok && s.now().UTC().Sub(cached.CreatedAt) < strategy.CacheTTL()
		s.runtimeMu.Unlock()
		if fresh {
			return cached.Bundle, nil
		}
	}

	// Generation happens outside the runtime lock; the LLM collaborator
	// may take seconds. Concurrent identical requests at worst generate
	// twice and the later store wins with an equivalent bundle.
	variants := s.buildVariants(ctx, candidate, req)
	bundle := models.DraftBundle{
		DraftID:     newID("draft"),
		CandidateID: req.CandidateID,
		Variants:    variants,
	}

	entry := s.newAudit(actor, actionDraftGenerate, "ok", bundle.DraftID, "")

	s.runtimeMu.Lock()
	// A superseded bundle stays addressable under its own draft id so
	// queue items that reference it remain publishable.
	if prev, ok := s.runtime.Drafts[key]; ok && prev.Bundle.DraftID != bundle.DraftID {
		s.runtime.Drafts[prev.Bundle.DraftID] = prev
	}
	s.runtime.Drafts[key] = draftEntry{
		Fingerprint: key,
		CreatedAt:   s.now().UTC(),
		Bundle:      bundle,
	}
	s.runtime.Audit = append(s.runtime.Audit, entry)
	err = s.store.Save(store.BucketRuntime, &s.runtime)
	s.runtimeMu.Unlock()
	if err != nil {
		return models.DraftBundle{}, err
	}

	s.forward(entry)
	return bundle, nil
}

// buildVariants renders one variant per (channel, language) pair,
// preferring the text-generation collaborator and falling back to the
// local template per variant on failure.
func (s *Service) buildVariants(
	ctx context.Context,
	candidate models.Candidate,
	req models.DraftGenerateRequest,
) []models.DraftVariant {
	variants := make([]models.DraftVariant, 0, len(req.Channels)*len(req.Languages))
	for _, channel := range req.Channels {
		for _, language := range req.Languages {
			content := ""
			if s.generate != nil {
				prompt := generator.BuildPrompt(candidate.Topic, candidate.Summary, channel, language, req.Tone)
				generated, err := s.generate.Generate(ctx, prompt)
				if err != nil {
					s.log.Warn("text generation failed, using template",
						logger.String("channel", channel),
						logger.String("language", language),
						logger.Error(err),
					)
				} else {
					content = generated
				}
			}
			if content == "" {
				content = generator.TemplateVariant(candidate.Topic, candidate.Summary, language, req.Tone)
			}
			variants = append(variants, models.DraftVariant{
				Channel:  channel,
				Language: language,
				Content:  content,
			})
		}
	}
	return variants
}

// draftByIDLocked finds a cached bundle by draft id. Callers hold
// runtimeMu.
func (s *Service) draftByIDLocked(draftID string) (models.DraftBundle, bool) {
	for _, entry := range s.runtime.Drafts {
		if entry.Bundle.DraftID == draftID {
			return entry.Bundle, true
		}
	}
	return models.DraftBundle{}, false
}
