package suggestion

import (
	"context"
	"time"

	"virtualwardrobe/apperrors"
	"virtualwardrobe/logging"
	"virtualwardrobe/metrics"
	"virtualwardrobe/models"
	"virtualwardrobe/services"
)

const (
	StageResolve   = "resolve"
	StageAssemble  = "assemble"
	StageGenerate  = "generate"
	StageInterpret = "interpret"
)

type OutfitGenerator interface {
	Generate(ctx context.Context, text string, images []models.ImagePart) (string, error)
}

// Service runs resolve, assemble, generate and interpret for one request.
// It keeps no state between requests.
type Service struct {
	Resolver    StrictAuthorization
	Assembler   PromptAssembler
	Generator   OutfitGenerator
	Interpreter TolerantReferenceFiltering
	URLs        services.URLCacheServiceProvider
	Logger      logging.Logger
}

func NewService(items ItemStore, blobs BlobStore, generator OutfitGenerator, urls services.URLCacheServiceProvider, logger logging.Logger) *Service {
	return &Service{
		Resolver:    StrictAuthorization{Items: items},
		Assembler:   PromptAssembler{Blobs: blobs},
		Generator:   generator,
		Interpreter: NewTolerantReferenceFiltering(),
		URLs:        urls,
		Logger:      logger,
	}
}

func (s *Service) Generate(ctx context.Context, userID string, in models.GenerateSuggestionIn) (*models.GenerateSuggestionOut, error) {
	start := time.Now()
	fail := func(stage string, err error) (*models.GenerateSuggestionOut, error) {
		err = apperrors.WithStage(stage, err)
		metrics.SuggestionFailures.WithLabelValues(stage).Inc()
		metrics.SuggestionDuration.WithLabelValues("failure").Observe(time.Since(start).Seconds())
		s.Logger.Error("outfit suggestion failed", logging.Fields{
			"stage":      stage,
			"user_id":    userID,
			"item_count": len(in.SelectedItems),
			"elapsed_ms": time.Since(start).Milliseconds(),
			"error":      err,
		})
		return nil, err
	}

	items, err := s.Resolver.Resolve(ctx, userID, in.SelectedItems)
	if err != nil {
		return fail(StageResolve, err)
	}

	text, images, err := s.Assembler.Assemble(ctx, items, in.Preferences.Normalize())
	if err != nil {
		return fail(StageAssemble, err)
	}

	reply, err := s.Generator.Generate(ctx, text, images)
	if err != nil {
		if _, ok := apperrors.As(err); !ok {
			err = apperrors.Upstream("outfit generation failed", true, err)
		}
		return fail(StageGenerate, err)
	}

	outfits, err := s.Interpreter.Interpret(reply, items)
	if err != nil {
		s.Logger.Debug("rejected model reply", logging.Fields{"user_id": userID, "reply": reply})
		return fail(StageInterpret, err)
	}

	suggestions := make([]models.OutfitSuggestion, 0, len(outfits))
	for _, outfit := range outfits {
		suggestions = append(suggestions, models.OutfitSuggestion{
			Items:               s.render(ctx, outfit.Items),
			Reasoning:           outfit.Reasoning,
			Score:               outfit.Score,
			MatchingPreferences: outfit.MatchingPreferences,
			StyleAdvice:         outfit.StyleAdvice,
		})
	}

	processingTime := time.Since(start).Milliseconds()
	metrics.SuggestionDuration.WithLabelValues("success").Observe(time.Since(start).Seconds())
	s.Logger.Info("Successfully generated outfit suggestions", logging.Fields{
		"user_id":               userID,
		"processing_time_ms":    processingTime,
		"number_of_suggestions": len(suggestions),
	})
	return &models.GenerateSuggestionOut{
		Suggestions:    suggestions,
		ProcessingTime: processingTime,
		TotalOptions:   len(suggestions),
	}, nil
}

func (s *Service) render(ctx context.Context, items []models.WardrobeItem) []models.WardrobeItemOut {
	out := make([]models.WardrobeItemOut, 0, len(items))
	for _, item := range items {
		url, err := services.ItemImageURL(ctx, s.URLs, item.ImageKey, item.ImageURL)
		if err != nil {
			s.Logger.Warn("failed to resolve item image url", logging.Fields{"item_id": item.ID, "error": err})
		}
		out = append(out, item.Out(url))
	}
	return out
}
