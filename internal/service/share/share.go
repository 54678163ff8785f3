package share

import (
	"context"
	"fmt"
	"log/slog"

	"recipevault/internal/entity"
)

const (
	serviceName = "share"
)

type RecipeSource interface {
	Get(ctx context.Context, id string) (*entity.RecipeRecord, error)
}

type PageRenderer interface {
	Parse(rec *entity.RecipeRecord, views int64) (string, error)
}

type ViewCounter interface {
	ViewerSeen(ctx context.Context, viewerID string) (bool, error)
	IncViewCounter(ctx context.Context, recipeID string) (int64, error)
	GetViewCounter(ctx context.Context, recipeID string) (int64, error)
}

type shareService struct {
	recipes  RecipeSource
	renderer PageRenderer
	views    ViewCounter
	log      *slog.Logger
}

func NewShareService(recipes RecipeSource, renderer PageRenderer, views ViewCounter, log *slog.Logger) *shareService {
	return &shareService{
		recipes:  recipes,
		renderer: renderer,
		views:    views,
		log:      log.With(slog.String("service", serviceName)),
	}
}

// GetPage renders the share page for a recipe. viewerID identifies the
// visitor for view dedup; counter failures never break the page.
func (s *shareService) GetPage(ctx context.Context, id string, viewerID string) (string, error) {
	rec, err := s.recipes.Get(ctx, id)
	if err != nil {
		s.log.Error("Cannot get recipe", slog.String("recipe_id", id), slog.Any("error", err))

		return "", fmt.Errorf("cannot get recipe %s: %w", id, err)
	}

	views := s.countView(ctx, id, viewerID)

	page, err := s.renderer.Parse(rec, views)
	if err != nil {
		s.log.Error("Cannot render share page", slog.String("recipe_id", id), slog.Any("error", err))

		return "", fmt.Errorf("cannot render recipe %s share page: %w", id, err)
	}

	return page, nil
}

func (s *shareService) Views(ctx context.Context, recipeID string) (int64, error) {
	views, err := s.views.GetViewCounter(ctx, recipeID)
	if err != nil {
		s.log.Error("Cannot get view counter", slog.String("recipe_id", recipeID), slog.Any("error", err))

		return 0, fmt.Errorf("cannot get recipe %s view counter: %w", recipeID, err)
	}

	return views, nil
}

// countView bumps the counter for an unseen viewer and returns the current
// count. Counter errors degrade to zero views.
func (s *shareService) countView(ctx context.Context, recipeID string, viewerID string) int64 {
	seen, err := s.views.ViewerSeen(ctx, viewerID)
	if err != nil {
		s.log.Warn("Cannot check viewer", slog.String("recipe_id", recipeID), slog.Any("error", err))

		return 0
	}

	if !seen {
		views, err := s.views.IncViewCounter(ctx, recipeID)
		if err != nil {
			s.log.Warn("Cannot increment view counter", slog.String("recipe_id", recipeID), slog.Any("error", err))

			return 0
		}

		return views
	}

	views, err := s.views.GetViewCounter(ctx, recipeID)
	if err != nil {
		s.log.Warn("Cannot get view counter", slog.String("recipe_id", recipeID), slog.Any("error", err))

		return 0
	}

	return views
}
