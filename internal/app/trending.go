package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"ideaforge/pkg/ai"
	"ideaforge/pkg/domain"
)

const trendingCacheKey = "ideaforge:trending:ideas"

const trendingPrompt = `Generate 5 current trending business ideas that are popular right now.
Focus on:
- AI and technology trends
- Sustainability and green business
- Remote work solutions
- Health and wellness
- E-commerce innovations
- Social media and content creation

Return as JSON array with this format:
[
  {
    "title": "Idea Title",
    "description": "Short, valuable description (max 60 characters) highlighting key benefit"
  }
]

Make descriptions concise, impactful, and focused on the main value proposition.
Make sure ideas are realistic, current, and have market potential.`

// TrendingIdea is one AI-curated trending business idea.
type TrendingIdea struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TrendingIdeas returns AI-curated trending ideas, cached in redis for the
// configured TTL so repeated requests do not burn provider quota. Unlike
// generation, a model response that cannot be parsed is an error here; there
// is no thread to attach fallback content to.
func (a *App) TrendingIdeas(ctx context.Context) ([]TrendingIdea, error) {
	if a.cache != nil {
		if cached, err := a.cache.Get(ctx, trendingCacheKey).Result(); err == nil {
			var ideas []TrendingIdea
			if err := json.Unmarshal([]byte(cached), &ideas); err == nil && len(ideas) > 0 {
				return ideas, nil
			}
		}
	}

	raw, err := a.gen.Complete(ctx, []ai.ChatMessage{{Role: ai.RoleUser, Content: trendingPrompt}})
	if err != nil {
		return nil, fmt.Errorf("generate trending ideas: %w", err)
	}
	var ideas []TrendingIdea
	if err := ai.ParseStrict(raw, &ideas); err != nil {
		return nil, fmt.Errorf("parse trending ideas: %w", err)
	}
	valid := ideas[:0]
	for _, idea := range ideas {
		if idea.Title != "" && idea.Description != "" {
			valid = append(valid, idea)
		}
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("no valid trending ideas in response")
	}

	if a.cache != nil {
		if payload, err := json.Marshal(valid); err == nil {
			if err := a.cache.Set(ctx, trendingCacheKey, payload, a.trendingTTL).Err(); err != nil {
				slog.Warn("trending cache write failed", "err", err)
			}
		}
	}
	return valid, nil
}

// TrendingThread is a recently active thread with an engagement score.
type TrendingThread struct {
	ID               string                  `json:"id"`
	Title            string                  `json:"title"`
	AppType          string                  `json:"appType"`
	GeneratedContent domain.GeneratedContent `json:"generatedContent"`
	UserActions      domain.UserActions      `json:"userActions"`
	Score            int                     `json:"score"`
	UpdatedAt        time.Time               `json:"updatedAt"`
}

// TrendingThreads lists the most recently active threads, scored by
// engagement: saves x3, shares x5, refinements x2.
func (a *App) TrendingThreads(appType string) ([]TrendingThread, error) {
	threads, err := a.store.ListRecentThreads(appType, 10)
	if err != nil {
		return nil, fmt.Errorf("list recent threads: %w", err)
	}
	out := make([]TrendingThread, 0, len(threads))
	for _, t := range threads {
		out = append(out, TrendingThread{
			ID:               t.ID,
			Title:            t.Title,
			AppType:          t.Metadata.AppType,
			GeneratedContent: t.Metadata.GeneratedContent,
			UserActions:      t.Metadata.UserActions,
			Score:            trendingScore(t.Metadata),
			UpdatedAt:        t.UpdatedAt,
		})
	}
	return out, nil
}

func trendingScore(m domain.ThreadMetadata) int {
	return len(m.UserActions.Saved)*3 + len(m.UserActions.Shared)*5 + len(m.RefinementHistory)*2
}
