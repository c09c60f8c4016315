package app

import (
	"math"
	"strings"
	"testing"

	"ideaforge/pkg/domain"
)

func TestToGeneratedContentShapes(t *testing.T) {
	arr := toGeneratedContent([]any{
		map[string]any{"title": "a"},
		map[string]any{"title": "b"},
	})
	if !arr.IsArray || len(arr.Cards) != 2 {
		t.Fatalf("array shape broken: %+v", arr)
	}

	obj := toGeneratedContent(map[string]any{"content": "x"})
	if obj.IsArray || len(obj.Cards) != 1 {
		t.Fatalf("object shape broken: %+v", obj)
	}

	none := toGeneratedContent("just a string")
	if !none.Empty() {
		t.Fatalf("non-structured input must yield empty content")
	}
}

func TestToGeneratedContentBareElements(t *testing.T) {
	content := toGeneratedContent([]any{
		"Dog walking service",
		"Mobile car wash",
		nil,
		7.5,
	})
	if !content.IsArray || len(content.Cards) != 3 {
		t.Fatalf("bare elements must become cards: %+v", content)
	}
	if got := content.Cards[0]["content"]; got != "Dog walking service" {
		t.Fatalf("content = %v", got)
	}
	if got := content.Cards[2]["content"]; got != "7.5" {
		t.Fatalf("numeric element not stringified: %v", got)
	}

	// Mixed arrays keep both shapes addressable.
	mixed := toGeneratedContent([]any{
		"Bare idea",
		map[string]any{"title": "Structured idea"},
	})
	if len(mixed.Cards) != 2 {
		t.Fatalf("mixed array broken: %+v", mixed)
	}
}

func TestAssignCardIDs(t *testing.T) {
	content := toGeneratedContent([]any{
		map[string]any{"title": "a", "score": 8.2},
		map[string]any{"title": "b"},
		map[string]any{"title": "c", "id": "model-made-this-up"},
	})
	assignCardIDs(&content)

	seen := map[string]bool{}
	for i, card := range content.Cards {
		id := card.ID()
		if id == "" {
			t.Fatalf("card %d missing id", i)
		}
		if seen[id] {
			t.Fatalf("duplicate card id %q", id)
		}
		seen[id] = true
	}
	if content.Cards[2].ID() == "model-made-this-up" {
		t.Fatalf("model-provided id must be overwritten")
	}
	if content.Cards[0].Score() != 8.2 {
		t.Fatalf("existing score must be kept: %v", content.Cards[0].Score())
	}
	if s := content.Cards[1].Score(); s < 7.0 || s > 9.5 {
		t.Fatalf("assigned score out of range: %v", s)
	}
}

func TestAssignCardIDsKeepsNonNumericScore(t *testing.T) {
	content := toGeneratedContent([]any{
		map[string]any{"title": "a", "score": "8.5"},
		map[string]any{"title": "b", "score": ""},
		map[string]any{"title": "c", "score": float64(0)},
	})
	assignCardIDs(&content)

	if got := content.Cards[0]["score"]; got != "8.5" {
		t.Fatalf("string score must pass through untouched: %v", got)
	}
	for i := 1; i < 3; i++ {
		s, ok := content.Cards[i]["score"].(float64)
		if !ok || s < 7.0 || s > 9.5 {
			t.Fatalf("card %d: empty/zero score must be synthesized, got %v", i, content.Cards[i]["score"])
		}
	}
}

func TestRandomScoreRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		s := randomScore()
		if s < 7.0 || s > 9.5 {
			t.Fatalf("score out of range: %v", s)
		}
		// One decimal place.
		if math.Abs(s*10-math.Round(s*10)) > 1e-9 {
			t.Fatalf("score not rounded to one decimal: %v", s)
		}
	}
}

func TestFindIdeaByIndexSingleObject(t *testing.T) {
	content := toGeneratedContent(map[string]any{"content": "solo"})
	idea, ok := findIdeaByIndex(content, "anything")
	if !ok {
		t.Fatalf("single object must resolve regardless of idea id")
	}
	if idea["content"] != "solo" {
		t.Fatalf("unexpected idea: %v", idea)
	}
}

func TestDeriveTitle(t *testing.T) {
	if got := deriveTitle("coffee shops", "idea-generator"); got != "Ideas for coffee shops" {
		t.Fatalf("unexpected title: %q", got)
	}
	if got := deriveTitle("remote work", "blog-writer"); got != "Blog about remote work" {
		t.Fatalf("unexpected title: %q", got)
	}
	if got := deriveTitle("anything", "strategy-advisor"); got != "Generated content for anything" {
		t.Fatalf("unexpected title: %q", got)
	}

	long := deriveTitle(strings.Repeat("x", 200), "idea-generator")
	if len([]rune(long)) != maxTitleLength+3 {
		t.Fatalf("long title not truncated: %d runes", len([]rune(long)))
	}
	if !strings.HasSuffix(long, "...") {
		t.Fatalf("truncated title missing ellipsis")
	}
}

func TestBuildCardContext(t *testing.T) {
	card := domain.Card{"id": "c1", "title": "Meal kits", "description": "Weekly boxes", "score": 8.5}
	meta := domain.ThreadMetadata{
		RefinementHistory: []domain.RefinementEntry{
			{CardID: "c1", Aspect: "market-analysis", RefinedContent: map[string]any{"content": "Urban first."}},
			{CardID: "other", Aspect: "pricing", RefinedContent: map[string]any{"content": "Ignore me."}},
		},
		UserActions: domain.UserActions{
			Saved: []domain.SavedAction{{IdeaID: "c1"}},
		},
	}

	ctx := buildCardContext(card, meta)
	if !strings.Contains(ctx, "Title: Meal kits") {
		t.Fatalf("context missing title: %q", ctx)
	}
	if !strings.Contains(ctx, "1. market-analysis: Urban first.") {
		t.Fatalf("context missing refinement: %q", ctx)
	}
	if strings.Contains(ctx, "Ignore me.") {
		t.Fatalf("context leaked other card's refinement")
	}
	if !strings.Contains(ctx, "saved this idea 1 time(s)") {
		t.Fatalf("context missing save tally: %q", ctx)
	}
}
