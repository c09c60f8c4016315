package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"ideaforge/pkg/domain"
	"ideaforge/pkg/store"
)

func TestTrendingIdeasCached(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	gen := &stubGenerator{response: `[{"title":"AI tutors","description":"Personalized learning at scale"}]`}
	a := New(store.NewMemoryStore(), gen, Options{Cache: client, TrendingTTL: time.Minute})

	ideas, err := a.TrendingIdeas(context.Background())
	if err != nil {
		t.Fatalf("TrendingIdeas: %v", err)
	}
	if len(ideas) != 1 || ideas[0].Title != "AI tutors" {
		t.Fatalf("unexpected ideas: %+v", ideas)
	}
	if gen.calls != 1 {
		t.Fatalf("expected 1 provider call, got %d", gen.calls)
	}

	// Second call is served from the cache.
	if _, err := a.TrendingIdeas(context.Background()); err != nil {
		t.Fatalf("TrendingIdeas cached: %v", err)
	}
	if gen.calls != 1 {
		t.Fatalf("cache miss on second call, provider calls = %d", gen.calls)
	}

	// After TTL expiry the provider is consulted again.
	mr.FastForward(2 * time.Minute)
	if _, err := a.TrendingIdeas(context.Background()); err != nil {
		t.Fatalf("TrendingIdeas after expiry: %v", err)
	}
	if gen.calls != 2 {
		t.Fatalf("expected refetch after expiry, provider calls = %d", gen.calls)
	}
}

func TestTrendingIdeasStrictParse(t *testing.T) {
	gen := &stubGenerator{response: "no json in sight"}
	a := New(store.NewMemoryStore(), gen, Options{})
	if _, err := a.TrendingIdeas(context.Background()); err == nil {
		t.Fatalf("unparseable trending response must error, not fall back")
	}
}

func TestTrendingIdeasFiltersInvalid(t *testing.T) {
	gen := &stubGenerator{response: `[{"title":"Good","description":"Keeps"},{"title":"","description":"No title"}]`}
	a := New(store.NewMemoryStore(), gen, Options{})
	ideas, err := a.TrendingIdeas(context.Background())
	if err != nil {
		t.Fatalf("TrendingIdeas: %v", err)
	}
	if len(ideas) != 1 || ideas[0].Title != "Good" {
		t.Fatalf("invalid ideas not filtered: %+v", ideas)
	}
}

func TestTrendingThreadsScoring(t *testing.T) {
	gen := &stubGenerator{response: `[{"title":"x"}]`}
	a, _ := newTestApp(t, gen)

	res, err := a.GenerateContent(context.Background(), "u1", GenerateRequest{AppID: "idea-generator", Message: "x"})
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	if _, err := a.SaveIdea("u1", res.ThreadID, "0", ""); err != nil {
		t.Fatalf("SaveIdea: %v", err)
	}
	if _, err := a.ShareIdea("u1", res.ThreadID, "0", nil); err != nil {
		t.Fatalf("ShareIdea: %v", err)
	}
	gen.response = `{"content":"refined"}`
	if _, err := a.RefineContent(context.Background(), "u1", res.ThreadID, res.Results[0].ID(), "market-analysis"); err != nil {
		t.Fatalf("RefineContent: %v", err)
	}

	trending, err := a.TrendingThreads("idea-generator")
	if err != nil {
		t.Fatalf("TrendingThreads: %v", err)
	}
	if len(trending) != 1 {
		t.Fatalf("expected 1 trending thread, got %d", len(trending))
	}
	// 1 save x3 + 1 share x5 + 1 refinement x2
	if trending[0].Score != 10 {
		t.Fatalf("unexpected score: %d", trending[0].Score)
	}

	other, err := a.TrendingThreads("other-app")
	if err != nil {
		t.Fatalf("TrendingThreads other: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("app type filter broken: %+v", other)
	}
}

func TestTrendingScore(t *testing.T) {
	m := domain.ThreadMetadata{
		RefinementHistory: make([]domain.RefinementEntry, 2),
		UserActions: domain.UserActions{
			Saved:  make([]domain.SavedAction, 3),
			Shared: make([]domain.SharedAction, 1),
		},
	}
	if got := trendingScore(m); got != 3*3+1*5+2*2 {
		t.Fatalf("unexpected score: %d", got)
	}
}
