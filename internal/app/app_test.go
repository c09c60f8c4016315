package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ideaforge/pkg/ai"
	"ideaforge/pkg/auth"
	"ideaforge/pkg/domain"
	"ideaforge/pkg/store"
)

type stubGenerator struct {
	response string
	err      error
	last     []ai.ChatMessage
	calls    int
}

func (s *stubGenerator) Complete(_ context.Context, messages []ai.ChatMessage) (string, error) {
	s.calls++
	s.last = messages
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func testAssistant() domain.Assistant {
	now := time.Now().UTC()
	return domain.Assistant{
		ID:       "a1",
		Name:     "Idea Generator",
		Category: domain.CategoryIdea,
		IsActive: true,
		AppType:  "idea-generator",
		PromptConfig: domain.PromptConfig{
			SystemTemplate: "Generate {{count}} business ideas for the {{industry}} industry.",
			UserTemplate:   "Topic: {{input}}",
			RefinementTemplates: map[string]string{
				"market-analysis": "You are a market analyst.",
			},
		},
		OutputFormat: domain.OutputFormat{Type: "array"},
		AppSettings: domain.AppSettings{
			DefaultCount:      3,
			DefaultIndustry:   "general",
			RefinementOptions: []string{"market-analysis"},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newTestApp(t *testing.T, gen ai.ChatGenerator) (*App, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	if err := st.SaveAssistant(testAssistant()); err != nil {
		t.Fatalf("seed assistant: %v", err)
	}
	a := New(st, gen, Options{
		Tokens: auth.NewTokenIssuer("test-secret", "ideaforge", "ideaforge-api", time.Hour),
	})
	return a, st
}

func TestGenerateContentCreatesThread(t *testing.T) {
	gen := &stubGenerator{response: `[{"title":"Meal kits","description":"Weekly boxes","score":8.4},{"title":"Pet tech"}]`}
	a, st := newTestApp(t, gen)

	res, err := a.GenerateContent(context.Background(), "u1", GenerateRequest{
		AppID:   "idea-generator",
		Message: "food startups",
	})
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	if res.AppType != "idea-generator" {
		t.Fatalf("unexpected app type: %q", res.AppType)
	}
	if len(res.Results) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(res.Results))
	}
	for i, card := range res.Results {
		if card.ID() == "" {
			t.Fatalf("card %d has no id", i)
		}
		if card.Score() < 7.0 || card.Score() > 9.5 {
			t.Fatalf("card %d score out of range: %v", i, card.Score())
		}
	}
	if res.Results[0].Score() != 8.4 {
		t.Fatalf("model-provided score must be kept, got %v", res.Results[0].Score())
	}

	thread, ok, err := st.GetThreadByOwner(res.ThreadID, "u1")
	if err != nil || !ok {
		t.Fatalf("thread not persisted: ok=%v err=%v", ok, err)
	}
	if thread.Metadata.UserInput != "food startups" {
		t.Fatalf("user input not recorded: %q", thread.Metadata.UserInput)
	}
	if !thread.Metadata.GeneratedContent.IsArray {
		t.Fatalf("array shape not preserved")
	}
	if !strings.HasPrefix(thread.Title, "Ideas for ") {
		t.Fatalf("unexpected title: %q", thread.Title)
	}
}

func TestGenerateContentBareStringArray(t *testing.T) {
	gen := &stubGenerator{response: `["Dog walking service","Mobile car wash"]`}
	a, st := newTestApp(t, gen)

	res, err := a.GenerateContent(context.Background(), "u1", GenerateRequest{
		AppID:   "idea-generator",
		Message: "neighborhood services",
	})
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	if len(res.Results) != 2 {
		t.Fatalf("bare strings must survive as cards, got %d", len(res.Results))
	}
	if got := res.Results[0]["content"]; got != "Dog walking service" {
		t.Fatalf("content = %v", got)
	}
	for i, card := range res.Results {
		if card.ID() == "" {
			t.Fatalf("card %d has no id", i)
		}
		if card.Score() < 7.0 || card.Score() > 9.5 {
			t.Fatalf("card %d score out of range: %v", i, card.Score())
		}
	}

	thread, ok, err := st.GetThreadByOwner(res.ThreadID, "u1")
	if err != nil || !ok {
		t.Fatalf("thread not persisted: ok=%v err=%v", ok, err)
	}
	if thread.Metadata.GeneratedContent.Empty() {
		t.Fatalf("persisted content must not be empty")
	}

	// The cards stay addressable by the follow-up operations.
	if _, err := a.SaveIdea("u1", res.ThreadID, "1", ""); err != nil {
		t.Fatalf("SaveIdea on bare-string card: %v", err)
	}
}

func TestGenerateContentUnknownAssistant(t *testing.T) {
	a, _ := newTestApp(t, &stubGenerator{response: "[]"})
	_, err := a.GenerateContent(context.Background(), "u1", GenerateRequest{AppID: "nope", Message: "x"})
	if !errors.Is(err, ErrAssistantNotFound) {
		t.Fatalf("expected ErrAssistantNotFound, got %v", err)
	}
}

func TestGenerateContentUnparseableFallsBack(t *testing.T) {
	gen := &stubGenerator{response: "Sorry, here is some prose instead."}
	a, _ := newTestApp(t, gen)

	res, err := a.GenerateContent(context.Background(), "u1", GenerateRequest{AppID: "idea-generator", Message: "x"})
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	if len(res.Results) != 1 {
		t.Fatalf("expected single fallback card, got %d", len(res.Results))
	}
	if res.Results[0]["content"] != gen.response {
		t.Fatalf("fallback card must wrap raw text")
	}
	if res.Results[0].ID() == "" {
		t.Fatalf("fallback card must still get an id")
	}
}

func TestRefineContentAppendsHistory(t *testing.T) {
	gen := &stubGenerator{response: `[{"title":"Meal kits"}]`}
	a, st := newTestApp(t, gen)

	res, err := a.GenerateContent(context.Background(), "u1", GenerateRequest{AppID: "idea-generator", Message: "food"})
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	cardID := res.Results[0].ID()

	gen.response = `{"content":"Target urban professionals first."}`
	refined, err := a.RefineContent(context.Background(), "u1", res.ThreadID, cardID, "market-analysis")
	if err != nil {
		t.Fatalf("RefineContent: %v", err)
	}
	if refined.Aspect != "market-analysis" {
		t.Fatalf("unexpected aspect: %q", refined.Aspect)
	}

	thread, _, _ := st.GetThreadByOwner(res.ThreadID, "u1")
	if len(thread.Metadata.RefinementHistory) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(thread.Metadata.RefinementHistory))
	}
	entry := thread.Metadata.RefinementHistory[0]
	if entry.CardID != cardID || entry.Aspect != "market-analysis" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestRefineContentUnknownCard(t *testing.T) {
	gen := &stubGenerator{response: `[{"title":"x"}]`}
	a, _ := newTestApp(t, gen)

	res, err := a.GenerateContent(context.Background(), "u1", GenerateRequest{AppID: "idea-generator", Message: "x"})
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	_, err = a.RefineContent(context.Background(), "u1", res.ThreadID, "missing-card", "market-analysis")
	if !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound, got %v", err)
	}
}

func TestRefineContentWrongOwner(t *testing.T) {
	gen := &stubGenerator{response: `[{"title":"x"}]`}
	a, _ := newTestApp(t, gen)

	res, err := a.GenerateContent(context.Background(), "u1", GenerateRequest{AppID: "idea-generator", Message: "x"})
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	_, err = a.RefineContent(context.Background(), "u2", res.ThreadID, res.Results[0].ID(), "market-analysis")
	if !errors.Is(err, ErrThreadNotFound) {
		t.Fatalf("expected ErrThreadNotFound for non-owner, got %v", err)
	}
}

func TestSaveIdeaByIndex(t *testing.T) {
	gen := &stubGenerator{response: `[{"title":"First"},{"title":"Second"}]`}
	a, st := newTestApp(t, gen)

	res, err := a.GenerateContent(context.Background(), "u1", GenerateRequest{AppID: "idea-generator", Message: "x"})
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}

	saved, err := a.SaveIdea("u1", res.ThreadID, "1", "My pick")
	if err != nil {
		t.Fatalf("SaveIdea: %v", err)
	}
	if saved.Content["title"] != "Second" {
		t.Fatalf("index addressing broken: %v", saved.Content["title"])
	}
	if saved.CustomTitle != "My pick" {
		t.Fatalf("custom title lost")
	}

	thread, _, _ := st.GetThreadByOwner(res.ThreadID, "u1")
	if len(thread.Metadata.UserActions.Saved) != 1 {
		t.Fatalf("save action not appended")
	}

	if _, err := a.SaveIdea("u1", res.ThreadID, "5", ""); !errors.Is(err, ErrIdeaNotFound) {
		t.Fatalf("expected ErrIdeaNotFound for out-of-range index, got %v", err)
	}
	if _, err := a.SaveIdea("u1", res.ThreadID, "not-a-number", ""); !errors.Is(err, ErrIdeaNotFound) {
		t.Fatalf("expected ErrIdeaNotFound for non-numeric id, got %v", err)
	}
}

func TestShareIdeaMintsShareID(t *testing.T) {
	gen := &stubGenerator{response: `[{"title":"First"}]`}
	a, _ := newTestApp(t, gen)

	res, err := a.GenerateContent(context.Background(), "u1", GenerateRequest{AppID: "idea-generator", Message: "x"})
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}

	shared, err := a.ShareIdea("u1", res.ThreadID, "0", map[string]any{"visibility": "public"})
	if err != nil {
		t.Fatalf("ShareIdea: %v", err)
	}
	if !strings.HasPrefix(shared.ShareID, res.ThreadID+"-0-") {
		t.Fatalf("unexpected share id: %q", shared.ShareID)
	}
	if shared.ShareLink != "/shared/"+shared.ShareID {
		t.Fatalf("unexpected share link: %q", shared.ShareLink)
	}

	view, err := a.GetSharedIdea(shared.ShareID)
	if err != nil {
		t.Fatalf("GetSharedIdea: %v", err)
	}
	if view.Content["title"] != "First" {
		t.Fatalf("shared content mismatch: %v", view.Content["title"])
	}

	if _, err := a.GetSharedIdea("bogus"); !errors.Is(err, ErrShareNotFound) {
		t.Fatalf("expected ErrShareNotFound, got %v", err)
	}
}

func TestChatWithCard(t *testing.T) {
	gen := &stubGenerator{response: `[{"title":"Meal kits","description":"Weekly boxes"}]`}
	a, st := newTestApp(t, gen)

	res, err := a.GenerateContent(context.Background(), "u1", GenerateRequest{AppID: "idea-generator", Message: "food"})
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	cardID := res.Results[0].ID()

	gen.response = "Start with a two-city pilot."
	chat, err := a.ChatWithCard(context.Background(), "u1", res.ThreadID, cardID, "How do I launch?")
	if err != nil {
		t.Fatalf("ChatWithCard: %v", err)
	}
	if chat.AIResponse != "Start with a two-city pilot." {
		t.Fatalf("unexpected reply: %q", chat.AIResponse)
	}

	// System prompt must carry the card context.
	if gen.last[0].Role != ai.RoleSystem || !strings.Contains(gen.last[0].Content, "Meal kits") {
		t.Fatalf("system prompt missing card context: %q", gen.last[0].Content)
	}

	msgs, err := st.ListCardMessages(res.ThreadID, cardID)
	if err != nil {
		t.Fatalf("ListCardMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected persisted pair, got %d messages", len(msgs))
	}
	if msgs[0].Sender != domain.SenderUser || msgs[1].Sender != domain.SenderAssistant {
		t.Fatalf("unexpected senders: %v %v", msgs[0].Sender, msgs[1].Sender)
	}

	// Second turn includes the first pair as history.
	gen.response = "Expand once retention holds."
	if _, err := a.ChatWithCard(context.Background(), "u1", res.ThreadID, cardID, "And after that?"); err != nil {
		t.Fatalf("ChatWithCard second turn: %v", err)
	}
	if len(gen.last) != 4 {
		t.Fatalf("expected system+2 history+new message, got %d", len(gen.last))
	}

	history, err := a.GetChatHistory("u1", res.ThreadID, cardID)
	if err != nil {
		t.Fatalf("GetChatHistory: %v", err)
	}
	if len(history) != 4 {
		t.Fatalf("expected 4 history entries, got %d", len(history))
	}
}

func TestChatFailedCompletionPersistsNothing(t *testing.T) {
	gen := &stubGenerator{response: `[{"title":"x"}]`}
	a, st := newTestApp(t, gen)

	res, err := a.GenerateContent(context.Background(), "u1", GenerateRequest{AppID: "idea-generator", Message: "x"})
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	cardID := res.Results[0].ID()

	gen.err = errors.New("provider down")
	if _, err := a.ChatWithCard(context.Background(), "u1", res.ThreadID, cardID, "hello"); err == nil {
		t.Fatalf("expected error from failed completion")
	}
	msgs, _ := st.ListCardMessages(res.ThreadID, cardID)
	if len(msgs) != 0 {
		t.Fatalf("failed turn must persist no messages, got %d", len(msgs))
	}
}

func TestListAndDeleteThreads(t *testing.T) {
	gen := &stubGenerator{response: `[{"title":"x"}]`}
	a, _ := newTestApp(t, gen)

	res1, err := a.GenerateContent(context.Background(), "u1", GenerateRequest{AppID: "idea-generator", Message: "one"})
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	if _, err := a.GenerateContent(context.Background(), "u1", GenerateRequest{AppID: "idea-generator", Message: "two"}); err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	if _, err := a.GenerateContent(context.Background(), "u2", GenerateRequest{AppID: "idea-generator", Message: "other"}); err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}

	threads, err := a.ListThreads("u1")
	if err != nil {
		t.Fatalf("ListThreads: %v", err)
	}
	if len(threads) != 2 {
		t.Fatalf("expected 2 threads for u1, got %d", len(threads))
	}

	if err := a.DeleteThread("u2", res1.ThreadID); !errors.Is(err, ErrThreadNotFound) {
		t.Fatalf("non-owner delete must fail, got %v", err)
	}
	if err := a.DeleteThread("u1", res1.ThreadID); err != nil {
		t.Fatalf("DeleteThread: %v", err)
	}
	threads, _ = a.ListThreads("u1")
	if len(threads) != 1 {
		t.Fatalf("expected 1 thread after delete, got %d", len(threads))
	}
}

func TestListAssistantsHidesPromptConfig(t *testing.T) {
	a, _ := newTestApp(t, &stubGenerator{})
	views, err := a.ListAssistants()
	if err != nil {
		t.Fatalf("ListAssistants: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 assistant, got %d", len(views))
	}
	if views[0].AppType != "idea-generator" {
		t.Fatalf("unexpected app type: %q", views[0].AppType)
	}
	if len(views[0].RefinementOptions) != 1 {
		t.Fatalf("refinement options missing")
	}
}
