// Package app implements the content generation engine: assistant-driven
// generation into threads, refinement, save/share actions, and card chat.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"ideaforge/internal/prompt"
	"ideaforge/pkg/ai"
	"ideaforge/pkg/auth"
	"ideaforge/pkg/domain"
	"ideaforge/pkg/store"
)

// Options carries optional collaborators. A nil Inferrer disables AI
// parameter inference; a nil Cache disables trending caching.
type Options struct {
	Inferrer     ai.StructuredCompleter
	Cache        *redis.Client
	ShareBaseURL string
	TrendingTTL  time.Duration
	Tokens       *auth.TokenIssuer
}

// App wires the store, the generation provider, and the prompt layer into
// the engine operations the HTTP surface exposes.
type App struct {
	store       store.Store
	gen         ai.ChatGenerator
	inferrer    ai.StructuredCompleter
	cache       *redis.Client
	shareBase   string
	trendingTTL time.Duration
	tokens      *auth.TokenIssuer
}

func New(st store.Store, gen ai.ChatGenerator, opts Options) *App {
	ttl := opts.TrendingTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &App{
		store:       st,
		gen:         gen,
		inferrer:    opts.Inferrer,
		cache:       opts.Cache,
		shareBase:   opts.ShareBaseURL,
		trendingTTL: ttl,
		tokens:      opts.Tokens,
	}
}

// GenerateRequest is one generation call. AppID selects the assistant by id
// or appType; Overrides win over every other parameter source.
type GenerateRequest struct {
	AppID       string
	Message     string
	Overrides   map[string]any
	UserContext map[string]any
}

// GenerateResult is the response shape for a new generation. Results is
// always an array even when the assistant produced a single object.
type GenerateResult struct {
	ThreadID          string        `json:"threadId"`
	AppType           string        `json:"appType"`
	Results           []domain.Card `json:"results"`
	RefinementOptions []string      `json:"refinementOptions"`
}

// GenerateContent runs the full pipeline: resolve the assistant, merge
// parameters, render and send the prompt, normalize the response, stamp card
// ids, and persist everything as a new thread.
func (a *App) GenerateContent(ctx context.Context, userID string, req GenerateRequest) (GenerateResult, error) {
	if req.Message == "" {
		return GenerateResult{}, ErrInputRequired
	}
	assistant, ok, err := a.store.GetActiveAssistant(req.AppID)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("lookup assistant: %w", err)
	}
	if !ok {
		return GenerateResult{}, fmt.Errorf("%w: %s", ErrAssistantNotFound, req.AppID)
	}

	params := a.resolveParams(ctx, assistant, req.Message, req.UserContext, req.Overrides)

	p, err := prompt.Render(assistant.PromptConfig, req.Message, assistant.AppSettings, params)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("render prompt: %w", err)
	}

	raw, err := a.gen.Complete(ctx, []ai.ChatMessage{
		{Role: ai.RoleSystem, Content: p.System},
		{Role: ai.RoleUser, Content: p.User},
	})
	if err != nil {
		return GenerateResult{}, fmt.Errorf("generate content: %w", err)
	}

	parsed := ai.ParseStructured(raw, assistant.OutputFormat.Type)
	content := toGeneratedContent(parsed)
	assignCardIDs(&content)

	now := time.Now().UTC()
	thread := domain.Thread{
		ID:          newID(),
		UserID:      userID,
		AssistantID: assistant.ID,
		Title:       deriveTitle(req.Message, assistant.AppType),
		Metadata: domain.ThreadMetadata{
			AppType:           assistant.AppType,
			UserInput:         req.Message,
			ResolvedParams:    params,
			GeneratedContent:  content,
			RefinementHistory: []domain.RefinementEntry{},
			UserActions:       domain.UserActions{Saved: []domain.SavedAction{}, Shared: []domain.SharedAction{}},
			CreatedAt:         now,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.CreateThread(thread); err != nil {
		return GenerateResult{}, fmt.Errorf("create thread: %w", err)
	}

	slog.Info("content generated",
		"thread_id", thread.ID, "app_type", assistant.AppType, "cards", len(content.Cards))

	return GenerateResult{
		ThreadID:          thread.ID,
		AppType:           assistant.AppType,
		Results:           content.AsResults(),
		RefinementOptions: assistant.AppSettings.RefinementOptions,
	}, nil
}

// RefineResult is the response for a refinement run.
type RefineResult struct {
	ThreadID        string      `json:"threadId"`
	Aspect          string      `json:"aspect"`
	RefinedContent  any         `json:"refinedContent"`
	OriginalContent domain.Card `json:"originalContent"`
}

// RefineContent refines one card along an aspect and appends the result to
// the thread's refinement history. Cards are addressed by engine-assigned id.
func (a *App) RefineContent(ctx context.Context, userID, threadID, cardID, aspect string) (RefineResult, error) {
	thread, ok, err := a.store.GetThreadByOwner(threadID, userID)
	if err != nil {
		return RefineResult{}, fmt.Errorf("lookup thread: %w", err)
	}
	if !ok {
		return RefineResult{}, ErrThreadNotFound
	}
	if thread.Metadata.GeneratedContent.Empty() {
		return RefineResult{}, ErrNoGeneratedContent
	}
	card, ok := findCardByID(thread.Metadata.GeneratedContent, cardID)
	if !ok {
		return RefineResult{}, fmt.Errorf("%w: %s", ErrCardNotFound, cardID)
	}

	assistant, ok, err := a.store.GetAssistant(thread.AssistantID)
	if err != nil {
		return RefineResult{}, fmt.Errorf("lookup assistant: %w", err)
	}
	if !ok {
		return RefineResult{}, ErrAssistantNotFound
	}

	p, err := prompt.RenderRefinement(assistant.PromptConfig, aspect, card)
	if err != nil {
		return RefineResult{}, err
	}
	raw, err := a.gen.Complete(ctx, []ai.ChatMessage{
		{Role: ai.RoleSystem, Content: p.System},
		{Role: ai.RoleUser, Content: p.User},
	})
	if err != nil {
		return RefineResult{}, fmt.Errorf("refine content: %w", err)
	}
	refined := ai.ParseStructured(raw, ai.FormatObject)

	entry := domain.RefinementEntry{
		CardID:         cardID,
		Aspect:         aspect,
		RefinedContent: refined,
		Timestamp:      time.Now().UTC(),
	}
	err = a.store.UpdateThreadMetadata(threadID, func(m *domain.ThreadMetadata) error {
		m.RefinementHistory = append(m.RefinementHistory, entry)
		return nil
	})
	if err != nil {
		return RefineResult{}, fmt.Errorf("record refinement: %w", err)
	}

	return RefineResult{
		ThreadID:        threadID,
		Aspect:          aspect,
		RefinedContent:  refined,
		OriginalContent: card,
	}, nil
}

// SaveIdea records a save action against one idea of the thread. For
// array-shaped content the idea id is the stringified array index.
func (a *App) SaveIdea(userID, threadID, ideaID, customTitle string) (domain.SavedAction, error) {
	action := domain.SavedAction{
		IdeaID:      ideaID,
		CustomTitle: customTitle,
		SavedAt:     time.Now().UTC(),
	}
	err := a.updateOwnedThread(threadID, userID, func(m *domain.ThreadMetadata) error {
		idea, ok := findIdeaByIndex(m.GeneratedContent, ideaID)
		if !ok {
			return ErrIdeaNotFound
		}
		action.Content = idea.Clone()
		m.UserActions.Saved = append(m.UserActions.Saved, action)
		return nil
	})
	if err != nil {
		return domain.SavedAction{}, err
	}
	return action, nil
}

// ShareIdea records a share action and mints a share id and public link.
func (a *App) ShareIdea(userID, threadID, ideaID string, settings map[string]any) (domain.SharedAction, error) {
	shareID := fmt.Sprintf("%s-%s-%d", threadID, ideaID, time.Now().UnixMilli())
	action := domain.SharedAction{
		IdeaID:    ideaID,
		ShareID:   shareID,
		ShareLink: a.shareBase + "/shared/" + shareID,
		SharedAt:  time.Now().UTC(),
		Settings:  settings,
	}
	err := a.updateOwnedThread(threadID, userID, func(m *domain.ThreadMetadata) error {
		idea, ok := findIdeaByIndex(m.GeneratedContent, ideaID)
		if !ok {
			return ErrIdeaNotFound
		}
		action.Content = idea.Clone()
		m.UserActions.Shared = append(m.UserActions.Shared, action)
		return nil
	})
	if err != nil {
		return domain.SharedAction{}, err
	}
	return action, nil
}

// updateOwnedThread runs a metadata mutation after checking the thread has
// generated content and belongs to the caller.
func (a *App) updateOwnedThread(threadID, userID string, apply func(*domain.ThreadMetadata) error) error {
	thread, ok, err := a.store.GetThreadByOwner(threadID, userID)
	if err != nil {
		return fmt.Errorf("lookup thread: %w", err)
	}
	if !ok {
		return ErrThreadNotFound
	}
	if thread.Metadata.GeneratedContent.Empty() {
		return ErrNoGeneratedContent
	}
	if err := a.store.UpdateThreadMetadata(threadID, apply); err != nil {
		if err == store.ErrNotFound {
			return ErrThreadNotFound
		}
		return err
	}
	return nil
}

// ThreadView is the owner-facing read model for a single thread.
type ThreadView struct {
	ID        string                `json:"id"`
	Title     string                `json:"title"`
	AppType   string                `json:"appType"`
	Metadata  domain.ThreadMetadata `json:"metadata"`
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

func (a *App) GetThread(userID, threadID string) (ThreadView, error) {
	thread, ok, err := a.store.GetThreadByOwner(threadID, userID)
	if err != nil {
		return ThreadView{}, fmt.Errorf("lookup thread: %w", err)
	}
	if !ok {
		return ThreadView{}, ErrThreadNotFound
	}
	return ThreadView{
		ID:        thread.ID,
		Title:     thread.Title,
		AppType:   thread.Metadata.AppType,
		Metadata:  thread.Metadata,
		CreatedAt: thread.CreatedAt,
		UpdatedAt: thread.UpdatedAt,
	}, nil
}

// ThreadSummary is the list item for a user's thread history.
type ThreadSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	AppType   string    `json:"appType"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *App) ListThreads(userID string) ([]ThreadSummary, error) {
	threads, err := a.store.ListThreadsByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	out := make([]ThreadSummary, 0, len(threads))
	for _, t := range threads {
		out = append(out, ThreadSummary{
			ID:        t.ID,
			Title:     t.Title,
			AppType:   t.Metadata.AppType,
			CreatedAt: t.CreatedAt,
			UpdatedAt: t.UpdatedAt,
		})
	}
	return out, nil
}

func (a *App) DeleteThread(userID, threadID string) error {
	deleted, err := a.store.DeleteThread(threadID, userID)
	if err != nil {
		return fmt.Errorf("delete thread: %w", err)
	}
	if !deleted {
		return ErrThreadNotFound
	}
	return nil
}

// AssistantView is the public listing shape; prompt templates stay private.
type AssistantView struct {
	ID                string                   `json:"id"`
	Name              string                   `json:"name"`
	Category          domain.AssistantCategory `json:"category"`
	Description       string                   `json:"description"`
	AppType           string                   `json:"appType"`
	RefinementOptions []string                 `json:"refinementOptions"`
}

func (a *App) ListAssistants() ([]AssistantView, error) {
	assistants, err := a.store.ListActiveAssistants()
	if err != nil {
		return nil, fmt.Errorf("list assistants: %w", err)
	}
	out := make([]AssistantView, 0, len(assistants))
	for _, as := range assistants {
		out = append(out, AssistantView{
			ID:                as.ID,
			Name:              as.Name,
			Category:          as.Category,
			Description:       as.Description,
			AppType:           as.AppType,
			RefinementOptions: as.AppSettings.RefinementOptions,
		})
	}
	return out, nil
}

// SharedIdeaView is the public read model behind a share link.
type SharedIdeaView struct {
	ShareID  string      `json:"shareId"`
	Title    string      `json:"title"`
	AppType  string      `json:"appType"`
	Content  domain.Card `json:"content"`
	SharedAt time.Time   `json:"sharedAt"`
}

// GetSharedIdea resolves a share link without any authentication; share ids
// are obscure, not secret.
func (a *App) GetSharedIdea(shareID string) (SharedIdeaView, error) {
	thread, ok, err := a.store.FindThreadByShareID(shareID)
	if err != nil {
		return SharedIdeaView{}, fmt.Errorf("lookup share: %w", err)
	}
	if !ok {
		return SharedIdeaView{}, ErrShareNotFound
	}
	for _, shared := range thread.Metadata.UserActions.Shared {
		if shared.ShareID == shareID {
			return SharedIdeaView{
				ShareID:  shareID,
				Title:    thread.Title,
				AppType:  thread.Metadata.AppType,
				Content:  shared.Content,
				SharedAt: shared.SharedAt,
			}, nil
		}
	}
	return SharedIdeaView{}, ErrShareNotFound
}
