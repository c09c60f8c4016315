package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ideaforge/internal/prompt"
	"ideaforge/pkg/ai"
	"ideaforge/pkg/domain"
)

// ChatResult is the response for one card chat turn.
type ChatResult struct {
	ThreadID    string    `json:"threadId"`
	CardID      string    `json:"cardId"`
	UserMessage string    `json:"userMessage"`
	AIResponse  string    `json:"aiResponse"`
	Timestamp   time.Time `json:"timestamp"`
}

// ChatWithCard runs one chat turn scoped to a card: prior messages for the
// same card form the history, the card's details and action tallies form the
// system context, and the resulting user/assistant pair is persisted
// atomically.
func (a *App) ChatWithCard(ctx context.Context, userID, threadID, cardID, message string) (ChatResult, error) {
	if strings.TrimSpace(message) == "" {
		return ChatResult{}, ErrInputRequired
	}
	thread, ok, err := a.store.GetThreadByOwner(threadID, userID)
	if err != nil {
		return ChatResult{}, fmt.Errorf("lookup thread: %w", err)
	}
	if !ok {
		return ChatResult{}, ErrThreadNotFound
	}
	if thread.Metadata.GeneratedContent.Empty() {
		return ChatResult{}, ErrNoGeneratedContent
	}
	card, ok := findCardByID(thread.Metadata.GeneratedContent, cardID)
	if !ok {
		return ChatResult{}, fmt.Errorf("%w: %s", ErrCardNotFound, cardID)
	}

	history, err := a.store.ListCardMessages(threadID, cardID)
	if err != nil {
		return ChatResult{}, fmt.Errorf("load chat history: %w", err)
	}

	messages := make([]ai.ChatMessage, 0, len(history)+2)
	messages = append(messages, ai.ChatMessage{
		Role:    ai.RoleSystem,
		Content: prompt.ChatSystem(buildCardContext(card, thread.Metadata)),
	})
	for _, msg := range history {
		role := ai.RoleAssistant
		if msg.Sender == domain.SenderUser {
			role = ai.RoleUser
		}
		messages = append(messages, ai.ChatMessage{Role: role, Content: msg.Content})
	}
	messages = append(messages, ai.ChatMessage{Role: ai.RoleUser, Content: message})

	reply, err := a.gen.Complete(ctx, messages)
	if err != nil {
		return ChatResult{}, fmt.Errorf("chat completion: %w", err)
	}

	now := time.Now().UTC()
	userMsg := domain.Message{
		ID:        newID(),
		ThreadID:  threadID,
		CardID:    cardID,
		Sender:    domain.SenderUser,
		Content:   message,
		CreatedAt: now,
	}
	assistantMsg := domain.Message{
		ID:        newID(),
		ThreadID:  threadID,
		CardID:    cardID,
		Sender:    domain.SenderAssistant,
		Content:   reply,
		CreatedAt: now.Add(time.Millisecond),
	}
	if err := a.store.AppendMessagePair(userMsg, assistantMsg); err != nil {
		return ChatResult{}, fmt.Errorf("persist chat turn: %w", err)
	}

	return ChatResult{
		ThreadID:    threadID,
		CardID:      cardID,
		UserMessage: userMsg.Content,
		AIResponse:  assistantMsg.Content,
		Timestamp:   assistantMsg.CreatedAt,
	}, nil
}

// ChatEntry is one chat history item.
type ChatEntry struct {
	Sender    domain.MessageSender `json:"sender"`
	Content   string               `json:"content"`
	CreatedAt time.Time            `json:"createdAt"`
}

// GetChatHistory returns the card-scoped conversation in chronological order.
func (a *App) GetChatHistory(userID, threadID, cardID string) ([]ChatEntry, error) {
	_, ok, err := a.store.GetThreadByOwner(threadID, userID)
	if err != nil {
		return nil, fmt.Errorf("lookup thread: %w", err)
	}
	if !ok {
		return nil, ErrThreadNotFound
	}
	messages, err := a.store.ListCardMessages(threadID, cardID)
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	out := make([]ChatEntry, 0, len(messages))
	for _, msg := range messages {
		out = append(out, ChatEntry{Sender: msg.Sender, Content: msg.Content, CreatedAt: msg.CreatedAt})
	}
	return out, nil
}

// buildCardContext summarizes a card and its accumulated history for the
// chat system prompt.
func buildCardContext(card domain.Card, metadata domain.ThreadMetadata) string {
	var b strings.Builder
	b.WriteString("Card Details:\n")
	fmt.Fprintf(&b, "Title: %s\n", card.Title())
	desc := card.Description()
	if desc == "" {
		desc = "No description"
	}
	fmt.Fprintf(&b, "Description: %s\n", desc)
	if score := card.Score(); score > 0 {
		fmt.Fprintf(&b, "Score: %g\n", score)
	} else {
		b.WriteString("Score: Not scored\n")
	}

	var n int
	for _, r := range metadata.RefinementHistory {
		if r.CardID != card.ID() {
			continue
		}
		if n == 0 {
			b.WriteString("\nRefinement History:\n")
		}
		n++
		fmt.Fprintf(&b, "%d. %s: %s\n", n, r.Aspect, refinedSummary(r.RefinedContent))
	}

	saved, shared := 0, 0
	for _, s := range metadata.UserActions.Saved {
		if s.IdeaID == card.ID() {
			saved++
		}
	}
	for _, s := range metadata.UserActions.Shared {
		if s.IdeaID == card.ID() {
			shared++
		}
	}
	if saved > 0 {
		fmt.Fprintf(&b, "\nUser has saved this idea %d time(s).\n", saved)
	}
	if shared > 0 {
		fmt.Fprintf(&b, "\nUser has shared this idea %d time(s).\n", shared)
	}
	return b.String()
}

func refinedSummary(refined any) string {
	switch v := refined.(type) {
	case map[string]any:
		if content, ok := v["content"].(string); ok && content != "" {
			return content
		}
	case string:
		if v != "" {
			return v
		}
	}
	return "No content"
}
