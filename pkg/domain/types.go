package domain

import (
	"encoding/json"
	"time"
)

type AssistantCategory string

const (
	CategoryIdea     AssistantCategory = "idea"
	CategoryStrategy AssistantCategory = "strategy"
	CategoryContent  AssistantCategory = "content"
)

type MessageSender string

const (
	SenderUser      MessageSender = "user"
	SenderAssistant MessageSender = "assistant"
)

type Platform string

const (
	PlatformWeb    Platform = "web"
	PlatformMobile Platform = "mobile"
)

// User is either authenticated (email/password) or anonymous (device
// fingerprint). An anonymous row is converted in place on registration so the
// user keeps its ID and therefore all owned threads.
type User struct {
	ID              string     `json:"id"`
	Name            string     `json:"name,omitempty"`
	Email           string     `json:"email,omitempty"`
	PasswordHash    string     `json:"-"`
	IsAnonymous     bool       `json:"isAnonymous"`
	DeviceID        string     `json:"-"`
	Platform        Platform   `json:"-"`
	AuthenticatedAt *time.Time `json:"authenticatedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// PromptConfig holds the per-assistant prompt templates. Placeholders use
// {{key}} syntax and are resolved against the merged generation parameters.
type PromptConfig struct {
	SystemTemplate           string            `json:"systemTemplate"`
	UserTemplate             string            `json:"userTemplate"`
	RefinementTemplates      map[string]string `json:"refinementTemplates,omitempty"`
	ParameterInferencePrompt string            `json:"parameterInferencePrompt,omitempty"`
}

// OutputFormat declares the shape the assistant expects the model to return.
// It is only consulted as a fallback signal when parsing the model output
// fails.
type OutputFormat struct {
	Type      string            `json:"type"` // "array" or "object"
	Structure map[string]string `json:"structure,omitempty"`
}

// AppSettings carries assistant-level generation defaults and the refinement
// aspects the assistant exposes to clients.
type AppSettings struct {
	DefaultCount      int            `json:"defaultCount,omitempty"`
	DefaultIndustry   string         `json:"defaultIndustry,omitempty"`
	DefaultComplexity string         `json:"defaultComplexity,omitempty"`
	DefaultFormat     string         `json:"defaultFormat,omitempty"`
	DefaultOptions    map[string]any `json:"defaultOptions,omitempty"`
	RefinementOptions []string       `json:"refinementOptions,omitempty"`
}

// Assistant is a named, configured generation behavior. An inactive assistant
// is not selectable for new generations; threads that reference it stay
// readable.
type Assistant struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Category     AssistantCategory `json:"category"`
	Description  string            `json:"description"`
	IsActive     bool              `json:"isActive"`
	AppType      string            `json:"appType"`
	PromptConfig PromptConfig      `json:"promptConfig"`
	OutputFormat OutputFormat      `json:"outputFormat"`
	AppSettings  AppSettings       `json:"appSettings"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// Card is one addressable unit of generated content. The model decides most
// of its fields (title, description, ...); the engine stamps "id" and, when
// absent, "score".
type Card map[string]any

// ID returns the engine-assigned card identifier, if any.
func (c Card) ID() string {
	id, _ := c["id"].(string)
	return id
}

// Score returns the card score or 0 when missing or non-numeric.
func (c Card) Score() float64 {
	switch v := c["score"].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	}
	return 0
}

// Title returns the card title or a fallback.
func (c Card) Title() string {
	if t, ok := c["title"].(string); ok && t != "" {
		return t
	}
	return "Untitled"
}

// Description returns the card description, falling back to its raw content.
func (c Card) Description() string {
	if d, ok := c["description"].(string); ok && d != "" {
		return d
	}
	if d, ok := c["content"].(string); ok {
		return d
	}
	return ""
}

// Clone returns a shallow copy so action snapshots do not alias the live
// card map inside the metadata document.
func (c Card) Clone() Card {
	out := make(Card, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// GeneratedContent is the "Card or []Card" union stored in thread metadata.
// The stored JSON keeps the shape the normalizer produced; the response layer
// wraps single objects into one-element arrays.
type GeneratedContent struct {
	Cards   []Card
	IsArray bool
}

// Empty reports whether no content was ever generated.
func (g GeneratedContent) Empty() bool {
	return len(g.Cards) == 0
}

// AsResults always returns an array view for API responses.
func (g GeneratedContent) AsResults() []Card {
	return g.Cards
}

// MarshalJSON preserves the original single-object vs array shape.
func (g GeneratedContent) MarshalJSON() ([]byte, error) {
	if !g.IsArray {
		if len(g.Cards) == 0 {
			return []byte("null"), nil
		}
		return json.Marshal(g.Cards[0])
	}
	return json.Marshal(g.Cards)
}

// UnmarshalJSON accepts either a single card object or an array of cards.
func (g *GeneratedContent) UnmarshalJSON(data []byte) error {
	var cards []Card
	if err := json.Unmarshal(data, &cards); err == nil {
		g.Cards = cards
		g.IsArray = true
		return nil
	}
	var card Card
	if err := json.Unmarshal(data, &card); err != nil {
		return err
	}
	g.IsArray = false
	if card == nil {
		g.Cards = nil
		return nil
	}
	g.Cards = []Card{card}
	return nil
}

// RefinementEntry records one refinement run against a card. Entries are
// append-only.
type RefinementEntry struct {
	CardID         string    `json:"cardId"`
	Aspect         string    `json:"aspect"`
	RefinedContent any       `json:"refinedContent"`
	Timestamp      time.Time `json:"timestamp"`
}

// SavedAction records a user saving an idea. The idea id is the stringified
// array index for array-shaped content (legacy client contract).
type SavedAction struct {
	IdeaID      string    `json:"ideaId"`
	CustomTitle string    `json:"customTitle,omitempty"`
	SavedAt     time.Time `json:"savedAt"`
	Content     Card      `json:"content"`
}

// SharedAction records a user sharing an idea. Share IDs embed a millisecond
// timestamp for collision resistance; share links are obscure, not secret.
type SharedAction struct {
	IdeaID    string         `json:"ideaId"`
	ShareID   string         `json:"shareId"`
	ShareLink string         `json:"shareLink"`
	SharedAt  time.Time      `json:"sharedAt"`
	Settings  map[string]any `json:"settings,omitempty"`
	Content   Card           `json:"content"`
}

type UserActions struct {
	Saved  []SavedAction  `json:"saved"`
	Shared []SharedAction `json:"shared"`
}

// ThreadMetadata is the per-thread generation document. GeneratedContent is
// written exactly once at thread creation; the history arrays only grow.
type ThreadMetadata struct {
	AppType           string            `json:"appType"`
	UserInput         string            `json:"userInput"`
	ResolvedParams    map[string]any    `json:"resolvedParams,omitempty"`
	GeneratedContent  GeneratedContent  `json:"generatedContent"`
	RefinementHistory []RefinementEntry `json:"refinementHistory"`
	UserActions       UserActions       `json:"userActions"`
	CreatedAt         time.Time         `json:"createdAt"`
}

// Thread is one generation session and its entire history, owned by one user.
type Thread struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	AssistantID string         `json:"assistantId"`
	Title       string         `json:"title"`
	Metadata    ThreadMetadata `json:"metadata"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Message is one chat turn half. CardID is empty for thread-level chat and
// set for card-scoped chat. Messages are never mutated after insert.
type Message struct {
	ID        string        `json:"id"`
	ThreadID  string        `json:"threadId"`
	CardID    string        `json:"cardId,omitempty"`
	Sender    MessageSender `json:"sender"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"createdAt"`
}
