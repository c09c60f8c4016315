package app

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"ideaforge/pkg/domain"
)

func newID() string { return uuid.NewString() }

// toGeneratedContent converts a normalized model response into the stored
// card union, remembering whether the model produced an array or a single
// object. Bare array elements ("Dog walking service") become content-only
// cards so they stay addressable by the refine/save/share path.
func toGeneratedContent(parsed any) domain.GeneratedContent {
	switch v := parsed.(type) {
	case []any:
		cards := make([]domain.Card, 0, len(v))
		for _, item := range v {
			switch el := item.(type) {
			case map[string]any:
				cards = append(cards, domain.Card(el))
			case nil:
			default:
				cards = append(cards, domain.Card{"content": fmt.Sprint(el)})
			}
		}
		return domain.GeneratedContent{Cards: cards, IsArray: true}
	case map[string]any:
		return domain.GeneratedContent{Cards: []domain.Card{domain.Card(v)}, IsArray: false}
	default:
		return domain.GeneratedContent{}
	}
}

// assignCardIDs stamps every card with a fresh uuid and, when the model gave
// no usable score, a random score in [7.0, 9.5] rounded to one decimal. IDs
// are always overwritten so the engine, not the model, owns card identity.
func assignCardIDs(content *domain.GeneratedContent) {
	for _, card := range content.Cards {
		card["id"] = newID()
		if !hasScore(card) {
			card["score"] = randomScore()
		}
	}
}

// hasScore reports whether the model supplied a score worth keeping. Any
// present non-empty, non-zero value counts, even a string like "8.5"; it is
// passed through untouched rather than coerced.
func hasScore(card domain.Card) bool {
	v, ok := card["score"]
	if !ok || v == nil {
		return false
	}
	switch s := v.(type) {
	case float64:
		return s != 0
	case string:
		return strings.TrimSpace(s) != ""
	case bool:
		return s
	default:
		return true
	}
}

func randomScore() float64 {
	return math.Round((rand.Float64()*2.5+7.0)*10) / 10
}

// findCardByID locates a card by its engine-assigned id, scanning the array
// or matching the single object.
func findCardByID(content domain.GeneratedContent, cardID string) (domain.Card, bool) {
	for _, card := range content.Cards {
		if card.ID() == cardID {
			return card, true
		}
	}
	return nil, false
}

// findIdeaByIndex resolves a save/share idea id. Array-shaped content is
// addressed by stringified index; single-object content ignores the id and
// returns the object.
func findIdeaByIndex(content domain.GeneratedContent, ideaID string) (domain.Card, bool) {
	if content.Empty() {
		return nil, false
	}
	if !content.IsArray {
		return content.Cards[0], true
	}
	idx, err := strconv.Atoi(ideaID)
	if err != nil || idx < 0 || idx >= len(content.Cards) {
		return nil, false
	}
	return content.Cards[idx], true
}

const maxTitleLength = 100

// deriveTitle builds a human-readable thread title from the user's input.
func deriveTitle(input, appType string) string {
	var title string
	switch appType {
	case "idea-generator":
		title = "Ideas for " + input
	case "blog-writer":
		title = "Blog about " + input
	default:
		title = "Generated content for " + input
	}
	if runes := []rune(title); len(runes) > maxTitleLength {
		title = string(runes[:maxTitleLength]) + "..."
	}
	return title
}
