// Package prompt renders assistant prompt templates into the system and
// user messages sent to the generation provider.
package prompt

import (
	"fmt"
	"regexp"
	"strings"

	"ideaforge/pkg/domain"
)

// businessBoundary is appended to every system prompt to keep generation
// within the business advisory domain.
const businessBoundary = `

BUSINESS FOCUS BOUNDARY:
- ONLY provide business, entrepreneurship, startup, or commercial-related responses
- If asked about non-business topics (personal advice, entertainment, general knowledge, etc.), politely redirect to business context
- Example: "I focus on business solutions. Let me help you with business-related aspects of your question instead."
- Stay within: business strategy, marketing, finance, operations, management, entrepreneurship, startups, commerce
`

const refinementBoundary = `

BUSINESS FOCUS BOUNDARY:
- ONLY provide business, entrepreneurship, startup, or commercial-related insights
- Focus on: business strategy, marketing, finance, operations, management, entrepreneurship, startups, commerce
- If the content is not business-related, redirect to business applications or implications
`

var placeholderRe = regexp.MustCompile(`\{\{[a-zA-Z0-9_]+\}\}`)

// ConfigError marks an assistant whose stored prompt configuration cannot
// produce a prompt, which is an operator problem rather than a user one.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string { return e.msg }

// Prompt is a rendered system/user message pair.
type Prompt struct {
	System string
	User   string
}

// Render substitutes resolved parameters into the assistant's templates.
// Every {{key}} in the templates is replaced from params ({{input}} comes
// from userInput); placeholders with no value are blanked so no raw
// template syntax ever reaches the model.
func Render(cfg domain.PromptConfig, userInput string, settings domain.AppSettings, params map[string]any) (Prompt, error) {
	if strings.TrimSpace(cfg.SystemTemplate) == "" || strings.TrimSpace(cfg.UserTemplate) == "" {
		return Prompt{}, &ConfigError{msg: "assistant prompt templates missing"}
	}

	count := paramString(params, "count")
	if count == "" {
		if settings.DefaultCount > 0 {
			count = fmt.Sprint(settings.DefaultCount)
		} else {
			count = "5"
		}
	}
	industry := paramString(params, "industry")
	if industry == "" {
		industry = "general"
	}

	system := substitute(cfg.SystemTemplate, "count", count)
	system = substitute(system, "industry", industry)
	user := substitute(cfg.UserTemplate, "input", userInput)
	user = substitute(user, "count", count)
	user = substitute(user, "industry", industry)

	for key, val := range params {
		s := stringify(val)
		system = substitute(system, key, s)
		user = substitute(user, key, s)
	}

	system = placeholderRe.ReplaceAllString(system, "")
	user = placeholderRe.ReplaceAllString(user, "")

	return Prompt{System: system + businessBoundary, User: user}, nil
}

// RenderRefinement builds the prompt pair for refining a single card along
// one aspect. The system template comes from the assistant's per-aspect
// refinement map; an unknown aspect is a configuration error.
func RenderRefinement(cfg domain.PromptConfig, aspect string, card domain.Card) (Prompt, error) {
	tmpl, ok := cfg.RefinementTemplates[aspect]
	if !ok || strings.TrimSpace(tmpl) == "" {
		return Prompt{}, &ConfigError{msg: fmt.Sprintf("no refinement template for aspect %q", aspect)}
	}

	title := card.Title()
	if title == "" {
		title = "Untitled"
	}
	body := card.Description()
	if body == "" {
		if content, ok := card["content"].(string); ok {
			body = content
		}
	}

	user := fmt.Sprintf(`Provide 3-4 SHORT, actionable business insights about %s for:

%q
%s

Format:
- Key insight 1 (1 sentence)
- Key insight 2 (1 sentence)
- Key insight 3 (1 sentence)
- Key insight 4 (1 sentence)`, aspect, title, body)

	return Prompt{System: tmpl + refinementBoundary, User: user}, nil
}

// ChatSystem builds the system prompt for a card-scoped chat turn.
func ChatSystem(cardContext string) string {
	return fmt.Sprintf(`You are a concise, helpful business advisor.

Context about the specific idea:
%s
%s
Write responses that:
- Start with a direct 1-2 sentence answer tailored to the user's message and this idea.
- Keep the whole reply under ~120 words unless the user explicitly asks for more.
- Choose formatting based on intent (do not always use bullets):
  - Paragraph for explanations/opinions.
  - Bullet list only when enumerating options/tips.
  - Numbered steps only for clear "how to" requests or plans.
  - Simple table (Markdown) only if the user asks to compare.
- Be specific, actionable, and reference the idea details when helpful.
- Avoid fluff, headings, or repeating the question.
- If key info is missing, end with one brief clarifying question on a new line prefixed with "Quick check:"`, cardContext, businessBoundary)
}

func substitute(tmpl, key, val string) string {
	return strings.ReplaceAll(tmpl, "{{"+key+"}}", val)
}

func paramString(params map[string]any, key string) string {
	if params == nil {
		return ""
	}
	v, ok := params[key]
	if !ok || v == nil {
		return ""
	}
	return stringify(v)
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
