package app

import (
	"context"
	"log/slog"
	"strings"

	"ideaforge/pkg/ai"
	"ideaforge/pkg/domain"
)

// defaultInferencePrompt is used when an assistant carries no inference
// prompt of its own. {{message}} is replaced with the user's input.
const defaultInferencePrompt = "Extract key parameters from this message. Only extract parameters that are explicitly mentioned. Return JSON with industry, count, complexity, tone, target_audience, urgency, budget_range fields. If not mentioned, omit the field."

// inferenceSchema constrains the structured extraction response.
var inferenceSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"industry":        map[string]any{"type": "string"},
		"count":           map[string]any{"type": "number"},
		"complexity":      map[string]any{"type": "string"},
		"tone":            map[string]any{"type": "string"},
		"target_audience": map[string]any{"type": "string"},
		"urgency":         map[string]any{"type": "string"},
		"budget_range":    map[string]any{"type": "string"},
	},
}

// resolveParams merges generation parameters in fixed priority order:
// assistant defaults < caller context < AI-inferred < explicit overrides.
// The merge is shallow; a later source replaces a key wholesale.
func (a *App) resolveParams(ctx context.Context, assistant domain.Assistant, message string, userContext, overrides map[string]any) map[string]any {
	params := map[string]any{
		"count":      defaultOr(assistant.AppSettings.DefaultCount, 6),
		"industry":   defaultStr(assistant.AppSettings.DefaultIndustry, "general"),
		"complexity": defaultStr(assistant.AppSettings.DefaultComplexity, "simple"),
		"format":     defaultStr(assistant.AppSettings.DefaultFormat, "cards"),
	}
	for k, v := range assistant.AppSettings.DefaultOptions {
		params[k] = v
	}
	for k, v := range userContext {
		params[k] = v
	}
	for k, v := range a.inferParams(ctx, assistant, message) {
		params[k] = v
	}
	for k, v := range overrides {
		params[k] = v
	}
	return params
}

// inferParams asks the structured completer to extract parameters from the
// user's message. Inference is best-effort; any failure yields no inferred
// parameters rather than failing the generation.
func (a *App) inferParams(ctx context.Context, assistant domain.Assistant, message string) map[string]any {
	if a.inferrer == nil {
		return nil
	}
	promptText := assistant.PromptConfig.ParameterInferencePrompt
	if strings.TrimSpace(promptText) == "" {
		promptText = defaultInferencePrompt
	}
	promptText = strings.ReplaceAll(promptText, "{{message}}", message)
	if !strings.Contains(assistant.PromptConfig.ParameterInferencePrompt, "{{message}}") {
		promptText = promptText + "\n\nMessage: " + message
	}

	raw, err := a.inferrer.CompleteJSON(ctx, promptText, inferenceSchema)
	if err != nil {
		slog.Warn("parameter inference failed", "app_type", assistant.AppType, "err", err)
		return nil
	}
	var inferred map[string]any
	if err := ai.ParseStrict(raw, &inferred); err != nil {
		slog.Warn("parameter inference unparseable", "app_type", assistant.AppType, "err", err)
		return nil
	}
	return inferred
}

func defaultOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func defaultStr(v, fallback string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}
