// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/pdiddy/safetycheck/pkg/types"
)

// Narrow prompts for the staged label analysis. Each asks for exactly one
// answer shape so a single bad reply spoils only its own stage.
var (
	pregnancyPromptTmpl = template.Must(template.New("pregnancy").Parse(
		`Drug label pregnancy section for {{.Substance}}:

{{.Text}}

Based only on this text, is this drug safe during pregnancy? Answer with exactly one word: safe, caution, avoid, or unknown.`))

	breastfeedingPromptTmpl = template.Must(template.New("breastfeeding").Parse(
		`Drug label nursing mothers section for {{.Substance}}:

{{.Text}}

Based only on this text, is this drug safe while breastfeeding? Answer with exactly one word: safe, caution, avoid, or unknown.`))

	warningsPromptTmpl = template.Must(template.New("warnings").Parse(
		`Drug label warnings for {{.Substance}}:

{{.Text}}

List the warnings most relevant to pregnancy and breastfeeding. Respond with a JSON array of short strings and nothing else, at most {{.Max}} entries.`))

	summaryPromptTmpl = template.Must(template.New("summary").Parse(
		`Drug: {{.Substance}}
Pregnancy assessment: {{.Pregnancy}}
Breastfeeding assessment: {{.Breastfeeding}}
Key warnings: {{.Warnings}}

Write two sentences of plain-language guidance for a patient. Respond with the sentences only.`))
)

type labelPromptData struct {
	Substance string
	Text      string
	Max       int
}

// AssessPregnancy asks one narrow question about the pregnancy section and
// normalizes the one-word reply onto the safety taxonomy.
func AssessPregnancy(ctx context.Context, backend Backend, substance, text string) (types.SafetyLevel, error) {
	return assessLevel(ctx, backend, pregnancyPromptTmpl, substance, text)
}

// AssessBreastfeeding asks one narrow question about the nursing mothers
// section and normalizes the one-word reply.
func AssessBreastfeeding(ctx context.Context, backend Backend, substance, text string) (types.SafetyLevel, error) {
	return assessLevel(ctx, backend, breastfeedingPromptTmpl, substance, text)
}

func assessLevel(ctx context.Context, backend Backend, tmpl *template.Template, substance, text string) (types.SafetyLevel, error) {
	prompt, err := render(tmpl, labelPromptData{Substance: substance, Text: truncate(text, primaryFieldCap)})
	if err != nil {
		return types.SafetyUnknown, err
	}
	raw, err := backend.Invoke(ctx, prompt)
	if err != nil {
		return types.SafetyUnknown, err
	}
	return types.NormalizeSafety(StripFences(raw)), nil
}

// ExtractWarnings asks for pregnancy-relevant warnings as a JSON array. A
// reply that is not a string array is an error the caller degrades on.
func ExtractWarnings(ctx context.Context, backend Backend, substance, text string) ([]string, error) {
	prompt, err := render(warningsPromptTmpl, labelPromptData{
		Substance: substance,
		Text:      truncate(text, primaryFieldCap),
		Max:       types.MaxWarnings,
	})
	if err != nil {
		return nil, err
	}
	raw, err := backend.Invoke(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var warnings []string
	if err := json.Unmarshal([]byte(StripFences(raw)), &warnings); err != nil {
		return nil, fmt.Errorf("parsing warnings array: %w", err)
	}
	if len(warnings) > types.MaxWarnings {
		warnings = warnings[:types.MaxWarnings]
	}
	return warnings, nil
}

// Summarize asks for the two-sentence patient summary.
func Summarize(ctx context.Context, backend Backend, substance string, pregnancy, breastfeeding types.SafetyLevel, warnings []string) (string, error) {
	prompt, err := render(summaryPromptTmpl, struct {
		Substance     string
		Pregnancy     types.SafetyLevel
		Breastfeeding types.SafetyLevel
		Warnings      string
	}{
		Substance:     substance,
		Pregnancy:     pregnancy,
		Breastfeeding: breastfeeding,
		Warnings:      joinOrNone(warnings),
	})
	if err != nil {
		return "", err
	}
	raw, err := backend.Invoke(ctx, prompt)
	if err != nil {
		return "", err
	}
	return StripFences(raw), nil
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return buf.String(), nil
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "none"
	}
	return string(b)
}
