package render

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	instructionsPolicyOnce sync.Once
	instructionsPolicy     *bluemonday.Policy
)

// PlainText renders instructions without markup support: the text is
// escaped, blank lines separate paragraphs and single newlines become <br>.
var PlainText InstructionsFunc = renderPlainText

func renderPlainText(text string) (string, error) {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.TrimSpace(normalized)
	if normalized == "" {
		return "", nil
	}

	var b strings.Builder
	for _, block := range strings.Split(normalized, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		for i, line := range lines {
			lines[i] = html.EscapeString(strings.TrimSpace(line))
		}
		b.WriteString("<p>")
		b.WriteString(strings.Join(lines, "<br>"))
		b.WriteString("</p>")
	}
	return b.String(), nil
}

// Sanitize strips anything outside user-generated-content HTML from a
// rendered instructions fragment.
func Sanitize(fragment string) string {
	trimmed := strings.TrimSpace(fragment)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(instructionsSanitizer().Sanitize(trimmed))
}

// Instructions renders text through renderer and sanitises the result. A nil
// renderer falls back to PlainText.
func Instructions(renderer InstructionsRenderer, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if renderer == nil {
		renderer = PlainText
	}
	out, err := renderer.RenderInstructions(text)
	if err != nil {
		return "", err
	}
	return Sanitize(out), nil
}

func instructionsSanitizer() *bluemonday.Policy {
	instructionsPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.RequireNoFollowOnLinks(true)
		policy.AddTargetBlankToFullyQualifiedLinks(true)
		instructionsPolicy = policy
	})
	return instructionsPolicy
}
