// Package prompt renders the text sent to providers from the caller's
// parameters.
package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/casualjim/llmgate/llmerr"
)

const (
	// KeyContent is the parameter holding the text to transform.
	KeyContent = "content"
	// KeyInstruction is the parameter describing the transformation.
	KeyInstruction = "instruction"

	// DefaultInstruction applies when no usable instruction is given.
	DefaultInstruction = "Please process the following text"
)

// Consumed reports whether key is used by the builder and must not be
// forwarded to providers.
func Consumed(key string) bool {
	return key == KeyContent || key == KeyInstruction
}

const defaultTemplate = `
You receive two inputs:

    Original text: unformatted plain text made of paragraphs and sentences. Tone, grammar and clarity may vary.
    Instruction: a natural language request describing how to change the text, such as rephrasing, simplifying, fixing grammar, adjusting tone, or adding and removing ideas.

Your task:

    Apply the instruction to the original text.
    Work on the content only and ignore formatting such as bold, italics or structural tags.
    Keep logical paragraph breaks so the result stays readable.
    Aim for clarity and coherence in the requested style or tone.

Output format:

    Return plain text only, progressively, paragraph by paragraph or in logical chunks.
    Do not include JSON, markdown, HTML tags or explanations.
    Do not prepend or append anything.
    The complete result must be usable as standard plain text.

    <content>{{.Content}}</content>
    <instruction>{{.Instruction}}</instruction>
`

type fields struct {
	Content     string
	Instruction string
}

// Builder renders prompts from a fixed template.
type Builder struct {
	tmpl *template.Template
}

// New returns a builder for the default template.
func New() *Builder {
	return &Builder{tmpl: template.Must(template.New("prompt").Parse(defaultTemplate))}
}

// NewWithTemplate returns a builder for a custom template. The template sees
// .Content and .Instruction.
func NewWithTemplate(text string) (*Builder, error) {
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: prompt template: %w", llmerr.ErrConfiguration, err)
	}
	return &Builder{tmpl: tmpl}, nil
}

// Build renders the prompt for params. A missing, non-string or blank content
// fails with llmerr.ErrEmptyContent.
func (b *Builder) Build(params map[string]any) (string, error) {
	content, _ := params[KeyContent].(string)
	content = strings.TrimSpace(content)
	if content == "" {
		return "", llmerr.ErrEmptyContent
	}

	instruction, _ := params[KeyInstruction].(string)
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		instruction = DefaultInstruction
	}

	var sb strings.Builder
	if err := b.tmpl.Execute(&sb, fields{Content: content, Instruction: instruction}); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return sb.String(), nil
}
