// Package prompt renders the judging prompt sent to the generation collaborator.
//
// The rubric is a fixed, embedded instruction. The caller only supplies the
// theme and the message; both are inserted verbatim into the user turn.
package prompt

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"
)

// InstructionVersion identifies the embedded rubric. Bump it when instruction.txt changes.
const InstructionVersion = "2024-06-rubric-v3"

//go:embed instruction.txt
var instruction string

//go:embed chatml.tmpl
var chatML string

// Turns is the data handed to the chat template.
type Turns struct {
	System string
	User   string
}

// Builder renders prompts. It is immutable after New and safe for concurrent use.
type Builder struct {
	instruction  string
	templatePath string
	tmpl         *template.Template
}

// Option configures a Builder.
type Option func(*Builder)

// WithTemplatePath loads the chat template from a file instead of the embedded ChatML one.
func WithTemplatePath(path string) Option {
	return func(b *Builder) {
		b.templatePath = path
	}
}

// WithInstruction replaces the embedded system instruction.
func WithInstruction(text string) Option {
	return func(b *Builder) {
		b.instruction = text
	}
}

// New returns a Builder. A missing or unparseable template is an error.
func New(opts ...Option) (*Builder, error) {
	b := &Builder{instruction: instruction}
	for _, opt := range opts {
		opt(b)
	}

	src := chatML
	name := "chatml"
	if b.templatePath != "" {
		raw, err := os.ReadFile(b.templatePath)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrTemplate, b.templatePath, err)
		}
		src = string(raw)
		name = b.templatePath
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrTemplate, name, err)
	}
	b.tmpl = tmpl

	// Render once so a template referencing unknown fields fails at startup.
	if _, err := b.Build("", ""); err != nil {
		return nil, err
	}
	return b, nil
}

// Build returns the full prompt for one theme and message.
func (b *Builder) Build(theme, input string) (string, error) {
	var sb strings.Builder
	if err := b.tmpl.Execute(&sb, Turns{System: b.instruction, User: UserTurn(theme, input)}); err != nil {
		return "", fmt.Errorf("%w: render: %w", ErrTemplate, err)
	}
	return sb.String(), nil
}

// Instruction returns the system instruction in use.
func (b *Builder) Instruction() string {
	return b.instruction
}

// UserTurn formats the user message exactly as the rubric expects it.
func UserTurn(theme, input string) string {
	return "Theme: " + theme + "\nMessage: " + input
}
