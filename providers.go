package shipbook

import (
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/tyler-sommer/stick"
)

//go:embed prompts/*.twig
var promptFS embed.FS

// PromptProvider returns the system-prompt template text for a tag. The
// mapping is loaded once at construction and treated as immutable
// configuration for the duration of a run.
type PromptProvider interface {
	GetPrompt(tag string, version int) (string, error)
}

// ContextualPromptProvider extends PromptProvider with template variables:
// the field names the call is expected to fill.
type ContextualPromptProvider interface {
	PromptProvider
	GetPromptWithKeys(tag string, version int, keys []string) (string, error)
}

// instructionSuffix is appended to every rendered system prompt. The models
// otherwise pad structured output with explanations.
const instructionSuffix = `

# Task
Extract ONLY the requested fields - no explanations or additional text.

# Output format
Return ONLY the structured data in JSON format. Do not include any reasoning or explanations.`

// StickPromptProvider renders Twig templates, fs-agnostic.
type StickPromptProvider struct {
	env       *stick.Env
	templates map[string]string
	vars      map[string]any
}

// ProviderOption configures a StickPromptProvider.
type ProviderOption func(*StickPromptProvider) error

// WithFS loads every *.twig file found under dir in the supplied FS.
func WithFS(fsys fs.FS, dir string) ProviderOption {
	return func(p *StickPromptProvider) error {
		return fs.WalkDir(fsys, dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".twig") {
				return nil
			}
			content, readErr := fs.ReadFile(fsys, path)
			if readErr != nil {
				return fmt.Errorf("read %s: %w", path, readErr)
			}
			tag := strings.TrimSuffix(filepath.Base(path), ".twig")
			p.templates[tag] = string(content)
			return nil
		})
	}
}

// WithTemplates injects an in-memory template map.
func WithTemplates(m map[string]string) ProviderOption {
	return func(p *StickPromptProvider) error {
		for k, v := range m {
			p.templates[k] = v
		}
		return nil
	}
}

// WithVar adds a variable available in all templates.
func WithVar(key string, value any) ProviderOption {
	return func(p *StickPromptProvider) error {
		p.vars[key] = value
		return nil
	}
}

// NewStickPromptProvider builds a provider from any combination of options.
func NewStickPromptProvider(opts ...ProviderOption) (*StickPromptProvider, error) {
	p := &StickPromptProvider{
		env:       stick.New(nil),
		templates: make(map[string]string),
		vars:      make(map[string]any),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// DefaultPromptProvider loads the embedded shipment-booking prompt set.
func DefaultPromptProvider() (*StickPromptProvider, error) {
	return NewStickPromptProvider(WithFS(promptFS, "prompts"))
}

// Tags lists the loaded template tags.
func (p *StickPromptProvider) Tags() []string {
	tags := make([]string, 0, len(p.templates))
	for tag := range p.templates {
		tags = append(tags, tag)
	}
	return tags
}

// GetPrompt renders the template for the given tag.
func (p *StickPromptProvider) GetPrompt(tag string, version int) (string, error) {
	return p.render(tag, version, nil)
}

// GetPromptWithKeys renders the template with the field names the call is
// expected to fill exposed as keys / key_list.
func (p *StickPromptProvider) GetPromptWithKeys(tag string, version int, keys []string) (string, error) {
	extra := map[string]stick.Value{
		"keys":     keys,
		"key_list": strings.Join(keys, ", "),
	}
	return p.render(tag, version, extra)
}

func (p *StickPromptProvider) render(tag string, version int, extra map[string]stick.Value) (string, error) {
	tpl, ok := p.templates[tag]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrPromptMissing, tag)
	}

	templateCtx := map[string]stick.Value{
		"tag":     tag,
		"version": version,
	}
	for k, v := range p.vars {
		templateCtx[k] = v
	}
	for k, v := range extra {
		templateCtx[k] = v
	}

	var out strings.Builder
	if err := p.env.Execute(tpl, &out, templateCtx); err != nil {
		return "", fmt.Errorf("execute %q: %w", tag, err)
	}
	return out.String() + instructionSuffix, nil
}
