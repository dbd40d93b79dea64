package prompts

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"text/template"
)

type PromptName string

const (
	PromptPersonaSynthesis PromptName = "persona_synthesis"
	PromptEvaluateImage    PromptName = "evaluate_image"
	PromptEvaluateVideo    PromptName = "evaluate_video"
	PromptEvaluateText     PromptName = "evaluate_text"
	PromptEnhanceAd        PromptName = "enhance_ad"
)

// Spec declares a prompt. Text is a text/template over Input.
type Spec struct {
	Name    PromptName
	Version int
	Text    string
	// Validate rejects inputs the template cannot render meaningfully.
	Validate func(Input) error
}

type Prompt struct {
	Name    string
	Version int
	Text    string
}

func (p Prompt) Fingerprint() string {
	h := sha256.Sum256([]byte(p.Name + "|" + strconv.Itoa(p.Version) + "|" + p.Text))
	return hex.EncodeToString(h[:])[:16]
}

type template_ struct {
	spec Spec
	tmpl *template.Template
}

var registry = map[PromptName]template_{}

func register(s Spec) {
	if strings.TrimSpace(string(s.Name)) == "" || s.Version <= 0 {
		panic(fmt.Sprintf("prompts: invalid spec %q v%d", s.Name, s.Version))
	}
	t, err := template.New(string(s.Name)).
		Option("missingkey=error").
		Funcs(template.FuncMap{"human": humanize, "join": strings.Join}).
		Parse(s.Text)
	if err != nil {
		panic(fmt.Sprintf("prompts: %s template parse: %v", s.Name, err))
	}
	registry[s.Name] = template_{spec: s, tmpl: t}
}

// Build renders the named prompt.
func Build(name PromptName, in Input) (Prompt, error) {
	t, ok := registry[name]
	if !ok {
		return Prompt{}, fmt.Errorf("unknown prompt: %s", name)
	}
	if t.spec.Validate != nil {
		if err := t.spec.Validate(in); err != nil {
			return Prompt{}, fmt.Errorf("%s: %w", name, err)
		}
	}
	var b bytes.Buffer
	if err := t.tmpl.Execute(&b, in); err != nil {
		return Prompt{}, fmt.Errorf("%s render: %w", name, err)
	}
	return Prompt{Name: string(name), Version: t.spec.Version, Text: strings.TrimSpace(b.String())}, nil
}

func humanize(s string) string { return strings.ReplaceAll(s, "_", " ") }
