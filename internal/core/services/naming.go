package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/custodia-labs/sefs/internal/core/domain"
	"github.com/custodia-labs/sefs/internal/core/ports/driven"
	"github.com/custodia-labs/sefs/internal/logger"
)

// Fallback labels used when nothing better is available.
const (
	FallbackDomain  = "General"
	FallbackCluster = "Misc"
)

const defaultDomainPrompt = `Create a broad category name for these documents.

Rules:
- 1 to 3 words
- No punctuation
- Title Case
- Very general grouping label
- Only output the name

Documents:
%s
`

const defaultClusterPrompt = `Create a short folder name describing the topic of these documents.

Rules:
- 3 to 6 words
- No punctuation
- Title Case
- Only output the name

Documents:
%s
`

// DefaultPrompts returns the built-in naming prompt templates by name.
func DefaultPrompts() map[string]string {
	return map[string]string{
		driven.PromptDomainLabel:  defaultDomainPrompt,
		driven.PromptClusterLabel: defaultClusterPrompt,
	}
}

// Namer assigns a (domain, cluster) label pair to a group of documents.
// It asks the LLM when one is configured and falls back to keyword
// extraction whenever the LLM is missing, fails, or times out.
type Namer struct {
	llm      driven.LLMService
	prompts  driven.PromptStore
	settings domain.NamingSettings
}

// NewNamer creates a namer. llm may be nil.
func NewNamer(llm driven.LLMService, settings domain.NamingSettings) *Namer {
	if settings.MaxContext <= 0 {
		settings.MaxContext = 2000
	}
	if settings.MaxLabel <= 0 {
		settings.MaxLabel = 40
	}
	return &Namer{
		llm:      llm,
		settings: settings,
	}
}

// SetPromptStore sets the store for user-editable prompts.
func (n *Namer) SetPromptStore(store driven.PromptStore) {
	n.prompts = store
}

// Name returns the placement for documents with the given texts.
func (n *Namer) Name(ctx context.Context, texts []string) domain.Placement {
	if len(texts) == 0 {
		return domain.Placement{Domain: FallbackDomain, Cluster: FallbackCluster}
	}
	joined := truncateRunes(strings.Join(texts, "\n"), n.settings.MaxContext)

	d := n.Sanitize(n.ask(ctx, driven.PromptDomainLabel, joined), FallbackDomain)

	c := n.Sanitize(n.ask(ctx, driven.PromptClusterLabel, joined), "")
	if c == "" {
		c = n.KeywordLabel(texts)
	}
	return domain.Placement{Domain: d, Cluster: c}
}

// KeywordLabel builds a cluster label from the top two TF-IDF terms.
func (n *Namer) KeywordLabel(texts []string) string {
	kw := TopKeywords(texts, 2)
	caser := titleCaser()
	for i, w := range kw {
		kw[i] = caser.String(w)
	}
	return n.Sanitize(strings.Join(kw, "_"), FallbackCluster)
}

// ask returns the raw LLM answer, or "" when the oracle is unavailable.
func (n *Namer) ask(ctx context.Context, promptName, text string) string {
	if n.llm == nil {
		return ""
	}
	prompt := fmt.Sprintf(n.template(promptName), text)

	timeout := n.settings.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := n.llm.Generate(callCtx, prompt, driven.GenerateOptions{MaxTokens: 24, Temperature: 0})
	if err != nil {
		logger.Warn("naming: %s via %s failed, using fallback: %v", promptName, n.llm.ModelName(), err)
		return ""
	}
	return out
}

func (n *Namer) template(name string) string {
	if n.prompts != nil {
		if tmpl, err := n.prompts.Load(name); err == nil && strings.Contains(tmpl, "%s") {
			return tmpl
		}
	}
	return DefaultPrompts()[name]
}

// Sanitize turns raw oracle output into a safe folder name: the first
// non-empty line, restricted to letters, digits, space, '_' and '-', title
// cased, whitespace collapsed to '_', truncated to the label limit.
// An empty result yields def.
func (n *Namer) Sanitize(raw, def string) string {
	line := ""
	for _, l := range strings.Split(raw, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			line = l
			break
		}
	}

	var b strings.Builder
	for _, r := range line {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ', r == '_', r == '-':
			b.WriteRune(r)
		case r == '\t':
			b.WriteRune(' ')
		}
	}
	name := strings.Join(strings.Fields(titleCaser().String(b.String())), "_")
	name = strings.Trim(name, "_-")
	if len(name) > n.settings.MaxLabel {
		name = strings.TrimRight(name[:n.settings.MaxLabel], "_-")
	}
	if name == "" {
		return def
	}
	return name
}

// titleCaser returns a fresh caser; casers are stateful and not goroutine safe.
func titleCaser() cases.Caser {
	return cases.Title(language.English, cases.NoLower)
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == limit {
			return s[:pos]
		}
		i++
	}
	return s
}
