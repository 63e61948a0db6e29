package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations return the built-in default
	// or an error when no default exists.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names.
// Both templates expect a single %s placeholder for the member text.
const (
	// PromptDomainLabel asks for a broad category of one to three words.
	PromptDomainLabel = "domain_label"

	// PromptClusterLabel asks for a specific topic of three to six words.
	PromptClusterLabel = "cluster_label"
)
