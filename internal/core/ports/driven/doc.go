// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the organiser to function:
//
//   - EventSource: Scans the root and streams file-system notifications
//   - Extractor: Turns one file type into plain text
//   - ExtractorRegistry: Selects the extractor for a path
//   - EmbeddingService: Turns text into a fixed-length vector
//   - ConfigStore: Application configuration
//   - RootLock: Guarantees a single organiser per root
//
// # Optional Interfaces
//
// These can be nil - the organiser degrades gracefully:
//
//   - LLMService: Names clusters. Without it, names come from keyword extraction.
//   - PromptStore: User-editable naming prompts. Without it, built-in prompts are used.
//   - EmbeddingCache: Skips re-embedding unchanged content.
//   - RunStore: Persists reorganisation history.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
