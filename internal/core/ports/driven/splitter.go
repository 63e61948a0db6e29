package driven

// TextSplitter breaks long text into pieces small enough to embed.
type TextSplitter interface {
	// Split returns the pieces of text in order. Empty text yields none.
	Split(text string) []string
}
