package domain

// EventKind tags notifications and raw events.
type EventKind string

// Event kinds.
const (
	EventCreated     EventKind = "created"
	EventModified    EventKind = "modified"
	EventDeleted     EventKind = "deleted"
	EventMoved       EventKind = "moved"
	EventReorganized EventKind = "reorganized"
)

// String returns the string representation.
func (k EventKind) String() string {
	return string(k)
}

// FsEvent is a file-system notification. The concrete types are Created,
// Modified, Deleted and Moved; the set is closed by the unexported method.
type FsEvent interface {
	// Kind returns the event tag.
	Kind() EventKind

	// Paths returns the paths the event touches, source first.
	Paths() []string

	fsEvent()
}

// Created reports a new file.
type Created struct {
	Path string
}

// Modified reports a content change.
type Modified struct {
	Path string
}

// Deleted reports a removed file.
type Deleted struct {
	Path string
}

// Moved reports a rename from Src to Dst.
type Moved struct {
	Src string
	Dst string
}

func (Created) fsEvent()  {}
func (Modified) fsEvent() {}
func (Deleted) fsEvent()  {}
func (Moved) fsEvent()    {}

// Kind returns EventCreated.
func (Created) Kind() EventKind { return EventCreated }

// Kind returns EventModified.
func (Modified) Kind() EventKind { return EventModified }

// Kind returns EventDeleted.
func (Deleted) Kind() EventKind { return EventDeleted }

// Kind returns EventMoved.
func (Moved) Kind() EventKind { return EventMoved }

// Paths returns the created path.
func (e Created) Paths() []string { return []string{e.Path} }

// Paths returns the modified path.
func (e Modified) Paths() []string { return []string{e.Path} }

// Paths returns the deleted path.
func (e Deleted) Paths() []string { return []string{e.Path} }

// Paths returns source and destination.
func (e Moved) Paths() []string { return []string{e.Src, e.Dst} }
