package domain

import "time"

// FileRecord is the registry's view of one known file.
type FileRecord struct {
	// Path is the current absolute location and the registry key.
	Path string

	// ContentHash is a digest of the raw bytes, used for change detection only.
	ContentHash string

	// Embedding is the vector for the extracted text. Nil until computed.
	Embedding []float32

	// Text is the extracted content, kept for cluster naming.
	Text string

	// ClusterID is the discriminator assigned by the most recent clustering run.
	// Nil until a run has placed the record.
	ClusterID *int

	// IngestedAt is when the content fields were last written.
	IngestedAt time.Time
}

// Clusterable reports whether the record can take part in clustering.
func (r *FileRecord) Clusterable() bool {
	return r != nil && len(r.Embedding) > 0
}

// Clone returns a deep copy so callers never share slices with the registry.
func (r *FileRecord) Clone() *FileRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.Embedding != nil {
		c.Embedding = make([]float32, len(r.Embedding))
		copy(c.Embedding, r.Embedding)
	}
	if r.ClusterID != nil {
		id := *r.ClusterID
		c.ClusterID = &id
	}
	return &c
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
