package domain

import "fmt"

// TargetKind discriminates the two content types that can receive votes,
// interactions, and bookmarks. A tagged (kind, id) pair replaces runtime
// type inspection everywhere a "question or answer" reference is needed.
type TargetKind string

const (
	// TargetQuestion marks a reference to a question document.
	TargetQuestion TargetKind = "question"
	// TargetAnswer marks a reference to an answer document.
	TargetAnswer TargetKind = "answer"
)

// Valid reports whether the kind is one of the known content types.
func (k TargetKind) Valid() bool {
	return k == TargetQuestion || k == TargetAnswer
}

// Target is a tagged reference to a piece of content.
type Target struct {
	Kind TargetKind `json:"kind"`
	ID   string     `json:"id"`
}

// String returns the canonical "kind:id" form, used in storage keys.
func (t Target) String() string {
	return fmt.Sprintf("%s:%s", t.Kind, t.ID)
}
