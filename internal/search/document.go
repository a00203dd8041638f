// Package search provides full-text question search using Bleve, with
// fuzzy matching and tag filtering.
package search

import (
	"github.com/answerhubapp/answerhub-server/internal/domain"
)

// QuestionDocument is the document structure for the Bleve index.
// Tag names are denormalized in so a tag filter needs no store lookup at
// query time.
type QuestionDocument struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Tags      []string `json:"tags,omitempty"`
	Upvotes   int      `json:"upvotes"`
	Views     int      `json:"views"`
	CreatedAt int64    `json:"created_at"` // Unix millis
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but our
// mapping uses lowercase names, so we convert explicitly.
func (d *QuestionDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":         d.ID,
		"title":      d.Title,
		"body":       d.Body,
		"upvotes":    d.Upvotes,
		"views":      d.Views,
		"created_at": d.CreatedAt,
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	return m
}

// FromQuestion converts a domain Question to a QuestionDocument.
// Tag names are provided by the caller, as the search package shouldn't
// depend on store.
func FromQuestion(q *domain.Question, tagNames []string) *QuestionDocument {
	return &QuestionDocument{
		ID:        q.ID,
		Title:     q.Title,
		Body:      q.Body,
		Tags:      tagNames,
		Upvotes:   q.Upvotes,
		Views:     q.Views,
		CreatedAt: q.CreatedAt.UnixMilli(),
	}
}
