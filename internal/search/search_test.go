package search

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/answerhubapp/answerhub-server/internal/domain"
)

// setupTestIndex creates a temporary search index for testing.
func setupTestIndex(t *testing.T) (*SearchIndex, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "search-test-*")
	require.NoError(t, err)

	index, err := NewSearchIndex(Options{
		DataPath: tmpDir,
		Logger:   nil,
	})
	require.NoError(t, err)

	cleanup := func() {
		_ = index.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return index, cleanup
}

func TestNewSearchIndex(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearchIndex_IndexQuestion(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	doc := &QuestionDocument{
		ID:    "q_1",
		Title: "How do goroutines leak?",
		Body:  "I suspect a goroutine leak in my worker pool.",
		Tags:  []string{"go", "concurrency"},
	}
	require.NoError(t, index.IndexQuestion(doc))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestSearchIndex_IndexQuestions_Batch(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*QuestionDocument{
		{ID: "q_1", Title: "Question one", Body: "body"},
		{ID: "q_2", Title: "Question two", Body: "body"},
		{ID: "q_3", Title: "Question three", Body: "body"},
	}
	require.NoError(t, index.IndexQuestions(docs))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestSearchIndex_DeleteQuestion(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	doc := &QuestionDocument{ID: "q_1", Title: "Disposable question", Body: "body"}
	require.NoError(t, index.IndexQuestion(doc))
	require.NoError(t, index.DeleteQuestion("q_1"))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearchIndex_Search_TitleBoost(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*QuestionDocument{
		{ID: "q_title", Title: "Debugging deadlocks in Go", Body: "General discussion."},
		{ID: "q_body", Title: "A question about something else", Body: "It turned out to be deadlocks all along."},
		{ID: "q_other", Title: "Completely unrelated", Body: "Nothing to see here."},
	}
	require.NoError(t, index.IndexQuestions(docs))

	result, err := index.Search(context.Background(), SearchParams{
		Query: "deadlocks",
		Limit: 10,
	})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(result.Hits), 2)

	// Title matches outrank body matches.
	assert.Equal(t, "q_title", result.Hits[0].ID)

	ids := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		ids = append(ids, hit.ID)
	}
	assert.NotContains(t, ids, "q_other")
}

func TestSearchIndex_Search_TagFilter(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*QuestionDocument{
		{ID: "q_1", Title: "Indexing strategies", Body: "body", Tags: []string{"databases"}},
		{ID: "q_2", Title: "Indexing strategies elsewhere", Body: "body", Tags: []string{"search"}},
	}
	require.NoError(t, index.IndexQuestions(docs))

	result, err := index.Search(context.Background(), SearchParams{
		Query: "indexing",
		Tags:  []string{"databases"},
		Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "q_1", result.Hits[0].ID)
}

func TestSearchIndex_Search_Fuzzy(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	doc := &QuestionDocument{ID: "q_1", Title: "A subtle deadlock in the scheduler", Body: "body"}
	require.NoError(t, index.IndexQuestion(doc))

	// One-character typo still matches the title.
	result, err := index.Search(context.Background(), SearchParams{
		Query: "deadlok",
		Limit: 10,
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Hits)
	assert.Equal(t, "q_1", result.Hits[0].ID)
}

func TestSearchIndex_Search_Highlight(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	doc := &QuestionDocument{
		ID:    "q_1",
		Title: "Profiling allocations",
		Body:  "The allocator shows up in every profile I take.",
	}
	require.NoError(t, index.IndexQuestion(doc))

	result, err := index.Search(context.Background(), SearchParams{
		Query:     "profiling",
		Limit:     10,
		Highlight: true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Hits)
	assert.NotEmpty(t, result.Hits[0].Highlights)
}

func TestSearchIndex_Rebuild(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	doc := &QuestionDocument{ID: "q_1", Title: "Before the rebuild", Body: "body"}
	require.NoError(t, index.IndexQuestion(doc))

	require.NoError(t, index.Rebuild())

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)

	// The rebuilt index accepts writes.
	require.NoError(t, index.IndexQuestion(doc))
	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestFromQuestion(t *testing.T) {
	now := time.Now()
	q := &domain.Question{
		ID:        "q_1",
		Title:     "Title",
		Body:      "Body",
		Upvotes:   3,
		Views:     9,
		CreatedAt: now,
	}

	doc := FromQuestion(q, []string{"go"})
	assert.Equal(t, "q_1", doc.ID)
	assert.Equal(t, []string{"go"}, doc.Tags)
	assert.Equal(t, now.UnixMilli(), doc.CreatedAt)
}
