package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/answerhubapp/answerhub-server/internal/domain"
)

func findOrCreateTag(t *testing.T, s *Store, name string) (*domain.Tag, bool) {
	t.Helper()

	var tag *domain.Tag
	var created bool
	err := s.RunInTxn(context.Background(), func(uow *UnitOfWork) error {
		var err error
		tag, created, err = s.FindOrCreateTag(uow, name)
		return err
	})
	require.NoError(t, err)
	return tag, created
}

func TestFindOrCreateTag_CaseFoldedIdentity(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	first, created := findOrCreateTag(t, store, "Go")
	require.True(t, created)

	// Same tag under different casing and surrounding whitespace.
	for _, name := range []string{"go", "GO", "  Go  "} {
		got, created := findOrCreateTag(t, store, name)
		assert.False(t, created, "variant %q created a new tag", name)
		assert.Equal(t, first.ID, got.ID)
	}

	// Display name keeps the first-seen form.
	got, err := store.GetTag(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go", got.Name)
}

func TestFindOrCreateTag_EmptyName(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.RunInTxn(context.Background(), func(uow *UnitOfWork) error {
		_, _, err := store.FindOrCreateTag(uow, "   ")
		return err
	})
	assert.Error(t, err)
}

func TestAttachDetachTag_CountConservation(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	mustCreateUser(t, store, "user_1", "Alice")
	mustCreateQuestion(t, store, "q_1", "user_1", "go")
	mustCreateQuestion(t, store, "q_2", "user_1", "go")

	tag, err := store.GetTagByName(ctx, "go")
	require.NoError(t, err)
	assert.Equal(t, 2, tag.QuestionCount)

	// Attaching again is idempotent.
	err = store.RunInTxn(ctx, func(uow *UnitOfWork) error {
		return store.AttachTagToQuestion(uow, tag.ID, "q_1")
	})
	require.NoError(t, err)

	tag, err = store.GetTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, tag.QuestionCount)

	// Detach drops the count by exactly one.
	err = store.RunInTxn(ctx, func(uow *UnitOfWork) error {
		return store.DetachTagFromQuestion(uow, tag.ID, "q_1")
	})
	require.NoError(t, err)

	tag, err = store.GetTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, tag.QuestionCount)

	// Detaching an absent association changes nothing.
	err = store.RunInTxn(ctx, func(uow *UnitOfWork) error {
		return store.DetachTagFromQuestion(uow, tag.ID, "q_1")
	})
	require.NoError(t, err)

	tag, err = store.GetTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, tag.QuestionCount)
}

func TestDetachTag_TagSurvivesAtZero(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	mustCreateUser(t, store, "user_1", "Alice")
	mustCreateQuestion(t, store, "q_1", "user_1", "orphaned")

	tag, err := store.GetTagByName(ctx, "orphaned")
	require.NoError(t, err)

	err = store.RunInTxn(ctx, func(uow *UnitOfWork) error {
		return store.DetachTagFromQuestion(uow, tag.ID, "q_1")
	})
	require.NoError(t, err)

	// Tag record remains, at zero, and still lists.
	tag, err = store.GetTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, tag.QuestionCount)

	page, err := store.ListTags(ctx, PageParams{Page: 1, PageSize: 50}, TagSortName)
	require.NoError(t, err)
	found := false
	for _, item := range page.Items {
		if item.ID == tag.ID {
			found = true
		}
	}
	assert.True(t, found, "zero-count tag missing from listing")
}

func TestListTags_SkipsIndexRows(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	mustCreateUser(t, store, "user_1", "Alice")
	// One tag, but three rows under tag:* — the document, the name index,
	// and the association index. Only the document may surface.
	mustCreateQuestion(t, store, "q_1", "user_1", "go")

	for _, sortBy := range []TagSort{TagSortName, TagSortPopular, TagSortRecent} {
		page, err := store.ListTags(ctx, PageParams{Page: 1, PageSize: 50}, sortBy)
		require.NoError(t, err)
		require.Equal(t, 1, page.Total, "sort %q leaked index rows", sortBy)
		assert.Equal(t, "go", page.Items[0].Name)
		assert.NotEmpty(t, page.Items[0].ID)
	}
}

func TestDeleteTagIfUnused(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	mustCreateUser(t, store, "user_1", "Alice")
	mustCreateQuestion(t, store, "q_1", "user_1", "go")

	tag, err := store.GetTagByName(ctx, "go")
	require.NoError(t, err)

	// Still referenced: refuses.
	assert.ErrorIs(t, store.DeleteTagIfUnused(ctx, tag.ID), ErrTagInUse)

	err = store.RunInTxn(ctx, func(uow *UnitOfWork) error {
		return store.DetachTagFromQuestion(uow, tag.ID, "q_1")
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteTagIfUnused(ctx, tag.ID))

	_, err = store.GetTag(ctx, tag.ID)
	assert.ErrorIs(t, err, ErrTagNotFound)
	_, err = store.GetTagByName(ctx, "go")
	assert.ErrorIs(t, err, ErrTagNotFound)

	// The name is free again for a fresh tag.
	fresh, created := findOrCreateTag(t, store, "go")
	assert.True(t, created)
	assert.NotEqual(t, tag.ID, fresh.ID)

	// Missing tag.
	assert.ErrorIs(t, store.DeleteTagIfUnused(ctx, "t_missing"), ErrTagNotFound)
}

func TestQuestionIDsForTag(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	mustCreateUser(t, store, "user_1", "Alice")
	mustCreateQuestion(t, store, "q_1", "user_1", "go")
	mustCreateQuestion(t, store, "q_2", "user_1", "go")
	mustCreateQuestion(t, store, "q_3", "user_1", "rust")

	tag, err := store.GetTagByName(ctx, "go")
	require.NoError(t, err)

	ids, err := store.QuestionIDsForTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"q_1", "q_2"}, ids)
}

func TestTopTags(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	mustCreateUser(t, store, "user_1", "Alice")
	mustCreateQuestion(t, store, "q_1", "user_1", "go", "testing")
	mustCreateQuestion(t, store, "q_2", "user_1", "go")
	mustCreateQuestion(t, store, "q_3", "user_1", "go", "testing", "rust")

	top, err := store.TopTags(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "go", top[0].Name)
	assert.Equal(t, 3, top[0].QuestionCount)
	assert.Equal(t, "testing", top[1].Name)
	assert.Equal(t, 2, top[1].QuestionCount)
}

func TestRecalculateTagQuestionCount(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	mustCreateUser(t, store, "user_1", "Alice")
	mustCreateQuestion(t, store, "q_1", "user_1", "go")
	mustCreateQuestion(t, store, "q_2", "user_1", "go")

	tag, err := store.GetTagByName(ctx, "go")
	require.NoError(t, err)

	// Corrupt the denormalized count, then repair it.
	err = store.RunInTxn(ctx, func(uow *UnitOfWork) error {
		tag.QuestionCount = 99
		return uow.setJSON([]byte(tagPrefix+tag.ID), tag)
	})
	require.NoError(t, err)

	require.NoError(t, store.RecalculateTagQuestionCount(ctx, tag.ID))

	tag, err = store.GetTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, tag.QuestionCount)
}
