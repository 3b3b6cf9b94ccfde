package script

import (
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapfr/engine/internal/entity"
)

func TestEngineRunMutatesFields(t *testing.T) {
	feed := &entity.Feed{ID: mustUUID(t), Title: "Example Feed"}
	source := &entity.Source{ID: mustUUID(t), Title: "Example Source"}
	post := &entity.Post{Title: "original", Content: "body"}

	s := &entity.Script{
		Title:     "uppercase-title",
		IsEnabled: true,
		Body:      `post.title = string.upper(post.title) .. " - " .. feed.title`,
	}

	e := New()
	var gotErr error
	e.Run([]*entity.Script{s}, source, feed, post, func(_ *entity.Script, err error) { gotErr = err })

	require.NoError(t, gotErr)
	assert.Equal(t, "ORIGINAL - Example Feed", post.Title)
}

func TestEngineRunRecoversScriptError(t *testing.T) {
	feed := &entity.Feed{ID: mustUUID(t)}
	source := &entity.Source{ID: mustUUID(t)}
	post := &entity.Post{Title: "unchanged"}

	bad := &entity.Script{Title: "broken", IsEnabled: true, Body: "this is not lua("}
	good := &entity.Script{Title: "fine", IsEnabled: true, Body: `post.title = "fixed"`}

	var errs []error
	e := New()
	e.Run([]*entity.Script{bad, good}, source, feed, post, func(_ *entity.Script, err error) {
		errs = append(errs, err)
	})

	require.Len(t, errs, 1)
	assert.Equal(t, "fixed", post.Title)
}

func TestEngineRunAppliesListFields(t *testing.T) {
	feed := &entity.Feed{ID: mustUUID(t)}
	source := &entity.Source{ID: mustUUID(t)}
	post := &entity.Post{Categories: []string{"a"}}

	s := &entity.Script{
		Title:     "add-flag",
		IsEnabled: true,
		Body: `
			table.insert(post.categories, "b")
			table.insert(post.flags, "red")
		`,
	}

	e := New()
	e.Run([]*entity.Script{s}, source, feed, post, func(_ *entity.Script, err error) {
		require.NoError(t, err)
	})

	assert.Equal(t, []string{"a", "b"}, post.Categories)
	assert.Equal(t, []entity.FlagColor{entity.FlagRed}, post.Flags)
}

func TestEngineRunAssignsScriptFolders(t *testing.T) {
	feed := &entity.Feed{ID: mustUUID(t)}
	source := &entity.Source{ID: mustUUID(t)}
	post := &entity.Post{Title: "t"}
	bucket := mustUUID(t)

	s := &entity.Script{
		Title:     "file-into-bucket",
		IsEnabled: true,
		Body:      `table.insert(post.scriptfolders, "` + bucket.String() + `")`,
	}

	e := New()
	e.Run([]*entity.Script{s}, source, feed, post, func(_ *entity.Script, err error) {
		require.NoError(t, err)
	})

	assert.Equal(t, []uuid.UUID{bucket}, post.ScriptFolders)
}

func mustUUID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.NewV4()
	require.NoError(t, err)
	return id
}
