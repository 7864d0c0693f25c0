package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(files, "sql")
	require.NoError(t, err)

	var up, down int
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			up++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			down++
		}
	}
	assert.Equal(t, 2, up)
	assert.Equal(t, up, down, "every migration needs a down file")
}

func TestEmbeddedMigrations_Source(t *testing.T) {
	src, err := iofs.New(files, "sql")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	next, err := src.Next(first)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next)
}

func TestNotesCascadeOnUserDelete(t *testing.T) {
	data, err := fs.ReadFile(files, "sql/000002_create_notes.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(data), "ON DELETE CASCADE")
}

func TestUp_InvalidDSN(t *testing.T) {
	assert.Error(t, Up("not-a-dsn"))
}
