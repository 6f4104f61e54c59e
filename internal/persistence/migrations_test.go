package persistence

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/data-collector/migrations"
)

func TestMigrationFilesSorted(t *testing.T) {
	fsys := fstest.MapFS{
		"002_add_index.sql":      {Data: []byte("SELECT 2;")},
		"001_search_history.sql": {Data: []byte("SELECT 1;")},
		"README.md":              {Data: []byte("notes")},
		"archive/000_old.sql":    {Data: []byte("SELECT 0;")},
	}

	names, err := migrationFiles(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_search_history.sql", "002_add_index.sql"}, names)
}

func TestEmbeddedMigrations(t *testing.T) {
	names, err := migrationFiles(migrations.FS)
	require.NoError(t, err)
	assert.Contains(t, names, "001_search_history.sql")
}
