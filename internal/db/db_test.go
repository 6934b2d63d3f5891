package db

import (
	"errors"
	"fmt"
	"testing"
	"testing/fstest"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstraintDetection(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})
	fk := &pq.Error{Code: "23503"}
	syntax := &pq.Error{Code: "42601"}

	assert.True(t, IsUniqueViolation(unique))
	assert.True(t, IsIntegrityViolation(unique))

	assert.False(t, IsUniqueViolation(fk))
	assert.True(t, IsIntegrityViolation(fk))

	assert.False(t, IsIntegrityViolation(syntax))
	assert.False(t, IsIntegrityViolation(errors.New("plain")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestPendingVersions(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/002_indexes.sql": {Data: []byte("SELECT 1")},
		"migrations/001_init.sql":    {Data: []byte("SELECT 1")},
		"migrations/003_more.sql":    {Data: []byte("SELECT 1")},
		"migrations/README.md":       {Data: []byte("notes")},
	}

	got, err := pendingVersions(fsys, map[string]bool{"002_indexes": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init", "003_more"}, got)
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	got, err := pendingVersions(migrationFiles, nil)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "001_init", got[0])
}
