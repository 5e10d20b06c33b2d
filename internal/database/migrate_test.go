package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "postgres scheme",
			input:    "postgres://u:p@localhost:5432/db?sslmode=disable",
			expected: "pgx5://u:p@localhost:5432/db?sslmode=disable",
		},
		{
			name:     "postgresql scheme",
			input:    "postgresql://u:p@db:5432/catalog",
			expected: "pgx5://u:p@db:5432/catalog",
		},
		{
			name:     "already pgx5",
			input:    "pgx5://u:p@db:5432/catalog",
			expected: "pgx5://u:p@db:5432/catalog",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, migrateURL(tt.input))
		})
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	assert.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}

	assert.Contains(t, names, "000001_create_catalog.up.sql")
	assert.Contains(t, names, "000001_create_catalog.down.sql")
}
