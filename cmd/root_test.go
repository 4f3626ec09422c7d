package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	root := NewRootCmd()

	for _, path := range [][]string{
		{"serve"},
		{"identify"},
		{"register"},
		{"books", "list"},
		{"books", "delete"},
		{"books", "reembed"},
		{"seed"},
		{"eval", "label"},
		{"eval", "inspect"},
		{"eval", "run"},
		{"eval", "report"},
	} {
		found, _, err := root.Find(path)
		require.NoError(t, err, path)
		if found.Name() != path[len(path)-1] {
			t.Errorf("Expected command %s, got %s", path[len(path)-1], found.Name())
		}
	}
}

func TestBooksCommandsWithSQLite(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_DSN", filepath.Join(dir, "books.db"))
	t.Setenv("COVERS_DIR", filepath.Join(dir, "covers"))

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)

	root.SetArgs([]string{"books", "list"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "ID")

	out.Reset()
	root = NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"books", "delete", "42"})
	assert.Error(t, root.Execute())

	_, err := os.Stat(filepath.Join(dir, "books.db"))
	assert.NoError(t, err)
}

func TestParseBookID(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"12", 12, false},
		{"0", 0, true},
		{"-1", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		id, err := parseBookID(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err)
		if int64(id) != tt.want {
			t.Errorf("Expected %d, got %d", tt.want, id)
		}
	}
}

func TestReadISBNs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "isbns.txt")
	require.NoError(t, os.WriteFile(path, []byte("# seeds\n9780394800165\n\n 0064400557 \n"), 0644))

	isbns, err := readISBNs(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"9780394800165", "0064400557"}, isbns)
}
