package storage

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanKey(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "exports/e1.json", want: "exports/e1.json"},
		{key: "/exports//e1.json", want: "exports/e1.json"},
		{key: `exports\e1.json`, want: "exports/e1.json"},
		{key: "./a/../b.json", want: "b.json"},
		{key: "../escape.json", wantErr: true},
		{key: "a/../../escape.json", wantErr: true},
		{key: "  ", wantErr: true},
		{key: ".", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			got, err := CleanKey(tc.key)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFileStoreWrite(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	key, err := store.Write(context.Background(), "exports/e1.json", []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, "exports/e1.json", key)

	data, err := os.ReadFile(filepath.Join(store.Root(), "exports", "e1.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	entries, err := os.ReadDir(filepath.Join(store.Root(), "exports"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")

	_, err = store.Write(context.Background(), "../x.json", nil)
	assert.ErrorIs(t, err, ErrInvalidKey)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Write(ctx, "y.json", nil)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = NewFileStore(" ")
	assert.ErrorIs(t, err, ErrNoRoot)
}

func TestArchive(t *testing.T) {
	modified := time.Date(2025, 10, 2, 9, 0, 0, 0, time.UTC)
	data, err := Archive([]Entry{
		{Name: "e1.json", Data: []byte("one"), Modified: modified},
		{Name: "nested/e2.json", Data: []byte("two"), Modified: modified},
	})
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "e1.json", zr.File[0].Name)
	assert.Equal(t, "nested/e2.json", zr.File[1].Name)

	rc, err := zr.File[1].Open()
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "two", string(body))

	_, err = Archive([]Entry{{Name: "../bad.json"}})
	assert.ErrorIs(t, err, ErrInvalidKey)
}
