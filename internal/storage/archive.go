package storage

import (
	"archive/zip"
	"bytes"
	"fmt"
	"time"
)

// Entry is one file of an archive.
type Entry struct {
	Name     string
	Data     []byte
	Modified time.Time
}

// Archive zips entries in order. Names go through CleanKey, so a bad name
// fails the whole archive instead of being skipped.
func Archive(entries []Entry) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, e := range entries {
		name, err := CleanKey(e.Name)
		if err != nil {
			return nil, fmt.Errorf("storage: archive entry %q: %w", e.Name, err)
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: e.Modified})
		if err != nil {
			return nil, fmt.Errorf("storage: archive entry %s: %w", name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			return nil, fmt.Errorf("storage: archive entry %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("storage: close archive: %w", err)
	}
	return buf.Bytes(), nil
}
