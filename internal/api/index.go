package api

import (
	"os"

	"golang.org/x/sync/singleflight"
)

// indexLoader reads the index document from disk on every request.
// Concurrent requests share a single read; nothing is kept afterwards.
type indexLoader struct {
	path  string
	group singleflight.Group
}

func newIndexLoader(path string) *indexLoader {
	return &indexLoader{path: path}
}

func (l *indexLoader) Load() ([]byte, error) {
	v, err, _ := l.group.Do(l.path, func() (interface{}, error) {
		return os.ReadFile(l.path)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}
