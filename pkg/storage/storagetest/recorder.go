// Package storagetest provides an in-memory Store that records calls.
package storagetest

import (
	"context"
	"io"
	"sync"
)

// Recorder is an in-memory Store. PutErr fails every Put; FailPutOn fails only
// the Nth Put (1-based). DeleteErr fails every Delete.
type Recorder struct {
	mu        sync.Mutex
	Objects   map[string][]byte
	Puts      []string
	Deletes   []string
	PutErr    error
	FailPutOn int
	DeleteErr error
	BaseURL   string
}

func New() *Recorder {
	return &Recorder{Objects: map[string][]byte{}, BaseURL: "https://blobs.test"}
}

func (r *Recorder) Put(_ context.Context, key string, content io.Reader, _ string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Puts = append(r.Puts, key)
	if r.PutErr != nil {
		return "", r.PutErr
	}
	if r.FailPutOn > 0 && len(r.Puts) == r.FailPutOn {
		return "", io.ErrUnexpectedEOF
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	if r.Objects == nil {
		r.Objects = map[string][]byte{}
	}
	r.Objects[key] = data
	return r.BaseURL + "/" + key, nil
}

func (r *Recorder) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Deletes = append(r.Deletes, key)
	if r.DeleteErr != nil {
		return r.DeleteErr
	}
	delete(r.Objects, key)
	return nil
}

// Has reports whether key is currently stored.
func (r *Recorder) Has(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.Objects[key]
	return ok
}

// Len returns the number of stored objects.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Objects)
}
