// Copyright 2025 The GitGud Authors. All rights reserved.

package model

import (
	"errors"
	"io/fs"
	"testing"
)

func TestLoaderMissingFile(t *testing.T) {
	l := NewLoader(nil, "testdata")
	_, err := l.Load("definitely-missing.obj")
	if err == nil {
		t.Fatal("no error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("error %v does not unwrap to fs.ErrNotExist", err)
	}
	if len(l.cache) != 0 {
		t.Fatal("failed load was cached")
	}
}

func TestLoaderSharesModels(t *testing.T) {
	l := NewLoader(nil, "testdata")
	seeded := &Model{}
	l.cache["tree.obj"] = seeded
	m, err := l.Load("tree.obj")
	if err != nil {
		t.Fatal(err)
	}
	if m != seeded {
		t.Fatal("cached model was not reused")
	}
}

func TestLoaderDestroyAll(t *testing.T) {
	l := NewLoader(nil, "testdata")
	l.cache["a.obj"] = &Model{}
	l.cache["b.obj"] = &Model{}
	l.DestroyAll()
	if len(l.cache) != 0 {
		t.Fatalf("cache holds %d models after DestroyAll", len(l.cache))
	}
	// A second call on the emptied loader is a no-op.
	l.DestroyAll()
}
