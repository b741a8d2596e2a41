// Copyright 2025 The GitGud Authors. All rights reserved.

package model

import (
	"log/slog"
	"path/filepath"

	"github.com/gitgud/glade/device"
)

// Loader loads models from a directory and shares one Model per file.
// It owns the GPU buffers of every model it returns; DestroyAll
// releases them together.
type Loader struct {
	dev   *device.Device
	dir   string
	cache map[string]*Model
}

// NewLoader returns a loader reading OBJ files from dir.
func NewLoader(dev *device.Device, dir string) *Loader {
	return &Loader{dev: dev, dir: dir, cache: make(map[string]*Model)}
}

// Load returns the model for the named file, loading and uploading it
// on first use. Later calls with the same name return the same Model.
func (l *Loader) Load(name string) (*Model, error) {
	if m, ok := l.cache[name]; ok {
		return m, nil
	}
	m, err := Load(l.dev, filepath.Join(l.dir, name))
	if err != nil {
		return nil, err
	}
	slog.Debug("model loaded", "name", name, "vertices", m.vertexCount)
	l.cache[name] = m
	return m, nil
}

// DestroyAll releases every loaded model. The device must be idle.
func (l *Loader) DestroyAll() {
	for _, m := range l.cache {
		m.Destroy()
	}
	l.cache = make(map[string]*Model)
}
