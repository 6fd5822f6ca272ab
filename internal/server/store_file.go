package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps every balance in one JSON object on disk. Each Get reads
// the whole file and each Put rewrites it. A missing file is an empty
// store.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) load() (map[string]int64, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]int64{}, nil
	}
	if err != nil {
		return nil, err
	}
	db := map[string]int64{}
	if err := json.Unmarshal(b, &db); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.Path, err)
	}
	return db, nil
}

// save replaces the file through a rename so readers never see a partial
// write.
func (s *FileStore) save(db map[string]int64) error {
	b, err := json.Marshal(db)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.Path), filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.Path)
}

func (s *FileStore) Get(_ context.Context, username string) (int64, bool, error) {
	db, err := s.load()
	if err != nil {
		return 0, false, err
	}
	v, ok := db[username]
	return v, ok, nil
}

func (s *FileStore) Put(_ context.Context, username string, money int64) error {
	db, err := s.load()
	if err != nil {
		return err
	}
	db[username] = money
	return s.save(db)
}

func (s *FileStore) Close() error { return nil }
