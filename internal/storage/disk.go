package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Usage is the on-disk footprint of a glossary installation.
type Usage struct {
	Database  int64 `json:"database"`
	TermIndex int64 `json:"term_index"`
	Uploads   int64 `json:"uploads"`
}

// Total returns the sum of all parts.
func (u Usage) Total() int64 {
	return u.Database + u.TermIndex + u.Uploads
}

// MeasureUsage sizes the database file together with its -wal and -shm
// sidecars, the term index directory and the upload directory. Missing paths
// count as zero.
func MeasureUsage(databasePath, indexPath, uploadDir string) (Usage, error) {
	var u Usage
	var err error
	for _, p := range []string{databasePath, databasePath + "-wal", databasePath + "-shm"} {
		if databasePath == "" {
			break
		}
		n, err := pathSize(p)
		if err != nil {
			return Usage{}, err
		}
		u.Database += n
	}
	if u.TermIndex, err = pathSize(indexPath); err != nil {
		return Usage{}, err
	}
	if u.Uploads, err = pathSize(uploadDir); err != nil {
		return Usage{}, err
	}
	return u, nil
}

// pathSize returns the size of a file, or of every file below a directory.
func pathSize(p string) (int64, error) {
	if p == "" {
		return 0, nil
	}
	var total int64
	err := filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	return total, err
}
