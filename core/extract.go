package sah

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ExtractStats summarizes an Extract call.
type ExtractStats struct {
	// FileCount is the number of files written.
	FileCount int

	// TotalBytes is the number of content bytes written.
	TotalBytes uint64

	// Skipped is the number of files left alone because they already existed.
	Skipped int
}

type extractJob struct {
	rel  string
	file *File
}

// Extract writes every file below the folder at folderPath into destDir,
// recreating the folder structure. folderPath is resolved like
// ResolveFolder; "/" extracts the whole archive.
//
// Every relative path is validated before anything is written; names that
// would escape destDir fail with fs.ErrInvalid. Files are written to a
// temp file and renamed into place. Existing files are skipped unless
// ExtractWithOverwrite is set.
func (a *Archive) Extract(destDir, folderPath string, opts ...ExtractOption) (ExtractStats, error) {
	cfg := extractConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	workers := cfg.workers
	if workers <= 0 {
		workers = defaultExtractWorkers
	}

	folder, err := a.ResolveFolder(folderPath)
	if err != nil {
		return ExtractStats{}, err
	}

	var jobs []extractJob //nolint:prealloc // size unknown until iteration
	seen := make(map[string]struct{})
	for rel, f := range FilesUnder(folder) {
		if !safeRelPath(rel) {
			return ExtractStats{}, &fs.PathError{Op: "extract", Path: rel, Err: fs.ErrInvalid}
		}
		// Repeated paths all target one destination; the first in header
		// order wins.
		if _, dup := seen[rel]; dup {
			a.log().Debug("duplicate path not extracted", "path", rel)
			continue
		}
		seen[rel] = struct{}{}
		jobs = append(jobs, extractJob{rel: rel, file: f})
	}

	var (
		mu    sync.Mutex
		stats ExtractStats
		g     errgroup.Group
	)
	g.SetLimit(workers)
	for _, job := range jobs {
		g.Go(func() error {
			written, err := a.extractOne(destDir, job, cfg.overwrite)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if !written {
				stats.Skipped++
				return nil
			}
			stats.FileCount++
			stats.TotalBytes += job.file.Length
			return nil
		})
	}
	err = g.Wait()
	a.log().Debug("extract finished",
		"folder", folderPath,
		"files", stats.FileCount,
		"bytes", stats.TotalBytes,
		"skipped", stats.Skipped,
	)
	return stats, err
}

// extractOne writes a single file, reporting false if it was skipped.
func (a *Archive) extractOne(destDir string, job extractJob, overwrite bool) (bool, error) {
	destPath := filepath.Join(destDir, filepath.FromSlash(job.rel))
	if !overwrite {
		if _, err := os.Lstat(destPath); err == nil {
			return false, nil
		}
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return false, fmt.Errorf("create directory for %s: %w", job.rel, err)
	}

	data, err := a.ReadData(job.file)
	if err != nil {
		return false, &fs.PathError{Op: "extract", Path: job.rel, Err: err}
	}
	if err := writeFileAtomic(destPath, data, overwrite); err != nil {
		return false, err
	}
	a.log().Debug("extracted file", "path", job.rel, "bytes", len(data))
	return true, nil
}

// writeFileAtomic writes data to destPath through a temp file and rename.
func writeFileAtomic(destPath string, data []byte, overwrite bool) error {
	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".sah-")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	// Refuse to replace a directory with a file.
	if overwrite {
		if info, err := os.Stat(destPath); err == nil && info.IsDir() {
			return &fs.PathError{Op: "extract", Path: destPath, Err: errors.New("is a directory")}
		}
		_ = os.Remove(destPath) // ignore error; rename will fail if removal was needed but failed
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("renaming to destination: %w", err)
	}
	success = true
	return nil
}

// safeRelPath reports whether rel stays inside the destination directory
// on every platform.
func safeRelPath(rel string) bool {
	if !fs.ValidPath(rel) || rel == "." {
		return false
	}
	if strings.ContainsAny(rel, `\:`) {
		return false
	}
	return filepath.IsLocal(filepath.FromSlash(rel))
}
