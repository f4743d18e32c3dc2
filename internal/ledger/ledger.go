// Package ledger implements the CSV files that make scraping runs durable.
// Discovery and detail scraping write every record to disk as soon as it is
// produced, so a crashed run loses at most the record in flight and the
// importer can replay a ledger into the database at any later time.
package ledger

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// RawRow is one data row keyed by header column. Values are the raw CSV cell
// strings; interpreting them is the importer's job.
type RawRow map[string]string

// FileInfo describes one ledger file in a listing.
type FileInfo struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Modified int64  `json:"modified"`
}

// ListFiles returns the CSV files in dir, newest first.
func ListFiles(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list ledger directory: %w", err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".csv" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:     entry.Name(),
			Path:     filepath.Join(dir, entry.Name()),
			Size:     info.Size(),
			Modified: info.ModTime().Unix(),
		})
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Modified > files[j].Modified
	})
	return files, nil
}

// appendRow writes one CSV row to path, creating the file if needed. The file
// is opened, flushed and closed per call so every record is durable on its
// own.
func appendRow(path string, truncate bool, row []string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_APPEND
	if truncate {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open ledger file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		return fmt.Errorf("failed to write ledger row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush ledger row: %w", err)
	}
	return f.Sync()
}

// readRows parses path into header and data rows. A missing file yields no
// rows and no error.
func readRows(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to open ledger file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	// Rows written by older runs may differ in width; keep them readable.
	r.FieldsPerRecord = -1

	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read ledger file: %w", err)
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	return all[0], all[1:], nil
}
