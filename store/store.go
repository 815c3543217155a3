package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"todotui/model"
)

// ArchiveName is the fixed archive file name, created next to the source.
const ArchiveName = "todo.archive.txt"

// Load decodes every line of path, in file order. An unopenable source is
// an error for the caller to treat as fatal; decoding itself never fails.
func Load(path string) ([]model.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open todo file: %w", err)
	}
	defer f.Close()

	records := make([]model.Record, 0, 64)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		records = append(records, model.Decode(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read todo file: %w", err)
	}
	return records, nil
}

// Persist rewrites path with every record, one encoded line each, in the
// given order.
func Persist(path string, records []model.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write todo file: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, r := range records {
		fmt.Fprintln(w, model.Encode(r))
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write todo file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write todo file: %w", err)
	}
	return nil
}

// AppendArchive appends records to path in the completed-line encoding,
// creating the file if absent. Once the file is open, writes are
// best-effort: a mid-stream failure leaves a partial archive.
func AppendArchive(path string, records []model.Record) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open archive file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, r := range records {
		fmt.Fprintln(w, model.Encode(r))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write archive file: %w", err)
	}
	return nil
}

// ArchivePath returns the archive file path for a source file: a sibling
// named ArchiveName in the same directory.
func ArchivePath(source string) string {
	return filepath.Join(filepath.Dir(source), ArchiveName)
}

// IsNamedPipe reports whether path is a FIFO, which switches the program
// into streaming ingestion mode.
func IsNamedPipe(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("stat todo file: %w", err)
	}
	return info.Mode()&os.ModeNamedPipe != 0, nil
}
