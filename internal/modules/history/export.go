package history

import (
	"errors"
	"fmt"
	"time"
)

// ExportVersion is the only supported export file version.
const ExportVersion = 1

// ErrInvalidImport aborts an import whose file fails validation; no
// partial merge is applied.
var ErrInvalidImport = errors.New("invalid history import file")

// ExportFile is the interchange format for history backup and restore.
type ExportFile struct {
	Version    int       `json:"version"`
	ExportedAt time.Time `json:"exportedAt"`
	Count      int       `json:"count"`
	Items      []Entry   `json:"items"`
}

// NewExportFile snapshots the given entries.
func NewExportFile(items []Entry) *ExportFile {
	return &ExportFile{
		Version:    ExportVersion,
		ExportedAt: time.Now().UTC(),
		Count:      len(items),
		Items:      items,
	}
}

// ValidateImport checks the whole file before any merge happens. Any
// invalid item rejects the entire import.
func ValidateImport(file *ExportFile) error {
	if file == nil {
		return fmt.Errorf("%w: empty file", ErrInvalidImport)
	}
	if file.Version != ExportVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidImport, file.Version)
	}
	for i, item := range file.Items {
		if item.PaperID == "" && item.URL == "" {
			return fmt.Errorf("%w: item %d has no paper identity", ErrInvalidImport, i)
		}
		if item.Variant == "" {
			return fmt.Errorf("%w: item %d has no variant", ErrInvalidImport, i)
		}
		if item.Markdown == "" {
			return fmt.Errorf("%w: item %d has no content", ErrInvalidImport, i)
		}
		if item.CreatedAt.IsZero() {
			return fmt.Errorf("%w: item %d has no timestamp", ErrInvalidImport, i)
		}
	}
	return nil
}
