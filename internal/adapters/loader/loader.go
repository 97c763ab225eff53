// Package loader provides local document loading adapters.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/0xcro3dile/linesearch-go/internal/domain/entities"
	"github.com/0xcro3dile/linesearch-go/internal/domain/ports"
)

var _ ports.DocumentLoader = (*TextLoader)(nil)

// DefaultExtensions are the file types the UI advertises.
// Every one of them is read as newline-delimited plain text; spreadsheets,
// PDFs and archives are not decoded.
var DefaultExtensions = []string{".txt", ".md", ".csv", ".tsv", ".json", ".log", ".pdf", ".xlsx", ".zip"}

// TextLoader reads local files fully into memory as text.
type TextLoader struct {
	extensions []string
}

// NewTextLoader creates a loader accepting the given extensions.
// An empty list means DefaultExtensions.
func NewTextLoader(extensions ...string) *TextLoader {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	norm := make([]string, 0, len(extensions))
	for _, e := range extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		norm = append(norm, e)
	}
	return &TextLoader{extensions: norm}
}

// Load reads the file at path. The document name is the base file name.
func (l *TextLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !l.Accepts(path) {
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &entities.Document{
		Name:    filepath.Base(path),
		Path:    path,
		Content: strings.ToValidUTF8(string(data), "�"),
	}, nil
}

// Accepts reports whether path has one of the loader's extensions.
func (l *TextLoader) Accepts(path string) bool {
	return slices.Contains(l.extensions, strings.ToLower(filepath.Ext(path)))
}

// SupportedExtensions returns the accepted extensions.
func (l *TextLoader) SupportedExtensions() []string {
	return slices.Clone(l.extensions)
}
