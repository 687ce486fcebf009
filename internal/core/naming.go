package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Generated file naming.
const (
	FilePrefix      = "Clientes_"
	FileExt         = ".xlsx"
	FileStampLayout = "20060102150405"
)

// ErrNoGeneratedFile means the output directory holds no generated workbook.
var ErrNoGeneratedFile = errors.New("no generated file")

// FileName returns Clientes_<yyyyMMddHHmmss>.xlsx for t.
func FileName(t time.Time) string {
	return FilePrefix + t.Format(FileStampLayout) + FileExt
}

// IsGeneratedName reports whether name matches Clientes_*.xlsx.
func IsGeneratedName(name string) bool {
	return strings.HasPrefix(name, FilePrefix) && strings.EqualFold(filepath.Ext(name), FileExt)
}

// GeneratedFile is a workbook found in the output directory.
type GeneratedFile struct {
	Name    string
	Path    string
	ModTime time.Time
}

// LatestGenerated returns the generated workbook in dir with the newest
// modification time. Ties go to the lexically greater name.
func LatestGenerated(dir string) (GeneratedFile, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return GeneratedFile{}, ErrNoGeneratedFile
	}
	if err != nil {
		return GeneratedFile{}, fmt.Errorf("read output dir: %w", err)
	}

	var (
		best  GeneratedFile
		found bool
	)
	for _, e := range entries {
		if e.IsDir() || !IsGeneratedName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		mod := info.ModTime()
		if !found || mod.After(best.ModTime) || (mod.Equal(best.ModTime) && e.Name() > best.Name) {
			best = GeneratedFile{Name: e.Name(), Path: filepath.Join(dir, e.Name()), ModTime: mod}
			found = true
		}
	}

	if !found {
		return GeneratedFile{}, ErrNoGeneratedFile
	}
	return best, nil
}

// ContentTypeFor maps a download name to its MIME type.
func ContentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}
