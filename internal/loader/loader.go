// Package loader resolves a project directory into the (path, content)
// sequence the analyzer consumes. Archive extraction and temp-file handling
// stay with the caller; the loader only walks an already-extracted tree.
package loader

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pascan/pascan/internal/analyzer"
)

// sourceExts are the file kinds the analyzer understands.
var sourceExts = map[string]bool{
	".pas": true,
	".dfm": true,
	".dpr": true,
}

// Load walks root and reads every Delphi source file not matched by the
// ignore patterns. Files are returned sorted by path so analysis input is
// deterministic. Unreadable files are logged and skipped; Load fails only
// when the root itself cannot be walked.
func Load(root string, ignore []string) ([]analyzer.SourceFile, error) {
	var files []analyzer.SourceFile

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if isIgnored(relPath, ignore) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !sourceExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("[loader] skipping unreadable file %s: %v", relPath, err)
			return nil
		}
		files = append(files, analyzer.SourceFile{
			Path:    filepath.ToSlash(relPath),
			Content: string(data),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	log.Printf("[loader] found %d source files in %s", len(files), root)
	return files, nil
}

// isIgnored checks whether a path matches any ignore pattern.
func isIgnored(relPath string, patterns []string) bool {
	relPath = filepath.ToSlash(relPath)

	for _, pattern := range patterns {
		if strings.HasSuffix(pattern, "/**") {
			dirPrefix := strings.TrimSuffix(pattern, "/**")
			if relPath == dirPrefix || strings.HasPrefix(relPath, dirPrefix+"/") {
				return true
			}
		}

		matched, err := filepath.Match(pattern, relPath)
		if err == nil && matched {
			return true
		}

		if strings.HasPrefix(pattern, "**/") {
			subPattern := strings.TrimPrefix(pattern, "**/")
			matched, err = filepath.Match(subPattern, filepath.Base(relPath))
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}
