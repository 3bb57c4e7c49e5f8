// Package extract copies the tagged files under a scope directory into a
// sibling directory that mirrors their relative layout, and removes that
// copy again.
package extract

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"mediatagger/internal/errors"
	"mediatagger/internal/log"
	"mediatagger/internal/tags"
	"mediatagger/pkg/types"
)

// DefaultSuffix is appended to the scope directory name
const DefaultSuffix = "-best"

// TagSource supplies the current tag mapping
type TagSource interface {
	Load() (map[string]tags.Record, error)
}

// Extractor projects the tag store onto the filesystem. It never modifies
// the tag store.
type Extractor struct {
	source TagSource
	suffix string
	logger log.Logging
}

// New creates an Extractor. An empty suffix means DefaultSuffix.
func New(source TagSource, suffix string, logger log.Logging) *Extractor {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Extractor{source: source, suffix: suffix, logger: logger}
}

// Destination returns the sibling directory extraction writes to for scope:
// <parent>/<base><suffix>. The filesystem root has no sibling and is rejected.
func (e *Extractor) Destination(scopeDir string) (string, error) {
	scope := tags.Normalize(scopeDir)
	parent := filepath.Dir(scope)
	if parent == scope {
		return "", errors.NewFileError("cannot extract from the filesystem root", scope, errors.InvalidPath, nil)
	}
	return filepath.Join(parent, filepath.Base(scope)+e.suffix), nil
}

// Within reports whether path is scopeDir itself or lies beneath it. The
// test is on whole path elements, so /a/bc is not within /a/b.
func Within(path, scopeDir string) bool {
	if path == scopeDir {
		return true
	}
	prefix := scopeDir
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}

// Extract copies every tagged entry within scopeDir to the destination
// tree. Tagged directories are copied recursively. Existing destination
// files are overwritten. A file that cannot be copied is reported as a
// CopyError result and the pass continues.
func (e *Extractor) Extract(scopeDir string) (*types.ExtractReport, error) {
	scope := tags.Normalize(scopeDir)
	dest, err := e.Destination(scope)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(scope)
	if err != nil {
		return nil, errors.NewFileError("cannot read scope directory", scope, errors.FileNotFound, err)
	}
	if !info.IsDir() {
		return nil, errors.NewFileError("scope is not a directory", scope, errors.InvalidPath, nil)
	}

	records, err := e.source.Load()
	if err != nil {
		return nil, err
	}

	var tagged []string
	for p := range records {
		if Within(p, scope) {
			tagged = append(tagged, p)
		}
	}
	sort.Strings(tagged)

	logger := e.logger.With(log.F("scope", scope), log.F("destination", dest))
	logger.Infof("Extracting %d tagged entries", len(tagged))

	report := &types.ExtractReport{ScopeDir: scope, Destination: dest}
	seen := make(map[string]bool)
	for _, p := range tagged {
		for _, res := range e.extractEntry(scope, dest, p, seen) {
			if res.Error != nil {
				log.LogWithError(res.Error).Warn("Skipping file that failed to copy")
			}
			report.Results = append(report.Results, res)
		}
	}

	logger.With(log.F("copied", report.Copied()), log.F("failed", len(report.Failed()))).Info("Extraction finished")
	return report, nil
}

func (e *Extractor) extractEntry(scope, dest, path string, seen map[string]bool) []types.ExtractResult {
	info, err := os.Stat(path)
	if err != nil {
		return []types.ExtractResult{failed(path, "", err)}
	}
	if !info.IsDir() {
		return e.copyOnce(scope, dest, path, seen)
	}

	var results []types.ExtractResult
	walkErr := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			results = append(results, failed(p, "", err))
			if d != nil && d.IsDir() && p != path {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		results = append(results, e.copyOnce(scope, dest, p, seen)...)
		return nil
	})
	if walkErr != nil {
		results = append(results, failed(path, "", walkErr))
	}
	return results
}

func (e *Extractor) copyOnce(scope, dest, src string, seen map[string]bool) []types.ExtractResult {
	rel, err := filepath.Rel(scope, src)
	if err != nil {
		return []types.ExtractResult{failed(src, "", err)}
	}
	target := filepath.Join(dest, rel)
	if seen[target] {
		return nil
	}
	seen[target] = true

	if err := copyFile(src, target); err != nil {
		return []types.ExtractResult{failed(src, target, err)}
	}
	e.logger.With(log.F("src", src), log.F("dst", target)).Debug("Copied")
	return []types.ExtractResult{{SourcePath: src, DestinationPath: target, Copied: true}}
}

func failed(src, dst string, err error) types.ExtractResult {
	return types.ExtractResult{
		SourcePath:      src,
		DestinationPath: dst,
		Error:           errors.NewCopyError(src, dst, err),
	}
}

// copyFile copies src to dst, creating dst's directory and replacing any
// existing file. The source permission bits are kept.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return errors.NewFileError("not a regular file", src, errors.InvalidPath, nil)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chmod(dst, info.Mode().Perm())
}

// RemoveExtracted deletes the whole destination tree for scopeDir. It
// reports false when there was nothing to remove. Removal is permanent.
func (e *Extractor) RemoveExtracted(scopeDir string) (bool, error) {
	dest, err := e.Destination(scopeDir)
	if err != nil {
		return false, err
	}

	if _, err := os.Lstat(dest); os.IsNotExist(err) {
		e.logger.With(log.F("destination", dest)).Debug("Nothing extracted to remove")
		return false, nil
	} else if err != nil {
		return false, errors.NewFileError("cannot read extraction directory", dest, errors.FileAccessDenied, err)
	}

	if err := os.RemoveAll(dest); err != nil {
		return false, errors.NewFileError("failed to remove extraction directory", dest, errors.FileOperationFailed, err)
	}
	e.logger.With(log.F("destination", dest)).Info("Removed extracted files")
	return true, nil
}
