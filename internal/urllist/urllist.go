package urllist

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"ytkit/internal/fileutil"
)

// FileName is the conventional URL list name.
const FileName = "url_yt.txt"

const backupLayout = "20060102_150405"

// ReadLines returns the non-empty, non-comment lines of path, trimmed.
func ReadLines(path, encoding string) ([]string, error) {
	raw, err := readRawLines(path, encoding)
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, line := range raw {
		if !isComment(line) {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// readRawLines returns every non-empty line of path, trimmed, comments included.
func readRawLines(path, encoding string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text, err := DecodeText(data, encoding)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func isComment(line string) bool {
	return strings.HasPrefix(line, "#")
}

// ReadTargets treats target as a URL list file when one exists at that
// path, otherwise as a single literal URL.
func ReadTargets(target, encoding string) ([]string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, errors.New("empty target")
	}
	info, err := os.Stat(target)
	if err != nil || info.IsDir() {
		return []string{target}, nil
	}
	lines, err := ReadLines(target, encoding)
	if err != nil {
		return nil, err
	}
	return Normalize(lines), nil
}

// Normalize splits each value on commas and whitespace, drops empties, and
// removes duplicates while keeping first-seen order.
func Normalize(values []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, value := range values {
		fields := strings.FieldsFunc(value, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
		})
		for _, field := range fields {
			if _, dup := seen[field]; dup {
				continue
			}
			seen[field] = struct{}{}
			out = append(out, field)
		}
	}
	return out
}

// WriteResult reports what Write did.
type WriteResult struct {
	Path   string `json:"path"`
	Backup string `json:"backup,omitempty"`
	Total  int    `json:"total"`
	New    int    `json:"new"`
}

// Write stores urls as dir/url_yt.txt after passing them through Normalize.
// Without prepend the file is replaced by urls. With prepend, URLs not
// already listed go first, every existing non-empty line follows unchanged
// (comments included), and the previous file is copied to
// url_yt_<YYYYmmdd_HHMMSS>.bak.txt beforehand.
func Write(dir string, urls []string, prepend bool, now time.Time) (WriteResult, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return WriteResult{}, fmt.Errorf("create url dir: %w", err)
	}
	urls = Normalize(urls)
	path := filepath.Join(dir, FileName)
	result := WriteResult{Path: path}

	var existing []string
	if fileutil.Exists(path) {
		lines, err := readRawLines(path, "")
		if err != nil {
			return result, fmt.Errorf("read existing url list: %w", err)
		}
		existing = lines
		if prepend {
			ext := filepath.Ext(path)
			backup := fmt.Sprintf("%s_%s.bak%s", strings.TrimSuffix(path, ext), now.Format(backupLayout), ext)
			if err := fileutil.CopyFile(path, backup); err != nil {
				return result, fmt.Errorf("back up url list: %w", err)
			}
			result.Backup = backup
		}
	}

	var fresh []string
	for _, url := range urls {
		if !slices.Contains(existing, url) {
			fresh = append(fresh, url)
		}
	}
	result.New = len(fresh)

	lines := urls
	if prepend {
		lines = append(fresh, existing...)
	}
	var b strings.Builder
	for _, line := range lines {
		if !isComment(line) {
			result.Total++
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := fileutil.WriteFileAtomic(path, []byte(b.String()), 0o644); err != nil {
		return result, fmt.Errorf("write url list: %w", err)
	}
	return result, nil
}

// Find resolves spec to URL list files: a glob pattern ("**" matches any
// number of directories), a directory searched recursively for url_yt.txt,
// or a single file. Anything else searches the nearest existing parent.
func Find(spec string) ([]string, error) {
	if strings.ContainsAny(spec, "*?[") {
		return glob(spec)
	}
	info, err := os.Stat(spec)
	switch {
	case err == nil && info.IsDir():
		return findNamed(spec)
	case err == nil:
		return []string{spec}, nil
	}
	base := filepath.Dir(spec)
	if info, err := os.Stat(base); err != nil || !info.IsDir() {
		base = "."
	}
	return findNamed(base)
}

func findNamed(root string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return err
		}
		if !d.IsDir() && d.Name() == FileName {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", root, err)
	}
	slices.Sort(found)
	return found, nil
}

func glob(pattern string) ([]string, error) {
	pattern = filepath.Clean(pattern)
	if !strings.Contains(pattern, "**") {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		return onlyFiles(matches), nil
	}

	segments := strings.Split(filepath.ToSlash(pattern), "/")
	fixed := 0
	for fixed < len(segments) && !strings.ContainsAny(segments[fixed], "*?[") {
		fixed++
	}
	root := filepath.FromSlash(strings.Join(segments[:fixed], "/"))
	if root == "" {
		root = "."
		if strings.HasPrefix(pattern, string(filepath.Separator)) {
			root = string(filepath.Separator)
		}
	}
	rest := segments[fixed:]

	var matches []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if matchSegments(rest, strings.Split(filepath.ToSlash(rel), "/")) {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(matches)
	return matches, nil
}

// matchSegments matches path segments against pattern segments where "**"
// stands for zero or more segments.
func matchSegments(pattern, parts []string) bool {
	if len(pattern) == 0 {
		return len(parts) == 0
	}
	if pattern[0] == "**" {
		for i := 0; i <= len(parts); i++ {
			if matchSegments(pattern[1:], parts[i:]) {
				return true
			}
		}
		return false
	}
	if len(parts) == 0 {
		return false
	}
	ok, err := filepath.Match(pattern[0], parts[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(pattern[1:], parts[1:])
}

func onlyFiles(paths []string) []string {
	var files []string
	for _, path := range paths {
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			files = append(files, path)
		}
	}
	slices.Sort(files)
	return slices.Compact(files)
}
