package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	maxLineSize  = 1024 * 1024
	pollInterval = 250 * time.Millisecond
)

// Read returns up to limit of the newest entries in path that match filter,
// oldest first, plus the file offset reading stopped at. A missing log reads
// as empty. limit <= 0 returns every match.
func Read(path string, filter Filter, limit int) ([]Entry, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open run log: %w", err)
	}
	defer file.Close()

	var ring []Entry
	start := 0
	err = scan(file, func(entry Entry) {
		if !filter.match(entry) {
			return
		}
		if limit <= 0 || len(ring) < limit {
			ring = append(ring, entry)
			return
		}
		ring[start] = entry
		start = (start + 1) % limit
	})
	if err != nil {
		return nil, 0, err
	}
	offset, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, fmt.Errorf("determine log offset: %w", err)
	}
	out := make([]Entry, 0, len(ring))
	out = append(out, ring[start:]...)
	out = append(out, ring[:start]...)
	return out, offset, nil
}

// Follow calls fn for every matching entry appended after offset until ctx
// is done. A truncated log is read again from the start. Writes to the log's
// directory wake the reader early; the poll interval still applies when no
// watcher can be set up.
func Follow(ctx context.Context, path string, offset int64, filter Filter, fn func(Entry)) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var events <-chan fsnotify.Event
	var watchErrs <-chan error
	if watcher, err := fsnotify.NewWatcher(); err == nil {
		defer watcher.Close()
		if watcher.Add(filepath.Dir(path)) == nil {
			events = watcher.Events
			watchErrs = watcher.Errors
		}
	}

	name := filepath.Clean(path)
	for {
		next, err := readFrom(path, offset, filter, fn)
		if err != nil {
			return err
		}
		offset = next
	wait:
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				break wait
			case event, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				if filepath.Clean(event.Name) == name && event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					break wait
				}
			case _, ok := <-watchErrs:
				if !ok {
					watchErrs = nil
				}
			}
		}
	}
}

func readFrom(path string, offset int64, filter Filter, fn func(Entry)) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return offset, fmt.Errorf("open run log: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat run log: %w", err)
	}
	if offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek run log: %w", err)
	}

	// Only whole lines are consumed; a partially written line is read on the
	// next poll.
	reader := bufio.NewReaderSize(file, 64*1024)
	for {
		line, err := reader.ReadString('\n')
		if err == io.EOF {
			return offset, nil
		}
		if err != nil {
			return offset, fmt.Errorf("read run log: %w", err)
		}
		offset += int64(len(line))
		if text := trimNewline(line); text != "" {
			if entry := parseEntry(text); filter.match(entry) {
				fn(entry)
			}
		}
	}
}

func scan(r io.Reader, fn func(Entry)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			fn(parseEntry(line))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read run log: %w", err)
	}
	return nil
}

func trimNewline(line string) string {
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line
}
