// Package journal keeps an append-only JSON Lines record of preparation
// outcomes, rotated into an archive directory when it grows too large.
package journal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	DefaultMaxSize = 16 * 1024 * 1024
	FileExtension  = ".jsonl"
	ArchiveDir     = "archive"
)

const (
	EventPrepared = "prepared"
	EventFailed   = "failed"
)

// Entry is one line of the journal.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Event     string    `json:"event"`
	Source    string    `json:"source,omitempty"`
	Job       string    `json:"job,omitempty"`
	Sandbox   string    `json:"sandbox,omitempty"`
	PlanID    string    `json:"plan_id,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Journal is safe for concurrent use. A nil *Journal discards entries.
type Journal struct {
	mu        sync.Mutex
	file      *os.File
	path      string
	size      int64
	maxSize   int64
	rotations int
	now       func() time.Time
}

// Open appends to path, creating it and its directory when needed.
func Open(path string, maxSize int64) (*Journal, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}
	j := &Journal{path: path, maxSize: maxSize, now: time.Now}
	if err := j.open(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Journal) open() error {
	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat journal: %w", err)
	}
	j.file = f
	j.size = stat.Size()
	return nil
}

// Outcome records the result of one preparation attempt.
func (j *Journal) Outcome(source, job, sandbox, planID string, err error) error {
	e := Entry{Event: EventPrepared, Source: source, Job: job, Sandbox: sandbox, PlanID: planID}
	if err != nil {
		e.Event = EventFailed
		e.PlanID = ""
		e.Error = err.Error()
	}
	return j.Record(e)
}

// Record appends e, stamping it when Timestamp is zero.
func (j *Journal) Record(e Entry) error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	if e.Timestamp.IsZero() {
		e.Timestamp = j.now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal journal entry: %w", err)
	}
	data = append(data, '\n')

	var rotateErr error
	if j.file != nil && j.size > 0 && j.size+int64(len(data)) > j.maxSize {
		rotateErr = j.rotate()
	}
	if j.file == nil {
		if err := j.open(); err != nil {
			return errors.Join(rotateErr, err)
		}
	}

	n, err := j.file.Write(data)
	if err != nil {
		return fmt.Errorf("write journal entry: %w", err)
	}
	if err := j.file.Sync(); err != nil {
		return fmt.Errorf("sync journal: %w", err)
	}
	j.size += int64(n)
	if rotateErr != nil {
		return fmt.Errorf("rotate journal (entry kept in %s): %w", j.path, rotateErr)
	}
	return nil
}

// rotate leaves j.file nil; Record reopens j.path whether or not the archive
// step succeeded.
func (j *Journal) rotate() error {
	err := j.file.Close()
	j.file = nil
	if err != nil {
		return fmt.Errorf("close journal: %w", err)
	}

	archive := filepath.Join(filepath.Dir(j.path), ArchiveDir)
	if err := os.MkdirAll(archive, 0755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}

	j.rotations++
	base := strings.TrimSuffix(filepath.Base(j.path), FileExtension)
	name := fmt.Sprintf("%s.%s.%d%s", base, j.now().Format("20060102_150405"), j.rotations, FileExtension)
	if err := os.Rename(j.path, filepath.Join(archive, name)); err != nil {
		return fmt.Errorf("archive journal: %w", err)
	}
	return nil
}

func (j *Journal) Path() string {
	if j == nil {
		return ""
	}
	return j.path
}

func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return nil
	}
	if err := j.file.Sync(); err != nil {
		return err
	}
	err := j.file.Close()
	j.file = nil
	return err
}

// Read returns the entries of a journal file. Malformed lines are skipped.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	return entries, nil
}
