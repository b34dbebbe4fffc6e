// Package sessionlog owns the append-only per-session fact logs, the only
// persisted state of the observation pipeline. One JSONL file per session:
// concurrent sessions never contend with each other, and within a session
// the assistant invokes hooks synchronously, so append order is arrival
// order.
package sessionlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chronicle-project/chronicle/pkg/errclass"
	"github.com/chronicle-project/chronicle/pkg/jsonutil"
	"github.com/chronicle-project/chronicle/pkg/model"
)

// Appender appends facts to a session log with a hash chain.
type Appender struct {
	path string
	mu   sync.Mutex
}

// NewAppender creates an Appender for the given session log path.
func NewAppender(path string) *Appender {
	return &Appender{path: path}
}

// Path returns the underlying log path.
func (a *Appender) Path() string { return a.path }

// Append stamps fact, links it into the hash chain, and writes it as a
// single line. The line is written with one write call so a concurrent
// reader never observes a partial fact.
func (a *Appender) Append(fact *model.Fact) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(a.path), 0755); err != nil {
		return errclass.ErrLogAppend.WithMessagef("create sessions dir: %v", err)
	}

	file, err := os.OpenFile(a.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return errclass.ErrLogAppend.WithMessagef("open session log: %v", err)
	}
	defer file.Close()

	if err := lockFile(file); err != nil {
		return errclass.ErrLogAppend.WithMessagef("flock session log: %v", err)
	}
	defer unlockFile(file)

	prevHash, err := lastRecordHashLocked(file)
	if err != nil {
		return errclass.ErrLogAppend.WithMessagef("read chain tail: %v", err)
	}

	if fact.Timestamp.IsZero() {
		fact.Timestamp = time.Now().UTC()
	}
	fact.PrevHash = prevHash

	recordHash, err := computeFactHash(fact)
	if err != nil {
		return errclass.ErrLogAppend.WithMessagef("compute fact hash: %v", err)
	}
	fact.RecordHash = recordHash

	line, err := json.Marshal(fact)
	if err != nil {
		return errclass.ErrLogAppend.WithMessagef("marshal fact: %v", err)
	}

	end, err := file.Seek(0, 2)
	if err != nil {
		return errclass.ErrLogAppend.WithMessagef("seek to end: %v", err)
	}
	// A crash mid-append can leave a partial line without a trailing
	// newline. Start on a fresh line so the tail stays parseable.
	line = append(line, '\n')
	if end > 0 {
		last := make([]byte, 1)
		if _, err := file.ReadAt(last, end-1); err == nil && last[0] != '\n' {
			line = append([]byte{'\n'}, line...)
		}
	}
	if _, err := file.Write(line); err != nil {
		return errclass.ErrLogAppend.WithMessagef("write fact: %v", err)
	}
	if err := file.Sync(); err != nil {
		return errclass.ErrLogAppend.WithMessagef("sync session log: %v", err)
	}

	return nil
}

func lastRecordHashLocked(file *os.File) (model.HashValue, error) {
	if _, err := file.Seek(0, 0); err != nil {
		return "", fmt.Errorf("seek to start: %w", err)
	}

	var lastHash model.HashValue
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 256*1024), 1024*1024)
	for scanner.Scan() {
		var fact model.Fact
		if err := json.Unmarshal(scanner.Bytes(), &fact); err != nil {
			continue // skip malformed lines
		}
		lastHash = fact.RecordHash
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan session log: %w", err)
	}

	return lastHash, nil
}

func computeFactHash(fact *model.Fact) (model.HashValue, error) {
	// Hash over a copy with RecordHash cleared
	hashFact := *fact
	hashFact.RecordHash = ""

	sum, err := jsonutil.CanonicalHash(&hashFact)
	if err != nil {
		return "", fmt.Errorf("canonical hash: %w", err)
	}
	return model.HashValue(sum), nil
}
