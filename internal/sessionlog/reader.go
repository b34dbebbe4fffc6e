package sessionlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/chronicle-project/chronicle/pkg/errclass"
	"github.com/chronicle-project/chronicle/pkg/model"
)

// ReadFacts reads every fully-written fact from a session log in file
// order. Malformed lines, including a line truncated by a crash mid-write,
// are skipped rather than failing the read: partial reconciliation beats
// no reconciliation. A missing log yields no facts and no error.
func ReadFacts(path string) ([]model.Fact, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open session log: %w", err)
	}
	defer file.Close()

	var facts []model.Fact
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 256*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var fact model.Fact
		if err := json.Unmarshal(line, &fact); err != nil {
			continue
		}
		facts = append(facts, fact)
	}
	if err := scanner.Err(); err != nil {
		return facts, fmt.Errorf("scan session log: %w", err)
	}

	return facts, nil
}

// VerifyChain checks that each fact's prev_hash links to its predecessor's
// record_hash.
func VerifyChain(facts []model.Fact) error {
	var prev model.HashValue
	for i, fact := range facts {
		if fact.PrevHash != prev {
			return errclass.ErrChainBroken.WithMessagef("fact %d: prev_hash mismatch", i)
		}
		want, err := computeFactHash(&fact)
		if err != nil {
			return errclass.ErrChainBroken.WithMessagef("fact %d: %v", i, err)
		}
		if fact.RecordHash != want {
			return errclass.ErrChainBroken.WithMessagef("fact %d: record_hash mismatch", i)
		}
		prev = fact.RecordHash
	}
	return nil
}

// Info describes one session log on disk.
type Info struct {
	SessionID string
	Path      string
	ModTime   time.Time
	NumFacts  int
}

// List scans the sessions directory for logs, newest first.
func List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sessions dir: %w", err)
	}

	var infos []Info
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(dir, name)
		facts, err := ReadFacts(path)
		if err != nil {
			continue
		}
		infos = append(infos, Info{
			SessionID: strings.TrimSuffix(name, ".jsonl"),
			Path:      path,
			ModTime:   fi.ModTime(),
			NumFacts:  len(facts),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ModTime.After(infos[j].ModTime)
	})

	return infos, nil
}
