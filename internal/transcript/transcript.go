// Package transcript extracts best-effort token and cost figures from an
// assistant transcript. The transcript format is treated as opaque: only
// the usage counters are read, unknown lines are skipped, and any failure
// degrades to empty enrichment rather than an error the pipeline would
// have to surface.
package transcript

import (
	"bufio"
	"context"
	"encoding/json"
	"os"

	"github.com/chronicle-project/chronicle/pkg/errclass"
	"github.com/chronicle-project/chronicle/pkg/model"
)

// usage mirrors the assistant's per-message token accounting.
type usage struct {
	InputTokens         int64 `json:"input_tokens"`
	OutputTokens        int64 `json:"output_tokens"`
	CacheReadTokens     int64 `json:"cache_read_input_tokens"`
	CacheCreationTokens int64 `json:"cache_creation_input_tokens"`
}

// line is the minimal decoded shape of one transcript line.
type line struct {
	Type    string   `json:"type"`
	CostUSD *float64 `json:"costUSD"`
	Message struct {
		Usage *usage `json:"usage"`
	} `json:"message"`
}

// Extract sums usage across the transcript's assistant events. The context
// bounds the scan; on cancellation the figures accumulated so far are
// returned.
func Extract(ctx context.Context, path string) (model.Enrichment, error) {
	var enrichment model.Enrichment

	file, err := os.Open(path)
	if err != nil {
		return enrichment, errclass.ErrTranscriptUnreadable.WithMessagef("open transcript: %v", err)
	}
	defer file.Close()

	var (
		input, output, cacheRead, cacheCreation int64
		cost                                    float64
		sawUsage, sawCost                       bool
	)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 256*1024), 8*1024*1024)
scan:
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			break scan
		default:
		}

		var l line
		if err := json.Unmarshal(scanner.Bytes(), &l); err != nil {
			continue
		}
		if l.Type != "assistant" {
			continue
		}
		if l.Message.Usage != nil {
			sawUsage = true
			input += l.Message.Usage.InputTokens
			output += l.Message.Usage.OutputTokens
			cacheRead += l.Message.Usage.CacheReadTokens
			cacheCreation += l.Message.Usage.CacheCreationTokens
		}
		if l.CostUSD != nil {
			sawCost = true
			cost += *l.CostUSD
		}
	}
	// scanner errors (oversized line, read failure) leave us with whatever
	// was summed so far; enrichment is best-effort by contract

	if sawUsage {
		enrichment.InputTokens = &input
		enrichment.OutputTokens = &output
		enrichment.CacheReadTokens = &cacheRead
		enrichment.CacheCreationTokens = &cacheCreation
	}
	if sawCost {
		enrichment.CostUSD = &cost
	}

	return enrichment, nil
}
