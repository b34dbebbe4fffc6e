// Package doctor runs workspace health checks.
package doctor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chronicle-project/chronicle/internal/ledger"
	"github.com/chronicle-project/chronicle/internal/sessionlog"
	"github.com/chronicle-project/chronicle/internal/workspace"
	"github.com/chronicle-project/chronicle/pkg/config"
)

// Finding represents a detected issue.
type Finding struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Path        string `json:"path,omitempty"`
}

// Result contains doctor check results.
type Result struct {
	Healthy  bool      `json:"healthy"`
	Findings []Finding `json:"findings"`
}

// Doctor performs workspace health checks.
type Doctor struct {
	ws *workspace.Workspace
}

// NewDoctor creates a doctor for an opened workspace.
func NewDoctor(ws *workspace.Workspace) *Doctor {
	return &Doctor{ws: ws}
}

// Check runs all diagnostic checks. Strict mode additionally verifies
// the hash chain of every session log.
func (d *Doctor) Check(strict bool) (*Result, error) {
	result := &Result{Healthy: true}

	d.checkFormatVersion(result)
	d.checkConfig(result)
	d.checkSessionsDir(result)
	d.checkLedger(result)
	if strict {
		d.checkSessionChains(result)
	}

	return result, nil
}

func (d *Doctor) checkFormatVersion(result *Result) {
	path := filepath.Join(d.ws.Dir(), "format_version")
	data, err := os.ReadFile(path)
	if err != nil {
		result.fail("format", "format_version file missing or unreadable", "critical", path)
		return
	}
	version, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		result.fail("format", "format_version is not a number", "critical", path)
		return
	}
	if version > workspace.FormatVersion {
		result.fail("format",
			fmt.Sprintf("format version %d > supported %d", version, workspace.FormatVersion),
			"critical", "")
	}
}

func (d *Doctor) checkConfig(result *Result) {
	if _, err := config.Load(d.ws.Root); err != nil {
		result.fail("config", fmt.Sprintf("config does not parse: %v", err), "error",
			filepath.Join(d.ws.Dir(), "config.yaml"))
	}
}

func (d *Doctor) checkSessionsDir(result *Result) {
	dir := d.ws.SessionsDir()
	if _, err := os.Stat(dir); err != nil {
		result.fail("sessions", "sessions directory missing", "error", dir)
		return
	}
	probe := filepath.Join(dir, ".doctor-probe")
	if err := os.WriteFile(probe, nil, 0644); err != nil {
		result.fail("sessions", fmt.Sprintf("sessions directory not writable: %v", err), "error", dir)
		return
	}
	os.Remove(probe)
}

func (d *Doctor) checkLedger(result *Result) {
	store, err := ledger.Open(d.ws.LedgerPath())
	if err != nil {
		result.fail("ledger", fmt.Sprintf("ledger does not open: %v", err), "error", d.ws.LedgerPath())
		return
	}
	store.Close()
}

func (d *Doctor) checkSessionChains(result *Result) {
	infos, err := sessionlog.List(d.ws.SessionsDir())
	if err != nil {
		result.fail("chain", fmt.Sprintf("cannot list session logs: %v", err), "error", d.ws.SessionsDir())
		return
	}
	for _, info := range infos {
		facts, err := sessionlog.ReadFacts(info.Path)
		if err != nil {
			result.fail("chain", fmt.Sprintf("session %s unreadable: %v", info.SessionID, err), "error", info.Path)
			continue
		}
		if err := sessionlog.VerifyChain(facts); err != nil {
			result.fail("chain", fmt.Sprintf("session %s hash chain broken: %v", info.SessionID, err), "critical", info.Path)
		}
	}
}

func (r *Result) fail(category, description, severity, path string) {
	r.Findings = append(r.Findings, Finding{
		Category:    category,
		Description: description,
		Severity:    severity,
		Path:        path,
	})
	if severity == "critical" || severity == "error" {
		r.Healthy = false
	}
}
