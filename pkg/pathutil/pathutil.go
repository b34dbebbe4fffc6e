// Package pathutil provides task-id validation and file path categorization
// for chronicle.
package pathutil

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/chronicle-project/chronicle/pkg/errclass"
	"github.com/chronicle-project/chronicle/pkg/model"
)

// taskIDRegex matches identifiers like "proj-1" or "billing.v2-07".
var taskIDRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// ValidateTaskID checks that id is a safe task identifier.
func ValidateTaskID(id string) error {
	if id == "" {
		return errclass.ErrNameInvalid.WithMessage("task id must not be empty")
	}

	// NFC normalize before matching so visually identical ids compare equal
	id = norm.NFC.String(id)

	if strings.Contains(id, "..") {
		return errclass.ErrNameInvalid.WithMessagef("task id must not contain '..': %s", id)
	}
	if !taskIDRegex.MatchString(id) {
		return errclass.ErrNameInvalid.WithMessagef("task id must match [a-zA-Z0-9._-]+: %s", id)
	}
	return nil
}

// ValidateSessionID checks that id is safe to use as a log file name.
// Session ids come from hook payloads, so anything that is not a plain
// path segment is rejected before it can reach a filesystem path.
func ValidateSessionID(id string) error {
	if id == "" {
		return errclass.ErrNameInvalid.WithMessage("session id must not be empty")
	}
	id = norm.NFC.String(id)
	if strings.Contains(id, "..") {
		return errclass.ErrNameInvalid.WithMessagef("session id must not contain '..': %s", id)
	}
	if !taskIDRegex.MatchString(id) {
		return errclass.ErrNameInvalid.WithMessagef("session id must match [a-zA-Z0-9._-]+: %s", id)
	}
	return nil
}

// Normalize returns the NFC-normalized, slash-separated form of path.
// All pattern matching happens on normalized paths.
func Normalize(path string) string {
	return norm.NFC.String(filepath.ToSlash(path))
}

// sourceExtensions are file extensions treated as source code when no
// directory rule applies.
var sourceExtensions = map[string]bool{
	".go": true, ".py": true, ".rs": true, ".ts": true, ".tsx": true,
	".js": true, ".jsx": true, ".c": true, ".h": true, ".cc": true,
	".cpp": true, ".java": true, ".rb": true, ".sh": true, ".sql": true,
}

// Categorize classifies a written file path. Directory segments win over
// extension: a markdown file under plans/ is a plan, not documentation.
func Categorize(path string) model.PathCategory {
	p := strings.ToLower(Normalize(path))
	segs := strings.Split(p, "/")

	for _, seg := range segs {
		switch seg {
		case "plans", "plan":
			return model.CategoryPlan
		case "specs", "spec":
			return model.CategorySpec
		case "captures", "capture":
			return model.CategoryCapture
		case ".chronicle", "tooling", "scripts", "hack":
			return model.CategoryTooling
		case "src", "internal", "cmd", "pkg", "lib":
			return model.CategorySource
		}
	}

	if sourceExtensions[filepath.Ext(p)] {
		return model.CategorySource
	}
	return model.CategoryOther
}

// UnderAny reports whether the normalized path matches any of the given
// glob patterns, or sits beneath a pattern that names a directory.
func UnderAny(path string, patterns []string) bool {
	p := Normalize(path)
	for _, pat := range patterns {
		pat = Normalize(pat)
		if ok, err := filepath.Match(pat, p); err == nil && ok {
			return true
		}
		// Directory prefix: "src" tracks everything under src/
		prefix := strings.TrimSuffix(pat, "/")
		if p == prefix || strings.HasPrefix(p, prefix+"/") || strings.Contains(p, "/"+prefix+"/") {
			return true
		}
	}
	return false
}
