package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/dirvault/dirvault/internal/config"
)

// Entry represents a single audit log entry.
type Entry struct {
	Timestamp string `json:"ts"` // RFC3339 with microseconds.
	Operation string `json:"op"` // Operation name.

	// Optional fields depending on operation.
	Dirs    []string `json:"dirs,omitempty"`    // For update/expand.
	Bundles []string `json:"bundles,omitempty"` // For update/expand.
	Remote  string   `json:"remote,omitempty"`  // For update.
	Branch  string   `json:"branch,omitempty"`  // For update.
	Pushed  bool     `json:"pushed,omitempty"`  // For update.
}

// Log appends an entry to the project audit log.
// If logging fails it silently does nothing: operations should not fail
// just because audit logging failed.
func Log(cfg config.Config, entry Entry) {
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}

	if cfg.ProjectRoot == "" {
		return
	}
	logPath := filepath.Join(cfg.ProjectRoot, config.MarkerDir, "audit.jsonl")

	// #nosec G306 -- the audit log is shared project state, not a secret.
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	_, _ = f.Write(append(data, '\n'))
}
