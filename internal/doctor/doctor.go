// Package doctor validates wifid configuration and the environment it
// will run in before the daemon starts touching hardware.
package doctor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/espwifi/wifid/internal/config"
)

// Result holds the outcome of a validation run.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Issue describes a single validation error or warning.
type Issue struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
}

// Doctor validates a loaded configuration against the host.
type Doctor struct {
	cfg *config.Config
}

// New creates a Doctor from a loaded config.
func New(cfg *config.Config) *Doctor {
	return &Doctor{cfg: cfg}
}

// Validate runs all checks and returns a result.
func (d *Doctor) Validate() *Result {
	r := &Result{Valid: true}

	d.checkSerial(r)
	d.checkDispatch(r)
	d.checkAudit(r)
	d.checkAPI(r)

	r.Valid = len(r.Errors) == 0
	return r
}

func (d *Doctor) addError(r *Result, category, field, msg string) {
	r.Errors = append(r.Errors, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) addWarning(r *Result, category, field, msg string) {
	r.Warnings = append(r.Warnings, Issue{Category: category, Field: field, Message: msg})
}

// checkSerial verifies the UART device exists and the baud rate is one
// the module ships with.
func (d *Doctor) checkSerial(r *Result) {
	port := d.cfg.Serial.Port
	if port == "" {
		d.addError(r, "serial", "serial.port", "serial.port is required")
		return
	}

	info, err := os.Stat(port)
	switch {
	case os.IsNotExist(err):
		d.addError(r, "serial", "serial.port",
			fmt.Sprintf("device %q does not exist (module unplugged?)", port))
	case err != nil:
		d.addError(r, "serial", "serial.port",
			fmt.Sprintf("cannot stat device %q: %v", port, err))
	case info.Mode()&os.ModeCharDevice == 0:
		d.addWarning(r, "serial", "serial.port",
			fmt.Sprintf("%q is not a character device", port))
	}

	switch d.cfg.Serial.Baud {
	case 9600, 19200, 38400, 57600, 74880, 115200, 230400, 460800, 921600:
	default:
		d.addWarning(r, "serial", "serial.baud",
			fmt.Sprintf("unusual baud rate %d; the module defaults to 115200", d.cfg.Serial.Baud))
	}
}

// checkDispatch sanity-checks queue and deadline settings.
func (d *Doctor) checkDispatch(r *Result) {
	if d.cfg.Dispatch.QueueDepth <= 0 {
		d.addError(r, "dispatch", "dispatch.queue_depth", "queue_depth must be positive")
	}
	if d.cfg.Dispatch.Timeouts.Command <= 0 {
		d.addError(r, "dispatch", "dispatch.timeouts.command", "command timeout must be positive")
	}
	if d.cfg.Dispatch.Timeouts.Persist <= 0 {
		d.addError(r, "dispatch", "dispatch.timeouts.persist", "persist timeout must be positive")
	}
	if d.cfg.Dispatch.Timeouts.Persist < d.cfg.Dispatch.Timeouts.Command {
		d.addWarning(r, "dispatch", "dispatch.timeouts",
			"persist timeout shorter than command timeout; flash writes are the slow path")
	}
}

// checkAudit verifies the audit database directory is writable.
func (d *Doctor) checkAudit(r *Result) {
	path := d.cfg.Audit.Path
	if path == "" {
		d.addWarning(r, "audit", "audit.path", "audit trail disabled (no path configured)")
		return
	}

	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		// Created at startup; nothing to check yet.
		return
	}
	if err != nil {
		d.addError(r, "audit", "audit.path", fmt.Sprintf("cannot stat %q: %v", dir, err))
		return
	}
	if !info.IsDir() {
		d.addError(r, "audit", "audit.path", fmt.Sprintf("%q is not a directory", dir))
	}
}

// checkAPI checks HTTP API settings.
func (d *Doctor) checkAPI(r *Result) {
	if !d.cfg.API.Enabled {
		return
	}
	if d.cfg.API.Listen == "" {
		d.addError(r, "api", "api.listen", "api.listen is required when API is enabled")
	}
	if d.cfg.API.APIKey == "" {
		d.addWarning(r, "api", "api.api_key",
			"API enabled without an api_key; every endpoint except /healthz will refuse requests")
	}
}

// FormatHuman returns a human-readable validation report.
func FormatHuman(r *Result) string {
	var b strings.Builder

	if r.Valid && len(r.Warnings) == 0 {
		b.WriteString("Configuration valid.\n")
		return b.String()
	}

	if r.Valid && len(r.Warnings) > 0 {
		b.WriteString("Configuration valid")
		fmt.Fprintf(&b, " (%d warning(s))\n", len(r.Warnings))
	}

	if !r.Valid {
		fmt.Fprintf(&b, "Configuration invalid (%d error(s), %d warning(s))\n", len(r.Errors), len(r.Warnings))
	}

	for _, e := range r.Errors {
		if e.Field != "" {
			fmt.Fprintf(&b, "  ERROR [%s] %s: %s\n", e.Category, e.Field, e.Message)
		} else {
			fmt.Fprintf(&b, "  ERROR [%s] %s\n", e.Category, e.Message)
		}
	}
	for _, w := range r.Warnings {
		if w.Field != "" {
			fmt.Fprintf(&b, "  WARN  [%s] %s: %s\n", w.Category, w.Field, w.Message)
		} else {
			fmt.Fprintf(&b, "  WARN  [%s] %s\n", w.Category, w.Message)
		}
	}

	return b.String()
}

// FormatJSON returns the result as indented JSON.
func FormatJSON(r *Result) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
