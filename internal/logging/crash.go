package logging

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/adrg/xdg"
)

// CrashReport describes a recovered panic.
type CrashReport struct {
	Timestamp    time.Time         `json:"timestamp"`
	Version      string            `json:"version"`
	GOOS         string            `json:"goos"`
	GOARCH       string            `json:"goarch"`
	NumGoroutine int               `json:"num_goroutine"`
	PanicValue   string            `json:"panic_value"`
	StackTrace   string            `json:"stack_trace"`
	Component    string            `json:"component,omitempty"`
	SessionID    string            `json:"session_id,omitempty"`
	Context      map[string]string `json:"context,omitempty"`
}

// CrashHandler turns panics into crash reports instead of process death.
type CrashHandler struct {
	mu        sync.Mutex
	crashDir  string
	version   string
	component string
	sessionID string
	logger    *slog.Logger
	onCrash   func(CrashReport)
}

// CrashHandlerConfig configures the crash handler.
type CrashHandlerConfig struct {
	// CrashDir is where crash-*.json files are written. Empty disables
	// the dump and only logs the report.
	CrashDir string

	Version   string
	Component string

	// Logger receives an error record per crash. Defaults to slog.Default().
	Logger *slog.Logger

	// OnCrash is called after the report is written.
	OnCrash func(CrashReport)
}

// DefaultCrashDir returns the crash dump directory under the XDG state dir.
func DefaultCrashDir() string {
	return filepath.Join(xdg.StateHome, "ultrafocus", "crashes")
}

// NewCrashHandler creates a CrashHandler.
func NewCrashHandler(cfg *CrashHandlerConfig) *CrashHandler {
	if cfg == nil {
		cfg = &CrashHandlerConfig{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CrashHandler{
		crashDir:  cfg.CrashDir,
		version:   cfg.Version,
		component: cfg.Component,
		logger:    logger,
		onCrash:   cfg.OnCrash,
	}
}

// SetSessionID tags subsequent reports with the active focus session.
func (h *CrashHandler) SetSessionID(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessionID = sessionID
}

// Recover runs fn and converts a panic into a crash report. It reports
// whether fn panicked.
func (h *CrashHandler) Recover(contextInfo map[string]string, fn func()) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			h.HandlePanic(r, contextInfo)
		}
	}()
	fn()
	return false
}

// HandlePanic records a panic value that the caller already recovered.
func (h *CrashHandler) HandlePanic(panicValue any, contextInfo map[string]string) CrashReport {
	h.mu.Lock()
	defer h.mu.Unlock()

	report := CrashReport{
		Timestamp:    time.Now().UTC(),
		Version:      h.version,
		GOOS:         runtime.GOOS,
		GOARCH:       runtime.GOARCH,
		NumGoroutine: runtime.NumGoroutine(),
		PanicValue:   fmt.Sprintf("%v", panicValue),
		StackTrace:   string(debug.Stack()),
		Component:    h.component,
		SessionID:    h.sessionID,
		Context:      contextInfo,
	}

	path, err := h.writeCrashDump(report)
	h.logger.Error("recovered panic",
		"panic", report.PanicValue,
		"crash_component", report.Component,
		"session_id", report.SessionID,
		"dump", path,
		"dump_error", err,
	)

	if h.onCrash != nil {
		h.onCrash(report)
	}
	return report
}

func (h *CrashHandler) writeCrashDump(report CrashReport) (string, error) {
	if h.crashDir == "" {
		return "", nil
	}
	if err := os.MkdirAll(h.crashDir, 0750); err != nil {
		return "", fmt.Errorf("create crash dir: %w", err)
	}

	name := fmt.Sprintf("crash-%s-%s.json", report.Component, report.Timestamp.Format("20060102-150405.000"))
	path := filepath.Join(h.crashDir, name)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal crash report: %w", err)
	}
	if err := os.WriteFile(path, data, 0640); err != nil {
		return "", fmt.Errorf("write crash report: %w", err)
	}
	return path, nil
}

// CrashReports reads back every dump in the crash directory.
func (h *CrashHandler) CrashReports() ([]CrashReport, error) {
	if h.crashDir == "" {
		return nil, nil
	}
	files, err := filepath.Glob(filepath.Join(h.crashDir, "crash-*.json"))
	if err != nil {
		return nil, err
	}

	reports := make([]CrashReport, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		var report CrashReport
		if err := json.Unmarshal(data, &report); err != nil {
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}
