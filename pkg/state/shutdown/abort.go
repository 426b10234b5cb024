package shutdown

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"parley/pkg/logger"
	"parley/pkg/state"
)

type abortRequest struct {
	Time      string            `json:"time"`
	Reason    string            `json:"reason"`
	Cmd       string            `json:"cmd"`
	CrashPath string            `json:"crash_path,omitempty"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// exit is swapped in tests.
var exit = os.Exit

// Abort logs a fatal startup error, writes a crash dump and exits with
// status 2 after delaySeconds (default 3).
func Abort(contextMsg string, err error, dbPath string, delaySeconds ...int) {
	delay := 3
	if len(delaySeconds) > 0 && delaySeconds[0] >= 0 {
		delay = delaySeconds[0]
	}
	logger.Error("startup_fatal", "msg", contextMsg, "error", err)
	dumpPath, reqPath, derr := WriteDiagnostics(dbPath, contextMsg, err)
	if derr != nil {
		logger.Error("abort_diagnostics_failed", "error", derr)
		fmt.Fprintf(os.Stderr, "FAILED TO WRITE CRASH DUMP: %v\n", derr)
	} else {
		logger.Info("wrote_crash_dump", "path", dumpPath, "request", reqPath)
		fmt.Fprintf(os.Stderr, "CRASH DUMP WRITTEN: %s\n", dumpPath)
	}
	for i := delay; i > 0; i-- {
		logger.Info("exiting_in_seconds", "seconds", i)
		time.Sleep(time.Second)
	}
	exit(2)
}

// WriteDiagnostics writes a crash dump (reason, error, goroutine stacks) and
// a JSON abort request that points at it. Without a dbPath both go under
// the working directory.
func WriteDiagnostics(dbPath, reason string, err error) (dumpPath, reqPath string, _ error) {
	crashDir, abortDir := "./crash", "./abort"
	if dbPath != "" {
		p := state.PathsFor(dbPath)
		crashDir, abortDir = p.Crash, p.Abort
	}
	for _, dir := range []string{crashDir, abortDir} {
		if e := os.MkdirAll(dir, 0o700); e != nil {
			return "", "", fmt.Errorf("create %s: %w", dir, e)
		}
	}

	now := time.Now().UTC()
	dumpPath = filepath.Join(crashDir, fmt.Sprintf("crash-%d.log", now.UnixNano()))
	var body []byte
	body = fmt.Appendf(body, "time: %s\nreason: %s\nerror: %v\n", now.Format(time.RFC3339), reason, err)
	body = append(body, "\n--- goroutine stacks ---\n"...)
	body = append(body, stacks()...)
	if e := writeAtomic(crashDir, dumpPath, body); e != nil {
		return "", "", e
	}

	req := abortRequest{
		Time:      now.Format(time.RFC3339),
		Reason:    reason,
		Cmd:       "crash",
		CrashPath: dumpPath,
		Meta:      map[string]string{"pid": strconv.Itoa(os.Getpid())},
	}
	data, e := json.MarshalIndent(req, "", "  ")
	if e != nil {
		return dumpPath, "", fmt.Errorf("encode abort request: %w", e)
	}
	reqPath = filepath.Join(abortDir, fmt.Sprintf("abort-%d.json", now.UnixNano()))
	if e := writeAtomic(abortDir, reqPath, data); e != nil {
		return dumpPath, "", e
	}
	return dumpPath, reqPath, nil
}

func writeAtomic(dir, dest string, data []byte) error {
	f, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	_ = f.Sync()
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return fmt.Errorf("move %s into place: %w", dest, err)
	}
	_ = os.Chmod(dest, 0o600)
	return nil
}
