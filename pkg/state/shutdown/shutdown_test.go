package shutdown

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"parley/pkg/state"
)

func TestWriteDiagnostics(t *testing.T) {
	db := t.TempDir()
	dump, req, err := WriteDiagnostics(db, "open store", errors.New("disk gone"))
	if err != nil {
		t.Fatalf("WriteDiagnostics: %v", err)
	}
	p := state.PathsFor(db)
	if !strings.HasPrefix(dump, p.Crash) || !strings.HasPrefix(req, p.Abort) {
		t.Fatalf("unexpected paths %s %s", dump, req)
	}
	body, err := os.ReadFile(dump)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "reason: open store") || !strings.Contains(string(body), "disk gone") {
		t.Fatalf("dump missing reason/error:\n%s", body)
	}

	raw, err := os.ReadFile(req)
	if err != nil {
		t.Fatal(err)
	}
	var r abortRequest
	if err := json.Unmarshal(raw, &r); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if r.Cmd != "crash" || r.CrashPath != dump || r.Meta["pid"] == "" {
		t.Fatalf("unexpected request %+v", r)
	}
}

func TestAbortExitsWithStatus2(t *testing.T) {
	var code int
	exit = func(c int) { code = c }
	defer func() { exit = os.Exit }()

	Abort("boom", errors.New("x"), t.TempDir(), 0)
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
}

func TestSignalHandlerCancelsOnSIGTERM(t *testing.T) {
	ctx, cancel := SetupSignalHandler(context.Background())
	defer cancel()

	if err := syscall.Kill(os.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("kill: %v", err)
	}
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("context not cancelled after SIGTERM")
	}
}

func TestSignalHandlerParentCancel(t *testing.T) {
	parent, pcancel := context.WithCancel(context.Background())
	ctx, cancel := SetupSignalHandler(parent)
	defer cancel()
	pcancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatalf("context not cancelled with parent")
	}
}
