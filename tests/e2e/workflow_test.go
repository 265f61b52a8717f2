package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const (
	TEST_SERVER_TIMEOUT = 15 * time.Second
)

func TestEndToEndWorkflow(t *testing.T) {
	// 1. Setup Environment
	// Allow overriding bin dir via env var, default to ../../bin (relative to tests/e2e)
	binDir := os.Getenv("HABITUAL_BIN_DIR")
	if binDir == "" {
		binDir = filepath.Join("..", "..", "bin")
	}
	binDir, _ = filepath.Abs(binDir)
	cliPath := filepath.Join(binDir, "habitual")
	if _, err := os.Stat(cliPath); os.IsNotExist(err) {
		t.Skipf("CLI binary not found at %s; build it with 'go build -o bin/habitual ./cmd/habitual'", cliPath)
	}

	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "habitual", "habitual.db")

	var env []string
	for _, e := range os.Environ() {
		if !strings.HasPrefix(e, "HOME=") && !strings.HasPrefix(e, "HABITUAL_") {
			env = append(env, e)
		}
	}
	env = append(env, fmt.Sprintf("HOME=%s", tempDir))

	run := func(args ...string) string {
		return runCmd(t, cliPath, env, append([]string{"--db", dbPath}, args...)...)
	}

	// 2. Initialize and create a habit
	t.Log("Initializing storage...")
	run("init")
	out := run("habit", "add", "Read", "--details", "20 pages")
	if !strings.Contains(out, "Added habit: Read (daily)") {
		t.Fatalf("unexpected add output: %s", out)
	}

	// 3. Mark it done and check the agenda
	out = run("habit", "toggle", "Read")
	if !strings.Contains(out, `Marked habit "Read"`) || !strings.Contains(out, "(streak 1)") {
		t.Fatalf("unexpected toggle output: %s", out)
	}
	out = run("day")
	if !strings.Contains(out, "[x] Read") || !strings.Contains(out, "1/1 done") {
		t.Fatalf("unexpected day output: %s", out)
	}

	out = run("doctor")
	t.Logf("Doctor output: %s", out)

	// 4. Serve the API and read the same agenda over HTTP
	addr := freeAddr(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveCmd := exec.CommandContext(ctx, cliPath, "--db", dbPath, "serve", "--addr", addr)
	serveCmd.Env = env
	var serveOut strings.Builder
	serveCmd.Stdout = &serveOut
	serveCmd.Stderr = &serveOut
	if err := serveCmd.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	defer func() {
		cancel()
		_ = serveCmd.Wait()
		if t.Failed() {
			t.Logf("Server output: %s", serveOut.String())
		}
	}()

	base := "http://" + addr
	waitForHealth(t, base+"/health", TEST_SERVER_TIMEOUT)

	resp, err := http.Get(base + "/api/agenda")
	if err != nil {
		t.Fatalf("GET /api/agenda failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/agenda status = %d", resp.StatusCode)
	}

	var agenda struct {
		Habits []struct {
			Name      string `json:"name"`
			Completed bool   `json:"completed"`
		} `json:"habits"`
		Summary struct {
			Due       int `json:"due"`
			Completed int `json:"completed"`
		} `json:"summary"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&agenda); err != nil {
		t.Fatalf("Failed to decode agenda: %v", err)
	}
	if len(agenda.Habits) != 1 || agenda.Habits[0].Name != "Read" || !agenda.Habits[0].Completed {
		t.Errorf("agenda habits = %+v", agenda.Habits)
	}
	if agenda.Summary.Due != 1 || agenda.Summary.Completed != 1 {
		t.Errorf("agenda summary = %+v", agenda.Summary)
	}
}

func runCmd(t *testing.T, path string, env []string, args ...string) string {
	t.Helper()
	cmd := exec.Command(path, args...)
	cmd.Env = env
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Command %s %v failed: %v\nOutput: %s", path, args, err, out)
	}
	return string(out)
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to reserve a port: %v", err)
	}
	addr := l.Addr().String()
	l.Close()
	return addr
}

func waitForHealth(t *testing.T, url string, timeout time.Duration) {
	t.Helper()
	start := time.Now()
	for {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		if time.Since(start) > timeout {
			t.Fatalf("Timed out waiting for %s", url)
		}
		time.Sleep(100 * time.Millisecond)
	}
}
