package main_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/macrat/ssdash/cmd/ssdash"
	"github.com/macrat/ssdash/internal/testutil"
)

func TestStatusCommand_Run(t *testing.T) {
	t.Parallel()

	checker := startSampleChecker(t)

	t.Run("text", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		cmd := main.StatusCommand{OutStream: &stdout, ErrStream: &stderr}

		if code := cmd.Run([]string{"ssdash", "status", "-n", "fleet", checker.URL}); code != 1 {
			t.Errorf("expected exit code 1 because osaka is down but got %d\n%s", code, stderr.String())
		}

		lines := strings.Split(stdout.String(), "\n")
		want := []string{
			"fleet [public] stream disconnected",
			"",
			"  NAME   STATUS    UPTIME  LATENCY    AVERAGE    LAST CHECKED",
			"- kyoto  disabled  --      --         --         never",
			"✗ osaka  down      0.0%    --         --         ",
			"✓ tokyo  up        100.0%  12.5ms     25.0ms     ",
		}
		if len(lines) < len(want) {
			t.Fatalf("unexpected output:\n%s", stdout.String())
		}
		for i, w := range want {
			if !strings.HasPrefix(lines[i], w) {
				t.Errorf("line %d: expected prefix %q but got %q", i, w, lines[i])
			}
		}

		if strings.Contains(stdout.String(), "\x1b[") {
			t.Errorf("output to non-terminal should not be colored")
		}
	})

	t.Run("json", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		cmd := main.StatusCommand{OutStream: &stdout, ErrStream: &stderr}

		cmd.Run([]string{"ssdash", "status", "--json", checker.URL})

		var report struct {
			Level     string           `json:"level"`
			Endpoints []map[string]any `json:"endpoints"`
		}
		if err := json.Unmarshal(stdout.Bytes(), &report); err != nil {
			t.Fatalf("failed to parse output: %s\n%s", err, stdout.String())
		}
		if report.Level != "public" || len(report.Endpoints) != 3 {
			t.Errorf("unexpected report: %s", stdout.String())
		}
		if strings.Contains(stdout.String(), "example.com") {
			t.Errorf("public output leaks the address:\n%s", stdout.String())
		}
	})

	t.Run("jq", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		cmd := main.StatusCommand{OutStream: &stdout, ErrStream: &stderr}

		cmd.Run([]string{"ssdash", "status", "--jq", `[.endpoints[] | {name, status}]`, checker.URL})

		var got []map[string]string
		if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
			t.Fatalf("failed to parse output: %s\n%s", err, stdout.String())
		}
		want := []map[string]string{
			{"name": "kyoto", "status": "disabled"},
			{"name": "osaka", "status": "down"},
			{"name": "tokyo", "status": "up"},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("unexpected output (-want +got):\n%s", diff)
		}
	})

	t.Run("invalid-jq", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		cmd := main.StatusCommand{OutStream: &stdout, ErrStream: &stderr}

		if code := cmd.Run([]string{"ssdash", "status", "--jq", "[", checker.URL}); code != 2 {
			t.Errorf("expected exit code 2 but got %d", code)
		}
		if !strings.HasPrefix(stderr.String(), "invalid argument: jq: ") {
			t.Errorf("unexpected error message: %s", stderr.String())
		}
	})
}

func TestStatusCommand_Run_login(t *testing.T) {
	t.Parallel()

	checker := startSampleChecker(t)
	tokenFile := filepath.Join(t.TempDir(), "token")

	var stdout, stderr bytes.Buffer
	cmd := main.StatusCommand{OutStream: &stdout, ErrStream: &stderr}

	args := []string{"ssdash", "status", "-u", testutil.CheckerUser + ":" + testutil.CheckerPassword, "--token-file", tokenFile, checker.URL}
	cmd.Run(args)

	if !strings.HasPrefix(stdout.String(), "ssdash [authenticated] stream disconnected\n") {
		t.Errorf("unexpected output:\n%s", stdout.String())
	}

	token, err := os.ReadFile(tokenFile)
	if err != nil {
		t.Fatalf("failed to read token file: %s", err)
	}
	if string(token) != "token-1\n" {
		t.Errorf("unexpected token: %q", token)
	}

	stdout.Reset()
	cmd.Run([]string{"ssdash", "status", "--token-file", tokenFile, checker.URL})

	if !strings.HasPrefix(stdout.String(), "ssdash [authenticated] stream disconnected\n") {
		t.Errorf("saved token should be reused:\n%s", stdout.String())
	}

	logins := 0
	for _, r := range checker.Requests() {
		if strings.HasPrefix(r, "POST /api/auth/login ") {
			logins++
		}
	}
	if logins != 1 {
		t.Errorf("expected to login only once but logged in %d times", logins)
	}

	checker.ExpireSessions()

	stdout.Reset()
	cmd.Run([]string{"ssdash", "status", "--token-file", tokenFile, checker.URL})

	if !strings.HasPrefix(stdout.String(), "ssdash [public] stream disconnected\n") {
		t.Errorf("expired token should fall back to public:\n%s", stdout.String())
	}
}

func TestStatusCommand_Run_badLogin(t *testing.T) {
	t.Parallel()

	checker := startSampleChecker(t)

	var stdout, stderr bytes.Buffer
	cmd := main.StatusCommand{OutStream: &stdout, ErrStream: &stderr}

	if code := cmd.Run([]string{"ssdash", "status", "-u", "admin:wrong", checker.URL}); code != 1 {
		t.Errorf("expected exit code 1 but got %d", code)
	}
	if !strings.Contains(stderr.String(), "error: failed to connect to the checker server: ") {
		t.Errorf("unexpected error message:\n%s", stderr.String())
	}
}

func TestStatusCommand_Run_help(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	cmd := main.StatusCommand{OutStream: &stdout, ErrStream: &stderr}

	if code := cmd.Run([]string{"ssdash", "status", "-h"}); code != 0 {
		t.Errorf("expected exit code 0 but got %d", code)
	}
	if stdout.String() != main.StatusHelp {
		t.Errorf("unexpected output:\n%s", stdout.String())
	}

	stdout.Reset()
	if code := cmd.Run([]string{"ssdash", "status", "--no-such-flag"}); code != 2 {
		t.Errorf("expected exit code 2 but got %d", code)
	}
	if !strings.Contains(stderr.String(), "Please see `ssdash status -h` for more information.") {
		t.Errorf("unexpected error message:\n%s", stderr.String())
	}
}
