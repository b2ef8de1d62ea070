package main_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/macrat/ssdash/cmd/ssdash"
	"github.com/macrat/ssdash/internal/testutil"
)

// startSampleChecker starts a fake checker server that has the sample endpoints.
func startSampleChecker(t testing.TB) *testutil.Checker {
	t.Helper()

	c := testutil.StartChecker(t)
	for _, st := range testutil.SampleStatuses() {
		c.Add(st.Endpoint, st.History...)
	}
	return c
}

func TestSsdashCommand_ParseArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		Args     []string
		Pattern  string
		ExitCode int
		Extra    func(*testing.T, *main.SsdashCommand)
	}{
		{
			Args:     []string{"ssdash"},
			Pattern:  `^ssdash -- Live status dashboard`,
			ExitCode: 2,
		},
		{
			Args:     []string{"ssdash", "--no-such-option", "http://localhost:3000"},
			Pattern:  "^unknown flag: --no-such-option\n\nPlease see `ssdash -h` for more information\\.\n$",
			ExitCode: 2,
		},
		{
			Args:     []string{"ssdash", "-v", "--resync", "invalid"},
			Pattern:  `^$`,
			ExitCode: 0,
		},
		{
			Args:     []string{"ssdash", "-h", "ftp://localhost"},
			Pattern:  `^$`,
			ExitCode: 0,
		},
		{
			Args:     []string{"ssdash", "ftp://localhost"},
			Pattern:  "^invalid argument: invalid server URL: \"ftp://localhost\"\n\nPlease see `ssdash -h` for more information\\.\n$",
			ExitCode: 2,
		},
		{
			Args:     []string{"ssdash", "http://localhost:3000", "http://localhost:3001"},
			Pattern:  "^invalid argument: too many arguments: http://localhost:3001\n",
			ExitCode: 2,
		},
		{
			Args:     []string{"ssdash", "-u", "admin", "http://localhost:3000"},
			Pattern:  "^invalid argument: username and password should be set together\n",
			ExitCode: 2,
		},
		{
			Args:     []string{"ssdash", "--dashboard-user", "admin", "http://localhost:3000"},
			Pattern:  "^invalid argument: dashboard_user should be \"user:password\" format\n",
			ExitCode: 2,
		},
		{
			Args:     []string{"ssdash", "--resync", "1s", "http://localhost:3000"},
			Pattern:  "^invalid argument: resync: resync interval must be 10s or longer: 1s\n",
			ExitCode: 2,
		},
		{
			Args:     []string{"ssdash", "http://localhost:3000"},
			ExitCode: 0,
			Extra: func(t *testing.T, cmd *main.SsdashCommand) {
				if cmd.Config.Listen != "127.0.0.1:9100" {
					t.Errorf("unexpected default listen address: %q", cmd.Config.Listen)
				}
				if cmd.Resync.String() != "5m0s" {
					t.Errorf("unexpected default resync schedule: %s", cmd.Resync)
				}
				if cmd.Config.Name != "" {
					t.Errorf("expected name is empty in default but got %q", cmd.Config.Name)
				}
			},
		},
		{
			Args:     []string{"ssdash", "-u", "admin:hunter2", "-l", ":1234", "-n", "Test Instance", "--resync", "@hourly", "http://localhost:3000"},
			ExitCode: 0,
			Extra: func(t *testing.T, cmd *main.SsdashCommand) {
				if cmd.Config.Username != "admin" || cmd.Config.Password != "hunter2" {
					t.Errorf("unexpected credentials: %q:%q", cmd.Config.Username, cmd.Config.Password)
				}
				if cmd.Config.Listen != ":1234" {
					t.Errorf("unexpected listen address: %q", cmd.Config.Listen)
				}
				if cmd.Config.Name != "Test Instance" {
					t.Errorf("unexpected name: %q", cmd.Config.Name)
				}
				if cmd.Resync.String() != "0 * * * ?" {
					t.Errorf("unexpected resync schedule: %s", cmd.Resync)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.Args), func(t *testing.T) {
			buf := bytes.NewBuffer([]byte{})
			cmd := &main.SsdashCommand{
				OutStream: buf,
				ErrStream: buf,
			}

			exitCode := cmd.ParseArgs(tt.Args)

			if ok, _ := regexp.MatchString(tt.Pattern, buf.String()); !ok {
				t.Errorf("output expected to match with %q but not matched:\n%s", tt.Pattern, buf.String())
			}

			if exitCode != tt.ExitCode {
				t.Errorf("expected exit code is %d but got %d", tt.ExitCode, exitCode)
			}

			if tt.Extra != nil {
				tt.Extra(t, cmd)
			}
		})
	}
}

func TestSsdashCommand_ParseArgs_configFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ssdash.yaml")
	cfg := strings.Join([]string{
		"server: http://localhost:3000",
		"username: admin",
		"password: hunter2",
		"listen: 127.0.0.1:8000",
		"name: from file",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatalf("failed to write config file: %s", err)
	}

	buf := bytes.NewBuffer([]byte{})
	cmd := &main.SsdashCommand{
		OutStream: buf,
		ErrStream: buf,
	}

	if code := cmd.ParseArgs([]string{"ssdash", "--config", path, "-l", ":9999"}); code != 0 {
		t.Fatalf("unexpected exit code %d:\n%s", code, buf)
	}

	if cmd.Config.Server != "http://localhost:3000" {
		t.Errorf("unexpected server: %q", cmd.Config.Server)
	}
	if cmd.Config.Username != "admin" || cmd.Config.Password != "hunter2" {
		t.Errorf("unexpected credentials: %q:%q", cmd.Config.Username, cmd.Config.Password)
	}
	if cmd.Config.Listen != ":9999" {
		t.Errorf("flag should overwrite the config file but got %q", cmd.Config.Listen)
	}
	if cmd.Config.Name != "from file" {
		t.Errorf("unexpected name: %q", cmd.Config.Name)
	}

	if code := cmd.ParseArgs([]string{"ssdash", "--config", filepath.Join(t.TempDir(), "no-such-file.yaml")}); code != 2 {
		t.Errorf("expected exit code 2 for missing config file but got %d", code)
	}
}

func TestSsdashCommand_Run_saveConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "conf", "ssdash.yaml")

	var stdout, stderr bytes.Buffer
	cmd := &main.SsdashCommand{OutStream: &stdout, ErrStream: &stderr}

	args := []string{"ssdash", "--save-config", path, "-u", "admin:hunter2", "-l", ":1234", "--resync", "10m", "-n", "saved", "http://localhost:3000"}
	if code := cmd.Run(args); code != 0 {
		t.Fatalf("unexpected exit code %d:\n%s", code, stderr.String())
	}
	if stdout.String() != "config saved to "+path+"\n" {
		t.Errorf("unexpected output: %q", stdout.String())
	}

	if stat, err := os.Stat(path); err != nil {
		t.Fatalf("failed to stat config file: %s", err)
	} else if stat.Mode().Perm() != 0o600 {
		t.Errorf("config file should be readable only by the owner: %s", stat.Mode())
	}

	loaded := &main.SsdashCommand{OutStream: io.Discard, ErrStream: &stderr}
	if code := loaded.ParseArgs([]string{"ssdash", "--config", path}); code != 0 {
		t.Fatalf("failed to load saved config %d:\n%s", code, stderr.String())
	}
	if diff := cmp.Diff(cmd.Config, loaded.Config); diff != "" {
		t.Errorf("saved config is different (-want +got):\n%s", diff)
	}
}

func TestSsdashCommand_Run(t *testing.T) {
	t.Parallel()

	tests := []struct {
		Args     []string
		Stdout   string
		Stderr   string
		ExitCode int
	}{
		{
			Args:     []string{"ssdash"},
			Stderr:   `^ssdash -- Live status dashboard for a fleet of proxy endpoints` + "\n\nUsage:",
			ExitCode: 2,
		},
		{
			Args:     []string{"ssdash", "-h"},
			Stderr:   `^ssdash -- Live status dashboard for a fleet of proxy endpoints` + "\n\nversion HEAD\n",
			ExitCode: 0,
		},
		{
			Args:     []string{"ssdash", "-v"},
			Stdout:   `^ssdash version HEAD \(UNKNOWN\)` + "\n$",
			ExitCode: 0,
		},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.Args), func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			cmd := &main.SsdashCommand{
				OutStream: &stdout,
				ErrStream: &stderr,
			}

			exitCode := cmd.Run(tt.Args)

			if ok, _ := regexp.MatchString(tt.Stdout, stdout.String()); !ok {
				t.Errorf("stdout expected to match with %q but not matched:\n%s", tt.Stdout, stdout.String())
			}
			if ok, _ := regexp.MatchString(tt.Stderr, stderr.String()); !ok {
				t.Errorf("stderr expected to match with %q but not matched:\n%s", tt.Stderr, stderr.String())
			}
			if exitCode != tt.ExitCode {
				t.Errorf("expected exit code is %d but got %d", tt.ExitCode, exitCode)
			}
		})
	}
}

func freeAddress(t testing.TB) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %s", err)
	}
	addr := l.Addr().String()
	l.Close()
	return addr
}

func TestSsdashCommand_RunServer(t *testing.T) {
	checker := startSampleChecker(t)
	listen := freeAddress(t)

	var stderr bytes.Buffer
	cmd := &main.SsdashCommand{
		OutStream: io.Discard,
		ErrStream: &stderr,
	}
	if code := cmd.ParseArgs([]string{"ssdash", "-u", "admin:hunter2", "-l", listen, "-n", "test", "--dashboard-user", "viewer:pa55", checker.URL}); code != 0 {
		t.Fatalf("unexpected exit code %d:\n%s", code, stderr.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan int)
	go func() {
		done <- cmd.RunServer(ctx)
	}()

	get := func(path string) (int, string) {
		req, err := http.NewRequest("GET", "http://"+listen+path, nil)
		if err != nil {
			t.Fatalf("failed to make request: %s", err)
		}
		req.SetBasicAuth("viewer", "pa55")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return 0, err.Error()
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(body)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		code, body := get("/status.txt")
		if code == http.StatusOK && strings.Contains(body, "stream connected") && strings.Contains(body, "tokyo") {
			if !strings.HasPrefix(body, "test [authenticated] stream connected\n") {
				t.Errorf("unexpected header:\n%s", body)
			}
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("timed out waiting the dashboard: %d\n%s", code, body)
		}
		time.Sleep(20 * time.Millisecond)
	}

	resp, err := http.Get("http://" + listen + "/status.json")
	if err != nil {
		t.Fatalf("failed to get: %s", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("dashboard should require login but got %s", resp.Status)
	}

	checker.Record(testutil.SampleStatuses()[1].History[0])

	deadline = time.Now().Add(5 * time.Second)
	for {
		_, body := get("/metrics")
		if strings.Contains(body, `ssdash_endpoint_checks_total{id="`+testutil.SampleOsakaID+`",name="osaka"} 2`) {
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("pushed result was not applied:\n%s", body)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()

	select {
	case code := <-done:
		if code != 0 {
			t.Errorf("unexpected exit code %d:\n%s", code, stderr.String())
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("server did not stop")
	}
}
