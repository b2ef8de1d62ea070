package main_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/macrat/ssdash/cmd/ssdash"
	"github.com/macrat/ssdash/internal/testutil"
	"github.com/macrat/ssdash/lib-ssdash"
)

func runEndpointCommand(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()

	var out, err bytes.Buffer
	cmd := main.EndpointCommand{OutStream: &out, ErrStream: &err}

	code = cmd.Run(append([]string{"ssdash", "endpoint"}, args...))
	return code, out.String(), err.String()
}

func TestEndpointCommand_Run(t *testing.T) {
	t.Parallel()

	checker := startSampleChecker(t)
	login := testutil.CheckerUser + ":" + testutil.CheckerPassword

	var created ssdash.Endpoint

	t.Run("add", func(t *testing.T) {
		code, stdout, stderr := runEndpointCommand(t, "add", "-u", login, "--password", "p@ss", "--tags", "us, edge,us", checker.URL, "nyc", "nyc.example.com:443")
		if code != 0 {
			t.Fatalf("unexpected exit code %d\n%s", code, stderr)
		}

		if err := json.Unmarshal([]byte(stdout), &created); err != nil {
			t.Fatalf("failed to parse output: %s\n%s", err, stdout)
		}

		want := ssdash.Endpoint{
			ID:       created.ID,
			Name:     "nyc",
			Host:     "nyc.example.com",
			Port:     443,
			Password: "p@ss",
			Method:   ssdash.DefaultMethod,
			Enabled:  true,
			Tags:     []string{"us", "edge"},
		}
		if diff := cmp.Diff(want, created); diff != "" {
			t.Errorf("unexpected endpoint (-want +got):\n%s", diff)
		}
	})

	t.Run("update", func(t *testing.T) {
		code, stdout, stderr := runEndpointCommand(t, "update", "-u", login, "--rename", "new-york", "--disable", checker.URL, created.ID)
		if code != 0 {
			t.Fatalf("unexpected exit code %d\n%s", code, stderr)
		}

		var got ssdash.Endpoint
		if err := json.Unmarshal([]byte(stdout), &got); err != nil {
			t.Fatalf("failed to parse output: %s\n%s", err, stdout)
		}
		if got.Name != "new-york" || got.Enabled {
			t.Errorf("unexpected endpoint: %#v", got)
		}
		if got.Host != "nyc.example.com" || got.Password != "p@ss" {
			t.Errorf("fields that not specified should be kept: %#v", got)
		}
	})

	t.Run("check", func(t *testing.T) {
		code, stdout, stderr := runEndpointCommand(t, "check", "-u", login, checker.URL, testutil.SampleTokyoID)
		if code != 0 {
			t.Fatalf("unexpected exit code %d\n%s", code, stderr)
		}

		var got ssdash.CheckResult
		if err := json.Unmarshal([]byte(stdout), &got); err != nil {
			t.Fatalf("failed to parse output: %s\n%s", err, stdout)
		}
		if got.EndpointID != testutil.SampleTokyoID || !got.TCP.Reachable {
			t.Errorf("unexpected result: %#v", got)
		}
	})

	t.Run("history", func(t *testing.T) {
		code, stdout, stderr := runEndpointCommand(t, "history", "--limit", "2", checker.URL, testutil.SampleTokyoID)
		if code != 0 {
			t.Fatalf("unexpected exit code %d\n%s", code, stderr)
		}

		var got []ssdash.CheckResult
		if err := json.Unmarshal([]byte(stdout), &got); err != nil {
			t.Fatalf("failed to parse output: %s\n%s", err, stdout)
		}
		if len(got) != 2 {
			t.Errorf("expected 2 results but got %d", len(got))
		}
	})

	t.Run("remove", func(t *testing.T) {
		code, stdout, stderr := runEndpointCommand(t, "remove", "-u", login, checker.URL, created.ID)
		if code != 0 {
			t.Fatalf("unexpected exit code %d\n%s", code, stderr)
		}
		if stdout != "" {
			t.Errorf("unexpected output: %s", stdout)
		}

		code, _, _ = runEndpointCommand(t, "remove", "-u", login, checker.URL, created.ID)
		if code != 1 {
			t.Errorf("removing unknown endpoint should fail but got exit code %d", code)
		}
	})
}

func TestEndpointCommand_Run_errors(t *testing.T) {
	t.Parallel()

	checker := startSampleChecker(t)
	login := testutil.CheckerUser + ":" + testutil.CheckerPassword

	tests := []struct {
		Name   string
		Args   []string
		Code   int
		Stderr string
	}{
		{
			Name:   "no-action",
			Args:   []string{},
			Code:   2,
			Stderr: "",
		},
		{
			Name:   "unknown-action",
			Args:   []string{"rename", checker.URL},
			Code:   2,
			Stderr: "unknown action: \"rename\"\n",
		},
		{
			Name:   "missing-arguments",
			Args:   []string{"add", checker.URL, "nyc"},
			Code:   2,
			Stderr: "invalid argument: add needs 3 arguments but got 2\n",
		},
		{
			Name:   "enable-and-disable",
			Args:   []string{"update", "--enable", "--disable", checker.URL, testutil.SampleTokyoID},
			Code:   2,
			Stderr: "invalid argument: --enable and --disable can not use in the same time\n",
		},
		{
			Name:   "invalid-id",
			Args:   []string{"check", "-u", login, checker.URL, "not-a-uuid"},
			Code:   2,
			Stderr: "error: invalid endpoint id: \"not-a-uuid\"",
		},
		{
			Name:   "invalid-address",
			Args:   []string{"add", "-u", login, "--password", "x", checker.URL, "nyc", "nyc.example.com"},
			Code:   2,
			Stderr: "error: invalid endpoint: address nyc.example.com: missing port in address",
		},
		{
			Name:   "missing-password",
			Args:   []string{"add", "-u", login, checker.URL, "nyc", "nyc.example.com:443"},
			Code:   2,
			Stderr: "password is required",
		},
		{
			Name:   "not-logged-in",
			Args:   []string{"check", checker.URL, testutil.SampleTokyoID},
			Code:   1,
			Stderr: "error: login required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			code, _, stderr := runEndpointCommand(t, tt.Args...)

			if code != tt.Code {
				t.Errorf("expected exit code %d but got %d\n%s", tt.Code, code, stderr)
			}
			if !strings.Contains(stderr, tt.Stderr) {
				t.Errorf("expected %q in stderr:\n%s", tt.Stderr, stderr)
			}
		})
	}
}
