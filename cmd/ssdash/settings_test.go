package main_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/macrat/ssdash/cmd/ssdash"
	"github.com/macrat/ssdash/internal/testutil"
)

func TestSettingsCommand_Run(t *testing.T) {
	t.Parallel()

	checker := startSampleChecker(t)
	login := testutil.CheckerUser + ":" + testutil.CheckerPassword

	tests := []struct {
		Name   string
		Args   []string
		Code   int
		Stdout string
		Stderr string
	}{
		{"show", []string{"-u", login}, 0, "{\n  \"check_interval_secs\": 60\n}\n", ""},
		{"update", []string{"-u", login, "-i", "30"}, 0, "{\n  \"check_interval_secs\": 30\n}\n", ""},
		{"too-short", []string{"-u", login, "-i", "1"}, 2, "", "error: check interval must be at least 5 seconds but got 1\n"},
		{"not-logged-in", []string{}, 1, "", "error: login required\n"},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			cmd := main.SettingsCommand{OutStream: &stdout, ErrStream: &stderr}

			args := append([]string{"ssdash", "settings"}, tt.Args...)
			if code := cmd.Run(append(args, checker.URL)); code != tt.Code {
				t.Errorf("expected exit code %d but got %d\n%s", tt.Code, code, stderr.String())
			}

			if stdout.String() != tt.Stdout {
				t.Errorf("unexpected stdout:\n%s", stdout.String())
			}
			if !strings.HasSuffix(stderr.String(), tt.Stderr) {
				t.Errorf("expected stderr ends with %q:\n%s", tt.Stderr, stderr.String())
			}
		})
	}
}
