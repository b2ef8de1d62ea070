package endpoint_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/macrat/ssdash/internal/testutil"
	"github.com/macrat/ssdash/lib-ssdash"
)

var dashboardPaths = []string{
	"/status.json",
	"/status.txt",
	"/status.html",
	"/targets.txt",
	"/targets.json",
	"/metrics",
}

func assertNoSecret(t *testing.T, path, body string) {
	t.Helper()

	for _, s := range []string{testutil.SamplePassword, "example.com", "chacha20-ietf-poly1305"} {
		if strings.Contains(body, s) {
			t.Errorf("%s: %q must not be included:\n%s", path, s, body)
		}
	}
}

func TestNew_withoutDashboardUser(t *testing.T) {
	b := newFakeBackend(t, ssdash.AuthAuthenticated)
	srv := startOpenServer(t, b)

	for _, path := range dashboardPaths {
		t.Run(path, func(t *testing.T) {
			resp, body := get(t, srv, path)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("unexpected status: %s", resp.Status)
			}
			assertNoSecret(t, path, body)
		})
	}

	t.Run("level", func(t *testing.T) {
		_, body := get(t, srv, "/status.txt")
		if !strings.HasPrefix(body, "test [public] ") {
			t.Errorf("dashboard without login should be public level:\n%s", body)
		}
	})

	t.Run("/check", func(t *testing.T) {
		resp, err := srv.Client().Post(srv.URL+"/check?id="+testutil.SampleTokyoID, "application/json", nil)
		if err != nil {
			t.Fatalf("failed to request: %s", err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("unexpected status: %s", resp.Status)
		}
		if len(b.Checked()) != 0 {
			t.Errorf("unexpected check: %v", b.Checked())
		}
	})
}

func TestNew_requiresLogin(t *testing.T) {
	srv := startServer(t, newFakeBackend(t, ssdash.AuthAuthenticated))

	anonymous := &http.Client{}

	for _, path := range append(dashboardPaths, "/healthz", "/mcp") {
		t.Run(path, func(t *testing.T) {
			resp, err := anonymous.Get(srv.URL + path)
			if err != nil {
				t.Fatalf("failed to get: %s", err)
			}
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()

			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("unexpected status: %s", resp.Status)
			}
			assertNoSecret(t, path, string(body))
		})
	}
}

func TestNew_crossOrigin(t *testing.T) {
	tests := []struct {
		Name    string
		Level   ssdash.AuthLevel
		Open    bool
		Allowed bool
	}{
		{"open", ssdash.AuthAuthenticated, true, true},
		{"public", ssdash.AuthPublic, false, true},
		{"authenticated", ssdash.AuthAuthenticated, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			b := newFakeBackend(t, tt.Level)

			var srv *httptest.Server
			if tt.Open {
				srv = startOpenServer(t, b)
			} else {
				srv = startServer(t, b)
			}

			req, err := http.NewRequest("GET", srv.URL+"/status.json", nil)
			if err != nil {
				t.Fatalf("failed to make request: %s", err)
			}
			req.Header.Set("Origin", "https://example.org")

			resp, err := srv.Client().Do(req)
			if err != nil {
				t.Fatalf("failed to get: %s", err)
			}
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()

			acao := resp.Header.Get("Access-Control-Allow-Origin")
			if (acao != "") != tt.Allowed {
				t.Errorf("unexpected Access-Control-Allow-Origin: %q", acao)
			}
			if acao != "" {
				assertNoSecret(t, "/status.json", string(body))
			}
		})
	}
}

func TestCheckEndpoint_crossOrigin(t *testing.T) {
	tests := []struct {
		Name    string
		Headers map[string]string
		Status  int
	}{
		{"cross_site", map[string]string{"Sec-Fetch-Site": "cross-site", "Origin": "https://example.org"}, http.StatusForbidden},
		{"other_origin", map[string]string{"Origin": "https://example.org"}, http.StatusForbidden},
		{"same_origin", map[string]string{"Sec-Fetch-Site": "same-origin"}, http.StatusSeeOther},
		{"no_browser", map[string]string{}, http.StatusSeeOther},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			b := newFakeBackend(t, ssdash.AuthAuthenticated)
			srv := startServer(t, b)

			client := srv.Client()
			client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			}

			req, err := http.NewRequest("POST", srv.URL+"/check?id="+testutil.SampleTokyoID, strings.NewReader(""))
			if err != nil {
				t.Fatalf("failed to make request: %s", err)
			}
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			for k, v := range tt.Headers {
				req.Header.Set(k, v)
			}

			resp, err := client.Do(req)
			if err != nil {
				t.Fatalf("failed to request: %s", err)
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			if resp.StatusCode != tt.Status {
				t.Errorf("unexpected status: %s", resp.Status)
			}

			checked := len(b.Checked()) > 0
			if checked != (tt.Status == http.StatusSeeOther) {
				t.Errorf("unexpected checks: %v", b.Checked())
			}
		})
	}
}
