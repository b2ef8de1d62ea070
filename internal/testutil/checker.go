package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/macrat/ssdash/internal/history"
	"github.com/macrat/ssdash/lib-ssdash"
)

const (
	CheckerUser     = "admin"
	CheckerPassword = "hunter2"
)

// Checker is a fake checker server for tests.
//
// It serves the REST API and the push stream of the checker server.
// Sessions are issued for CheckerUser and CheckerPassword.
type Checker struct {
	*httptest.Server

	mu        sync.Mutex
	order     []string
	statuses  map[string]*ssdash.EndpointStatus
	sessions  map[string]bool
	settings  ssdash.Settings
	listeners map[chan []byte]struct{}
	requests  []string
	issued    int

	// Delay is waited before replying the endpoint list.
	Delay time.Duration

	done chan struct{}
}

// StartChecker starts a new fake checker server.
// The server is closed when the test finished.
func StartChecker(t testing.TB) *Checker {
	t.Helper()

	c := &Checker{
		statuses:  make(map[string]*ssdash.EndpointStatus),
		sessions:  make(map[string]bool),
		settings:  ssdash.Settings{CheckIntervalSecs: 60},
		listeners: make(map[chan []byte]struct{}),
		done:      make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/servers", c.handleList)
	mux.HandleFunc("POST /api/servers", c.handleCreate)
	mux.HandleFunc("PUT /api/servers/{id}", c.handleUpdate)
	mux.HandleFunc("DELETE /api/servers/{id}", c.handleDelete)
	mux.HandleFunc("POST /api/servers/{id}/check", c.handleCheck)
	mux.HandleFunc("GET /api/results/{id}", c.handleResults)
	mux.HandleFunc("POST /api/auth/login", c.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", c.handleLogout)
	mux.HandleFunc("GET /api/auth/status", c.handleAuthStatus)
	mux.HandleFunc("GET /api/settings", c.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", c.handlePutSettings)
	mux.HandleFunc("GET /api/events", c.handleEvents)

	c.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		auth := "-"
		if r.Header.Get("Authorization") != "" {
			auth = "auth"
		}
		c.requests = append(c.requests, r.Method+" "+r.URL.Path+" "+auth)
		c.mu.Unlock()

		mux.ServeHTTP(w, r)
	}))

	t.Cleanup(c.Close)

	return c
}

// Close stops the push streams and the server.
func (c *Checker) Close() {
	c.mu.Lock()
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	c.mu.Unlock()

	c.Server.Close()
}

// Requests returns the log of received requests like "GET /api/servers auth".
func (c *Checker) Requests() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.requests...)
}

// Add registers an endpoint with newest-first history, without notifying.
func (c *Checker) Add(e ssdash.Endpoint, rs ...ssdash.CheckResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.statuses[e.ID]; !ok {
		c.order = append(c.order, e.ID)
	}
	st := &ssdash.EndpointStatus{Endpoint: e.Clone(), History: rs}
	c.recompute(st)
	c.statuses[e.ID] = st
}

func (c *Checker) recompute(st *ssdash.EndpointStatus) {
	if len(st.History) > history.Capacity {
		st.History = st.History[:history.Capacity]
	}
	m := history.Compute(st.History)
	st.UptimePct = m.UptimePct
	st.AvgLatencyMs = m.AvgLatencyMs
	st.Latest = nil
	if len(st.History) > 0 {
		l := st.History[0]
		st.Latest = &l
	}
}

// Record stores a check result and pushes CheckComplete event.
func (c *Checker) Record(r ssdash.CheckResult) {
	c.mu.Lock()
	if st, ok := c.statuses[r.EndpointID]; ok {
		st.History = append([]ssdash.CheckResult{r}, st.History...)
		st.TotalChecks++
		c.recompute(st)
	}
	c.mu.Unlock()

	c.Push(ssdash.CheckCompleteEvent{Result: r})
}

// Push sends an event to every connected push stream.
func (c *Checker) Push(e ssdash.Event) {
	raw, err := ssdash.MarshalEvent(e)
	if err != nil {
		panic(err)
	}
	c.PushRaw(string(raw))
}

// PushRaw sends a raw payload to every connected push stream.
func (c *Checker) PushRaw(data string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for ch := range c.listeners {
		ch <- []byte(data)
	}
}

// Listeners returns the number of connected push streams.
func (c *Checker) Listeners() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.listeners)
}

// WaitListeners waits until n push streams are connected.
func (c *Checker) WaitListeners(t testing.TB, n int) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for c.Listeners() != n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting %d listeners: %d connected", n, c.Listeners())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// ExpireSessions invalidates every issued token.
func (c *Checker) ExpireSessions() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sessions = make(map[string]bool)
}

// Settings returns the current settings.
func (c *Checker) Settings() ssdash.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.settings
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// session checks the bearer token.
// The second value is false if the request has an invalid token.
func (c *Checker) session(r *http.Request) (authed, valid bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false, true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sessions[token] {
		return true, true
	}
	return false, false
}

func (c *Checker) requireAuth(w http.ResponseWriter, r *http.Request) bool {
	if authed, _ := c.session(r); !authed {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return false
	}
	return true
}

func publicView(e ssdash.Endpoint) ssdash.Endpoint {
	e.Host = ""
	e.Port = 0
	e.Password = ""
	e.Method = ""
	return e
}

func (c *Checker) handleList(w http.ResponseWriter, r *http.Request) {
	authed, valid := c.session(r)
	if !valid {
		writeError(w, http.StatusUnauthorized, "session expired")
		return
	}

	if c.Delay > 0 {
		time.Sleep(c.Delay)
	}

	c.mu.Lock()
	xs := make([]ssdash.EndpointStatus, 0, len(c.order))
	for _, id := range c.order {
		st := c.statuses[id].Clone()
		if !authed {
			st.Endpoint = publicView(st.Endpoint)
		}
		xs = append(xs, st)
	}
	c.mu.Unlock()

	writeJSON(w, http.StatusOK, xs)
}

func (c *Checker) handleCreate(w http.ResponseWriter, r *http.Request) {
	if !c.requireAuth(w, r) {
		return
	}

	in := ssdash.EndpointInput{Port: ssdash.DefaultPort, Enabled: true}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := in.Normalize()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	e := ssdash.Endpoint{
		ID:       uuid.NewString(),
		Name:     in.Name,
		Host:     in.Host,
		Port:     in.Port,
		Password: in.Password,
		Method:   in.Method,
		Enabled:  in.Enabled,
		Tags:     in.Tags,
	}
	c.Add(e)
	c.Push(ssdash.ServerUpdatedEvent{Endpoint: publicView(e)})

	writeJSON(w, http.StatusCreated, e)
}

func (c *Checker) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if !c.requireAuth(w, r) {
		return
	}

	id := r.PathValue("id")

	var in ssdash.EndpointInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := in.Normalize()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c.mu.Lock()
	st, ok := c.statuses[id]
	if ok {
		st.Endpoint = ssdash.Endpoint{
			ID:       id,
			Name:     in.Name,
			Host:     in.Host,
			Port:     in.Port,
			Password: in.Password,
			Method:   in.Method,
			Enabled:  in.Enabled,
			Tags:     in.Tags,
		}
	}
	c.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "server not found")
		return
	}

	c.Push(ssdash.ServerUpdatedEvent{Endpoint: publicView(st.Endpoint)})
	writeJSON(w, http.StatusOK, st.Endpoint)
}

func (c *Checker) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !c.requireAuth(w, r) {
		return
	}

	id := r.PathValue("id")

	c.mu.Lock()
	_, ok := c.statuses[id]
	if ok {
		delete(c.statuses, id)
		for i, x := range c.order {
			if x == id {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
	}
	c.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "server not found")
		return
	}

	c.Push(ssdash.ServerRemovedEvent{EndpointID: id})
	w.WriteHeader(http.StatusNoContent)
}

func (c *Checker) handleCheck(w http.ResponseWriter, r *http.Request) {
	if !c.requireAuth(w, r) {
		return
	}

	id := r.PathValue("id")

	c.mu.Lock()
	_, ok := c.statuses[id]
	c.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "server not found")
		return
	}

	res := ssdash.CheckResult{
		EndpointID: id,
		Timestamp:  time.Now().UTC(),
		TCP:        ssdash.TCPCheck{Reachable: true, LatencyMs: ssdash.Float(12.5)},
		Protocol:   &ssdash.ProtocolCheck{Success: true, LatencyMs: ssdash.Float(40)},
	}
	c.Record(res)

	writeJSON(w, http.StatusOK, res)
}

func (c *Checker) handleResults(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	limit := history.Capacity
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit: %q", raw))
			return
		}
		limit = n
	}

	c.mu.Lock()
	st, ok := c.statuses[id]
	var rs []ssdash.CheckResult
	if ok {
		rs = st.Clone().History
	}
	c.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "server not found")
		return
	}

	if len(rs) > limit {
		rs = rs[:limit]
	}
	if rs == nil {
		rs = []ssdash.CheckResult{}
	}

	writeJSON(w, http.StatusOK, rs)
}

func (c *Checker) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Username != CheckerUser || req.Password != CheckerPassword {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	c.mu.Lock()
	c.issued++
	token := fmt.Sprintf("token-%d", c.issued)
	c.sessions[token] = true
	c.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (c *Checker) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")

	c.mu.Lock()
	delete(c.sessions, token)
	c.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (c *Checker) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	authed, _ := c.session(r)
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": authed})
}

func (c *Checker) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	if !c.requireAuth(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, c.Settings())
}

func (c *Checker) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	if !c.requireAuth(w, r) {
		return
	}

	var s ssdash.Settings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c.mu.Lock()
	c.settings = s
	c.mu.Unlock()

	writeJSON(w, http.StatusOK, s)
}

func (c *Checker) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	ch := make(chan []byte, 64)

	c.mu.Lock()
	c.listeners[ch] = struct{}{}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.listeners, ch)
		c.mu.Unlock()
	}()

	fmt.Fprint(w, ": connected\n\n")
	fmt.Fprint(w, "data: {\"type\":\"Snapshot\",\"statuses\":[]}\n\n")
	flusher.Flush()

	for {
		select {
		case data := <-ch:
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		case <-r.Context().Done():
			return
		case <-c.done:
			return
		}
	}
}
