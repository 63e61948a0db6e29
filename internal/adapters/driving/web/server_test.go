package web

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sefs/internal/core/domain"
)

type mockOrganiser struct {
	mu         sync.Mutex
	tree       *domain.TreeNode
	runs       []domain.ReorganiseRun
	runsErr    error
	lastLimit  int
	reorgRun   *domain.ReorganiseRun
	reorgErr   error
	notes      chan domain.Notification
	subscribed chan struct{}
}

func newMockOrganiser() *mockOrganiser {
	return &mockOrganiser{
		tree: &domain.TreeNode{Name: "root", Type: domain.NodeRoot, Path: "/data/root", Children: []*domain.TreeNode{
			{Name: "Finance", Type: domain.NodeDomain, Path: "/data/root/Finance"},
		}},
		notes:      make(chan domain.Notification, 4),
		subscribed: make(chan struct{}, 1),
	}
}

func (m *mockOrganiser) Run(context.Context) error  { return nil }
func (m *mockOrganiser) Scan(context.Context) error { return nil }

func (m *mockOrganiser) Reorganise(context.Context) (*domain.ReorganiseRun, error) {
	return m.reorgRun, m.reorgErr
}

func (m *mockOrganiser) Tree() *domain.TreeNode { return m.tree }

func (m *mockOrganiser) Subscribe() (<-chan domain.Notification, func()) {
	m.subscribed <- struct{}{}
	return m.notes, func() {}
}

func (m *mockOrganiser) Runs(_ context.Context, limit int) ([]domain.ReorganiseRun, error) {
	m.mu.Lock()
	m.lastLimit = limit
	m.mu.Unlock()
	return m.runs, m.runsErr
}

func doRequest(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	rec := doRequest(t, New(newMockOrganiser()), http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_Tree(t *testing.T) {
	rec := doRequest(t, New(newMockOrganiser()), http.MethodGet, "/api/tree")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var got domain.TreeNode
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "root", got.Name)
	require.Len(t, got.Children, 1)
	assert.Equal(t, domain.NodeDomain, got.Children[0].Type)
}

func TestServer_Runs(t *testing.T) {
	org := newMockOrganiser()
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	org.runs = []domain.ReorganiseRun{{
		ID: "run-1", Trigger: domain.TriggerDebounce,
		StartedAt: start, EndedAt: start.Add(1500 * time.Millisecond),
		Files: 4, Clusters: 2, Moved: 3, Failed: 1, Note: "partial",
	}}
	s := New(org)

	rec := doRequest(t, s, http.MethodGet, "/api/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, DefaultRunsLimit, org.lastLimit)

	var got []RunView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "run-1", got[0].ID)
	assert.Equal(t, "debounce", got[0].Trigger)
	assert.Equal(t, int64(1500), got[0].DurationMS)
	assert.Equal(t, 3, got[0].Moved)

	rec = doRequest(t, s, http.MethodGet, "/api/runs?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, org.lastLimit)
}

func TestServer_RunsEmptyIsArray(t *testing.T) {
	rec := doRequest(t, New(newMockOrganiser()), http.MethodGet, "/api/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestServer_RunsBadLimit(t *testing.T) {
	s := New(newMockOrganiser())
	for _, q := range []string{"abc", "0", "-3"} {
		t.Run(q, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodGet, "/api/runs?limit="+q)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestServer_RunsError(t *testing.T) {
	org := newMockOrganiser()
	org.runsErr = errors.New("disk gone")
	rec := doRequest(t, New(org), http.MethodGet, "/api/runs")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "disk gone")
}

func TestServer_Reorganise(t *testing.T) {
	org := newMockOrganiser()
	org.reorgRun = &domain.ReorganiseRun{ID: "r", Trigger: domain.TriggerManual, Files: 2, Clusters: 1}
	s := New(org)

	rec := doRequest(t, s, http.MethodPost, "/api/reorganise")
	require.Equal(t, http.StatusOK, rec.Code)
	var got RunView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "manual", got.Trigger)
	assert.Equal(t, 1, got.Clusters)

	rec = doRequest(t, s, http.MethodGet, "/api/reorganise")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_ReorganiseError(t *testing.T) {
	org := newMockOrganiser()
	org.reorgRun = &domain.ReorganiseRun{ID: "r", Note: "boom"}
	org.reorgErr = errors.New("cluster: boom")

	rec := doRequest(t, New(org), http.MethodPost, "/api/reorganise")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "cluster: boom")
	assert.Contains(t, rec.Body.String(), `"run"`)
}

func TestServer_Stream(t *testing.T) {
	org := newMockOrganiser()
	ts := httptest.NewServer(New(org, WithHeartbeat(50*time.Millisecond)).Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	lines := make(chan string, 16)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			if line := sc.Text(); line != "" {
				lines <- line
			}
		}
		close(lines)
	}()
	next := func() string {
		select {
		case l, ok := <-lines:
			require.True(t, ok, "stream ended")
			return l
		case <-time.After(3 * time.Second):
			t.Fatal("no stream message")
			return ""
		}
	}

	first := next()
	require.True(t, strings.HasPrefix(first, "data: "))
	var snap domain.Notification
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(first, "data: ")), &snap))
	assert.Equal(t, EventSnapshot, snap.Event)
	require.NotNil(t, snap.Tree)
	assert.Equal(t, "root", snap.Tree.Name)

	<-org.subscribed
	org.notes <- domain.Notification{Event: domain.EventMoved, Path: "/data/root/Finance/Tax/a.txt", Timestamp: time.Now()}

	var note domain.Notification
	for {
		l := next()
		if strings.HasPrefix(l, "data: ") {
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(l, "data: ")), &note))
			break
		}
	}
	assert.Equal(t, domain.EventMoved, note.Event)
	assert.Equal(t, "/data/root/Finance/Tax/a.txt", note.Path)

	assert.Equal(t, ": heartbeat", next())
}

func TestServer_ServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(newMockOrganiser()).Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_RunBadAddress(t *testing.T) {
	err := New(newMockOrganiser()).Run(context.Background(), "256.0.0.1:bad")
	assert.Error(t, err)
}
