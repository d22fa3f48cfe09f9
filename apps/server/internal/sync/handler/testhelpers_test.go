package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/pagecraft/pagecraft/apps/server/internal/credentials"
	"github.com/pagecraft/pagecraft/apps/server/internal/sync"
	"github.com/pagecraft/pagecraft/apps/server/internal/sync/handler"
	"github.com/pagecraft/pagecraft/pkg/api"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ─── Stubs ────────────────────────────────────────────────────────────────────

// memStore is an in-memory credentials.Store.
type memStore struct {
	records map[string]string
	getErr  error
	putErr  error
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]string)}
}

func (m *memStore) Put(_ context.Context, userID, encrypted string) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.records[userID] = encrypted
	return nil
}

func (m *memStore) Get(_ context.Context, userID string) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	enc, ok := m.records[userID]
	if !ok {
		return "", credentials.ErrNotFound
	}
	return enc, nil
}

func (m *memStore) Delete(_ context.Context, userID string) error {
	if _, ok := m.records[userID]; !ok {
		return credentials.ErrNotFound
	}
	delete(m.records, userID)
	return nil
}

// stubHost is a minimal sync.GitHost whose operations succeed with canned
// values unless an error is injected.
type stubHost struct {
	err       error // returned by every operation when set
	branchErr error // CreateBranchRef only
	lastToken string
}

func (s *stubHost) GetBranchHead(_ context.Context, token string, _ sync.Coordinates) (string, error) {
	s.lastToken = token
	if s.err != nil {
		return "", s.err
	}
	return "head-1", nil
}

func (s *stubHost) GetCommitTree(_ context.Context, _ string, _ sync.Coordinates, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "tree-1", nil
}

func (s *stubHost) CreateBlob(_ context.Context, _ string, _ sync.Coordinates, _ []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "blob-1", nil
}

func (s *stubHost) CreateTree(_ context.Context, _ string, _ sync.Coordinates, _ string, _ []sync.TreeEntry) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "tree-2", nil
}

func (s *stubHost) CreateCommit(_ context.Context, _ string, _ sync.Coordinates, _, _ string, _ []string) (sync.Commit, error) {
	if s.err != nil {
		return sync.Commit{}, s.err
	}
	return sync.Commit{SHA: "commit-1", URL: "https://github.com/acme/site/commit/commit-1"}, nil
}

func (s *stubHost) UpdateBranchRef(_ context.Context, _ string, _ sync.Coordinates, _ string) error {
	return s.err
}

func (s *stubHost) CreateBranchRef(_ context.Context, _ string, _ sync.Coordinates, _, _ string) error {
	if s.branchErr != nil {
		return s.branchErr
	}
	return s.err
}

func (s *stubHost) GetFileSHA(_ context.Context, _ string, _ sync.Coordinates, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "blob-prior", nil
}

func (s *stubHost) PutFile(_ context.Context, _ string, _ sync.Coordinates, _ sync.PutFileRequest) (sync.Commit, error) {
	if s.err != nil {
		return sync.Commit{}, s.err
	}
	return sync.Commit{SHA: "commit-1", URL: "u"}, nil
}

func (s *stubHost) ListRepositories(_ context.Context, token string) ([]api.Repository, error) {
	s.lastToken = token
	if s.err != nil {
		return nil, s.err
	}
	return []api.Repository{{Id: 1, Name: "site", FullName: "acme/site"}}, nil
}

// stubEngine is an in-memory sync.WorkflowEngine.
type stubEngine struct {
	startFn     func(ctx context.Context, name, id string, input any) (string, error)
	getStatusFn func(ctx context.Context, id string) (*sync.WorkflowStatus, error)
	lastInput   any
}

func (e *stubEngine) StartWorkflow(ctx context.Context, name, id string, input any) (string, error) {
	e.lastInput = input
	if e.startFn != nil {
		return e.startFn(ctx, name, id, input)
	}
	return id, nil
}

func (e *stubEngine) GetStatus(ctx context.Context, id string) (*sync.WorkflowStatus, error) {
	if e.getStatusFn != nil {
		return e.getStatusFn(ctx, id)
	}
	return &sync.WorkflowStatus{RuntimeStatus: "RUNNING"}, nil
}

// ─── Test server builder ──────────────────────────────────────────────────────

type testServer struct {
	router *gin.Engine
	store  *memStore
	host   *stubHost
	engine *stubEngine
	secret string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		store:  newMemStore(),
		host:   &stubHost{},
		engine: &stubEngine{},
		secret: "handler-test-secret",
	}
	cipher := credentials.NewCipher(func() string { return ts.secret })
	svc := sync.NewService(ts.host, slog.Default())
	r := gin.New()
	handler.RegisterRoutes(r, svc, ts.store, cipher, ts.engine, slog.Default())
	ts.router = r
	return ts
}

// link stores an encrypted token for the user, bypassing the HTTP surface.
func (ts *testServer) link(t *testing.T, userID, token string) {
	t.Helper()
	cipher := credentials.NewCipher(func() string { return ts.secret })
	enc, err := cipher.Encrypt(token)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	ts.store.records[userID] = enc
}

func (ts *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}
