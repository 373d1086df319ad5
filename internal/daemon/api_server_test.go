package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"variantshare/internal/api"
	"variantshare/internal/config"
	"variantshare/internal/dispatch"
	"variantshare/internal/exporter"
	"variantshare/internal/testsupport"
	"variantshare/internal/userdb"
)

const variantPayload = `{
  "id": "variant-1",
  "name": "Invoice approval",
  "process": {"id": "process-1", "name": "Accounts payable", "description": "Approve supplier invoices"},
  "counters": {"createdAt": 1699956800000, "lastRunAt": 1700043200000, "maxDuration": 3661000, "runCount": 5, "coverage": 0.425},
  "steps": {
    "step-1": {"description": "Open invoice", "screenshot": "1700000000001", "appType": "web", "locator": "#open"},
    "step-2": {"description": "Approve", "screenshot": "1700000000002", "applicationType": "web"}
  }
}`

type recordingSender struct {
	mu       sync.Mutex
	err      error
	requests []dispatch.Request
}

func (s *recordingSender) Send(_ context.Context, req dispatch.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.err
}

func (s *recordingSender) sent() []dispatch.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]dispatch.Request(nil), s.requests...)
}

func (s *recordingSender) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

type harness struct {
	t      *testing.T
	daemon *Daemon
	server *httptest.Server
	sender *recordingSender
	token  string
}

type harnessOption func(*config.Config)

func newHarness(t *testing.T, missing []int, docgenStatus int, opts ...harnessOption) *harness {
	t.Helper()
	docgen := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if docgenStatus != http.StatusOK {
			http.Error(w, "renderer unavailable", docgenStatus)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = io.WriteString(w, "%PDF-1.7 rendered")
	}))
	t.Cleanup(docgen.Close)

	cfg := testsupport.NewConfig(t, testsupport.WithDocGen(docgen.URL, "repo-1"))
	for _, opt := range opts {
		opt(cfg)
	}
	records := testsupport.Records(t, testsupport.Variant(2), missing...)
	pipeline, err := exporter.NewFromConfig(cfg, nil, exporter.WithSource(exporter.NewStaticSource(testsupport.Documents(records))))
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	sender := &recordingSender{}
	d, err := New(cfg, Dependencies{
		Users:    testsupport.MustOpenUserDB(t, cfg),
		Pipeline: pipeline,
		Sender:   sender,
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	srv := httptest.NewServer(d.Handler())
	t.Cleanup(srv.Close)
	return &harness{t: t, daemon: d, server: srv, sender: sender, token: cfg.Paths.APIToken}
}

func (h *harness) do(method, path string, body any) (*http.Response, []byte) {
	h.t.Helper()
	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			h.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, h.server.URL+path, reader)
	if err != nil {
		h.t.Fatalf("new request: %v", err)
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	resp, err := h.server.Client().Do(req)
	if err != nil {
		h.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		h.t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func (h *harness) createSession() api.Session {
	h.t.Helper()
	resp, body := h.do(http.MethodPost, "/api/sessions", variantPayload)
	if resp.StatusCode != http.StatusCreated {
		h.t.Fatalf("create session: status %d body %s", resp.StatusCode, body)
	}
	var sess api.Session
	decode(h.t, body, &sess)
	return sess
}

func decode(t *testing.T, body []byte, dst any) {
	t.Helper()
	if err := json.Unmarshal(body, dst); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
}

func expectError(t *testing.T, resp *http.Response, body []byte, status int) api.ErrorResponse {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("expected status %d, got %d (%s)", status, resp.StatusCode, body)
	}
	var envelope api.ErrorResponse
	decode(t, body, &envelope)
	if envelope.Error.Message == "" {
		t.Fatalf("expected error message in %s", body)
	}
	return envelope
}

func TestHealthAndNotFound(t *testing.T) {
	h := newHarness(t, nil, http.StatusOK)

	resp, body := h.do(http.MethodGet, "/health", nil)
	var health api.HealthResponse
	decode(t, body, &health)
	if resp.StatusCode != http.StatusOK || health.Message != "ok" {
		t.Fatalf("unexpected health response %d %s", resp.StatusCode, body)
	}

	resp, body = h.do(http.MethodGet, "/nope", nil)
	envelope := expectError(t, resp, body, http.StatusNotFound)
	if envelope.Error.Message != "not found" {
		t.Fatalf("unexpected message %q", envelope.Error.Message)
	}
	resp, body = h.do(http.MethodGet, "/api/unknown", nil)
	expectError(t, resp, body, http.StatusNotFound)
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
}

func TestUserLookup(t *testing.T) {
	h := newHarness(t, nil, http.StatusOK)
	if _, err := h.daemon.users.Upsert(context.Background(), userdb.User{Email: "ana@example.com", Name: "Ana"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	resp, body := h.do(http.MethodGet, "/userinDB", nil)
	expectError(t, resp, body, http.StatusBadRequest)

	resp, body = h.do(http.MethodGet, "/userinDB?email=not-an-address", nil)
	expectError(t, resp, body, http.StatusBadRequest)

	resp, body = h.do(http.MethodGet, "/userinDB?email=bob@example.com", nil)
	expectError(t, resp, body, http.StatusNotFound)

	resp, body = h.do(http.MethodGet, "/userinDB?email=ANA@example.com", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", resp.StatusCode, body)
	}
	var user api.UserResponse
	decode(t, body, &user)
	if user.Data.Email != "ana@example.com" || user.Data.Name != "Ana" {
		t.Fatalf("unexpected user %+v", user.Data)
	}
}

func TestPDFSessionLifecycle(t *testing.T) {
	h := newHarness(t, nil, http.StatusOK)
	sess := h.createSession()
	if sess.State != "idle" || sess.Steps != 2 {
		t.Fatalf("unexpected new session %+v", sess)
	}
	base := "/api/sessions/" + sess.ID

	resp, body := h.do(http.MethodPost, base+"/generate", api.GenerateRequest{Format: "pdf"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate: %d %s", resp.StatusCode, body)
	}
	decode(t, body, &sess)
	if sess.State != "previewable" || sess.PreviewURL == "" || sess.Artifact == nil || sess.Artifact.Name != "variant_Invoice_approval.pdf" {
		t.Fatalf("unexpected session after generate %+v", sess)
	}
	if sess.Report == nil || sess.Report.Records != 2 {
		t.Fatalf("unexpected report %+v", sess.Report)
	}

	resp, body = h.do(http.MethodGet, sess.PreviewURL, nil)
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Disposition"), "inline") {
		t.Fatalf("preview: %d %q", resp.StatusCode, resp.Header.Get("Content-Disposition"))
	}
	if string(body) != "%PDF-1.7 rendered" {
		t.Fatalf("unexpected preview body %q", body)
	}

	previewURL := sess.PreviewURL
	send := api.SendRequest{To: []string{"ops@example.com"}, Subject: "Invoice approval", Body: "attached"}
	resp, body = h.do(http.MethodPost, base+"/send", send)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("send: %d %s", resp.StatusCode, body)
	}
	decode(t, body, &sess)
	if sess.State != "sent" || sess.Artifact != nil {
		t.Fatalf("unexpected session after send %+v", sess)
	}
	if requests := h.sender.sent(); len(requests) != 1 || requests[0].Artifact.MIME != "application/pdf" {
		t.Fatalf("unexpected dispatch requests %+v", requests)
	}

	resp, body = h.do(http.MethodGet, previewURL, nil)
	expectError(t, resp, body, http.StatusNotFound)
	if h.daemon.Previews().Live() != 0 || h.daemon.Previews().Revocations() != 1 {
		t.Fatalf("expected preview released once, live=%d revocations=%d", h.daemon.Previews().Live(), h.daemon.Previews().Revocations())
	}

	resp, body = h.do(http.MethodPost, base+"/send", send)
	expectError(t, resp, body, http.StatusConflict)
	resp, body = h.do(http.MethodGet, base+"/artifact", nil)
	expectError(t, resp, body, http.StatusConflict)
}

func TestGenerateFailuresMapToStatus(t *testing.T) {
	h := newHarness(t, []int{2}, http.StatusInternalServerError)
	sess := h.createSession()
	base := "/api/sessions/" + sess.ID

	resp, body := h.do(http.MethodPost, base+"/generate", api.GenerateRequest{Format: "xlsx"})
	envelope := expectError(t, resp, body, http.StatusUnprocessableEntity)
	if !strings.Contains(envelope.Error.Message, "step 2") {
		t.Fatalf("expected step index in message, got %q", envelope.Error.Message)
	}

	resp, body = h.do(http.MethodPost, base+"/generate", api.GenerateRequest{Format: "pdf"})
	expectError(t, resp, body, http.StatusBadGateway)

	resp, body = h.do(http.MethodPost, base+"/generate", api.GenerateRequest{Format: "odt"})
	expectError(t, resp, body, http.StatusBadRequest)

	resp, body = h.do(http.MethodPost, base+"/generate", api.GenerateRequest{Format: "docx", Mode: "poetry"})
	expectError(t, resp, body, http.StatusBadRequest)

	resp, body = h.do(http.MethodGet, base, nil)
	decode(t, body, &sess)
	if sess.State != "failed" || sess.LastError == "" {
		t.Fatalf("expected failed session, got %+v", sess)
	}

	resp, body = h.do(http.MethodPost, base+"/generate", api.GenerateRequest{Format: "docx", Mode: "translated"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("word export should tolerate missing screenshot: %d %s", resp.StatusCode, body)
	}
	decode(t, body, &sess)
	if sess.Mode != "translated" || sess.PreviewURL != "" {
		t.Fatalf("unexpected docx session %+v", sess)
	}
}

func TestSendFailureRetainsArtifact(t *testing.T) {
	h := newHarness(t, nil, http.StatusOK)
	sess := h.createSession()
	base := "/api/sessions/" + sess.ID
	if resp, body := h.do(http.MethodPost, base+"/generate", api.GenerateRequest{Format: "pptx"}); resp.StatusCode != http.StatusOK {
		t.Fatalf("generate: %d %s", resp.StatusCode, body)
	}
	send := api.SendRequest{To: []string{"ops@example.com"}, Subject: "Deck", Body: "attached"}

	h.sender.fail(&dispatch.Error{Kind: dispatch.KindUnauthorized, Err: errors.New("token expired")})
	resp, body := h.do(http.MethodPost, base+"/send", send)
	expectError(t, resp, body, http.StatusUnauthorized)

	h.sender.fail(&dispatch.Error{Kind: dispatch.KindTransportFailed, Err: errors.New("backend down")})
	resp, body = h.do(http.MethodPost, base+"/send", send)
	expectError(t, resp, body, http.StatusBadGateway)

	h.sender.fail(&dispatch.Error{Kind: dispatch.KindValidationFailed, Err: errors.New("subject required")})
	resp, body = h.do(http.MethodPost, base+"/send", send)
	expectError(t, resp, body, http.StatusBadRequest)

	resp, body = h.do(http.MethodGet, base+"/artifact", nil)
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Disposition"), "attachment") {
		t.Fatalf("expected retained artifact download, got %d %q", resp.StatusCode, resp.Header.Get("Content-Disposition"))
	}
	if resp.Header.Get("Content-Type") != "application/vnd.openxmlformats-officedocument.presentationml.presentation" || len(body) == 0 {
		t.Fatalf("unexpected download %q (%d bytes)", resp.Header.Get("Content-Type"), len(body))
	}

	h.sender.fail(nil)
	resp, body = h.do(http.MethodPost, base+"/send", send)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("retry send: %d %s", resp.StatusCode, body)
	}
}

func TestCancelAndDeleteReleasePreview(t *testing.T) {
	h := newHarness(t, nil, http.StatusOK)
	first := h.createSession()
	second := h.createSession()

	for _, id := range []string{first.ID, second.ID} {
		if resp, body := h.do(http.MethodPost, "/api/sessions/"+id+"/generate", api.GenerateRequest{Format: "pdf"}); resp.StatusCode != http.StatusOK {
			t.Fatalf("generate: %d %s", resp.StatusCode, body)
		}
	}
	if live := h.daemon.Previews().Live(); live != 2 {
		t.Fatalf("expected 2 live previews, got %d", live)
	}

	resp, body := h.do(http.MethodPost, "/api/sessions/"+first.ID+"/cancel", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel: %d %s", resp.StatusCode, body)
	}
	resp, _ = h.do(http.MethodDelete, "/api/sessions/"+second.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: %d", resp.StatusCode)
	}
	if h.daemon.Previews().Live() != 0 || h.daemon.Previews().Revocations() != 2 {
		t.Fatalf("expected all previews released once, live=%d revocations=%d", h.daemon.Previews().Live(), h.daemon.Previews().Revocations())
	}
	resp, body = h.do(http.MethodGet, "/api/sessions/"+second.ID, nil)
	expectError(t, resp, body, http.StatusNotFound)

	resp, body = h.do(http.MethodGet, "/api/sessions", nil)
	var list api.SessionListResponse
	decode(t, body, &list)
	if len(list.Sessions) != 1 || list.Sessions[0].ID != first.ID || list.Sessions[0].State != "idle" {
		t.Fatalf("unexpected session list %+v", list.Sessions)
	}
}

func TestAPIRequiresBearerToken(t *testing.T) {
	h := newHarness(t, nil, http.StatusOK, func(cfg *config.Config) { cfg.Paths.APIToken = "secret" })

	h.token = ""
	resp, body := h.do(http.MethodGet, "/api/sessions", nil)
	expectError(t, resp, body, http.StatusUnauthorized)
	resp, _ = h.do(http.MethodGet, "/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health should not require auth, got %d", resp.StatusCode)
	}

	h.token = "wrong"
	resp, body = h.do(http.MethodGet, "/api/sessions", nil)
	expectError(t, resp, body, http.StatusUnauthorized)

	h.token = "secret"
	resp, body = h.do(http.MethodGet, "/api/sessions", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d (%s)", resp.StatusCode, body)
	}
}

func TestSendIsRateLimited(t *testing.T) {
	h := newHarness(t, nil, http.StatusOK, func(cfg *config.Config) {
		cfg.API.SendPerMinute = 1
		cfg.API.SendBurst = 1
	})
	sess := h.createSession()
	base := "/api/sessions/" + sess.ID
	send := api.SendRequest{To: []string{"ops@example.com"}, Subject: "Sheet", Body: "attached"}

	resp, body := h.do(http.MethodPost, base+"/send", send)
	expectError(t, resp, body, http.StatusConflict)
	resp, body = h.do(http.MethodPost, base+"/send", `{"to": 5}`)
	expectError(t, resp, body, http.StatusBadRequest)

	if resp, body := h.do(http.MethodPost, base+"/generate", api.GenerateRequest{Format: "xlsx"}); resp.StatusCode != http.StatusOK {
		t.Fatalf("generate: %d %s", resp.StatusCode, body)
	}
	h.sender.fail(&dispatch.Error{Kind: dispatch.KindTransportFailed, Err: errors.New("backend down")})
	resp, body = h.do(http.MethodPost, base+"/send", send)
	expectError(t, resp, body, http.StatusBadGateway)

	resp, body = h.do(http.MethodPost, base+"/send", send)
	expectError(t, resp, body, http.StatusTooManyRequests)
	if calls := len(h.sender.sent()); calls != 1 {
		t.Fatalf("expected limited request to skip the transport, got %d calls", calls)
	}
}

func TestListSessionsFiltersByState(t *testing.T) {
	h := newHarness(t, nil, http.StatusOK)
	ready := h.createSession()
	idle := h.createSession()
	if resp, body := h.do(http.MethodPost, "/api/sessions/"+ready.ID+"/generate", api.GenerateRequest{Format: "xlsx"}); resp.StatusCode != http.StatusOK {
		t.Fatalf("generate: %d %s", resp.StatusCode, body)
	}

	resp, body := h.do(http.MethodGet, "/api/sessions?state=Previewable", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: %d %s", resp.StatusCode, body)
	}
	var list api.SessionListResponse
	decode(t, body, &list)
	if len(list.Sessions) != 1 || list.Sessions[0].ID != ready.ID {
		t.Fatalf("expected only %s, got %+v", ready.ID, list.Sessions)
	}

	resp, body = h.do(http.MethodGet, "/api/sessions?state=idle", nil)
	decode(t, body, &list)
	if len(list.Sessions) != 1 || list.Sessions[0].ID != idle.ID {
		t.Fatalf("expected only %s, got %+v", idle.ID, list.Sessions)
	}

	resp, body = h.do(http.MethodGet, "/api/sessions?state=archived", nil)
	expectError(t, resp, body, http.StatusBadRequest)
}

func TestCreateSessionRejectsInvalidVariant(t *testing.T) {
	h := newHarness(t, nil, http.StatusOK)
	resp, body := h.do(http.MethodPost, "/api/sessions", `{"name": "no id"}`)
	expectError(t, resp, body, http.StatusBadRequest)
	resp, body = h.do(http.MethodPut, "/api/sessions", nil)
	expectError(t, resp, body, http.StatusMethodNotAllowed)
}

func TestRecoverMiddlewareWrapsPanics(t *testing.T) {
	h := newHarness(t, nil, http.StatusOK)
	handler := h.daemon.api.recoverMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	expectError(t, rec.Result(), rec.Body.Bytes(), http.StatusInternalServerError)
}
