package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/mikey/sheet-inbox/internal/blocklist"
	"github.com/mikey/sheet-inbox/internal/core"
	"github.com/mikey/sheet-inbox/internal/inbox"
)

type stubSource struct {
	body string
	err  error
}

func (s *stubSource) Fetch(_ context.Context, src core.Source) (*core.Snapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &core.Snapshot{SourceID: src.ID, Body: []byte(s.body)}, nil
}

const sheetBody = "telefono,mensaje,timestamp_ar,fecha\n" +
	"+54 11 1111,hola,2025-03-01 10:00:00,\n" +
	"222,precio de salón,2025-03-01 11:00:00,\n"

func newTestServer(t *testing.T, src *stubSource, opts Options) (*core.InboxService, http.Handler) {
	t.Helper()
	svc := core.NewInboxService(src, nil, nil, blocklist.NewChecker(nil, nil), zap.NewNop(), core.FeedSettings{
		Sources:      []core.Source{{ID: "a", URL: "https://example.com/a.csv"}},
		TimeParser:   inbox.NewTimeParser(time.UTC, nil),
		RecentWindow: 15 * time.Minute,
		Greeting:     "Hola",
	})
	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	return svc, NewServer(svc, zap.NewNop(), opts).Handler()
}

func do(t *testing.T, h http.Handler, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func phonePath(phone string) string {
	return "/api/clients/" + url.PathEscape(phone)
}

func TestHealthAndStatus(t *testing.T) {
	_, h := newTestServer(t, &stubSource{body: sheetBody}, Options{EditURL: "https://docs.google.com/edit"})

	w := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	var st map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, float64(2), st["groups"])
	assert.Equal(t, "https://docs.google.com/edit", st["edit_url"])
	assert.Equal(t, true, st["loaded"])
}

func TestListAndQuery(t *testing.T) {
	_, h := newTestServer(t, &stubSource{body: sheetBody}, Options{})

	w := do(t, h, http.MethodGet, "/api/clients", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp listResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, "222", resp.Clients[0].Phone)

	w = do(t, h, http.MethodGet, "/api/clients?q="+url.QueryEscape("SALÓN"), "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "222", resp.Clients[0].Phone)
}

func TestContactLifecycle(t *testing.T) {
	_, h := newTestServer(t, &stubSource{body: sheetBody}, Options{})
	path := phonePath("+54 11 1111")

	w := do(t, h, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	var c core.ContactView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
	assert.Equal(t, "+54 11 1111", c.Phone)
	assert.Equal(t, "https://wa.me/54111111?text=Hola", c.ReplyURL)

	w = do(t, h, http.MethodPut, path+"/checked", `{"checked": true}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
	assert.True(t, c.Checked)

	w = do(t, h, http.MethodPut, path+"/checked", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	var resp listResponse
	w = do(t, h, http.MethodGet, "/api/clients", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)

	w = do(t, h, http.MethodPost, path+"/restore", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodPost, "/api/overlay/reset", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodGet, "/api/clients", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	for _, c := range resp.Clients {
		assert.False(t, c.Checked)
	}
}

func TestUnknownContact(t *testing.T) {
	_, h := newTestServer(t, &stubSource{body: sheetBody}, Options{})

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, phonePath("999"), ""},
		{http.MethodDelete, phonePath("999"), ""},
		{http.MethodPost, phonePath("999") + "/restore", ""},
		{http.MethodPut, phonePath("999") + "/checked", `{"checked": false}`},
		{http.MethodGet, phonePath("999") + "/reply", ""},
	} {
		w := do(t, h, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusNotFound, w.Code, tc.method+" "+tc.path)
	}
}

func TestReply(t *testing.T) {
	_, h := newTestServer(t, &stubSource{body: sheetBody}, Options{})

	w := do(t, h, http.MethodGet, phonePath("222")+"/reply", "")
	require.Equal(t, http.StatusOK, w.Code)
	var draft core.ReplyDraft
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &draft))
	assert.Equal(t, "Hola", draft.Text)
	assert.Equal(t, "https://wa.me/222?text=Hola", draft.URL)
}

func TestRefresh(t *testing.T) {
	src := &stubSource{body: sheetBody}
	_, h := newTestServer(t, src, Options{})

	w := do(t, h, http.MethodPost, "/api/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)
	var res core.RefreshResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 2, res.Groups)

	src.err = errors.New("sheet unavailable")
	w = do(t, h, http.MethodPost, "/api/refresh", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "sheet unavailable")

	// previous contacts survive the failed refresh
	w = do(t, h, http.MethodGet, "/api/clients", "")
	var resp listResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
}

func TestExport(t *testing.T) {
	_, h := newTestServer(t, &stubSource{body: sheetBody}, Options{})

	w := do(t, h, http.MethodGet, "/api/export.xlsx", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "clientes.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Clientes")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestBasicAuth(t *testing.T) {
	_, h := newTestServer(t, &stubSource{body: sheetBody}, Options{Username: "rosse", Password: "vita"})

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/api/clients", "").Code)

	r := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
	r.SetBasicAuth("rosse", "vita")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStartStop(t *testing.T) {
	svc, _ := newTestServer(t, &stubSource{body: sheetBody}, Options{})
	s := NewServer(svc, zap.NewNop(), Options{ListenAddress: "127.0.0.1:0"})
	require.NoError(t, s.Start())

	resp, err := http.Get("http://" + s.Addr() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
