package httpapi

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-shiplabel/internal/app"
	"github.com/a3tai/mcp-shiplabel/internal/config"
	"github.com/a3tai/mcp-shiplabel/internal/export"
	"github.com/a3tai/mcp-shiplabel/internal/session"
	"github.com/a3tai/mcp-shiplabel/internal/testpdf"
)

type snapshotBody struct {
	ID     string         `json:"id"`
	State  string         `json:"state"`
	Status session.Status `json:"status"`
	Label  *struct {
		Tracking string `json:"tracking"`
	} `json:"label"`
}

func newTestServer(t *testing.T) (*Server, *Hub) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.InputDirectory = t.TempDir()
	cfg.OutputDirectory = t.TempDir()
	cfg.Scale = 1

	hub := NewHub()
	a, err := app.New(cfg, nil, session.WithNotifier(hub.Publish))
	require.NoError(t, err)
	a.Sessions.Get("tab")
	return NewServer(a, hub), hub
}

func uploadRequest(t *testing.T, url, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) snapshotBody {
	t.Helper()
	var snap snapshotBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap), rec.Body.String())
	return snap
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"healthy":true`)
}

func TestInputs(t *testing.T) {
	s, _ := newTestServer(t)
	dir := s.app.Service.InputDirectory()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "order.pdf"), testpdf.ShippingLabel(), 0o644))

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/inputs?refresh=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Files []struct {
			Name string `json:"name"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Files, 1)
	assert.Equal(t, "order.pdf", res.Files[0].Name)
}

func TestCreateAndStatus(t *testing.T) {
	s, _ := newTestServer(t)

	rec := serve(s, httptest.NewRequest(http.MethodPost, "/sessions", nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeSnapshot(t, rec)
	require.NotEmpty(t, created.ID)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/sessions/"+created.ID+"/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decodeSnapshot(t, rec)
	assert.Equal(t, "idle", snap.State)
	assert.Nil(t, snap.Label)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/sessions/nope/status", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadExportPreview(t *testing.T) {
	s, _ := newTestServer(t)

	rec := serve(s, uploadRequest(t, "/sessions/tab/upload", "label.pdf", "application/pdf", testpdf.ShippingLabel()))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap := decodeSnapshot(t, rec)
	assert.Equal(t, "parsed", snap.State)
	assert.Equal(t, session.SeveritySuccess, snap.Status.Severity)
	require.NotNil(t, snap.Label)
	assert.Equal(t, testpdf.SampleTracking, snap.Label.Tracking)

	rec = serve(s, httptest.NewRequest(http.MethodPost, "/sessions/tab/export?format=thermal", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=`+testpdf.SampleFilename, rec.Header().Get("Content-Disposition"))
	info, err := export.Inspect(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 1, info.Pages)
	assert.InDelta(t, 100.0, info.WidthMM, 0.5)

	rec = serve(s, httptest.NewRequest(http.MethodPost, "/sessions/tab/export?format=a4", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "vania_body_manga_longa_A4.pdf")

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/sessions/tab/preview.png", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
}

func TestUploadRejectsNonPDF(t *testing.T) {
	s, _ := newTestServer(t)

	rec := serve(s, uploadRequest(t, "/sessions/tab/upload", "photo.png", "image/png", []byte("png")))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Status)
	assert.Equal(t, session.Status{Message: "Selecione um arquivo PDF.", Severity: session.SeverityError}, *body.Status)
}

func TestUploadUnknownSession(t *testing.T) {
	s, _ := newTestServer(t)
	rec := serve(s, uploadRequest(t, "/sessions/other/upload", "label.pdf", "application/pdf", testpdf.ShippingLabel()))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, []string{"tab"}, s.app.Sessions.IDs(), "uploads never create sessions")
}

func TestUploadMissingFile(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/sessions/tab/upload", strings.NewReader("x"))
	req.Header.Set("Content-Type", "text/plain")
	rec := serve(s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadExtractionFailure(t *testing.T) {
	s, _ := newTestServer(t)
	rec := serve(s, uploadRequest(t, "/sessions/tab/upload", "broken.pdf", "application/pdf", []byte("not a pdf")))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Erro ao ler PDF: ")
}

func TestExportBeforeUpload(t *testing.T) {
	s, _ := newTestServer(t)

	rec := serve(s, httptest.NewRequest(http.MethodPost, "/sessions/tab/export", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/sessions/tab/preview.png", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteSession(t *testing.T) {
	s, _ := newTestServer(t)
	serve(s, uploadRequest(t, "/sessions/tab/upload", "label.pdf", "application/pdf", testpdf.ShippingLabel()))

	rec := serve(s, httptest.NewRequest(http.MethodDelete, "/sessions/tab", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/sessions/tab/status", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(s, httptest.NewRequest(http.MethodDelete, "/sessions/tab", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHub_PublishFiltersBySession(t *testing.T) {
	hub := NewHub()
	a := hub.Subscribe("a")
	b := hub.Subscribe("b")
	defer hub.Unsubscribe(b)

	hub.Publish(session.Notification{SessionID: "a", Filename: "x.pdf"})
	assert.Equal(t, session.Notification{SessionID: "a", Filename: "x.pdf"}, <-a)
	assert.Empty(t, b)

	hub.Unsubscribe(a)
	hub.Publish(session.Notification{SessionID: "a", Filename: "y.pdf"})
	assert.Empty(t, a)
}

func TestEvents_StreamsExportNotification(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	rec := serve(s, uploadRequest(t, "/sessions/tab/upload", "label.pdf", "application/pdf", testpdf.ShippingLabel()))
	require.Equal(t, http.StatusOK, rec.Code)

	resp, err := http.Get(ts.URL + "/sessions/tab/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewReader(resp.Body)
	first, err := lines.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", first)

	rec = serve(s, httptest.NewRequest(http.MethodPost, "/sessions/tab/export", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	found := make(chan string, 1)
	go func() {
		for {
			line, err := lines.ReadString('\n')
			if err != nil {
				return
			}
			if strings.HasPrefix(line, "data: ") && strings.Contains(line, "filename") {
				found <- line
				return
			}
		}
	}()

	select {
	case line := <-found:
		assert.Contains(t, line, testpdf.SampleFilename)
		assert.Contains(t, line, `"session_id":"tab"`)
	case <-time.After(5 * time.Second):
		t.Fatal("no export event received")
	}
}
