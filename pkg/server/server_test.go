package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jwh1000/Manga2EPUB/pkg/data"
	"github.com/jwh1000/Manga2EPUB/pkg/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, store PageSaver) *Server {
	t.Helper()
	s, err := New(Config{Store: store, Logger: testLogger(), Port: "0"})
	require.NoError(t, err)
	return s
}

type failingStore struct{}

func (failingStore) Save(data.PagePayload) (*data.StoredPage, error) {
	return nil, errors.New("permission denied")
}

func pngBase64(t *testing.T) (string, []byte) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), buf.Bytes()
}

func post(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, data.SaveResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/save_page", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp data.SaveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestNewDefaults(t *testing.T) {
	s, err := New(Config{Store: failingStore{}})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:5000", s.Addr())
	assert.False(t, s.IsRunning())
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, failingStore{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSavePage(t *testing.T) {
	base := t.TempDir()
	s := newTestServer(t, services.NewPageStore(base, nil, testLogger()))
	encoded, raw := pngBase64(t)

	body, _ := json.Marshal(data.PagePayload{Manga: "M", Chapter: "C", Filename: "Page_000.jpg", ImageData: encoded})
	rec, resp := post(t, s.Handler(), string(body))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", resp.Status)
	assert.Empty(t, resp.Message)

	written, err := os.ReadFile(filepath.Join(base, "M", "C", "Page_000.png"))
	require.NoError(t, err)
	assert.Equal(t, raw, written)
}

func TestSavePageErrors(t *testing.T) {
	base := t.TempDir()
	s := newTestServer(t, services.NewPageStore(base, nil, testLogger()))

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "{not json"},
		{"bad base64", `{"manga":"M","chapter":"C","filename":"p","image_data":"%%%"}`},
		{"missing data", `{"manga":"M","chapter":"C","filename":"p"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := post(t, s.Handler(), tt.body)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, "error", resp.Status)
			assert.NotEmpty(t, resp.Message)
		})
	}

	_, err := os.Stat(filepath.Join(base, "M"))
	assert.True(t, os.IsNotExist(err))
}

func TestSavePageStoreFailure(t *testing.T) {
	s := newTestServer(t, failingStore{})
	rec, resp := post(t, s.Handler(), `{"image_data":"aGk="}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "permission denied", resp.Message)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, failingStore{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/save_page", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, failingStore{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStartAndShutdown(t *testing.T) {
	s := newTestServer(t, failingStore{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, s.IsRunning, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + s.Addr() + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Error(t, s.Start(ctx), "second start should fail")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.False(t, s.IsRunning())
}
