package utils

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jwh1000/Manga2EPUB/pkg/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSavePage(t *testing.T) {
	var got data.PagePayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/save_page", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(data.SaveResponse{Status: "success"})
	}))
	defer server.Close()

	api := NewAPI(server.URL + "/")
	payload := data.PagePayload{Manga: "M", Chapter: "C", Filename: "Page_000", ImageData: "aGk="}
	require.NoError(t, api.SavePage(context.Background(), payload))
	assert.Equal(t, payload, got)
}

func TestSavePageServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(data.SaveResponse{Status: "error", Message: "disk full"})
	}))
	defer server.Close()

	err := NewAPI(server.URL).SavePage(context.Background(), data.PagePayload{})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
	assert.Equal(t, "disk full", statusErr.Message)
	assert.Contains(t, err.Error(), "disk full")
}

func TestSavePageRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(data.SaveResponse{Status: "error", Message: "nope"})
	}))
	defer server.Close()

	err := NewAPI(server.URL).SavePage(context.Background(), data.PagePayload{})
	assert.ErrorContains(t, err, "nope")
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("OK"))
	}))
	defer server.Close()

	assert.NoError(t, NewAPI(server.URL).Ping(context.Background()))
	assert.Error(t, NewAPI(server.URL+"/missing").Ping(context.Background()))
}

func TestPingUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	assert.Error(t, NewAPI(url).Ping(context.Background()))
}

func TestGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "b", r.URL.Query().Get("a"))
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer server.Close()

	var reply data.SaveResponse
	require.NoError(t, NewAPI(server.URL).WithClient(server.Client()).Get(context.Background(), "/x", map[string][]string{"a": {"b"}}, &reply))
	assert.Equal(t, "success", reply.Status)
}
