package utils

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/get":
			w.Write([]byte(`{"value":"ok"}`))
		case "/post":
			var in map[string]string
			json.NewDecoder(r.Body).Decode(&in)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			json.NewEncoder(w).Encode(map[string]string{"value": in["echo"]})
		default:
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream down"))
		}
	}))
	defer srv.Close()

	client := NewHTTPClient(time.Second)
	var out struct {
		Value string `json:"value"`
	}

	require.NoError(t, client.GetJSON(context.Background(), srv.URL+"/get", &out))
	assert.Equal(t, "ok", out.Value)

	require.NoError(t, client.PostJSON(context.Background(), srv.URL+"/post", map[string]string{"echo": "hi"}, &out))
	assert.Equal(t, "hi", out.Value)

	err := client.GetJSON(context.Background(), srv.URL+"/fail", &out)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, "upstream down", statusErr.Body)
}

func TestHTTPClientDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes"))
	}))
	defer srv.Close()

	client := NewHTTPClient(time.Second)
	body, contentType, err := client.Download(context.Background(), srv.URL+"/a.jpg")
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, "jpeg-bytes", string(data))
	assert.Equal(t, "image/jpeg", contentType)

	_, _, err = client.Download(context.Background(), srv.URL+"/missing")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}
