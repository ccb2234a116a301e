package fetcher

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestFetchPage(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("<html><h1>ok</h1></html>"))
	}))
	defer srv.Close()

	client := NewHTTPClient("test-agent", 5*time.Second, 5*time.Second)

	html, err := client.FetchPage(context.Background(), srv.URL+"/listing")
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>ok</h1>")
	assert.Equal(t, "test-agent", gotUA)

	_, err = client.FetchPage(context.Background(), srv.URL+"/missing")
	assert.Error(t, err)
}

func TestFetchLogo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/typed.png":
			w.Header().Set("Content-Type", "image/png; charset=binary")
			_, _ = w.Write(pngHeader)
		case "/sniffed":
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write(pngHeader)
		case "/huge":
			_, _ = w.Write(bytes.Repeat([]byte{0}, MaxLogoBytes+10))
		case "/empty":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewHTTPClient("test-agent", 5*time.Second, 5*time.Second)
	ctx := context.Background()

	data, mime, err := client.FetchLogo(ctx, srv.URL+"/typed.png")
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
	assert.Equal(t, "image/png", mime)

	_, mime, err = client.FetchLogo(ctx, srv.URL+"/sniffed")
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	_, _, err = client.FetchLogo(ctx, srv.URL+"/huge")
	assert.ErrorIs(t, err, ErrLogoTooLarge)

	_, _, err = client.FetchLogo(ctx, srv.URL+"/empty")
	assert.Error(t, err)

	_, _, err = client.FetchLogo(ctx, srv.URL+"/gone")
	assert.Error(t, err)
}
