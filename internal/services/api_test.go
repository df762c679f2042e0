package services

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/spotdl/internal/shared"
	tu "github.com/desertthunder/spotdl/internal/testing"
)

func TestHTTPFetcher(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom Client", func(t *testing.T) {
			customClient := &http.Client{}
			f := NewHTTPFetcher(customClient)
			if f.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("With Nil Client", func(t *testing.T) {
			f := NewHTTPFetcher(nil)
			if f.httpClient == nil || f.httpClient.Timeout == 0 {
				t.Error("expected default client with a timeout")
			}
		})
	})

	t.Run("Fetch", func(t *testing.T) {
		t.Run("Successful Request", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET method, got %s", r.Method)
				}
				w.Write([]byte{0xFF, 0xD8, 0xFF})
			}))
			defer server.Close()

			body, err := NewHTTPFetcher(server.Client()).Fetch(context.Background(), server.URL+"/cover.jpg")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !bytes.Equal(body, []byte{0xFF, 0xD8, 0xFF}) {
				t.Errorf("unexpected body %v", body)
			}
		})

		t.Run("Non-2xx Status", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer server.Close()

			if _, err := NewHTTPFetcher(server.Client()).Fetch(context.Background(), server.URL); !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("Empty URL", func(t *testing.T) {
			if _, err := NewHTTPFetcher(nil).Fetch(context.Background(), ""); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})

		t.Run("Transport Error", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
			if _, err := NewHTTPFetcher(client).Fetch(context.Background(), "http://example.test/a.jpg"); !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("Body Read Error", func(t *testing.T) {
			resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: http.Header{}}
			client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}
			if _, err := NewHTTPFetcher(client).Fetch(context.Background(), "http://example.test/a.jpg"); err == nil {
				t.Error("expected read error")
			}
		})
	})
}
