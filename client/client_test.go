package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	imagegen "github.com/zcordelier/imagegen"
)

func TestRun(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/fal-ai/flux/dev", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Write([]byte(`{"images":[{"url":"https://cdn.example/a.png"}]}`))
	}))
	defer srv.Close()

	c := New("secret", WithBaseURLs(srv.URL, "", ""))
	inv, err := c.Run(context.Background(), "fal-ai/flux/dev", map[string]any{"prompt": "x"})
	require.NoError(t, err)

	assert.Equal(t, "Key secret", gotAuth)
	assert.JSONEq(t, `{"prompt":"x"}`, gotBody)
	assert.JSONEq(t, `{"images":[{"url":"https://cdn.example/a.png"}]}`, string(inv.JSON()))
}

func TestRunErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New("secret", WithBaseURLs(srv.URL, "", ""))
	_, err := c.Run(context.Background(), "fal-ai/flux/dev", nil)

	var remote *imagegen.RemoteCallError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusServiceUnavailable, remote.Status)
	assert.Contains(t, remote.Error(), "model overloaded")
}

func TestSubscribe(t *testing.T) {
	var polls atomic.Int32
	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/fal-ai/flux/schnell", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		json.NewEncoder(w).Encode(map[string]string{
			"request_id":   "req42",
			"status_url":   srv.URL + "/status",
			"response_url": srv.URL + "/result",
		})
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		status := "IN_PROGRESS"
		if polls.Add(1) >= 3 {
			status = "COMPLETED"
		}
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	})
	mux.HandleFunc("/result", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"request_id":"req42","images":[]}`))
	})

	srv = httptest.NewServer(mux)
	defer srv.Close()

	c := New("secret",
		WithBaseURLs("", srv.URL, ""),
		WithPollInterval(time.Millisecond))
	inv, err := c.Subscribe(context.Background(), "fal-ai/flux/schnell", map[string]any{"prompt": "x"})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, polls.Load(), int32(3))
	assert.JSONEq(t, `{"request_id":"req42","images":[]}`, string(inv.JSON()))
}

func TestSubscribeMissingURLs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"request_id":"req42"}`))
	}))
	defer srv.Close()

	c := New("secret", WithBaseURLs("", srv.URL, ""))
	_, err := c.Subscribe(context.Background(), "fal-ai/flux/schnell", nil)

	var remote *imagegen.RemoteCallError
	require.ErrorAs(t, err, &remote)
}

func TestSubscribeContextCancel(t *testing.T) {
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/ep", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"status_url":   srv.URL + "/status",
			"response_url": srv.URL + "/result",
		})
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "IN_QUEUE"})
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := New("secret", WithBaseURLs("", srv.URL, ""), WithPollInterval(5*time.Millisecond))
	_, err := c.Subscribe(ctx, "ep", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUpload(t *testing.T) {
	var uploaded []byte
	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/storage/upload/initiate", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "photo.jpg", body["file_name"])
		assert.Equal(t, "image/jpeg", body["content_type"])
		json.NewEncoder(w).Encode(map[string]string{
			"upload_url": srv.URL + "/put-here",
			"file_url":   "https://storage.example/photo.jpg",
		})
	})
	mux.HandleFunc("/put-here", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "image/jpeg", r.Header.Get("Content-Type"))
		uploaded, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	})

	srv = httptest.NewServer(mux)
	defer srv.Close()

	c := New("secret", WithBaseURLs("", "", srv.URL))
	url, err := c.Upload(context.Background(), "photo.jpg", "image/jpeg", []byte("bytes"))
	require.NoError(t, err)

	assert.Equal(t, "https://storage.example/photo.jpg", url)
	assert.Equal(t, []byte("bytes"), uploaded)
}

func TestResponseResult(t *testing.T) {
	resp := &Response{raw: []byte(`{"request_id":"req42"}`)}

	result, err := resp.Result()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"request_id": "req42"}, result)
}
