package httputil

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	t.Run("ok helper", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteJSONOK(w, map[string]int{"n": 3})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"n": 3}`, w.Body.String())
	})

	t.Run("error helpers set status and body", func(t *testing.T) {
		tests := []struct {
			name   string
			write  func(http.ResponseWriter)
			status int
		}{
			{"bad request", func(w http.ResponseWriter) { BadRequest(w, "nope") }, http.StatusBadRequest},
			{"not found", func(w http.ResponseWriter) { NotFound(w, "nope") }, http.StatusNotFound},
			{"method not allowed", func(w http.ResponseWriter) { MethodNotAllowed(w) }, http.StatusMethodNotAllowed},
			{"internal", func(w http.ResponseWriter) { InternalServerError(w, "nope") }, http.StatusInternalServerError},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := httptest.NewRecorder()
				tt.write(w)
				assert.Equal(t, tt.status, w.Code)
				assert.Contains(t, w.Body.String(), "error")
			})
		}
	})
}

func TestMockHTTPClient(t *testing.T) {
	newReq := func() *http.Request {
		return httptest.NewRequest(http.MethodGet, "http://example.com/x", nil)
	}

	t.Run("replays queued responses in order", func(t *testing.T) {
		m := NewMockHTTPClient()
		m.AddResponse(201, "first").AddResponse(500, "second")

		r1, err := m.Do(newReq())
		require.NoError(t, err)
		assert.Equal(t, 201, r1.StatusCode)
		b, _ := io.ReadAll(r1.Body)
		assert.Equal(t, "first", string(b))

		r2, err := m.Do(newReq())
		require.NoError(t, err)
		assert.Equal(t, 500, r2.StatusCode)
	})

	t.Run("exhausted queue defaults to an empty 200", func(t *testing.T) {
		m := NewMockHTTPClient()
		r, err := m.Do(newReq())
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, r.StatusCode)
	})

	t.Run("queued errors surface", func(t *testing.T) {
		m := NewMockHTTPClient()
		m.AddError(errors.New("boom"))
		_, err := m.Do(newReq())
		assert.EqualError(t, err, "boom")
	})

	t.Run("records every request", func(t *testing.T) {
		m := NewMockHTTPClient()
		m.Do(newReq())
		m.Do(newReq())
		assert.Len(t, m.Requests, 2)
	})

	t.Run("DoFunc overrides the queue", func(t *testing.T) {
		m := NewMockHTTPClient()
		m.AddResponse(200, "queued")
		m.DoFunc = func(*http.Request) (*http.Response, error) {
			return nil, errors.New("from func")
		}
		_, err := m.Do(newReq())
		assert.EqualError(t, err, "from func")
	})
}
