package logger

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)

	h := l.AccessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPatch, "/api/reservations/CN100", nil))

	assert.Contains(t, buf.String(), "PATCH /api/reservations/CN100 - 418")
}
