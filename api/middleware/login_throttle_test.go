package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
)

type memCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (m *memCounter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, 0, m.err
	}
	if m.counts == nil {
		m.counts = map[string]int64{}
	}
	m.counts[scope]++
	return m.counts[scope] <= limit, m.counts[scope], nil
}

func loginRequest(addr, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/auth/login", strings.NewReader(body))
	req.RemoteAddr = addr
	return req
}

func TestLoginThrottle(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		_, _ = w.Write(body)
	})

	t.Run("handler still sees the body", func(t *testing.T) {
		h := LoginThrottle(Throttle{Window: time.Minute, PerIP: 5, PerUser: 5}, &memCounter{}, logger.Nop())(ok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, loginRequest("1.2.3.4:5678", `{"username":"admin","password":"secret"}`))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"username":"admin","password":"secret"}`, rec.Body.String())
	})

	t.Run("usernames are normalised before counting", func(t *testing.T) {
		h := LoginThrottle(Throttle{Window: time.Minute, PerUser: 2}, &memCounter{}, nil)(ok)
		var codes []int
		for i, name := range []string{"Admin", " admin", "ADMIN "} {
			rec := httptest.NewRecorder()
			addr := "10.0.0." + string(rune('1'+i)) + ":1"
			h.ServeHTTP(rec, loginRequest(addr, `{"username":"`+name+`"}`))
			codes = append(codes, rec.Code)
		}
		assert.Equal(t, []int{200, 200, 429}, codes)
	})

	t.Run("per address limit", func(t *testing.T) {
		h := LoginThrottle(Throttle{Window: time.Minute, PerIP: 1}, &memCounter{}, nil)(ok)
		first := httptest.NewRecorder()
		h.ServeHTTP(first, loginRequest("5.6.7.8:1234", `{"username":"a"}`))
		second := httptest.NewRecorder()
		h.ServeHTTP(second, loginRequest("5.6.7.8:9999", `{"username":"b"}`))

		assert.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, http.StatusTooManyRequests, second.Code)
		assert.Equal(t, "60", second.Header().Get("Retry-After"))
		assert.Contains(t, second.Body.String(), string(pkgerrors.CodeRateLimit))
	})

	t.Run("counter failure is a dependency error", func(t *testing.T) {
		h := LoginThrottle(Throttle{Window: time.Minute, PerIP: 1}, &memCounter{err: errors.New("redis down")}, nil)(ok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, loginRequest("5.6.7.8:1", `{}`))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("no store passes through", func(t *testing.T) {
		h := LoginThrottle(Throttle{Window: time.Minute, PerIP: 1, PerUser: 1}, nil, nil)(ok)
		for range 3 {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, loginRequest("1.1.1.1:1", `{"username":"admin"}`))
			assert.Equal(t, http.StatusOK, rec.Code)
		}
	})
}

func TestFingerprintHidesUsername(t *testing.T) {
	fp := fingerprint("admin")
	assert.Len(t, fp, 24)
	assert.NotContains(t, fp, "admin")
	assert.Empty(t, fingerprint(""))
}
