package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/wholesale-backend/api/responses"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
)

type windowCounter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Throttle caps login attempts per client address and per username within a
// fixed window. A zero limit disables that dimension.
type Throttle struct {
	Name    string
	Window  time.Duration
	PerIP   int
	PerUser int
}

// maxPeekBytes bounds how much of the body is buffered to find the username.
const maxPeekBytes = 4 << 10

func (t Throttle) active() bool {
	return t.Window > 0 && (t.PerIP > 0 || t.PerUser > 0)
}

type throttleHit struct {
	dimension string
	subject   string
	count     int64
	limit     int
}

// LoginThrottle applies t using counters in store. Without a store it is a
// pass-through; the admin surface then relies on password hashing cost alone.
func LoginThrottle(t Throttle, store windowCounter, logg *logger.Logger) func(http.Handler) http.Handler {
	if t.Name == "" {
		t.Name = "login"
	}

	return func(next http.Handler) http.Handler {
		if store == nil || !t.active() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			hit, err := t.check(ctx, store, "ip", remoteHost(r), t.PerIP)
			if err == nil && hit == nil && t.PerUser > 0 {
				var username string
				username, err = peekUsername(r, maxPeekBytes)
				if err == nil {
					hit, err = t.check(ctx, store, "user", fingerprint(username), t.PerUser)
				}
			}
			switch {
			case err != nil:
				responses.WriteError(ctx, logg, w, err)
			case hit != nil:
				t.reject(ctx, logg, w, hit)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func (t Throttle) check(ctx context.Context, store windowCounter, dimension, subject string, limit int) (*throttleHit, error) {
	if limit <= 0 || subject == "" {
		return nil, nil
	}
	scope := t.Name + ":" + dimension + ":" + subject
	ok, count, err := store.FixedWindowAllow(ctx, scope, int64(limit), t.Window)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "login throttle unavailable")
	}
	if ok {
		return nil, nil
	}
	return &throttleHit{dimension: dimension, subject: subject, count: count, limit: limit}, nil
}

func (t Throttle) reject(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, hit *throttleHit) {
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"throttle":  t.Name,
			"dimension": hit.dimension,
			"subject":   hit.subject,
			"attempts":  hit.count,
			"limit":     hit.limit,
		}), "login throttled")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(t.Window.Seconds())))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts, try again later"))
}

// peekUsername reads the username from a JSON body and restores the body for
// the handler. Bodies that are not JSON yield an empty username.
func peekUsername(r *http.Request, limit int64) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, limit))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body")
	}
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(raw), r.Body), r.Body}

	var body struct {
		Username string `json:"username"`
	}
	if json.Unmarshal(raw, &body) != nil {
		return "", nil
	}
	return strings.ToLower(strings.TrimSpace(body.Username)), nil
}

// remoteHost expects chi's RealIP to have rewritten RemoteAddr upstream.
func remoteHost(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// fingerprint keeps raw usernames out of Redis keys and logs.
func fingerprint(username string) string {
	if username == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(username))
	return hex.EncodeToString(sum[:12])
}
