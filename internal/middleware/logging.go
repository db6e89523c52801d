package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yanasan/todo-api/internal/logger"
)

const (
	requestIDHeader    = "X-Request-ID"
	maxRequestIDLength = 128
)

// accessState is filled in by handlers further down the chain and read back
// when the access line is written.
type accessState struct {
	mu     sync.Mutex
	userID string
}

type accessStateKey struct{}

func (s *accessState) setUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = id
}

func (s *accessState) user() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func accessStateFrom(ctx context.Context) *accessState {
	state, _ := ctx.Value(accessStateKey{}).(*accessState)
	return state
}

// Logging assigns the request id, exposes it to every log call made with the
// request context and writes one access line per request. The line names the
// authenticated user when RequireAuth resolved one.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := incomingRequestID(r)
		w.Header().Set(requestIDHeader, requestID)

		state := &accessState{}
		ctx := logger.WithRequestID(r.Context(), requestID)
		ctx = context.WithValue(ctx, accessStateKey{}, state)

		started := time.Now()
		lw := &accessLogWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lw, r.WithContext(ctx))

		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", lw.status),
			slog.Int64("duration_ms", time.Since(started).Milliseconds()),
			slog.String("client_ip", r.RemoteAddr),
		}
		if userID := state.user(); userID != "" {
			attrs = append(attrs, slog.String("user_id", userID))
		}
		attrs = append(attrs, lw.errorAttrs()...)

		slog.LogAttrs(ctx, accessLevel(lw.status), "request", attrs...)
	})
}

// incomingRequestID trusts a client supplied id only when it is short enough
// to log safely.
func incomingRequestID(r *http.Request) string {
	id := r.Header.Get(requestIDHeader)
	if id == "" || len(id) > maxRequestIDLength {
		return uuid.NewString()
	}
	return id
}

func accessLevel(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

type accessLogWriter struct {
	http.ResponseWriter
	status      int
	errBody     bytes.Buffer
	wroteHeader bool
}

func (w *accessLogWriter) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.status = statusCode
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(statusCode)
}

// Write copies error bodies only; successful bodies may carry tokens.
func (w *accessLogWriter) Write(b []byte) (int, error) {
	if w.status >= 400 {
		w.errBody.Write(b)
	}
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *accessLogWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// errorAttrs reads the envelope's error code back out of a failed response.
func (w *accessLogWriter) errorAttrs() []slog.Attr {
	if w.status < 400 || w.errBody.Len() == 0 {
		return nil
	}

	var envelope struct {
		Error *struct {
			Code    string `json:"code"`
			Details string `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.errBody.Bytes(), &envelope); err != nil || envelope.Error == nil {
		return nil
	}

	attrs := []slog.Attr{slog.String("error_code", envelope.Error.Code)}
	if envelope.Error.Details != "" {
		attrs = append(attrs, slog.String("error_details", envelope.Error.Details))
	}
	return attrs
}
