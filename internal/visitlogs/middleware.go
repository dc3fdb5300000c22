package visitlogs

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/campus-hub/campus-hub/internal/authz"
)

// Recorder accepts page views. The middleware does not care whether the
// record lands in the table directly or goes through the job queue.
type Recorder interface {
	RecordVisit(ctx context.Context, path string, userID *int64) error
}

var skippedPrefixes = []string{"/static/", "/healthz", "/favicon.ico", "/metrics", "/jobs"}

// Middleware journals GET page views. Asset and service endpoints are
// skipped. Recording failures never fail the request.
func Middleware(recorder Recorder, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			if r.Method != http.MethodGet || skipVisit(r.URL.Path) {
				return
			}
			var userID *int64
			if actor := authz.ActorFromContext(r.Context()); actor.IsAuthenticated() {
				id := actor.ID
				userID = &id
			}
			if err := recorder.RecordVisit(r.Context(), r.URL.Path, userID); err != nil {
				logger.Warn("record visit", slog.String("path", r.URL.Path), slog.Any("error", err))
			}
		})
	}
}

func skipVisit(path string) bool {
	for _, prefix := range skippedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
