package authz

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/campus-hub/campus-hub/internal/shared"
)

// DeniedMessage is flashed whenever a guarded page refuses access.
const DeniedMessage = "У вас недостаточно прав для доступа к данной странице."

// RoleSource resolves the role of a stored user id. Implemented by the users
// repository; the engine itself never touches storage.
type RoleSource interface {
	RoleByUserID(ctx context.Context, userID int64) (string, error)
}

// Middleware wires actor resolution and policy checks into HTTP handlers.
type Middleware struct {
	Engine *Engine
	Roles  RoleSource
	Logger *slog.Logger
}

// Resolve loads the actor for the session user once per request and stores
// it in the context. Unknown or missing users resolve to the anonymous actor.
func (m Middleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor := Anonymous()
		if sess := shared.SessionFromContext(ctx); sess != nil && sess.User() != 0 {
			role, err := m.Roles.RoleByUserID(ctx, sess.User())
			switch {
			case err == nil:
				actor = Authenticated(sess.User(), role)
			case errors.Is(err, shared.ErrNotFound):
				// Stale session pointing at a deleted user.
			default:
				if m.Logger != nil {
					m.Logger.Error("resolve actor", slog.Any("error", err))
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
		}
		next.ServeHTTP(w, r.WithContext(ContextWithActor(ctx, actor)))
	})
}

// Require guards a route subtree with a single policy decision.
func (m Middleware) Require(resource string, action Action) func(http.Handler) http.Handler {
	return m.require(resource, action, func(*http.Request) Context { return Context{} })
}

// RequireOwner guards user-scoped routes, feeding the URL parameter into the
// ownership rule as the target user id.
func (m Middleware) RequireOwner(resource string, action Action, param string) func(http.Handler) http.Handler {
	return m.require(resource, action, func(r *http.Request) Context {
		raw := chi.URLParam(r, param)
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Context{}
		}
		return WithTarget(id)
	})
}

// RequireAuthenticated redirects anonymous visitors to the login page,
// remembering where they were headed.
func (m Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := ActorFromContext(r.Context())
		if !actor.IsAuthenticated() {
			if sess := shared.SessionFromContext(r.Context()); sess != nil {
				sess.AddFlash(shared.FlashMessage{Kind: "warning", Message: "Для доступа к данной странице необходимо пройти процедуру аутентификации."})
			}
			http.Redirect(w, r, "/auth/login?next="+r.URL.Path, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m Middleware) require(resource string, action Action, contextFor func(*http.Request) Context) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := ActorFromContext(r.Context())
			allowed, err := m.Engine.Allowed(resource, action, actor, contextFor(r))
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("authz check", slog.String("resource", resource), slog.String("action", string(action)), slog.Any("error", err))
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !allowed {
				m.deny(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// deny translates a false decision into the redirect-and-message pattern.
// Denials are expected outcomes and are never logged as errors.
func (m Middleware) deny(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "warning", Message: DeniedMessage})
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
