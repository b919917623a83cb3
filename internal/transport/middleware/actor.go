package middleware

import (
	"net/http"
	"strings"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/pkg/logger"
)

const ActorHeader = "X-User-ID"

// Actor records the caller identity forwarded by the upstream auth
// provider. The value is used for log correlation only.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actorID := strings.TrimSpace(r.Header.Get(ActorHeader))
		if actorID == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := internal.ContextWithActorID(r.Context(), actorID)
		ctx = logger.With(ctx, "actor_id", actorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
