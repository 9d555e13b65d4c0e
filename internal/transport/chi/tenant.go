package chi

import (
	"context"
	"net/http"

	"github.com/kailas-cloud/lograg/internal/domain/tenant"
)

// Tenant headers, set by the API gateway in front of lograg.
const (
	HeaderProjectID = "X-Project-ID"
	HeaderUserID    = "X-User-ID"
)

type tenantKey struct{}

// RequireTenant rejects requests without a valid tenant key and stores the key in the context.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t, err := tenant.New(r.Header.Get(HeaderProjectID), r.Header.Get(HeaderUserID))
		if err != nil {
			_, body, _ := classify(err)
			writeJSON(w, http.StatusBadRequest, body)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), tenantKey{}, t)))
	})
}

// tenantFrom returns the key stored by RequireTenant. A zero key is rejected by
// every service, so a missing middleware fails closed.
func tenantFrom(ctx context.Context) tenant.Key {
	t, _ := ctx.Value(tenantKey{}).(tenant.Key)
	return t
}
