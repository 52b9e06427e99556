package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"tasjeel/internal/jwttoken"
	dErrors "tasjeel/pkg/domain-errors"
	"tasjeel/pkg/platform/httputil"
	"tasjeel/pkg/requestcontext"
)

// TokenValidator validates bearer tokens into claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*jwttoken.Claims, error)
}

// RequireAuth rejects requests without a valid bearer token and populates the
// request context with the caller's identity, role set and license type.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}

			roles := claims.Roles
			if len(roles) == 0 && claims.ProfileRole != "" {
				// Legacy tokens carry a single profile role.
				roles = []string{claims.ProfileRole}
			}
			ctx = requestcontext.WithUserID(ctx, claims.UserID)
			ctx = requestcontext.WithRoles(ctx, roles)
			ctx = requestcontext.WithLicenseType(ctx, claims.LicenseType)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
