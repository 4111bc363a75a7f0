package scheduler

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Roles allowed to start runs.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

// Auth guards the trigger endpoints. With neither Token nor Secret set every request is allowed.
type Auth struct {
	// Token is a static API token accepted as a bearer credential.
	Token string
	// Secret verifies HS256 bearer JWTs carrying a "role" claim.
	Secret []byte
}

func (a Auth) Enabled() bool {
	return a.Token != "" || len(a.Secret) > 0
}

// role returns the role granted by the request's bearer credential, or "".
func (a Auth) role(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	bearer := strings.TrimPrefix(header, "Bearer ")
	if a.Token != "" && bearer == a.Token {
		return RoleAdmin
	}
	if len(a.Secret) == 0 {
		return ""
	}

	tok, err := jwt.Parse(bearer, func(*jwt.Token) (any, error) { return a.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return ""
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	role, _ := claims["role"].(string)
	if role == "" {
		// a valid token without a role still authenticates
		return "none"
	}
	return role
}

// RequireOperator allows admins and operators.
func (a Auth) RequireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}
		switch a.role(r) {
		case RoleAdmin, RoleOperator:
			next.ServeHTTP(w, r)
		case "":
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		default:
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
		}
	})
}
