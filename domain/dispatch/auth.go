package dispatch

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/akeren/digitalcraft-dispatch/config/router"
	apperrors "github.com/akeren/digitalcraft-dispatch/pkg/errors"
	"github.com/golang-jwt/jwt/v5"
)

// Roles accepted in bearer JWTs.
const (
	RoleAnon        = "anon"
	RoleServiceRole = "service_role"
)

// Authenticator checks the bearer credential sent by the submission client.
// A JWT secret takes precedence over a static API key; with neither set every
// request is accepted.
type Authenticator struct {
	jwtSecret []byte
	apiKey    string
}

func NewAuthenticator(jwtSecret, apiKey string) *Authenticator {
	return &Authenticator{
		jwtSecret: []byte(strings.TrimSpace(jwtSecret)),
		apiKey:    strings.TrimSpace(apiKey),
	}
}

func (a *Authenticator) Enabled() bool {
	return len(a.jwtSecret) > 0 || a.apiKey != ""
}

func (a *Authenticator) Mode() string {
	switch {
	case len(a.jwtSecret) > 0:
		return "jwt"
	case a.apiKey != "":
		return "api_key"
	default:
		return "open"
	}
}

// Verify validates the credential from the Authorization header, falling back
// to the apikey header used by hosted function gateways.
func (a *Authenticator) Verify(authorization, apiKeyHeader string) error {
	if !a.Enabled() {
		return nil
	}

	credential := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(authorization), "Bearer "))
	if credential == "" {
		credential = strings.TrimSpace(apiKeyHeader)
	}
	if credential == "" {
		return ErrMissingCredentials
	}

	if len(a.jwtSecret) > 0 {
		return a.verifyJWT(credential)
	}

	if subtle.ConstantTimeCompare([]byte(credential), []byte(a.apiKey)) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

func (a *Authenticator) verifyJWT(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return a.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ErrInvalidCredentials
	}

	role, _ := claims["role"].(string)
	if role != RoleAnon && role != RoleServiceRole {
		return fmt.Errorf("%w: unexpected role %q", ErrInvalidCredentials, role)
	}

	return nil
}

func (a *Authenticator) Middleware() router.MiddlewareFunc {
	return func(c *router.RequestContext) {
		if err := a.Verify(c.GetHeader("Authorization"), c.GetHeader("apikey")); err != nil {
			router.GetLogger(c).Warn("Rejected dispatch request", "reason", err.Error())
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error: MsgUnauthorized,
				Code:  apperrors.ErrorTypeUnauthorized,
			})
			return
		}
		c.Next()
	}
}
