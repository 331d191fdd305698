package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"order-tracker/internal/core/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	// RoleCustomer is granted to storefront shoppers.
	RoleCustomer = "customer"
	// RoleOperator is granted to back-office staff.
	RoleOperator = "operator"

	principalKey = "principal"
)

// Principal is the verified caller of a request.
type Principal struct {
	Subject string
	Role    string
}

// IsOperator reports whether the caller is back-office staff.
func (p Principal) IsOperator() bool {
	return p.Role == RoleOperator
}

// Claims is the JWT payload: the standard subject plus a role.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type errorResponse struct {
	Message string `json:"message"`
	RayID   string `json:"ray_id"`
}

// Middleware verifies an HS256 bearer token and stores the Principal on the request.
func Middleware(secret string) fiber.Handler {
	key := []byte(secret)

	return func(c *fiber.Ctx) error {
		raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			raw, ok = streamToken(c)
		}
		if !ok {
			return reject(c, http.StatusUnauthorized, "unauthorized")
		}

		principal, err := Verify(key, raw)
		if err != nil {
			logger.Get().Debug("Rejected bearer token", zap.Error(err))
			return reject(c, http.StatusUnauthorized, "unauthorized")
		}

		c.Locals(principalKey, principal)
		return c.Next()
	}
}

// RequireRole rejects callers whose Principal does not carry role.
// It must run after Middleware.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := FromCtx(c)
		if !ok {
			return reject(c, http.StatusUnauthorized, "unauthorized")
		}
		if principal.Role != role {
			return reject(c, http.StatusForbidden, role+" only")
		}
		return c.Next()
	}
}

// FromCtx returns the Principal stored by Middleware.
func FromCtx(c *fiber.Ctx) (Principal, bool) {
	p, ok := c.Locals(principalKey).(Principal)
	return p, ok
}

// Verify parses and validates a token signed with key.
func Verify(key []byte, raw string) (Principal, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Principal{}, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return Principal{}, errors.New("invalid token")
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return Principal{}, errors.New("token has no subject")
	}
	if claims.Role != RoleCustomer && claims.Role != RoleOperator {
		return Principal{}, fmt.Errorf("unknown role %q", claims.Role)
	}

	return Principal{Subject: claims.Subject, Role: claims.Role}, nil
}

// IssueToken signs a token for subject with role. A zero ttl issues a token without expiry.
func IssueToken(secret, subject, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	raw := strings.TrimSpace(parts[1])
	return raw, raw != ""
}

// streamToken accepts ?access_token= on event streams, since browser EventSource
// cannot set headers.
func streamToken(c *fiber.Ctx) (string, bool) {
	if !strings.Contains(c.Get(fiber.HeaderAccept), "text/event-stream") {
		return "", false
	}
	raw := strings.TrimSpace(c.Query("access_token"))
	return raw, raw != ""
}

func reject(c *fiber.Ctx, status int, msg string) error {
	rayID, ok := c.Locals("requestid").(string)
	if !ok {
		rayID = "unknown"
	}
	return c.Status(status).JSON(errorResponse{Message: msg, RayID: rayID})
}
