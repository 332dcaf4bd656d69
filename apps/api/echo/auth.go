package echoapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/elimuhq/elimu/core"
	"github.com/elimuhq/elimu/core/user"
)

const (
	tokenCookieName  = "token"
	contextClaimsKey = "userClaims"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	Email       string `json:"email,omitempty"`
	AccountType string `json:"accountType,omitempty"`
}

func GetUserClaims(usr user.User, conf *core.Config) *Claims {
	now := time.Now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    conf.AppName,
			Subject:   usr.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(conf.Server.JWTExpirationDelta)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email:       usr.Email,
		AccountType: usr.Role,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(claims *Claims, conf *core.Config) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func parseToken(ss string, conf *core.Config) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(ss, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errTokenInvalid
		}
		return []byte(conf.SecretKey), nil
	})
	if err != nil {
		// expired, tampered or malformed: all invalid
		return nil, errTokenInvalid
	}
	return claims, nil
}

// extractToken looks the token up in the cookie, then the request body, then
// the Authorization header.
func extractToken(ctx echo.Context) (string, error) {
	if cookie, err := ctx.Cookie(tokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	if token := tokenFromBody(ctx); token != "" {
		return token, nil
	}
	if auth := ctx.Request().Header.Get(echo.HeaderAuthorization); auth != "" {
		return strings.TrimPrefix(auth, "Bearer "), nil
	}
	return "", errTokenMissing
}

// tokenFromBody peeks at the JSON request body for a "token" field, restoring
// the body so downstream handlers can still bind it.
func tokenFromBody(ctx echo.Context) string {
	req := ctx.Request()
	if req.Body == nil {
		return ""
	}
	b, err := io.ReadAll(req.Body)
	req.Body = io.NopCloser(bytes.NewReader(b))
	if err != nil {
		return ""
	}

	var body struct {
		Token string `json:"token"`
	}
	if err = json.Unmarshal(b, &body); err != nil {
		return ""
	}
	return body.Token
}

// sessionMiddleware verifies the caller's session token and attaches the
// decoded claims to the request context.
func sessionMiddleware(conf *core.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token, err := extractToken(ctx)
			if err != nil {
				return err
			}
			claims, err := parseToken(token, conf)
			if err != nil {
				return err
			}
			ctx.Set(contextClaimsKey, *claims)
			return next(ctx)
		}
	}
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if claims, ok := ctx.Get(contextClaimsKey).(Claims); ok {
		return claims, nil
	}
	return Claims{}, errUnauthorized
}

// setTokenCookie sets the HTTP-only session cookie.
func setTokenCookie(ctx echo.Context, token string, conf *core.Config) {
	ctx.SetCookie(&http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Expires:  time.Now().Add(conf.Server.CookieMaxAge),
		HttpOnly: true,
		Path:     "/",
	})
}
