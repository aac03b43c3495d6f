package echoapi

import (
	"context"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
	"github.com/Hoopakid/HRMobileProjectBackend/core/user"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	contextTokenKey = "userToken"
	contextUserKey  = "user"
)

// Claims represents the authorization claims transmitted via a JWT.
// The jti (StandardClaims.Id) makes every issued token unique.
type Claims struct {
	jwt.StandardClaims
	UserID    int    `json:"user_id"`
	TokenType string `json:"token_type"`
}

// Tokens is the pair returned on login and token refresh.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func newClaims(conf *core.Config, usr user.User, tokenType string) *Claims {
	now := time.Now()
	delta := conf.Server.JWTExpirationDelta
	if tokenType == tokenTypeRefresh {
		delta = conf.Server.JWTRefreshExpirationDelta
	}
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Issuer:    conf.AppName,
			Subject:   strconv.Itoa(usr.ID),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(delta).Unix(),
		},
		UserID:    usr.ID,
		TokenType: tokenType,
	}
}

func jwtConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
		ErrorHandler:  jwtErrorHandler,
	}
}

func jwtErrorHandler(err error) error {
	if err == middleware.ErrJWTMissing {
		return err
	}
	if vErr, ok := err.(*jwt.ValidationError); ok && vErr.Errors&jwt.ValidationErrorExpired != 0 {
		return errTokenExpired
	}
	return errInvalidToken
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// GenerateTokens issues a fresh access/refresh pair for usr.
func GenerateTokens(conf *core.Config, usr user.User) (Tokens, error) {
	access, err := GenerateToken(conf, newClaims(conf, usr, tokenTypeAccess))
	if err != nil {
		return Tokens{}, err
	}
	refresh, err := GenerateToken(conf, newClaims(conf, usr, tokenTypeRefresh))
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

func parseToken(conf *core.Config, tokenStr string) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != middleware.AlgorithmHS256 {
			return nil, errors.Errorf("unexpected jwt signing method=%v", t.Header["alg"])
		}
		return []byte(conf.SecretKey), nil
	})
	if err != nil {
		return nil, jwtErrorHandler(err)
	}
	return claims, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getContextUser loads the authenticated user from storage once per request.
func getContextUser(ctx echo.Context, svc user.Service) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.User{}, err
	}
	usr, err := svc.GetByID(ctx.Request().Context(), claims.UserID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errUnauthorized
		}
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}

func authenticate(ctx context.Context, email, pwd string, svc user.Service) (user.User, error) {
	usr, err := svc.Authenticate(ctx, email, pwd)
	if err != nil {
		if errors.Cause(err) == user.ErrInvalidCredentials {
			return user.User{}, errAuthenticationFailed
		}
		return user.User{}, errors.Wrap(err, "authenticating")
	}
	return usr, nil
}

// refreshTokens exchanges a valid refresh token for a new pair.
func refreshTokens(ctx context.Context, conf *core.Config, svc user.Service, refreshToken string) (Tokens, error) {
	claims, err := parseToken(conf, refreshToken)
	if err != nil {
		return Tokens{}, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return Tokens{}, errInvalidToken
	}

	usr, err := svc.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Tokens{}, errInvalidToken
		}
		return Tokens{}, errors.Wrap(err, "finding user by ID")
	}
	tokens, err := GenerateTokens(conf, usr)
	return tokens, errors.Wrap(err, "generating tokens")
}
