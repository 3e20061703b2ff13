package middleware

import (
	"errors"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"gstbill/internal/common"
	"gstbill/internal/services"
)

// ClaimsContextKey is where the validated *services.TokenClaims are stored on the echo context.
const ClaimsContextKey = "claims"

// JWTMiddleware validates bearer tokens and places the caller identity on the request context.
// Tokens signed with the service secret are always accepted. When jwks is non-nil, RS256
// tokens whose key is published in the set are accepted as well.
func JWTMiddleware(authService services.AuthService, jwks *keyfunc.JWKS) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: ClaimsContextKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			claims, err := authService.ValidateToken(c.Request().Context(), auth)
			if err == nil {
				return claims, nil
			}
			if jwks == nil {
				return nil, err
			}
			return parseWithJWKS(jwks, auth)
		},
		SuccessHandler: func(c echo.Context) {
			claims, ok := c.Get(ClaimsContextKey).(*services.TokenClaims)
			if !ok {
				return
			}
			actor, err := claims.Actor()
			if err != nil {
				log.Warn().Err(err).Msg("token carries invalid identity claims")
				return
			}
			c.SetRequest(c.Request().WithContext(common.WithActor(c.Request().Context(), actor)))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			log.Debug().Err(err).Str("path", c.Path()).Msg("rejected bearer token")
			return common.ErrUnauthenticated
		},
	})
}

func parseWithJWKS(jwks *keyfunc.JWKS, raw string) (*services.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(raw, &services.TokenClaims{}, jwks.Keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*services.TokenClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// RequireActor rejects requests that passed token parsing but carry no usable identity.
func RequireActor() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := common.ActorFromContext(c.Request().Context()); !ok {
				return common.ErrUnauthenticated
			}
			return next(c)
		}
	}
}
