package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/common"
	commonErrors "github.com/Alturino/storefront/internal/common/errors"
	commonHttp "github.com/Alturino/storefront/internal/common/http"
	"github.com/Alturino/storefront/internal/log"
)

const bearerPrefix = "bearer "

// Auth rejects requests without a valid bearer token and attaches the parsed
// token to the request context.
func Auth(secretKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, span := tracer.Start(r.Context(), "middleware Auth")
			defer span.End()

			logger := zerolog.Ctx(c).With().Str(log.KeyTag, "middleware Auth").Logger()
			c = logger.WithContext(c)

			authorization := r.Header.Get(commonHttp.HeaderAuthorization)
			if len(authorization) <= len(bearerPrefix) ||
				!strings.EqualFold(authorization[:len(bearerPrefix)], bearerPrefix) {
				commonErrors.HandleError(commonErrors.ErrEmptyAuth, span)
				logger.Error().Err(commonErrors.ErrEmptyAuth).Msg(commonErrors.ErrEmptyAuth.Error())
				commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
					"status":     "failed",
					"statusCode": http.StatusUnauthorized,
					"message":    commonErrors.ErrEmptyAuth.Error(),
				})
				return
			}

			token, err := common.VerifyToken(c, authorization[len(bearerPrefix):], secretKey)
			if err != nil {
				commonErrors.HandleError(err, span)
				logger.Error().Err(err).Msg(err.Error())
				commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
					"status":     "failed",
					"statusCode": http.StatusUnauthorized,
					"message":    commonErrors.ErrTokenInvalid.Error(),
				})
				return
			}

			c = common.AttachJwtToken(c, token)
			next.ServeHTTP(w, r.WithContext(c))
		})
	}
}
