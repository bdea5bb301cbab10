package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/reject"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/utils"
	"github.com/rs/zerolog/log"
)

const (
	accessTokenRequired string = "error.token.required"
	accessTokenInvalid  string = "error.token.invalid"
)

// TokenVerifier is satisfied by the firebase auth client.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

func VerifyAuthToken(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.Request.Header.Get("Authorization")
		idTokenValue := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if idTokenValue == "" {
			log.Warn().Msg("Token missing: 401")
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				reject.NewProblem().
					WithTitle("Missing access token").
					WithStatus(http.StatusUnauthorized).
					WithCode(accessTokenRequired).
					Build())
			return
		}
		token, err := verifier.VerifyIDToken(c.Request.Context(), idTokenValue)
		if err != nil {
			log.Warn().Msg(fmt.Sprintf("Error verifying token: %s", err.Error()))
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				reject.NewProblem().
					WithTitle("Cannot verify access token").
					WithStatus(http.StatusUnauthorized).
					WithCode(accessTokenInvalid).
					WithDetail(err.Error()).
					Build())
			return
		}
		accessTokenDetails := utils.AccessToken{
			Token:    *token,
			RawToken: idTokenValue,
		}
		utils.SetAccessTokenCtx(&accessTokenDetails, c)
		c.Next()
	}
}
