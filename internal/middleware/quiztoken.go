package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smartquiz/quizrun-backend/internal/response"
	"github.com/smartquiz/quizrun-backend/internal/service"
)

// QuizTokenHeader carries the per-attempt anti-forgery token minted at login.
const QuizTokenHeader = "X-Quiz-Token"

// RequireQuizToken validates the X-Quiz-Token header against the token
// stored in Redis for the authenticated participant. It runs after the
// JWT middleware and guards the answer, violation, and submit endpoints
// against replayed or hand-crafted requests.
func RequireQuizToken(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		token := c.GetHeader(QuizTokenHeader)
		if token == "" {
			response.AbortFail(c, http.StatusForbidden, response.ErrQuizTokenInvalid)
			return
		}

		if err := authService.ValidateQuizToken(c.Request.Context(), claims.UserID, token); err != nil {
			response.AbortFail(c, http.StatusForbidden, response.ErrQuizTokenInvalid)
			return
		}

		c.Next()
	}
}
