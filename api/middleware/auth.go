package middleware

import (
	"net/http"
	"strings"

	"github.com/anoixa/imagebank/api/common"
	"github.com/anoixa/imagebank/internal/auth"
	"github.com/gin-gonic/gin"
)

const (
	ContextUserIDKey = "user_id"
	AuthTypeKey      = "auth_type"

	AuthTypeJWT = "jwt"
)

// JWTAuth 校验 Bearer 令牌并把 user_id 写入上下文
func JWTAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			common.RespondErrorAbort(c, http.StatusUnauthorized, common.CodeUnauthorized, "No Authorization request header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
			common.RespondErrorAbort(c, http.StatusBadRequest, common.CodeUnauthorized, "Authorization field format error")
			return
		}
		if parts[0] != "Bearer" {
			common.RespondErrorAbort(c, http.StatusUnauthorized, common.CodeUnauthorized, "Unsupported authentication scheme")
			return
		}

		claims, err := jwtService.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			common.RespondErrorAbort(c, http.StatusUnauthorized, common.CodeUnauthorized, "invalid or expired token")
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(AuthTypeKey, AuthTypeJWT)
		c.Next()
	}
}
