package middleware

import (
	"errors"
	"net/http"

	"tuition-billing/internal/api/response"
	"tuition-billing/internal/domain/users"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RequireActiveAccount rejects tokens whose user was deleted or whose role changed since issue.
func RequireActiveAccount(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("user_id")
		if userID == 0 {
			response.Fail(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var user users.User
		err := db.WithContext(c.Request.Context()).Select("id", "role").First(&user, userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Fail(c, http.StatusUnauthorized, "Account not found")
			return
		}
		if err != nil {
			response.Fail(c, http.StatusInternalServerError, "Failed to load account")
			return
		}

		if role := c.GetString("role"); role != "" && role != user.Role {
			response.Fail(c, http.StatusForbidden, "Access denied")
			return
		}

		c.Next()
	}
}
