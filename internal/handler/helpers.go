package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"mspsf/fbsession/internal/facebook"
	"mspsf/fbsession/internal/handler/middleware"
	jwtpkg "mspsf/fbsession/pkg/jwt"
)

// ErrNoClaims is returned when the auth middleware left no claims on the context.
var ErrNoClaims = errors.New("claims not found in context")

func getUserIDFromContext(c *gin.Context) (uuid.UUID, error) {
	claimsVal, exists := c.Get(middleware.ContextKeyUserClaims)
	if !exists {
		return uuid.Nil, ErrNoClaims
	}
	claims, ok := claimsVal.(*jwtpkg.Claims)
	if !ok {
		return uuid.Nil, ErrNoClaims
	}
	return uuid.Parse(claims.Subject)
}

// clientFor binds the shared client to the authenticated host user.
func clientFor(c *gin.Context, base *facebook.Client) (*facebook.Client, error) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return nil, err
	}
	return base.ForUser(userID.String()), nil
}
