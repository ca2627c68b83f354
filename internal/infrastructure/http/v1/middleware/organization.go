package middleware

import (
	"github.com/gin-gonic/gin"

	"medstore/internal/core/apperror"
	appctx "medstore/internal/core/context"
	"medstore/internal/core/id"
)

// Organization resolves the caller's organization from the token into a typed id.
// Every domain operation is scoped by it, so a request without one stops here.
func Organization() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := appctx.GetOrganizationID(c.Request.Context())
		orgID, err := id.Parse(raw)
		if err != nil || id.IsNil(orgID) {
			_ = c.Error(apperror.NewForbidden("organization is not set for this user"))
			c.Abort()
			return
		}

		c.Set(KeyOrganizationID, orgID)
		c.Next()
	}
}

// OrganizationID returns the organization resolved by Organization.
func OrganizationID(c *gin.Context) (id.ID, bool) {
	v, ok := c.Get(KeyOrganizationID)
	if !ok {
		return id.Nil(), false
	}
	orgID, ok := v.(id.ID)
	return orgID, ok
}
