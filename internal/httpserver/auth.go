package httpserver

import (
	"net/http"

	customersvc "orderup/internal/service/customer"
	"orderup/internal/session"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func signupHandler(customers customerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in customersvc.SignupInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		cust, err := customers.Signup(c.Request.Context(), in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"user": toUser(*cust)})
	}
}

// loginHandler issues a customer token. A guest calling it with their guest
// token keeps their cart.
func loginHandler(customers customerService, sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in loginRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "email and password are required"})
			return
		}
		cust, token, err := customers.Login(c.Request.Context(), in.Email, in.Password)
		if err != nil {
			writeError(c, err)
			return
		}
		if id, ok := identityFrom(c); ok && id.Customer == nil && id.AnonymousID != "" {
			cid := cust.ID
			sessions.Merge(session.GuestKey(id.AnonymousID), session.CustomerKey(cust.ID), &cid)
		}
		c.JSON(http.StatusOK, gin.H{
			"token":     token,
			"expiresIn": customers.AccessTTLSeconds(),
			"user":      toUser(*cust),
		})
	}
}

func logoutHandler(customers customerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := identityFrom(c)
		if err := customers.Logout(c.Request.Context(), id.Token); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func profileHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := identityFrom(c)
		c.JSON(http.StatusOK, gin.H{"user": toUser(*id.Customer)})
	}
}

func anonymousSessionHandler(guests anonymousService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, anonID, err := guests.Issue(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"token":       token,
			"anonymousId": anonID,
			"expiresIn":   guests.AccessTTLSeconds(),
		})
	}
}
