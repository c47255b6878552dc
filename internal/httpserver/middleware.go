package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"orderup/internal/domain"
	"orderup/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// requestLogger logs one line per request.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("http request", fields...)
		default:
			logger.Info("http request", fields...)
		}
	}
}

type ctxKey string

const identityCtxKey ctxKey = "identity"

// identity is who a request acts for.
type identity struct {
	Token       string
	Customer    *domain.Customer
	AnonymousID string
}

func (id identity) sessionKey() string {
	if id.Customer != nil {
		return session.CustomerKey(id.Customer.ID)
	}
	return session.GuestKey(id.AnonymousID)
}

func (id identity) customerID() *string {
	if id.Customer == nil {
		return nil
	}
	cid := id.Customer.ID
	return &cid
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// identify resolves the bearer token to a customer or a guest. Requests
// without a valid token carry no identity.
func identify(customers customerService, guests anonymousService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		if cust, err := customers.LookupByToken(ctx, token); err == nil {
			setIdentity(c, identity{Token: token, Customer: cust})
		} else if anonID, err := guests.LookupByToken(ctx, token); err == nil {
			setIdentity(c, identity{Token: token, AnonymousID: anonID})
		}
		c.Next()
	}
}

func setIdentity(c *gin.Context, id identity) {
	c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), identityCtxKey, id))
}

func identityFrom(c *gin.Context) (identity, bool) {
	id, ok := c.Request.Context().Value(identityCtxKey).(identity)
	return id, ok
}

// requireSession rejects requests with neither a customer nor a guest token.
func requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := identityFrom(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing or invalid session token"})
			return
		}
		c.Next()
	}
}

// requireCustomer rejects requests without a logged-in customer.
func requireCustomer() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identityFrom(c)
		if !ok || id.Customer == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "login required"})
			return
		}
		c.Next()
	}
}
