package httpserver

import (
	"net/http"

	"orderup/internal/cart"
	"orderup/internal/session"

	"github.com/gin-gonic/gin"
)

type addItemRequest struct {
	RestaurantID string `json:"restaurantId" binding:"required"`
	ItemID       string `json:"itemId" binding:"required"`
	Quantity     *int   `json:"quantity"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// sessionFor returns the caller's session. Routes using it sit behind
// requireSession.
func sessionFor(c *gin.Context, sessions *session.Manager) *session.Session {
	id, _ := identityFrom(c)
	return sessions.Get(id.sessionKey(), id.customerID())
}

func writeCart(c *gin.Context, status int, s *session.Session, policy cart.FeePolicy) {
	c.JSON(status, toCart(s.Cart.Snapshot(), policy))
}

func getCartHandler(sessions *session.Manager, policy cart.FeePolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		writeCart(c, http.StatusOK, sessionFor(c, sessions), policy)
	}
}

// addCartItemHandler prices the item from the catalog, never from the client.
func addCartItemHandler(sessions *session.Manager, catalog catalogService, policy cart.FeePolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in addItemRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "restaurantId and itemId are required"})
			return
		}
		qty := 1
		if in.Quantity != nil {
			qty = *in.Quantity
		}
		item, err := catalog.GetItem(c.Request.Context(), in.RestaurantID, in.ItemID)
		if err != nil {
			writeError(c, err)
			return
		}
		s := sessionFor(c, sessions)
		if err := s.Cart.AddItem(*item, qty); err != nil {
			writeError(c, err)
			return
		}
		writeCart(c, http.StatusOK, s, policy)
	}
}

func updateCartItemHandler(sessions *session.Manager, policy cart.FeePolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in updateItemRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "quantity is required"})
			return
		}
		s := sessionFor(c, sessions)
		if err := s.Cart.UpdateQuantity(c.Param("itemId"), *in.Quantity); err != nil {
			writeError(c, err)
			return
		}
		writeCart(c, http.StatusOK, s, policy)
	}
}

func removeCartItemHandler(sessions *session.Manager, policy cart.FeePolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessionFor(c, sessions)
		s.Cart.RemoveItem(c.Param("itemId"))
		writeCart(c, http.StatusOK, s, policy)
	}
}

func clearCartHandler(sessions *session.Manager, policy cart.FeePolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessionFor(c, sessions)
		s.Cart.Clear()
		writeCart(c, http.StatusOK, s, policy)
	}
}
