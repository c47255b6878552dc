package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func listOrdersHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := identityFrom(c)
		orders, err := svc.ListByCustomer(c.Request.Context(), id.Customer.ID)
		if err != nil {
			writeError(c, err)
			return
		}
		out := make([]orderResponse, 0, len(orders))
		for _, o := range orders {
			out = append(out, toOrder(o))
		}
		c.JSON(http.StatusOK, gin.H{"count": len(out), "results": out})
	}
}

func getOrderHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := identityFrom(c)
		o, err := svc.Get(c.Request.Context(), c.Param("id"), id.sessionKey(), id.customerID())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, toOrder(*o))
	}
}
