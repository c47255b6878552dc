package httpserver

import (
	"net/http"

	"orderup/internal/service/catalog"

	"github.com/gin-gonic/gin"
)

func listRestaurantsHandler(svc catalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.ListRestaurants(c.Request.Context(), catalog.Filter{
			Search:  c.Query("search"),
			Cuisine: c.Query("cuisine"),
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": len(list), "results": list})
	}
}

func getRestaurantHandler(svc catalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, err := svc.GetRestaurant(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, r)
	}
}

func getMenuHandler(svc catalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		menu, err := svc.GetMenu(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"restaurantId": c.Param("id"), "categories": menu})
	}
}
