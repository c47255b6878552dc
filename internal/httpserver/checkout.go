package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"orderup/internal/checkout"
	"orderup/internal/domain"
	"orderup/internal/session"

	"github.com/gin-gonic/gin"
)

// checkoutRequest accepts arrivalTime as a number or a string.
type checkoutRequest struct {
	Name                string      `json:"name"`
	Phone               string      `json:"phone"`
	Email               string      `json:"email"`
	Street              string      `json:"street"`
	Apartment           string      `json:"apartment"`
	City                string      `json:"city"`
	ArrivalTime         json.Number `json:"arrivalTime"`
	SpecialInstructions string      `json:"specialInstructions"`
	PaymentMethod       string      `json:"paymentMethod"`
}

func (r checkoutRequest) form() checkout.Form {
	return checkout.Form{
		Name:                r.Name,
		Phone:               r.Phone,
		Email:               r.Email,
		Street:              r.Street,
		Apartment:           r.Apartment,
		City:                r.City,
		ArrivalTime:         r.ArrivalTime.String(),
		SpecialInstructions: r.SpecialInstructions,
		PaymentMethod:       domain.PaymentMethod(r.PaymentMethod),
	}
}

// submitCheckoutHandler places the session's order. A second submission while
// one is in flight is answered 202 with the in-flight status.
func submitCheckoutHandler(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in checkoutRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		s := sessionFor(c, sessions)
		conf, err := s.Submit(c.Request.Context(), in.form())
		if errors.Is(err, checkout.ErrSubmissionInProgress) {
			c.JSON(http.StatusAccepted, toCheckoutStatus(s.Flow().Status()))
			return
		}
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, toConfirmation(conf))
	}
}

func checkoutStatusHandler(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, toCheckoutStatus(sessionFor(c, sessions).Flow().Status()))
	}
}
