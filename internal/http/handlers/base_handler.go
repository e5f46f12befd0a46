// README: Shared handler utilities: response envelope and error mapping.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"vahan/internal/modules/booking"
	"vahan/internal/modules/payment"
	"vahan/internal/modules/vehicle"
	"vahan/internal/modules/wallet"
)

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, response{Success: true, Data: data})
}

func okMessage(c *gin.Context, msg string, data any) {
	c.JSON(http.StatusOK, response{Success: true, Message: msg, Data: data})
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, response{Success: false, Message: msg})
}

func writeBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrNotFound),
		errors.Is(err, booking.ErrVerificationNotFound),
		errors.Is(err, vehicle.ErrNotFound),
		errors.Is(err, wallet.ErrNotFound),
		errors.Is(err, payment.ErrNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, booking.ErrBadRequest),
		errors.Is(err, booking.ErrOTPMismatch),
		errors.Is(err, booking.ErrInsufficientBalance),
		errors.Is(err, payment.ErrBadRequest),
		errors.Is(err, payment.ErrSignatureMismatch):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrInvalidState),
		errors.Is(err, booking.ErrConflict),
		errors.Is(err, booking.ErrOverlap),
		errors.Is(err, booking.ErrDriverBusy),
		errors.Is(err, booking.ErrVehicleUnavailable):
		fail(c, http.StatusConflict, err.Error())
	default:
		fail(c, http.StatusInternalServerError, "internal error")
	}
}
