// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vahan/internal/http/handlers"
	"vahan/internal/http/middleware"
	"vahan/internal/modules/booking"
	"vahan/internal/modules/location"
	"vahan/internal/modules/payment"
)

type RouterDeps struct {
	Bookings  *booking.Service
	Locations *location.Service
	Payments  *payment.Service
}

func NewRouter(deps RouterDeps) http.Handler {
	r := gin.New()
	r.Use(middleware.Logging(), middleware.Recovery())

	bookingHandler := handlers.NewBookingHandler(deps.Bookings)
	r.POST("/api/bookings", bookingHandler.Create)
	r.GET("/api/bookings/:id", bookingHandler.Get)
	r.POST("/api/bookings/:id/accept", bookingHandler.Accept)
	r.POST("/api/bookings/:id/cancel-accepted", bookingHandler.CancelAccepted)
	r.POST("/api/bookings/:id/start", bookingHandler.Start)
	r.POST("/api/bookings/:id/verify-pickup", bookingHandler.VerifyPickup)
	r.POST("/api/bookings/:id/verify-drop", bookingHandler.VerifyDrop)
	r.POST("/api/bookings/:id/complete", bookingHandler.Complete)
	r.POST("/api/bookings/:id/cancel", bookingHandler.Cancel)
	r.POST("/api/bookings/:id/reject", bookingHandler.Reject)
	r.GET("/api/bookings/:id/verifications", bookingHandler.Verifications)
	r.GET("/api/riders/:id/active-bookings", bookingHandler.ActiveForRider)

	driverHandler := handlers.NewDriverHandler(deps.Bookings)
	r.GET("/api/drivers/:id/pending-bookings", driverHandler.PendingBookings)
	r.GET("/api/drivers/:id/active-bookings", driverHandler.ActiveBookings)
	r.GET("/api/drivers/:id/tasks", driverHandler.Tasks)
	r.GET("/api/drivers/:id/earnings", driverHandler.Earnings)

	locationHandler := handlers.NewLocationHandler(deps.Locations)
	r.PUT("/api/drivers/:id/location", locationHandler.Update)

	paymentHandler := handlers.NewPaymentHandler(deps.Payments)
	r.POST("/api/payments/order", paymentHandler.CreateOrder)
	r.POST("/api/payments/topup", paymentHandler.CreateTopUp)
	r.POST("/api/payments/success", paymentHandler.Success)
	r.POST("/api/payments/failure", paymentHandler.Failure)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
