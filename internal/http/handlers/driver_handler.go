// README: Driver-facing handlers: open offers, task list, earnings.
package handlers

import (
	"github.com/gin-gonic/gin"

	"vahan/internal/modules/booking"
	"vahan/internal/types"
)

type DriverHandler struct {
	bookings *booking.Service
}

func NewDriverHandler(bookings *booking.Service) *DriverHandler {
	return &DriverHandler{bookings: bookings}
}

func (h *DriverHandler) PendingBookings(c *gin.Context) {
	list, err := h.bookings.PendingForDriver(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	views := make([]gin.H, 0, len(list))
	for _, b := range list {
		views = append(views, bookingView(b))
	}
	ok(c, views)
}

func (h *DriverHandler) ActiveBookings(c *gin.Context) {
	list, err := h.bookings.ActiveForDriver(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	views := make([]gin.H, 0, len(list))
	for _, b := range list {
		views = append(views, bookingView(b))
	}
	ok(c, views)
}

func (h *DriverHandler) Tasks(c *gin.Context) {
	tasks, err := h.bookings.Tasks(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	views := make([]gin.H, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, gin.H{
			"bookingId": t.BookingID,
			"kind":      t.Kind,
			"location":  t.Location,
			"lat":       t.Position.Lat,
			"lng":       t.Position.Lng,
			"seq":       t.Seq,
		})
	}
	ok(c, views)
}

func (h *DriverHandler) Earnings(c *gin.Context) {
	summary, err := h.bookings.Earnings(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	ok(c, gin.H{
		"daily":         summary.Daily.Rupees(),
		"monthly":       summary.Monthly.Rupees(),
		"walletBalance": summary.WalletBalance.Rupees(),
	})
}
