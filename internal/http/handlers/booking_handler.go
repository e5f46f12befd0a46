// README: Booking lifecycle handlers: create, accept, verify, complete, cancel.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vahan/internal/modules/booking"
	"vahan/internal/types"
)

type BookingHandler struct {
	bookings *booking.Service
}

func NewBookingHandler(bookings *booking.Service) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

type stopRequest struct {
	Location string  `json:"location"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Seq      int     `json:"seq"`
}

type fleetRequest struct {
	Class    string `json:"class"`
	Quantity int    `json:"quantity"`
}

type createBookingRequest struct {
	RiderID     string         `json:"riderId" binding:"required"`
	VehicleID   string         `json:"vehicleId"`
	Class       string         `json:"class"`
	PickupLat   float64        `json:"pickupLat"`
	PickupLng   float64        `json:"pickupLng"`
	PickupLabel string         `json:"pickupLabel"`
	DropLat     float64        `json:"dropLat"`
	DropLng     float64        `json:"dropLng"`
	DropLabel   string         `json:"dropLabel"`
	Stops       []stopRequest  `json:"stops"`
	TripType    string         `json:"tripType"`
	Passengers  int            `json:"passengers"`
	StartAt     *time.Time     `json:"startAt"`
	EndAt       *time.Time     `json:"endAt"`
	Shared      bool           `json:"shared"`
	Wedding     bool           `json:"wedding"`
	Fleet       []fleetRequest `json:"fleet"`
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	cmd := booking.CreateCommand{
		RiderID:     types.ID(req.RiderID),
		Class:       types.VehicleClass(req.Class),
		Pickup:      types.Point{Lat: req.PickupLat, Lng: req.PickupLng},
		PickupLabel: req.PickupLabel,
		Drop:        types.Point{Lat: req.DropLat, Lng: req.DropLng},
		DropLabel:   req.DropLabel,
		TripType:    types.TripType(req.TripType),
		Passengers:  req.Passengers,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Shared:      req.Shared,
		Wedding:     req.Wedding,
	}
	if req.VehicleID != "" {
		id := types.ID(req.VehicleID)
		cmd.VehicleID = &id
	}
	for _, s := range req.Stops {
		cmd.Stops = append(cmd.Stops, booking.Stop{
			Location: s.Location,
			Position: types.Point{Lat: s.Lat, Lng: s.Lng},
			Seq:      s.Seq,
		})
	}
	for _, f := range req.Fleet {
		cmd.Fleet = append(cmd.Fleet, booking.FleetRequest{
			Class:    types.VehicleClass(f.Class),
			Quantity: f.Quantity,
		})
	}

	b, err := h.bookings.Create(c.Request.Context(), cmd)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	okMessage(c, "Booking created", bookingView(b))
}

func (h *BookingHandler) Get(c *gin.Context) {
	b, err := h.bookings.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	view := bookingView(b)
	if b.Wedding && b.ParentID == nil {
		subs, err := h.bookings.SubBookings(c.Request.Context(), b.ID)
		if err != nil {
			writeBookingError(c, err)
			return
		}
		views := make([]gin.H, 0, len(subs))
		for _, sub := range subs {
			views = append(views, bookingView(sub))
		}
		view["subBookings"] = views
	}
	ok(c, view)
}

func (h *BookingHandler) ActiveForRider(c *gin.Context) {
	list, err := h.bookings.ActiveForRider(c.Request.Context(), types.ID(c.Param("id")))
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

func (h *BookingHandler) Accept(c *gin.Context) {
	var req struct {
		DriverID string `json:"driverId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "missing driverId")
		return
	}
	b, err := h.bookings.Accept(c.Request.Context(), booking.AcceptCommand{
		BookingID: types.ID(c.Param("id")),
		DriverID:  types.ID(req.DriverID),
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	okMessage(c, "Booking accepted", bookingView(b))
}

func (h *BookingHandler) CancelAccepted(c *gin.Context) {
	var req struct {
		DriverID string `json:"driverId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "missing driverId")
		return
	}
	err := h.bookings.CancelAccepted(c.Request.Context(), booking.AcceptCommand{
		BookingID: types.ID(c.Param("id")),
		DriverID:  types.ID(req.DriverID),
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	okMessage(c, "Booking released", nil)
}

func (h *BookingHandler) Start(c *gin.Context) {
	var req struct {
		RiderID string `json:"riderId"`
		OTP     string `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "missing otp")
		return
	}
	err := h.bookings.Start(c.Request.Context(), booking.StartCommand{
		BookingID: types.ID(c.Param("id")),
		RiderID:   types.ID(req.RiderID),
		OTP:       req.OTP,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	okMessage(c, "Ride started", nil)
}

func (h *BookingHandler) VerifyPickup(c *gin.Context) {
	h.verify(c, h.bookings.VerifyPickup)
}

func (h *BookingHandler) VerifyDrop(c *gin.Context) {
	h.verify(c, h.bookings.VerifyDrop)
}

func (h *BookingHandler) verify(c *gin.Context, fn func(ctx context.Context, cmd booking.VerifyCommand) error) {
	var req struct {
		PassengerID string `json:"passengerId" binding:"required"`
		OTP         string `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "missing passengerId or otp")
		return
	}
	err := fn(c.Request.Context(), booking.VerifyCommand{
		BookingID:   types.ID(c.Param("id")),
		PassengerID: types.ID(req.PassengerID),
		OTP:         req.OTP,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	okMessage(c, "Verified", nil)
}

func (h *BookingHandler) Complete(c *gin.Context) {
	b, err := h.bookings.Complete(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	okMessage(c, "Ride completed", bookingView(b))
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	refund, err := h.bookings.Cancel(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	okMessage(c, "Booking cancelled", gin.H{"refundAmount": refund.Rupees()})
}

func (h *BookingHandler) Reject(c *gin.Context) {
	if err := h.bookings.Reject(c.Request.Context(), types.ID(c.Param("id"))); err != nil {
		writeBookingError(c, err)
		return
	}
	okMessage(c, "Booking rejected", nil)
}

func (h *BookingHandler) Verifications(c *gin.Context) {
	rows, err := h.bookings.Verifications(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	views := make([]gin.H, 0, len(rows))
	for _, v := range rows {
		views = append(views, gin.H{
			"passengerId":    v.PassengerID,
			"pickupVerified": v.PickupVerified,
			"dropVerified":   v.DropVerified,
		})
	}
	ok(c, views)
}

func bookingView(b *booking.Booking) gin.H {
	view := gin.H{
		"id":               b.ID,
		"riderId":          b.RiderID,
		"class":            b.Class,
		"status":           b.Status,
		"tripType":         b.TripType,
		"passengers":       b.Passengers,
		"quantity":         b.Quantity,
		"pickupLabel":      b.PickupLabel,
		"dropLabel":        b.DropLabel,
		"estimatedKm":      b.EstimatedKm,
		"minEstimate":      b.MinEstimate.Rupees(),
		"maxEstimate":      b.MaxEstimate.Rupees(),
		"actualPrice":      b.ActualPrice.Rupees(),
		"platformCharge":   b.PlatformCharge.Rupees(),
		"remainingAmount":  b.RemainingAmount.Rupees(),
		"totalAmount":      b.TotalAmount.Rupees(),
		"paymentRequired":  b.PaymentRequired,
		"paymentCompleted": b.PaymentCompleted,
		"wedding":          b.Wedding,
		"shared":           b.Shared,
		"rideOtp":          b.RideOTP,
		"createdAt":        b.CreatedAt,
	}
	if b.VehicleID != nil {
		view["vehicleId"] = *b.VehicleID
	}
	if b.DriverID != nil {
		view["driverId"] = *b.DriverID
	}
	if b.ParentID != nil {
		view["parentId"] = *b.ParentID
	}
	if b.StartAt != nil {
		view["startAt"] = *b.StartAt
	}
	if b.EndAt != nil {
		view["endAt"] = *b.EndAt
	}
	return view
}
