// README: Payment handlers: order creation, gateway callbacks, top-ups.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vahan/internal/modules/payment"
	"vahan/internal/types"
)

type PaymentHandler struct {
	payments *payment.Service
}

func NewPaymentHandler(payments *payment.Service) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req struct {
		BookingID string `json:"bookingId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "missing bookingId")
		return
	}
	p, err := h.payments.CreateOrder(c.Request.Context(), types.ID(req.BookingID))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	okMessage(c, "Payment order created", paymentView(p))
}

func (h *PaymentHandler) CreateTopUp(c *gin.Context) {
	var req struct {
		DriverID string  `json:"driverId" binding:"required"`
		Amount   float64 `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "missing driverId or amount")
		return
	}
	p, err := h.payments.CreateTopUpOrder(c.Request.Context(),
		types.ID(req.DriverID), types.MoneyFromRupees(req.Amount))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	okMessage(c, "Top-up order created", paymentView(p))
}

func (h *PaymentHandler) Success(c *gin.Context) {
	var req struct {
		OrderID   string `json:"orderId" binding:"required"`
		PaymentID string `json:"paymentId" binding:"required"`
		Signature string `json:"signature"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "missing orderId or paymentId")
		return
	}
	err := h.payments.HandleSuccess(c.Request.Context(), payment.SuccessCommand{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	okMessage(c, "Payment recorded", nil)
}

func (h *PaymentHandler) Failure(c *gin.Context) {
	var req struct {
		OrderID string `json:"orderId" binding:"required"`
		Reason  string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "missing orderId")
		return
	}
	err := h.payments.HandleFailure(c.Request.Context(), payment.FailureCommand{
		OrderID: req.OrderID,
		Reason:  req.Reason,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	okMessage(c, "Payment failure recorded", nil)
}

func paymentView(p *payment.Payment) gin.H {
	view := gin.H{
		"id":      p.ID,
		"orderId": p.OrderID,
		"amount":  p.Amount.Rupees(),
		"status":  p.Status,
	}
	if p.BookingID != nil {
		view["bookingId"] = *p.BookingID
	}
	if p.DriverID != nil {
		view["driverId"] = *p.DriverID
	}
	if p.Reason != "" {
		view["reason"] = p.Reason
	}
	return view
}
