// README: Driver location update handler.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vahan/internal/modules/location"
	"vahan/internal/types"
)

type LocationHandler struct {
	locations *location.Service
}

func NewLocationHandler(locations *location.Service) *LocationHandler {
	return &LocationHandler{locations: locations}
}

func (h *LocationHandler) Update(c *gin.Context) {
	var req struct {
		Lat     float64  `json:"lat"`
		Lng     float64  `json:"lng"`
		Heading *float64 `json:"heading"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	err := h.locations.Update(c.Request.Context(), location.Update{
		DriverID: types.ID(c.Param("id")),
		Position: types.Point{Lat: req.Lat, Lng: req.Lng},
		Heading:  req.Heading,
	})
	if err != nil {
		fail(c, http.StatusInternalServerError, "location update failed")
		return
	}
	ok(c, nil)
}
