package api

import (
	"net/http"
	"strconv"

	"github.com/dojokit/booking/internal/service/booking"
	"github.com/dojokit/booking/internal/service/schedule"
	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	booking  booking.BookingUseCase
	schedule schedule.ScheduleUseCase
}

func NewSessionHandler(bookingSvc booking.BookingUseCase, scheduleSvc schedule.ScheduleUseCase) *SessionHandler {
	return &SessionHandler{booking: bookingSvc, schedule: scheduleSvc}
}

func (h *SessionHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.GET("/:id/reservations", h.listReservations)
	router.POST("/:id/finalize", h.finalize)
}

func (h *SessionHandler) list(c *gin.Context) {
	schedule, err := h.schedule.ListUpcoming(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": schedule})
}

func (h *SessionHandler) listReservations(c *gin.Context) {
	sessionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	reservations, err := h.booking.ListReservations(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]reservationResponse, 0, len(reservations))
	for i := range reservations {
		out = append(out, toReservationResponse(&reservations[i]))
	}
	c.JSON(http.StatusOK, gin.H{"reservations": out})
}

func (h *SessionHandler) finalize(c *gin.Context) {
	sessionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	result, err := h.booking.FinalizeSession(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
