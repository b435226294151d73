package api

import (
	"net/http"
	"time"

	"github.com/dojokit/booking/internal/domain"
	"github.com/dojokit/booking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	service booking.BookingUseCase
}

type createReservationRequest struct {
	SessionID int64  `json:"session_id" binding:"required"`
	MemberID  int64  `json:"member_id" binding:"required"`
	Kind      string `json:"kind"`
}

type cancelReservationRequest struct {
	ActorRole string `json:"actor_role"`
	Reason    string `json:"reason"`
}

type reservationResponse struct {
	Token            string `json:"token"`
	SessionID        int64  `json:"session_id"`
	MemberID         int64  `json:"member_id"`
	Kind             string `json:"kind"`
	Status           string `json:"status"`
	WaitlistPosition *int   `json:"waitlist_position,omitempty"`
	CancelReason     string `json:"cancel_reason,omitempty"`
	CheckedInAt      string `json:"checked_in_at,omitempty"`
	CreatedAt        string `json:"created_at"`
}

func toReservationResponse(r *domain.Reservation) reservationResponse {
	resp := reservationResponse{
		Token:            r.Token,
		SessionID:        r.SessionID,
		MemberID:         r.MemberID,
		Kind:             string(r.Kind),
		Status:           string(r.Status),
		WaitlistPosition: r.WaitlistPosition,
		CancelReason:     r.CancelReason,
		CreatedAt:        r.CreatedAt.Format(time.RFC3339),
	}
	if r.CheckedInAt != nil {
		resp.CheckedInAt = r.CheckedInAt.Format(time.RFC3339)
	}
	return resp
}

func NewReservationHandler(service booking.BookingUseCase) *ReservationHandler {
	return &ReservationHandler{service: service}
}

func (h *ReservationHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.POST("/:token/checkin", h.checkin)
	router.DELETE("/:token", h.cancel)
}

func (h *ReservationHandler) create(c *gin.Context) {
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.CreateReservation(c.Request.Context(), booking.CreateReservationInput{
		SessionID: req.SessionID,
		MemberID:  req.MemberID,
		Kind:      domain.ReservationKind(req.Kind),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toReservationResponse(res))
}

func (h *ReservationHandler) checkin(c *gin.Context) {
	token := c.Param("token")
	res, err := h.service.CheckIn(c.Request.Context(), token, time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toReservationResponse(res))
}

func (h *ReservationHandler) cancel(c *gin.Context) {
	token := c.Param("token")
	var req cancelReservationRequest
	// The cancel body is optional; an absent body means a member-initiated
	// cancellation without a stated reason.
	_ = c.ShouldBindJSON(&req)

	res, err := h.service.CancelReservation(c.Request.Context(), token, req.ActorRole, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toReservationResponse(res))
}
