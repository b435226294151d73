package api

import (
	"errors"
	"net/http"

	"github.com/dojokit/booking/internal/domain"
	"github.com/dojokit/booking/internal/repository"
	"github.com/gin-gonic/gin"
)

// respondError translates domain rejections and repository sentinels into
// HTTP responses. Domain errors carry their kind so callers can render a
// precise message.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrSessionNotFound),
		errors.Is(err, repository.ErrMemberNotFound),
		errors.Is(err, repository.ErrClassNotFound),
		errors.Is(err, repository.ErrReservationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	var de *domain.Error
	if errors.As(err, &de) {
		c.JSON(statusForKind(de.Kind), gin.H{
			"error":      de.Reason,
			"kind":       de.Kind,
			"session_id": de.SessionID,
			"member_id":  de.MemberID,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.ErrInvalidInput:
		return http.StatusBadRequest
	case domain.ErrDuplicateReservation, domain.ErrInvalidTransition:
		return http.StatusConflict
	default:
		// NotEligible, SessionFull, OutsideCheckinWindow,
		// CancellationCutoffPassed: well-formed requests rejected by
		// business rules.
		return http.StatusUnprocessableEntity
	}
}
