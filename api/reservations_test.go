package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dojokit/booking/internal/domain"
	"github.com/dojokit/booking/internal/repository"
	"github.com/dojokit/booking/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) CreateReservation(ctx context.Context, input booking.CreateReservationInput) (*domain.Reservation, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockBookingUseCase) CancelReservation(ctx context.Context, token, actorRole, reason string) (*domain.Reservation, error) {
	args := m.Called(ctx, token, actorRole, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockBookingUseCase) CheckIn(ctx context.Context, token string, now time.Time) (*domain.Reservation, error) {
	args := m.Called(ctx, token, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockBookingUseCase) FinalizeSession(ctx context.Context, sessionID int64) (*booking.FinalizeResult, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.FinalizeResult), args.Error(1)
}

func (m *MockBookingUseCase) ListReservations(ctx context.Context, sessionID int64) ([]domain.Reservation, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func setupReservationRouter(svc booking.BookingUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewReservationHandler(svc).Register(router.Group("/v1/reservations"))
	return router
}

func confirmedReservation() *domain.Reservation {
	return &domain.Reservation{
		ID: 11, Token: "tok-11", SessionID: 7, MemberID: 42,
		Kind: domain.ReservationKindNormal, Status: domain.ReservationStatusConfirmed,
		CreatedAt: time.Now(),
	}
}

func TestCreateReservationEndpoint_Created(t *testing.T) {
	svc := &MockBookingUseCase{}
	router := setupReservationRouter(svc)

	svc.On("CreateReservation", mock.Anything, booking.CreateReservationInput{
		SessionID: 7, MemberID: 42,
	}).Return(confirmedReservation(), nil).Once()

	body, _ := json.Marshal(map[string]interface{}{"session_id": 7, "member_id": 42})
	req := httptest.NewRequest(http.MethodPost, "/v1/reservations/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp reservationResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "tok-11", resp.Token)
	assert.Equal(t, "CONFIRMED", resp.Status)
	svc.AssertExpectations(t)
}

func TestCreateReservationEndpoint_BadRequest(t *testing.T) {
	svc := &MockBookingUseCase{}
	router := setupReservationRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/reservations/", bytes.NewReader([]byte(`{"member_id": 42}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "CreateReservation")
}

func TestCreateReservationEndpoint_ErrorMapping(t *testing.T) {
	testCases := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"invalid kind", domain.NewInvalidInput("unknown reservation kind"), http.StatusBadRequest},
		{"session full", domain.NewSessionFull(7, 42), http.StatusUnprocessableEntity},
		{"not eligible", domain.NewNotEligible(7, 42, "group_mismatch"), http.StatusUnprocessableEntity},
		{"duplicate", domain.NewDuplicateReservation(7, 42), http.StatusConflict},
		{"session missing", repository.ErrSessionNotFound, http.StatusNotFound},
		{"member missing", repository.ErrMemberNotFound, http.StatusNotFound},
		{"infrastructure", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &MockBookingUseCase{}
			router := setupReservationRouter(svc)
			svc.On("CreateReservation", mock.Anything, mock.Anything).Return(nil, tc.err).Once()

			body, _ := json.Marshal(map[string]interface{}{"session_id": 7, "member_id": 42})
			req := httptest.NewRequest(http.MethodPost, "/v1/reservations/", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.expectedStatus, w.Code)
		})
	}
}

func TestCreateReservationEndpoint_InvalidInputIsClientError(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"unknown kind", `{"session_id": 1, "member_id": 2, "kind": "BOGUS"}`},
		{"negative session id", `{"session_id": -1, "member_id": 2}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &MockBookingUseCase{}
			router := setupReservationRouter(svc)
			// The service rejects these payloads with a typed validation
			// error; the mapping must answer 4xx, never "internal error".
			svc.On("CreateReservation", mock.Anything, mock.Anything).
				Return(nil, domain.NewInvalidInput("invalid reservation request")).Once()

			req := httptest.NewRequest(http.MethodPost, "/v1/reservations/", bytes.NewReader([]byte(tc.body)))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp map[string]interface{}
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "INVALID_INPUT", resp["kind"])
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestCreateReservationEndpoint_ErrorBodyCarriesKind(t *testing.T) {
	svc := &MockBookingUseCase{}
	router := setupReservationRouter(svc)
	svc.On("CreateReservation", mock.Anything, mock.Anything).
		Return(nil, domain.NewSessionFull(7, 42)).Once()

	body, _ := json.Marshal(map[string]interface{}{"session_id": 7, "member_id": 42})
	req := httptest.NewRequest(http.MethodPost, "/v1/reservations/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "SESSION_FULL", resp["kind"])
	assert.Equal(t, float64(7), resp["session_id"])
}

func TestCheckinEndpoint_OK(t *testing.T) {
	svc := &MockBookingUseCase{}
	router := setupReservationRouter(svc)

	now := time.Now()
	checked := confirmedReservation()
	checked.Status = domain.ReservationStatusCheckedIn
	checked.CheckedInAt = &now
	svc.On("CheckIn", mock.Anything, "tok-11", mock.AnythingOfType("time.Time")).Return(checked, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/v1/reservations/tok-11/checkin", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp reservationResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "CHECKED_IN", resp.Status)
	assert.NotEmpty(t, resp.CheckedInAt)
}

func TestCheckinEndpoint_OutsideWindow(t *testing.T) {
	svc := &MockBookingUseCase{}
	router := setupReservationRouter(svc)

	svc.On("CheckIn", mock.Anything, "tok-11", mock.AnythingOfType("time.Time")).
		Return(nil, domain.NewOutsideCheckinWindow(7, 42)).Once()

	req := httptest.NewRequest(http.MethodPost, "/v1/reservations/tok-11/checkin", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCheckinEndpoint_AlreadyCheckedIn(t *testing.T) {
	svc := &MockBookingUseCase{}
	router := setupReservationRouter(svc)

	existing := confirmedReservation()
	existing.Status = domain.ReservationStatusCheckedIn
	svc.On("CheckIn", mock.Anything, "tok-11", mock.AnythingOfType("time.Time")).
		Return(nil, domain.NewInvalidTransition(existing, "check-in")).Once()

	req := httptest.NewRequest(http.MethodPost, "/v1/reservations/tok-11/checkin", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCancelEndpoint_WithBody(t *testing.T) {
	svc := &MockBookingUseCase{}
	router := setupReservationRouter(svc)

	cancelled := confirmedReservation()
	cancelled.Status = domain.ReservationStatusCancelled
	cancelled.CancelReason = "injury"
	svc.On("CancelReservation", mock.Anything, "tok-11", "admin", "injury").Return(cancelled, nil).Once()

	body := []byte(`{"actor_role": "admin", "reason": "injury"}`)
	req := httptest.NewRequest(http.MethodDelete, "/v1/reservations/tok-11", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp reservationResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "CANCELLED", resp.Status)
	assert.Equal(t, "injury", resp.CancelReason)
	svc.AssertExpectations(t)
}

func TestCancelEndpoint_NoBody(t *testing.T) {
	svc := &MockBookingUseCase{}
	router := setupReservationRouter(svc)

	cancelled := confirmedReservation()
	cancelled.Status = domain.ReservationStatusCancelled
	svc.On("CancelReservation", mock.Anything, "tok-11", "", "").Return(cancelled, nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/v1/reservations/tok-11", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestCancelEndpoint_CutoffPassed(t *testing.T) {
	svc := &MockBookingUseCase{}
	router := setupReservationRouter(svc)

	svc.On("CancelReservation", mock.Anything, "tok-11", "", "").
		Return(nil, domain.NewCancellationCutoffPassed(7, 42)).Once()

	req := httptest.NewRequest(http.MethodDelete, "/v1/reservations/tok-11", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCancelEndpoint_NotFound(t *testing.T) {
	svc := &MockBookingUseCase{}
	router := setupReservationRouter(svc)

	svc.On("CancelReservation", mock.Anything, "missing", "", "").
		Return(nil, repository.ErrReservationNotFound).Once()

	req := httptest.NewRequest(http.MethodDelete, "/v1/reservations/missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
