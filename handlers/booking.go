package handlers

import (
	"errors"
	"net/http"
	"time"

	doctorRepo "bettermind/database/repository/doctor"
	"bettermind/middleware"
	"bettermind/models"
	"bettermind/services/availability"
	"bettermind/services/booking"
	"bettermind/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler serves availability and appointment endpoints.
type BookingHandler struct {
	Service      booking.BookingService
	Availability availability.Service
	Location     *time.Location
	Logger       *zap.Logger
}

func NewBookingHandler(svc booking.BookingService, avail availability.Service, loc *time.Location, logger *zap.Logger) *BookingHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingHandler{Service: svc, Availability: avail, Location: loc, Logger: logger}
}

type createAppointmentRequest struct {
	DoctorID     string    `json:"doctorId"`
	DateTime     time.Time `json:"dateTime"`
	Notes        string    `json:"notes"`
	SyncCalendar bool      `json:"syncCalendar"`
}

type updateAppointmentRequest struct {
	DateTime *time.Time `json:"dateTime"`
	Notes    *string    `json:"notes"`
	Status   *string    `json:"status"`
}

// GetAvailableSlots handles GET /api/doctors/:id/slots?date=YYYY-MM-DD.
// A calendar outage is reported as an empty day rather than an error.
func (h *BookingHandler) GetAvailableSlots(c *gin.Context) {
	doctorID := c.Param("id")
	dateStr := c.Query("date")
	date, err := time.ParseInLocation("2006-01-02", dateStr, h.Location)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, booking.CodeInvalidInput, "date must be formatted as YYYY-MM-DD")
		return
	}

	result := models.AvailableSlotsResult{DoctorID: doctorID, Date: dateStr, Slots: []models.TimeSlot{}}
	slots, err := h.Availability.GetAvailableTimeSlots(c.Request.Context(), doctorID, date)
	switch {
	case errors.Is(err, doctorRepo.ErrNotFound):
		utils.JSONError(c, http.StatusNotFound, booking.CodeNotFound, "doctor not found")
		return
	case errors.Is(err, availability.ErrExternal):
		h.Logger.Warn("availability unavailable, returning empty day",
			zap.String("doctorID", doctorID), zap.String("date", dateStr), zap.Error(err))
		result.AvailabilityError = "The doctor's calendar could not be reached. Please try again later."
	case err != nil:
		h.Logger.Error("failed to compute availability", zap.String("doctorID", doctorID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, booking.CodeStorage, "failed to load availability")
		return
	default:
		result.Slots = slots
	}
	c.JSON(http.StatusOK, result)
}

// CreateAppointment handles POST /api/appointments.
func (h *BookingHandler) CreateAppointment(c *gin.Context) {
	var req createAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, booking.CodeInvalidInput, "invalid request: "+err.Error())
		return
	}

	outcome, err := h.Service.CreateReservation(c.Request.Context(), booking.CreateRequest{
		UserID:           c.GetString(middleware.ContextUserID),
		DoctorID:         req.DoctorID,
		DateTime:         req.DateTime,
		Notes:            req.Notes,
		MirrorExternally: req.SyncCalendar,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, outcomeResponse(outcome))
}

// ListAppointments handles GET /api/appointments.
func (h *BookingHandler) ListAppointments(c *gin.Context) {
	list, err := h.Service.ListReservations(c.Request.Context(),
		c.GetString(middleware.ContextUserID), c.GetString(middleware.ContextRole))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": list})
}

// GetAppointment handles GET /api/appointments/:id.
func (h *BookingHandler) GetAppointment(c *gin.Context) {
	res, err := h.Service.GetReservation(c.Request.Context(), c.Param("id"), c.GetString(middleware.ContextUserID))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": res})
}

// UpdateAppointment handles PATCH /api/appointments/:id.
func (h *BookingHandler) UpdateAppointment(c *gin.Context) {
	var req updateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, booking.CodeInvalidInput, "invalid request: "+err.Error())
		return
	}

	outcome, err := h.Service.UpdateReservation(c.Request.Context(), booking.UpdateRequest{
		ReservationID: c.Param("id"),
		RequesterID:   c.GetString(middleware.ContextUserID),
		DateTime:      req.DateTime,
		Notes:         req.Notes,
		Status:        req.Status,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcomeResponse(outcome))
}

// CancelAppointment handles DELETE /api/appointments/:id. The record is kept
// with status cancelled.
func (h *BookingHandler) CancelAppointment(c *gin.Context) {
	outcome, err := h.Service.CancelReservation(c.Request.Context(), c.Param("id"), c.GetString(middleware.ContextUserID))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcomeResponse(outcome))
}

func (h *BookingHandler) respondError(c *gin.Context, err error) {
	status := booking.HTTPStatus(err)
	var be *booking.BookingError
	if !errors.As(err, &be) {
		h.Logger.Error("unexpected booking error", zap.Error(err))
		utils.JSONError(c, status, booking.CodeStorage, "internal error")
		return
	}
	if status >= http.StatusInternalServerError {
		h.Logger.Error("booking request failed", zap.String("code", be.Code), zap.Error(err))
	}
	utils.JSONError(c, status, be.Code, be.Message)
}

func outcomeResponse(o *booking.Outcome) gin.H {
	sync := gin.H{"status": o.Mirror.Status()}
	if o.Mirror.Err != nil {
		sync["error"] = "calendar sync failed; the appointment is still booked"
	}
	return gin.H{"appointment": o.Reservation, "calendarSync": sync}
}
