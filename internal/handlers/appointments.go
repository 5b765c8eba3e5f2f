package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/benvon/appointment-scheduler/internal/models"
	"github.com/benvon/appointment-scheduler/internal/request"
	"github.com/benvon/appointment-scheduler/internal/services/appointments"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// AppointmentService is the scheduling behavior the HTTP layer depends on
type AppointmentService interface {
	List(ctx context.Context, callerID int64, page int) ([]appointments.ListItem, error)
	Create(ctx context.Context, callerID int64, in appointments.CreateInput) (*models.Appointment, error)
	Cancel(ctx context.Context, callerID, appointmentID int64) (*appointments.CanceledAppointment, error)
}

var _ AppointmentService = (*appointments.Service)(nil)

// AppointmentHandler handles appointment requests
type AppointmentHandler struct {
	service AppointmentService
	logger  *zap.Logger
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(service AppointmentService, logger *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{service: service, logger: logger}
}

// RegisterRoutes registers appointment routes on a router already prefixed with /appointments
func (h *AppointmentHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListAppointments).Methods(http.MethodGet)
	r.HandleFunc("", h.CreateAppointment).Methods(http.MethodPost)
	r.HandleFunc("/{id}", h.CancelAppointment).Methods(http.MethodDelete)
}

// ListAppointments returns one page of the caller's upcoming and past active appointments
func (h *AppointmentHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	callerID, ok := request.CallerID(r)
	if !ok {
		respondJSONError(w, http.StatusUnauthorized, "unauthorized", "User not found in context")
		return
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 1 {
			respondJSONError(w, http.StatusBadRequest, string(appointments.KindValidation), "page must be a positive integer")
			return
		}
		page = p
	}

	items, err := h.service.List(r.Context(), callerID, page)
	if err != nil {
		h.respondServiceError(w, r, "list", err)
		return
	}

	respondJSON(w, http.StatusOK, items)
}

// CreateAppointment books a provider for the hour containing the requested date
func (h *AppointmentHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	callerID, ok := request.CallerID(r)
	if !ok {
		respondJSONError(w, http.StatusUnauthorized, "unauthorized", "User not found in context")
		return
	}

	var in appointments.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		respondJSONError(w, http.StatusBadRequest, string(appointments.KindValidation), "Invalid request body: "+err.Error())
		return
	}

	appointment, err := h.service.Create(r.Context(), callerID, in)
	if err != nil {
		h.respondServiceError(w, r, "create", err)
		return
	}

	respondJSON(w, http.StatusCreated, appointment)
}

// CancelAppointment cancels one of the caller's appointments
func (h *AppointmentHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	callerID, ok := request.CallerID(r)
	if !ok {
		respondJSONError(w, http.StatusUnauthorized, "unauthorized", "User not found in context")
		return
	}

	id, ok := pathID(r)
	if !ok {
		respondJSONError(w, http.StatusBadRequest, string(appointments.KindValidation), "appointment id must be a positive integer")
		return
	}

	canceled, err := h.service.Cancel(r.Context(), callerID, id)
	if err != nil {
		h.respondServiceError(w, r, "cancel", err)
		return
	}

	respondJSON(w, http.StatusOK, canceled)
}

// statusForKind maps a rejection kind onto the HTTP status it is reported with
func statusForKind(kind appointments.Kind) int {
	switch kind {
	case appointments.KindForbidden:
		return http.StatusForbidden
	case appointments.KindNotFound:
		return http.StatusNotFound
	case appointments.KindSlotTaken:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func (h *AppointmentHandler) respondServiceError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	var rejection *appointments.Error
	if errors.As(err, &rejection) {
		message := rejection.Message
		if message == "" {
			message = rejection.Error()
		}
		respondJSONError(w, statusForKind(rejection.Kind), string(rejection.Kind), message)
		return
	}

	h.logger.Error("appointment_operation_failed",
		zap.String("operation", operation),
		zap.Error(err),
	)
	respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to "+operation+" appointment")
}
