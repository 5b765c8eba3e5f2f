package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/benvon/appointment-scheduler/internal/models"
	"github.com/benvon/appointment-scheduler/internal/request"
	"github.com/benvon/appointment-scheduler/internal/services/notifications"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// NotificationService lists and acknowledges a provider's notifications
type NotificationService interface {
	List(ctx context.Context, caller *models.User) ([]*models.Notification, error)
	MarkRead(ctx context.Context, callerID, id int64) (*models.Notification, error)
}

var _ NotificationService = (*notifications.Service)(nil)

// NotificationHandler handles notification requests
type NotificationHandler struct {
	service NotificationService
	logger  *zap.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(service NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{service: service, logger: logger}
}

// RegisterRoutes registers notification routes on a router already prefixed with /notifications
func (h *NotificationHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListNotifications).Methods(http.MethodGet)
	r.HandleFunc("/{id}", h.MarkRead).Methods(http.MethodPut)
}

// ListNotifications returns the caller's most recent notifications
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "unauthorized", "User not found in context")
		return
	}

	list, err := h.service.List(r.Context(), user)
	if errors.Is(err, notifications.ErrNotProvider) {
		respondJSONError(w, http.StatusForbidden, "forbidden", err.Error())
		return
	}
	if err != nil {
		h.logger.Error("failed_to_list_notifications", zap.Int64("user_id", user.ID), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to list notifications")
		return
	}

	respondJSON(w, http.StatusOK, list)
}

// MarkRead flags a notification as read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	callerID, ok := request.CallerID(r)
	if !ok {
		respondJSONError(w, http.StatusUnauthorized, "unauthorized", "User not found in context")
		return
	}

	id, ok := pathID(r)
	if !ok {
		respondJSONError(w, http.StatusBadRequest, "validation", "notification id must be a positive integer")
		return
	}

	n, err := h.service.MarkRead(r.Context(), callerID, id)
	if errors.Is(err, notifications.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	if err != nil {
		h.logger.Error("failed_to_mark_notification_read", zap.Int64("notification_id", id), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to update notification")
		return
	}

	respondJSON(w, http.StatusOK, n)
}
