package handler

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/pawconnect-system/internal/repository"
	"github.com/mmeshcher/pawconnect-system/internal/service"
	"github.com/mmeshcher/pawconnect-system/internal/validation"
)

// GetProfile возвращает профиль текущего пользователя.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	u, err := h.service.GetProfile(r.Context(), ident.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		h.internalError(w, "Error fetching profile", err, zap.Int64("userID", ident.UserID))
		return
	}

	respondData(w, http.StatusOK, "", newUserResponse(u))
}

type updateProfileRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// UpdateProfile обновляет профиль текущего пользователя. Обновляются только
// переданные поля; набор изменяемых колонок фиксирован.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	var req updateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	patch := repository.ProfilePatch{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if !validation.IsValidName(name) {
			respondError(w, http.StatusBadRequest, "Name must be between 2 and 100 characters")
			return
		}
		patch.Name = &name
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if !validation.IsValidEmail(email) {
			respondError(w, http.StatusBadRequest, "Please provide a valid email")
			return
		}
		patch.Email = &email
	}

	u, err := h.service.UpdateProfile(r.Context(), ident.UserID, patch)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyPatch):
			respondError(w, http.StatusBadRequest, "No fields to update")
		case errors.Is(err, repository.ErrEmailTaken):
			respondError(w, http.StatusBadRequest, "Email is already taken")
		case errors.Is(err, repository.ErrUserNotFound):
			respondError(w, http.StatusNotFound, "User not found")
		default:
			h.internalError(w, "Error updating profile", err, zap.Int64("userID", ident.UserID))
		}
		return
	}

	respondData(w, http.StatusOK, "Profile updated successfully", newUserResponse(u))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword заменяет пароль текущего пользователя.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	var req changePasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if !validation.IsValidPassword(req.NewPassword) {
		respondError(w, http.StatusBadRequest, "Password must be at least 6 characters long")
		return
	}

	err := h.service.ChangePassword(r.Context(), ident.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(w, http.StatusUnauthorized, "Current password is incorrect")
		case errors.Is(err, repository.ErrUserNotFound):
			respondError(w, http.StatusNotFound, "User not found")
		default:
			h.internalError(w, "Error changing password", err, zap.Int64("userID", ident.UserID))
		}
		return
	}

	respondData(w, http.StatusOK, "Password changed successfully", nil)
}

// UpgradePremium выставляет премиум-статус текущего пользователя.
func (h *Handler) UpgradePremium(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	err := h.service.UpgradeToPremium(r.Context(), ident.UserID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyPremium):
			respondError(w, http.StatusBadRequest, "User is already a premium member")
		case errors.Is(err, repository.ErrUserNotFound):
			respondError(w, http.StatusNotFound, "User not found")
		default:
			h.internalError(w, "Error upgrading to premium", err, zap.Int64("userID", ident.UserID))
		}
		return
	}

	respondData(w, http.StatusOK, "Successfully upgraded to premium membership", nil)
}
