package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/pawconnect-system/internal/model"
	"github.com/mmeshcher/pawconnect-system/internal/repository"
	"github.com/mmeshcher/pawconnect-system/internal/service"
)

// GetServices возвращает услуги каталога с учётом фильтров запроса.
// Каждый фильтр независим и комбинируется с остальными.
func (h *Handler) GetServices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := repository.ServiceFilter{
		Search:  q.Get("search"),
		PetType: q.Get("petType"),
		Type:    q.Get("type"),
	}

	if raw := q.Get("minRating"); raw != "" {
		minRating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid minRating value")
			return
		}
		filter.MinRating = &minRating
	}

	services, err := h.service.ListServices(r.Context(), filter)
	if err != nil {
		h.internalError(w, "Error fetching services", err)
		return
	}

	resp := make([]serviceResponse, 0, len(services))
	for i := range services {
		resp = append(resp, newServiceResponse(&services[i]))
	}

	respondList(w, len(resp), resp)
}

// GetServiceByID возвращает услугу по идентификатору.
func (h *Handler) GetServiceByID(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusNotFound, "Service not found")
		return
	}

	svc, err := h.service.GetService(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrServiceNotFound) {
			respondError(w, http.StatusNotFound, "Service not found")
			return
		}
		h.internalError(w, "Error fetching service", err, zap.Int64("serviceID", id))
		return
	}

	respondData(w, http.StatusOK, "", newServiceResponse(svc))
}

type createServiceRequest struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Location    string   `json:"location"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	PriceRange  string   `json:"priceRange"`
	BasePrice   float64  `json:"basePrice"`
	PetTypes    []string `json:"petTypes"`
	ImageURL    string   `json:"imageUrl"`
	Description string   `json:"description"`
}

// CreateService добавляет новую услугу в каталог.
func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req createServiceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Name == "" || req.Location == "" || req.BasePrice <= 0 {
		respondError(w, http.StatusBadRequest, "Name, location and base price are required")
		return
	}

	id, err := h.service.CreateService(r.Context(), model.Service{
		Name:           req.Name,
		Type:           model.ServiceType(req.Type),
		Location:       req.Location,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		PriceRange:     req.PriceRange,
		BasePriceCents: amountToCents(req.BasePrice),
		PetTypes:       req.PetTypes,
		ImageURL:       req.ImageURL,
		Description:    req.Description,
	})
	if err != nil {
		h.internalError(w, "Error creating service", err)
		return
	}

	respondData(w, http.StatusCreated, "Service created successfully", map[string]int64{"id": id})
}

// GetEvents возвращает события. Пользователь без премиума не видит
// события premium_only независимо от явного фильтра.
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	ident, _ := identity(r)

	var premiumOnly *bool
	if raw := r.URL.Query().Get("premiumOnly"); raw != "" {
		v := raw == "true"
		premiumOnly = &v
	}

	events, err := h.service.ListEvents(r.Context(), ident.IsPremium, premiumOnly)
	if err != nil {
		h.internalError(w, "Error fetching events", err)
		return
	}

	resp := make([]eventResponse, 0, len(events))
	for i := range events {
		resp = append(resp, newEventResponse(&events[i]))
	}

	respondList(w, len(resp), resp)
}

// GetEventByID возвращает событие по идентификатору с проверкой премиум-видимости.
func (h *Handler) GetEventByID(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusNotFound, "Event not found")
		return
	}

	ident, _ := identity(r)

	event, err := h.service.GetEvent(r.Context(), id, ident.IsPremium)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEventNotFound):
			respondError(w, http.StatusNotFound, "Event not found")
		case errors.Is(err, service.ErrPremiumRequired):
			respondError(w, http.StatusForbidden, "This event is only available for premium members")
		default:
			h.internalError(w, "Error fetching event", err, zap.Int64("eventID", id))
		}
		return
	}

	respondData(w, http.StatusOK, "", newEventResponse(event))
}

type createEventRequest struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Location    string `json:"location"`
	PremiumOnly bool   `json:"premiumOnly"`
	ImageURL    string `json:"imageUrl"`
	Description string `json:"description"`
}

// CreateEvent добавляет новое событие.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if !decodeBody(w, r, &req) {
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Please provide a valid date")
		return
	}

	if req.Title == "" || req.Location == "" {
		respondError(w, http.StatusBadRequest, "Title and location are required")
		return
	}

	id, err := h.service.CreateEvent(r.Context(), model.Event{
		Title:       req.Title,
		Date:        date,
		Location:    req.Location,
		PremiumOnly: req.PremiumOnly,
		ImageURL:    req.ImageURL,
		Description: req.Description,
	})
	if err != nil {
		h.internalError(w, "Error creating event", err)
		return
	}

	respondData(w, http.StatusCreated, "Event created successfully", map[string]int64{"id": id})
}
