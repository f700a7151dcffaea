package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/majorload/majorload/internal/handler/dto"
	"github.com/majorload/majorload/internal/service"
	"github.com/majorload/majorload/internal/session"
)

// LoadHandler handles HTTP requests for the load board.
type LoadHandler struct {
	svc    *service.LoadService
	logger *slog.Logger
}

// NewLoadHandler creates a new LoadHandler.
func NewLoadHandler(svc *service.LoadService, logger *slog.Logger) *LoadHandler {
	return &LoadHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /api/loads: the public board, visible to everyone.
func (h *LoadHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

// ListPremium handles GET /api/loads/premium. The route is gated to
// premium-tier sessions before this handler runs.
func (h *LoadHandler) ListPremium(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *LoadHandler) list(w http.ResponseWriter, r *http.Request, premiumOnly bool) {
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}

	loads, err := h.svc.ListLoads(r.Context(), premiumOnly, limit)
	if err != nil {
		h.logger.Error("load listing failed",
			slog.Bool("premium", premiumOnly),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	writeJSON(w, http.StatusOK, dto.ToLoadListResponse(loads))
}

// Create handles POST /api/loads. Requires an authenticated session; a
// premium-tier posting additionally requires premium entitlement.
func (h *LoadHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal := session.PrincipalFromContext(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		return
	}

	var req dto.PostLoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if req.Premium && !principal.IsPremium {
		writeError(w, http.StatusForbidden, "PREMIUM_REQUIRED", "premium subscription required to post premium loads")
		return
	}

	input := service.PostLoadInput{
		LoadNumber:          req.LoadNumber,
		Company:             req.Company,
		OriginCity:          req.OriginCity,
		OriginState:         req.OriginState,
		DestinationCity:     req.DestinationCity,
		DestinationState:    req.DestinationState,
		PickupDate:          req.PickupDate,
		Price:               req.Price,
		Distance:            req.Distance,
		Weight:              req.Weight,
		Equipment:           req.Equipment,
		Commodity:           req.Commodity,
		SpecialInstructions: req.SpecialInstructions,
		ContactPhone:        req.ContactPhone,
		Premium:             req.Premium,
		PostedBy:            principal.Email,
	}

	load, err := h.svc.PostLoad(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("load_posted",
		slog.String("load_id", load.ID),
		slog.String("posted_by", principal.Email),
		slog.Bool("premium", load.Premium),
	)

	writeJSON(w, http.StatusCreated, dto.ToLoadResponse(load))
}

// handleServiceError maps service errors to HTTP responses.
func (h *LoadHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrMissingOrigin):
		writeError(w, http.StatusBadRequest, "MISSING_ORIGIN", "Origin city and state are required")
	case errors.Is(err, service.ErrMissingDestination):
		writeError(w, http.StatusBadRequest, "MISSING_DESTINATION", "Destination city and state are required")
	case errors.Is(err, service.ErrInvalidPickupDate):
		writeError(w, http.StatusBadRequest, "INVALID_PICKUP_DATE", "Pickup date must be YYYY-MM-DD")
	case errors.Is(err, service.ErrInvalidPrice):
		writeError(w, http.StatusBadRequest, "INVALID_PRICE", "Price must be a positive dollar amount")
	case errors.Is(err, service.ErrInvalidDistance):
		writeError(w, http.StatusBadRequest, "INVALID_DISTANCE", "Distance must not be negative")
	case errors.Is(err, service.ErrInvalidEquipment):
		writeError(w, http.StatusBadRequest, "INVALID_EQUIPMENT", "Unknown equipment type")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
