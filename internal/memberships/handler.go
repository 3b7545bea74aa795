package memberships

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/antares-fit/antares/internal/platform/httpx"
	"github.com/antares-fit/antares/internal/policy"
)

// Handler exposes membership management over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers membership routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.enroll)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.leave)
	r.Get("/gym/{gymID}", h.listByGym)
}

type membershipResponse struct {
	ID          int64    `json:"id"`
	UserID      int64    `json:"user_id"`
	GymID       int64    `json:"gym_id"`
	Role        string   `json:"role"`
	Status      string   `json:"status"`
	Permissions []string `json:"permissions"`
}

func toResponse(m Membership) membershipResponse {
	return membershipResponse{
		ID:          m.ID,
		UserID:      m.UserID,
		GymID:       m.GymID,
		Role:        string(m.Role),
		Status:      string(m.Status),
		Permissions: m.Permissions.Names(),
	}
}

type enrollRequest struct {
	GymID int64 `json:"gym_id" validate:"required,gt=0"`
}

func (h *Handler) enroll(w http.ResponseWriter, r *http.Request) {
	p, ok := policy.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	var req enrollRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationProblem(w, err)
		return
	}
	created, err := h.service.Enroll(r.Context(), p, req.GymID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	p, ok := policy.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid membership id")
		return
	}
	m, err := h.service.Get(r.Context(), p, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(m))
}

type updateMembershipRequest struct {
	Role        *string  `json:"role" validate:"omitempty,oneof=athlete coach owner programmer"`
	Status      *string  `json:"status" validate:"omitempty,oneof=pending active banned"`
	Permissions []string `json:"permissions"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	p, ok := policy.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid membership id")
		return
	}
	var req updateMembershipRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ValidationProblem(w, err)
		return
	}

	var input UpdateInput
	if req.Role != nil {
		role := policy.GymRole(*req.Role)
		input.Role = &role
	}
	if req.Status != nil {
		status := policy.MembershipStatus(*req.Status)
		input.Status = &status
	}
	if req.Permissions != nil {
		input.Permissions = policy.ParsePermissionSet(req.Permissions)
	}

	updated, err := h.service.Update(r.Context(), p, id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) leave(w http.ResponseWriter, r *http.Request) {
	p, ok := policy.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid membership id")
		return
	}
	if err := h.service.Leave(r.Context(), p, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listByGym(w http.ResponseWriter, r *http.Request) {
	p, ok := policy.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	gymID, err := pathID(r, "gymID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid gym id")
		return
	}
	list, err := h.service.ListByGym(r.Context(), p, gymID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]membershipResponse, len(list))
	for i, m := range list {
		out[i] = toResponse(m)
	}
	httpx.JSON(w, http.StatusOK, out)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
