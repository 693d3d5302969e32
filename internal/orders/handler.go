package orders

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"dinaradmin/internal/httpx"
)

// Repository is the storage used by Handler.
type Repository interface {
	ListByEmail(ctx context.Context, email string) ([]Order, error)
	Update(ctx context.Context, id uuid.UUID, p Patch) (*Order, error)
}

type Handler struct {
	Store    Repository
	Logger   *slog.Logger
	validate *validator.Validate
}

func NewHandler(store Repository, logger *slog.Logger) *Handler {
	return &Handler{Store: store, Logger: logger, validate: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Patch("/{id}", h.patch)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		httpx.Error(w, http.StatusBadRequest, "Email parameter is required")
		return
	}
	orders, err := h.Store.ListByEmail(r.Context(), email)
	if err != nil {
		h.Logger.Error("list orders", "err", err)
		httpx.ServerError(w)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) patch(w http.ResponseWriter, r *http.Request) {
	// A malformed id cannot name an existing order.
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusNotFound, "Order not found")
		return
	}
	var p Patch
	// An empty body is an empty patch.
	if err := httpx.DecodeJSON(r, &p); err != nil && !errors.Is(err, io.EOF) {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			httpx.Error(w, http.StatusBadRequest, "Invalid value for "+verrs[0].Field())
			return
		}
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	order, err := h.Store.Update(r.Context(), id, p)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, "Order not found")
			return
		}
		h.Logger.Error("update order", "err", err, "id", id)
		httpx.ServerError(w)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"order": order})
}
