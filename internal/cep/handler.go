package cep

import (
	"errors"
	"net/http"

	"github.com/danielags/usuario-api/internal/httputil"
	"github.com/danielags/usuario-api/internal/logging"
	"github.com/go-chi/chi/v5"
)

// Handler exposes the postal code lookup over HTTP
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Lookup handles GET /cep/{cep}. Responds 400 on a malformed CEP and 404
// when ViaCEP does not know it.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.Lookup(r.Context(), chi.URLParam(r, "cep"))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCEP):
			httputil.RespondErrorWithCode(w, "cep contains invalid characters or wrong length", httputil.CodeInvalidCEP, http.StatusBadRequest)
		case errors.Is(err, ErrNotFound):
			httputil.RespondErrorWithCode(w, "cep not found", httputil.CodeCEPNotFound, http.StatusNotFound)
		default:
			logging.GetLoggerFromContext(r.Context()).Error("cep lookup failed", "error", err.Error())
			httputil.RespondErrorWithCode(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	httputil.RespondJSON(w, data, http.StatusOK)
}
