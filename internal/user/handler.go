package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/danielags/usuario-api/internal/auth"
	"github.com/danielags/usuario-api/internal/contact"
	"github.com/danielags/usuario-api/internal/httputil"
	"github.com/danielags/usuario-api/internal/logging"
	"github.com/go-chi/chi/v5"
)

// Handler contains HTTP handlers for user, address and phone endpoints
type Handler struct {
	service       *Service
	logger        *logging.Logger
	tokenDuration time.Duration
}

func NewHandler(service *Service, logger *logging.Logger, tokenDuration time.Duration) *Handler {
	return &Handler{
		service:       service,
		logger:        logger,
		tokenDuration: tokenDuration,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse represents a successful login
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// AddressRequest represents the address payload for creation. The owner is
// derived from the bearer token, never from the body.
type AddressRequest struct {
	Street     string `json:"street"`
	Number     int64  `json:"number"`
	Complement string `json:"complement"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
}

// PhoneRequest represents the phone payload for creation
type PhoneRequest struct {
	Number   string `json:"number"`
	AreaCode string `json:"area_code"`
}

// UserResponse represents a user in API responses. The password hash never
// crosses this boundary.
type UserResponse struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Addresses []AddressResponse `json:"addresses"`
	Phones    []PhoneResponse   `json:"phones"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// AddressResponse represents an address in API responses
type AddressResponse struct {
	ID         int64  `json:"id"`
	Street     string `json:"street"`
	Number     int64  `json:"number"`
	Complement string `json:"complement"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	UserID     int64  `json:"user_id"`
}

// PhoneResponse represents a phone in API responses
type PhoneResponse struct {
	ID       int64  `json:"id"`
	Number   string `json:"number"`
	AreaCode string `json:"area_code"`
	UserID   int64  `json:"user_id"`
}

func toAddressResponse(a *contact.Address) AddressResponse {
	return AddressResponse{
		ID:         a.ID,
		Street:     a.Street,
		Number:     a.Number,
		Complement: a.Complement,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		UserID:     a.UserID,
	}
}

func toPhoneResponse(p *contact.Phone) PhoneResponse {
	return PhoneResponse{
		ID:       p.ID,
		Number:   p.Number,
		AreaCode: p.AreaCode,
		UserID:   p.UserID,
	}
}

func toUserResponse(u *User) UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Addresses: make([]AddressResponse, 0, len(u.Addresses)),
		Phones:    make([]PhoneResponse, 0, len(u.Phones)),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	for _, a := range u.Addresses {
		resp.Addresses = append(resp.Addresses, toAddressResponse(a))
	}
	for _, p := range u.Phones {
		resp.Phones = append(resp.Phones, toPhoneResponse(p))
	}
	return resp
}

// Register handles user registration. Responds 201 on success, 409 when the
// email is already taken.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	newUser, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateEmail):
			logger.Warn("registration failed: email already exists", "email", req.Email)
			httputil.RespondErrorWithCode(w, "email already exists", httputil.CodeEmailAlreadyExists, http.StatusConflict)
		case errors.Is(err, ErrEmailRequired), errors.Is(err, ErrInvalidEmailFormat):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeEmailRequired, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordRequired), errors.Is(err, ErrPasswordTooShort):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodePasswordRequired, http.StatusBadRequest)
		default:
			logger.Error("registration failed", "error", err.Error())
			httputil.RespondErrorWithCode(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user registered", "user_id", newUser.ID)
	httputil.RespondJSON(w, toUserResponse(newUser), http.StatusCreated)
}

// Login authenticates a user and returns a bearer token
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed", "email", req.Email)
			httputil.RespondErrorWithCode(w, "invalid email or password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
			return
		}
		logger.Error("login failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.tokenDuration.Seconds()),
	}, http.StatusOK)
}

// GetByEmail returns a user with its addresses and phones
func (h *Handler) GetByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		httputil.RespondErrorWithCode(w, "email query parameter is required", httputil.CodeEmailRequired, http.StatusBadRequest)
		return
	}

	found, err := h.service.FindByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		logging.GetLoggerFromContext(r.Context()).Error("failed to get user", "error", err.Error())
		httputil.RespondErrorWithCode(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, toUserResponse(found), http.StatusOK)
}

// UpdateProfile applies a partial update to the authenticated user
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	token, ok := auth.TokenFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var patch Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), token, patch)
	if err != nil {
		h.respondUpdateError(w, logger, err)
		return
	}

	httputil.RespondJSON(w, toUserResponse(updated), http.StatusOK)
}

// Delete removes a user by email. Idempotent: a missing email still yields 204.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	if err := h.service.Delete(r.Context(), email); err != nil {
		logging.GetLoggerFromContext(r.Context()).Error("failed to delete user", "error", err.Error())
		httputil.RespondErrorWithCode(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RegisterAddress creates an address owned by the authenticated user
func (h *Handler) RegisterAddress(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	token, ok := auth.TokenFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req AddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	saved, err := h.service.RegisterAddress(r.Context(), token, contact.Address{
		Street:     req.Street,
		Number:     req.Number,
		Complement: req.Complement,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
	})
	if err != nil {
		h.respondUpdateError(w, logger, err)
		return
	}

	httputil.RespondJSON(w, toAddressResponse(saved), http.StatusCreated)
}

// RegisterPhone creates a phone owned by the authenticated user
func (h *Handler) RegisterPhone(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	token, ok := auth.TokenFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req PhoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	saved, err := h.service.RegisterPhone(r.Context(), token, contact.Phone{
		Number:   req.Number,
		AreaCode: req.AreaCode,
	})
	if err != nil {
		h.respondUpdateError(w, logger, err)
		return
	}

	httputil.RespondJSON(w, toPhoneResponse(saved), http.StatusCreated)
}

// UpdateAddress applies a partial update to an address the caller owns
func (h *Handler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	token, ok := auth.TokenFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid id", httputil.CodeInvalidID, http.StatusBadRequest)
		return
	}

	var patch contact.AddressPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	updated, err := h.service.UpdateAddress(r.Context(), token, id, patch)
	if err != nil {
		if errors.Is(err, contact.ErrNotFound) {
			httputil.RespondErrorWithCode(w, "address not found", httputil.CodeAddressNotFound, http.StatusNotFound)
			return
		}
		h.respondUpdateError(w, logger, err)
		return
	}

	httputil.RespondJSON(w, toAddressResponse(updated), http.StatusOK)
}

// UpdatePhone applies a partial update to a phone the caller owns
func (h *Handler) UpdatePhone(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	token, ok := auth.TokenFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid id", httputil.CodeInvalidID, http.StatusBadRequest)
		return
	}

	var patch contact.PhonePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	updated, err := h.service.UpdatePhone(r.Context(), token, id, patch)
	if err != nil {
		if errors.Is(err, contact.ErrNotFound) {
			httputil.RespondErrorWithCode(w, "phone not found", httputil.CodePhoneNotFound, http.StatusNotFound)
			return
		}
		h.respondUpdateError(w, logger, err)
		return
	}

	httputil.RespondJSON(w, toPhoneResponse(updated), http.StatusOK)
}

// respondUpdateError maps the shared error outcomes of token-authenticated
// operations: expired/invalid token to 401, missing subject to 404, email
// conflict to 409, anything else to 500.
func (h *Handler) respondUpdateError(w http.ResponseWriter, logger *logging.Logger, err error) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		httputil.RespondErrorWithCode(w, "token has expired", httputil.CodeTokenExpired, http.StatusUnauthorized)
	case errors.Is(err, auth.ErrInvalidToken):
		httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
	case errors.Is(err, ErrNotFound):
		httputil.RespondErrorWithCode(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
	case errors.Is(err, ErrDuplicateEmail):
		httputil.RespondErrorWithCode(w, "email already exists", httputil.CodeEmailAlreadyExists, http.StatusConflict)
	case errors.Is(err, ErrPasswordRequired), errors.Is(err, ErrPasswordTooShort):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodePasswordRequired, http.StatusBadRequest)
	default:
		logger.Error("operation failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
	}
}
