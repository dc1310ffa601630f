// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/brikick/auth"
	"github.com/danielhkuo/brikick/cliparse"
	"github.com/danielhkuo/brikick/middleware"
	"github.com/danielhkuo/brikick/models"
	"github.com/danielhkuo/brikick/store"
)

type UserHandler struct {
	db  *sqlx.DB
	cfg cliparse.Config
}

func NewUserHandler(db *sqlx.DB, cfg cliparse.Config) *UserHandler {
	return &UserHandler{db: db, cfg: cfg}
}

// Register handles POST /auth/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if _, err := mail.ParseAddress(req.Email); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "A valid email is required")
		return
	}
	if req.Username == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "username is required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if errors.Is(err, auth.ErrWeakPassword) {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	t := now()
	user := models.User{
		ID:                  auth.NewID(),
		Email:               req.Email,
		Username:            req.Username,
		PasswordHash:        hash,
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		CountryCode:         req.CountryCode,
		PreferredCurrencyID: req.PreferredCurrencyID,
		Status:              models.UserStatusActive,
		CreatedAt:           t,
		UpdatedAt:           t,
	}

	err = store.WithTx(r.Context(), h.db, func(tx *sqlx.Tx) error {
		if err := store.CreateUser(r.Context(), tx, &user); err != nil {
			return err
		}
		return store.GrantRole(r.Context(), tx, user.ID, models.RoleUser, nil, t)
	})
	if errors.Is(err, store.ErrConflict) {
		middleware.ErrorResponse(w, http.StatusConflict, "Email or username already registered.")
		return
	}
	if err != nil {
		dbError(w, "failed to create user", err)
		return
	}

	slog.Info("user registered", "user_id", user.ID)
	middleware.JSONResponse(w, http.StatusCreated, user)
}

// Login handles POST /auth/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := store.GetUserByEmail(r.Context(), h.db, strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid credentials.")
		return
	}
	if err != nil {
		dbError(w, "failed to load user", err)
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid credentials.")
		return
	}
	if user.Status != models.UserStatusActive {
		middleware.ErrorResponse(w, http.StatusForbidden, "User is not active")
		return
	}

	t := now()
	token, err := auth.IssueToken(user.ID, h.cfg.JWTSecret, h.cfg.AccessTokenTTL, t)
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to log in")
		return
	}
	if err := store.TouchLastLogin(r.Context(), h.db, user.ID, t); err != nil {
		slog.Warn("failed to record login", "error", err, "user_id", user.ID)
	}

	middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		UserID:      user.ID,
	})
}

// Me handles GET /me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	user, err := store.GetUser(r.Context(), h.db, userID)
	if err != nil {
		dbError(w, "failed to load user", err, "user_id", userID)
		return
	}
	roles, err := store.UserRoles(r.Context(), h.db, userID)
	if err != nil {
		dbError(w, "failed to load roles", err, "user_id", userID)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MeResponse{User: *user, Roles: roles})
}

// CreateAddress handles POST /addresses
func (h *UserHandler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAddressRequest
	if !decode(w, r, &req) {
		return
	}

	required := map[string]string{
		"first_name":    req.FirstName,
		"last_name":     req.LastName,
		"address_line1": req.AddressLine1,
		"city":          req.City,
		"postal_code":   req.PostalCode,
		"country_code":  req.CountryCode,
	}
	for _, field := range []string{"first_name", "last_name", "address_line1", "city", "postal_code", "country_code"} {
		if strings.TrimSpace(required[field]) == "" {
			middleware.ErrorResponse(w, http.StatusBadRequest, field+" is required")
			return
		}
	}

	a := models.Address{
		ID:           auth.NewID(),
		UserID:       middleware.UserID(r.Context()),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		CountryCode:  strings.ToUpper(req.CountryCode),
		Phone:        req.Phone,
		IsDefault:    req.IsDefault,
		CreatedAt:    now(),
	}
	if err := store.CreateAddress(r.Context(), h.db, &a); err != nil {
		dbError(w, "failed to create address", err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, a)
}

// ListAddresses handles GET /addresses
func (h *UserHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	addrs, err := store.ListAddresses(r.Context(), h.db, middleware.UserID(r.Context()))
	if err != nil {
		dbError(w, "failed to list addresses", err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, map[string]any{"addresses": addrs})
}
