package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/carbonacre/carbonacre/internal/models"
	"github.com/carbonacre/carbonacre/internal/store"
)

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResp struct {
	Token string `json:"token"`
}

func (a *App) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || len(req.Password) < 8 {
		a.writeError(w, http.StatusBadRequest, "email and password (min 8 chars) are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, "hashing failed")
		return
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.store.InsertUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			a.writeError(w, http.StatusConflict, "email already registered")
			return
		}
		a.writePipelineError(w, err)
		return
	}

	token, err := makeJWT(a.cfg.JWTSecret, user.ID)
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, "token issue failed")
		return
	}
	a.writeJSON(w, http.StatusCreated, tokenResp{Token: token})
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	user, err := a.store.GetUserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, store.ErrNotFound) {
		a.writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		a.writePipelineError(w, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		a.writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := makeJWT(a.cfg.JWTSecret, user.ID)
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, "token issue failed")
		return
	}
	a.writeJSON(w, http.StatusOK, tokenResp{Token: token})
}

func (a *App) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := a.store.GetUser(r.Context(), mustUserID(r))
	if err != nil {
		a.writePipelineError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, user)
}
