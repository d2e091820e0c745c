package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// UserHandler はユーザープロフィールのHTTPハンドラー。
type UserHandler struct {
	service AuthServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service AuthServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// GetUser は指定IDのユーザーの公開プロフィールを返す。認証必須。
// GET /api/user/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	if requireUser(w, r) == nil {
		return
	}

	userID := chi.URLParam(r, "id")

	user, err := h.service.GetUserByID(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}
