// Package handler はHTTP APIのハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/makoto/rentman/internal/middleware"
	"github.com/makoto/rentman/internal/model"
)

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeInvalidRequest はリクエストボディの解析失敗レスポンスを書き込む。
func writeInvalidRequest(w http.ResponseWriter) {
	middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     model.ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
	})
}

// requireUser はコンテキストから認証済みユーザーを取得する。
// 匿名の場合は401を書き込み、nilを返す。
func requireUser(w http.ResponseWriter, r *http.Request) *model.User {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return nil
	}
	return user
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		middleware.WriteErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeEmailAlreadyRegistered:
		return http.StatusConflict
	case model.ErrCodeInvalidCredentials, model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeUserNotFound, model.ErrCodeRentalNotFound,
		model.ErrCodeMessageNotFound, model.ErrCodeImageNotFound:
		return http.StatusNotFound
	case model.ErrCodeSelfMessage, model.ErrCodeValidationFailed,
		model.ErrCodeInvalidRequest, model.ErrCodeInvalidImageType:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
