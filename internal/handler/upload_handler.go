package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/makoto/rentman/internal/middleware"
	"github.com/makoto/rentman/internal/model"
	"github.com/makoto/rentman/internal/storage"
)

// allowedImageTypes はアップロードを許可するContent-Typeと拡張子の対応。
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// UploadHandler は物件画像のアップロード・配信のHTTPハンドラー。
type UploadHandler struct {
	store    storage.ImageStore
	maxBytes int64
	baseURL  string
}

// NewUploadHandler はUploadHandlerを生成する。
func NewUploadHandler(store storage.ImageStore, maxBytes int64, baseURL string) *UploadHandler {
	return &UploadHandler{
		store:    store,
		maxBytes: maxBytes,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// uploadResponse は画像アップロードのAPIレスポンス。
type uploadResponse struct {
	URL          string `json:"url"`
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
}

// UploadImage はmultipartフォームの画像を保存する。認証必須。
// POST /api/upload/image
func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if requireUser(w, r) == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "マルチパートフォームの解析に失敗しました。サイズ上限を超えている可能性があります。",
			Category: "validation",
		})
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "imageフィールドが見つかりません。",
			Category: "validation",
		})
		return
	}
	defer file.Close()

	// 宣言されたContent-Typeではなく先頭バイトで判定する
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		handleServiceError(w, fmt.Errorf("failed to read upload: %w", err))
		return
	}
	contentType := http.DetectContentType(head[:n])

	ext, ok := allowedImageTypes[contentType]
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidImageTypeError(contentType))
		return
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		handleServiceError(w, fmt.Errorf("failed to rewind upload: %w", err))
		return
	}

	filename := uuid.New().String() + ext
	if err := h.store.Put(r.Context(), filename, file, header.Size, contentType); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		URL:          h.baseURL + "/images/" + filename,
		Filename:     filename,
		OriginalName: header.Filename,
	})
}

// ServeImage は保存済み画像を配信する。認証不要。
// GET /images/{filename}
func (h *UploadHandler) ServeImage(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	// パストラバーサル対策: ベース名以外は受け付けない
	if filename == "" || filename != path.Base(filename) || strings.Contains(filename, "..") {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewImageNotFoundError(filename))
		return
	}

	obj, contentType, err := h.store.Get(r.Context(), filename)
	if err != nil {
		if errors.Is(err, storage.ErrImageNotFound) {
			middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewImageNotFoundError(filename))
			return
		}
		handleServiceError(w, err)
		return
	}
	defer obj.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	io.Copy(w, obj)
}
