package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/makoto/rentman/internal/model"
)

// MessageServiceInterface はメッセージハンドラーが必要とするサービスインターフェース。
type MessageServiceInterface interface {
	SendMessage(ctx context.Context, requesterID, rentalID, content string) (*model.Message, error)
	ListUserMessages(ctx context.Context, requesterID string) ([]*model.Message, error)
	GetMessage(ctx context.Context, requesterID, id string) (*model.Message, error)
	ListRentalMessages(ctx context.Context, requesterID, rentalID string) ([]*model.Message, error)
	MarkAsRead(ctx context.Context, requesterID, id string) error
}

// MessageHandler は問い合わせメッセージのHTTPハンドラー。
type MessageHandler struct {
	service MessageServiceInterface
}

// NewMessageHandler はMessageHandlerを生成する。
func NewMessageHandler(service MessageServiceInterface) *MessageHandler {
	return &MessageHandler{service: service}
}

// sendMessageRequest は問い合わせ送信リクエストのボディ。
// 送信者は常に認証済みユーザーであり、ボディでの指定は受け付けない。
type sendMessageRequest struct {
	RentalID string `json:"rental_id"`
	Message  string `json:"message"`
}

// messageResponse はメッセージ情報のAPIレスポンス。
type messageResponse struct {
	ID          string `json:"id"`
	RentalID    string `json:"rental_id"`
	SenderID    string `json:"sender_id"`
	SenderEmail string `json:"sender_email,omitempty"`
	Content     string `json:"content"`
	IsRead      bool   `json:"is_read"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// messageListResponse はメッセージ一覧のAPIレスポンス。
type messageListResponse struct {
	Messages []messageResponse `json:"messages"`
}

// SendMessage は物件への問い合わせを送信する。
// POST /api/messages
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	if _, err := h.service.SendMessage(r.Context(), user.ID, req.RentalID, req.Message); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "問い合わせを送信しました。",
	})
}

// ListMyMessages はリクエスト元ユーザーが関与するメッセージ一覧を返す。
// GET /api/messages
func (h *MessageHandler) ListMyMessages(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	messages, err := h.service.ListUserMessages(r.Context(), user.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMessageListResponse(messages))
}

// GetMessage はメッセージ詳細を返す。送信者と物件オーナーのみ。
// GET /api/messages/{id}
func (h *MessageHandler) GetMessage(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	id := chi.URLParam(r, "id")

	msg, err := h.service.GetMessage(r.Context(), user.ID, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMessageResponse(msg))
}

// MarkAsRead はメッセージを既読にする。物件オーナーのみ。
// PUT /api/messages/{id}/read
func (h *MessageHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	id := chi.URLParam(r, "id")

	if err := h.service.MarkAsRead(r.Context(), user.ID, id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListRentalMessages は物件に紐づく会話を返す。オーナーと送信済みユーザーのみ。
// GET /api/rentals/{id}/messages
func (h *MessageHandler) ListRentalMessages(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	rentalID := chi.URLParam(r, "id")

	messages, err := h.service.ListRentalMessages(r.Context(), user.ID, rentalID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMessageListResponse(messages))
}

// --- ヘルパー関数 ---

// toMessageResponse はmodel.MessageからAPIレスポンスに変換する。
func toMessageResponse(msg *model.Message) messageResponse {
	return messageResponse{
		ID:          msg.ID,
		RentalID:    msg.RentalID,
		SenderID:    msg.UserID,
		SenderEmail: msg.SenderEmail,
		Content:     msg.Content,
		IsRead:      msg.IsRead,
		CreatedAt:   msg.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   msg.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// toMessageListResponse はメッセージスライスから一覧レスポンスに変換する。
func toMessageListResponse(messages []*model.Message) messageListResponse {
	resp := messageListResponse{Messages: make([]messageResponse, 0, len(messages))}
	for _, msg := range messages {
		resp.Messages = append(resp.Messages, toMessageResponse(msg))
	}
	return resp
}
