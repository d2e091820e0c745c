package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/makoto/rentman/internal/model"
	"github.com/makoto/rentman/internal/rental"
)

// RentalServiceInterface は物件ハンドラーが必要とするサービスインターフェース。
type RentalServiceInterface interface {
	ListRentals(ctx context.Context) ([]*model.Rental, error)
	GetRental(ctx context.Context, id string) (*model.Rental, error)
	CreateRental(ctx context.Context, requesterID string, input rental.Input) (*model.Rental, error)
	UpdateRental(ctx context.Context, requesterID, id string, input rental.Input) (*model.Rental, error)
	ListRentalsByOwner(ctx context.Context, requesterID string) ([]*model.Rental, error)
	OwnerStatistics(ctx context.Context, requesterID string) (*rental.Statistics, error)
}

// RentalHandler は物件管理のHTTPハンドラー。
type RentalHandler struct {
	service RentalServiceInterface
}

// NewRentalHandler はRentalHandlerを生成する。
func NewRentalHandler(service RentalServiceInterface) *RentalHandler {
	return &RentalHandler{service: service}
}

// rentalRequest は物件の登録・更新リクエストのボディ。
type rentalRequest struct {
	Name        string  `json:"name"`
	Surface     float64 `json:"surface"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Picture     string  `json:"picture"`
}

// rentalResponse は物件情報のAPIレスポンス。
type rentalResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Surface     float64 `json:"surface"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Picture     string  `json:"picture"`
	OwnerID     string  `json:"owner_id"`
	OwnerEmail  string  `json:"owner_email"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// rentalListResponse は物件一覧のAPIレスポンス。
type rentalListResponse struct {
	Rentals []rentalResponse `json:"rentals"`
}

// statisticsResponse はオーナー統計のAPIレスポンス。
type statisticsResponse struct {
	Count        int     `json:"count"`
	AveragePrice float64 `json:"average_price"`
	TotalSurface float64 `json:"total_surface"`
}

// ListRentals は全物件を返す。認証不要。
// GET /api/rentals
func (h *RentalHandler) ListRentals(w http.ResponseWriter, r *http.Request) {
	rentals, err := h.service.ListRentals(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRentalListResponse(rentals))
}

// GetRental は物件詳細を返す。認証不要。
// GET /api/rentals/{id}
func (h *RentalHandler) GetRental(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rtl, err := h.service.GetRental(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRentalResponse(rtl))
}

// CreateRental は物件を登録する。オーナーはリクエスト元ユーザー。
// POST /api/rentals
func (h *RentalHandler) CreateRental(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	var req rentalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	rtl, err := h.service.CreateRental(r.Context(), user.ID, toRentalInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRentalResponse(rtl))
}

// UpdateRental は物件を更新する。オーナーのみ。
// PUT /api/rentals/{id}
func (h *RentalHandler) UpdateRental(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	id := chi.URLParam(r, "id")

	var req rentalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	rtl, err := h.service.UpdateRental(r.Context(), user.ID, id, toRentalInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRentalResponse(rtl))
}

// ListOwnRentals はリクエスト元ユーザーの物件一覧を返す。
// GET /api/rentals/user
func (h *RentalHandler) ListOwnRentals(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	rentals, err := h.service.ListRentalsByOwner(r.Context(), user.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRentalListResponse(rentals))
}

// OwnerStatistics はリクエスト元ユーザーの物件統計を返す。
// GET /api/rentals/user/stats
func (h *RentalHandler) OwnerStatistics(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	stats, err := h.service.OwnerStatistics(r.Context(), user.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statisticsResponse{
		Count:        stats.Count,
		AveragePrice: stats.AveragePrice,
		TotalSurface: stats.TotalSurface,
	})
}

// --- ヘルパー関数 ---

// toRentalInput はリクエストボディからサービス入力に変換する。
func toRentalInput(req rentalRequest) rental.Input {
	return rental.Input{
		Name:        req.Name,
		Surface:     req.Surface,
		Price:       req.Price,
		Description: req.Description,
		Picture:     req.Picture,
	}
}

// toRentalResponse はmodel.RentalからAPIレスポンスに変換する。
func toRentalResponse(rtl *model.Rental) rentalResponse {
	return rentalResponse{
		ID:          rtl.ID,
		Name:        rtl.Name,
		Surface:     rtl.Surface,
		Price:       rtl.Price,
		Description: rtl.Description,
		Picture:     rtl.Picture,
		OwnerID:     rtl.OwnerID,
		OwnerEmail:  rtl.OwnerEmail,
		CreatedAt:   rtl.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   rtl.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// toRentalListResponse は物件スライスから一覧レスポンスに変換する。
func toRentalListResponse(rentals []*model.Rental) rentalListResponse {
	resp := rentalListResponse{Rentals: make([]rentalResponse, 0, len(rentals))}
	for _, rtl := range rentals {
		resp.Rentals = append(resp.Rentals, toRentalResponse(rtl))
	}
	return resp
}
