// Package rental は物件の閲覧・登録・更新のビジネスロジックを提供する。
package rental

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/makoto/rentman/internal/authz"
	"github.com/makoto/rentman/internal/model"
	"github.com/makoto/rentman/internal/repository"
	"github.com/makoto/rentman/internal/security"
)

// 入力値の制約（文字数）
const (
	maxNameLength        = 255
	maxDescriptionLength = 2000
)

// Input は物件の登録・更新の入力を表す。
type Input struct {
	Name        string
	Surface     float64
	Price       float64
	Description string
	Picture     string
}

// Statistics はオーナー向けの物件統計を表す。
type Statistics struct {
	Count        int
	AveragePrice float64
	TotalSurface float64
}

// Service は物件に関するビジネスロジックを提供する。
type Service struct {
	rentalRepo repository.RentalRepository
	sanitizer  security.ContentSanitizerService
}

// NewService はServiceを生成する。
func NewService(rentalRepo repository.RentalRepository, sanitizer security.ContentSanitizerService) *Service {
	return &Service{
		rentalRepo: rentalRepo,
		sanitizer:  sanitizer,
	}
}

// ListRentals は全物件を返す。認証不要。
func (s *Service) ListRentals(ctx context.Context) ([]*model.Rental, error) {
	rentals, err := s.rentalRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rentals: %w", err)
	}
	return rentals, nil
}

// GetRental は指定IDの物件を返す。認証不要。
func (s *Service) GetRental(ctx context.Context, id string) (*model.Rental, error) {
	rental, err := s.rentalRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find rental: %w", err)
	}
	if rental == nil {
		return nil, model.NewRentalNotFoundError(id)
	}
	return rental, nil
}

// CreateRental は物件を登録する。オーナーは常にリクエスト元ユーザー。
func (s *Service) CreateRental(ctx context.Context, requesterID string, input Input) (*model.Rental, error) {
	if requesterID == "" {
		return nil, model.NewUnauthorizedError()
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	now := time.Now()
	rental := &model.Rental{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Surface:     input.Surface,
		Price:       input.Price,
		Description: s.sanitizer.Sanitize(input.Description),
		Picture:     input.Picture,
		OwnerID:     requesterID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.rentalRepo.Create(ctx, rental); err != nil {
		return nil, fmt.Errorf("failed to create rental: %w", err)
	}

	slog.Info("rental created",
		slog.String("rental_id", rental.ID),
		slog.String("owner_id", requesterID),
	)
	return rental, nil
}

// UpdateRental は物件を更新する。オーナーのみ実行でき、オーナーの変更はできない。
// 対象が存在しない場合は呼び出し元の権限に関わらず404相当のエラーを返す。
func (s *Service) UpdateRental(ctx context.Context, requesterID, id string, input Input) (*model.Rental, error) {
	rental, err := s.rentalRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find rental: %w", err)
	}

	switch authz.RentalMutation(requesterID, rental) {
	case authz.NotFound:
		return nil, model.NewRentalNotFoundError(id)
	case authz.Unauthenticated:
		return nil, model.NewUnauthorizedError()
	case authz.Forbidden:
		return nil, model.NewForbiddenError()
	}

	if err := validateInput(input); err != nil {
		return nil, err
	}

	rental.Name = input.Name
	rental.Surface = input.Surface
	rental.Price = input.Price
	rental.Description = s.sanitizer.Sanitize(input.Description)
	if input.Picture != "" {
		rental.Picture = input.Picture
	}
	rental.UpdatedAt = time.Now()

	if err := s.rentalRepo.Update(ctx, rental); err != nil {
		return nil, fmt.Errorf("failed to update rental: %w", err)
	}

	slog.Info("rental updated",
		slog.String("rental_id", rental.ID),
		slog.String("owner_id", requesterID),
	)
	return rental, nil
}

// ListRentalsByOwner はリクエスト元ユーザーが所有する物件一覧を返す。
func (s *Service) ListRentalsByOwner(ctx context.Context, requesterID string) ([]*model.Rental, error) {
	if requesterID == "" {
		return nil, model.NewUnauthorizedError()
	}

	rentals, err := s.rentalRepo.ListByOwner(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rentals by owner: %w", err)
	}
	return rentals, nil
}

// OwnerStatistics はリクエスト元ユーザーの物件統計（件数、平均価格、合計面積）を返す。
func (s *Service) OwnerStatistics(ctx context.Context, requesterID string) (*Statistics, error) {
	if requesterID == "" {
		return nil, model.NewUnauthorizedError()
	}

	rentals, err := s.rentalRepo.ListByOwner(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rentals by owner: %w", err)
	}

	stats := &Statistics{Count: len(rentals)}
	if len(rentals) == 0 {
		return stats, nil
	}

	var totalPrice float64
	for _, r := range rentals {
		totalPrice += r.Price
		stats.TotalSurface += r.Surface
	}
	stats.AveragePrice = totalPrice / float64(len(rentals))

	return stats, nil
}

// validateInput は物件入力を検証する。
func validateInput(input Input) error {
	if input.Name == "" {
		return model.NewValidationError("物件名は必須です")
	}
	if utf8.RuneCountInString(input.Name) > maxNameLength {
		return model.NewValidationError("物件名が長すぎます")
	}
	if input.Surface <= 0 {
		return model.NewValidationError("面積は正の値である必要があります")
	}
	if input.Price <= 0 {
		return model.NewValidationError("価格は正の値である必要があります")
	}
	if utf8.RuneCountInString(input.Description) > maxDescriptionLength {
		return model.NewValidationError("説明文が長すぎます")
	}
	return nil
}
