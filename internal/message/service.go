// Package message は物件への問い合わせメッセージのビジネスロジックを提供する。
package message

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

// maxContentLength は問い合わせ本文の最大長（文字数）。
const maxContentLength = 2000

// Service はメッセージに関するビジネスロジックを提供する。
type Service struct {
	messageRepo repository.MessageRepository
	rentalRepo  repository.RentalRepository
	sanitizer   security.ContentSanitizerService
}

// NewService はServiceを生成する。
func NewService(
	messageRepo repository.MessageRepository,
	rentalRepo repository.RentalRepository,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		messageRepo: messageRepo,
		rentalRepo:  rentalRepo,
		sanitizer:   sanitizer,
	}
}

// SendMessage は物件への問い合わせを送信する。
// 物件の存在確認を権限確認より先に行う。オーナー自身からの送信は拒否する。
func (s *Service) SendMessage(ctx context.Context, requesterID, rentalID, content string) (*model.Message, error) {
	rental, err := s.rentalRepo.FindByID(ctx, rentalID)
	if err != nil {
		return nil, fmt.Errorf("failed to find rental: %w", err)
	}

	switch authz.MessageCreation(requesterID, rental) {
	case authz.NotFound:
		return nil, model.NewRentalNotFoundError(rentalID)
	case authz.Unauthenticated:
		return nil, model.NewUnauthorizedError()
	case authz.SelfMessage:
		return nil, model.NewSelfMessageError()
	}

	content = s.sanitizer.Sanitize(content)
	if content == "" {
		return nil, model.NewValidationError("本文は必須です")
	}
	if utf8.RuneCountInString(content) > maxContentLength {
		return nil, model.NewValidationError("本文が長すぎます")
	}

	now := time.Now()
	msg := &model.Message{
		ID:        uuid.New().String(),
		RentalID:  rentalID,
		UserID:    requesterID,
		Content:   content,
		IsRead:    false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	slog.Info("message sent",
		slog.String("message_id", msg.ID),
		slog.String("rental_id", rentalID),
		slog.String("sender_id", requesterID),
	)
	return msg, nil
}

// ListUserMessages はリクエスト元ユーザーが送信者または物件オーナーとして
// 関与するメッセージを作成日時の降順で返す。
func (s *Service) ListUserMessages(ctx context.Context, requesterID string) ([]*model.Message, error) {
	if requesterID == "" {
		return nil, model.NewUnauthorizedError()
	}

	messages, err := s.messageRepo.ListInvolving(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// GetMessage は指定メッセージを返す。送信者と物件オーナーのみ閲覧できる。
func (s *Service) GetMessage(ctx context.Context, requesterID, id string) (*model.Message, error) {
	msg, err := s.messageRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find message: %w", err)
	}

	switch authz.MessageView(requesterID, msg) {
	case authz.NotFound:
		return nil, model.NewMessageNotFoundError(id)
	case authz.Unauthenticated:
		return nil, model.NewUnauthorizedError()
	case authz.Forbidden:
		return nil, model.NewForbiddenError()
	}

	return msg, nil
}

// ListRentalMessages は物件に紐づく会話を作成日時の昇順で返す。
// 物件オーナー、または当該物件へ送信済みのユーザーのみ閲覧できる。
func (s *Service) ListRentalMessages(ctx context.Context, requesterID, rentalID string) ([]*model.Message, error) {
	rental, err := s.rentalRepo.FindByID(ctx, rentalID)
	if err != nil {
		return nil, fmt.Errorf("failed to find rental: %w", err)
	}

	hasSent := false
	if rental != nil && requesterID != "" && rental.OwnerID != requesterID {
		hasSent, err = s.messageRepo.ExistsByUserAndRental(ctx, requesterID, rentalID)
		if err != nil {
			return nil, fmt.Errorf("failed to check participation: %w", err)
		}
	}

	switch authz.RentalMessagesView(requesterID, rental, hasSent) {
	case authz.NotFound:
		return nil, model.NewRentalNotFoundError(rentalID)
	case authz.Unauthenticated:
		return nil, model.NewUnauthorizedError()
	case authz.Forbidden:
		return nil, model.NewForbiddenError()
	}

	messages, err := s.messageRepo.ListByRental(ctx, rentalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rental messages: %w", err)
	}
	return messages, nil
}

// MarkAsRead はメッセージを既読にする。受信者である物件オーナーのみ実行できる。
// 既読済みメッセージへの再実行も成功を返す（冪等）。
func (s *Service) MarkAsRead(ctx context.Context, requesterID, id string) error {
	msg, err := s.messageRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find message: %w", err)
	}

	switch authz.MessageView(requesterID, msg) {
	case authz.NotFound:
		return model.NewMessageNotFoundError(id)
	case authz.Unauthenticated:
		return model.NewUnauthorizedError()
	case authz.Forbidden:
		return model.NewForbiddenError()
	}

	// 閲覧権限があっても既読化は受信者（オーナー）に限る
	if msg.OwnerID != requesterID {
		return model.NewForbiddenError()
	}

	if err := s.messageRepo.MarkRead(ctx, id); err != nil {
		return fmt.Errorf("failed to mark message as read: %w", err)
	}

	return nil
}
