package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/makoto/rentman/internal/model"
	"github.com/makoto/rentman/internal/repository"
)

// 入力値の制約。
// 名前は文字数（rune数）で数える。パスワードはbcryptの制約がバイト単位のためバイト数で数える。
const (
	maxEmailLength    = 255
	minNameLength     = 2
	maxNameLength     = 255
	minPasswordLength = 8
	maxPasswordLength = 72 // bcryptが処理する上限（バイト）
)

// Service はアカウント登録・ログイン・現在ユーザー取得のビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	hasher   *PasswordHasher
	tokens   *TokenService
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, hasher *PasswordHasher, tokens *TokenService) *Service {
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
	}
}

// Register は新規ユーザーを登録し、アクセストークンを発行する。
// メールアドレスは小文字に正規化して保存する。登録済みの場合はエラーを返す。
func (s *Service) Register(ctx context.Context, email, name, password string) (string, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)

	if err := validateRegistration(email, name, password); err != nil {
		return "", err
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return "", model.NewEmailAlreadyRegisteredError()
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	slog.Info("user registered", slog.String("user_id", user.ID))
	return token, nil
}

// Login はメールアドレスとパスワードを検証し、アクセストークンを発行する。
// 「ユーザー不在」と「パスワード不一致」はどちらも同じ認証エラーとして返し、
// 登録済みメールアドレスの探索に使われないようにする。
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)

	// 形式検証は資格情報の照合より前に行う。入力形式のみに依存するため
	// ユーザーの存在有無は漏れない。
	if err := validatePassword(password); err != nil {
		return "", err
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return "", model.NewInvalidCredentialsError()
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		slog.Info("login failed", slog.String("user_id", user.ID))
		return "", model.NewInvalidCredentialsError()
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))
	return token, nil
}

// GetCurrentUser は認証済みユーザーIDからユーザー情報を取得する。
func (s *Service) GetCurrentUser(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, model.NewUnauthorizedError()
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	return user, nil
}

// GetUserByID は任意ユーザーの公開プロフィールを取得する。
func (s *Service) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	return user, nil
}

// normalizeEmail はメールアドレスを小文字・前後空白なしに正規化する。
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateRegistration は登録入力を検証する。
func validateRegistration(email, name, password string) error {
	if email == "" {
		return model.NewValidationError("メールアドレスは必須です")
	}
	if len(email) > maxEmailLength {
		return model.NewValidationError("メールアドレスが長すぎます")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return model.NewValidationError("メールアドレスの形式が不正です")
	}
	if name == "" {
		return model.NewValidationError("名前は必須です")
	}
	if n := utf8.RuneCountInString(name); n < minNameLength || n > maxNameLength {
		return model.NewValidationError("名前は2文字以上255文字以下である必要があります")
	}
	return validatePassword(password)
}

// validatePassword はパスワードの形式を検証する。登録・ログイン共通。
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return model.NewValidationError("パスワードは8文字以上である必要があります")
	}
	if len(password) > maxPasswordLength {
		return model.NewValidationError("パスワードが長すぎます")
	}
	return nil
}
