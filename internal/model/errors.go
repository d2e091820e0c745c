// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// Codeはクライアントが分岐に使う安定識別子、Categoryはログ集計用の分類。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, rental, message, system
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeEmailAlreadyRegistered = "EMAIL_ALREADY_REGISTERED"
	ErrCodeInvalidCredentials     = "INVALID_CREDENTIALS"
	ErrCodeUnauthorized           = "UNAUTHORIZED"
	ErrCodeForbidden              = "FORBIDDEN"
	ErrCodeUserNotFound           = "USER_NOT_FOUND"
	ErrCodeRentalNotFound         = "RENTAL_NOT_FOUND"
	ErrCodeMessageNotFound        = "MESSAGE_NOT_FOUND"
	ErrCodeSelfMessage            = "SELF_MESSAGE"
	ErrCodeValidationFailed       = "VALIDATION_FAILED"
	ErrCodeInvalidRequest         = "INVALID_REQUEST"
	ErrCodeInvalidImageType       = "INVALID_IMAGE_TYPE"
	ErrCodeImageNotFound          = "IMAGE_NOT_FOUND"
	ErrCodeInternal               = "INTERNAL_ERROR"
)

// NewEmailAlreadyRegisteredError は登録済みメールアドレスの再登録エラーを生成する。
// ユーザー列挙を避けるため、メッセージにメールアドレス自体は含めない。
func NewEmailAlreadyRegisteredError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailAlreadyRegistered,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// 「メールアドレス不明」と「パスワード不一致」は意図的に区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
	}
}

// NewUnauthorizedError は認証が必要な操作への匿名アクセスエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
	}
}

// NewForbiddenError は認証済みだが権限のない操作へのアクセスエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を実行する権限がありません。",
		Category: "auth",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
	}
}

// NewRentalNotFoundError は物件が見つからない場合のエラーを生成する。
func NewRentalNotFoundError(rentalID string) *APIError {
	return &APIError{
		Code:     ErrCodeRentalNotFound,
		Message:  fmt.Sprintf("指定された物件が見つかりません: %s", rentalID),
		Category: "rental",
	}
}

// NewMessageNotFoundError はメッセージが見つからない場合のエラーを生成する。
func NewMessageNotFoundError(messageID string) *APIError {
	return &APIError{
		Code:     ErrCodeMessageNotFound,
		Message:  fmt.Sprintf("指定されたメッセージが見つかりません: %s", messageID),
		Category: "message",
	}
}

// NewSelfMessageError は自分の物件への問い合わせ送信エラーを生成する。
func NewSelfMessageError() *APIError {
	return &APIError{
		Code:     ErrCodeSelfMessage,
		Message:  "自分の物件に問い合わせを送ることはできません。",
		Category: "message",
	}
}

// NewValidationError は入力値バリデーションエラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("入力値が不正です: %s", reason),
		Category: "validation",
	}
}

// NewInvalidImageTypeError は許可外の画像形式エラーを生成する。
func NewInvalidImageTypeError(contentType string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidImageType,
		Message:  fmt.Sprintf("許可されていない画像形式です: %s", contentType),
		Category: "validation",
	}
}

// NewImageNotFoundError は画像が見つからない場合のエラーを生成する。
func NewImageNotFoundError(filename string) *APIError {
	return &APIError{
		Code:     ErrCodeImageNotFound,
		Message:  fmt.Sprintf("指定された画像が見つかりません: %s", filename),
		Category: "rental",
	}
}
