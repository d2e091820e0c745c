// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// Emailは一意で、アイデンティティ層で小文字に正規化される。
// PasswordHashはbcryptハッシュで、APIレスポンスには一切含めない。
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
