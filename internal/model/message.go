// Package model はドメインモデルを定義する。
package model

import "time"

// Message は物件に対する問い合わせメッセージを表す。
// 送信者（UserID）は物件オーナー以外のユーザーに限る（作成時に強制）。
// 閲覧は送信者と物件オーナーのみに許可される。
type Message struct {
	ID        string
	RentalID  string
	UserID    string
	Content   string
	IsRead    bool
	CreatedAt time.Time
	UpdatedAt time.Time

	// 認可判定用にJOINで取得する参加者情報。
	OwnerID     string
	SenderEmail string
	OwnerEmail  string
}
