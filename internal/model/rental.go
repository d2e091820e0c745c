// Package model はドメインモデルを定義する。
package model

import "time"

// Rental は賃貸物件を表す。
// OwnerIDは作成時に確定し、以後変更されない。物件の更新はオーナーのみ可能。
type Rental struct {
	ID          string
	Name        string
	Surface     float64
	Price       float64
	Description string
	Picture     string
	OwnerID     string
	OwnerEmail  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
