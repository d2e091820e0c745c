// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/makoto/rentman/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByEmail は指定メールアドレスのユーザーを取得する。見つからない場合はnilを返す。
	// メールアドレスは呼び出し側で小文字に正規化済みであること。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// ExistsByEmail は指定メールアドレスのユーザーが存在するかを返す。
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error
}

// RentalRepository は物件データの永続化インターフェース。
type RentalRepository interface {
	// FindByID は指定IDの物件をオーナーのメールアドレス付きで取得する。
	// 見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Rental, error)

	// ListAll は全物件を作成日時の降順で返す。
	ListAll(ctx context.Context) ([]*model.Rental, error)

	// ListByOwner は指定オーナーの物件一覧を作成日時の降順で返す。
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Rental, error)

	// Create は物件を作成する。
	Create(ctx context.Context, rental *model.Rental) error

	// Update は物件の可変フィールド（name, surface, price, description, picture,
	// updated_at）を更新する。owner_idは更新対象に含めない。
	Update(ctx context.Context, rental *model.Rental) error
}

// MessageRepository はメッセージデータの永続化インターフェース。
type MessageRepository interface {
	// FindByID は指定IDのメッセージを参加者情報（送信者・オーナーのメール）付きで
	// 取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Message, error)

	// Create はメッセージを作成する。
	Create(ctx context.Context, message *model.Message) error

	// ListInvolving は指定ユーザーが送信者または物件オーナーとして関与する
	// メッセージを重複なく作成日時の降順で返す。
	ListInvolving(ctx context.Context, userID string) ([]*model.Message, error)

	// ListByRental は指定物件のメッセージを作成日時の昇順（会話順）で返す。
	ListByRental(ctx context.Context, rentalID string) ([]*model.Message, error)

	// ExistsByUserAndRental は指定ユーザーが指定物件にメッセージを
	// 送信済みかを返す。
	ExistsByUserAndRental(ctx context.Context, userID, rentalID string) (bool, error)

	// MarkRead はメッセージを既読にする。冪等。
	MarkRead(ctx context.Context, id string) error
}
