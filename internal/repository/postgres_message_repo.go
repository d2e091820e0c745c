package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/makoto/rentman/internal/model"
)

// PostgresMessageRepo はPostgreSQLを使用したメッセージリポジトリ。
type PostgresMessageRepo struct {
	db *sql.DB
}

// NewPostgresMessageRepo はPostgresMessageRepoを生成する。
func NewPostgresMessageRepo(db *sql.DB) *PostgresMessageRepo {
	return &PostgresMessageRepo{db: db}
}

const messageSelectColumns = `
	m.id, m.rental_id, m.user_id, m.content, m.is_read,
	m.created_at, m.updated_at, rt.owner_id, sender.email, owner.email`

// scanMessage は1行分のメッセージレコードをスキャンする。
func scanMessage(row interface {
	Scan(dest ...any) error
}) (*model.Message, error) {
	msg := &model.Message{}
	err := row.Scan(
		&msg.ID, &msg.RentalID, &msg.UserID, &msg.Content, &msg.IsRead,
		&msg.CreatedAt, &msg.UpdatedAt, &msg.OwnerID, &msg.SenderEmail, &msg.OwnerEmail,
	)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// FindByID は指定IDのメッセージを参加者情報付きで取得する。
// 見つからない場合はnilを返す。
func (r *PostgresMessageRepo) FindByID(ctx context.Context, id string) (*model.Message, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+messageSelectColumns+`
		 FROM messages m
		 JOIN rentals rt ON rt.id = m.rental_id
		 JOIN users sender ON sender.id = m.user_id
		 JOIN users owner ON owner.id = rt.owner_id
		 WHERE m.id = $1`,
		id,
	)

	msg, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find message by ID: %w", err)
	}

	return msg, nil
}

// Create はメッセージを作成する。
func (r *PostgresMessageRepo) Create(ctx context.Context, message *model.Message) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (id, rental_id, user_id, content, is_read, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		message.ID, message.RentalID, message.UserID, message.Content,
		message.IsRead, message.CreatedAt, message.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	return nil
}

// ListInvolving は指定ユーザーが送信者または物件オーナーとして関与する
// メッセージを重複なく作成日時の降順で返す。
// OR条件の単一クエリのため、送信者とオーナーが重なる行も1件として返る。
func (r *PostgresMessageRepo) ListInvolving(ctx context.Context, userID string) ([]*model.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+messageSelectColumns+`
		 FROM messages m
		 JOIN rentals rt ON rt.id = m.rental_id
		 JOIN users sender ON sender.id = m.user_id
		 JOIN users owner ON owner.id = rt.owner_id
		 WHERE m.user_id = $1 OR rt.owner_id = $1
		 ORDER BY m.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages involving user: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

// ListByRental は指定物件のメッセージを作成日時の昇順（会話順）で返す。
func (r *PostgresMessageRepo) ListByRental(ctx context.Context, rentalID string) ([]*model.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+messageSelectColumns+`
		 FROM messages m
		 JOIN rentals rt ON rt.id = m.rental_id
		 JOIN users sender ON sender.id = m.user_id
		 JOIN users owner ON owner.id = rt.owner_id
		 WHERE m.rental_id = $1
		 ORDER BY m.created_at ASC`,
		rentalID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages by rental: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

// collectMessages は結果セットからメッセージスライスを構築する。
func collectMessages(rows *sql.Rows) ([]*model.Message, error) {
	var messages []*model.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}

// ExistsByUserAndRental は指定ユーザーが指定物件にメッセージを送信済みかを返す。
func (r *PostgresMessageRepo) ExistsByUserAndRental(ctx context.Context, userID, rentalID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM messages WHERE user_id = $1 AND rental_id = $2)`,
		userID, rentalID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check message existence: %w", err)
	}

	return exists, nil
}

// MarkRead はメッセージを既読にする。既読済みの場合も成功を返す（冪等）。
func (r *PostgresMessageRepo) MarkRead(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE messages SET is_read = TRUE, updated_at = now() WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark message as read: %w", err)
	}

	return nil
}

// compile-time interface check
var _ MessageRepository = (*PostgresMessageRepo)(nil)
