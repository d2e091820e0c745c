package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/makoto/rentman/internal/model"
)

// PostgresRentalRepo はPostgreSQLを使用した物件リポジトリ。
type PostgresRentalRepo struct {
	db *sql.DB
}

// NewPostgresRentalRepo はPostgresRentalRepoを生成する。
func NewPostgresRentalRepo(db *sql.DB) *PostgresRentalRepo {
	return &PostgresRentalRepo{db: db}
}

const rentalSelectColumns = `
	r.id, r.name, r.surface, r.price, r.description, r.picture,
	r.owner_id, u.email, r.created_at, r.updated_at`

// scanRental は1行分の物件レコードをスキャンする。
func scanRental(row interface {
	Scan(dest ...any) error
}) (*model.Rental, error) {
	rental := &model.Rental{}
	err := row.Scan(
		&rental.ID, &rental.Name, &rental.Surface, &rental.Price,
		&rental.Description, &rental.Picture,
		&rental.OwnerID, &rental.OwnerEmail, &rental.CreatedAt, &rental.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rental, nil
}

// FindByID は指定IDの物件をオーナーのメールアドレス付きで取得する。
// 見つからない場合はnilを返す。
func (r *PostgresRentalRepo) FindByID(ctx context.Context, id string) (*model.Rental, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+rentalSelectColumns+`
		 FROM rentals r
		 JOIN users u ON u.id = r.owner_id
		 WHERE r.id = $1`,
		id,
	)

	rental, err := scanRental(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find rental by ID: %w", err)
	}

	return rental, nil
}

// ListAll は全物件を作成日時の降順で返す。
func (r *PostgresRentalRepo) ListAll(ctx context.Context) ([]*model.Rental, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+rentalSelectColumns+`
		 FROM rentals r
		 JOIN users u ON u.id = r.owner_id
		 ORDER BY r.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list rentals: %w", err)
	}
	defer rows.Close()

	return collectRentals(rows)
}

// ListByOwner は指定オーナーの物件一覧を作成日時の降順で返す。
func (r *PostgresRentalRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Rental, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+rentalSelectColumns+`
		 FROM rentals r
		 JOIN users u ON u.id = r.owner_id
		 WHERE r.owner_id = $1
		 ORDER BY r.created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list rentals by owner: %w", err)
	}
	defer rows.Close()

	return collectRentals(rows)
}

// collectRentals は結果セットから物件スライスを構築する。
func collectRentals(rows *sql.Rows) ([]*model.Rental, error) {
	var rentals []*model.Rental
	for rows.Next() {
		rental, err := scanRental(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rental: %w", err)
		}
		rentals = append(rentals, rental)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rentals: %w", err)
	}
	return rentals, nil
}

// Create は物件を作成する。
func (r *PostgresRentalRepo) Create(ctx context.Context, rental *model.Rental) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO rentals (id, name, surface, price, description, picture, owner_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rental.ID, rental.Name, rental.Surface, rental.Price,
		rental.Description, rental.Picture, rental.OwnerID,
		rental.CreatedAt, rental.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert rental: %w", err)
	}

	return nil
}

// Update は物件の可変フィールドを更新する。owner_idは変更しない。
func (r *PostgresRentalRepo) Update(ctx context.Context, rental *model.Rental) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE rentals
		 SET name = $2, surface = $3, price = $4, description = $5, picture = $6, updated_at = $7
		 WHERE id = $1`,
		rental.ID, rental.Name, rental.Surface, rental.Price,
		rental.Description, rental.Picture, rental.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update rental: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("rental not found: %s", rental.ID)
	}

	return nil
}

// compile-time interface check
var _ RentalRepository = (*PostgresRentalRepo)(nil)
