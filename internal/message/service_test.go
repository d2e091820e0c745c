package message

import (
	"context"
	"errors"
	"testing"

	"github.com/makoto/rentman/internal/model"
	"github.com/makoto/rentman/internal/security"
)

// mockMessageRepo はMessageRepositoryのモック。
type mockMessageRepo struct {
	findByIDFunc              func(ctx context.Context, id string) (*model.Message, error)
	createFunc                func(ctx context.Context, message *model.Message) error
	listInvolvingFunc         func(ctx context.Context, userID string) ([]*model.Message, error)
	listByRentalFunc          func(ctx context.Context, rentalID string) ([]*model.Message, error)
	existsByUserAndRentalFunc func(ctx context.Context, userID, rentalID string) (bool, error)
	markReadFunc              func(ctx context.Context, id string) error
}

func (m *mockMessageRepo) FindByID(ctx context.Context, id string) (*model.Message, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockMessageRepo) Create(ctx context.Context, message *model.Message) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, message)
	}
	return nil
}

func (m *mockMessageRepo) ListInvolving(ctx context.Context, userID string) ([]*model.Message, error) {
	if m.listInvolvingFunc != nil {
		return m.listInvolvingFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockMessageRepo) ListByRental(ctx context.Context, rentalID string) ([]*model.Message, error) {
	if m.listByRentalFunc != nil {
		return m.listByRentalFunc(ctx, rentalID)
	}
	return nil, nil
}

func (m *mockMessageRepo) ExistsByUserAndRental(ctx context.Context, userID, rentalID string) (bool, error) {
	if m.existsByUserAndRentalFunc != nil {
		return m.existsByUserAndRentalFunc(ctx, userID, rentalID)
	}
	return false, nil
}

func (m *mockMessageRepo) MarkRead(ctx context.Context, id string) error {
	if m.markReadFunc != nil {
		return m.markReadFunc(ctx, id)
	}
	return nil
}

// mockRentalRepo はRentalRepositoryのモック。メッセージ系テストでは参照のみ。
type mockRentalRepo struct {
	findByIDFunc func(ctx context.Context, id string) (*model.Rental, error)
}

func (m *mockRentalRepo) FindByID(ctx context.Context, id string) (*model.Rental, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockRentalRepo) ListAll(ctx context.Context) ([]*model.Rental, error) { return nil, nil }
func (m *mockRentalRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Rental, error) {
	return nil, nil
}
func (m *mockRentalRepo) Create(ctx context.Context, rental *model.Rental) error { return nil }
func (m *mockRentalRepo) Update(ctx context.Context, rental *model.Rental) error { return nil }

func rentalRepoWith(rental *model.Rental) *mockRentalRepo {
	return &mockRentalRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Rental, error) {
			if rental != nil && rental.ID == id {
				return rental, nil
			}
			return nil, nil
		},
	}
}

func newTestService(msgRepo *mockMessageRepo, rentalRepo *mockRentalRepo) *Service {
	return NewService(msgRepo, rentalRepo, security.NewContentSanitizer())
}

func apiCode(t *testing.T, err error) string {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	return apiErr.Code
}

func TestService_SendMessage_Succeeds(t *testing.T) {
	rental := &model.Rental{ID: "rental-1", OwnerID: "owner-1"}
	var created *model.Message
	msgRepo := &mockMessageRepo{
		createFunc: func(ctx context.Context, message *model.Message) error {
			created = message
			return nil
		},
	}
	svc := newTestService(msgRepo, rentalRepoWith(rental))

	msg, err := svc.SendMessage(context.Background(), "tenant-1", "rental-1", "内見できますか？")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if created == nil {
		t.Fatal("expected message to be persisted")
	}
	if msg.UserID != "tenant-1" || msg.RentalID != "rental-1" {
		t.Errorf("unexpected message: %+v", msg)
	}
	if msg.IsRead {
		t.Error("new message must be unread")
	}
}

func TestService_SendMessage_AuthzOrdering(t *testing.T) {
	rental := &model.Rental{ID: "rental-1", OwnerID: "owner-1"}

	tests := []struct {
		name      string
		requester string
		rentalID  string
		wantCode  string
	}{
		// 存在確認が権限確認より先
		{"missing rental beats anonymous", "", "ghost", model.ErrCodeRentalNotFound},
		{"missing rental beats self check", "owner-1", "ghost", model.ErrCodeRentalNotFound},
		{"anonymous rejected", "", "rental-1", model.ErrCodeUnauthorized},
		{"owner self message rejected", "owner-1", "rental-1", model.ErrCodeSelfMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&mockMessageRepo{}, rentalRepoWith(rental))

			_, err := svc.SendMessage(context.Background(), tt.requester, tt.rentalID, "こんにちは")
			if got := apiCode(t, err); got != tt.wantCode {
				t.Errorf("expected %s, got %s", tt.wantCode, got)
			}
		})
	}
}

func TestService_SendMessage_ContentValidation(t *testing.T) {
	rental := &model.Rental{ID: "rental-1", OwnerID: "owner-1"}
	svc := newTestService(&mockMessageRepo{}, rentalRepoWith(rental))

	// 空本文
	_, err := svc.SendMessage(context.Background(), "tenant-1", "rental-1", "")
	if got := apiCode(t, err); got != model.ErrCodeValidationFailed {
		t.Errorf("expected VALIDATION_FAILED for empty content, got %s", got)
	}

	// サニタイズ後に空になる本文
	_, err = svc.SendMessage(context.Background(), "tenant-1", "rental-1", "<script>alert(1)</script>")
	if got := apiCode(t, err); got != model.ErrCodeValidationFailed {
		t.Errorf("expected VALIDATION_FAILED for markup-only content, got %s", got)
	}
}

func TestService_GetMessage_ParticipantsOnly(t *testing.T) {
	msg := &model.Message{ID: "msg-1", UserID: "sender-1", OwnerID: "owner-1"}
	msgRepo := &mockMessageRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Message, error) {
			if id == "msg-1" {
				return msg, nil
			}
			return nil, nil
		},
	}
	svc := newTestService(msgRepo, &mockRentalRepo{})

	// 送信者とオーナーは閲覧可
	for _, requester := range []string{"sender-1", "owner-1"} {
		got, err := svc.GetMessage(context.Background(), requester, "msg-1")
		if err != nil {
			t.Errorf("GetMessage(%s) failed: %v", requester, err)
		}
		if got != nil && got.ID != "msg-1" {
			t.Errorf("unexpected message for %s: %+v", requester, got)
		}
	}

	// 第三者は403
	_, err := svc.GetMessage(context.Background(), "stranger", "msg-1")
	if got := apiCode(t, err); got != model.ErrCodeForbidden {
		t.Errorf("expected FORBIDDEN, got %s", got)
	}

	// 存在しないメッセージは404
	_, err = svc.GetMessage(context.Background(), "sender-1", "ghost")
	if got := apiCode(t, err); got != model.ErrCodeMessageNotFound {
		t.Errorf("expected MESSAGE_NOT_FOUND, got %s", got)
	}
}

func TestService_ListRentalMessages_Visibility(t *testing.T) {
	rental := &model.Rental{ID: "rental-1", OwnerID: "owner-1"}
	msgRepo := &mockMessageRepo{
		existsByUserAndRentalFunc: func(ctx context.Context, userID, rentalID string) (bool, error) {
			return userID == "tenant-1", nil
		},
		listByRentalFunc: func(ctx context.Context, rentalID string) ([]*model.Message, error) {
			return []*model.Message{{ID: "msg-1", RentalID: rentalID}}, nil
		},
	}
	svc := newTestService(msgRepo, rentalRepoWith(rental))

	// オーナーと送信済みユーザーは閲覧可
	for _, requester := range []string{"owner-1", "tenant-1"} {
		msgs, err := svc.ListRentalMessages(context.Background(), requester, "rental-1")
		if err != nil {
			t.Errorf("ListRentalMessages(%s) failed: %v", requester, err)
		}
		if len(msgs) != 1 {
			t.Errorf("expected 1 message for %s, got %d", requester, len(msgs))
		}
	}

	// 未参加ユーザーは403
	_, err := svc.ListRentalMessages(context.Background(), "stranger", "rental-1")
	if got := apiCode(t, err); got != model.ErrCodeForbidden {
		t.Errorf("expected FORBIDDEN, got %s", got)
	}

	// 存在しない物件は404
	_, err = svc.ListRentalMessages(context.Background(), "owner-1", "ghost")
	if got := apiCode(t, err); got != model.ErrCodeRentalNotFound {
		t.Errorf("expected RENTAL_NOT_FOUND, got %s", got)
	}
}

func TestService_MarkAsRead_OwnerOnly(t *testing.T) {
	msg := &model.Message{ID: "msg-1", UserID: "sender-1", OwnerID: "owner-1"}
	marked := false
	msgRepo := &mockMessageRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Message, error) {
			if id == "msg-1" {
				return msg, nil
			}
			return nil, nil
		},
		markReadFunc: func(ctx context.Context, id string) error {
			marked = true
			return nil
		},
	}
	svc := newTestService(msgRepo, &mockRentalRepo{})

	// 送信者は閲覧できても既読化はできない
	err := svc.MarkAsRead(context.Background(), "sender-1", "msg-1")
	if got := apiCode(t, err); got != model.ErrCodeForbidden {
		t.Errorf("expected FORBIDDEN for sender, got %s", got)
	}
	if marked {
		t.Error("message must not be marked by sender")
	}

	// オーナーは既読化できる
	if err := svc.MarkAsRead(context.Background(), "owner-1", "msg-1"); err != nil {
		t.Fatalf("MarkAsRead failed: %v", err)
	}
	if !marked {
		t.Error("expected message to be marked as read")
	}

	// 存在しないメッセージは404
	err = svc.MarkAsRead(context.Background(), "owner-1", "ghost")
	if got := apiCode(t, err); got != model.ErrCodeMessageNotFound {
		t.Errorf("expected MESSAGE_NOT_FOUND, got %s", got)
	}
}

func TestService_ListUserMessages_RequiresAuth(t *testing.T) {
	svc := newTestService(&mockMessageRepo{}, &mockRentalRepo{})

	_, err := svc.ListUserMessages(context.Background(), "")
	if got := apiCode(t, err); got != model.ErrCodeUnauthorized {
		t.Errorf("expected UNAUTHORIZED, got %s", got)
	}
}
