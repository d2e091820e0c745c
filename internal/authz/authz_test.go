package authz

import (
	"testing"

	"github.com/makoto/rentman/internal/model"
)

func TestRentalMutation(t *testing.T) {
	rental := &model.Rental{ID: "rental-1", OwnerID: "owner-1"}

	tests := []struct {
		name   string
		userID string
		rental *model.Rental
		want   Decision
	}{
		{"owner allowed", "owner-1", rental, Allow},
		{"other user forbidden", "user-2", rental, Forbidden},
		{"anonymous unauthenticated", "", rental, Unauthenticated},
		{"missing rental not found", "owner-1", nil, NotFound},
		{"missing rental wins over anonymous", "", nil, NotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RentalMutation(tt.userID, tt.rental); got != tt.want {
				t.Errorf("RentalMutation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMessageCreation(t *testing.T) {
	rental := &model.Rental{ID: "rental-1", OwnerID: "owner-1"}

	tests := []struct {
		name   string
		userID string
		rental *model.Rental
		want   Decision
	}{
		{"non-owner allowed", "user-2", rental, Allow},
		{"owner self message rejected", "owner-1", rental, SelfMessage},
		{"anonymous unauthenticated", "", rental, Unauthenticated},
		{"missing rental not found", "user-2", nil, NotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MessageCreation(tt.userID, tt.rental); got != tt.want {
				t.Errorf("MessageCreation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMessageView(t *testing.T) {
	msg := &model.Message{ID: "msg-1", UserID: "sender-1", OwnerID: "owner-1"}

	tests := []struct {
		name    string
		userID  string
		message *model.Message
		want    Decision
	}{
		{"sender allowed", "sender-1", msg, Allow},
		{"owner allowed", "owner-1", msg, Allow},
		{"third party forbidden", "user-3", msg, Forbidden},
		{"anonymous unauthenticated", "", msg, Unauthenticated},
		{"missing message not found", "sender-1", nil, NotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MessageView(tt.userID, tt.message); got != tt.want {
				t.Errorf("MessageView() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRentalMessagesView(t *testing.T) {
	rental := &model.Rental{ID: "rental-1", OwnerID: "owner-1"}

	tests := []struct {
		name    string
		userID  string
		rental  *model.Rental
		hasSent bool
		want    Decision
	}{
		{"owner allowed", "owner-1", rental, false, Allow},
		{"participant allowed", "user-2", rental, true, Allow},
		{"non-participant forbidden", "user-3", rental, false, Forbidden},
		{"anonymous unauthenticated", "", rental, false, Unauthenticated},
		{"missing rental not found", "owner-1", nil, false, NotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RentalMessagesView(tt.userID, tt.rental, tt.hasSent); got != tt.want {
				t.Errorf("RentalMessagesView() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecision_String(t *testing.T) {
	tests := []struct {
		d    Decision
		want string
	}{
		{Allow, "allow"},
		{Unauthenticated, "unauthenticated"},
		{Forbidden, "forbidden"},
		{NotFound, "not_found"},
		{SelfMessage, "self_message"},
		{Decision(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.d.String(); got != tt.want {
			t.Errorf("Decision(%d).String() = %q, want %q", tt.d, got, tt.want)
		}
	}
}
