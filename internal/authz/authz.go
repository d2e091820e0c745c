// Package authz はリソース単位の認可判定を提供する。
// 判定は「リソースの存在確認 → 権限確認」の順で行い、存在しないリソースへの
// アクセスは呼び出し元の権限に関わらずNotFoundを返す。リソースIDは推測困難な
// UUIDであり、存在の開示は許容するトレードオフとしている。
package authz

import "github.com/makoto/rentman/internal/model"

// Decision は認可判定の結果。
type Decision int

const (
	// Allow は操作を許可する。
	Allow Decision = iota
	// Unauthenticated は匿名呼び出しを表す。HTTP 401に対応する。
	Unauthenticated
	// Forbidden は認証済みだが権限がないことを表す。HTTP 403に対応する。
	Forbidden
	// NotFound は対象リソースが存在しないことを表す。HTTP 404に対応する。
	NotFound
	// SelfMessage は自分の物件への問い合わせを表す。HTTP 400に対応する。
	SelfMessage
)

// String はDecisionの文字列表現を返す。ログ用。
func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case SelfMessage:
		return "self_message"
	default:
		return "unknown"
	}
}

// RentalMutation は物件の更新操作を判定する。オーナーのみ許可。
func RentalMutation(userID string, rental *model.Rental) Decision {
	if rental == nil {
		return NotFound
	}
	if userID == "" {
		return Unauthenticated
	}
	if rental.OwnerID != userID {
		return Forbidden
	}
	return Allow
}

// MessageCreation は物件への問い合わせ送信を判定する。
// 物件オーナー本人からの送信はSelfMessageとして拒否する。
func MessageCreation(userID string, rental *model.Rental) Decision {
	if rental == nil {
		return NotFound
	}
	if userID == "" {
		return Unauthenticated
	}
	if rental.OwnerID == userID {
		return SelfMessage
	}
	return Allow
}

// MessageView はメッセージの閲覧・既読化を判定する。
// 送信者と物件オーナーのみ許可。
func MessageView(userID string, message *model.Message) Decision {
	if message == nil {
		return NotFound
	}
	if userID == "" {
		return Unauthenticated
	}
	if message.UserID != userID && message.OwnerID != userID {
		return Forbidden
	}
	return Allow
}

// RentalMessagesView は物件に紐づくメッセージ一覧の閲覧を判定する。
// 物件オーナー、または当該物件へ送信済みのユーザーのみ許可。
func RentalMessagesView(userID string, rental *model.Rental, hasSentMessage bool) Decision {
	if rental == nil {
		return NotFound
	}
	if userID == "" {
		return Unauthenticated
	}
	if rental.OwnerID != userID && !hasSentMessage {
		return Forbidden
	}
	return Allow
}
