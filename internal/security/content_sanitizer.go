// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService はユーザー入力のテキスト（物件説明文、問い合わせ本文）を
// サニタイズし、格納型XSSからフロントエンドを保護する。
// bluemondayライブラリの厳格ポリシーで全てのHTMLタグを除去する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はユーザー入力テキストのサニタイズ機能の
// インターフェースを定義する。物件・メッセージの保存前に使用される。
type ContentSanitizerService interface {
	// Sanitize は入力テキストから全てのHTMLタグを除去し、
	// 前後の空白を取り除いたプレーンテキストを返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// 物件説明文や問い合わせ本文はリッチテキストを想定しないため、
// StrictPolicy（全タグ除去）を使用する。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力テキストから全てのHTMLタグを除去して返す。
func (s *contentSanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}
