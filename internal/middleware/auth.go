// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/makoto/rentman/internal/auth"
	"github.com/makoto/rentman/internal/metrics"
	"github.com/makoto/rentman/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var userContextKey = contextKey("user")

// bearerPrefix はAuthorizationヘッダーの期待プレフィックス。
// 大文字小文字を区別し、スペースは1個のみ許容する。
const bearerPrefix = "Bearer "

// authBypassPrefixes はトークン検証自体をスキップするパスのプレフィックス。
// 公開エンドポイントと認証前エンドポイントが対象。
var authBypassPrefixes = []string{
	"/api/auth/login",
	"/api/auth/register",
	"/images/",
	"/health",
	"/metrics",
}

// TokenVerifier はアクセストークンの検証に必要なインターフェース。
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// UserFinder は認証済みユーザーの解決に必要なインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// NewAuthMiddleware はBearerトークンを検証し、認証済みユーザーを
// リクエストコンテキストに注入するミドルウェアを返す。
//
// 検証失敗や未提示の場合もリクエストは拒否せず匿名として通過させる。
// 認証必須の判断は各ハンドラー側で行う（認可の二段構え）。
func NewAuthMiddleware(verifier TokenVerifier, userFinder UserFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isBypassPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := extractBearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				kind := failureKind(err)
				metrics.RecordAuthFailure(kind)
				slog.Warn("token verification failed",
					slog.String("reason", kind),
					slog.String("path", r.URL.Path),
				)
				next.ServeHTTP(w, r)
				return
			}

			user, err := userFinder.FindByID(r.Context(), userID)
			if err != nil {
				slog.Error("failed to resolve authenticated user",
					slog.String("user_id", userID),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}
			if user == nil {
				// トークンは正当だがユーザーが消えている（検証後の削除等）
				metrics.RecordAuthFailure("unknown_subject")
				next.ServeHTTP(w, r)
				return
			}

			metrics.RecordAuthSuccess()
			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// isBypassPath はトークン検証をスキップするパスかを返す。
func isBypassPath(path string) bool {
	for _, prefix := range authBypassPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// extractBearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
// "Bearer "（大文字小文字区別、スペース1個）以外の形式は不提示として扱う。
func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := header[len(bearerPrefix):]
	if token == "" {
		return "", false
	}
	return token, true
}

// failureKind はトークン検証エラーをメトリクス用の分類に変換する。
func failureKind(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "expired"
	case errors.Is(err, auth.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, auth.ErrTokenUnsupportedAlg):
		return "unsupported_alg"
	case errors.Is(err, auth.ErrTokenInvalidSignature):
		return "invalid_signature"
	default:
		return "invalid"
	}
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// 匿名リクエストの場合はnilを返す。
func UserFromContext(ctx context.Context) *model.User {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok {
		return nil
	}
	return user
}

// UserIDFromContext はリクエストコンテキストから認証済みユーザーIDを取得する。
// 匿名リクエストの場合は空文字列を返す。
func UserIDFromContext(ctx context.Context) string {
	if user := UserFromContext(ctx); user != nil {
		return user.ID
	}
	return ""
}

// ContextWithUser はコンテキストにユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
