package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/makoto/rentman/internal/metrics"
	"github.com/makoto/rentman/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	UserFinder        middleware.UserFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// サービス
	AuthService    AuthServiceInterface
	RentalService  RentalServiceInterface
	MessageService MessageServiceInterface

	// アップロード
	UploadHandler *UploadHandler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Auth → Logging → RateLimit(General)
//
// 認証ゲートは検証失敗でも拒否せず匿名として通過させ、
// 認証必須の判断は各ハンドラーが行う。
// ログイン・登録にはIPキーの専用レート制限を追加で適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier, deps.UserFinder))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	authHandler := NewAuthHandler(deps.AuthService)
	userHandler := NewUserHandler(deps.AuthService)
	rentalHandler := NewRentalHandler(deps.RentalService)
	messageHandler := NewMessageHandler(deps.MessageService)

	// --- 運用エンドポイント（レート制限の対象外） ---

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.DefaultHandler())

	// 画像配信（公開）
	r.Get("/images/{filename}", deps.UploadHandler.ServeImage)

	// --- APIルート ---
	// ミドルウェアスタック: RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 認証（ログイン・登録には専用レート制限を追加）
		r.Route("/api/auth", func(r chi.Router) {
			r.With(deps.RateLimiter.CredentialMiddleware()).Post("/register", authHandler.Register)
			r.With(deps.RateLimiter.CredentialMiddleware()).Post("/login", authHandler.Login)
			r.Get("/me", authHandler.Me)
		})

		// ユーザープロフィール
		r.Get("/api/user/{id}", userHandler.GetUser)

		// 物件管理
		r.Route("/api/rentals", func(r chi.Router) {
			r.Get("/", rentalHandler.ListRentals)
			r.Post("/", rentalHandler.CreateRental)

			// /api/rentals/user は /{id} より先に登録する
			r.Get("/user", rentalHandler.ListOwnRentals)
			r.Get("/user/stats", rentalHandler.OwnerStatistics)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", rentalHandler.GetRental)
				r.Put("/", rentalHandler.UpdateRental)
				r.Get("/messages", messageHandler.ListRentalMessages)
			})
		})

		// メッセージ管理
		r.Route("/api/messages", func(r chi.Router) {
			r.Post("/", messageHandler.SendMessage)
			r.Get("/", messageHandler.ListMyMessages)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", messageHandler.GetMessage)
				r.Put("/read", messageHandler.MarkAsRead)
			})
		})

		// 画像アップロード
		r.Post("/api/upload/image", deps.UploadHandler.UploadImage)
	})

	return r
}
