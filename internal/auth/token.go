package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// トークン検証の失敗理由。呼び出し側はerrors.Isで分岐できる。
var (
	// ErrTokenExpired は有効期限切れトークン。
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed は構文的に壊れたトークン。
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenUnsupportedAlg は想定外の署名アルゴリズム。
	ErrTokenUnsupportedAlg = errors.New("unsupported signing algorithm")
	// ErrTokenInvalidSignature は署名不一致。
	ErrTokenInvalidSignature = errors.New("invalid token signature")
	// ErrTokenInvalid はその他の検証失敗。
	ErrTokenInvalid = errors.New("invalid token")
)

// TokenService はHMAC-SHA256署名のJWTの発行と検証を提供する。
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService はTokenServiceを生成する。秘密鍵が空の場合はエラーを返す。
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue は指定ユーザーのアクセストークンを発行する。
// subjectクレームにユーザーID、iat/expに発行時刻と有効期限を格納する。
func (s *TokenService) Issue(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user ID is required")
	}

	issuedAt := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify はトークンを検証し、subjectクレームのユーザーIDを返す。
// 失敗時はErrToken*のいずれかをラップしたエラーを返す。
func (s *TokenService) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %v", ErrTokenUnsupportedAlg, t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", fmt.Errorf("%w: %v", ErrTokenExpired, err)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", fmt.Errorf("%w: %v", ErrTokenInvalidSignature, err)
		case errors.Is(err, ErrTokenUnsupportedAlg):
			return "", err
		default:
			return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
		}
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject claim", ErrTokenInvalid)
	}

	return claims.Subject, nil
}
