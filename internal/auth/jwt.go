package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// Issuer издатель операторских токенов
	Issuer = "brawl-replay"
	// DefaultTokenTTL время жизни токена по умолчанию
	DefaultTokenTTL = 12 * time.Hour
	// MinSecretLength минимальная длина секрета
	MinSecretLength = 16
)

var (
	// ErrWeakSecret секрет короче MinSecretLength
	ErrWeakSecret = errors.New("секрет должен быть не короче 16 байт")

	secretMu  sync.RWMutex
	jwtSecret []byte
)

func init() {
	// Generate a secure random secret key
	jwtSecret = make([]byte, 32)
	if _, err := rand.Read(jwtSecret); err != nil {
		// Fallback to a hardcoded key only for development
		jwtSecret = []byte("development-secret-key-change-in-production")
	}
}

// Claims represents JWT claims of a session operator
type Claims struct {
	Operator string `json:"operator"`
	CanWrite bool   `json:"can_write"`
	jwt.RegisteredClaims
}

func secret() []byte {
	secretMu.RLock()
	defer secretMu.RUnlock()
	return jwtSecret
}

// GenerateOperatorToken выпускает токен оператора.
// canWrite разрешает управляющие запросы (replay, архивы).
func GenerateOperatorToken(operator string, canWrite bool, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := time.Now()
	claims := &Claims{
		Operator: operator,
		CanWrite: canWrite,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
			Subject:   operator,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret())
}

// ValidateJWT checks token validity and returns the operator claims
func ValidateJWT(tokenString string) (*Claims, bool) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret(), nil
	}, jwt.WithIssuer(Issuer))

	if err != nil || !token.Valid {
		return nil, false
	}

	return claims, true
}

// GenerateSecureSecret generates a new secure secret key
func GenerateSecureSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(b)
}

// SetJWTSecret задаёт секрет из конфигурации. Строка в base64 декодируется,
// иначе используется как есть.
func SetJWTSecret(value string) error {
	key := []byte(value)
	if decoded, err := base64.StdEncoding.DecodeString(value); err == nil && len(decoded) >= MinSecretLength {
		key = decoded
	}
	if len(key) < MinSecretLength {
		return ErrWeakSecret
	}
	secretMu.Lock()
	jwtSecret = key
	secretMu.Unlock()
	return nil
}
