// Package jwt проверяет JWT токены, выпущенные сервисом аутентификации,
// и достаёт из них пользовательские claim поля.
package jwt

import "github.com/golang-jwt/jwt/v5"

// CustomClaims описывает пользовательские данные, хранящиеся в JWT.
type CustomClaims struct {
	UserUUID             string `json:"uuid"`
	Username             string `json:"username"`
	Role                 string `json:"role"`
	jwt.RegisteredClaims        // ExpiresAt, IssuedAt и пр.
}

// Parser описывает проверку токена.
type Parser interface {
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// ParserImpl реализует Parser с использованием общего секретного ключа.
type ParserImpl struct {
	secretKey string
}

// NewJWTParser создаёт ParserImpl на основе секретного ключа.
func NewJWTParser(secretKey string) *ParserImpl {
	return &ParserImpl{secretKey: secretKey}
}
