package jwt

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ParseToken проверяет подпись и срок действия токена и возвращает его claims.
func (j *ParserImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	if claims.UserUUID == "" {
		return nil, fmt.Errorf("%s: token has no user", op)
	}
	return claims, nil
}
