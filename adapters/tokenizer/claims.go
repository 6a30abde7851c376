package tokenizer

import "github.com/golang-jwt/jwt/v5"

// AdminClaims are the standard claims plus the role granted
type AdminClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}
