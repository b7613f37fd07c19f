package model

import "github.com/golang-jwt/jwt/v5"

type AppClaims struct {
	UserID int    `json:"userId"`
	Kind   string `json:"kind"`
	Role   string `json:"role,omitempty"`
	Nonce  string `json:"nonce,omitempty"`
	jwt.RegisteredClaims
}
