package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/smritilabs/chatbot-backend/internal/config"
)

// TokenClaims is the decoded identity carried by a login or embed token.
type TokenClaims struct {
	UserID   int64
	GoogleID string
	APIKey   string
}

const (
	loginTokenTTL = 7 * 24 * time.Hour
	embedTokenTTL = 30 * 24 * time.Hour // widget tokens live longer, scoped by api key
)

func GenerateJWT(userID int64, googleID, apiKey string) (string, error) {
	return signToken(userID, googleID, apiKey, loginTokenTTL)
}

// GenerateEmbedToken issues the long-lived token baked into the iframe embed code.
func GenerateEmbedToken(userID int64, googleID, apiKey string) (string, error) {
	return signToken(userID, googleID, apiKey, embedTokenTTL)
}

func signToken(userID int64, googleID, apiKey string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":     userID,
		"api_key": apiKey,
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(ttl).Unix(),
	}
	if googleID != "" {
		claims["google_id"] = googleID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

func ValidateJWT(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	out := &TokenClaims{}
	if sub, ok := claims["sub"].(float64); ok {
		out.UserID = int64(sub)
	}
	if gid, ok := claims["google_id"].(string); ok {
		out.GoogleID = gid
	}
	if key, ok := claims["api_key"].(string); ok {
		out.APIKey = key
	}
	if out.UserID == 0 && out.GoogleID == "" {
		return nil, fmt.Errorf("token carries no user identity")
	}
	return out, nil
}
