package api

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/smritilabs/chatbot-backend/internal/auth"
	"github.com/smritilabs/chatbot-backend/internal/core"
	"github.com/smritilabs/chatbot-backend/internal/session"
	"github.com/smritilabs/chatbot-backend/internal/store"
)

type APIHandler struct {
	store       *store.SQLiteStore
	chatService *core.ChatService
	sessions    session.Store
}

func NewAPIHandler(db *store.SQLiteStore, cs *core.ChatService, sessions session.Store) *APIHandler {
	return &APIHandler{
		store:       db,
		chatService: cs,
		sessions:    sessions,
	}
}

// JWTAuthMiddleware authenticates a request from either the Authorization
// header or a token query parameter (the widget iframe has no way to set
// headers on navigation). When an apiKey query parameter is present it must
// match the token owner's key.
func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var tokenString string
		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		} else if qt := r.URL.Query().Get("token"); qt != "" {
			tokenString = strings.TrimSpace(qt)
		}

		if tokenString == "" {
			http.Error(w, "Authorization token missing", http.StatusUnauthorized)
			return
		}

		claims, err := auth.ValidateJWT(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		user, err := h.lookupClaimedUser(claims)
		if err != nil {
			log.Printf("Error resolving user for token (sub=%d): %v", claims.UserID, err)
			http.Error(w, "Failed to process user identity", http.StatusInternalServerError)
			return
		}
		if user == nil {
			http.Error(w, "User not found", http.StatusUnauthorized)
			return
		}

		if apiKey := r.URL.Query().Get("apiKey"); apiKey != "" && apiKey != user.APIKey {
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), "user", user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *APIHandler) lookupClaimedUser(claims *auth.TokenClaims) (*store.User, error) {
	if claims.GoogleID != "" {
		user, err := h.store.GetUserByGoogleID(claims.GoogleID)
		if err != nil || user != nil {
			return user, err
		}
	}
	if claims.UserID != 0 {
		return h.store.GetUserByID(claims.UserID)
	}
	return nil, nil
}

func requestUser(r *http.Request) *store.User {
	return r.Context().Value("user").(*store.User)
}
