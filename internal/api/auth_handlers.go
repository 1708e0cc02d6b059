package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/smritilabs/chatbot-backend/internal/auth"
	"github.com/smritilabs/chatbot-backend/internal/config"
	"github.com/smritilabs/chatbot-backend/internal/store"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	APIKey  string      `json:"apiKey"`
	User    *store.User `json:"user"`
}

func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	existing, err := h.store.GetUserByEmail(req.Email)
	if err != nil {
		log.Printf("Error checking existing user %s: %v", req.Email, err)
		http.Error(w, "Registration failed", http.StatusInternalServerError)
		return
	}
	if existing != nil {
		http.Error(w, "User already exists", http.StatusBadRequest)
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password for user %s: %v", req.Email, err)
		http.Error(w, "Failed to process password", http.StatusInternalServerError)
		return
	}

	// The api key is the capability token baked into widget embeds.
	user, err := h.store.CreateUser(req.Email, hashedPassword, uuid.NewString())
	if err != nil {
		log.Printf("Error creating user %s: %v", req.Email, err)
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	token, err := auth.GenerateJWT(user.ID, user.GoogleID, user.APIKey)
	if err != nil {
		log.Printf("Error generating JWT for user %s: %v", req.Email, err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(authResponse{
		Message: "User created successfully",
		Token:   token,
		APIKey:  user.APIKey,
		User:    user,
	})
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.store.GetUserByEmail(req.Email)
	if err != nil {
		log.Printf("Error getting user %s: %v", req.Email, err)
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateJWT(user.ID, user.GoogleID, user.APIKey)
	if err != nil {
		log.Printf("Error generating JWT for user %s: %v", req.Email, err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(authResponse{
		Message: "Login successful",
		Token:   token,
		APIKey:  user.APIKey,
		User:    user,
	})
}

const oauthStateCookie = "oauth_state"

func (h *APIHandler) GoogleLoginHandler(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
	})
	http.Redirect(w, r, auth.GoogleOAuthConfig().AuthCodeURL(state), http.StatusTemporaryRedirect)
}

func (h *APIHandler) GoogleCallbackHandler(w http.ResponseWriter, r *http.Request) {
	loginURL := config.AppConfig.FrontendURL + "/login"

	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		http.Redirect(w, r, loginURL+"?error=state_mismatch", http.StatusTemporaryRedirect)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Redirect(w, r, loginURL+"?error=auth_failed", http.StatusTemporaryRedirect)
		return
	}

	profile, err := auth.ExchangeGoogleCode(r.Context(), code)
	if err != nil {
		log.Printf("Google OAuth callback failed: %v", err)
		http.Redirect(w, r, loginURL+"?error=auth_failed", http.StatusTemporaryRedirect)
		return
	}

	user, err := h.store.GetUserByGoogleID(profile.Sub)
	if err != nil {
		log.Printf("Error looking up google user %s: %v", profile.Sub, err)
		http.Redirect(w, r, loginURL+"?error=auth_failed", http.StatusTemporaryRedirect)
		return
	}
	if user == nil {
		user, err = h.store.CreateGoogleUser(profile.Sub, profile.Email, profile.Name, profile.Picture, uuid.NewString())
		if err != nil {
			log.Printf("Error creating google user %s: %v", profile.Sub, err)
			http.Redirect(w, r, loginURL+"?error=auth_failed", http.StatusTemporaryRedirect)
			return
		}
	}

	token, err := auth.GenerateJWT(user.ID, user.GoogleID, user.APIKey)
	if err != nil {
		log.Printf("Error generating JWT for google user %s: %v", profile.Sub, err)
		http.Redirect(w, r, loginURL+"?error=auth_failed", http.StatusTemporaryRedirect)
		return
	}

	http.Redirect(w, r, config.AppConfig.FrontendURL+"/auth-callback?token="+token, http.StatusTemporaryRedirect)
}

// UserDataHandler returns the caller's api key plus a long-lived embed token
// for widget installs.
func (h *APIHandler) UserDataHandler(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)

	embedToken, err := auth.GenerateEmbedToken(user.ID, user.GoogleID, user.APIKey)
	if err != nil {
		log.Printf("Error generating embed token for user %d: %v", user.ID, err)
		http.Error(w, "Failed to generate embed token", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{
		"apiKey":   user.APIKey,
		"token":    embedToken,
		"googleId": user.GoogleID,
	})
}

// EmbedCodeHandler returns the iframe snippet users paste into their sites.
func (h *APIHandler) EmbedCodeHandler(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)

	embedToken, err := auth.GenerateEmbedToken(user.ID, user.GoogleID, user.APIKey)
	if err != nil {
		log.Printf("Error generating embed token for user %d: %v", user.ID, err)
		http.Error(w, "Failed to generate embed token", http.StatusInternalServerError)
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	widgetURL := fmt.Sprintf("%s://%s/api/chatbot?apiKey=%s&token=%s", scheme, r.Host, user.APIKey, embedToken)
	snippet := fmt.Sprintf(
		`<iframe src="%s" width="420" height="640" frameborder="0" title="AI Chatbot"></iframe>`,
		widgetURL,
	)

	json.NewEncoder(w).Encode(map[string]string{"embedCode": snippet, "widgetUrl": widgetURL})
}
