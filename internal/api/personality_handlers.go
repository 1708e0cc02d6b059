package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/smritilabs/chatbot-backend/internal/store"
)

type CreatePersonalityRequest struct {
	Name           string `json:"name"`
	Gender         string `json:"gender"`
	Age            int    `json:"age"`
	BehaviorPrompt string `json:"behaviorPrompt"`
}

func (h *APIHandler) CreatePersonalityHandler(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)

	var req CreatePersonalityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.Name == "" || req.Gender == "" || req.Age <= 0 {
		http.Error(w, "Name, gender and age are required", http.StatusBadRequest)
		return
	}

	personality := &store.Personality{
		UserID:         user.ID,
		Name:           req.Name,
		Gender:         req.Gender,
		Age:            req.Age,
		BehaviorPrompt: req.BehaviorPrompt,
	}
	if err := h.store.CreatePersonality(personality); err != nil {
		log.Printf("Error creating personality for user %d: %v", user.ID, err)
		http.Error(w, "Failed to create personality", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]any{"personality": personality})
}

// ListPersonalitiesHandler returns the caller's personalities newest first;
// the first entry is the default for new chat sessions.
func (h *APIHandler) ListPersonalitiesHandler(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)

	personalities, err := h.store.GetPersonalitiesByUserID(user.ID)
	if err != nil {
		log.Printf("Error listing personalities for user %d: %v", user.ID, err)
		http.Error(w, "Failed to fetch personalities", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"personalities": personalities})
}
