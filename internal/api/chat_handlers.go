package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/smritilabs/chatbot-backend/internal/core"
	"github.com/smritilabs/chatbot-backend/internal/session"
	"github.com/smritilabs/chatbot-backend/internal/store"
)

type ChatRequest struct {
	Query                    string `json:"query"`
	UserID                   string `json:"userId,omitempty"` // numeric or external; defaults to the caller
	ConversationHistory      string `json:"conversationHistory"`
	PersistentCompanyContext string `json:"persistentCompanyContext"`
	Name                     string `json:"name"`
	Age                      int    `json:"age"`
	Gender                   string `json:"gender"`
	BehaviorPrompt           string `json:"behaviorPrompt"`
}

// ChatHandler is the dashboard chat turn: the client holds the context state
// machine and sends back the persisted context with each request.
func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	caller := requestUser(r)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "Query cannot be empty", http.StatusBadRequest)
		return
	}

	owner := caller
	if req.UserID != "" {
		// The owner key is classified exactly once, here at the boundary.
		ref, err := store.ParseOwnerKey(req.UserID)
		if err != nil {
			http.Error(w, "Invalid user id", http.StatusBadRequest)
			return
		}
		owner, err = h.store.ResolveOwner(ref)
		if err != nil {
			log.Printf("Error resolving owner %s: %v", req.UserID, err)
			http.Error(w, "Failed to process chat request", http.StatusInternalServerError)
			return
		}
		if owner == nil {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
	}

	result, err := h.chatService.HandleQuery(r.Context(), owner.ID, core.PromptRequest{
		Query: req.Query,
		Persona: core.Persona{
			Name:           req.Name,
			Age:            req.Age,
			Gender:         req.Gender,
			BehaviorPrompt: req.BehaviorPrompt,
		},
		ConversationSummary:     req.ConversationHistory,
		PersistedCompanyContext: req.PersistentCompanyContext,
	})
	if err != nil {
		if errors.Is(err, core.ErrEmptyQuery) {
			http.Error(w, "Query cannot be empty", http.StatusBadRequest)
			return
		}
		log.Printf("Error handling chat for user %d: %v", owner.ID, err)
		http.Error(w, "Failed to process chat request", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(result)
}

type CreateWidgetSessionRequest struct {
	PersonalityID  int64  `json:"personalityId,omitempty"`
	Name           string `json:"name"`
	Gender         string `json:"gender"`
	Age            int    `json:"age"`
	BehaviorPrompt string `json:"behaviorPrompt"`
}

// CreateWidgetSessionHandler opens a server-held conversation for the
// embedded widget. The persona comes from the request, falling back to the
// owner's most recent personality.
func (h *APIHandler) CreateWidgetSessionHandler(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)

	var req CreateWidgetSessionRequest
	if r.Body != http.NoBody {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	persona := core.Persona{
		Name:           req.Name,
		Age:            req.Age,
		Gender:         req.Gender,
		BehaviorPrompt: req.BehaviorPrompt,
	}
	if persona == (core.Persona{}) {
		stored, err := h.pickPersonality(user.ID, req.PersonalityID)
		if err != nil {
			log.Printf("Error loading personality for user %d: %v", user.ID, err)
			http.Error(w, "Failed to create session", http.StatusInternalServerError)
			return
		}
		persona = core.PersonaFromStore(stored)
	}

	sess := &session.ChatSession{
		ID:       uuid.NewString(),
		UserID:   user.ID,
		OwnerKey: strconv.FormatInt(user.ID, 10),
		Persona:  persona,
	}
	if err := h.sessions.Create(r.Context(), sess); err != nil {
		log.Printf("Error creating widget session for user %d: %v", user.ID, err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"sessionId": sess.ID,
		"persona":   sess.Persona,
	})
}

func (h *APIHandler) pickPersonality(userID, personalityID int64) (*store.Personality, error) {
	if personalityID == 0 {
		return h.store.GetDefaultPersonality(userID)
	}
	personalities, err := h.store.GetPersonalitiesByUserID(userID)
	if err != nil {
		return nil, err
	}
	for i := range personalities {
		if personalities[i].ID == personalityID {
			return &personalities[i], nil
		}
	}
	return nil, nil
}

type WidgetMessageRequest struct {
	Query string `json:"query"`
}

// WidgetMessageHandler runs one widget turn against server-held session
// state: it builds the conversation summary from the stored turn window,
// feeds any active company context back into the assembler, then advances the
// context counter and the window.
func (h *APIHandler) WidgetMessageHandler(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	sessionID := chi.URLParam(r, "sessionID")

	var req WidgetMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "Query cannot be empty", http.StatusBadRequest)
		return
	}

	sess, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		log.Printf("Error loading session %s: %v", sessionID, err)
		http.Error(w, "Failed to load session", http.StatusInternalServerError)
		return
	}
	if sess == nil || sess.UserID != user.ID {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	var persisted string
	if sess.Context.Active() {
		persisted = sess.Context.Context
	}

	result, err := h.chatService.HandleQuery(r.Context(), sess.UserID, core.PromptRequest{
		Query:                   req.Query,
		Persona:                 sess.Persona,
		ConversationSummary:     core.SummarizeTurns(sess.Turns),
		PersistedCompanyContext: persisted,
	})
	if err != nil {
		log.Printf("Error handling widget turn for session %s: %v", sessionID, err)
		http.Error(w, "Failed to process chat request", http.StatusInternalServerError)
		return
	}

	sess.Context = sess.Context.Advance(result.FreshMatch, result.CompanyContext)
	sess.Turns = core.AppendTurn(sess.Turns, core.Turn{Query: req.Query, Answer: result.Response})

	if err := h.sessions.Update(r.Context(), sess); err != nil {
		if errors.Is(err, session.ErrConflict) {
			http.Error(w, "Session was modified concurrently, retry", http.StatusConflict)
			return
		}
		log.Printf("Error updating session %s: %v", sessionID, err)
		http.Error(w, "Failed to update session", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]any{
		"response":         result.Response,
		"companyDataUsed":  result.CompanyDataUsed,
		"contextRemaining": sess.Context.Remaining,
	})
}

type RatingRequest struct {
	Query    string `json:"query"`
	Response string `json:"response"`
	Rating   int    `json:"rating"`
}

func (h *APIHandler) RatingHandler(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)

	var req RatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		http.Error(w, "Rating must be between 1 and 5", http.StatusBadRequest)
		return
	}

	if err := h.store.CreateRating(user.ID, req.Query, req.Response, req.Rating); err != nil {
		log.Printf("Error saving rating for user %d: %v", user.ID, err)
		http.Error(w, "Failed to submit rating", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"message": "Rating submitted successfully"})
}

func (h *APIHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	records, err := h.store.GetQueryHistory(user.ID, limit)
	if err != nil {
		log.Printf("Error loading history for user %d: %v", user.ID, err)
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"history": records})
}
