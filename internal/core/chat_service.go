package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/smritilabs/chatbot-backend/internal/store"
)

var ErrEmptyQuery = errors.New("query must not be empty")

// DocumentSource supplies the tagged uploads owned by a user.
type DocumentSource interface {
	GetUploadsByUserID(userID int64) ([]store.CompanyUpload, error)
}

// HistorySink records query/answer pairs for audit. Writes are best-effort.
type HistorySink interface {
	AppendQueryHistory(userID int64, query, response string) error
}

// Completer is the opaque text-completion service.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type ChatService struct {
	docs    DocumentSource
	history HistorySink
	llm     Completer
}

func NewChatService(docs DocumentSource, history HistorySink, llm Completer) *ChatService {
	return &ChatService{
		docs:    docs,
		history: history,
		llm:     llm,
	}
}

type ChatResult struct {
	Response        string `json:"response"`
	CompanyContext  string `json:"companyContext"`
	CompanyDataUsed bool   `json:"companyDataUsed"`
	FreshMatch      bool   `json:"-"`
}

// HandleQuery runs one chat turn: assemble the contextual prompt from the
// user's uploads, call the completion service, and log the exchange. The
// history write happens after the answer is produced and its failure is not
// surfaced to the caller.
func (s *ChatService) HandleQuery(ctx context.Context, userID int64, req PromptRequest) (*ChatResult, error) {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return nil, ErrEmptyQuery
	}

	uploads, err := s.docs.GetUploadsByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load uploads for user %d: %w", userID, err)
	}

	assembled := AssemblePrompt(req, uploads)

	answer, err := s.llm.Complete(ctx, assembled.Prompt)
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	go func() {
		if err := s.history.AppendQueryHistory(userID, req.Query, answer); err != nil {
			log.Printf("Failed to append query history for user %d: %v", userID, err)
		}
	}()

	return &ChatResult{
		Response:        answer,
		CompanyContext:  assembled.CompanyContext,
		CompanyDataUsed: assembled.CompanyDataUsed,
		FreshMatch:      assembled.FreshMatch,
	}, nil
}
