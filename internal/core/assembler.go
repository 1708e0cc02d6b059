package core

import (
	"fmt"
	"strings"

	"github.com/smritilabs/chatbot-backend/internal/store"
)

// Persona fallbacks applied when a chat request (or widget embed) leaves a
// field empty.
const (
	DefaultPersonaName     = "Smriti"
	DefaultPersonaAge      = 23
	DefaultPersonaGender   = "female"
	DefaultBehaviorPrompt  = "You are cheerful, bright, and a bit flirty. Your tone should be warm, playful, and friendly."
	companyContextHeader   = "Use the context to generate a response:"
	conversationSoFarLabel = "Conversation so far:"
)

type Persona struct {
	Name           string `json:"name"`
	Age            int    `json:"age"`
	Gender         string `json:"gender"`
	BehaviorPrompt string `json:"behavior_prompt"`
}

func (p Persona) withDefaults() Persona {
	if p.Name == "" {
		p.Name = DefaultPersonaName
	}
	if p.Age <= 0 {
		p.Age = DefaultPersonaAge
	}
	if p.Gender == "" {
		p.Gender = DefaultPersonaGender
	}
	if p.BehaviorPrompt == "" {
		p.BehaviorPrompt = DefaultBehaviorPrompt
	}
	return p
}

// PersonaFromStore converts a stored personality row into prompt parameters.
func PersonaFromStore(p *store.Personality) Persona {
	if p == nil {
		return Persona{}
	}
	return Persona{
		Name:           p.Name,
		Age:            p.Age,
		Gender:         p.Gender,
		BehaviorPrompt: p.BehaviorPrompt,
	}
}

// PersonaPreamble renders the fixed persona template that opens every prompt.
func PersonaPreamble(p Persona) string {
	p = p.withDefaults()
	return fmt.Sprintf(
		"Please respond as if you are a %d-year-old %s named %s (but don't reveal your true age). %s",
		p.Age, p.Gender, p.Name, p.BehaviorPrompt,
	)
}

type PromptRequest struct {
	Query                   string
	Persona                 Persona
	ConversationSummary     string // last few exchanges, already truncated by the caller
	PersistedCompanyContext string // context carried over from a prior turn
}

type PromptResult struct {
	Prompt          string
	CompanyContext  string
	CompanyDataUsed bool
	FreshMatch      bool // true only when a tag matched on this turn
}

// AssemblePrompt runs the contextual-prompt pipeline over the owner's
// uploads: tag match, company-context resolution, then deterministic prompt
// composition. It performs no I/O; identical inputs yield identical prompts.
func AssemblePrompt(req PromptRequest, uploads []store.CompanyUpload) PromptResult {
	matched := MatchUploads(req.Query, uploads)

	var companyContext string
	freshMatch := len(matched) > 0
	switch {
	case freshMatch:
		texts := make([]string, 0, len(matched))
		for _, upload := range matched {
			texts = append(texts, upload.ParsedContent)
		}
		companyContext = strings.Join(texts, "\n\n")
	default:
		companyContext = req.PersistedCompanyContext
	}
	companyDataUsed := freshMatch || req.PersistedCompanyContext != ""

	sections := []string{PersonaPreamble(req.Persona)}
	if req.ConversationSummary != "" {
		sections = append(sections, conversationSoFarLabel+"\n"+req.ConversationSummary)
	}
	if companyDataUsed {
		sections = append(sections, companyContextHeader+"\n"+companyContext)
	}
	sections = append(sections, "User: "+req.Query)

	return PromptResult{
		Prompt:          strings.Join(sections, "\n\n"),
		CompanyContext:  companyContext,
		CompanyDataUsed: companyDataUsed,
		FreshMatch:      freshMatch,
	}
}

// MatchUploads selects every upload with at least one tag that is a
// case-insensitive substring of the query, in storage order. No ranking.
func MatchUploads(query string, uploads []store.CompanyUpload) []store.CompanyUpload {
	folded := strings.ToLower(query)
	var matched []store.CompanyUpload
	for _, upload := range uploads {
		for _, tag := range upload.Tags {
			if tag == "" {
				continue
			}
			if strings.Contains(folded, strings.ToLower(tag)) {
				matched = append(matched, upload)
				break
			}
		}
	}
	return matched
}
