package core

import (
	"strings"
	"testing"

	"github.com/smritilabs/chatbot-backend/internal/store"
)

func refundUpload() store.CompanyUpload {
	return store.CompanyUpload{
		ID:            1,
		Tags:          []string{"refund", "policy"},
		ParsedContent: "Refunds within 30 days.",
	}
}

func TestMatchUploads_CaseInsensitiveSubstring(t *testing.T) {
	uploads := []store.CompanyUpload{refundUpload()}

	matched := MatchUploads("What is your REFUND policy?", uploads)
	if len(matched) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matched))
	}

	matched = MatchUploads("tell me about shipping", uploads)
	if len(matched) != 0 {
		t.Fatalf("expected no match, got %d", len(matched))
	}
}

func TestMatchUploads_EmptyTagNeverMatches(t *testing.T) {
	uploads := []store.CompanyUpload{{Tags: []string{""}, ParsedContent: "x"}}
	if matched := MatchUploads("anything", uploads); len(matched) != 0 {
		t.Fatalf("empty tag must not match, got %d matches", len(matched))
	}
}

func TestAssemblePrompt_FreshMatch(t *testing.T) {
	result := AssemblePrompt(PromptRequest{Query: "what is your refund policy"}, []store.CompanyUpload{refundUpload()})

	if !result.CompanyDataUsed {
		t.Error("expected CompanyDataUsed=true")
	}
	if !result.FreshMatch {
		t.Error("expected FreshMatch=true")
	}
	if result.CompanyContext != "Refunds within 30 days." {
		t.Errorf("unexpected company context: %q", result.CompanyContext)
	}
	if !strings.Contains(result.Prompt, "Refunds within 30 days.") {
		t.Errorf("prompt missing matched document text:\n%s", result.Prompt)
	}
	if !strings.Contains(result.Prompt, "Use the context to generate a response:\n") {
		t.Errorf("prompt missing context header:\n%s", result.Prompt)
	}
}

func TestAssemblePrompt_ReusesPersistedContext(t *testing.T) {
	result := AssemblePrompt(PromptRequest{
		Query:                   "what's the weather",
		PersistedCompanyContext: "Refunds within 30 days.",
	}, []store.CompanyUpload{refundUpload()})

	if !result.CompanyDataUsed {
		t.Error("expected CompanyDataUsed=true on reuse")
	}
	if result.FreshMatch {
		t.Error("expected FreshMatch=false on reuse")
	}
	if result.CompanyContext != "Refunds within 30 days." {
		t.Errorf("persisted context not reused verbatim: %q", result.CompanyContext)
	}
}

func TestAssemblePrompt_NoMatchNoPersisted(t *testing.T) {
	result := AssemblePrompt(PromptRequest{Query: "what's the weather"}, []store.CompanyUpload{refundUpload()})

	if result.CompanyDataUsed {
		t.Error("expected CompanyDataUsed=false")
	}
	if strings.Contains(result.Prompt, "Use the context") {
		t.Errorf("prompt must not contain a context section:\n%s", result.Prompt)
	}
}

func TestAssemblePrompt_ConcatenatesMatchesInStorageOrder(t *testing.T) {
	uploads := []store.CompanyUpload{
		{ID: 1, Tags: []string{"refund"}, ParsedContent: "First doc."},
		{ID: 2, Tags: []string{"shipping"}, ParsedContent: "Not matched."},
		{ID: 3, Tags: []string{"policy"}, ParsedContent: "Third doc."},
	}

	result := AssemblePrompt(PromptRequest{Query: "refund policy please"}, uploads)
	if result.CompanyContext != "First doc.\n\nThird doc." {
		t.Errorf("unexpected concatenation: %q", result.CompanyContext)
	}
}

func TestAssemblePrompt_Deterministic(t *testing.T) {
	req := PromptRequest{
		Query:               "what is your refund policy",
		ConversationSummary: "User: hi\nAI: hello",
	}
	uploads := []store.CompanyUpload{refundUpload()}

	first := AssemblePrompt(req, uploads)
	second := AssemblePrompt(req, uploads)
	if first.Prompt != second.Prompt {
		t.Error("identical inputs produced different prompts")
	}
}

func TestAssemblePrompt_SectionOrder(t *testing.T) {
	result := AssemblePrompt(PromptRequest{
		Query:               "what is your refund policy",
		ConversationSummary: "User: hi\nAI: hello",
	}, []store.CompanyUpload{refundUpload()})

	prompt := result.Prompt
	preambleIdx := strings.Index(prompt, "Please respond as if you are")
	summaryIdx := strings.Index(prompt, "Conversation so far:")
	contextIdx := strings.Index(prompt, "Use the context to generate a response:")
	queryIdx := strings.Index(prompt, "User: what is your refund policy")

	if preambleIdx != 0 {
		t.Errorf("preamble must open the prompt, found at %d", preambleIdx)
	}
	if !(preambleIdx < summaryIdx && summaryIdx < contextIdx && contextIdx < queryIdx) {
		t.Errorf("sections out of order: preamble=%d summary=%d context=%d query=%d", preambleIdx, summaryIdx, contextIdx, queryIdx)
	}
	if !strings.HasSuffix(prompt, "User: what is your refund policy") {
		t.Errorf("query must close the prompt:\n%s", prompt)
	}
}

func TestPersonaPreamble_Defaults(t *testing.T) {
	preamble := PersonaPreamble(Persona{})
	for _, want := range []string{"23-year-old", "female", "Smriti", DefaultBehaviorPrompt} {
		if !strings.Contains(preamble, want) {
			t.Errorf("default preamble missing %q: %s", want, preamble)
		}
	}
}

func TestPersonaPreamble_CustomFields(t *testing.T) {
	preamble := PersonaPreamble(Persona{Name: "Alex", Age: 30, Gender: "male", BehaviorPrompt: "Be formal."})
	if !strings.Contains(preamble, "30-year-old male named Alex") {
		t.Errorf("custom persona not rendered: %s", preamble)
	}
	if !strings.HasSuffix(preamble, "Be formal.") {
		t.Errorf("behavior prompt must close the preamble: %s", preamble)
	}
}
