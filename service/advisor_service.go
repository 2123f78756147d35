package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"smartsacco/domain"
)

const defaultAdvisorURL = "https://api.openai.com/v1/chat/completions"

type AdvisorConfig struct {
	APIKey  string
	APIURL  string
	Model   string
	Timeout time.Duration
}

// AdvisorService writes a short note for the credit officer about a
// rejection. The rule reasons stay authoritative; the note only summarizes
// them.
type AdvisorService struct {
	apiKey     string
	apiURL     string
	model      string
	enabled    bool
	httpClient *http.Client
	logger     *zap.Logger
	composer   *DraftComposer
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func NewAdvisorService(cfg AdvisorConfig, composer *DraftComposer, logger *zap.Logger) *AdvisorService {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultAdvisorURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AdvisorService{
		apiKey:     cfg.APIKey,
		apiURL:     apiURL,
		model:      cfg.Model,
		enabled:    cfg.APIKey != "",
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		composer:   composer,
	}
}

// Enabled reports whether notes come from the language model.
func (s *AdvisorService) Enabled() bool {
	return s.enabled
}

// RejectionNote summarizes reasons for the credit officer.
func (s *AdvisorService) RejectionNote(
	ctx context.Context,
	member domain.Member,
	requestedAmount float64,
	decision domain.Decision,
	reasons []domain.RejectionReason,
) string {
	if !s.enabled {
		return s.fallbackNote(member, requestedAmount, decision, reasons)
	}

	var list strings.Builder
	for _, r := range reasons {
		list.WriteString("- " + r.String() + "\n")
	}
	snap := member.Snapshot
	prompt := fmt.Sprintf(`A savings and credit cooperative's model rejected a loan application.

APPLICATION:
- Requested amount: %s
- Total savings: %s
- Credit score: %d
- Guarantors: %d (average score %d)
- Previous default: %t
- Model confidence in rejection: %.1f%%

RULE FINDINGS:
%s
INSTRUCTIONS:
1. In 2-3 sentences, tell the credit officer what the member could change to qualify.
2. Only use the findings above; do not invent new reasons.
3. Be specific with the numbers.`,
		s.composer.FormatAmount(requestedAmount), s.composer.FormatAmount(snap.TotalSavings),
		snap.CreditScore, snap.GuarantorCount, snap.GuarantorAvgCreditScore, snap.HasDefaultedBefore,
		decision.ConfidencePct, list.String())

	note, err := s.callLLM(ctx, prompt)
	if err != nil {
		s.logger.Warn("advisor note unavailable, using fallback", zap.String("member_id", member.ID), zap.Error(err))
		return s.fallbackNote(member, requestedAmount, decision, reasons)
	}
	return note
}

func (s *AdvisorService) callLLM(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{
				Role:    "system",
				Content: "You are a credit analyst at a savings and credit cooperative. You explain loan rejections to credit officers clearly and factually, using only the rule findings you are given.",
			},
			{
				Role:    "user",
				Content: prompt,
			},
		},
		MaxTokens: 200,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("no response from advisor model")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func (s *AdvisorService) fallbackNote(
	member domain.Member,
	requestedAmount float64,
	decision domain.Decision,
	reasons []domain.RejectionReason,
) string {
	titles := make([]string, 0, len(reasons))
	for _, r := range reasons {
		titles = append(titles, r.Title)
	}
	note := fmt.Sprintf("%s's request for %s was rejected with %.1f%% confidence. Findings: %s.",
		member.FirstName, s.composer.FormatAmount(requestedAmount), decision.ConfidencePct, strings.Join(titles, ", "))

	for _, r := range reasons {
		if r.Rule == domain.RuleOverLeveraged && member.Snapshot.TotalSavings > 0 {
			note += fmt.Sprintf(" Current savings support at most %s.",
				s.composer.FormatAmount(member.Snapshot.TotalSavings*MaxLeverageMultiplier))
			break
		}
	}
	return note
}
