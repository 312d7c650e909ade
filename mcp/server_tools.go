package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/unicitynetwork/triviad"
)

type getCategoriesToolInput struct{}

type getCategoriesToolOutput struct {
	Categories []string `json:"categories"`
}

func (s *server) handleGetCategoriesTool(_ context.Context, _ *mcpsdk.CallToolRequest, _ getCategoriesToolInput) (*mcpsdk.CallToolResult, getCategoriesToolOutput, error) {
	return nil, getCategoriesToolOutput{Categories: s.catalog.Categories()}, nil
}

type getQuestionToolInput struct {
	UnicityID string `json:"unicity_id" jsonschema:"User's Unicity ID (nametag, required)"`
	Category  string `json:"category,omitempty" jsonschema:"Category to filter by"`
}

// getQuestionToolOutput is a union: either a question payload or a
// payment_required notice with the correlation id to confirm.
type getQuestionToolOutput struct {
	Status         string   `json:"status,omitempty"`
	Message        string   `json:"message,omitempty"`
	CorrelationID  string   `json:"correlationId,omitempty"`
	TimeoutSeconds int64    `json:"timeoutSeconds,omitempty"`
	QuestionID     string   `json:"questionId,omitempty"`
	Category       string   `json:"category,omitempty"`
	Question       string   `json:"question,omitempty"`
	Options        []string `json:"options,omitempty"`
}

func (s *server) handleGetQuestionTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input getQuestionToolInput) (*mcpsdk.CallToolResult, getQuestionToolOutput, error) {
	userID := triviad.NormalizeID(input.UnicityID)
	if userID == "" {
		return nil, getQuestionToolOutput{}, errors.New("unicity_id is required")
	}
	s.logStateOperation("get_question", userID, "category", orRandom(input.Category))

	if s.paymentEnabled() {
		decision, err := s.gate.RequestAccess(ctx, input.UnicityID)
		if err != nil {
			return nil, getQuestionToolOutput{}, err
		}
		if !decision.Granted {
			return nil, getQuestionToolOutput{
				Status:         "payment_required",
				Message:        "Day pass required. Please approve the payment in your Unicity wallet.",
				CorrelationID:  decision.CorrelationID,
				TimeoutSeconds: int64(decision.Timeout.Seconds()),
			}, nil
		}
	}

	question, err := s.catalog.SelectRandom(input.Category, s.rand)
	if err != nil {
		return nil, getQuestionToolOutput{}, err
	}
	options := triviad.ShuffleOptions(question, s.rand)
	s.sessions.SetActiveQuestion(userID, question, options)
	s.metrics.RecordQuestionIssued()

	return nil, getQuestionToolOutput{
		QuestionID: question.ID,
		Category:   question.Category,
		Question:   question.Question,
		Options:    options,
	}, nil
}

type checkAnswerToolInput struct {
	UnicityID string `json:"unicity_id" jsonschema:"User's Unicity ID (nametag, required)"`
	Answer    string `json:"answer" jsonschema:"The user's answer (text or letter a/b/c/d)"`
}

type checkAnswerToolOutput struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correctAnswer"`
	Explanation   string `json:"explanation"`
	NewScore      int    `json:"newScore"`
	Award         bool   `json:"award,omitempty"`
}

func (s *server) handleCheckAnswerTool(_ context.Context, _ *mcpsdk.CallToolRequest, input checkAnswerToolInput) (*mcpsdk.CallToolResult, checkAnswerToolOutput, error) {
	userID := triviad.NormalizeID(input.UnicityID)
	if userID == "" {
		return nil, checkAnswerToolOutput{}, errors.New("unicity_id is required")
	}

	active, ok := s.sessions.ActiveQuestion(userID)
	if !ok {
		s.logStateOperation("check_answer", userID, "error", "no_active_question")
		return nil, checkAnswerToolOutput{}, fmt.Errorf("%w: get a question first", triviad.ErrNoActiveQuestion)
	}
	s.logStateOperation("check_answer", userID,
		"question_id", active.Question.ID,
		"answer", input.Answer,
	)

	answerText := triviad.ResolveAnswerInput(input.Answer, active.Options)
	correct := triviad.AnswerMatches(answerText, active.Question.CorrectAnswer)
	newScore, awarded := s.sessions.RecordAnswer(userID, correct, s.cfg.WinningStreak)
	// Answer checks are single-shot regardless of the result.
	s.sessions.ClearActiveQuestion(userID)
	s.metrics.RecordAnswerChecked(correct)

	explanation := "Great job!"
	if !correct {
		explanation = fmt.Sprintf("The correct answer was: %s", active.Question.CorrectAnswer)
	}
	if awarded {
		s.toolLog.Info("winning streak reached", "user_id", userID, "streak", s.cfg.WinningStreak)
	}
	return nil, checkAnswerToolOutput{
		Correct:       correct,
		CorrectAnswer: active.Question.CorrectAnswer,
		Explanation:   explanation,
		NewScore:      newScore,
		Award:         awarded,
	}, nil
}

type getScoreToolInput struct {
	UnicityID string `json:"unicity_id" jsonschema:"User's Unicity ID (nametag, required)"`
}

type getScoreToolOutput struct {
	Score int `json:"score"`
}

func (s *server) handleGetScoreTool(_ context.Context, _ *mcpsdk.CallToolRequest, input getScoreToolInput) (*mcpsdk.CallToolResult, getScoreToolOutput, error) {
	userID := triviad.NormalizeID(input.UnicityID)
	if userID == "" {
		return nil, getScoreToolOutput{}, errors.New("unicity_id is required")
	}
	s.logStateOperation("get_score", userID)
	return nil, getScoreToolOutput{Score: s.sessions.Score(userID)}, nil
}

type checkAccessToolInput struct {
	UnicityID string `json:"unicity_id" jsonschema:"User's Unicity ID (nametag, required)"`
}

type checkAccessToolOutput struct {
	HasAccess bool   `json:"hasAccess"`
	ExpiresAt string `json:"expiresAt,omitempty"`
	Message   string `json:"message,omitempty"`
}

func (s *server) handleCheckAccessTool(_ context.Context, _ *mcpsdk.CallToolRequest, input checkAccessToolInput) (*mcpsdk.CallToolResult, checkAccessToolOutput, error) {
	if !s.paymentEnabled() {
		return nil, checkAccessToolOutput{HasAccess: true, Message: "Payment not required"}, nil
	}
	userID := triviad.NormalizeID(input.UnicityID)
	if userID == "" {
		return nil, checkAccessToolOutput{}, errors.New("unicity_id is required")
	}
	out := checkAccessToolOutput{HasAccess: s.gate.HasValidPass(userID)}
	if pass, ok := s.gate.Pass(userID); ok {
		out.ExpiresAt = pass.ExpiresAt.Format(time.RFC3339)
	}
	return nil, out, nil
}

type confirmPaymentToolInput struct {
	CorrelationID string `json:"correlationId" jsonschema:"Correlation id returned by get_question's payment_required response"`
}

type confirmPaymentToolOutput struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

func (s *server) handleConfirmPaymentTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input confirmPaymentToolInput) (*mcpsdk.CallToolResult, confirmPaymentToolOutput, error) {
	if !s.paymentEnabled() {
		return nil, confirmPaymentToolOutput{}, errors.New("payment is not enabled on this server")
	}
	correlationID := strings.TrimSpace(input.CorrelationID)
	if correlationID == "" {
		return nil, confirmPaymentToolOutput{}, errors.New("correlationId is required")
	}

	s.toolLog.Info("waiting for payment confirmation", "correlation_id", correlationID)
	result, err := s.gate.ConfirmAccess(ctx, correlationID)
	if err != nil {
		return nil, confirmPaymentToolOutput{}, err
	}
	if !result.Paid {
		return nil, confirmPaymentToolOutput{
			Status:  "timeout",
			Message: "Payment not received in time. Please try again.",
		}, nil
	}
	return nil, confirmPaymentToolOutput{
		Status:    "success",
		Message:   "Payment received! Your day pass is now active.",
		ExpiresAt: result.ExpiresAt.Format(time.RFC3339),
	}, nil
}

type getWalletBalanceToolInput struct {
	AdminPassword string `json:"admin_password" jsonschema:"Admin password for authentication"`
}

type walletBalanceEntry struct {
	CoinID     string `json:"coinId"`
	Amount     string `json:"amount"`
	TokenCount int    `json:"tokenCount"`
}

type getWalletBalanceToolOutput struct {
	TotalTokens int                  `json:"totalTokens"`
	Balances    []walletBalanceEntry `json:"balances"`
}

func (s *server) handleGetWalletBalanceTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input getWalletBalanceToolInput) (*mcpsdk.CallToolResult, getWalletBalanceToolOutput, error) {
	if s.wallet == nil || strings.TrimSpace(s.cfg.AdminPassword) == "" {
		return nil, getWalletBalanceToolOutput{}, errors.New("wallet service not available")
	}
	if input.AdminPassword != s.cfg.AdminPassword {
		return nil, getWalletBalanceToolOutput{}, triviad.ErrUnauthorized
	}
	summary, err := s.wallet.WalletSummary(ctx)
	if err != nil {
		return nil, getWalletBalanceToolOutput{}, fmt.Errorf("get wallet balance: %w", err)
	}
	balances := make([]walletBalanceEntry, 0, len(summary.Balances))
	for _, b := range summary.Balances {
		balances = append(balances, walletBalanceEntry{
			CoinID:     b.CoinID,
			Amount:     b.Amount.String(),
			TokenCount: b.TokenCount,
		})
	}
	return nil, getWalletBalanceToolOutput{TotalTokens: summary.TotalTokens, Balances: balances}, nil
}

func orRandom(category string) string {
	if strings.TrimSpace(category) == "" {
		return "random"
	}
	return category
}
