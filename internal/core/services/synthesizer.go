package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/finsight-labs/reportqa-core/internal/core/ports/driven"
)

// answerPrompt constrains the model to the supplied context and pins the
// exact fallback sentence clients look for.
const answerPrompt = `You are a helpful assistant that answers questions about yearly financial reports.
Use only the provided context to answer the question. If the answer cannot be found in the context, say "I cannot find information about this in the provided context."

Context:
%s

Question: %s

Answer:`

// synthesisFailureAnswer is returned when the language model call fails.
// Synthesis failure degrades gracefully; retrieval results are still useful.
const synthesisFailureAnswer = "I encountered an error while generating the answer."

// AnswerSynthesizer builds a grounded prompt from retrieved passages and
// invokes the language model to produce an answer.
type AnswerSynthesizer struct {
	llm    driven.LLMService
	logger *slog.Logger
}

// NewAnswerSynthesizer creates a new AnswerSynthesizer
func NewAnswerSynthesizer(llm driven.LLMService, logger *slog.Logger) *AnswerSynthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerSynthesizer{
		llm:    llm,
		logger: logger,
	}
}

// Synthesize generates an answer grounded in the given passages, in
// retrieval order. Never returns an error: any language model failure is
// logged and folded into the fixed fallback answer.
func (s *AnswerSynthesizer) Synthesize(ctx context.Context, query string, passages []string) string {
	contextBlock := strings.Join(passages, "\n\n")
	prompt := fmt.Sprintf(answerPrompt, contextBlock, query)

	answer, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		s.logger.Error("answer synthesis failed", "error", err)
		return synthesisFailureAnswer
	}

	return strings.TrimSpace(answer)
}
