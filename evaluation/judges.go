package evaluation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/geektime/contentpipe/core"
	"github.com/geektime/contentpipe/model"
)

// Metric names produced by the built-in judges.
const (
	MetricCoherence = "coherence"
	MetricFluency   = "fluency"
	MetricRelevance = "relevance"
)

const judgeInstructions = `You are an expert evaluator of written content.
Score the response on the requested dimension using an integer from 1 (worst) to 5 (best).
Respond with the integer only. No explanation, no punctuation, no extra words.`

const (
	coherencePrompt = `Dimension: coherence. Judge whether the response is logically organized, with ideas that connect and flow naturally.

Query:
%s

Response:
%s

Score (1-5):`

	fluencyPrompt = `Dimension: fluency. Judge the grammatical correctness and readability of the response, ignoring its content.

Query:
%s

Response:
%s

Score (1-5):`

	relevancePrompt = `Dimension: relevance. Judge how well the response addresses the query, staying on topic and covering what was asked.

Query:
%s

Response:
%s

Score (1-5):`
)

// judge is an Evaluator backed by a model acting as an LLM judge.
type judge struct {
	name   string
	prompt string
	llm    model.Model
}

// NewCoherence returns an evaluator scoring logical organization and flow.
func NewCoherence(llm model.Model) Evaluator {
	return &judge{name: MetricCoherence, prompt: coherencePrompt, llm: llm}
}

// NewFluency returns an evaluator scoring grammatical quality and readability.
func NewFluency(llm model.Model) Evaluator {
	return &judge{name: MetricFluency, prompt: fluencyPrompt, llm: llm}
}

// NewRelevance returns an evaluator scoring how well the response answers
// the query.
func NewRelevance(llm model.Model) Evaluator {
	return &judge{name: MetricRelevance, prompt: relevancePrompt, llm: llm}
}

// DefaultEvaluators returns the standard judge set backed by llm.
func DefaultEvaluators(llm model.Model) []Evaluator {
	return []Evaluator{
		NewCoherence(llm),
		NewFluency(llm),
		NewRelevance(llm),
	}
}

func (j *judge) Name() string {
	return j.name
}

func (j *judge) Evaluate(ctx context.Context, record Record) (int, error) {
	prompt := fmt.Sprintf(j.prompt, record.Query, record.Response)

	req := model.Request{
		Instructions: judgeInstructions,
		Contents:     []core.Content{core.NewUserContent(prompt)},
	}

	responses, errs := j.llm.Generate(ctx, req)

	var sb strings.Builder
	for resp := range responses {
		if !resp.Partial {
			sb.Reset()
		}
		sb.WriteString(resp.Content.Text())
	}

	if err := <-errs; err != nil {
		return 0, fmt.Errorf("judge %s: %w", j.name, err)
	}

	return parseScore(sb.String())
}

// parseScore extracts a strict 1..5 integer from judge output. Anything
// else is an infrastructure failure, not a low score.
func parseScore(raw string) (int, error) {
	trimmed := strings.TrimSpace(raw)

	score, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("judge returned non-integer score %q", trimmed)
	}

	if score < 1 || score > 5 {
		return 0, fmt.Errorf("judge returned out-of-range score %d", score)
	}

	return score, nil
}
