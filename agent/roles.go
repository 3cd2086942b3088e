package agent

import (
	"github.com/geektime/contentpipe/model"
	"github.com/geektime/contentpipe/prompts"
	"github.com/geektime/contentpipe/tool"
)

// Canonical role names used across the pipeline, API and A2A bridge.
const (
	ResearcherName = "Researcher"
	WriterName     = "Writer"
	ReviewerName   = "Reviewer"
)

// NewResearcher builds the research agent. Tools are optional: when a tool
// server credential is missing the caller simply passes fewer tools and the
// agent works from model knowledge alone.
func NewResearcher(llm model.Model, tools []tool.Tool, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	fns := append([]func(o *ModelAgentOptions){func(o *ModelAgentOptions) {
		o.Instructions = prompts.MustLoad("researcher")
		o.Tools = tools
	}}, optFns...)
	return NewModelAgent(ResearcherName, llm, fns...)
}

// NewWriter builds the article writing agent.
func NewWriter(llm model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	fns := append([]func(o *ModelAgentOptions){func(o *ModelAgentOptions) {
		o.Instructions = prompts.MustLoad("writer")
	}}, optFns...)
	return NewModelAgent(WriterName, llm, fns...)
}

// NewReviewer builds the reviewing/editing agent.
func NewReviewer(llm model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	fns := append([]func(o *ModelAgentOptions){func(o *ModelAgentOptions) {
		o.Instructions = prompts.MustLoad("reviewer")
	}}, optFns...)
	return NewModelAgent(ReviewerName, llm, fns...)
}
