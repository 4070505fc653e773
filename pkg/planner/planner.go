// Package planner turns a user query into a normalized action plan via a
// single deterministic LLM call. It never fails: unusable model output
// degrades to the fallback plan.
package planner

import (
	"context"
	"fmt"
	"log"
	"strings"

	"knowledge-chat-be/pkg/llm"
	"knowledge-chat-be/pkg/plan"
	"knowledge-chat-be/pkg/store"
)

type Planner struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewPlanner(llmProvider llm.LLMProvider, logger *log.Logger) *Planner {
	return &Planner{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Plan analyzes the query against conversation history and session state and
// produces a normalized, executable action plan.
func (p *Planner) Plan(
	ctx context.Context,
	query string,
	history []llm.Message,
	session *store.Session,
) *plan.ActionPlan {

	prompt := p.buildPrompt(query, history, session)

	// Temperature 0 for deterministic structured output
	response, err := p.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		p.logger.Printf("[ERROR] Plan generation failed: %v", err)
		return plan.Fallback()
	}

	jsonContent := extractJSON(response)
	if jsonContent == "" {
		p.logger.Printf("[WARN] No JSON found in planner response")
		return plan.Fallback()
	}

	result := plan.NormalizeRaw([]byte(jsonContent))

	p.logger.Printf("[PLAN] %d group(s), %d action(s), clarification=%v",
		len(result.Groups), result.TotalActions(), result.RequiresClarification())

	return result
}

func (p *Planner) buildPrompt(query string, history []llm.Message, session *store.Session) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You are an action planner for a knowledge-base assistant. Your ONLY job is to decide WHICH backend actions answer the user's request.\n")
	prompt.WriteString("You do NOT answer questions. You only emit a plan.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString("<session_state>\n")
	if session != nil && session.LastQuery != "" {
		prompt.WriteString(fmt.Sprintf("LAST_QUERY: %q\n", session.LastQuery))
		if len(session.LastQuestions) > 0 {
			prompt.WriteString("LAST_SUB_QUESTIONS:\n")
			for i, q := range session.LastQuestions {
				prompt.WriteString(fmt.Sprintf("  %d. %s\n", i+1, q))
			}
		}
	} else {
		prompt.WriteString("INITIAL_STATE: First message of the session.\n")
	}
	prompt.WriteString("</session_state>\n\n")

	if len(history) > 0 {
		prompt.WriteString("<conversation_history>\n")
		for _, msg := range history {
			prompt.WriteString(fmt.Sprintf("%s: %s\n", msg.Role, msg.Content))
		}
		prompt.WriteString("</conversation_history>\n\n")
	}

	prompt.WriteString("<user_query>\n")
	prompt.WriteString(query)
	prompt.WriteString("\n</user_query>\n\n")

	prompt.WriteString("<action_catalog>\n")
	prompt.WriteString("search_knowledge: semantic search over the user's documents\n")
	prompt.WriteString("  - parameters: {\"query\": \"...\", \"limit\": 10}\n")
	prompt.WriteString("list_documents: list the user's documents by title\n")
	prompt.WriteString("  - parameters: {\"limit\": 20}\n")
	prompt.WriteString("get_document_content: fetch the full content of one document\n")
	prompt.WriteString("  - parameters: {\"document_id\": \"...\"}\n")
	prompt.WriteString("generate_embeddings: embed a piece of text\n")
	prompt.WriteString("  - parameters: {\"text\": \"...\"}\n")
	prompt.WriteString("respond_directly: answer without touching the knowledge base (greetings, chit-chat)\n")
	prompt.WriteString("  - parameters: {\"text\": \"the direct answer\"}\n")
	prompt.WriteString("</action_catalog>\n\n")

	prompt.WriteString("<planning_rules>\n")
	prompt.WriteString("1. Group actions that can run together. mode is \"parallel\" or \"sequential\".\n")
	prompt.WriteString("2. Give each group a priority (1 = highest). Groups run one after another in priority order.\n")
	prompt.WriteString("3. Independent searches for a multi-part question belong in ONE parallel group, one search_knowledge per sub-question, and set is_multi_question true with the sub-questions listed in questions.\n")
	prompt.WriteString("4. A pure greeting or meta question needs only respond_directly.\n")
	prompt.WriteString("5. If the request is too vague to act on, set needs_clarification true, can_proceed false, and fill clarification_questions. Leave groups empty.\n")
	prompt.WriteString("6. Never invent document ids. Use get_document_content only when an id is known from the conversation.\n")
	prompt.WriteString("</planning_rules>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON:\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"groups\": [\n")
	prompt.WriteString("    {\n")
	prompt.WriteString("      \"id\": \"group_1\",\n")
	prompt.WriteString("      \"mode\": \"parallel\",\n")
	prompt.WriteString("      \"priority\": 1,\n")
	prompt.WriteString("      \"context\": \"why this group exists\",\n")
	prompt.WriteString("      \"actions\": [\n")
	prompt.WriteString("        {\"type\": \"search_knowledge\", \"parameters\": {\"query\": \"...\"}, \"priority\": 1, \"parallelizable\": true}\n")
	prompt.WriteString("      ]\n")
	prompt.WriteString("    }\n")
	prompt.WriteString("  ],\n")
	prompt.WriteString("  \"reasoning\": \"brief explanation\",\n")
	prompt.WriteString("  \"requires_external_context\": true,\n")
	prompt.WriteString("  \"questions\": [\"sub-question 1\"],\n")
	prompt.WriteString("  \"is_multi_question\": false,\n")
	prompt.WriteString("  \"needs_clarification\": false,\n")
	prompt.WriteString("  \"can_proceed\": true,\n")
	prompt.WriteString("  \"clarification_questions\": []\n")
	prompt.WriteString("}\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}

func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
