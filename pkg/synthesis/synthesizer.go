// Package synthesis turns an executed plan's result bundle into the final
// conversational answer.
package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"knowledge-chat-be/pkg/llm"
	"knowledge-chat-be/pkg/plan"
	"knowledge-chat-be/pkg/plan/engine"
)

const errorMessage = "Sorry, an error occurred while generating the answer."

// Synthesizer creates contextual responses from plan execution results
type Synthesizer struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewSynthesizer(llmProvider llm.LLMProvider, logger *log.Logger) *Synthesizer {
	return &Synthesizer{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Synthesize produces the assistant's reply for one executed plan.
// Clarification plans short-circuit to the clarification questions; a plan
// whose only work was a direct response skips the LLM entirely.
func (s *Synthesizer) Synthesize(
	ctx context.Context,
	query string,
	p *plan.ActionPlan,
	bundle engine.ResultBundle,
	history []llm.Message,
) string {

	if p != nil && p.RequiresClarification() {
		return ClarificationMessage(p)
	}

	if text, ok := directResponseOnly(bundle); ok {
		return text
	}

	if bundle.SuccessCount == 0 {
		return failureSummary(bundle)
	}

	promptText := s.buildPrompt(query, p, bundle)
	fullHistory := append(history, llm.Message{Role: "user", Content: promptText})

	response, err := s.llmProvider.Chat(ctx, fullHistory)
	if err != nil {
		s.logger.Printf("[ERROR] LLM synthesis failed: %v", err)
		return errorMessage
	}

	s.logger.Printf("[SYNTHESIS] Answer generated from %d successful action(s), %d failed",
		bundle.SuccessCount, bundle.FailureCount)

	return response
}

// directResponseOnly reports whether the bundle contains exactly one
// successful respond_directly result and nothing else.
func directResponseOnly(bundle engine.ResultBundle) (string, bool) {
	if bundle.SuccessCount != 1 || bundle.FailureCount != 0 {
		return "", false
	}
	for _, rec := range bundle.ByGroup {
		for _, res := range rec.Results {
			if res.Type == plan.ActionRespondDirectly && res.Succeeded {
				if text, ok := res.Payload["text"].(string); ok {
					return text, true
				}
			}
		}
	}
	return "", false
}

func failureSummary(bundle engine.ResultBundle) string {
	var reasons []string
	seen := make(map[string]bool)
	for _, rec := range bundle.ByGroup {
		for _, res := range rec.Results {
			if res.Error != "" && !seen[res.Error] {
				reasons = append(reasons, res.Error)
				seen[res.Error] = true
			}
		}
	}
	if len(reasons) == 0 {
		return "I couldn't find anything to act on for that request. Could you rephrase it?"
	}
	sort.Strings(reasons)
	return fmt.Sprintf("I couldn't complete your request: %s", strings.Join(reasons, "; "))
}

func (s *Synthesizer) buildPrompt(query string, p *plan.ActionPlan, bundle engine.ResultBundle) string {
	var prompt strings.Builder

	prompt.WriteString("<grounded_reference_material>\n")
	prompt.WriteString("CRITICAL: This is the ONLY data source. Do NOT use outside knowledge.\n")
	prompt.WriteString("Each block below is the result of one backend action.\n\n")

	// Group order is stable for reproducible prompts
	groupIds := make([]string, 0, len(bundle.ByGroup))
	for id := range bundle.ByGroup {
		groupIds = append(groupIds, id)
	}
	sort.Strings(groupIds)

	for _, id := range groupIds {
		rec := bundle.ByGroup[id]
		for _, res := range rec.Results {
			if !res.Succeeded {
				prompt.WriteString(fmt.Sprintf("--- %s (FAILED: %s) ---\n\n", res.Type, res.Error))
				continue
			}
			prompt.WriteString(fmt.Sprintf("--- %s ---\n", res.Type))
			if rec.Context != "" {
				prompt.WriteString(fmt.Sprintf("purpose: %s\n", rec.Context))
			}
			payload, err := json.MarshalIndent(res.Payload, "", "  ")
			if err != nil {
				s.logger.Printf("[WARN] Failed to render payload for %s: %v", res.Type, err)
				continue
			}
			prompt.Write(payload)
			prompt.WriteString("\n\n")
		}
	}
	prompt.WriteString("</grounded_reference_material>\n\n")

	prompt.WriteString("<task_instructions>\n")
	prompt.WriteString("You are a diligent assistant answering based on the provided content.\n\n")
	prompt.WriteString("EXECUTION RULES (MUST FOLLOW):\n")
	prompt.WriteString("1. ANSWER DIRECTLY if sufficient data exists. Never ask 'Do you want me to...'.\n")
	prompt.WriteString("2. Extract ALL relevant values from ALL provided results.\n")
	prompt.WriteString("3. If some actions FAILED, answer from what succeeded and mention what is missing in one short sentence.\n")
	if p != nil && p.IsMultiQuestion && len(p.Questions) > 0 {
		prompt.WriteString("4. The user asked multiple questions. Answer EACH sub-question in its own section:\n")
		for i, q := range p.Questions {
			prompt.WriteString(fmt.Sprintf("   %d. %s\n", i+1, q))
		}
	}
	prompt.WriteString("\nRESPONSE STYLE:\n")
	prompt.WriteString("1. Match your tone and format to the user's question style.\n")
	prompt.WriteString("2. When citing a document, use 'According to [Title]...'.\n")
	prompt.WriteString("3. Keep paragraphs concise. Use markdown headers and lists for structure.\n")
	prompt.WriteString("</task_instructions>\n\n")

	prompt.WriteString("<user_question>\n")
	prompt.WriteString(query)
	prompt.WriteString("\n</user_question>\n\n")

	prompt.WriteString("Answer:")

	return prompt.String()
}

// ClarificationMessage formats the clarification questions of a gated plan.
func ClarificationMessage(p *plan.ActionPlan) string {
	questions := p.ClarificationQuestions
	if len(questions) == 0 {
		return "Could you clarify what you are looking for?"
	}
	if len(questions) == 1 {
		return questions[0]
	}

	var builder strings.Builder
	builder.WriteString("Before I can help, I need a few details:\n")
	for i, q := range questions {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, q))
	}
	return builder.String()
}
