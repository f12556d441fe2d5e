package agent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mohammad-safakhou/deepresearch/internal/helpers"
	"github.com/mohammad-safakhou/deepresearch/internal/telemetry"
	"github.com/mohammad-safakhou/deepresearch/provider"
)

var qaOutputSchema = mustSchema(`{
	"type": "object",
	"required": ["answer"],
	"properties": {
		"answer": {"type": "string", "minLength": 1},
		"references": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["url"],
				"properties": {
					"url": {"type": "string", "minLength": 1},
					"description": {"type": "string"}
				}
			}
		},
		"follow_up_questions": {
			"type": "array",
			"items": {"type": "string"}
		}
	}
}`)

const qaSystemPrompt = `You are an expert research assistant focused on providing accurate, well-sourced information. Your answers must be based on the provided web content and include relevant source citations.

Steps:
- Analyze the question and identify key information needs
- Review all provided web content thoroughly
- Synthesize information from multiple sources
- Formulate a clear, comprehensive answer

Output instructions:
- Answer should be detailed but concise
- Include specific facts and data from sources
- If sources conflict, acknowledge the discrepancy
- If information is insufficient or no content is provided, say so explicitly instead of inventing facts
- Cite only URLs that appear in the provided content
- Respond ONLY with a JSON object: {"answer": "...", "references": [{"url": "...", "description": "..."}], "follow_up_questions": ["..."]}`

// Document is one successfully scraped page handed to the QA agent as context.
type Document struct {
	URL   string
	Title string
	Text  string
}

// Reference cites one source URL used by the answer.
type Reference struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Answer is the QA agent's terminal artifact. The model's wire field is
// "answer"; the outward response field is "text".
type Answer struct {
	Text              string      `json:"text"`
	References        []Reference `json:"references"`
	FollowUpQuestions []string    `json:"follow_up_questions"`
}

// QAAgent synthesizes a grounded answer from scraped web content through a
// single schema-validated model call.
type QAAgent struct {
	provider         provider.Provider
	telemetry        *telemetry.Telemetry
	logger           *log.Logger
	contextMaxChars  int
	verifyReferences bool
}

// NewQAAgent creates a new question answering agent. contextMaxChars bounds
// the assembled context; verifyReferences enables server-side grounding:
// references whose URL is not in the supplied document set are dropped
// instead of trusting the model's instruction-following.
func NewQAAgent(p provider.Provider, tele *telemetry.Telemetry, contextMaxChars int, verifyReferences bool) *QAAgent {
	return &QAAgent{
		provider:         p,
		telemetry:        tele,
		logger:           log.New(log.Writer(), "[QA] ", log.LstdFlags),
		contextMaxChars:  contextMaxChars,
		verifyReferences: verifyReferences,
	}
}

// Answer synthesizes an answer to question from docs. An empty docs slice is
// valid: the agent is instructed to report insufficient information.
func (a *QAAgent) Answer(ctx context.Context, question string, docs []Document) (Answer, error) {
	if strings.TrimSpace(question) == "" {
		return Answer{}, fmt.Errorf("question must not be empty")
	}

	userPrompt := a.buildPrompt(question, docs)

	var out struct {
		Answer            string      `json:"answer"`
		References        []Reference `json:"references"`
		FollowUpQuestions []string    `json:"follow_up_questions"`
	}
	if err := runStructured(ctx, a.provider, a.telemetry, "qa_agent", qaSystemPrompt, userPrompt, qaOutputSchema, &out); err != nil {
		return Answer{}, err
	}

	ans := Answer{
		Text:              out.Answer,
		References:        out.References,
		FollowUpQuestions: out.FollowUpQuestions,
	}
	if a.verifyReferences {
		ans.References = a.groundReferences(ans.References, docs)
	}
	return ans, nil
}

func (a *QAAgent) buildPrompt(question string, docs []Document) string {
	var b strings.Builder
	b.WriteString("QUESTION: ")
	b.WriteString(question)
	b.WriteString("\n\n")

	if len(docs) == 0 {
		b.WriteString("No web content could be retrieved for this question. State that the available information is insufficient to answer reliably.\n")
		return b.String()
	}

	b.WriteString("WEB CONTENT:\n")
	var content strings.Builder
	for i, doc := range docs {
		content.WriteString(fmt.Sprintf("--- SOURCE %d ---\nURL: %s\nTITLE: %s\n%s\n\n",
			i+1, doc.URL, doc.Title, helpers.CollapseWhitespace(doc.Text)))
	}
	b.WriteString(helpers.TruncateChars(content.String(), a.contextMaxChars))
	return b.String()
}

// groundReferences keeps only references whose URL matches one of the
// supplied documents, comparing canonical forms.
func (a *QAAgent) groundReferences(refs []Reference, docs []Document) []Reference {
	if len(refs) == 0 {
		return refs
	}
	kept := refs[:0]
	dropped := 0
	for _, ref := range refs {
		found := false
		for _, doc := range docs {
			if helpers.SameURL(ref.URL, doc.URL) {
				found = true
				break
			}
		}
		if found {
			kept = append(kept, ref)
		} else {
			dropped++
			a.logger.Printf("dropping ungrounded reference %q", ref.URL)
		}
	}
	if dropped > 0 {
		a.telemetry.RecordDroppedReferences(dropped)
	}
	return kept
}
