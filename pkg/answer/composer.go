// Package answer composes the final cited answer from the ranked chunks:
// context assembly, mode-specific prompting, citation extraction, and the
// numbered bibliography.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/llms"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/planner"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/retrieval"
)

const (
	// NoResultsText is returned when retrieval produced nothing at all.
	NoResultsText = "I couldn't find relevant information to answer this question."

	// NoAnswerText is returned when generation fails or times out.
	NoAnswerText = "No answer could be generated for this query."

	maxBlockChars  = 800
	maxBlockTokens = 220
	maxHistory     = 10
)

// Turn is one prior conversation exchange.
type Turn struct {
	Role    string // user or assistant
	Content string
}

// Upload is caller-provided external context. Uploads are background
// material only; they never receive citation numbers.
type Upload struct {
	Name    string
	Content string
}

// Input is everything the composer needs for one answer.
type Input struct {
	Plan       *planner.Plan
	Candidates []retrieval.Candidate
	History    []Turn
	Uploads    []Upload
}

// Answer is the composed result.
type Answer struct {
	Text         string              `json:"text"`
	Citations    []int               `json:"citations"`
	Bibliography []BibliographyEntry `json:"bibliography"`
	Confidence   float64             `json:"confidence"`
}

// Composer turns ranked chunks into a cited answer.
type Composer struct {
	synth     llms.Synthesizer
	maxTokens int
	enc       *tiktoken.Tiktoken
}

// New creates a composer. synth may be nil; composition then degrades to the
// no-answer text with the bibliography intact.
func New(synth llms.Synthesizer, maxTokens int) *Composer {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		slog.Warn("Token encoder unavailable, using character truncation", "error", err)
		enc = nil
	}
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &Composer{synth: synth, maxTokens: maxTokens, enc: enc}
}

var citationRe = regexp.MustCompile(`\[(\d+)\]`)

// Compose builds the prompt, calls the model, and post-processes citations.
func (c *Composer) Compose(ctx context.Context, in Input) *Answer {
	if len(in.Candidates) == 0 {
		return &Answer{Text: NoResultsText, Confidence: 0}
	}

	contextSection, bibliography := c.buildContext(in.Candidates)

	if c.synth == nil {
		return &Answer{Text: NoAnswerText, Bibliography: bibliography, Confidence: 0}
	}

	prompt := c.buildPrompt(in, contextSection)
	temperature := 0.1
	if in.Plan.Mode == planner.ModeBrainstorm {
		temperature = 0.4
	}

	resp, err := c.synth.Generate(ctx, llms.Request{
		TaskType:    "compose",
		System:      systemInstructions,
		Prompt:      prompt,
		Temperature: temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil || resp == nil || strings.TrimSpace(resp.Text) == "" {
		if err != nil {
			slog.Warn("Answer generation failed", "error", err)
		}
		return &Answer{Text: NoAnswerText, Bibliography: bibliography, Confidence: 0}
	}

	text := sanitize(resp.Text)
	citations := extractCitations(text, len(in.Candidates))

	ans := &Answer{
		Text:         text,
		Citations:    citations,
		Bibliography: bibliography,
	}
	ans.Confidence = confidence(text, citations)
	return ans
}

// buildContext renders the numbered context blocks and the matching
// bibliography. Numbers are assigned here, after final truncation, so they
// are stable for a given plan and store snapshot.
func (c *Composer) buildContext(cands []retrieval.Candidate) (string, []BibliographyEntry) {
	var sb strings.Builder
	bibliography := make([]BibliographyEntry, 0, len(cands))

	for i := range cands {
		number := i + 1
		sb.WriteString(blockHeader(number, &cands[i]))
		sb.WriteString("\n")
		sb.WriteString(c.truncate(cands[i].Content))
		sb.WriteString("\n\n")
		bibliography = append(bibliography, formatBibliographyEntry(number, &cands[i]))
	}
	return sb.String(), bibliography
}

// truncate caps a chunk body by tokens when the encoder is available, by
// characters otherwise.
func (c *Composer) truncate(text string) string {
	if c.enc != nil {
		tokens := c.enc.Encode(text, nil, nil)
		if len(tokens) > maxBlockTokens {
			return c.enc.Decode(tokens[:maxBlockTokens]) + "…"
		}
		return text
	}
	if len(text) > maxBlockChars {
		return text[:maxBlockChars] + "…"
	}
	return text
}

const systemInstructions = "You are a policy research assistant for the Andhra Pradesh school education department. " +
	"Answer only from the numbered sources provided. Every factual claim MUST carry a bracketed " +
	"citation [K] where K is the source number. Never invent sources or cite numbers that were not provided."

var modeTemplates = map[planner.SynthesisStyle]string{
	planner.StyleConcise: "Answer the question concisely and precisely using the sources below. " +
		"Cite every factual claim with [K].\n\nSources:\n%s\nQuestion: %s\n\nAnswer:",
	planner.StyleDeepPolicy: "Write a structured policy analysis of the question using the sources below. " +
		"Organize the answer with clear sections covering the legal framework, administrative orders, and " +
		"implementation status. Cite every factual claim with [K].\n\nSources:\n%s\nQuestion: %s\n\nAnalysis:",
	planner.StyleExploratory: "Explore the question creatively using the sources below as grounding. " +
		"Suggest diverse, innovative directions, drawing on global and international best practices where " +
		"the sources support them. Cite supporting sources with [K] where applicable.\n\nSources:\n%s\nQuestion: %s\n\nIdeas:",
}

func (c *Composer) buildPrompt(in Input, contextSection string) string {
	template, ok := modeTemplates[in.Plan.Style]
	if !ok {
		template = modeTemplates[planner.StyleConcise]
	}

	var sb strings.Builder

	if len(in.History) > 0 {
		history := in.History
		if len(history) > maxHistory {
			history = history[len(history)-maxHistory:]
		}
		sb.WriteString("Conversation so far:\n")
		for _, turn := range history {
			fmt.Fprintf(&sb, "%s: %s\n", turn.Role, turn.Content)
		}
		sb.WriteString("\n")
	}

	if len(in.Uploads) > 0 {
		sb.WriteString("--- Additional context from uploaded files (background only, not citable) ---\n")
		for _, up := range in.Uploads {
			fmt.Fprintf(&sb, "File %s:\n%s\n", up.Name, c.truncate(up.Content))
		}
		sb.WriteString("--- End of uploaded context ---\n\n")
	}

	fmt.Fprintf(&sb, template, contextSection, in.Plan.OriginalQuery)
	return sb.String()
}

// extractCitations returns the distinct in-range citation numbers in first
// occurrence order.
func extractCitations(text string, max int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, m := range citationRe.FindAllStringSubmatch(text, -1) {
		k, err := strconv.Atoi(m[1])
		if err != nil || k < 1 || k > max || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

func confidence(text string, citations []int) float64 {
	conf := 0.5
	if len(citations) > 0 {
		conf += 0.3
	}
	if len(text) > 200 {
		conf += 0.1
	}
	if len(citations) >= 3 {
		conf += 0.1
	}
	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}

// SortedCitations returns the citations in ascending order, for display.
func (a *Answer) SortedCitations() []int {
	out := make([]int, len(a.Citations))
	copy(out, a.Citations)
	sort.Ints(out)
	return out
}
