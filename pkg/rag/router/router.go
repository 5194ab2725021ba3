package router

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"unicode/utf8"

	"rag-assistant-be/pkg/llm"
	"rag-assistant-be/pkg/rag/index"
)

// Decision is the result of routing one query: the ordered set of indexes
// to consult, plus whether retrieval was invoked at all. The flag exists
// for observability and testing, not for correctness.
type Decision struct {
	Selected      []*index.VectorIndex
	UsedRetrieval bool
	Reason        string
}

// Router decides which (if any) vector indexes a query should consult.
// Implementations are strategy objects injected by composition.
type Router interface {
	Route(ctx context.Context, query string, available []*index.VectorIndex) Decision
}

// SmartRouter is the two-stage router: a cheap conversational heuristic
// first, then a model-assisted classification against the index
// descriptions. Stage one short-circuits stage two.
type SmartRouter struct {
	llmProvider    llm.LLMProvider
	logger         *log.Logger
	shortQueryLen  int
	conversational []string
}

// Conversational markers: greetings, thanks, farewells. The corpus is
// bilingual so both French and English forms are matched.
var defaultConversationalMarkers = []string{
	"bonjour", "salut", "hello", "hi", "bonsoir",
	"comment vas-tu", "comment allez-vous", "ça va",
	"merci", "thanks", "thank you",
	"au revoir", "bye", "goodbye", "à bientôt", "see you",
}

func NewSmartRouter(llmProvider llm.LLMProvider, logger *log.Logger, shortQueryLen int) *SmartRouter {
	if shortQueryLen <= 0 {
		shortQueryLen = 20
	}
	return &SmartRouter{
		llmProvider:    llmProvider,
		logger:         logger,
		shortQueryLen:  shortQueryLen,
		conversational: defaultConversationalMarkers,
	}
}

var _ Router = &SmartRouter{}

// Route evaluates the two stages in order.
func (r *SmartRouter) Route(ctx context.Context, query string, available []*index.VectorIndex) Decision {
	r.logger.Printf("[ROUTER] Analyzing query: %s", truncateLog(query, 80))

	if len(available) == 0 {
		return Decision{Reason: "no indexes available"}
	}

	// Stage 1: conversational heuristic, no model call
	if r.isConversational(query) {
		r.logger.Printf("[ROUTER] Decision: NO RETRIEVAL (conversational query)")
		return Decision{Reason: "conversational"}
	}

	// Stage 2: model-assisted classification
	if len(available) == 1 {
		return r.classifySingle(ctx, query, available)
	}
	return r.classifyMulti(ctx, query, available)
}

// isConversational applies the fixed marker list plus the short-query
// rule: short text with no question mark is small talk.
func (r *SmartRouter) isConversational(query string) bool {
	normalized := strings.ToLower(strings.TrimSpace(query))

	for _, marker := range r.conversational {
		if strings.Contains(normalized, marker) {
			return true
		}
	}

	return utf8.RuneCountInString(normalized) < r.shortQueryLen &&
		!strings.Contains(normalized, "?")
}

// classifySingle asks the model a yes/no question phrased with the single
// index's description.
func (r *SmartRouter) classifySingle(ctx context.Context, query string, available []*index.VectorIndex) Decision {
	idx := available[0]
	prompt := fmt.Sprintf(`Does the following question require searching %s?

Question: "%s"

Answer only 'yes' or 'no'.`, idx.Description(), query)

	response, err := r.llmProvider.Generate(ctx, prompt,
		llm.WithTemperature(0.0), llm.WithMaxTokens(8))
	if err != nil {
		// Fail open: over-retrieval beats silently dropping grounding
		r.logger.Printf("[ROUTER] Classification failed (%v), failing open to retrieval", err)
		return Decision{
			Selected:      available,
			UsedRetrieval: true,
			Reason:        "classifier failure, fail open",
		}
	}

	answer := strings.ToLower(strings.TrimSpace(response))
	r.logger.Printf("[ROUTER] Model classification: %s", truncateLog(answer, 40))

	if strings.Contains(answer, "yes") || strings.Contains(answer, "oui") {
		r.logger.Printf("[ROUTER] Decision: RETRIEVE from %s", idx.Label())
		return Decision{
			Selected:      []*index.VectorIndex{idx},
			UsedRetrieval: true,
			Reason:        "model selected index",
		}
	}

	r.logger.Printf("[ROUTER] Decision: NO RETRIEVAL (model declined)")
	return Decision{Reason: "model declined"}
}

// classifyMulti presents every index description as a numbered option and
// lets the model pick zero, one, or many by relevance (multi-label, not
// forced single choice).
func (r *SmartRouter) classifyMulti(ctx context.Context, query string, available []*index.VectorIndex) Decision {
	var prompt strings.Builder
	prompt.WriteString("You route questions to document collections. Collections:\n")
	for i, idx := range available {
		fmt.Fprintf(&prompt, "%d. %s\n", i+1, idx.Description())
	}
	fmt.Fprintf(&prompt, `
Question: "%s"

Which collections are relevant? Answer with the matching numbers separated
by commas (e.g. "1" or "1,2"), or "none" if no collection applies.`, query)

	response, err := r.llmProvider.Generate(ctx, prompt.String(),
		llm.WithTemperature(0.0), llm.WithMaxTokens(16))
	if err != nil {
		r.logger.Printf("[ROUTER] Classification failed (%v), failing open to retrieval", err)
		return Decision{
			Selected:      available,
			UsedRetrieval: true,
			Reason:        "classifier failure, fail open",
		}
	}

	selected := parseSelection(response, available)
	if len(selected) == 0 {
		r.logger.Printf("[ROUTER] Decision: NO RETRIEVAL (model answered %s)", truncateLog(response, 40))
		return Decision{Reason: "model selected none"}
	}

	labels := make([]string, len(selected))
	for i, idx := range selected {
		labels[i] = idx.Label()
	}
	r.logger.Printf("[ROUTER] Decision: RETRIEVE from %s", strings.Join(labels, ", "))

	return Decision{
		Selected:      selected,
		UsedRetrieval: true,
		Reason:        "model selected indexes",
	}
}

// parseSelection extracts 1-based option numbers from the model answer,
// keeping the presentation order and dropping duplicates and junk.
func parseSelection(response string, available []*index.VectorIndex) []*index.VectorIndex {
	answer := strings.ToLower(strings.TrimSpace(response))
	if strings.Contains(answer, "none") {
		return nil
	}

	picked := make(map[int]bool)
	for _, field := range strings.FieldsFunc(answer, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '.' || r == ';'
	}) {
		n, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		if n >= 1 && n <= len(available) {
			picked[n-1] = true
		}
	}

	var selected []*index.VectorIndex
	for i := range available {
		if picked[i] {
			selected = append(selected, available[i])
		}
	}
	return selected
}

// truncateLog truncates string for logging. Slices on runes so a
// multi-byte character is never cut in half.
func truncateLog(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
