package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/finqa-labs/finqa-be/database"
	"github.com/finqa-labs/finqa-be/types"
)

// Generator produces text from a fully rendered prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// StreamGenerator is implemented by backends that can deliver the answer
// incrementally.
type StreamGenerator interface {
	GenerateStream(ctx context.Context, prompt string, handler types.StreamHandler) error
}

const answerPromptTemplate = `You are an expert financial analyst assistant specializing in financial statement analysis. Your task is to provide comprehensive answers about financial data based on the provided context.

FINANCIAL ANALYSIS GUIDELINES:
1. **Revenue Analysis**: When asked about revenue, provide total figures, growth rates, and segment breakdowns if available
2. **Profitability Metrics**: Calculate and explain profit margins, operating profit growth, net income changes
3. **Cost Analysis**: Identify and categorize main cost items (COGS, operating expenses, interest, taxes)
4. **Cash Flow Assessment**: Analyze operating, investing, and financing cash flows; comment on liquidity
5. **Financial Ratios**: Calculate debt ratios, current ratios, ROE, ROA when data is available
6. **Trend Analysis**: Compare year-over-year changes and identify patterns
7. **Context Citation**: Always reference specific pages and sections from the source documents

RESPONSE FORMAT:
- Start with a direct answer to the question
- Provide specific numbers with currency and time periods
- Include relevant calculations and percentages
- Cite page references for all data points
- If data is incomplete, clearly state what's missing

IMPORTANT: Base your analysis ONLY on the provided context. If information is not available in the context, explicitly state this limitation.

Context from financial documents:
%s

Previous conversation (if any):
%s

Question: %s

Please provide a comprehensive answer based on the document context above.
`

const (
	emptyContextSentinel = "No relevant documents found."
	fallbackAnswer       = "I apologize, but I couldn't generate a response. Please try rephrasing your question."

	// maxHistoryTurns bounds how much conversation is rendered into the
	// prompt, not how much is stored per session.
	maxHistoryTurns = 10

	sourceContentLimit = 500
)

// financialSynonyms drives query expansion. Order matters: the first
// keyword found in the question wins and expansions never stack, matching
// the documented default behavior.
var financialSynonyms = []struct {
	keyword  string
	synonyms []string
}{
	{"revenue", []string{"sales", "income", "turnover"}},
	{"profit", []string{"earnings", "net income", "profit margin"}},
	{"debt", []string{"liabilities", "borrowings", "obligations"}},
	{"assets", []string{"total assets", "current assets", "fixed assets"}},
	{"cash flow", []string{"operating cash flow", "free cash flow", "cash position"}},
	{"ratios", []string{"financial ratios", "performance metrics", "key indicators"}},
}

// RAGService orchestrates the retrieval-augmented answer path: query
// expansion, similarity retrieval, context assembly, prompt rendering,
// generation and source attribution.
type RAGService struct {
	index     database.VectorIndex
	generator Generator
	topK      int
	timeout   time.Duration
}

func NewRAGService(index database.VectorIndex, generator Generator, topK int, timeout time.Duration) *RAGService {
	return &RAGService{
		index:     index,
		generator: generator,
		topK:      topK,
		timeout:   timeout,
	}
}

// GenerateAnswer runs the full pipeline for one question. The returned
// sources always reflect the retrieved chunks; an empty model response is
// a success carrying the fallback answer, while a failed or timed-out
// model call maps to ErrGeneration or ErrGenerationTimeout.
func (s *RAGService) GenerateAnswer(ctx context.Context, question string, history []types.Message) (*types.ChatResult, error) {
	scored := s.retrieve(ctx, question)
	prompt := s.buildPrompt(question, history, scored)

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	answer, err := s.generator.Generate(genCtx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", types.ErrGenerationTimeout, s.timeout)
		}
		return nil, fmt.Errorf("%w: %v", types.ErrGeneration, err)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		answer = fallbackAnswer
	}

	return &types.ChatResult{
		Answer:  answer,
		Sources: makeSources(scored),
	}, nil
}

// StreamAnswer is the incremental variant used by the websocket endpoint.
// Sources are returned once the stream completes.
func (s *RAGService) StreamAnswer(ctx context.Context, question string, history []types.Message, handler types.StreamHandler) (string, []types.Source, error) {
	scored := s.retrieve(ctx, question)
	prompt := s.buildPrompt(question, history, scored)

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var full strings.Builder
	collect := func(chunk string) {
		full.WriteString(chunk)
		handler(chunk)
	}

	var err error
	if sg, ok := s.generator.(StreamGenerator); ok {
		err = sg.GenerateStream(genCtx, prompt, collect)
	} else {
		var answer string
		answer, err = s.generator.Generate(genCtx, prompt)
		if err == nil {
			collect(answer)
		}
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", nil, fmt.Errorf("%w after %s", types.ErrGenerationTimeout, s.timeout)
		}
		return "", nil, fmt.Errorf("%w: %v", types.ErrGeneration, err)
	}

	answer := strings.TrimSpace(full.String())
	if answer == "" {
		answer = fallbackAnswer
		handler(answer)
	}
	return answer, makeSources(scored), nil
}

// retrieve expands the query and searches the index. Retrieval failures
// degrade to an empty result so the request can still be answered with the
// sentinel context.
func (s *RAGService) retrieve(ctx context.Context, question string) []types.ScoredChunk {
	expanded := expandFinancialQuery(question)
	scored, err := s.index.Search(ctx, expanded, s.topK)
	if err != nil {
		log.Printf("Error retrieving chunks for question %q: %v", question, err)
		return nil
	}
	log.Printf("Retrieved %d relevant chunks for query", len(scored))
	return scored
}

func (s *RAGService) buildPrompt(question string, history []types.Message, scored []types.ScoredChunk) string {
	return fmt.Sprintf(answerPromptTemplate,
		buildContext(scored),
		formatHistory(history),
		question,
	)
}

// expandFinancialQuery appends domain synonyms when the question mentions
// a known financial keyword. First match wins.
func expandFinancialQuery(query string) string {
	queryLower := strings.ToLower(query)
	for _, entry := range financialSynonyms {
		if strings.Contains(queryLower, entry.keyword) {
			return query + " " + strings.Join(entry.synonyms, " ")
		}
	}
	return query
}

// buildContext renders retrieved chunks as labeled citation blocks.
func buildContext(scored []types.ScoredChunk) string {
	if len(scored) == 0 {
		return emptyContextSentinel
	}

	parts := make([]string, 0, len(scored))
	for i, sc := range scored {
		filename := sc.Chunk.Metadata.Filename
		if filename == "" {
			filename = "Unknown"
		}
		parts = append(parts, fmt.Sprintf(
			"Document %d (from %s, page %d, relevance: %.2f):\n%s\n",
			i+1, filename, sc.Chunk.Page, sc.Score, sc.Chunk.Content,
		))
	}
	return strings.Join(parts, "\n")
}

// formatHistory renders at most the last maxHistoryTurns turns as a
// role-prefixed transcript.
func formatHistory(history []types.Message) string {
	if len(history) == 0 {
		return ""
	}
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}

	parts := make([]string, 0, len(history))
	for _, msg := range history {
		parts = append(parts, capitalize(msg.Role)+": "+msg.Content)
	}
	return strings.Join(parts, "\n")
}

func makeSources(scored []types.ScoredChunk) []types.Source {
	sources := make([]types.Source, 0, len(scored))
	for _, sc := range scored {
		content := sc.Chunk.Content
		if len(content) > sourceContentLimit {
			content = content[:sourceContentLimit] + "..."
		}
		sources = append(sources, types.Source{
			Content:  content,
			Page:     sc.Chunk.Page,
			Score:    sc.Score,
			Metadata: sc.Chunk.Metadata,
		})
	}
	return sources
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
