package agent

import (
	"fmt"
	"strings"
)

// systemPrompt steers the decision oracle through the canonical capability
// order. The once-per-session rule is stated up front because the executor
// enforces it anyway; telling the model saves wasted turns.
const systemPrompt = `You are an invention prior-art checking assistant. The user describes an invention idea and you determine whether something similar already exists.

Work through these steps in order, using the available tools:
1. Call parse_idea to extract a concise summary and keywords from the idea.
2. Call embed_idea to compute an embedding of the parsed summary.
3. Call search_patents, search_academic, and search_web to look for similar existing work. These three searches are independent and may be requested together.
4. Call compare_similarity to score the search results against the idea embedding.
5. Call summarize_results to produce the final verdict for the user.

Each tool may be called at most once. Do not call a tool again after it has been executed. After summarize_results has run, present its verdict to the user as your final answer and stop calling tools.`

// parseSystemPrompt drives the structured-output extraction for parse_idea.
const parseSystemPrompt = `You extract the essence of invention ideas. Given an idea, produce a one-to-two sentence summary of what the invention is and does, plus 3-8 short keywords useful for searching patents, academic papers, and the web. Respond with the requested JSON only.`

// Verdict labels referenced by the summarization prompt. The model picks one;
// the no-matches case short-circuits to noMatchesVerdict without a model call.
const (
	VerdictLikelyOriginal     = "Likely original"
	VerdictPossiblyOverlapped = "Possibly overlapping with existing inventions"
	VerdictClearlyExisting    = "Clearly already existing"
)

const noMatchesVerdict = "Verdict: " + VerdictLikelyOriginal + "\n\n" +
	"No similar inventions, products, or academic papers were found. " +
	"The idea appears to be unique based on the conducted search."

// summarizePrompt renders the matched results into the verdict-writing prompt.
func summarizePrompt(idea string, matches []Match) string {
	var b strings.Builder
	b.WriteString("The user described this invention idea:\n\n")
	b.WriteString(idea)
	b.WriteString("\n\nThe following similar existing works were found (similarity is cosine similarity to the idea, higher means closer):\n\n")
	for i, m := range matches {
		fmt.Fprintf(&b, "%d. [%s] %s (similarity %.2f)\n", i+1, m.Source, m.Details.Title, m.Similarity)
		if m.Details.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", m.Details.Snippet)
		}
		if m.Details.Link != "" {
			fmt.Fprintf(&b, "   %s\n", m.Details.Link)
		}
	}
	b.WriteString("\nWrite a short report for the user. Start with exactly one line of the form \"Verdict: <label>\" where <label> is one of \"")
	b.WriteString(VerdictLikelyOriginal)
	b.WriteString("\", \"")
	b.WriteString(VerdictPossiblyOverlapped)
	b.WriteString("\" or \"")
	b.WriteString(VerdictClearlyExisting)
	b.WriteString("\". Then explain the verdict in a few sentences, citing the most relevant findings with their links.")
	return b.String()
}
