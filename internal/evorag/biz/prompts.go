package biz

import (
	"fmt"
	"os"
	"strings"
)

// DefaultRewriteTemplate is used when no rewrite prompt file is configured.
// {query} is replaced with the user query.
const DefaultRewriteTemplate = `You are an expert at reformulating questions for semantic search over a document collection.
Rewrite the user's question so that it retrieves the most relevant passages: keep the original intent,
expand abbreviations, add precise keywords and close synonyms, and remove conversational filler.
Do not answer the question and do not invent details that are not implied by it.

User question: {query}`

// DefaultSynthesisTemplate is used when no synthesis prompt file is configured.
// {context} and {query} are replaced with the retrieved context and the
// original user query.
const DefaultSynthesisTemplate = `You are a helpful assistant that answers questions using ONLY the provided context.
Each context passage is preceded by a line of the form [Source: <file>].
If the context does not contain the answer, say that you could not find it in the documents.

Context:
{context}

Question: {query}

Write a concise, accurate answer. Then, on a new line, write "Citations:" followed by the
source file names you used, one per line, each prefixed with "- ".`

// rewriteJSONInstruction is appended to the rendered rewrite template.
const rewriteJSONInstruction = "\n\nOutput your final rewritten query in a JSON object like this: {\"rewritten_query\": \"your rewritten query here\"}"

// Prompts holds the rewrite and synthesis templates.
type Prompts struct {
	Rewrite   string
	Synthesis string
}

// DefaultPrompts returns the built-in templates.
func DefaultPrompts() *Prompts {
	return &Prompts{Rewrite: DefaultRewriteTemplate, Synthesis: DefaultSynthesisTemplate}
}

// LoadPrompts reads templates from files. An empty path keeps the default.
func LoadPrompts(rewritePath, synthesisPath string) (*Prompts, error) {
	p := DefaultPrompts()

	load := func(path string, dst *string, want ...string) error {
		if path == "" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("prompt template file not found at %s: %w", path, err)
		}
		tpl := string(data)
		for _, ph := range want {
			if !strings.Contains(tpl, ph) {
				return fmt.Errorf("prompt template %s lacks placeholder %s", path, ph)
			}
		}
		*dst = tpl
		return nil
	}

	if err := load(rewritePath, &p.Rewrite, "{query}"); err != nil {
		return nil, err
	}
	if err := load(synthesisPath, &p.Synthesis, "{context}", "{query}"); err != nil {
		return nil, err
	}
	return p, nil
}

// RenderRewrite renders the rewrite prompt including the JSON instruction.
func (p *Prompts) RenderRewrite(query string) string {
	return strings.ReplaceAll(p.Rewrite, "{query}", query) + rewriteJSONInstruction
}

// RenderSynthesis renders the synthesis prompt in a single pass.
func (p *Prompts) RenderSynthesis(context, query string) string {
	return strings.NewReplacer("{context}", context, "{query}", query).Replace(p.Synthesis)
}
