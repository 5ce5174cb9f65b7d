package ollama

import "fmt"

const defaultSystemPrompt = `You answer questions about government benefit programs using only the numbered provisions below.
Cite every claim in the form [Provision Title, Section N].
If the provisions do not cover the question, say you don't know instead of guessing.`

func buildAnswerPrompt(systemPrompt, question, contextBlob string) string {
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}
	if contextBlob == "" {
		contextBlob = "(no provisions were found for this question)"
	}

	return fmt.Sprintf(`%s

Question:
%s

Provisions:
%s
`, systemPrompt, question, contextBlob)
}
