package ollama

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/benefits-navigator/internal/infrastructure/resilience"
)

// Client talks to a local Ollama instance over its REST API and implements
// the answer-generator port. Generation runs once per uncached question, so
// the transport timeout is generous; the caller applies its own deadline.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	exec       *resilience.Executor
	logger     *slog.Logger
}

func New(baseURL, model string, exec *resilience.Executor, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		exec:       exec,
		logger:     logger,
	}
}

// Generate produces an answer grounded in the supplied context blob. The
// model is instructed to cite sources in the bracketed form the citation
// extractor understands and to say so plainly when the context is thin.
func (c *Client) Generate(ctx context.Context, contextBlob, question, systemPrompt string) (string, error) {
	prompt := buildAnswerPrompt(systemPrompt, question, contextBlob)

	reqBody := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
	}

	var response struct {
		Response string `json:"response"`
	}
	run := func(ctx context.Context) error {
		return c.postJSON(ctx, "/api/generate", reqBody, &response, "generate")
	}

	var err error
	if c.exec != nil {
		err = c.exec.Execute(ctx, "ollama generate", run, classifyOllamaError)
	} else {
		err = run(ctx)
	}
	if err != nil {
		return "", err
	}

	answer := strings.TrimSpace(response.Response)
	c.logger.Debug("generation_complete", "model", c.model, "answer_chars", len(answer))
	return answer, nil
}
