package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/incidentd/internal/temporal"
)

// Default configuration values.
const (
	defaultLLMHost  = "http://localhost:11434"
	defaultLLMModel = "llama3.2"
	defaultTimeout  = 60 * time.Second
)

// Rate limiter defaults: a small local model serves one request at a
// time; 30 requests per minute with short bursts is plenty.
const (
	defaultRateLimit = 30.0 / 60.0
	defaultBurst     = 5
)

// systemPrompt pins the model to the extraction contract: only the given
// text, exactly the four fields, one JSON object, empty strings for
// unknowns, original language preserved.
const systemPrompt = "Você é um extrator de informações especializado em incidentes. Siga estritamente as regras abaixo:\n" +
	"1) Trabalhe APENAS com o texto fornecido na solicitação. Não invente, traduza ou enriqueça dados externos.\n" +
	"2) Extraia exclusivamente os campos data_ocorrencia, local, tipo_incidente e impacto.\n" +
	"3) Responda sempre um único objeto JSON válido, sem Markdown, sem comentários, sem explicações.\n" +
	"4) Utilize string vazia (\"\") quando um campo estiver ausente ou não puder ser determinado.\n" +
	"5) Preserve o idioma original do texto ao preencher campos."

const userPromptFormat = "Data/hora de referência: %s.\n" +
	"Leia a descrição delimitada e devolva somente o JSON especificado.\n" +
	"Descrição do incidente (não resuma, não reformule):\n" +
	"<<<\n%s\n>>>\n" +
	"Formato de saída obrigatório (ordem fixa das chaves):\n" +
	"{\n" +
	"  \"data_ocorrencia\": \"YYYY-MM-DD HH:MM\",\n" +
	"  \"local\": \"string\",\n" +
	"  \"tipo_incidente\": \"string\",\n" +
	"  \"impacto\": \"string\"\n" +
	"}"

// jsonSpan recovers the first {...} block from a response that wraps the
// object in prose.
var jsonSpan = regexp.MustCompile(`(?s)\{.*\}`)

// chatRequest is the Ollama /api/chat request body.
type chatRequest struct {
	Model    string        `json:"model"`
	Format   string        `json:"format"`
	Messages []chatMessage `json:"messages"`
	Options  chatOptions   `json:"options"`
	Stream   bool          `json:"stream"`
}

// chatMessage is a single chat turn.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatOptions carries model sampling options. Temperature stays pinned to
// zero for deterministic extraction.
type chatOptions struct {
	Temperature float64 `json:"temperature"`
}

// chatResponse is the Ollama /api/chat response body. Some deployments
// answer with a bare "response" field instead of a message.
type chatResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Response string `json:"response"`
}

// Client queries an Ollama-compatible chat endpoint for the four incident
// fields. Every failure mode (transport, status, missing content,
// unparsable JSON) degrades to a nil result; the caller decides what a
// missing LLM answer means.
type Client struct {
	host       string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
	resolver   *temporal.Resolver
}

// NewClient creates an LLM extraction client. host is the Ollama base URL
// (no trailing path); timeout bounds the underlying HTTP request and is
// normally wider than the pipeline's own wait.
func NewClient(host, model string, timeout time.Duration, resolver *temporal.Resolver) *Client {
	if host == "" {
		host = defaultLLMHost
	}
	if model == "" {
		model = defaultLLMModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		host:  host,
		model: model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter:  rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		resolver: resolver,
	}
}

// Extract sends one synchronous, non-streaming chat request with forced
// JSON output and parses the four-field object out of the answer. refISO
// is embedded in the user prompt; when empty the current instant in the
// configured zone is used. A nil return means "no result", never an
// error: there is no retry within a single extraction.
func (c *Client) Extract(ctx context.Context, text, refISO string) LLMResult {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil
	}

	ref := refISO
	if ref == "" {
		ref = c.resolver.Now().Format(time.RFC3339)
	}

	payload := chatRequest{
		Model:  c.model,
		Format: "json",
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf(userPromptFormat, ref, text)},
		},
		Options: chatOptions{Temperature: 0},
		Stream:  false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != http.StatusOK {
		return nil
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return nil
	}

	content := cr.Message.Content
	if content == "" {
		content = cr.Response
	}
	if content == "" {
		return nil
	}

	return parseObject(content)
}

// parseObject parses the model output: direct JSON first, then a
// best-effort scan for an embedded {...} span.
func parseObject(content string) LLMResult {
	var out LLMResult
	if err := json.Unmarshal([]byte(content), &out); err == nil {
		return out
	}
	if span := jsonSpan.FindString(content); span != "" {
		out = nil
		if err := json.Unmarshal([]byte(span), &out); err == nil {
			return out
		}
	}
	return nil
}
