package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/ZaguanLabs/hankey"
)

const (
	defaultModel       = "gpt-4o-mini"
	defaultTemperature = 0.2
)

// OpenAIProvider translates a batch with one JSON-mode chat completion. Texts
// are sent as an object keyed by position so the answer can be matched back
// even when the model reorders or drops entries.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
}

// OpenAIConfig configures an OpenAIProvider. BaseURL points it at any
// OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey      string
	Model       string  // default gpt-4o-mini
	Temperature float32 // default 0.2
	BaseURL     string
}

// NewOpenAIProvider creates an OpenAIProvider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	cc.HTTPClient = &http.Client{Transport: userAgent{next: http.DefaultTransport}}

	p := &OpenAIProvider{
		client:      openai.NewClientWithConfig(cc),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
	if p.model == "" {
		p.model = defaultModel
	}
	if p.temperature == 0 {
		p.temperature = defaultTemperature
	}
	return p
}

// userAgent tags outgoing requests with the tool name and version.
type userAgent struct {
	next http.RoundTripper
}

func (u userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("User-Agent", hankey.UserAgent())
	return u.next.RoundTrip(r)
}

// Translate implements hankey.Backend.
func (p *OpenAIProvider) Translate(ctx context.Context, req TranslateRequest) (map[string]string, error) {
	if len(req.Texts) == 0 {
		return map[string]string{}, nil
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: p.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: userMessage(req.Texts)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, &hankey.ProviderError{
			Message:   "chat completion failed",
			Cause:     err,
			Retryable: transient(err),
		}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, &hankey.ProviderError{Message: "empty completion", Retryable: true}
	}
	if resp.Choices[0].FinishReason == openai.FinishReasonLength {
		return nil, &hankey.ProviderError{
			Message:   fmt.Sprintf("completion truncated after %d tokens; lower batch_size", resp.Usage.CompletionTokens),
			Retryable: false,
		}
	}

	return decodeAnswer(resp.Choices[0].Message.Content, req.Texts)
}

func systemPrompt(req TranslateRequest) string {
	src := req.SourceLang
	if src == "" {
		src = "zh"
	}
	from, to := hankey.LanguageName(src), hankey.LanguageName(req.TargetLang)

	var b strings.Builder
	fmt.Fprintf(&b, "You localize the user interface of a web application from %s to %s.\n", from, to)
	if req.Context != "" {
		fmt.Fprintf(&b, "Product context: %s. Match its tone.\n", req.Context)
	}

	b.WriteString("\nRules:\n")
	b.WriteString("- Translate for meaning. Buttons and labels stay short.\n")
	b.WriteString("- Positional placeholders like {0} and {1} must survive unchanged; reorder them if the grammar needs it.\n")
	b.WriteString("- Leave HTML tags, URLs and code untouched and keep leading or trailing spaces.\n")
	fmt.Fprintf(&b, "- Use %s punctuation.\n", to)
	if hankey.IsRTL(req.TargetLang) {
		b.WriteString("- The target script runs right to left; do not mirror placeholders.\n")
	}

	if len(req.Glossary) > 0 {
		terms := make([]string, 0, len(req.Glossary))
		for term := range req.Glossary {
			terms = append(terms, term)
		}
		sort.Strings(terms)

		b.WriteString("\nAlways use these terms:\n")
		for _, term := range terms {
			fmt.Fprintf(&b, "- %q => %q\n", term, req.Glossary[term])
		}
	}

	b.WriteString("\nThe input is a JSON object mapping ids to source strings. ")
	b.WriteString(`Answer with a JSON object mapping the same ids to translations, e.g. {"1": "...", "2": "..."}. `)
	b.WriteString("No Markdown, no commentary.")
	return b.String()
}

// userMessage numbers texts from 1.
func userMessage(texts []string) string {
	in := make(map[string]string, len(texts))
	for i, text := range texts {
		in[strconv.Itoa(i+1)] = text
	}
	data, _ := json.Marshal(in)
	return string(data)
}

// decodeAnswer maps the model output back onto texts. The id object is the
// expected shape; an object wrapping it or a bare array in input order are
// tolerated.
func decodeAnswer(content string, texts []string) (map[string]string, error) {
	var raw any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, &hankey.ProviderError{Message: "completion is not JSON", Cause: err}
	}

	if obj, ok := raw.(map[string]any); ok && len(obj) == 1 {
		for _, v := range obj {
			switch v.(type) {
			case map[string]any, []any:
				raw = v
			}
		}
	}

	switch v := raw.(type) {
	case []any:
		if len(v) != len(texts) {
			return nil, &hankey.CountMismatchError{Expected: len(texts), Got: len(v)}
		}
		out := make(map[string]string, len(texts))
		for i, item := range v {
			out[texts[i]] = stringify(item)
		}
		return out, nil

	case map[string]any:
		out := make(map[string]string, len(texts))
		var missing []string
		for i, text := range texts {
			item, ok := v[strconv.Itoa(i+1)]
			if s := stringify(item); ok && s != "" {
				out[text] = s
				continue
			}
			missing = append(missing, text)
		}
		if len(missing) > 0 {
			return nil, &hankey.ShapeError{Missing: missing}
		}
		return out, nil
	}

	return nil, &hankey.ProviderError{Message: fmt.Sprintf("unexpected completion shape %T", raw)}
}

func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

// transient reports whether a failed call may succeed when repeated:
// throttling, server errors and network timeouts.
func transient(err error) bool {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	if status == http.StatusTooManyRequests || status >= 500 {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

var _ Backend = (*OpenAIProvider)(nil)
