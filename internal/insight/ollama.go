package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/sony/gobreaker"

	"airwatch-platform/internal/models"
)

const (
	DefaultOllamaModel   = "llama2"
	DefaultOllamaTimeout = 15 * time.Second
)

var (
	errEmptyResponse = errors.New("empty insight response")
	errUnexpected    = errors.New("unexpected status code")
	errCircuitOpen   = errors.New("circuit breaker open")
)

var promptTemplate = template.Must(template.New("prompt").Parse(
	`You are an air quality expert. Give 2-3 short, practical insights for {{.Place}} based on these measurements.

Location: {{.Place}}
Overall AQI: {{.AQIValue}} ({{.AQICategory}})
Primary pollutant: {{.PrimaryPollutant}}
PM2.5: {{.PM25}} ug/m3
PM10: {{.PM10}} ug/m3
Ozone (O3): {{.O3}} ppb
Nitrogen dioxide (NO2): {{.NO2}} ppb
Sulfur dioxide (SO2): {{.SO2}} ppb
Carbon monoxide (CO): {{.CO}} ppm
Temperature: {{.Temperature}} C
Humidity: {{.Humidity}}%

Keep each insight to one or two plain sentences, refer to the place as "{{.Place}}",
and say what the person should do right now (for example "check for nearby fires" when CO is high).

Insights:`))

type promptData struct {
	Place string
	models.Reading
}

// OllamaConfig configures the remote model client
type OllamaConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OllamaGenerator asks an Ollama server for free-form advice. Calls are
// bounded by Timeout and short-circuited while the server keeps failing;
// they are never retried.
type OllamaGenerator struct {
	baseURL string
	model   string
	timeout time.Duration
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewOllamaGenerator creates a client for cfg. A nil client uses a default
// one bounded by the configured timeout.
func NewOllamaGenerator(cfg OllamaConfig, client *http.Client) *OllamaGenerator {
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultOllamaTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ollama",
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &OllamaGenerator{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		client:  client,
		circuit: cb,
	}
}

func (g *OllamaGenerator) Name() string {
	return "ollama"
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate sends one non-streaming generate request
func (g *OllamaGenerator) Generate(ctx context.Context, place string, r models.Reading) (Insight, error) {
	var prompt bytes.Buffer
	if err := promptTemplate.Execute(&prompt, promptData{Place: place, Reading: r}); err != nil {
		return Insight{}, fmt.Errorf("failed to render prompt: %w", err)
	}

	body, err := json.Marshal(generateRequest{
		Model:  g.model,
		Prompt: prompt.String(),
		Stream: false,
		Options: generateOptions{
			Temperature: 0.8,
			TopP:        0.9,
		},
	})
	if err != nil {
		return Insight{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	result, err := g.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/generate", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
		}

		var payload generateResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		text := strings.TrimSpace(payload.Response)
		if text == "" {
			return nil, errEmptyResponse
		}
		return text, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Insight{}, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return Insight{}, err
	}

	return Insight{Text: result.(string), Source: g.Name()}, nil
}
