package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"taskflow/internal/errs"
)

const (
	inferenceBaseURL = "https://api-inference.huggingface.co/models/"
	defaultModel     = "mistralai/Mixtral-8x7B-Instruct-v0.1"
)

// RemoteSource calls the HuggingFace inference API and parses a strict JSON
// task object out of the generated text. Every failure mode is reported as
// an external-service error for the fallback wrapper to absorb.
type RemoteSource struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewRemoteSource creates a remote generator for the given model. An empty
// model selects the default.
func NewRemoteSource(apiKey, model string) *RemoteSource {
	if model == "" {
		model = defaultModel
	}
	return &RemoteSource{
		apiKey:  apiKey,
		baseURL: inferenceBaseURL,
		model:   model,
		client:  &http.Client{},
	}
}

type inferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters inferenceParameters `json:"parameters"`
}

type inferenceParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

type inferenceResponse []struct {
	GeneratedText string `json:"generated_text"`
}

// generatedTask tolerates an estimated_time sent as either number or string.
type generatedTask struct {
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Priority      string      `json:"priority"`
	EstimatedTime json.Number `json:"estimated_time"`
	Tags          []string    `json:"tags"`
}

var (
	codeFenceRe = regexp.MustCompile("(?i)```json\\s*|\\s*```")
	jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)
)

// Generate prompts the model for a structured task and decodes the first
// balanced JSON object from its reply.
func (r *RemoteSource) Generate(ctx context.Context, description string) (Payload, error) {
	if r.apiKey == "" {
		return Payload{}, fmt.Errorf("inference api key not set: %w", errs.ErrExternalService)
	}

	body, err := json.Marshal(inferenceRequest{
		Inputs: buildPrompt(description),
		Parameters: inferenceParameters{
			MaxNewTokens:   800,
			Temperature:    0.7,
			ReturnFullText: false,
		},
	})
	if err != nil {
		return Payload{}, fmt.Errorf("encode request: %w", errs.ErrExternalService)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+r.model, bytes.NewReader(body))
	if err != nil {
		return Payload{}, fmt.Errorf("build request: %w", errs.ErrExternalService)
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return Payload{}, fmt.Errorf("inference call: %v: %w", err, errs.ErrExternalService)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Payload{}, fmt.Errorf("read response: %v: %w", err, errs.ErrExternalService)
	}
	if resp.StatusCode != http.StatusOK {
		return Payload{}, fmt.Errorf("inference status %d: %s: %w", resp.StatusCode, raw, errs.ErrExternalService)
	}

	var decoded inferenceResponse
	if err := json.Unmarshal(raw, &decoded); err != nil || len(decoded) == 0 {
		return Payload{}, fmt.Errorf("unexpected inference response: %w", errs.ErrExternalService)
	}

	return parseGenerated(decoded[0].GeneratedText, description)
}

// parseGenerated strips code fences, extracts the first greedy {...} region
// and decodes it, filling defaults for fields the model left out.
func parseGenerated(content, description string) (Payload, error) {
	content = strings.TrimSpace(codeFenceRe.ReplaceAllString(content, ""))

	block := jsonBlockRe.FindString(content)
	if block == "" {
		return Payload{}, fmt.Errorf("no JSON object in model output: %w", errs.ErrExternalService)
	}

	var task generatedTask
	if err := json.Unmarshal([]byte(block), &task); err != nil {
		return Payload{}, fmt.Errorf("decode model output: %v: %w", err, errs.ErrExternalService)
	}

	p := Payload{
		Title:         task.Title,
		Description:   task.Description,
		Priority:      task.Priority,
		EstimatedTime: 60,
		Tags:          task.Tags,
	}
	if p.Title == "" {
		p.Title = truncate(description, 60)
	}
	if p.Description == "" {
		p.Description = description
	}
	if p.Priority == "" {
		p.Priority = "moyenne"
	}
	if task.EstimatedTime != "" {
		if minutes, err := task.EstimatedTime.Int64(); err == nil && minutes > 0 {
			p.EstimatedTime = int(minutes)
		}
	}
	if len(p.Tags) == 0 {
		p.Tags = []string{GeneratedTag}
	}
	return p, nil
}

func buildPrompt(description string) string {
	var b strings.Builder
	b.WriteString("Tu es un assistant spécialisé dans la gestion de projet. ")
	b.WriteString("Analyse la description suivante et génère une tâche structurée: ")
	b.WriteString(description)
	b.WriteString("\n\nRéponds UNIQUEMENT avec un JSON valide contenant ces champs:\n")
	b.WriteString("- title: un titre court et descriptif pour la tâche\n")
	b.WriteString("- description: une description détaillée de la tâche\n")
	b.WriteString("- priority: la priorité (basse, moyenne, haute, urgente)\n")
	b.WriteString("- estimated_time: le temps estimé en minutes (nombre entier)\n")
	b.WriteString("- tags: un tableau de tags pertinents\n")
	b.WriteString("Ne mets aucun texte avant ou après le JSON. Assure-toi que le JSON est valide.")
	return b.String()
}
