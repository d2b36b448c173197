// Package llm is the content-generation collaborator: it turns a clinical
// recommendation into a vignette plus question, grades free-text answers and
// writes the educational follow-up. The rest of the system treats it as an
// opaque generator and never caches its failures.
package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"reco-quiz-service/internal/domain"
)

// DefaultModel is used when the config does not name one.
const DefaultModel = "gpt-4o"

// Client calls the OpenAI chat completion API.
type Client struct {
	api   openai.Client
	model string
}

// New builds a client. Transient API failures are retried up to three times
// by the underlying SDK.
func New(apiKey, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		api:   openai.NewClient(option.WithAPIKey(apiKey), option.WithMaxRetries(3)),
		model: model,
	}
}

func (c *Client) complete(ctx context.Context, system, user string, temperature float64, maxTokens int64) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateQuestion produces a vignette and question for one recommendation.
func (c *Client) GenerateQuestion(ctx context.Context, rec domain.Recommendation) (domain.GeneratedQuestion, error) {
	response, err := c.complete(ctx,
		vignettePrompt(rec),
		"Génère maintenant la vignette clinique et la question basées sur cette recommandation.",
		0.8, 800)
	if err != nil {
		return domain.GeneratedQuestion{}, err
	}
	vignette, question, err := parseVignette(response)
	if err != nil {
		return domain.GeneratedQuestion{}, err
	}
	return domain.GeneratedQuestion{
		Vignette:       vignette,
		Question:       question,
		Recommendation: rec,
	}, nil
}

// EvaluateAnswer grades a free-text answer against the question's
// recommendation. An empty answer scores zero without an API call.
func (c *Client) EvaluateAnswer(ctx context.Context, answer string, q domain.GeneratedQuestion) (domain.Evaluation, error) {
	if answer == "" {
		return domain.Evaluation{
			Score:    0,
			Feedback: "Aucune réponse fournie. Veuillez fournir une réponse pour recevoir un feedback.",
		}, nil
	}
	user := fmt.Sprintf("VIGNETTE: %s\nQUESTION: %s\nRÉPONSE DE L'UTILISATEUR: %s", q.Vignette, q.Question, answer)
	response, err := c.complete(ctx, scoringPrompt(q.Recommendation), user, 0.3, 1200)
	if err != nil {
		return domain.Evaluation{}, err
	}
	score, feedback := parseEvaluation(response)
	return domain.Evaluation{Score: score, Feedback: feedback}, nil
}

// EducationalContent writes the follow-up paragraph for a finished answer.
// Failures degrade to an empty string; the quiz continues without it.
func (c *Client) EducationalContent(ctx context.Context, rec domain.Recommendation, score int) (string, error) {
	return c.complete(ctx,
		educationalPrompt(rec, score),
		"Génère maintenant le contenu éducatif basé sur ces informations.",
		0.5, 1000)
}
