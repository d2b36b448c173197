package llm

import (
	"context"
	"fmt"

	"reco-quiz-service/internal/domain"
)

// Offline is a deterministic stand-in used when no API key is configured,
// so the service stays runnable in development.
type Offline struct{}

// NewOffline returns the offline collaborator.
func NewOffline() *Offline {
	return &Offline{}
}

func (o *Offline) GenerateQuestion(_ context.Context, rec domain.Recommendation) (domain.GeneratedQuestion, error) {
	return domain.GeneratedQuestion{
		Vignette:       fmt.Sprintf("Un patient de 54 ans est pris en charge au bloc opératoire. La situation relève du sujet « %s ».", orUnspecified(rec.Topic)),
		Question:       "Quelle est la conduite à tenir recommandée ?",
		Recommendation: rec,
	}, nil
}

func (o *Offline) EvaluateAnswer(_ context.Context, answer string, q domain.GeneratedQuestion) (domain.Evaluation, error) {
	if answer == "" {
		return domain.Evaluation{Score: 0, Feedback: "Aucune réponse fournie."}, nil
	}
	return domain.Evaluation{
		Score:    3,
		Feedback: fmt.Sprintf("Évaluation hors ligne. Recommandation de référence : %s", q.Recommendation.Text),
	}, nil
}

func (o *Offline) EducationalContent(_ context.Context, rec domain.Recommendation, _ int) (string, error) {
	return fmt.Sprintf("Recommandation : %s (grade %s).", rec.Text, orUnspecified(rec.Grade)), nil
}
