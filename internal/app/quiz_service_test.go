package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"reco-quiz-service/internal/clock"
	"reco-quiz-service/internal/daily"
	"reco-quiz-service/internal/domain"
	"reco-quiz-service/internal/leaderboard"
	"reco-quiz-service/internal/session"
	"reco-quiz-service/internal/store"
)

type stubRecs struct{}

func (stubRecs) Random(topic string) (domain.Recommendation, error) {
	return domain.Recommendation{
		Theme:    "Hémorragie",
		Topic:    "Transfusion",
		Text:     "Transfuser selon un ratio 1:1:1",
		Grade:    "Grade 1+",
		Evidence: "Essai PROPPR",
	}, nil
}

func (stubRecs) Topics() []string { return []string{"Transfusion"} }

// stubGen grades every answer with a fixed score and counts generations.
type stubGen struct {
	score       int
	generations int
	evalErr     error
}

func (g *stubGen) GenerateQuestion(_ context.Context, rec domain.Recommendation) (domain.GeneratedQuestion, error) {
	g.generations++
	return domain.GeneratedQuestion{
		Vignette:       fmt.Sprintf("vignette %d", g.generations),
		Question:       "Quelle est la conduite à tenir ?",
		Recommendation: rec,
	}, nil
}

func (g *stubGen) EvaluateAnswer(_ context.Context, answer string, _ domain.GeneratedQuestion) (domain.Evaluation, error) {
	if g.evalErr != nil {
		return domain.Evaluation{}, g.evalErr
	}
	return domain.Evaluation{Score: g.score, Feedback: "ok"}, nil
}

func (g *stubGen) EducationalContent(_ context.Context, _ domain.Recommendation, _ int) (string, error) {
	return "contenu éducatif", nil
}

func newTestService(t *testing.T, gen *stubGen) (*QuizService, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	kv := store.NewRedisKV(client, time.Second)

	clk := clock.NewWithNow(time.UTC, func() time.Time {
		return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	})
	sessions := session.NewCache(kv, "", time.Hour)
	dailyCache := daily.NewCache(kv, "national", clk, daily.DefaultTTL)
	board := leaderboard.New(kv, nil, clk)

	return NewQuizService(sessions, dailyCache, board, stubRecs{}, gen, clk, 3), mr
}

func playQuiz(t *testing.T, svc *QuizService, team string) *domain.QuizSummary {
	t.Helper()
	ctx := context.Background()

	progress, err := svc.StartQuiz(ctx, team, "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	var summary *domain.QuizSummary
	for i := 0; i < progress.Total; i++ {
		current, err := svc.CurrentQuestion(ctx, progress.SessionID)
		if err != nil {
			t.Fatalf("current question %d: %v", i, err)
		}
		if current.Items[current.Current].Question.Vignette == "" {
			t.Fatalf("question %d missing", i)
		}
		_, summary, err = svc.SubmitAnswer(ctx, progress.SessionID, "ratio 1:1:1")
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	return summary
}

func TestFullQuizRun(t *testing.T) {
	gen := &stubGen{score: 5}
	svc, _ := newTestService(t, gen)
	ctx := context.Background()

	summary := playQuiz(t, svc, "Paris")
	if summary == nil {
		t.Fatalf("expected a summary after the last answer")
	}
	// three answers at 5/5 -> mean 5 -> 20/20
	if summary.FinalScore != 20 || summary.Label != "excellent" {
		t.Fatalf("unexpected summary %+v", summary)
	}

	// Completion deletes the session.
	if _, err := svc.CurrentQuestion(ctx, summary.SessionID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session gone after completion, got %v", err)
	}

	// And feeds the leaderboard.
	standings, err := svc.TopTeams(ctx, 0)
	if err != nil {
		t.Fatalf("top teams: %v", err)
	}
	if len(standings) != 1 || standings[0].TeamName != "Paris" || standings[0].TotalScore != 20 {
		t.Fatalf("unexpected standings %+v", standings)
	}
}

func TestFinalScoreScaling(t *testing.T) {
	gen := &stubGen{score: 3}
	svc, _ := newTestService(t, gen)

	summary := playQuiz(t, svc, "Lyon")
	// mean 3 on 0..5 -> 12 on 0..20
	if summary.FinalScore != 12 || summary.Label != "bien" {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestStartQuizRejectsUnknownTeam(t *testing.T) {
	svc, _ := newTestService(t, &stubGen{score: 5})
	if _, err := svc.StartQuiz(context.Background(), "Atlantis", ""); !errors.Is(err, domain.ErrUnknownTeam) {
		t.Fatalf("expected ErrUnknownTeam, got %v", err)
	}
}

func TestSubmitAfterFinishFails(t *testing.T) {
	gen := &stubGen{score: 5}
	svc, _ := newTestService(t, gen)
	summary := playQuiz(t, svc, "Paris")

	if _, _, err := svc.SubmitAnswer(context.Background(), summary.SessionID, "again"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on deleted session, got %v", err)
	}
}

func TestEvaluationFailureKeepsSession(t *testing.T) {
	gen := &stubGen{score: 5, evalErr: errors.New("llm down")}
	svc, _ := newTestService(t, gen)
	ctx := context.Background()

	progress, err := svc.StartQuiz(ctx, "Paris", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, _, err := svc.SubmitAnswer(ctx, progress.SessionID, "réponse"); err == nil {
		t.Fatalf("expected evaluation failure to surface")
	}

	// The session is intact and the answer can be retried.
	gen.evalErr = nil
	if _, _, err := svc.SubmitAnswer(ctx, progress.SessionID, "réponse"); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestDailyQuestionSharedAcrossCallers(t *testing.T) {
	gen := &stubGen{score: 5}
	svc, _ := newTestService(t, gen)
	ctx := context.Background()

	first, err := svc.DailyQuestion(ctx)
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	before := gen.generations
	second, err := svc.DailyQuestion(ctx)
	if err != nil {
		t.Fatalf("daily again: %v", err)
	}
	if gen.generations != before {
		t.Fatalf("second call must not regenerate")
	}
	if first.Question.Vignette != second.Question.Vignette {
		t.Fatalf("daily question must be shared")
	}
}
