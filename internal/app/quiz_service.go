package app

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"reco-quiz-service/internal/clock"
	"reco-quiz-service/internal/daily"
	"reco-quiz-service/internal/domain"
	"reco-quiz-service/internal/leaderboard"
	"reco-quiz-service/internal/session"
)

// QuestionGenerator produces and grades quiz content. Implemented by the
// OpenAI client and its offline stand-in.
type QuestionGenerator interface {
	GenerateQuestion(ctx context.Context, rec domain.Recommendation) (domain.GeneratedQuestion, error)
	EvaluateAnswer(ctx context.Context, answer string, q domain.GeneratedQuestion) (domain.Evaluation, error)
	EducationalContent(ctx context.Context, rec domain.Recommendation, score int) (string, error)
}

// RecommendationSource picks recommendations for question generation.
type RecommendationSource interface {
	Random(topic string) (domain.Recommendation, error)
	Topics() []string
}

// QuizService contains the quiz use cases: starting a run, serving questions,
// grading answers, finishing with a team score, and the shared daily question.
type QuizService struct {
	sessions  *session.Cache
	daily     *daily.Cache
	board     *leaderboard.Board
	recs      RecommendationSource
	gen       QuestionGenerator
	clk       clock.Clock
	questions int
}

// NewQuizService wires the service. questions <= 0 falls back to the default
// run length.
func NewQuizService(sessions *session.Cache, dailyCache *daily.Cache, board *leaderboard.Board, recs RecommendationSource, gen QuestionGenerator, clk clock.Clock, questions int) *QuizService {
	if questions <= 0 {
		questions = domain.QuestionsPerQuiz
	}
	return &QuizService{
		sessions:  sessions,
		daily:     dailyCache,
		board:     board,
		recs:      recs,
		gen:       gen,
		clk:       clk,
		questions: questions,
	}
}

// StartQuiz creates a new session for team and generates its first question.
func (s *QuizService) StartQuiz(ctx context.Context, team, topic string) (domain.QuizProgress, error) {
	if !domain.ValidTeam(team) {
		return domain.QuizProgress{}, domain.ErrUnknownTeam
	}

	first, err := s.generateQuestion(ctx, topic)
	if err != nil {
		return domain.QuizProgress{}, err
	}

	progress := domain.QuizProgress{
		SessionID: uuid.NewString(),
		Team:      team,
		Topic:     topic,
		Items:     []domain.QuizItem{{Question: first}},
		Current:   0,
		Total:     s.questions,
		StartedAt: s.clk.Now(),
	}
	if err := s.sessions.Store(ctx, progress.SessionID, domain.QuizPayload(progress)); err != nil {
		return domain.QuizProgress{}, err
	}
	return progress, nil
}

// CurrentQuestion returns the progress with the question at the current
// position, generating it when the previous submit could not. The write after
// generation refreshes the session TTL.
func (s *QuizService) CurrentQuestion(ctx context.Context, sessionID string) (domain.QuizProgress, error) {
	progress, err := s.loadProgress(ctx, sessionID)
	if err != nil {
		return domain.QuizProgress{}, err
	}
	if progress.Finished() {
		return progress, nil
	}
	if progress.Current < len(progress.Items) {
		return progress, nil
	}

	next, err := s.generateQuestion(ctx, progress.Topic)
	if err != nil {
		return domain.QuizProgress{}, err
	}
	progress.Items = append(progress.Items, domain.QuizItem{Question: next})
	if err := s.sessions.Update(ctx, sessionID, domain.QuizPayload(progress)); err != nil {
		return domain.QuizProgress{}, err
	}
	return progress, nil
}

// SubmitAnswer grades the answer to the current question and advances the
// run. When the last question is answered the quiz is finalized: the 0..20
// total goes to the team leaderboard and the session is deleted. The session
// payload is written back whole (read-modify-write, last writer wins).
func (s *QuizService) SubmitAnswer(ctx context.Context, sessionID, answer string) (domain.QuizProgress, *domain.QuizSummary, error) {
	progress, err := s.loadProgress(ctx, sessionID)
	if err != nil {
		return domain.QuizProgress{}, nil, err
	}
	if progress.Finished() || progress.Current >= progress.Total {
		return domain.QuizProgress{}, nil, domain.ErrQuizFinished
	}
	if progress.Current >= len(progress.Items) {
		// The question for this position was never generated; the client
		// should fetch it first.
		return domain.QuizProgress{}, nil, domain.ErrQuestionUnavailable
	}

	item := &progress.Items[progress.Current]
	eval, err := s.gen.EvaluateAnswer(ctx, answer, item.Question)
	if err != nil {
		return domain.QuizProgress{}, nil, err
	}
	if content, err := s.gen.EducationalContent(ctx, item.Question.Recommendation, eval.Score); err == nil {
		eval.Educational = content
	} else {
		log.Printf("app: educational content failed: %v", err)
	}
	item.Answer = answer
	item.Evaluation = &eval
	progress.Current++

	if !progress.Finished() {
		if err := s.sessions.Update(ctx, sessionID, domain.QuizPayload(progress)); err != nil {
			return domain.QuizProgress{}, nil, err
		}
		return progress, nil, nil
	}

	summary := s.finalize(ctx, progress)
	return progress, summary, nil
}

// finalize reports the total to the leaderboard and drops the session.
func (s *QuizService) finalize(ctx context.Context, progress domain.QuizProgress) *domain.QuizSummary {
	final := progress.FinalScore()
	if err := s.board.AddScore(ctx, progress.Team, final); err != nil {
		// The quiz result still reaches the participant; only the team
		// aggregate misses this run.
		log.Printf("app: score for %s not recorded: %v", progress.Team, err)
	}
	if err := s.sessions.Delete(ctx, progress.SessionID); err != nil {
		log.Printf("app: session %s not deleted: %v", progress.SessionID, err)
	}
	return &domain.QuizSummary{
		SessionID:  progress.SessionID,
		Team:       progress.Team,
		FinalScore: final,
		Label:      domain.ScoreLabel(final),
		Items:      progress.Items,
	}
}

// DailyQuestion serves the shared question of the day, generating it if this
// caller is the first to ask.
func (s *QuizService) DailyQuestion(ctx context.Context) (domain.DailyQuestion, error) {
	return s.daily.GetOrCreate(ctx, func(ctx context.Context) (domain.GeneratedQuestion, error) {
		return s.generateQuestion(ctx, "")
	})
}

// TopTeams returns today's standings.
func (s *QuizService) TopTeams(ctx context.Context, limit int) ([]domain.TeamStanding, error) {
	return s.board.TopTeams(ctx, limit)
}

// Teams lists the selectable contest teams.
func (s *QuizService) Teams() []string {
	return domain.TeamList
}

// Topics lists the recommendation topics available for a quiz run.
func (s *QuizService) Topics() []string {
	return s.recs.Topics()
}

func (s *QuizService) generateQuestion(ctx context.Context, topic string) (domain.GeneratedQuestion, error) {
	rec, err := s.recs.Random(topic)
	if err != nil {
		return domain.GeneratedQuestion{}, err
	}
	q, err := s.gen.GenerateQuestion(ctx, rec)
	if err != nil {
		return domain.GeneratedQuestion{}, errors.Join(domain.ErrQuestionUnavailable, err)
	}
	return q, nil
}

func (s *QuizService) loadProgress(ctx context.Context, sessionID string) (domain.QuizProgress, error) {
	payload, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.QuizProgress{}, err
	}
	if payload.Kind != domain.KindQuizProgress || payload.Quiz == nil {
		return domain.QuizProgress{}, domain.ErrSessionNotFound
	}
	return *payload.Quiz, nil
}
