package domain

import "time"

// Recommendation is one clinical recommendation loaded from the reference CSV.
type Recommendation struct {
	Theme      string `json:"theme"`
	Topic      string `json:"topic"`
	Text       string `json:"recommendation"`
	Grade      string `json:"grade"`
	Evidence   string `json:"evidence"`
	References string `json:"references"`
	Link       string `json:"link,omitempty"`
}

// GeneratedQuestion is a clinical vignette plus the single question derived
// from one recommendation.
type GeneratedQuestion struct {
	Vignette       string         `json:"vignette"`
	Question       string         `json:"question"`
	Recommendation Recommendation `json:"recommendation"`
}

// Evaluation is the graded outcome of one free-text answer.
// Score is an integer 0..5 as returned by the evaluator.
type Evaluation struct {
	Score       int    `json:"score"`
	Feedback    string `json:"feedback"`
	Educational string `json:"educational_content,omitempty"`
}

// QuizItem is one question within a quiz run, together with the participant's
// answer and its evaluation once submitted.
type QuizItem struct {
	Question   GeneratedQuestion `json:"question"`
	Answer     string            `json:"answer,omitempty"`
	Evaluation *Evaluation       `json:"evaluation,omitempty"`
}

// QuizProgress is the per-participant quiz state persisted between requests.
// It is always written back whole; there are no partial-field updates.
type QuizProgress struct {
	SessionID string     `json:"session_id"`
	Team      string     `json:"team"`
	Topic     string     `json:"topic,omitempty"`
	Items     []QuizItem `json:"items"`
	Current   int        `json:"current"`
	Total     int        `json:"total"`
	StartedAt time.Time  `json:"started_at"`
}

// Answered reports how many items already carry an evaluation.
func (p QuizProgress) Answered() int {
	n := 0
	for _, item := range p.Items {
		if item.Evaluation != nil {
			n++
		}
	}
	return n
}

// Finished reports whether every planned question has been answered.
func (p QuizProgress) Finished() bool {
	return p.Total > 0 && p.Answered() >= p.Total
}

// FinalScore converts the per-item 0..5 scores of a finished quiz to the
// 0..20 scale used by score labels and the leaderboard.
func (p QuizProgress) FinalScore() int {
	answered := 0
	sum := 0
	for _, item := range p.Items {
		if item.Evaluation != nil {
			answered++
			sum += item.Evaluation.Score
		}
	}
	if answered == 0 {
		return 0
	}
	// mean on 0..5 scaled by 4, rounded half-up
	return (sum*4*2 + answered) / (2 * answered)
}

// DailyQuestion is the shared question of the day for one contest.
type DailyQuestion struct {
	Date        string            `json:"date"`
	Question    GeneratedQuestion `json:"question"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// Payload kinds for SessionPayload.
const (
	KindQuizProgress  = "quiz_progress"
	KindDailyQuestion = "daily_question"
)

// SessionPayload is the tagged variant stored as a JSON blob in the session
// cache. Exactly one of the value fields is set, matching Kind.
type SessionPayload struct {
	Kind  string         `json:"kind"`
	Quiz  *QuizProgress  `json:"quiz,omitempty"`
	Daily *DailyQuestion `json:"daily,omitempty"`
}

// QuizPayload wraps quiz progress in its tagged envelope.
func QuizPayload(p QuizProgress) SessionPayload {
	return SessionPayload{Kind: KindQuizProgress, Quiz: &p}
}

// DailyPayload wraps a daily question in its tagged envelope.
func DailyPayload(q DailyQuestion) SessionPayload {
	return SessionPayload{Kind: KindDailyQuestion, Daily: &q}
}

// TeamStanding is one leaderboard row for the current day.
type TeamStanding struct {
	TeamName     string  `json:"team_name"`
	TotalScore   int     `json:"total_score"`
	AverageScore float64 `json:"average_score"`
	PlayerCount  int     `json:"player_count"`
}

// QuizSummary is returned once a quiz run completes.
type QuizSummary struct {
	SessionID  string     `json:"session_id"`
	Team       string     `json:"team"`
	FinalScore int        `json:"final_score"`
	Label      string     `json:"label"`
	Items      []QuizItem `json:"items"`
}
