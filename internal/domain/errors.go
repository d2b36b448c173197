package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a quiz session is missing, expired,
	// unreadable, or the session backend is down. Callers treat all of these
	// the same way: the participant restarts.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionExpired marks a session whose quiz run can no longer continue.
	ErrSessionExpired = errors.New("quiz session expired")
	// ErrQuizFinished is returned when an answer arrives after the last question.
	ErrQuizFinished = errors.New("quiz already finished")
	// ErrQuestionUnavailable indicates the content generator returned nothing.
	ErrQuestionUnavailable = errors.New("question generation failed")
	// ErrNoRecommendation indicates the recommendation set has no match.
	ErrNoRecommendation = errors.New("no recommendation available")
	// ErrLeaderboardUnavailable is returned only when both leaderboard
	// backends rejected the operation.
	ErrLeaderboardUnavailable = errors.New("leaderboard unavailable")
	// ErrUnknownTeam is returned for a team outside the contest list.
	ErrUnknownTeam = errors.New("unknown team")
)
