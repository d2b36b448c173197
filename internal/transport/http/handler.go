package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"reco-quiz-service/internal/app"
	"reco-quiz-service/internal/domain"
)

// Handler exposes the quiz use cases as a small JSON API.
type Handler struct {
	service *app.QuizService
}

func NewHandler(service *app.QuizService) *Handler {
	return &Handler{service: service}
}

// Register wires the routes onto mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/quiz/start", h.StartQuiz)
	mux.HandleFunc("/api/quiz/question", h.CurrentQuestion)
	mux.HandleFunc("/api/quiz/answer", h.SubmitAnswer)
	mux.HandleFunc("/api/daily-question", h.DailyQuestion)
	mux.HandleFunc("/api/leaderboard", h.Leaderboard)
	mux.HandleFunc("/api/teams", h.Teams)
	mux.HandleFunc("/api/topics", h.Topics)
}

type startRequest struct {
	Team  string `json:"team"`
	Topic string `json:"topic,omitempty"`
}

type answerRequest struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

type answerResponse struct {
	Progress domain.QuizProgress `json:"progress"`
	Summary  *domain.QuizSummary `json:"summary,omitempty"`
}

func (h *Handler) StartQuiz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	progress, err := h.service.StartQuiz(r.Context(), req.Team, req.Topic)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, progress)
}

func (h *Handler) CurrentQuestion(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "missing session_id", http.StatusBadRequest)
		return
	}
	progress, err := h.service.CurrentQuestion(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	progress, summary, err := h.service.SubmitAnswer(r.Context(), req.SessionID, req.Answer)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answerResponse{Progress: progress, Summary: summary})
}

func (h *Handler) DailyQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.DailyQuestion(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	standings, err := h.service.TopTeams(r.Context(), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, standings)
}

func (h *Handler) Teams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Teams())
}

func (h *Handler) Topics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Topics())
}

// writeError maps domain errors to status codes. Every failure here is
// recoverable for the participant; nothing returns a bare 500 without a
// usable message.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrSessionExpired):
		http.Error(w, "session expired, please restart", http.StatusNotFound)
	case errors.Is(err, domain.ErrUnknownTeam):
		http.Error(w, "unknown team", http.StatusBadRequest)
	case errors.Is(err, domain.ErrQuizFinished):
		http.Error(w, "quiz already finished", http.StatusConflict)
	case errors.Is(err, domain.ErrQuestionUnavailable), errors.Is(err, domain.ErrNoRecommendation):
		http.Error(w, "question temporarily unavailable", http.StatusServiceUnavailable)
	case errors.Is(err, domain.ErrLeaderboardUnavailable):
		http.Error(w, "leaderboard temporarily unavailable", http.StatusServiceUnavailable)
	default:
		log.Printf("http: unexpected error: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: write response: %v", err)
	}
}
