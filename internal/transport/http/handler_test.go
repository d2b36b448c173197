package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"reco-quiz-service/internal/app"
	"reco-quiz-service/internal/clock"
	"reco-quiz-service/internal/daily"
	"reco-quiz-service/internal/domain"
	"reco-quiz-service/internal/leaderboard"
	"reco-quiz-service/internal/session"
	"reco-quiz-service/internal/store"
)

type stubRecs struct{}

func (stubRecs) Random(string) (domain.Recommendation, error) {
	return domain.Recommendation{Topic: "Transfusion", Text: "Transfuser selon un ratio 1:1:1", Evidence: "PROPPR"}, nil
}

func (stubRecs) Topics() []string { return []string{"Transfusion"} }

type stubGen struct{}

func (stubGen) GenerateQuestion(_ context.Context, rec domain.Recommendation) (domain.GeneratedQuestion, error) {
	return domain.GeneratedQuestion{Vignette: "vignette", Question: "question", Recommendation: rec}, nil
}

func (stubGen) EvaluateAnswer(_ context.Context, _ string, _ domain.GeneratedQuestion) (domain.Evaluation, error) {
	return domain.Evaluation{Score: 4, Feedback: "ok"}, nil
}

func (stubGen) EducationalContent(_ context.Context, _ domain.Recommendation, _ int) (string, error) {
	return "contenu", nil
}

func newTestServer(t *testing.T) (*http.ServeMux, *app.QuizService) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	kv := store.NewRedisKV(client, time.Second)
	clk := clock.New(time.UTC)

	svc := app.NewQuizService(
		session.NewCache(kv, "", time.Hour),
		daily.NewCache(kv, "national", clk, daily.DefaultTTL),
		leaderboard.New(kv, nil, clk),
		stubRecs{}, stubGen{}, clk, 2,
	)
	mux := http.NewServeMux()
	NewHandler(svc).Register(mux)
	return mux, svc
}

func TestStartQuizEndpoint(t *testing.T) {
	mux, _ := newTestServer(t)

	body := bytes.NewBufferString(`{"team":"Paris"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/quiz/start", body)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var progress domain.QuizProgress
	if err := json.Unmarshal(rec.Body.Bytes(), &progress); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if progress.SessionID == "" || len(progress.Items) != 1 {
		t.Fatalf("unexpected progress %+v", progress)
	}
}

func TestStartQuizUnknownTeam(t *testing.T) {
	mux, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/quiz/start", strings.NewReader(`{"team":"Atlantis"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAnswerFlowProducesSummary(t *testing.T) {
	mux, svc := newTestServer(t)
	ctx := context.Background()

	progress, err := svc.StartQuiz(ctx, "Paris", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	var resp answerResponse
	for i := 0; i < progress.Total; i++ {
		if i > 0 {
			q := httptest.NewRequest(http.MethodGet, "/api/quiz/question?session_id="+progress.SessionID, nil)
			qrec := httptest.NewRecorder()
			mux.ServeHTTP(qrec, q)
			if qrec.Code != http.StatusOK {
				t.Fatalf("question %d: %d", i, qrec.Code)
			}
		}
		body, _ := json.Marshal(answerRequest{SessionID: progress.SessionID, Answer: "ratio 1:1:1"})
		req := httptest.NewRequest(http.MethodPost, "/api/quiz/answer", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("answer %d: %d: %s", i, rec.Code, rec.Body.String())
		}
		resp = answerResponse{}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}

	if resp.Summary == nil {
		t.Fatalf("expected summary on last answer")
	}
	// two answers at 4/5 -> 16/20
	if resp.Summary.FinalScore != 16 || resp.Summary.Label != "très bien" {
		t.Fatalf("unexpected summary %+v", resp.Summary)
	}
}

func TestExpiredSessionReads404(t *testing.T) {
	mux, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/quiz/question?session_id=gone", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	mux, svc := newTestServer(t)

	playThrough(t, svc, "Paris")

	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard?limit=3", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var standings []domain.TeamStanding
	if err := json.Unmarshal(rec.Body.Bytes(), &standings); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(standings) != 1 || standings[0].TeamName != "Paris" {
		t.Fatalf("unexpected standings %+v", standings)
	}
}

func TestLeaderboardWebSocketPushesStandings(t *testing.T) {
	_, svc := newTestServer(t)
	playThrough(t, svc, "Lyon")

	ws := NewWSHandler(svc)
	ws.interval = 10 * time.Millisecond
	srv := httptest.NewServer(http.HandlerFunc(ws.ServeWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg outboundMessage[[]domain.TeamStanding]
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "leaderboard" || len(msg.Payload) != 1 || msg.Payload[0].TeamName != "Lyon" {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func playThrough(t *testing.T, svc *app.QuizService, team string) {
	t.Helper()
	ctx := context.Background()
	progress, err := svc.StartQuiz(ctx, team, "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < progress.Total; i++ {
		if _, err := svc.CurrentQuestion(ctx, progress.SessionID); err != nil {
			t.Fatalf("question: %v", err)
		}
		if _, _, err := svc.SubmitAnswer(ctx, progress.SessionID, "réponse"); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
}
