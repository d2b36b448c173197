package cli

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"reco-quiz-service/internal/app"
	"reco-quiz-service/internal/clock"
	"reco-quiz-service/internal/config"
	"reco-quiz-service/internal/daily"
	"reco-quiz-service/internal/leaderboard"
	"reco-quiz-service/internal/llm"
	"reco-quiz-service/internal/recommend"
	"reco-quiz-service/internal/session"
	"reco-quiz-service/internal/store"
	transport "reco-quiz-service/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	tzName := cfg.Contest.Timezone
	if tzName == "" {
		tzName = "Europe/Paris"
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return err
	}
	clk := clock.New(loc)

	contest := cfg.Contest.Name
	if contest == "" {
		contest = "national"
	}

	// Primary backend. A Redis that is unreachable at startup is kept wired
	// anyway: every operation degrades per call, sessions read as expired and
	// the leaderboard falls through to SQLite until Redis comes back.
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	opTimeout := config.TTLDuration(cfg.Redis.OpTimeout, store.DefaultOpTimeout)
	kv := store.NewRedisKV(client, opTimeout)
	pingCtx, cancel := context.WithTimeout(ctx, opTimeout)
	if err := kv.Ping(pingCtx); err != nil {
		log.Printf("redis unreachable at startup, continuing degraded: %v", err)
	} else {
		log.Printf("redis connection established (%s)", cfg.Redis.Addr)
	}
	cancel()

	// Fallback backend.
	var db *bun.DB
	if cfg.SQLite.Path != "" {
		db, err = openSQLite(ctx, cfg.SQLite.Path)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	recs, err := recommend.Load(cfg.Data.Recommendations)
	if err != nil {
		return err
	}

	var gen app.QuestionGenerator
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		gen = llm.New(apiKey, cfg.OpenAI.Model)
	} else {
		log.Printf("OPENAI_API_KEY not set, using offline generator")
		gen = llm.NewOffline()
	}

	sessionTTL := config.TTLDuration(cfg.Contest.SessionTTL, session.DefaultTTL)
	questionTTL := config.TTLDuration(cfg.Contest.QuestionTTL, daily.DefaultTTL)

	sessions := session.NewCache(kv, "", sessionTTL)
	dailyCache := daily.NewCache(kv, contest, clk, questionTTL)
	board := leaderboard.New(kv, db, clk)
	service := app.NewQuizService(sessions, dailyCache, board, recs, gen, clk, cfg.Contest.QuestionsPerQuiz)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	transport.NewHandler(service).Register(mux)
	mux.HandleFunc("/ws/leaderboard", transport.NewWSHandler(service).ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // answer evaluation can wait on the LLM
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	_ = kv.Close()
	return nil
}

// openSQLite opens the fallback database and applies pending migrations.
func openSQLite(ctx context.Context, path string) (*bun.DB, error) {
	sqldb, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	if err := applyMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
