package cli

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"board-reviewer/internal/app"
	"board-reviewer/internal/config"
	"board-reviewer/internal/domain"
	"board-reviewer/internal/infra/files"
	"board-reviewer/internal/infra/memory"
	"board-reviewer/internal/infra/postgres"
	infraredis "board-reviewer/internal/infra/redis"
	transport "board-reviewer/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the reviewer server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis not reachable yet")
		}
	}
	// saved reviewer state never expires unless redis.ttl is set
	stateTTL := config.TTLDuration(cfg.Redis.TTL, 0)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	parseOpts := domain.ParseOptions{Lenient: cfg.Quiz.Lenient}
	var loader memory.QuestionLoader
	switch {
	case pool != nil:
		loader = postgres.NewQuestionLoader(pool, parseOpts)
	case cfg.Quiz.QuestionsDir != "":
		loader = files.NewQuestionLoader(cfg.Quiz.QuestionsDir, parseOpts)
	default:
		log.Warn().Msg("no question store configured, serving built-in sample questions")
		loader = memory.NewStaticQuestionLoader(sampleQuestions())
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var source app.QuestionSource
	var store app.Gateway
	if redisClient != nil {
		source = infraredis.NewQuestionRepository(redisClient, loader, quizTTL)
		store = infraredis.NewKVStore(redisClient, "reviewer:", stateTTL)
	} else {
		source = memory.NewQuestionRepository(loader, quizTTL)
		store = memory.NewKVStore()
	}

	policy := app.CheckInPolicy{
		Location:           cfg.Location(),
		ResetStreakOnBreak: cfg.CheckIn.ResetStreakOnBreak,
	}
	shuffle := app.FisherYates(rand.New(rand.NewSource(time.Now().UnixNano())))
	reviewers := app.NewRegistry(func(userID, course string, wallet *app.Wallet) *app.Reviewer {
		return app.NewReviewer(app.Options{
			UserID:  userID,
			Course:  course,
			Catalog: cfg.Catalog,
			Store:   app.WithPrefix(store, userID+":"),
			Source:  source,
			CheckIn: policy,
			Wallet:  wallet,
			Shuffle: shuffle,
			Logger:  log.Logger,
		})
	})

	limit, window := cfg.ContactLimit()
	var limiter transport.RateLimiter = memory.NewRateLimiter(limit, window)
	if redisClient != nil {
		limiter = infraredis.NewRateLimiter(redisClient, limit, window)
	}
	var sink transport.ContactSink = transport.LogContactSink{}
	if pool != nil {
		sink = postgres.NewContactStore(pool)
	}

	course := cfg.Course()
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", transport.NewWSHandler(reviewers, course).ServeWS)
	mux.Handle("/api/contact", transport.NewContactHandler(limiter, sink, cfg.Server.TrustProxy))
	mux.Handle("/api/profile", transport.NewProfileHandler(reviewers, course))

	// No write timeout: it would also cut long-lived websocket connections.
	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           mux,
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Str("course", course).Msg("starting reviewer service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestions is served when neither Postgres nor a questions directory
// is configured.
func sampleQuestions() map[string][]domain.Question {
	return map[string][]domain.Question{
		"FAR": {
			{
				ID:   "far-1",
				Text: "Which financial statement reports an entity's assets, liabilities and equity at a point in time?",
				Choices: []domain.Choice{
					{ID: "A", Text: "Statement of financial position"},
					{ID: "B", Text: "Statement of profit or loss"},
					{ID: "C", Text: "Statement of cash flows"},
					{ID: "D", Text: "Statement of changes in equity"},
				},
				CorrectAnswerID: "A",
				Explanation:     "The statement of financial position presents balances as of the reporting date.",
			},
			{
				ID:   "far-2",
				Text: "Inventories are measured at the lower of cost and:",
				Choices: []domain.Choice{
					{ID: "A", Text: "Fair value"},
					{ID: "B", Text: "Replacement cost"},
					{ID: "C", Text: "Net realizable value"},
					{ID: "D", Text: "Value in use"},
				},
				CorrectAnswerID: "C",
			},
		},
	}
}
