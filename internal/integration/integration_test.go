package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"board-reviewer/internal/app"
	"board-reviewer/internal/domain"
	"board-reviewer/internal/infra/postgres"
	pgmigrations "board-reviewer/internal/infra/postgres/migrations"
	infraredis "board-reviewer/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

const farBank = `{"questions": [
  {"id": "q1", "text": "Which statement reports financial position?",
   "choices": [{"id": "A", "text": "Balance sheet"}, {"id": "B", "text": "Income statement"}],
   "correctAnswerId": "A", "explanation": "Assets, liabilities and equity at a date."},
  {"id": "q2", "text": "Inventories are measured at the lower of cost and?",
   "choices": [{"id": "A", "text": "Fair value"}, {"id": "B", "text": "Net realizable value"}],
   "correctAnswerId": "B"},
  {"id": "q3", "text": "Dropped: no correct answer",
   "choices": [{"id": "A", "text": "x"}]}
]}`

func TestReviewerEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedBank(t, ctx, pgURL, "FAR", farBank)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	loader := postgres.NewQuestionLoader(pool, domain.ParseOptions{})
	source := infraredis.NewQuestionRepository(redisClient, loader, 5*time.Minute)
	store := infraredis.NewKVStore(redisClient, "reviewer:", 0)

	newReviewer := func() *app.Reviewer {
		return app.NewReviewer(app.Options{
			UserID:  "u1",
			Course:  "cpa",
			Store:   app.WithPrefix(store, "u1:"),
			Source:  source,
			Shuffle: func([]domain.Question) {},
			Logger:  zerolog.Nop(),
		})
	}

	r := newReviewer()
	r.Restore(ctx)
	if err := r.PickSubject(ctx, domain.NextQuiz); err != nil {
		t.Fatalf("pick subject: %v", err)
	}
	if err := r.SelectSubject(ctx, "FAR"); err != nil {
		t.Fatalf("select subject: %v", err)
	}

	snap := r.Snapshot()
	if snap.Quiz == nil || snap.Quiz.Total != 2 {
		t.Fatalf("expected 2 valid questions, got %+v", snap.Quiz)
	}
	for _, choice := range []string{"A", "A"} {
		q := r.Snapshot().Quiz.Question
		if _, err := r.Answer(ctx, q.ID, choice); err != nil {
			t.Fatalf("answer %s: %v", q.ID, err)
		}
		if err := r.Next(ctx); err != nil {
			t.Fatalf("next: %v", err)
		}
	}

	snap = r.Snapshot()
	if snap.View != domain.ViewReview || snap.Quiz.Correct != 1 {
		t.Fatalf("expected review with 1 correct, got view=%s quiz=%+v", snap.View, snap.Quiz)
	}
	if snap.Points.CorrectAnswers != 1 {
		t.Fatalf("expected 1 correct answer in ledger, got %+v", snap.Points)
	}

	// A fresh reviewer over the same redis keys picks up where the first left off.
	restored := newReviewer()
	restored.Restore(ctx)
	again := restored.Snapshot()
	if again.View != domain.ViewReview || again.Subject != "FAR" {
		t.Fatalf("expected restored review of FAR, got view=%s subject=%s", again.View, again.Subject)
	}
	if again.Points.Total != snap.Points.Total {
		t.Fatalf("points not restored: %d vs %d", again.Points.Total, snap.Points.Total)
	}
	if len(restored.Answers()) != 2 {
		t.Fatalf("expected 2 saved answers, got %d", len(restored.Answers()))
	}

	contacts := postgres.NewContactStore(pool)
	msg := domain.ContactMessage{
		Name:       "Ana",
		Email:      "ana@example.com",
		Message:    "Please add more AUD questions.",
		ReceivedAt: time.Now().UTC(),
	}
	if err := contacts.SaveContact(ctx, msg); err != nil {
		t.Fatalf("save contact: %v", err)
	}
	var count int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM contact_messages WHERE email = $1`, msg.Email).Scan(&count); err != nil {
		t.Fatalf("count contacts: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 stored contact message, got %d", count)
	}
}

func TestMissingSubjectEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	seedBank(t, ctx, pgURL, "FAR", farBank)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := postgres.NewQuestionLoader(pool, domain.ParseOptions{})
	if _, err := loader.LoadQuestions(ctx, "TAX"); err == nil {
		t.Fatalf("expected error for a subject without a bank")
	}
	qs, err := loader.LoadQuestions(ctx, "FAR")
	if err != nil {
		t.Fatalf("load FAR: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("expected invalid question dropped, got %d questions", len(qs))
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "reviewer", "POSTGRES_PASSWORD": "reviewerpass", "POSTGRES_DB": "reviewerdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://reviewer:reviewerpass@%s:%s/reviewerdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

// seedBank migrates the database and imports one question bank through bun.
func seedBank(t *testing.T, ctx context.Context, dsn, subject, bank string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	n, warnings, err := postgres.NewQuestionImporter(db).Import(ctx, subject, []byte(bank), domain.ParseOptions{})
	if err != nil {
		t.Fatalf("import %s: %v", subject, err)
	}
	if n != 2 || len(warnings) != 1 {
		t.Fatalf("expected 2 questions and 1 warning, got %d %v", n, warnings)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
