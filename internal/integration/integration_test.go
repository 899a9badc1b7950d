package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"live-poll-service/internal/app"
	pgstore "live-poll-service/internal/infra/postgres"
	pgmigrations "live-poll-service/internal/infra/postgres/migrations"
	infraredis "live-poll-service/internal/infra/redis"
)

func TestSupersededPollsArchivedToPostgres(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	migrateDB(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	archiver := app.NewArchiver(pgstore.NewResultStore(pool), 8, nil)
	coordinator := app.NewCoordinator(nil, app.WithArchive(archiver))

	alice, err := coordinator.RegisterStudent(ctx, "Alice")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	firstID, _, err := coordinator.CreateQuestion(ctx, "What is 2 + 2?", []string{"3", "4", "5"}, 30)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := coordinator.SubmitAnswer(ctx, alice.ID, 1); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if _, _, err := coordinator.CreateQuestion(ctx, "Capital of France?", []string{"Paris", "Rome"}, 30); err != nil {
		t.Fatalf("create second: %v", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	cancel()
	if err := archiver.Run(runCtx); err != nil {
		t.Fatalf("archiver: %v", err)
	}

	records, err := archiver.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(records) != 1 || records[0].PollID != firstID {
		t.Fatalf("expected the first poll archived, got %+v", records)
	}
	if records[0].Results.Counts[1] != 1 || records[0].Results.TotalAnswers != 1 {
		t.Fatalf("unexpected archived tally %+v", records[0].Results)
	}
}

func TestEventMirrorAgainstRedis(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()
	client, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer client.Close()

	mirror := infraredis.NewEventMirror(client, "it", time.Minute, 16, nil)
	coordinator := app.NewCoordinator(mirror)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- mirror.Run(runCtx) }()

	if _, err := coordinator.PostChat(ctx, "Teacher", "hello"); err != nil {
		t.Fatalf("chat: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		n, err := client.LLen(ctx, mirror.ChatKey()).Result()
		if err == nil && n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("chat not mirrored (len=%d err=%v)", n, err)
		}
		time.Sleep(50 * time.Millisecond)
	}
	if exists, _ := client.Exists(ctx, mirror.SessionKey()).Result(); exists != 1 {
		t.Fatalf("expected liveness key while running")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("mirror run: %v", err)
	}
	if exists, _ := client.Exists(ctx, mirror.SessionKey()).Result(); exists != 0 {
		t.Fatalf("expected liveness key removed")
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "poll", "POSTGRES_PASSWORD": "pollpass", "POSTGRES_DB": "polldb"},
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
	dsn := fmt.Sprintf("postgres://poll:pollpass@%s:%s/polldb?sslmode=disable", host, port.Port())
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

// migrateDB retries while postgres finishes its init restart.
func migrateDB(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	var err error
	for attempt := 0; attempt < 10; attempt++ {
		if err = migrator.Init(ctx); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
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
