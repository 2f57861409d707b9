package pg

import (
	"context"
	"database/sql"
	"log"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/radake/polihub/backend/migrations"
	"github.com/radake/polihub/shared/config"
	"github.com/radake/polihub/shared/domain"
)

var storage *Storage

func TestMain(m *testing.M) {
	ctx := context.Background()
	var container *postgres.PostgresContainer
	storage, container = mustSetup(ctx)

	exitCode := m.Run()
	teardown(ctx, storage, container)
	os.Exit(exitCode)
}

func mustSetup(ctx context.Context) (*Storage, *postgres.PostgresContainer) {
	dbName := "polihub"
	dbUser := "user"
	dbPassword := "password"
	container, err := postgres.Run(ctx,
		"postgres:15.3-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			// The container restarts itself after the first startup.
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("failed to start container: %s", err)
	}
	containerPort, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		log.Fatalf("failed to obtain container port: %s", err)
	}
	port, err := strconv.Atoi(containerPort.Port())
	if err != nil {
		log.Fatalf("failed to obtain int container port: %s", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("failed to obtain container host: %s", err)
	}

	storage, err := New(ctx, &config.Config{Private: config.Private{Pg: config.Pg{Host: host, Port: port, User: dbUser, Password: dbPassword, Dbname: dbName}}})
	if err != nil {
		log.Fatalf("failed to connect to postgres container: %s", err)
	}
	if err := migrations.Up(ctx, storage.DB()); err != nil {
		log.Fatalf("failed to migrate: %s", err)
	}
	return storage, container
}

func teardown(ctx context.Context, storage *Storage, container *postgres.PostgresContainer) {
	if err := storage.Cleanup(); err != nil {
		log.Printf("failed to close storage connection: %s", err)
	}
	if err := container.Terminate(ctx); err != nil {
		log.Printf("failed to terminate container: %s", err)
	}
}

// beginTx opens a transaction that is always rolled back, so tests do not
// see each other's rows.
func beginTx(t *testing.T) (*sql.Tx, func()) {
	t.Helper()
	tx, err := storage.db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	return tx, func() {
		_ = tx.Rollback()
	}
}

func createTestUser(t *testing.T, q Querier, score int) domain.User {
	t.Helper()
	u, err := storage.saveUser(context.Background(), q, domain.User{
		Id:          uuid.New(),
		Nickname:    "BraveSimba" + strconv.Itoa(score),
		AvatarEmoji: "🦁",
		County:      "Nairobi",
		TrustScore:  score,
	})
	require.NoError(t, err)
	return u
}

func createTestStaff(t *testing.T, q Querier, email string, role domain.Role) domain.StaffId {
	t.Helper()
	id, err := storage.saveStaff(context.Background(), q, domain.Staff{
		Email:       email,
		PassHash:    "hash",
		Role:        role,
		Permissions: domain.DefaultPermissions(role),
	})
	require.NoError(t, err)
	return id
}
