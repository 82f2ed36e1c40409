package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"jobboard_back_end_go/db"
	"jobboard_back_end_go/models"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	pgOnce sync.Once
	pgPool *pgxpool.Pool
	pgErr  error
)

// testPool starts one postgres container for the package and skips when no
// container runtime is reachable.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres integration test skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	pgOnce.Do(func() {
		ctx := context.Background()
		container, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("jobboard"),
			postgres.WithUsername("jobboard"),
			postgres.WithPassword("password"),
			postgres.BasicWaitStrategies(),
		)
		if err != nil {
			pgErr = err
			return
		}
		connStr, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			pgErr = err
			return
		}
		pool, err := pgxpool.Connect(ctx, connStr)
		if err != nil {
			pgErr = err
			return
		}
		if err := db.CreateSchema(ctx, pool); err != nil {
			pgErr = err
			return
		}
		pgPool = pool
	})
	if pgErr != nil {
		t.Skipf("postgres container unavailable: %v", pgErr)
	}

	t.Cleanup(func() {
		_, err := pgPool.Exec(context.Background(), `TRUNCATE TABLE messages, interviews, applications, jobs, profiles RESTART IDENTITY CASCADE`)
		require.NoError(t, err)
	})
	return pgPool
}

func insertProfile(t *testing.T, pool *pgxpool.Pool, name, email string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(context.Background(),
		`INSERT INTO profiles (full_name, role, email) VALUES ($1, 'candidate', $2) RETURNING id::text`,
		name, email).Scan(&id)
	require.NoError(t, err)
	return id
}

func Test_PostgresStore_ThreadAndReadState(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	store := NewPostgresStore(pool)

	alice := insertProfile(t, pool, "Alice Martin", "alice@example.com")
	bob := insertProfile(t, pool, "Bob Stone", "bob@example.com")

	first, err := store.Insert(ctx, models.NewMessage{SenderID: alice, ReceiverID: bob, Content: "Hi"})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := store.Insert(ctx, models.NewMessage{SenderID: bob, ReceiverID: alice, Content: "Hello"})
	require.NoError(t, err)
	assert.Greater(t, second.Seq, first.Seq)

	thread, err := store.ListThread(ctx, alice, bob)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, "Hi", thread[0].Content)
	assert.Equal(t, "Bob Stone", thread[1].SenderName)

	inbox, err := store.ListForUser(ctx, alice)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, "Hello", inbox[0].Content)

	unread, err := store.CountUnread(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	n, err := store.MarkRead(ctx, alice, bob)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = store.MarkRead(ctx, alice, bob)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	unread, err = store.CountUnread(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 0, unread)
}

func Test_PostgresStore_SoftDelete(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	store := NewPostgresStore(pool)

	alice := insertProfile(t, pool, "Alice Martin", "alice@example.com")
	bob := insertProfile(t, pool, "Bob Stone", "bob@example.com")

	msg, err := store.Insert(ctx, models.NewMessage{SenderID: bob, ReceiverID: alice, Content: "oops"})
	require.NoError(t, err)

	_, err = store.SoftDelete(ctx, msg.ID, alice)
	assert.ErrorIs(t, err, ErrNotFound)

	deleted, err := store.SoftDelete(ctx, msg.ID, bob)
	require.NoError(t, err)
	assert.NotNil(t, deleted.DeletedAt)
	assert.Equal(t, alice, deleted.ReceiverID)

	inbox, err := store.ListForUser(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, inbox)

	unread, err := store.CountUnread(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 0, unread)
}

func Test_PostgresStore_InvalidReference(t *testing.T) {
	pool := testPool(t)
	store := NewPostgresStore(pool)

	alice := insertProfile(t, pool, "Alice Martin", "alice@example.com")
	_, err := store.Insert(context.Background(), models.NewMessage{
		SenderID:   alice,
		ReceiverID: "1b4e28ba-2fa1-11d2-883f-0016d3cca427",
		Content:    "anyone?",
	})
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func Test_PostgresStore_Profiles(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	store := NewPostgresStore(pool)

	id := insertProfile(t, pool, "Carla Diaz", "carla@example.com")

	p, err := store.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCandidate, p.Role)

	found, err := store.SearchProfiles(ctx, "diaz", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)

	insertProfile(t, pool, "Dan O'Neil", "dan@example.com")
	for _, pattern := range []string{"%", "_", "d_az"} {
		found, err = store.SearchProfiles(ctx, pattern, 10)
		require.NoError(t, err)
		assert.Empty(t, found, pattern)
	}

	byEmail, err := store.FindByEmail(ctx, "CARLA@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, byEmail.ID)

	_, err = store.GetProfile(ctx, "1b4e28ba-2fa1-11d2-883f-0016d3cca427")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\% \_match\\`, escapeLike(`100% _match\`))
	assert.Equal(t, "diaz", escapeLike("diaz"))
}
