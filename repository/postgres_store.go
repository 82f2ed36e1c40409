package repository

import (
	"context"
	"strings"

	"jobboard_back_end_go/models"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
)

// PostgresStore implements MessageStore and ProfileStore over pgxpool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const messageColumns = `
	m.id::text,
	m.seq,
	m.sender_id::text,
	m.receiver_id::text,
	m.content,
	m.application_id::text,
	m.created_at,
	m.read_at,
	m.deleted_at,
	COALESCE(s.full_name, ''),
	COALESCE(s.avatar_url, ''),
	COALESCE(r.full_name, ''),
	COALESCE(r.avatar_url, '')`

const messageJoins = `
	FROM messages AS m
	LEFT JOIN profiles AS s ON s.id = m.sender_id
	LEFT JOIN profiles AS r ON r.id = m.receiver_id`

func scanMessage(row pgx.Row) (models.Message, error) {
	var m models.Message
	err := row.Scan(
		&m.ID,
		&m.Seq,
		&m.SenderID,
		&m.ReceiverID,
		&m.Content,
		&m.ApplicationID,
		&m.CreatedAt,
		&m.ReadAt,
		&m.DeletedAt,
		&m.SenderName,
		&m.SenderAvatar,
		&m.ReceiverName,
		&m.ReceiverAvatar,
	)
	return m, err
}

func (r *PostgresStore) queryMessages(ctx context.Context, op, query string, args ...interface{}) ([]models.Message, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, op+".Query")
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, errors.Wrap(err, op+".Scan")
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, op+".Rows")
	}
	return messages, nil
}

func (r *PostgresStore) ListForUser(ctx context.Context, userID string) ([]models.Message, error) {
	return r.queryMessages(ctx, "messageRepo.ListForUser", `
	SELECT `+messageColumns+messageJoins+`
	WHERE
		(m.sender_id = $1 OR m.receiver_id = $1)
	AND
		m.deleted_at IS NULL
	ORDER BY m.created_at DESC, m.seq DESC`, userID)
}

func (r *PostgresStore) ListThread(ctx context.Context, userID, counterpartID string) ([]models.Message, error) {
	return r.queryMessages(ctx, "messageRepo.ListThread", `
	SELECT `+messageColumns+messageJoins+`
	WHERE
		((m.sender_id = $1 AND m.receiver_id = $2) OR (m.sender_id = $2 AND m.receiver_id = $1))
	AND
		m.deleted_at IS NULL
	ORDER BY m.created_at ASC, m.seq ASC`, userID, counterpartID)
}

func (r *PostgresStore) Insert(ctx context.Context, msg models.NewMessage) (models.Message, error) {
	m := models.Message{
		SenderID:      msg.SenderID,
		ReceiverID:    msg.ReceiverID,
		Content:       msg.Content,
		ApplicationID: msg.ApplicationID,
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO messages (sender_id, receiver_id, content, application_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text, seq, created_at`,
		msg.SenderID, msg.ReceiverID, msg.Content, msg.ApplicationID,
	).Scan(&m.ID, &m.Seq, &m.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return models.Message{}, ErrInvalidReference
		}
		return models.Message{}, errors.Wrap(err, "messageRepo.Insert.Scan")
	}
	return m, nil
}

func (r *PostgresStore) MarkRead(ctx context.Context, receiverID, senderID string) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE messages SET read_at = NOW()
		WHERE receiver_id = $1 AND sender_id = $2 AND read_at IS NULL AND deleted_at IS NULL`,
		receiverID, senderID)
	if err != nil {
		return 0, errors.Wrap(err, "messageRepo.MarkRead.Exec")
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresStore) CountUnread(ctx context.Context, receiverID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages WHERE receiver_id = $1 AND read_at IS NULL AND deleted_at IS NULL`,
		receiverID).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "messageRepo.CountUnread.Scan")
	}
	return n, nil
}

func (r *PostgresStore) SoftDelete(ctx context.Context, messageID, senderID string) (models.Message, error) {
	m, err := scanMessage(r.pool.QueryRow(ctx, `
	WITH deleted AS (
		UPDATE messages SET deleted_at = NOW()
		WHERE id = $1 AND sender_id = $2 AND deleted_at IS NULL
		RETURNING *
	)
	SELECT `+messageColumns+`
	FROM deleted AS m
	LEFT JOIN profiles AS s ON s.id = m.sender_id
	LEFT JOIN profiles AS r ON r.id = m.receiver_id`, messageID, senderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Message{}, ErrNotFound
		}
		return models.Message{}, errors.Wrap(err, "messageRepo.SoftDelete.Scan")
	}
	return m, nil
}

const profileColumns = `id::text, full_name, COALESCE(avatar_url, ''), role, email, password_hash, created_at`

func scanProfile(row pgx.Row) (*models.Profile, error) {
	p := new(models.Profile)
	var role string
	err := row.Scan(&p.ID, &p.FullName, &p.AvatarURL, &role, &p.Email, &p.PasswordHash, &p.CreatedAt)
	p.Role = models.Role(role)
	return p, err
}

func (r *PostgresStore) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	p, err := scanProfile(r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "profileRepo.GetProfile.Scan")
	}
	return p, nil
}

// escapeLike makes name match literally inside a LIKE pattern, the same
// way MemoryStore matches it.
func escapeLike(name string) string {
	return likeEscaper.Replace(name)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *PostgresStore) SearchProfiles(ctx context.Context, name string, limit int) ([]models.Profile, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+profileColumns+` FROM profiles
		WHERE LOWER(full_name) LIKE LOWER($1) ESCAPE '\'
		ORDER BY full_name
		LIMIT $2`,
		"%"+escapeLike(name)+"%", limit)
	if err != nil {
		return nil, errors.Wrap(err, "profileRepo.SearchProfiles.Query")
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, errors.Wrap(err, "profileRepo.SearchProfiles.Scan")
		}
		profiles = append(profiles, *p)
	}
	return profiles, errors.Wrap(rows.Err(), "profileRepo.SearchProfiles.Rows")
}

func (r *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Profile, error) {
	p, err := scanProfile(r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE LOWER(email) = LOWER($1)`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "profileRepo.FindByEmail.Scan")
	}
	return p, nil
}
