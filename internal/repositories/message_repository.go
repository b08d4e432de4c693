package repositories

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/0xtito/network-state-bot/internal/models"
)

// ErrDuplicateMessage is returned when a message id was already ingested.
var ErrDuplicateMessage = errors.New("message already stored")

const (
	// DefaultQueryLimit applies when the caller does not pass a limit.
	DefaultQueryLimit = 100
	// MaxQueryLimit is the hard cap on a single query.
	MaxQueryLimit = 100
)

// MessageRepository defines persistence for normalized and raw message rows.
type MessageRepository interface {
	InsertMessage(ctx context.Context, msg models.ChatMessage) error
	InsertRaw(ctx context.Context, raw models.ChatMessageRaw) error
	QueryMessages(ctx context.Context, start, end time.Time, channelID string, limit int) ([]models.ChatMessage, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// InsertMessage stores exactly one normalized row. A primary-key conflict
// maps to ErrDuplicateMessage. It is intentionally independent of InsertRaw;
// the two writes are not one transaction.
func (r *MessageRepo) InsertMessage(ctx context.Context, msg models.ChatMessage) error {
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO ns_bot_discord_messages
        (id, channel_id, author, content, timestamp, edited_timestamp, mentions, attachments,
         embeds, reactions, pinned, type, flags, message_reference, referenced_message, thread, poll)
        VALUES
        (:id, :channel_id, :author, :content, :timestamp, :edited_timestamp, :mentions, :attachments,
         :embeds, :reactions, :pinned, :type, :flags, :message_reference, :referenced_message, :thread, :poll)`, msg)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateMessage
		}
		return err
	}
	return nil
}

// InsertRaw appends one raw audit blob.
func (r *MessageRepo) InsertRaw(ctx context.Context, raw models.ChatMessageRaw) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO ns_bot_discord_messages_raw (blob) VALUES ($1)`, raw.Blob)
	return err
}

// QueryMessages returns rows whose timestamp lies in [start, end], both
// bounds inclusive, optionally restricted to one channel. Ordering is
// timestamp ascending with id as tie-breaker so results are deterministic.
// An empty result set is a valid outcome, never an error.
func (r *MessageRepo) QueryMessages(ctx context.Context, start, end time.Time, channelID string, limit int) ([]models.ChatMessage, error) {
	if limit < 1 || limit > MaxQueryLimit {
		limit = DefaultQueryLimit
	}

	query := `SELECT id, channel_id, author, content, timestamp, edited_timestamp, mentions,
        attachments, embeds, reactions, pinned, type, flags, message_reference,
        referenced_message, thread, poll
        FROM ns_bot_discord_messages
        WHERE timestamp >= $1 AND timestamp <= $2`
	args := []any{start, end}

	if channelID != "" {
		query += ` AND channel_id = $3`
		args = append(args, channelID)
	}
	query += ` ORDER BY timestamp ASC, id ASC LIMIT ` + strconv.Itoa(limit)

	msgs := []models.ChatMessage{}
	if err := r.db.SelectContext(ctx, &msgs, query, args...); err != nil {
		return nil, err
	}
	return msgs, nil
}
