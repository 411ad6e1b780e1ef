// internal/store/postgres.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hellohand/backend/internal/models"
)

// PostgresStore implements Store on top of a pgx connection pool.
//
// Expected schema:
//
//	CREATE TABLE rooms (
//	    room_id             TEXT PRIMARY KEY,
//	    status              TEXT NOT NULL,
//	    name                TEXT NOT NULL DEFAULT '',
//	    max_participants    INT  NOT NULL,
//	    translation_enabled BOOL NOT NULL,
//	    stt_enabled         BOOL NOT NULL,
//	    tts_enabled         BOOL NOT NULL,
//	    created_at          TIMESTAMPTZ NOT NULL,
//	    started_at          TIMESTAMPTZ,
//	    ended_at            TIMESTAMPTZ
//	);
//
//	CREATE TABLE participants (
//	    session_id      TEXT NOT NULL,
//	    room_id         TEXT NOT NULL REFERENCES rooms(room_id),
//	    name            TEXT NOT NULL,
//	    connected       BOOL NOT NULL,
//	    has_camera      BOOL NOT NULL,
//	    has_microphone  BOOL NOT NULL,
//	    is_deaf         BOOL NOT NULL,
//	    is_mute         BOOL NOT NULL,
//	    joined_at       TIMESTAMPTZ NOT NULL,
//	    disconnected_at TIMESTAMPTZ,
//	    PRIMARY KEY (room_id, session_id)
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres connects a pool and pings it before returning.
func NewPostgres(ctx context.Context, connStr string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) CreateRoom(ctx context.Context, room *models.Room) error {
	q := `
	INSERT INTO rooms (
		room_id, status, name, max_participants,
		translation_enabled, stt_enabled, tts_enabled,
		created_at, started_at, ended_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q,
			room.RoomID, room.Status, room.Name, room.MaxParticipants,
			room.TranslationEnabled, room.STTEnabled, room.TTSEnabled,
			room.CreatedAt, room.StartedAt, room.EndedAt,
		)
		return err
	})
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
		return ErrRoomIDConflict
	}
	return err
}

const roomColumns = `
	room_id, status, name, max_participants,
	translation_enabled, stt_enabled, tts_enabled,
	created_at, started_at, ended_at`

func scanRoom(row pgx.Row) (*models.Room, error) {
	var r models.Room
	err := row.Scan(
		&r.RoomID, &r.Status, &r.Name, &r.MaxParticipants,
		&r.TranslationEnabled, &r.STTEnabled, &r.TTSEnabled,
		&r.CreatedAt, &r.StartedAt, &r.EndedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PostgresStore) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	q := `SELECT` + roomColumns + ` FROM rooms WHERE room_id = $1`
	r, err := scanRoom(s.pool.QueryRow(ctx, q, roomID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	return r, err
}

func (s *PostgresStore) ListRooms(ctx context.Context, status models.RoomStatus, limit int) ([]models.Room, error) {
	q := `SELECT` + roomColumns + ` FROM rooms`
	args := []interface{}{}
	if status != "" {
		q += ` WHERE status = $1`
		args = append(args, status)
	}
	q += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) TransitionRoomStatus(ctx context.Context, roomID string, from, to models.RoomStatus, at time.Time) (bool, error) {
	var q string
	switch to {
	case models.RoomActive:
		q = `UPDATE rooms SET status = $1, started_at = $2 WHERE room_id = $3 AND status = $4`
	case models.RoomEnded:
		q = `UPDATE rooms SET status = $1, ended_at = $2 WHERE room_id = $3 AND status = $4`
	default:
		q = `UPDATE rooms SET status = $1 WHERE room_id = $3 AND status = $4`
	}

	applied := false
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var exists int
		if err := tx.QueryRow(ctx, `SELECT 1 FROM rooms WHERE room_id = $1 FOR UPDATE`, roomID).Scan(&exists); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, q, to, at, roomID, from)
		if err != nil {
			return err
		}
		applied = tag.RowsAffected() == 1
		return nil
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrRoomNotFound
	}
	return applied, err
}

func (s *PostgresStore) CreateParticipant(ctx context.Context, p *models.Participant) error {
	q := `
	INSERT INTO participants (
		session_id, room_id, name, connected,
		has_camera, has_microphone, is_deaf, is_mute,
		joined_at, disconnected_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q,
			p.SessionID, p.RoomID, p.Name, p.Connected,
			p.HasCamera, p.HasMicrophone, p.IsDeaf, p.IsMute,
			p.JoinedAt, p.DisconnectedAt,
		)
		return err
	})
}

const participantColumns = `
	session_id, room_id, name, connected,
	has_camera, has_microphone, is_deaf, is_mute,
	joined_at, disconnected_at`

func scanParticipant(row pgx.Row) (*models.Participant, error) {
	var p models.Participant
	err := row.Scan(
		&p.SessionID, &p.RoomID, &p.Name, &p.Connected,
		&p.HasCamera, &p.HasMicrophone, &p.IsDeaf, &p.IsMute,
		&p.JoinedAt, &p.DisconnectedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) GetParticipant(ctx context.Context, roomID, sessionID string) (*models.Participant, error) {
	q := `SELECT` + participantColumns + ` FROM participants WHERE room_id = $1 AND session_id = $2`
	p, err := scanParticipant(s.pool.QueryRow(ctx, q, roomID, sessionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrParticipantNotFound
	}
	return p, err
}

func (s *PostgresStore) ListConnectedParticipants(ctx context.Context, roomID string) ([]models.Participant, error) {
	q := `SELECT` + participantColumns + `
	FROM participants
	WHERE room_id = $1 AND connected
	ORDER BY joined_at`
	rows, err := s.pool.Query(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountConnectedParticipants(ctx context.Context, roomID string) (int, error) {
	var n int
	q := `SELECT COUNT(*) FROM participants WHERE room_id = $1 AND connected`
	err := s.pool.QueryRow(ctx, q, roomID).Scan(&n)
	return n, err
}

// SetParticipantConnected flips the flag and recounts inside one
// transaction, locking the room row so concurrent disconnects in the same
// room serialize and each observes a distinct count.
func (s *PostgresStore) SetParticipantConnected(ctx context.Context, roomID, sessionID string, connected bool, at time.Time) (int, error) {
	count := 0
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var exists int
		if err := tx.QueryRow(ctx, `SELECT 1 FROM rooms WHERE room_id = $1 FOR UPDATE`, roomID).Scan(&exists); err != nil {
			return err
		}

		var disconnectedAt interface{}
		if !connected {
			disconnectedAt = at
		}
		tag, err := tx.Exec(ctx,
			`UPDATE participants SET connected = $1, disconnected_at = $2 WHERE room_id = $3 AND session_id = $4`,
			connected, disconnectedAt, roomID, sessionID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrParticipantNotFound
		}
		return tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM participants WHERE room_id = $1 AND connected`, roomID,
		).Scan(&count)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrParticipantNotFound
	}
	return count, err
}

func (s *PostgresStore) UpdateParticipantMedia(ctx context.Context, roomID, sessionID string, hasCamera, hasMicrophone *bool) (*models.Participant, error) {
	var p *models.Participant
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE participants
			 SET has_camera = COALESCE($1, has_camera),
			     has_microphone = COALESCE($2, has_microphone)
			 WHERE room_id = $3 AND session_id = $4`,
			hasCamera, hasMicrophone, roomID, sessionID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrParticipantNotFound
		}
		q := `SELECT` + participantColumns + ` FROM participants WHERE room_id = $1 AND session_id = $2`
		p, err = scanParticipant(tx.QueryRow(ctx, q, roomID, sessionID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostgresStore) LastDisconnectedAt(ctx context.Context, roomID string) (time.Time, bool, error) {
	var last *time.Time
	q := `SELECT MAX(disconnected_at) FROM participants WHERE room_id = $1`
	if err := s.pool.QueryRow(ctx, q, roomID).Scan(&last); err != nil {
		return time.Time{}, false, err
	}
	if last == nil {
		return time.Time{}, false, nil
	}
	return *last, true, nil
}
