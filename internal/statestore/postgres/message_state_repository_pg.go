package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meldeo/dialog-status-tracker/internal/core_domain"
	"github.com/meldeo/dialog-status-tracker/internal/statestore"
)

const messageColumns = `id, external_ref_id, message_type, current_state, external_delivery_state,
       app_rec_status, external_message_url, last_state_change, last_polled_at, created_at, updated_at`

type pgStateStore struct {
	db            *pgxpool.Pool
	logger        *slog.Logger
	pollThreshold time.Duration
}

// NewPgStateStore creates the PostgreSQL implementation of the state store.
// pollThreshold is the minimum age of the last poll attempt before a NEW
// message becomes eligible for polling again.
func NewPgStateStore(db *pgxpool.Pool, logger *slog.Logger, pollThreshold time.Duration) statestore.StateStore {
	return &pgStateStore{
		db:            db,
		logger:        logger.With("component", "pg_state_store"),
		pollThreshold: pollThreshold,
	}
}

func (r *pgStateStore) CreateState(ctx context.Context, msgType core_domain.MessageType, state core_domain.ProcessingState, externalRefID, messageURL string, occurredAt time.Time) (*core_domain.MessageState, error) {
	var result *core_domain.MessageState
	txErr := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		existing, err := r.lockByRefID(ctx, tx, externalRefID)
		if err != nil && !errors.Is(err, statestore.ErrStateNotFound) {
			return err
		}
		if existing != nil {
			// Upsert: the record already exists, so this behaves as an update.
			// The original message URL is immutable and kept as-is.
			result, err = r.updateLocked(ctx, tx, existing, msgType, state, nil, nil, occurredAt)
			return err
		}

		now := time.Now().UTC()
		msg := &core_domain.MessageState{
			ID:                 uuid.New(),
			ExternalRefID:      externalRefID,
			MessageType:        msgType,
			CurrentState:       state,
			ExternalMessageURL: messageURL,
			LastStateChange:    occurredAt,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		insert := `
			INSERT INTO messages (id, external_ref_id, message_type, current_state, external_message_url,
			                      last_state_change, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		if _, err := tx.Exec(ctx, insert,
			msg.ID, msg.ExternalRefID, msg.MessageType, msg.CurrentState, msg.ExternalMessageURL,
			msg.LastStateChange, msg.CreatedAt, msg.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert message state: %w", err)
		}

		// Baseline history row marks the creation: old state == new state.
		if err := r.appendHistory(ctx, tx, msg.ID, state, state, occurredAt); err != nil {
			return err
		}
		result = msg
		return nil
	})
	if txErr != nil {
		r.logger.ErrorContext(ctx, "Failed to create message state", "error", txErr, "external_ref_id", externalRefID)
		return nil, txErr
	}
	return result, nil
}

func (r *pgStateStore) UpdateState(ctx context.Context, msgType core_domain.MessageType, newState core_domain.ProcessingState, externalRefID string, delivery *core_domain.ExternalDeliveryState, appRec *core_domain.AppRecStatus, occurredAt time.Time) (*core_domain.MessageState, error) {
	var result *core_domain.MessageState
	txErr := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		existing, err := r.lockByRefID(ctx, tx, externalRefID)
		if err != nil {
			return err
		}
		result, err = r.updateLocked(ctx, tx, existing, msgType, newState, delivery, appRec, occurredAt)
		return err
	})
	if txErr != nil {
		if !errors.Is(txErr, statestore.ErrStateNotFound) {
			r.logger.ErrorContext(ctx, "Failed to update message state", "error", txErr, "external_ref_id", externalRefID)
		}
		return nil, txErr
	}
	return result, nil
}

// lockByRefID selects the message row FOR UPDATE, serializing concurrent
// writers per reference id for the remainder of the transaction.
func (r *pgStateStore) lockByRefID(ctx context.Context, tx pgx.Tx, externalRefID string) (*core_domain.MessageState, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE external_ref_id = $1 FOR UPDATE`
	msg, err := scanMessage(tx.QueryRow(ctx, query, externalRefID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, statestore.ErrStateNotFound
		}
		return nil, fmt.Errorf("lock message state: %w", err)
	}
	return msg, nil
}

// updateLocked applies a validated transition to an already-locked row and
// appends the matching history entry. The delivery/app-rec pair is written
// together or not at all; a poll-driven update (pair present) also refreshes
// the poll timestamp.
func (r *pgStateStore) updateLocked(ctx context.Context, tx pgx.Tx, existing *core_domain.MessageState, msgType core_domain.MessageType, newState core_domain.ProcessingState, delivery *core_domain.ExternalDeliveryState, appRec *core_domain.AppRecStatus, occurredAt time.Time) (*core_domain.MessageState, error) {
	now := time.Now().UTC()
	query := `
		UPDATE messages
		SET message_type = $2,
		    current_state = $3,
		    external_delivery_state = COALESCE($4, external_delivery_state),
		    app_rec_status = COALESCE($5, app_rec_status),
		    last_state_change = $6,
		    last_polled_at = COALESCE($7, last_polled_at),
		    updated_at = $8
		WHERE id = $1
	`
	var polledAt sql.NullTime
	if delivery != nil && appRec != nil {
		polledAt = sql.NullTime{Time: occurredAt, Valid: true}
	}
	if _, err := tx.Exec(ctx, query,
		existing.ID, msgType, newState, enumParam(delivery), enumParam(appRec),
		occurredAt, polledAt, now,
	); err != nil {
		return nil, fmt.Errorf("update message state: %w", err)
	}

	if err := r.appendHistory(ctx, tx, existing.ID, existing.CurrentState, newState, occurredAt); err != nil {
		return nil, err
	}

	updated, err := scanMessage(tx.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, existing.ID))
	if err != nil {
		return nil, fmt.Errorf("reload message state: %w", err)
	}
	return updated, nil
}

func (r *pgStateStore) appendHistory(ctx context.Context, tx pgx.Tx, messageID uuid.UUID, oldState, newState core_domain.ProcessingState, occurredAt time.Time) error {
	query := `
		INSERT INTO message_state_history (id, message_id, old_state, new_state, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.Exec(ctx, query, uuid.New(), messageID, oldState, newState, occurredAt); err != nil {
		return fmt.Errorf("append state history: %w", err)
	}
	return nil
}

func (r *pgStateStore) FindOrNull(ctx context.Context, externalRefID string) (*core_domain.MessageState, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE external_ref_id = $1`
	msg, err := scanMessage(r.db.QueryRow(ctx, query, externalRefID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.ErrorContext(ctx, "Failed to look up message state", "error", err, "external_ref_id", externalRefID)
		return nil, err
	}
	return msg, nil
}

func (r *pgStateStore) FindForPolling(ctx context.Context, limit int) ([]*core_domain.MessageState, error) {
	if limit <= 0 {
		limit = statestore.DefaultPollBatchSize
	}
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE current_state = $1
		  AND (last_polled_at IS NULL OR last_polled_at <= (NOW() - make_interval(secs => $2)))
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, core_domain.StateNew, r.pollThreshold.Seconds(), limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to select pollable messages", "error", err)
		return nil, err
	}
	defer rows.Close()

	var result []*core_domain.MessageState
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pollable message: %w", err)
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}

func (r *pgStateStore) MarkPolled(ctx context.Context, externalRefID string, occurredAt time.Time) error {
	query := `UPDATE messages SET last_polled_at = $2, updated_at = $3 WHERE external_ref_id = $1`
	tag, err := r.db.Exec(ctx, query, externalRefID, occurredAt, time.Now().UTC())
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to mark message as polled", "error", err, "external_ref_id", externalRefID)
		return err
	}
	if tag.RowsAffected() == 0 {
		return statestore.ErrStateNotFound
	}
	return nil
}

// enumParam converts an optional enum to a driver-friendly nullable string.
func enumParam[T ~string](v *T) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*v), Valid: true}
}

func scanMessage(row pgx.Row) (*core_domain.MessageState, error) {
	msg := &core_domain.MessageState{}
	var delivery, appRec sql.NullString
	var lastPolledAt sql.NullTime
	err := row.Scan(
		&msg.ID, &msg.ExternalRefID, &msg.MessageType, &msg.CurrentState, &delivery,
		&appRec, &msg.ExternalMessageURL, &msg.LastStateChange, &lastPolledAt,
		&msg.CreatedAt, &msg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if delivery.Valid {
		v := core_domain.ExternalDeliveryState(delivery.String)
		msg.ExternalDeliveryState = &v
	}
	if appRec.Valid {
		v := core_domain.AppRecStatus(appRec.String)
		msg.AppRecStatus = &v
	}
	if lastPolledAt.Valid {
		t := lastPolledAt.Time
		msg.LastPolledAt = &t
	}
	return msg, nil
}
