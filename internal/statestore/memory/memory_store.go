package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meldeo/dialog-status-tracker/internal/core_domain"
	"github.com/meldeo/dialog-status-tracker/internal/statestore"
)

// MemoryStateStore is an in-memory StateStore with the same observable
// semantics as the PostgreSQL implementation. Used by tests and local runs
// without a database.
type MemoryStateStore struct {
	mu            sync.Mutex
	pollThreshold time.Duration
	byRefID       map[string]*core_domain.MessageState
	history       map[uuid.UUID][]core_domain.MessageStateHistory
}

func NewMemoryStateStore(pollThreshold time.Duration) *MemoryStateStore {
	return &MemoryStateStore{
		pollThreshold: pollThreshold,
		byRefID:       make(map[string]*core_domain.MessageState),
		history:       make(map[uuid.UUID][]core_domain.MessageStateHistory),
	}
}

func (s *MemoryStateStore) CreateState(ctx context.Context, msgType core_domain.MessageType, state core_domain.ProcessingState, externalRefID, messageURL string, occurredAt time.Time) (*core_domain.MessageState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byRefID[externalRefID]; ok {
		// Upsert: delegate to update semantics, keeping the original URL.
		return s.updateLocked(existing, msgType, state, nil, nil, occurredAt), nil
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
	s.byRefID[externalRefID] = msg
	s.history[msg.ID] = append(s.history[msg.ID], core_domain.MessageStateHistory{
		ID:         uuid.New(),
		MessageID:  msg.ID,
		OldState:   state,
		NewState:   state,
		OccurredAt: occurredAt,
	})
	return copyState(msg), nil
}

func (s *MemoryStateStore) UpdateState(ctx context.Context, msgType core_domain.MessageType, newState core_domain.ProcessingState, externalRefID string, delivery *core_domain.ExternalDeliveryState, appRec *core_domain.AppRecStatus, occurredAt time.Time) (*core_domain.MessageState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byRefID[externalRefID]
	if !ok {
		return nil, statestore.ErrStateNotFound
	}
	return s.updateLocked(existing, msgType, newState, delivery, appRec, occurredAt), nil
}

func (s *MemoryStateStore) updateLocked(msg *core_domain.MessageState, msgType core_domain.MessageType, newState core_domain.ProcessingState, delivery *core_domain.ExternalDeliveryState, appRec *core_domain.AppRecStatus, occurredAt time.Time) *core_domain.MessageState {
	s.history[msg.ID] = append(s.history[msg.ID], core_domain.MessageStateHistory{
		ID:         uuid.New(),
		MessageID:  msg.ID,
		OldState:   msg.CurrentState,
		NewState:   newState,
		OccurredAt: occurredAt,
	})

	msg.MessageType = msgType
	msg.CurrentState = newState
	msg.LastStateChange = occurredAt
	msg.UpdatedAt = time.Now().UTC()
	if delivery != nil && appRec != nil {
		d, a := *delivery, *appRec
		msg.ExternalDeliveryState = &d
		msg.AppRecStatus = &a
		polled := occurredAt
		msg.LastPolledAt = &polled
	}
	return copyState(msg)
}

func (s *MemoryStateStore) FindOrNull(ctx context.Context, externalRefID string) (*core_domain.MessageState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.byRefID[externalRefID]
	if !ok {
		return nil, nil
	}
	return copyState(msg), nil
}

func (s *MemoryStateStore) FindForPolling(ctx context.Context, limit int) ([]*core_domain.MessageState, error) {
	if limit <= 0 {
		limit = statestore.DefaultPollBatchSize
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-s.pollThreshold)
	var result []*core_domain.MessageState
	for _, msg := range s.byRefID {
		if msg.CurrentState != core_domain.StateNew {
			continue
		}
		if msg.LastPolledAt != nil && msg.LastPolledAt.After(cutoff) {
			continue
		}
		result = append(result, copyState(msg))
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (s *MemoryStateStore) MarkPolled(ctx context.Context, externalRefID string, occurredAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.byRefID[externalRefID]
	if !ok {
		return statestore.ErrStateNotFound
	}
	polled := occurredAt
	msg.LastPolledAt = &polled
	msg.UpdatedAt = time.Now().UTC()
	return nil
}

// HistoryFor returns the recorded transitions for a reference id, ordered by
// append order. Test helper; the SQL store exposes history via its table.
func (s *MemoryStateStore) HistoryFor(externalRefID string) []core_domain.MessageStateHistory {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.byRefID[externalRefID]
	if !ok {
		return nil
	}
	out := make([]core_domain.MessageStateHistory, len(s.history[msg.ID]))
	copy(out, s.history[msg.ID])
	return out
}

func copyState(msg *core_domain.MessageState) *core_domain.MessageState {
	cp := *msg
	if msg.ExternalDeliveryState != nil {
		v := *msg.ExternalDeliveryState
		cp.ExternalDeliveryState = &v
	}
	if msg.AppRecStatus != nil {
		v := *msg.AppRecStatus
		cp.AppRecStatus = &v
	}
	if msg.LastPolledAt != nil {
		t := *msg.LastPolledAt
		cp.LastPolledAt = &t
	}
	return &cp
}
