package soap

import (
	"context"
	"testing"

	"github.com/timmy/qbexport/internal/domain"
)

// memSessionStore is an in-memory SessionStore for state machine tests.
type memSessionStore struct {
	session *domain.Session
}

func (s *memSessionStore) Get(ctx context.Context) (*domain.Session, error) {
	return s.session, nil
}

func (s *memSessionStore) Start(ctx context.Context, userID uint, token, stage string) error {
	s.session = &domain.Session{ID: domain.SessionRecordID, UserID: userID, Token: token, Stage: stage}
	return nil
}

func (s *memSessionStore) UpdateStage(ctx context.Context, stage string) error {
	s.session.Stage = stage
	return nil
}

func (s *memSessionStore) ClearStage(ctx context.Context) error {
	s.session.Stage = ""
	return nil
}

func (s *memSessionStore) Delete(ctx context.Context) error {
	s.session = nil
	return nil
}

func TestSessionManagerValidTransitions(t *testing.T) {
	ctx := context.Background()
	store := &memSessionStore{}
	m := NewSessionManager(store)

	if err := m.StartSession(ctx, 7, "token-1"); err != nil {
		t.Fatalf("StartSession() error: %v", err)
	}
	if store.session.Stage != string(CallAuthenticate) {
		t.Fatalf("stage after start = %q, want %q", store.session.Stage, CallAuthenticate)
	}

	steps := []Call{
		CallSendRequestXML,
		CallReceiveResponseXML,
		CallSendRequestXML,
		CallReceiveResponseXML,
		CallGetLastError,
		CallCloseConnection,
	}
	for _, call := range steps {
		valid, userID := m.Validate(ctx, call)
		if !valid {
			t.Fatalf("Validate(%s) = false, want true (stage %q)", call, store.session.Stage)
		}
		if userID != 7 {
			t.Fatalf("Validate(%s) userID = %d, want 7", call, userID)
		}
		if store.session.Stage != string(call) {
			t.Fatalf("stage after %s = %q, want %q", call, store.session.Stage, call)
		}
	}
}

func TestSessionManagerInvalidCallClearsStage(t *testing.T) {
	ctx := context.Background()
	store := &memSessionStore{}
	m := NewSessionManager(store)

	if err := m.StartSession(ctx, 3, "token-2"); err != nil {
		t.Fatalf("StartSession() error: %v", err)
	}

	// receiveResponseXML straight after authenticate is out of order.
	if valid, _ := m.Validate(ctx, CallReceiveResponseXML); valid {
		t.Fatal("Validate() accepted an out-of-order call")
	}
	if store.session.Stage != "" {
		t.Fatalf("stage after invalid call = %q, want empty", store.session.Stage)
	}

	// With the stage cleared nothing is reachable anymore.
	if valid, _ := m.Validate(ctx, CallSendRequestXML); valid {
		t.Fatal("Validate() accepted a call after the stage was cleared")
	}

	// A fresh authenticate recovers.
	if err := m.StartSession(ctx, 3, "token-3"); err != nil {
		t.Fatalf("StartSession() error: %v", err)
	}
	if valid, _ := m.Validate(ctx, CallSendRequestXML); !valid {
		t.Fatal("Validate() rejected sendRequestXML after a fresh authenticate")
	}
}

func TestSessionManagerNoSession(t *testing.T) {
	ctx := context.Background()
	m := NewSessionManager(&memSessionStore{})

	if valid, _ := m.Validate(ctx, CallSendRequestXML); valid {
		t.Fatal("Validate() accepted a call with no session stored")
	}
}

func TestSessionManagerClose(t *testing.T) {
	ctx := context.Background()
	store := &memSessionStore{}
	m := NewSessionManager(store)

	if err := m.StartSession(ctx, 1, "token"); err != nil {
		t.Fatalf("StartSession() error: %v", err)
	}
	if err := m.CloseSession(ctx); err != nil {
		t.Fatalf("CloseSession() error: %v", err)
	}
	if store.session != nil {
		t.Fatal("session survived CloseSession()")
	}
}
