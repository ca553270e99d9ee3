package soap

import (
	"context"

	"github.com/timmy/qbexport/internal/domain"
	"github.com/timmy/qbexport/internal/logger"
)

// SessionStore persists the single protocol session between round trips.
type SessionStore interface {
	Get(ctx context.Context) (*domain.Session, error)
	Start(ctx context.Context, userID uint, token, stage string) error
	UpdateStage(ctx context.Context, stage string) error
	ClearStage(ctx context.Context) error
	Delete(ctx context.Context) error
}

// nextSteps is the protocol transition table: for the stored stage (the
// last call that passed validation), the calls the client may make next.
// sendRequestXML and receiveResponseXML alternate until the client asks
// for the error state; closeConnection is reachable from any late stage.
var nextSteps = map[string][]Call{
	string(CallServerVersion):      {CallClientVersion},
	string(CallClientVersion):      {CallAuthenticate},
	string(CallAuthenticate):       {CallSendRequestXML, CallCloseConnection},
	string(CallSendRequestXML):     {CallGetLastError, CallReceiveResponseXML, CallSendRequestXML},
	string(CallReceiveResponseXML): {CallGetLastError, CallSendRequestXML, CallCloseConnection},
	string(CallGetLastError):       {CallCloseConnection, CallSendRequestXML},
	string(CallCloseConnection):    {},
}

// SessionManager validates protocol calls against the stored session and
// advances the state machine.
type SessionManager struct {
	store SessionStore
}

// NewSessionManager creates a SessionManager over the given store.
func NewSessionManager(store SessionStore) *SessionManager {
	return &SessionManager{store: store}
}

// StartSession overwrites any session in progress with a fresh one for
// the given user. The stage starts at authenticate.
func (m *SessionManager) StartSession(ctx context.Context, userID uint, token string) error {
	return m.store.Start(ctx, userID, token, string(CallAuthenticate))
}

// Validate checks that a session exists and that the call is a legal next
// step from the stored stage. A legal call becomes the new stage; an
// illegal one clears the stage so only a fresh authenticate can recover.
// Returns whether the call may proceed and the session's user ID.
func (m *SessionManager) Validate(ctx context.Context, call Call) (bool, uint) {
	s, err := m.store.Get(ctx)
	if err != nil {
		logger.CtxError(ctx, "session lookup failed: %v", err)
		return false, 0
	}
	if s == nil || s.UserID == 0 || s.Token == "" {
		return false, 0
	}

	valid := false
	for _, next := range nextSteps[s.Stage] {
		if next == call {
			valid = true
			break
		}
	}

	if valid {
		if err := m.store.UpdateStage(ctx, string(call)); err != nil {
			logger.CtxError(ctx, "session stage update failed: %v", err)
			return false, 0
		}
		return true, s.UserID
	}

	logger.CtxWarn(ctx, "call %q not allowed after stage %q, clearing session stage", call, s.Stage)
	if err := m.store.ClearStage(ctx); err != nil {
		logger.CtxError(ctx, "session stage clear failed: %v", err)
	}
	return false, s.UserID
}

// CloseSession removes the session record.
func (m *SessionManager) CloseSession(ctx context.Context) error {
	return m.store.Delete(ctx)
}
