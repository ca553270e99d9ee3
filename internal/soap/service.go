package soap

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/qbexport/internal/domain"
	"github.com/timmy/qbexport/internal/exporter"
	"github.com/timmy/qbexport/internal/logger"
	"github.com/timmy/qbexport/internal/qbxml"
)

// Authenticator checks export account credentials. A zero user ID means
// the credentials were rejected.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (uint, error)
}

// UserDirectory answers permission questions about authenticated users.
type UserDirectory interface {
	HasExportAccess(ctx context.Context, userID uint) (bool, error)
}

// MappingStore is the idempotent source-to-destination bookkeeping.
type MappingStore interface {
	Save(ctx context.Context, migrationID, sourceKey, destinationID string, status domain.MappingStatus) error
	ProcessedCount(ctx context.Context, migrationID string) (int64, error)
	UpdateCount(ctx context.Context, migrationID string) (int64, error)
	SaveMessage(ctx context.Context, migrationID, sourceKey, message string) error
	RequeueFailed(ctx context.Context, migrationID string) (int64, error)
}

// RowStore persists the row currently out with QuickBooks.
type RowStore interface {
	Current(ctx context.Context) (*domain.ExportRow, error)
	Put(ctx context.Context, row *domain.ExportRow) error
	Clear(ctx context.Context) error
}

// Archiver stores raw protocol payloads for audit. Optional.
type Archiver interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
}

// Notifier is told when the Web Connector closes a session. Optional.
type Notifier interface {
	SessionClosed(ctx context.Context, summary ExportSummary)
}

// ExportSummary describes the state of the export when a session closed.
type ExportSummary struct {
	Percent  int       `json:"percent"`
	Done     int64     `json:"done"`
	Todo     int64     `json:"todo"`
	ClosedAt time.Time `json:"closed_at"`
}

// MigrationStat is a per-migration progress snapshot.
type MigrationStat struct {
	ID          string `json:"id"`
	SourceCount int64  `json:"source_count"`
	Processed   int64  `json:"processed"`
	Updates     int64  `json:"updates"`
}

// Request is a decoded protocol call.
type Request struct {
	Call     Call
	Ticket   string
	Username string
	Password string
	Version  string
	Response string
}

// Result carries the outcome of a dispatched call. Nil fields mean the
// call produced nothing, which the transport renders as an empty result.
type Result struct {
	ServerVersion      *string
	ClientVersion      *string
	Authenticate       []string
	SendRequestXML     *string
	ReceiveResponseXML *int
	GetLastError       *string
	CloseConnection    *string
}

// Service is the protocol orchestrator. The Web Connector runs one update
// at a time, and a single mutex holds that line even if a second client
// shows up; all cross-call state lives in the database.
type Service struct {
	mu sync.Mutex

	sessions *SessionManager
	auth     Authenticator
	users    UserDirectory
	registry *exporter.Registry
	queue    WorkQueue
	mappings MappingStore
	rows     RowStore
	archive  Archiver
	notifier Notifier

	serverVersion string
	clientVersion string
}

// Deps collects the service's collaborators. Archive and Notifier may be
// nil.
type Deps struct {
	Sessions *SessionManager
	Auth     Authenticator
	Users    UserDirectory
	Registry *exporter.Registry
	Queue    WorkQueue
	Mappings MappingStore
	Rows     RowStore
	Archive  Archiver
	Notifier Notifier

	ServerVersion string
}

// NewService creates the orchestrator.
func NewService(d Deps) *Service {
	return &Service{
		sessions:      d.Sessions,
		auth:          d.Auth,
		users:         d.Users,
		registry:      d.Registry,
		queue:         d.Queue,
		mappings:      d.Mappings,
		rows:          d.Rows,
		archive:       d.Archive,
		notifier:      d.Notifier,
		serverVersion: d.ServerVersion,
	}
}

// Dispatch runs one protocol call. Non-public calls are gated on session
// validation and the export permission; a failed gate yields an empty
// Result rather than a SOAP fault, which is what the desktop client
// copes with best.
func (s *Service) Dispatch(ctx context.Context, req *Request) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx = logger.WithField(ctx, logger.FieldCall, string(req.Call))
	res := &Result{}

	if !req.Call.Public() {
		if req.Ticket == "" {
			logger.CtxWarn(ctx, "call without ticket rejected")
			return res
		}
		ctx = logger.WithField(ctx, logger.FieldSessionToken, req.Ticket)
		valid, userID := s.sessions.Validate(ctx, req.Call)
		if !valid {
			logger.CtxWarn(ctx, "session validation failed")
			return res
		}
		allowed, err := s.users.HasExportAccess(ctx, userID)
		if err != nil {
			logger.CtxError(ctx, "permission lookup failed: %v", err)
			return res
		}
		if !allowed {
			logger.CtxWarn(ctx, "user %d has no export access", userID)
			return res
		}
		ctx = logger.WithField(ctx, logger.FieldUserID, userID)
	}

	switch req.Call {
	case CallServerVersion:
		v := s.serverVersion
		res.ServerVersion = &v
	case CallClientVersion:
		s.clientVersion = req.Version
		logger.CtxInfo(ctx, "client version %q accepted", req.Version)
		empty := ""
		res.ClientVersion = &empty
	case CallAuthenticate:
		ticket, code := s.authenticate(ctx, req.Username, req.Password)
		res.Authenticate = []string{ticket, code}
	case CallSendRequestXML:
		payload := s.sendRequestXML(ctx)
		res.SendRequestXML = &payload
	case CallReceiveResponseXML:
		progress := s.receiveResponseXML(ctx, req.Response)
		res.ReceiveResponseXML = &progress
	case CallGetLastError:
		msg := s.getLastError(ctx)
		res.GetLastError = &msg
	case CallCloseConnection:
		out := s.closeConnection(ctx)
		res.CloseConnection = &out
	default:
		logger.CtxWarn(ctx, "unknown call %q", req.Call)
	}

	return res
}

// authenticate checks credentials and starts a fresh session. The second
// return value is "" on success and "nvu" on rejection.
func (s *Service) authenticate(ctx context.Context, username, password string) (string, string) {
	userID, err := s.auth.Authenticate(ctx, username, password)
	if err != nil {
		logger.CtxError(ctx, "authentication lookup failed: %v", err)
		return "", AuthCodeInvalidUser
	}
	if userID == 0 {
		logger.CtxWarn(ctx, "authentication rejected for %q", username)
		return "", AuthCodeInvalidUser
	}

	token := uuid.New().String()
	if err := s.sessions.StartSession(ctx, userID, token); err != nil {
		logger.CtxError(ctx, "session start failed: %v", err)
		return "", AuthCodeInvalidUser
	}
	logger.CtxInfo(ctx, "session started for user %d", userID)
	return token, ""
}

// sendRequestXML selects the next work unit and renders its request. It
// walks the migrations in dependency order, skips any whose rows are all
// processed with nothing queued for update, and sends exactly one row.
// An empty string tells the client this round trip carries no work.
func (s *Service) sendRequestXML(ctx context.Context) string {
	selected := false
	for _, m := range s.registry.Ordered(exporter.Tag) {
		src, err := s.queue.SourceCount(ctx, m)
		if err != nil {
			logger.CtxError(ctx, "source count failed for %s: %v", m.ID, err)
			continue
		}
		processed, err := s.mappings.ProcessedCount(ctx, m.ID)
		if err != nil {
			logger.CtxError(ctx, "processed count failed for %s: %v", m.ID, err)
			continue
		}
		updates, err := s.mappings.UpdateCount(ctx, m.ID)
		if err != nil {
			logger.CtxError(ctx, "update count failed for %s: %v", m.ID, err)
			continue
		}
		if src-processed <= 0 && updates == 0 {
			continue
		}

		row, err := s.queue.NextRow(ctx, m)
		if err != nil {
			logger.CtxError(ctx, "row selection failed for %s: %v", m.ID, err)
			continue
		}
		if row == nil {
			continue
		}
		if err := s.rows.Put(ctx, row); err != nil {
			logger.CtxError(ctx, "row persist failed for %s: %v", m.ID, err)
			return ""
		}
		selected = true
		break
	}

	if !selected {
		if err := s.rows.Clear(ctx); err != nil {
			logger.CtxError(ctx, "row clear failed: %v", err)
		}
		logger.CtxInfo(ctx, "no rows left to export")
		return ""
	}

	row, err := s.rows.Current(ctx)
	if err != nil || row == nil {
		logger.CtxError(ctx, "in-flight row load failed: %v", err)
		return ""
	}
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldMigration: row.MigrationID,
		logger.FieldSourceKey: row.SourceKey,
	})

	m := s.registry.Get(row.MigrationID)
	if m == nil || m.Exporter == nil {
		logger.CtxError(ctx, "no exporter registered for %s", row.MigrationID)
		return ""
	}
	body, err := m.Exporter.Render(ctx, row)
	if err != nil {
		logger.CtxError(ctx, "request render failed: %v", err)
		return ""
	}

	payload := qbxml.Envelope(body)
	s.archivePayload(ctx, "request", row, payload)
	logger.CtxInfo(ctx, "sending %s row %s", row.MigrationID, row.SourceKey)
	return payload
}

// receiveResponseXML records the reply for the row in flight and returns
// the overall completion percentage. A retry status leaves the mapping
// untouched so the same row goes out again; -1 reports a reply arriving
// with no row in flight.
func (s *Service) receiveResponseXML(ctx context.Context, reply string) int {
	row, err := s.rows.Current(ctx)
	if err != nil {
		logger.CtxError(ctx, "in-flight row load failed: %v", err)
		return -1
	}
	if row == nil {
		logger.CtxError(ctx, "received a reply with no row in flight")
		return -1
	}
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldMigration: row.MigrationID,
		logger.FieldSourceKey: row.SourceKey,
	})
	s.archivePayload(ctx, "response", row, reply)

	retry := false
	if code := qbxml.ExtractStatusCode(reply); code != "" {
		if code == qbxml.StatusCodeRetry {
			retry = true
			logger.CtxWarn(ctx, "QuickBooks asked for a retry, row will be re-sent")
		} else if code != "0" {
			msg := qbxml.ExtractStatusMessage(reply)
			logger.CtxWarn(ctx, "QuickBooks returned status %s: %s", code, msg)
			if err := s.mappings.SaveMessage(ctx, row.MigrationID, row.SourceKey, fmt.Sprintf("status %s: %s", code, msg)); err != nil {
				logger.CtxError(ctx, "message save failed: %v", err)
			}
		}
	}

	if !retry {
		s.recordOutcome(ctx, row, reply)
		if m := s.registry.Get(row.MigrationID); m != nil && m.Receiver != nil {
			if err := m.Receiver.OnReply(ctx, row, reply); err != nil {
				logger.CtxError(ctx, "receive hook failed: %v", err)
			}
		}
	}

	return s.completionProgress(ctx)
}

// recordOutcome writes the mapping for a processed row. The identifier
// QuickBooks named wins; the locally generated one stands in when the
// reply carries none, so the row is never re-selected as unmapped.
func (s *Service) recordOutcome(ctx context.Context, row *domain.ExportRow, reply string) {
	identifier := row.DestinationID
	if extracted := qbxml.ExtractIdentifier(reply, row.Kind); extracted != "" {
		identifier = extracted
	}

	status := classifyStatus(qbxml.ExtractStatusCode(reply))
	if err := s.mappings.Save(ctx, row.MigrationID, row.SourceKey, identifier, status); err != nil {
		logger.CtxError(ctx, "mapping save failed: %v", err)
		return
	}
	logger.CtxInfo(ctx, "row mapped to %s with status %s", identifier, status)
}

// classifyStatus maps a QuickBooks status code onto a mapping status.
// "already exists" counts as imported; reference problems are terminal
// failures; anything unrecognized is queued for another attempt.
func classifyStatus(code string) domain.MappingStatus {
	switch code {
	case "", "0", qbxml.StatusCodeAlreadyExists:
		return domain.MappingStatusImported
	case qbxml.StatusCodeInvalidReference,
		qbxml.StatusCodeReferenceNotFound,
		qbxml.StatusCodeNameInUse:
		return domain.MappingStatusFailed
	default:
		return domain.MappingStatusNeedsUpdate
	}
}

// completionProgress returns the percentage of rows processed across all
// migrations, rounded to the nearest integer. With nothing to do at all
// it reports 1, a nonzero nudge that keeps the client polling.
func (s *Service) completionProgress(ctx context.Context) int {
	var done, todo int64
	for _, m := range s.registry.Ordered(exporter.Tag) {
		src, err := s.queue.SourceCount(ctx, m)
		if err != nil {
			logger.CtxError(ctx, "source count failed for %s: %v", m.ID, err)
			continue
		}
		processed, err := s.mappings.ProcessedCount(ctx, m.ID)
		if err != nil {
			logger.CtxError(ctx, "processed count failed for %s: %v", m.ID, err)
			continue
		}
		done += processed
		if remaining := src - processed; remaining > 0 {
			todo += remaining
		}
	}
	if done+todo == 0 {
		return 1
	}
	return int(math.Round(100 * float64(done) / float64(done+todo)))
}

// getLastError reports progress as a human-readable message. The Web
// Connector shows it verbatim in its status column.
func (s *Service) getLastError(ctx context.Context) string {
	if p := s.completionProgress(ctx); p != 100 {
		return fmt.Sprintf("%d%% remaining.", p)
	}
	return "No new exports remaining."
}

// closeConnection tears the session down and reports the final state.
func (s *Service) closeConnection(ctx context.Context) string {
	summary := s.summary(ctx)
	if err := s.sessions.CloseSession(ctx); err != nil {
		logger.CtxError(ctx, "session close failed: %v", err)
	}
	if s.notifier != nil {
		s.notifier.SessionClosed(ctx, summary)
	}
	logger.CtxInfo(ctx, "connection closed at %d%% complete", summary.Percent)
	return "OK"
}

// summary snapshots overall progress for notifications.
func (s *Service) summary(ctx context.Context) ExportSummary {
	var done, todo int64
	for _, m := range s.registry.Ordered(exporter.Tag) {
		src, _ := s.queue.SourceCount(ctx, m)
		processed, _ := s.mappings.ProcessedCount(ctx, m.ID)
		done += processed
		if remaining := src - processed; remaining > 0 {
			todo += remaining
		}
	}
	return ExportSummary{
		Percent:  s.completionProgress(ctx),
		Done:     done,
		Todo:     todo,
		ClosedAt: time.Now().UTC(),
	}
}

// Stats returns per-migration progress for the admin API.
func (s *Service) Stats(ctx context.Context) ([]MigrationStat, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := make([]MigrationStat, 0)
	for _, m := range s.registry.Ordered(exporter.Tag) {
		src, err := s.queue.SourceCount(ctx, m)
		if err != nil {
			return nil, 0, err
		}
		processed, err := s.mappings.ProcessedCount(ctx, m.ID)
		if err != nil {
			return nil, 0, err
		}
		updates, err := s.mappings.UpdateCount(ctx, m.ID)
		if err != nil {
			return nil, 0, err
		}
		stats = append(stats, MigrationStat{
			ID:          m.ID,
			SourceCount: src,
			Processed:   processed,
			Updates:     updates,
		})
	}
	return stats, s.completionProgress(ctx), nil
}

// RequeueFailed flips every failed mapping back to needs_update so the
// next Web Connector run retries them. Returns the number of rows flipped.
func (s *Service) RequeueFailed(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, m := range s.registry.Ordered(exporter.Tag) {
		n, err := s.mappings.RequeueFailed(ctx, m.ID)
		if err != nil {
			return total, err
		}
		total += n
	}
	if total > 0 {
		logger.CtxInfo(ctx, "requeued %d failed rows", total)
	}
	return total, nil
}

// archivePayload stores a raw protocol payload when an archiver is wired.
func (s *Service) archivePayload(ctx context.Context, direction string, row *domain.ExportRow, payload string) {
	if s.archive == nil || payload == "" {
		return
	}
	key := fmt.Sprintf("%s/%s/%s-%s.xml",
		time.Now().UTC().Format("2006/01/02"),
		row.MigrationID, direction, row.SourceKey)
	if err := s.archive.Put(ctx, key, "text/xml", []byte(payload)); err != nil {
		logger.CtxError(ctx, "payload archive failed: %v", err)
	}
}
