package soap

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/timmy/qbexport/internal/config"
	"github.com/timmy/qbexport/internal/domain"
	"github.com/timmy/qbexport/internal/exporter"
	"github.com/timmy/qbexport/internal/qbxml"
	"github.com/timmy/qbexport/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testEnv struct {
	svc      *Service
	db       *gorm.DB
	users    *repository.UserRepository
	mappings *repository.MappingRepository
	rows     *repository.RowRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "qbexport.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		t.Fatalf("migrate database: %v", err)
	}

	users := repository.NewUserRepository(db)
	mappings := repository.NewMappingRepository(db)
	rows := repository.NewRowRepository(db)
	commerce := repository.NewCommerceRepository(db)

	qb := &config.QuickBooksConfig{
		ServerVersion: "1.0",
		OrderType:     "sales_receipts",
		Accounts: config.AccountsConfig{
			MainIncomeAccount: "Sales",
			COGSAccount:       "Cost of Goods Sold",
			AssetsAccount:     "Inventory Asset",
		},
		Adjustments: config.AdjustmentsConfig{
			ShippingService: "Freight",
			DiscountService: "Discount",
		},
	}

	registry := exporter.DefaultRegistry(&exporter.Env{
		Commerce: commerce,
		Mappings: mappings,
		QB:       qb,
	})

	svc := NewService(Deps{
		Sessions:      NewSessionManager(repository.NewSessionRepository(db)),
		Auth:          users,
		Users:         users,
		Registry:      registry,
		Queue:         NewQueue(commerce, mappings),
		Mappings:      mappings,
		Rows:          rows,
		ServerVersion: "1.0",
	})

	return &testEnv{svc: svc, db: db, users: users, mappings: mappings, rows: rows}
}

// login seeds an export user and runs a full handshake, returning the
// session ticket.
func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	if _, err := e.users.Create(ctx, "qbwc", "secret", true); err != nil {
		t.Fatalf("create user: %v", err)
	}
	res := e.svc.Dispatch(ctx, &Request{Call: CallAuthenticate, Username: "qbwc", Password: "secret"})
	if len(res.Authenticate) != 2 || res.Authenticate[1] != "" {
		t.Fatalf("authenticate result = %v, want ticket with empty code", res.Authenticate)
	}
	return res.Authenticate[0]
}

func (e *testEnv) seedProfile(t *testing.T) {
	t.Helper()
	if err := e.db.Create(&domain.CustomerProfile{
		ID:         1,
		Email:      "john@example.com",
		GivenName:  "John",
		FamilyName: "Smith",
		Address: domain.Address{
			Line1:       "C. Prat de la Creu, 62-64",
			Locality:    "Canillo",
			PostalCode:  "AD500",
			CountryCode: "AD",
		},
	}).Error; err != nil {
		t.Fatalf("seed profile: %v", err)
	}
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.users.Create(ctx, "qbwc", "secret", true); err != nil {
		t.Fatalf("create user: %v", err)
	}

	res := env.svc.Dispatch(ctx, &Request{Call: CallAuthenticate, Username: "qbwc", Password: "wrong"})
	want := []string{"", AuthCodeInvalidUser}
	if len(res.Authenticate) != 2 || res.Authenticate[0] != want[0] || res.Authenticate[1] != want[1] {
		t.Errorf("authenticate result = %v, want %v", res.Authenticate, want)
	}
}

func TestServerAndClientVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := env.svc.Dispatch(ctx, &Request{Call: CallServerVersion})
	if res.ServerVersion == nil || *res.ServerVersion != "1.0" {
		t.Errorf("serverVersion = %v, want 1.0", res.ServerVersion)
	}

	res = env.svc.Dispatch(ctx, &Request{Call: CallClientVersion, Version: "2.3.0.30"})
	if res.ClientVersion == nil || *res.ClientVersion != "" {
		t.Errorf("clientVersion = %v, want empty acceptance", res.ClientVersion)
	}
}

func TestGatedCallWithoutTicket(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	res := env.svc.Dispatch(context.Background(), &Request{Call: CallSendRequestXML})
	if res.SendRequestXML != nil {
		t.Error("sendRequestXML without ticket produced a payload")
	}
}

func TestGatedCallWithoutExportAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.users.Create(ctx, "viewer", "secret", false); err != nil {
		t.Fatalf("create user: %v", err)
	}
	res := env.svc.Dispatch(ctx, &Request{Call: CallAuthenticate, Username: "viewer", Password: "secret"})
	ticket := res.Authenticate[0]
	if ticket == "" {
		t.Fatal("authenticate rejected valid credentials")
	}

	res = env.svc.Dispatch(ctx, &Request{Call: CallSendRequestXML, Ticket: ticket})
	if res.SendRequestXML != nil {
		t.Error("sendRequestXML without export access produced a payload")
	}
}

func TestCustomerExportRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	env.seedProfile(t)
	ticket := env.login(t)
	ctx := context.Background()

	res := env.svc.Dispatch(ctx, &Request{Call: CallSendRequestXML, Ticket: ticket})
	if res.SendRequestXML == nil {
		t.Fatal("sendRequestXML produced no payload")
	}
	want := qbxml.Envelope(`<CustomerAddRq><CustomerAdd><Name>John Smith (1)</Name><FirstName>John</FirstName><LastName>Smith</LastName><BillAddr><Addr1>C. Prat de la Creu, 62-64</Addr1><City>Canillo</City><PostalCode>AD500</PostalCode><Country>AD</Country></BillAddr><Email>john@example.com</Email></CustomerAdd></CustomerAddRq>`)
	if *res.SendRequestXML != want {
		t.Errorf("request payload = %q, want %q", *res.SendRequestXML, want)
	}

	reply := `<CustomerAddRs statusCode="0" statusSeverity="Info"><CustomerRet><ListID>80000001-1431947192</ListID></CustomerRet></CustomerAddRs>`
	res = env.svc.Dispatch(ctx, &Request{Call: CallReceiveResponseXML, Ticket: ticket, Response: reply})
	if res.ReceiveResponseXML == nil || *res.ReceiveResponseXML != 100 {
		t.Fatalf("receiveResponseXML = %v, want 100", res.ReceiveResponseXML)
	}

	mapping, err := env.mappings.Lookup(ctx, "customer", "1")
	if err != nil || mapping == nil {
		t.Fatalf("mapping lookup failed: %v, %v", mapping, err)
	}
	if mapping.DestinationID != "80000001-1431947192" {
		t.Errorf("mapping destination = %q, want the reply's ListID", mapping.DestinationID)
	}
	if mapping.Status != domain.MappingStatusImported {
		t.Errorf("mapping status = %q, want imported", mapping.Status)
	}

	// Everything is exported now, the queue drains.
	res = env.svc.Dispatch(ctx, &Request{Call: CallSendRequestXML, Ticket: ticket})
	if res.SendRequestXML == nil || *res.SendRequestXML != "" {
		t.Errorf("drained sendRequestXML = %v, want empty string", res.SendRequestXML)
	}

	res = env.svc.Dispatch(ctx, &Request{Call: CallGetLastError, Ticket: ticket})
	if res.GetLastError == nil || *res.GetLastError != "No new exports remaining." {
		t.Errorf("getLastError = %v, want completion message", res.GetLastError)
	}

	res = env.svc.Dispatch(ctx, &Request{Call: CallCloseConnection, Ticket: ticket})
	if res.CloseConnection == nil || *res.CloseConnection != "OK" {
		t.Errorf("closeConnection = %v, want OK", res.CloseConnection)
	}
}

func TestRetryResendsSameRow(t *testing.T) {
	env := newTestEnv(t)
	if err := env.db.Create(&domain.Product{ID: 1, Title: "Default testing product"}).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	ticket := env.login(t)
	ctx := context.Background()

	first := env.svc.Dispatch(ctx, &Request{Call: CallSendRequestXML, Ticket: ticket})
	if first.SendRequestXML == nil || !strings.Contains(*first.SendRequestXML, "<ItemInventoryAddRq>") {
		t.Fatalf("sendRequestXML = %v, want an inventory add", first.SendRequestXML)
	}

	reply := `<ItemInventoryAddRs statusCode="3180" statusSeverity="Error" statusMessage="A temporary error"></ItemInventoryAddRs>`
	res := env.svc.Dispatch(ctx, &Request{Call: CallReceiveResponseXML, Ticket: ticket, Response: reply})
	if res.ReceiveResponseXML == nil || *res.ReceiveResponseXML != 0 {
		t.Fatalf("progress after retry = %v, want 0", res.ReceiveResponseXML)
	}

	if mapping, _ := env.mappings.Lookup(ctx, "product", "1"); mapping != nil {
		t.Error("a retry wrote a mapping")
	}

	second := env.svc.Dispatch(ctx, &Request{Call: CallSendRequestXML, Ticket: ticket})
	if second.SendRequestXML == nil || *second.SendRequestXML != *first.SendRequestXML {
		t.Error("retried row rendered a different request")
	}
}

func TestErrorStatusRecordsFailure(t *testing.T) {
	env := newTestEnv(t)
	if err := env.db.Create(&domain.Product{ID: 1, Title: "Widget"}).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	ticket := env.login(t)
	ctx := context.Background()

	env.svc.Dispatch(ctx, &Request{Call: CallSendRequestXML, Ticket: ticket})
	reply := `<ItemInventoryAddRs statusCode="3140" statusSeverity="Error" statusMessage="ref not found"></ItemInventoryAddRs>`
	res := env.svc.Dispatch(ctx, &Request{Call: CallReceiveResponseXML, Ticket: ticket, Response: reply})
	if res.ReceiveResponseXML == nil || *res.ReceiveResponseXML != 100 {
		t.Fatalf("progress = %v, want 100 (failed rows still count as processed)", res.ReceiveResponseXML)
	}

	mapping, _ := env.mappings.Lookup(ctx, "product", "1")
	if mapping == nil || mapping.Status != domain.MappingStatusFailed {
		t.Fatalf("mapping = %+v, want failed status", mapping)
	}
	// The reply named nothing, so the locally generated identifier stands.
	if qbxml.IsQuickBooksIdentifier(mapping.DestinationID) {
		t.Errorf("mapping destination = %q, want a locally generated identifier", mapping.DestinationID)
	}

	msgs, err := env.mappings.ListMessages(ctx, 10, 0)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("ListMessages = %v, %v, want one message", msgs, err)
	}
	if msgs[0].Message != "status 3140: ref not found" {
		t.Errorf("message = %q", msgs[0].Message)
	}
}

func TestNeedsUpdateBecomesQuery(t *testing.T) {
	env := newTestEnv(t)
	env.seedProfile(t)
	ctx := context.Background()

	// The profile is mapped already but flagged for re-export with an
	// identifier QuickBooks issued.
	if err := env.mappings.Save(ctx, "customer", "1", "80000001-1431947192", domain.MappingStatusNeedsUpdate); err != nil {
		t.Fatalf("seed mapping: %v", err)
	}
	ticket := env.login(t)

	res := env.svc.Dispatch(ctx, &Request{Call: CallSendRequestXML, Ticket: ticket})
	want := qbxml.Envelope(`<CustomerQueryRq><ListID>80000001-1431947192</ListID></CustomerQueryRq>`)
	if res.SendRequestXML == nil || *res.SendRequestXML != want {
		t.Errorf("request payload = %v, want the customer query", res.SendRequestXML)
	}
}

func TestReceiveWithoutRowInFlight(t *testing.T) {
	env := newTestEnv(t)
	ticket := env.login(t)
	ctx := context.Background()

	// An empty database drains immediately, clearing the in-flight row.
	env.svc.Dispatch(ctx, &Request{Call: CallSendRequestXML, Ticket: ticket})

	res := env.svc.Dispatch(ctx, &Request{Call: CallReceiveResponseXML, Ticket: ticket, Response: "<foo/>"})
	if res.ReceiveResponseXML == nil || *res.ReceiveResponseXML != -1 {
		t.Errorf("receiveResponseXML = %v, want -1", res.ReceiveResponseXML)
	}
}

func TestProgressSentinelWithNothingToDo(t *testing.T) {
	env := newTestEnv(t)
	ticket := env.login(t)
	ctx := context.Background()

	env.svc.Dispatch(ctx, &Request{Call: CallSendRequestXML, Ticket: ticket})
	res := env.svc.Dispatch(ctx, &Request{Call: CallGetLastError, Ticket: ticket})
	if res.GetLastError == nil || *res.GetLastError != "1% remaining." {
		t.Errorf("getLastError = %v, want the 1%% sentinel message", res.GetLastError)
	}
}

type stubExporter struct {
	body string
}

func (s *stubExporter) Render(ctx context.Context, row *domain.ExportRow) (string, error) {
	return s.body, nil
}

type recordingReceiver struct {
	calls     int
	lastReply string
}

func (r *recordingReceiver) OnReply(ctx context.Context, row *domain.ExportRow, reply string) error {
	r.calls++
	r.lastReply = reply
	return nil
}

func TestReceiverHookSkippedOnRetry(t *testing.T) {
	env := newTestEnv(t)
	env.seedProfile(t)
	ctx := context.Background()

	rec := &recordingReceiver{}
	registry := exporter.NewRegistry(&exporter.Migration{
		ID:       "customer",
		Kind:     domain.EntityKindCustomer,
		Tag:      exporter.Tag,
		Exporter: &stubExporter{body: "<CustomerAddRq></CustomerAddRq>"},
		Receiver: rec,
	})
	svc := NewService(Deps{
		Sessions:      NewSessionManager(repository.NewSessionRepository(env.db)),
		Auth:          env.users,
		Users:         env.users,
		Registry:      registry,
		Queue:         NewQueue(repository.NewCommerceRepository(env.db), env.mappings),
		Mappings:      env.mappings,
		Rows:          env.rows,
		ServerVersion: "1.0",
	})

	if _, err := env.users.Create(ctx, "qbwc", "secret", true); err != nil {
		t.Fatalf("create user: %v", err)
	}
	res := svc.Dispatch(ctx, &Request{Call: CallAuthenticate, Username: "qbwc", Password: "secret"})
	ticket := res.Authenticate[0]

	svc.Dispatch(ctx, &Request{Call: CallSendRequestXML, Ticket: ticket})
	retry := `<CustomerAddRs statusCode="3180" statusSeverity="Error"></CustomerAddRs>`
	svc.Dispatch(ctx, &Request{Call: CallReceiveResponseXML, Ticket: ticket, Response: retry})
	if rec.calls != 0 {
		t.Fatalf("receiver ran %d times on a retry, want 0", rec.calls)
	}

	svc.Dispatch(ctx, &Request{Call: CallSendRequestXML, Ticket: ticket})
	ok := `<CustomerAddRs statusCode="0" statusSeverity="Info"><CustomerRet><ListID>80000001-1</ListID></CustomerRet></CustomerAddRs>`
	svc.Dispatch(ctx, &Request{Call: CallReceiveResponseXML, Ticket: ticket, Response: ok})
	if rec.calls != 1 {
		t.Fatalf("receiver ran %d times after a recorded reply, want 1", rec.calls)
	}
	if rec.lastReply != ok {
		t.Errorf("receiver saw reply %q", rec.lastReply)
	}
}

func TestRequeueFailed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.mappings.Save(ctx, "product", "1", "id-1", domain.MappingStatusFailed); err != nil {
		t.Fatalf("seed mapping: %v", err)
	}
	if err := env.mappings.Save(ctx, "customer", "2", "id-2", domain.MappingStatusImported); err != nil {
		t.Fatalf("seed mapping: %v", err)
	}

	n, err := env.svc.RequeueFailed(ctx)
	if err != nil {
		t.Fatalf("RequeueFailed() error: %v", err)
	}
	if n != 1 {
		t.Errorf("RequeueFailed() = %d, want 1", n)
	}

	mapping, _ := env.mappings.Lookup(ctx, "product", "1")
	if mapping == nil || mapping.Status != domain.MappingStatusNeedsUpdate {
		t.Errorf("mapping = %+v, want needs_update", mapping)
	}
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	env.seedProfile(t)
	ctx := context.Background()

	stats, percent, err := env.svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if len(stats) != 5 {
		t.Fatalf("Stats() returned %d migrations, want 5", len(stats))
	}
	if stats[0].ID != "customer" || stats[0].SourceCount != 1 || stats[0].Processed != 0 {
		t.Errorf("customer stat = %+v", stats[0])
	}
	if percent != 0 {
		t.Errorf("percent = %d, want 0", percent)
	}
}
