package qbxml

import (
	"testing"

	"github.com/timmy/qbexport/internal/domain"
)

func TestExtractIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		kind  domain.EntityKind
		want  string
	}{
		{
			name:  "customer ListID",
			reply: `<CustomerRet><ListID>80000001-1431947192</ListID><FullName>John Smith</FullName></CustomerRet>`,
			kind:  domain.EntityKindCustomer,
			want:  "80000001-1431947192",
		},
		{
			name:  "order TxnID",
			reply: `<SalesReceiptRet><TxnID>80000001-1431947193</TxnID></SalesReceiptRet>`,
			kind:  domain.EntityKindOrder,
			want:  "80000001-1431947193",
		},
		{
			name:  "payment uses ListID",
			reply: `<ReceivePaymentRet><ListID>8000000A-1</ListID><TxnID>8000000B-2</TxnID></ReceivePaymentRet>`,
			kind:  domain.EntityKindPayment,
			want:  "8000000A-1",
		},
		{
			name:  "first occurrence wins",
			reply: `<ListID>first</ListID><ListID>second</ListID>`,
			kind:  domain.EntityKindProduct,
			want:  "first",
		},
		{
			name:  "missing identifier",
			reply: `<ItemInventoryRet><Name>Widget</Name></ItemInventoryRet>`,
			kind:  domain.EntityKindOrder,
			want:  "",
		},
		{
			name:  "unterminated element yields nothing",
			reply: `<ListID>80000001`,
			kind:  domain.EntityKindCustomer,
			want:  "",
		},
		{
			name:  "not well formed overall still scans",
			reply: `<<<garbage <ListID>80000001-1</ListID> more garbage`,
			kind:  domain.EntityKindCustomer,
			want:  "80000001-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractIdentifier(tt.reply, tt.kind); got != tt.want {
				t.Errorf("ExtractIdentifier() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractStatus(t *testing.T) {
	reply := `<CustomerAddRs requestID="1" statusCode="3100" statusSeverity="Warn" statusMessage="Already exists"></CustomerAddRs>`

	if got := ExtractStatusCode(reply); got != "3100" {
		t.Errorf("ExtractStatusCode() = %q, want %q", got, "3100")
	}
	if got := ExtractStatusMessage(reply); got != "Already exists" {
		t.Errorf("ExtractStatusMessage() = %q, want %q", got, "Already exists")
	}

	if got := ExtractStatusCode(`<Ret><ListID>1</ListID></Ret>`); got != "" {
		t.Errorf("ExtractStatusCode() on code-free reply = %q, want empty", got)
	}
	if got := ExtractStatusCode(`statusCode="unclosed`); got != "" {
		t.Errorf("ExtractStatusCode() on unterminated attribute = %q, want empty", got)
	}
}

func TestScan(t *testing.T) {
	reply := `<CustomerAddRs requestID="42" statusCode="0" statusSeverity="Info">` +
		`<CustomerRet><ListID>80000001-1431947192</ListID><EditSequence>99</EditSequence>` +
		`<FullName>John Smith</FullName></CustomerRet></CustomerAddRs>`

	got := Scan(reply)
	want := map[string]string{
		"ListID":         "80000001-1431947192",
		"EditSequence":   "99",
		"FullName":       "John Smith",
		"requestID":      "42",
		"statusCode":     "0",
		"statusSeverity": "Info",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Scan()[%q] = %q, want %q", k, got[k], v)
		}
	}
	if _, ok := got["TxnID"]; ok {
		t.Error("Scan() reported TxnID on a reply without one")
	}
}

func TestIsQuickBooksIdentifier(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"80000001-1431947192", true},
		{"80000001", true},
		{"d5a8f9e2-1c3b-4e6d-8a7f-9b0c1d2e3f4a", false},
		{"a-b-c", false},
	}

	for _, tt := range tests {
		if got := IsQuickBooksIdentifier(tt.id); got != tt.want {
			t.Errorf("IsQuickBooksIdentifier(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
