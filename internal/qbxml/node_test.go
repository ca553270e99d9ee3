package qbxml

import "testing"

func TestEnvelope(t *testing.T) {
	got := Envelope("<CustomerAddRq></CustomerAddRq>")
	want := `<?xml version="1.0" encoding="utf-8"?><?qbxml version="13.0"?><QBXML><QBXMLMsgsRq onError="stopOnError"><CustomerAddRq></CustomerAddRq></QBXMLMsgsRq></QBXML>`
	if got != want {
		t.Errorf("Envelope() = %q, want %q", got, want)
	}
}

func TestNodeRender(t *testing.T) {
	n := El("CustomerAdd",
		Text("Name", "Smith & Sons"),
		TextIf("CompanyName", ""),
		El("BillAddr",
			Text("Addr1", "1 Main St"),
			TextIf("Addr2", ""),
			Text("City", "Springfield"),
		),
	)

	want := `<CustomerAdd><Name>Smith &amp; Sons</Name><BillAddr><Addr1>1 Main St</Addr1><City>Springfield</City></BillAddr></CustomerAdd>`
	if got := n.Render(); got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestNodeRenderEmptyLeaf(t *testing.T) {
	if got := Text("RefNumber", "").Render(); got != "<RefNumber></RefNumber>" {
		t.Errorf("Render() = %q, want %q", got, "<RefNumber></RefNumber>")
	}
}
