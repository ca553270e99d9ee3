package exporter

import (
	"context"
	"fmt"

	"github.com/timmy/qbexport/internal/domain"
	"github.com/timmy/qbexport/internal/qbxml"
)

// CustomerExporter renders customer profiles as CustomerAdd requests. A
// row re-queued with an identifier QuickBooks issued gets a CustomerQuery
// instead, so the company file record is refreshed without a duplicate add.
type CustomerExporter struct {
	env *Env
}

func (e *CustomerExporter) Render(ctx context.Context, row *domain.ExportRow) (string, error) {
	profile, err := e.env.Commerce.CustomerProfile(ctx, row.SourceKey)
	if err != nil {
		return "", fmt.Errorf("load customer profile %s: %w", row.SourceKey, err)
	}

	if qbxml.IsQuickBooksIdentifier(row.DestinationID) {
		return qbxml.El("CustomerQueryRq",
			qbxml.Text("ListID", row.DestinationID),
		).Render(), nil
	}

	// The customer name must be unique inside the company file; the
	// profile ID suffix keeps same-named people apart.
	name := fmt.Sprintf("%s %s (%d)", profile.GivenName, profile.FamilyName, profile.ID)
	if profile.Company != "" {
		name = fmt.Sprintf("%s (%d)", profile.Company, profile.ID)
	}

	return qbxml.El("CustomerAddRq",
		qbxml.El("CustomerAdd",
			qbxml.Text("Name", name),
			qbxml.TextIf("CompanyName", profile.Company),
			qbxml.TextIf("FirstName", profile.GivenName),
			qbxml.TextIf("LastName", profile.FamilyName),
			addressNode("BillAddr", profile.Address),
			qbxml.TextIf("Email", profile.Email),
		),
	).Render(), nil
}
