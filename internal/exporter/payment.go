package exporter

import (
	"context"
	"fmt"
	"strconv"

	"github.com/timmy/qbexport/internal/domain"
	"github.com/timmy/qbexport/internal/qbxml"
)

// PaymentExporter renders captured payments as ReceivePaymentAdd requests.
// When the order has already landed in QuickBooks the payment is applied
// to that transaction; otherwise QuickBooks auto-applies it.
type PaymentExporter struct {
	env *Env
}

func (e *PaymentExporter) Render(ctx context.Context, row *domain.ExportRow) (string, error) {
	payment, err := e.env.Commerce.Payment(ctx, row.SourceKey)
	if err != nil {
		return "", fmt.Errorf("load payment %s: %w", row.SourceKey, err)
	}

	doc := qbxml.El("ReceivePaymentAdd")

	if payment.Order != nil {
		key := strconv.FormatUint(uint64(payment.Order.BillingProfileID), 10)
		mapping, err := e.env.Mappings.Lookup(ctx, "customer", key)
		if err != nil {
			return "", fmt.Errorf("lookup customer mapping %s: %w", key, err)
		}
		if mapping != nil && mapping.DestinationID != "" {
			doc.Append(qbxml.El("CustomerRef", qbxml.Text("ListID", mapping.DestinationID)))
		}
	}

	refNumber := payment.RemoteID
	if refNumber == "" {
		refNumber = row.SourceKey
	}
	doc.Append(
		qbxml.Text("TxnDate", payment.CompletedAt.Format("2006-01-02")),
		qbxml.Text("RefNumber", e.env.QB.IDPrefixes.PaymentPrefix+refNumber),
		qbxml.El("PaymentMethodRef", qbxml.Text("FullName", payment.GatewayLabel)),
	)

	orderKey := strconv.FormatUint(uint64(payment.OrderID), 10)
	orderMapping, err := e.env.Mappings.Lookup(ctx, "order", orderKey)
	if err != nil {
		return "", fmt.Errorf("lookup order mapping %s: %w", orderKey, err)
	}
	if orderMapping != nil && orderMapping.DestinationID != "" && qbxml.IsQuickBooksIdentifier(orderMapping.DestinationID) {
		doc.Append(qbxml.El("AppliedToTxnAdd",
			qbxml.Text("TxnID", orderMapping.DestinationID),
			qbxml.Text("PaymentAmount", payment.Amount),
		))
	} else {
		doc.Append(qbxml.Text("IsAutoApply", "true"))
	}

	return qbxml.El("ReceivePaymentAddRq", doc).Render(), nil
}
