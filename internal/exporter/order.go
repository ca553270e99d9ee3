package exporter

import (
	"context"
	"fmt"
	"strconv"

	"github.com/timmy/qbexport/internal/domain"
	"github.com/timmy/qbexport/internal/qbxml"
)

// OrderTypeInvoices selects InvoiceAdd documents; anything else renders
// sales receipts.
const OrderTypeInvoices = "invoices"

// OrderExporter renders completed orders as SalesReceiptAdd or InvoiceAdd
// requests, depending on configuration. Line items reference the variation
// items exported earlier; tax, shipping, and promotion adjustments become
// extra lines against the configured service items.
type OrderExporter struct {
	env *Env
}

func (e *OrderExporter) Render(ctx context.Context, row *domain.ExportRow) (string, error) {
	order, err := e.env.Commerce.Order(ctx, row.SourceKey)
	if err != nil {
		return "", fmt.Errorf("load order %s: %w", row.SourceKey, err)
	}

	isInvoice := e.env.QB.OrderType == OrderTypeInvoices
	docTag := "SalesReceiptAdd"
	lineTag := "SalesReceiptLineAdd"
	if isInvoice {
		docTag = "InvoiceAdd"
		lineTag = "InvoiceLineAdd"
	}

	doc := qbxml.El(docTag)

	if ref, err := e.customerRef(ctx, order); err != nil {
		return "", err
	} else if ref != nil {
		doc.Append(ref)
	}

	doc.Append(
		qbxml.Text("TxnDate", order.CompletedAt.Format("2006-01-02")),
		qbxml.Text("RefNumber", e.env.QB.IDPrefixes.PONumberPrefix+row.SourceKey),
	)

	if order.BillingProfile != nil {
		doc.Append(addressNode("BillAddress", order.BillingProfile.Address))
	}
	if order.ShippingProfile != nil {
		doc.Append(addressNode("ShipAddress", order.ShippingProfile.Address))
	}

	// Invoices carry no payment method; the payment arrives separately as
	// a ReceivePayment.
	if !isInvoice && order.PaymentGateway != "" {
		doc.Append(qbxml.El("PaymentMethodRef", qbxml.Text("FullName", order.PaymentGateway)))
	}
	if order.ShipMethod != "" {
		doc.Append(qbxml.El("ShipMethodRef", qbxml.Text("FullName", order.ShipMethod)))
	}

	for _, item := range order.Items {
		line := qbxml.El(lineTag)
		if item.VariationID != nil {
			key := strconv.FormatUint(uint64(*item.VariationID), 10)
			mapping, err := e.env.Mappings.Lookup(ctx, "product_variation", key)
			if err != nil {
				return "", fmt.Errorf("lookup variation mapping %s: %w", key, err)
			}
			if mapping != nil && mapping.DestinationID != "" {
				line.Append(qbxml.El("ItemRef", qbxml.Text("ListID", mapping.DestinationID)))
			}
		}
		line.Append(
			qbxml.TextIf("Desc", item.Title),
			qbxml.Text("Quantity", item.Quantity),
			qbxml.Text("Rate", item.UnitPrice),
		)
		doc.Append(line)
	}

	for _, adj := range order.Adjustments {
		switch adj.Type {
		case domain.AdjustmentTypeTax:
			doc.Append(qbxml.El(lineTag,
				qbxml.El("ItemRef", qbxml.Text("FullName", adj.Label)),
				qbxml.Text("Quantity", "1"),
				qbxml.Text("Amount", adj.Amount),
			))
		case domain.AdjustmentTypeShipping:
			// Without a ship method there is no shipment to bill for.
			if order.ShipMethod == "" {
				continue
			}
			doc.Append(qbxml.El(lineTag,
				qbxml.El("ItemRef", qbxml.Text("FullName", e.env.QB.Adjustments.ShippingService)),
				qbxml.TextIf("Desc", adj.Label),
				qbxml.Text("Quantity", "1"),
				qbxml.Text("Amount", adj.Amount),
			))
		case domain.AdjustmentTypePromotion:
			doc.Append(qbxml.El(lineTag,
				qbxml.El("ItemRef", qbxml.Text("FullName", e.env.QB.Adjustments.DiscountService)),
				qbxml.TextIf("Desc", adj.Label),
				qbxml.Text("Quantity", "1"),
				qbxml.Text("Amount", adj.Amount),
			))
		}
	}

	return qbxml.El(docTag+"Rq", doc).Render(), nil
}

// customerRef resolves the order's billing profile to the customer record
// exported earlier. Unexported customers leave the reference off entirely
// and QuickBooks rejects the document, which surfaces as a mapping message.
func (e *OrderExporter) customerRef(ctx context.Context, order *domain.Order) (*qbxml.Node, error) {
	if order.BillingProfile == nil {
		return nil, nil
	}
	key := strconv.FormatUint(uint64(order.BillingProfileID), 10)
	mapping, err := e.env.Mappings.Lookup(ctx, "customer", key)
	if err != nil {
		return nil, fmt.Errorf("lookup customer mapping %s: %w", key, err)
	}
	ref := qbxml.El("CustomerRef")
	if mapping != nil && mapping.DestinationID != "" {
		ref.Append(qbxml.Text("ListID", mapping.DestinationID))
	}
	fullName := fmt.Sprintf("%s %s", order.BillingProfile.GivenName, order.BillingProfile.FamilyName)
	ref.Append(qbxml.Text("FullName", fullName))
	return ref, nil
}
