package exporter

import (
	"context"
	"fmt"
	"strconv"

	"github.com/timmy/qbexport/internal/domain"
	"github.com/timmy/qbexport/internal/qbxml"
)

// ProductExporter renders products as parent ItemInventoryAdd requests.
type ProductExporter struct {
	env *Env
}

func (e *ProductExporter) Render(ctx context.Context, row *domain.ExportRow) (string, error) {
	product, err := e.env.Commerce.Product(ctx, row.SourceKey)
	if err != nil {
		return "", fmt.Errorf("load product %s: %w", row.SourceKey, err)
	}

	accounts := e.env.QB.Accounts
	return qbxml.El("ItemInventoryAddRq",
		qbxml.El("ItemInventoryAdd",
			qbxml.Text("Name", product.Title),
			qbxml.El("IncomeAccountRef", qbxml.Text("FullName", accounts.MainIncomeAccount)),
			qbxml.El("COGSAccountRef", qbxml.Text("FullName", accounts.COGSAccount)),
			qbxml.El("AssetAccountRef", qbxml.Text("FullName", accounts.AssetsAccount)),
		),
	).Render(), nil
}

// VariationExporter renders variations as ItemInventoryAdd requests
// parented to their product's QuickBooks item.
type VariationExporter struct {
	env *Env
}

func (e *VariationExporter) Render(ctx context.Context, row *domain.ExportRow) (string, error) {
	variation, err := e.env.Commerce.ProductVariation(ctx, row.SourceKey)
	if err != nil {
		return "", fmt.Errorf("load product variation %s: %w", row.SourceKey, err)
	}

	var parentRef *qbxml.Node
	productKey := strconv.FormatUint(uint64(variation.ProductID), 10)
	mapping, err := e.env.Mappings.Lookup(ctx, "product", productKey)
	if err != nil {
		return "", fmt.Errorf("lookup product mapping %s: %w", productKey, err)
	}
	if mapping != nil && mapping.DestinationID != "" {
		parentRef = qbxml.El("ParentRef", qbxml.Text("ListID", mapping.DestinationID))
	}

	accounts := e.env.QB.Accounts
	return qbxml.El("ItemInventoryAddRq",
		qbxml.El("ItemInventoryAdd",
			qbxml.Text("Name", variation.SKU),
			parentRef,
			qbxml.TextIf("SalesPrice", variation.Price),
			qbxml.El("IncomeAccountRef", qbxml.Text("FullName", accounts.MainIncomeAccount)),
			qbxml.El("COGSAccountRef", qbxml.Text("FullName", accounts.COGSAccount)),
			qbxml.El("AssetAccountRef", qbxml.Text("FullName", accounts.AssetsAccount)),
		),
	).Render(), nil
}
