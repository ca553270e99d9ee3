// Package exporter renders storefront entities into qbXML requests. One
// migration per entity kind, registered in dependency order so parents are
// in QuickBooks before anything references them.
package exporter

import (
	"context"

	"github.com/timmy/qbexport/internal/config"
	"github.com/timmy/qbexport/internal/domain"
	"github.com/timmy/qbexport/internal/qbxml"
	"github.com/timmy/qbexport/internal/repository"
)

// Tag groups the migrations the Web Connector endpoint drives.
const Tag = "qb-webconnect"

// Exporter renders the qbXML request body for one row.
type Exporter interface {
	Render(ctx context.Context, row *domain.ExportRow) (string, error)
}

// Receiver is an optional per-migration hook run after a reply has been
// recorded. It is skipped when QuickBooks asks for a retry.
type Receiver interface {
	OnReply(ctx context.Context, row *domain.ExportRow, reply string) error
}

// Migration pairs an entity kind with its exporter and optional receiver.
type Migration struct {
	ID       string
	Kind     domain.EntityKind
	Tag      string
	Exporter Exporter
	Receiver Receiver
}

// Registry holds migrations in their declared order.
type Registry struct {
	ordered []*Migration
	byID    map[string]*Migration
}

// NewRegistry creates a registry preserving the declaration order.
func NewRegistry(migrations ...*Migration) *Registry {
	r := &Registry{byID: make(map[string]*Migration, len(migrations))}
	for _, m := range migrations {
		r.ordered = append(r.ordered, m)
		r.byID[m.ID] = m
	}
	return r
}

// Ordered returns migrations carrying the given tag, in declaration order.
func (r *Registry) Ordered(tag string) []*Migration {
	out := make([]*Migration, 0, len(r.ordered))
	for _, m := range r.ordered {
		if tag == "" || m.Tag == tag {
			out = append(out, m)
		}
	}
	return out
}

// Get returns the migration with the given ID, or nil.
func (r *Registry) Get(id string) *Migration {
	return r.byID[id]
}

// Env bundles the dependencies every exporter shares.
type Env struct {
	Commerce *repository.CommerceRepository
	Mappings *repository.MappingRepository
	QB       *config.QuickBooksConfig
}

// DefaultRegistry wires the five storefront migrations in dependency
// order: customers and catalog first, then the transactions that
// reference them.
func DefaultRegistry(env *Env) *Registry {
	return NewRegistry(
		&Migration{
			ID:       "customer",
			Kind:     domain.EntityKindCustomer,
			Tag:      Tag,
			Exporter: &CustomerExporter{env: env},
		},
		&Migration{
			ID:       "product",
			Kind:     domain.EntityKindProduct,
			Tag:      Tag,
			Exporter: &ProductExporter{env: env},
		},
		&Migration{
			ID:       "product_variation",
			Kind:     domain.EntityKindProductVariation,
			Tag:      Tag,
			Exporter: &VariationExporter{env: env},
		},
		&Migration{
			ID:       "order",
			Kind:     domain.EntityKindOrder,
			Tag:      Tag,
			Exporter: &OrderExporter{env: env},
		},
		&Migration{
			ID:       "payment",
			Kind:     domain.EntityKindPayment,
			Tag:      Tag,
			Exporter: &PaymentExporter{env: env},
		},
	)
}

// addressNode renders a postal address under the given wrapper tag. Empty
// parts are omitted. Dependent locality lands on Addr5 to keep the first
// lines free for street data.
func addressNode(tag string, a domain.Address) *qbxml.Node {
	return qbxml.El(tag,
		qbxml.TextIf("Addr1", a.Line1),
		qbxml.TextIf("Addr2", a.Line2),
		qbxml.TextIf("Addr5", a.DependentLocality),
		qbxml.TextIf("City", a.Locality),
		qbxml.TextIf("State", a.AdministrativeArea),
		qbxml.TextIf("PostalCode", a.PostalCode),
		qbxml.TextIf("Country", a.CountryCode),
	)
}
