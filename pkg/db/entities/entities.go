// Package entities is the single source of truth for the tables the pipeline publishes.
//
// Every layer writes a fixed set of entities. Stores use TableName for the live table
// and StagingTableName for the fresh copy that is built before the swap.
//
// Usage Example:
//
//	for _, entity := range entities.ByLayer(entities.LayerMarts) {
//	    fmt.Println(entity.TableName(), entity.Key())
//	}
//
// Thread Safety:
//
//	All functions and methods in this package are safe for concurrent use.
package entities

import (
	"fmt"
	"sort"
	"strings"
)

// Layer is a pipeline stage. Layers are rebuilt and published in order.
type Layer string

const (
	LayerStaging      Layer = "staging"
	LayerIntermediate Layer = "intermediate"
	LayerMarts        Layer = "marts"
)

// Layers returns the layers in execution order.
func Layers() []Layer {
	return []Layer{LayerStaging, LayerIntermediate, LayerMarts}
}

// Entity is a published table.
type Entity string

const (
	Customers           Entity = "stg_customers"
	Sellers             Entity = "stg_sellers"
	Products            Entity = "stg_products"
	Orders              Entity = "stg_orders"
	OrderItems          Entity = "stg_order_items"
	Payments            Entity = "stg_payments"
	Reviews             Entity = "stg_reviews"
	Geolocation         Entity = "stg_geolocation"
	CategoryTranslation Entity = "stg_category_translation"

	EnrichedOrders      Entity = "int_enriched_orders"
	SellerStatusHistory Entity = "int_seller_status_history"
	SellerPerformance   Entity = "int_seller_performance"
	ProductPerformance  Entity = "int_product_performance"
	CustomerHistory     Entity = "int_customer_history"

	MonthlyRevenue   Entity = "mart_monthly_revenue"
	StatePerformance Entity = "mart_state_performance"
	CategoryAnalysis Entity = "mart_category_analysis"
	SellerScorecard  Entity = "mart_seller_scorecard"
	CustomerSegments Entity = "mart_customer_segments"
)

type meta struct {
	layer Layer
	key   []string
	alias string
}

// allEntities lists every entity in publish order.
var allEntities = []Entity{
	Customers, Sellers, Products, Orders, OrderItems, Payments, Reviews, Geolocation, CategoryTranslation,
	EnrichedOrders, SellerStatusHistory, SellerPerformance, ProductPerformance, CustomerHistory,
	MonthlyRevenue, StatePerformance, CategoryAnalysis, SellerScorecard, CustomerSegments,
}

var registry = map[Entity]meta{
	Customers:           {LayerStaging, []string{"customer_id"}, "customers"},
	Sellers:             {LayerStaging, []string{"seller_id"}, "sellers"},
	Products:            {LayerStaging, []string{"product_id"}, "products"},
	Orders:              {LayerStaging, []string{"order_id"}, "orders"},
	OrderItems:          {LayerStaging, []string{"order_id", "item_id"}, "order_items"},
	Payments:            {LayerStaging, []string{"order_id", "sequential"}, "payments"},
	Reviews:             {LayerStaging, []string{"order_id"}, "reviews"},
	Geolocation:         {LayerStaging, []string{"zip_code_prefix"}, "geolocation"},
	CategoryTranslation: {LayerStaging, []string{"category_code"}, "category_translation"},

	EnrichedOrders:      {LayerIntermediate, []string{"order_id"}, "enriched_orders"},
	SellerStatusHistory: {LayerIntermediate, []string{"seller_id", "valid_from"}, "seller_status_history"},
	SellerPerformance:   {LayerIntermediate, []string{"seller_id"}, "seller_performance"},
	ProductPerformance:  {LayerIntermediate, []string{"product_id"}, "product_performance"},
	CustomerHistory:     {LayerIntermediate, []string{"customer_unique_id"}, "customer_history"},

	MonthlyRevenue:   {LayerMarts, []string{"month"}, "monthly_revenue"},
	StatePerformance: {LayerMarts, []string{"state"}, "state_performance"},
	CategoryAnalysis: {LayerMarts, []string{"category"}, "category_analysis"},
	SellerScorecard:  {LayerMarts, []string{"seller_id"}, "seller_scorecard"},
	CustomerSegments: {LayerMarts, []string{"customer_unique_id"}, "customer_segments"},
}

// aliases maps the short names used by the query API to entities.
var aliases map[string]Entity

func init() {
	aliases = make(map[string]Entity, len(allEntities))
	for _, e := range allEntities {
		m, ok := registry[e]
		if !ok {
			panic(fmt.Sprintf("entities: %q has no registry entry", e))
		}
		if strings.Contains(string(e), "_staging") {
			panic(fmt.Sprintf("entities: entity name %q contains '_staging' - use base name only", e))
		}
		if len(m.key) == 0 {
			panic(fmt.Sprintf("entities: %q has no key columns", e))
		}
		aliases[m.alias] = e
	}
}

func (e Entity) String() string {
	return string(e)
}

// TableName returns the live table name.
func (e Entity) TableName() string {
	return string(e)
}

// StagingTableName returns the name of the table a rebuild is written to before it is swapped in.
//
// Example:
//
//	entities.EnrichedOrders.StagingTableName() // Returns: "int_enriched_orders_staging"
func (e Entity) StagingTableName() string {
	return string(e) + "_staging"
}

// Layer returns the layer that owns this entity.
func (e Entity) Layer() Layer {
	return registry[e].layer
}

// Key returns the unique key columns of the entity.
func (e Entity) Key() []string {
	key := registry[e].key
	out := make([]string, len(key))
	copy(out, key)
	return out
}

// Alias returns the short name used in API paths (e.g. "monthly_revenue").
func (e Entity) Alias() string {
	return registry[e].alias
}

func (e Entity) IsValid() bool {
	_, ok := registry[e]
	return ok
}

func (e Entity) MarshalText() ([]byte, error) {
	return []byte(e), nil
}

func (e *Entity) UnmarshalText(text []byte) error {
	entity, err := FromString(string(text))
	if err != nil {
		return err
	}
	*e = entity
	return nil
}

// FromString resolves a table name or alias to an Entity.
func FromString(s string) (Entity, error) {
	if e := Entity(s); e.IsValid() {
		return e, nil
	}
	if e, ok := aliases[s]; ok {
		return e, nil
	}
	return "", fmt.Errorf("unknown entity %q, valid entities: %s", s, validEntitiesString())
}

// All returns a copy of all entities in publish order.
func All() []Entity {
	result := make([]Entity, len(allEntities))
	copy(result, allEntities)
	return result
}

// ByLayer returns the entities owned by layer, in publish order.
func ByLayer(layer Layer) []Entity {
	var out []Entity
	for _, e := range allEntities {
		if registry[e].layer == layer {
			out = append(out, e)
		}
	}
	return out
}

func AllStrings() []string {
	result := make([]string, len(allEntities))
	for i, e := range allEntities {
		result[i] = e.String()
	}
	return result
}

func validEntitiesString() string {
	names := AllStrings()
	sort.Strings(names)
	return strings.Join(names, ", ")
}
