// Package marts computes the five reporting views from the intermediate layer.
package marts

import (
	"context"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/ordermart/ordermart/pkg/config"
	"github.com/ordermart/ordermart/pkg/db/entities"
	model "github.com/ordermart/ordermart/pkg/db/models/intermediate"
	mart "github.com/ordermart/ordermart/pkg/db/models/marts"
	stg "github.com/ordermart/ordermart/pkg/db/models/staging"
	"github.com/ordermart/ordermart/pkg/workers"
)

// Input is everything the views read. Items come from staging; the rest is intermediate output.
type Input struct {
	Orders    []model.EnrichedOrder
	Items     []stg.OrderItem
	Sellers   []model.SellerPerformance
	Products  []model.ProductPerformance
	Customers []model.CustomerHistory
	// Anchor is the recency reference. Zero means RecencyAnchor(Orders).
	Anchor time.Time
}

// Views holds the built views. A refresh of a single view leaves the others nil.
type Views struct {
	MonthlyRevenue   []mart.MonthlyRevenue
	StatePerformance []mart.StatePerformance
	CategoryAnalysis []mart.CategoryAnalysis
	SellerScorecard  []mart.SellerScorecard
	CustomerSegments []mart.CustomerSegment
}

// Built returns the entities present in v, in publish order.
func (v *Views) Built() []entities.Entity {
	var out []entities.Entity
	if v.MonthlyRevenue != nil {
		out = append(out, entities.MonthlyRevenue)
	}
	if v.StatePerformance != nil {
		out = append(out, entities.StatePerformance)
	}
	if v.CategoryAnalysis != nil {
		out = append(out, entities.CategoryAnalysis)
	}
	if v.SellerScorecard != nil {
		out = append(out, entities.SellerScorecard)
	}
	if v.CustomerSegments != nil {
		out = append(out, entities.CustomerSegments)
	}
	return out
}

type Builder struct {
	Logger   *zap.Logger
	Pool     pond.Pool
	Rules    config.Rules
	tiers    Rules[TierInput]
	segments Rules[RFM]
}

func NewBuilder(logger *zap.Logger, pool pond.Pool, rules config.Rules) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		Logger:   logger.Named("marts"),
		Pool:     pool,
		Rules:    rules,
		tiers:    TierRules(rules),
		segments: SegmentRules(rules),
	}
}

// Build computes all five views concurrently. Each view writes only its own field.
func (b *Builder) Build(ctx context.Context, in *Input) (*Views, error) {
	start := time.Now()
	views := &Views{}
	names := entities.ByLayer(entities.LayerMarts)
	tasks := make([]func(context.Context) error, len(names))
	for i, e := range names {
		tasks[i] = func(ctx context.Context) error {
			return b.build(ctx, e, in, views)
		}
	}
	if err := workers.Run(ctx, b.Pool, tasks...); err != nil {
		return nil, err
	}

	b.Logger.Info("Marts built",
		zap.Int("months", len(views.MonthlyRevenue)),
		zap.Int("states", len(views.StatePerformance)),
		zap.Int("categories", len(views.CategoryAnalysis)),
		zap.Int("sellers", len(views.SellerScorecard)),
		zap.Int("customers", len(views.CustomerSegments)),
		zap.Duration("duration", time.Since(start)),
	)
	return views, nil
}

// View computes a single view for an independent refresh.
func (b *Builder) View(ctx context.Context, e entities.Entity, in *Input) (*Views, error) {
	views := &Views{}
	if err := b.build(ctx, e, in, views); err != nil {
		return nil, err
	}
	return views, nil
}

func (b *Builder) build(ctx context.Context, e entities.Entity, in *Input, views *Views) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch e {
	case entities.MonthlyRevenue:
		views.MonthlyRevenue = MonthlyRevenueView(in.Orders)
	case entities.StatePerformance:
		views.StatePerformance = StatePerformanceView(in.Orders)
	case entities.CategoryAnalysis:
		views.CategoryAnalysis = CategoryAnalysisView(in.Orders, in.Items, in.Products, b.Rules.MinCategoryOrders)
	case entities.SellerScorecard:
		views.SellerScorecard = SellerScorecardView(in.Sellers, b.tiers)
	case entities.CustomerSegments:
		anchor := in.Anchor
		if anchor.IsZero() {
			anchor = RecencyAnchor(in.Orders)
		}
		views.CustomerSegments = CustomerSegmentsView(in.Customers, anchor, b.Rules.Quantiles, b.segments)
	default:
		return fmt.Errorf("%s is not a mart view", e)
	}
	return nil
}
