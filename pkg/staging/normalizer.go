// Package staging types and cleans the raw record streams.
package staging

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	models "github.com/ordermart/ordermart/pkg/db/models/staging"
	"github.com/ordermart/ordermart/pkg/source"
)

// Dataset is the complete staging layer of one run.
type Dataset struct {
	Customers           []models.Customer
	Sellers             []models.Seller
	Products            []models.Product
	Orders              []models.Order
	OrderItems          []models.OrderItem
	Payments            []models.Payment
	Reviews             []models.Review
	Geolocation         []models.Geolocation
	CategoryTranslation []models.CategoryTranslation
}

type Normalizer struct {
	Logger *zap.Logger
	text   *textNormalizer
}

func NewNormalizer(logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{Logger: logger.Named("staging"), text: newTextNormalizer()}
}

// Normalize types every stream of raw. Malformed records are reported and skipped
// or nulled; a record without a primary key aborts the batch with ErrMissingPrimaryKey.
func (n *Normalizer) Normalize(ctx context.Context, raw source.RawBatch) (*Dataset, *Report, error) {
	report := newReport()
	ds := &Dataset{}

	steps := []struct {
		src source.Source
		run func([]source.RawRecord, *Report) error
	}{
		{source.CategoryTranslation, func(recs []source.RawRecord, rep *Report) (err error) {
			ds.CategoryTranslation, err = n.categoryTranslation(recs, rep)
			return err
		}},
		{source.Geolocation, func(recs []source.RawRecord, rep *Report) (err error) {
			ds.Geolocation, err = n.geolocation(recs, rep)
			return err
		}},
		{source.Customers, func(recs []source.RawRecord, rep *Report) (err error) {
			ds.Customers, err = n.customers(recs, rep, geoIndex(ds.Geolocation))
			return err
		}},
		{source.Sellers, func(recs []source.RawRecord, rep *Report) (err error) {
			ds.Sellers, err = n.sellers(recs, rep, geoIndex(ds.Geolocation))
			return err
		}},
		{source.Products, func(recs []source.RawRecord, rep *Report) (err error) {
			ds.Products, err = n.products(recs, rep, translationIndex(ds.CategoryTranslation))
			return err
		}},
		{source.Orders, func(recs []source.RawRecord, rep *Report) (err error) {
			ds.Orders, err = n.orders(recs, rep)
			return err
		}},
		{source.OrderItems, func(recs []source.RawRecord, rep *Report) (err error) {
			ds.OrderItems, err = n.orderItems(recs, rep)
			return err
		}},
		{source.Payments, func(recs []source.RawRecord, rep *Report) (err error) {
			ds.Payments, err = n.payments(recs, rep)
			return err
		}},
		{source.Reviews, func(recs []source.RawRecord, rep *Report) (err error) {
			ds.Reviews, err = n.reviews(recs, rep)
			return err
		}},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}
		before := len(report.Errors)
		if err := step.run(raw[step.src], report); err != nil {
			n.Logger.Error("Unidentifiable record, aborting batch", zap.String("source", string(step.src)), zap.Error(err))
			return nil, report, fmt.Errorf("normalize %s: %w", step.src, err)
		}
		if problems := len(report.Errors) - before; problems > 0 {
			n.Logger.Warn("Malformed records",
				zap.String("source", string(step.src)),
				zap.Int("problems", problems),
				zap.Int("dropped", report.Dropped[step.src]),
				zap.Error(report.Errors[before]))
		}
	}

	return ds, report, nil
}

// accept records the outcome of one row and reports whether it should be kept.
func accept(r *rowReader) bool {
	if r.dropped {
		r.report.Dropped[r.src]++
		return false
	}
	r.report.Accepted[r.src]++
	return true
}

func (n *Normalizer) categoryTranslation(recs []source.RawRecord, rep *Report) ([]models.CategoryTranslation, error) {
	out := make([]models.CategoryTranslation, 0, len(recs))
	seen := keySet{}
	for _, rec := range recs {
		r := &rowReader{src: source.CategoryTranslation, rec: rec, report: rep}
		code, err := r.key("product_category_name")
		if err != nil {
			return nil, err
		}
		if !seen.first(r, code) {
			accept(r)
			continue
		}
		row := models.CategoryTranslation{CategoryCode: code, CategoryName: r.str("product_category_name_english")}
		if accept(r) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (n *Normalizer) geolocation(recs []source.RawRecord, rep *Report) ([]models.Geolocation, error) {
	samples := make([]GeoSample, 0, len(recs))
	for _, rec := range recs {
		r := &rowReader{src: source.Geolocation, rec: rec, report: rep}
		prefix, err := r.key("geolocation_zip_code_prefix")
		if err != nil {
			return nil, err
		}
		s := GeoSample{
			ZipCodePrefix: prefix,
			Lat:           r.reqFloat("geolocation_lat"),
			Lng:           r.reqFloat("geolocation_lng"),
			City:          n.text.city(r.str("geolocation_city")),
			State:         UpperCode(r.str("geolocation_state")),
		}
		if accept(r) {
			samples = append(samples, s)
		}
	}
	return CollapseGeolocation(samples), nil
}

func geoIndex(rows []models.Geolocation) map[string]models.Geolocation {
	idx := make(map[string]models.Geolocation, len(rows))
	for _, g := range rows {
		idx[g.ZipCodePrefix] = g
	}
	return idx
}

func translationIndex(rows []models.CategoryTranslation) map[string]string {
	idx := make(map[string]string, len(rows))
	for _, t := range rows {
		idx[t.CategoryCode] = t.CategoryName
	}
	return idx
}

func coordinates(geo map[string]models.Geolocation, prefix string) (*float64, *float64) {
	g, ok := geo[prefix]
	if !ok {
		return nil, nil
	}
	lat, lng := g.Lat, g.Lng
	return &lat, &lng
}

func (n *Normalizer) customers(recs []source.RawRecord, rep *Report, geo map[string]models.Geolocation) ([]models.Customer, error) {
	out := make([]models.Customer, 0, len(recs))
	seen := keySet{}
	for _, rec := range recs {
		r := &rowReader{src: source.Customers, rec: rec, report: rep}
		id, err := r.key("customer_id")
		if err != nil {
			return nil, err
		}
		if !seen.first(r, id) {
			accept(r)
			continue
		}
		c := models.Customer{
			CustomerID:       id,
			CustomerUniqueID: r.str("customer_unique_id"),
			ZipCodePrefix:    r.str("customer_zip_code_prefix"),
			City:             n.text.city(r.str("customer_city")),
			State:            UpperCode(r.str("customer_state")),
		}
		if c.CustomerUniqueID == "" {
			r.drop("customer_unique_id", "", ErrMissingField)
		}
		c.Lat, c.Lng = coordinates(geo, c.ZipCodePrefix)
		if accept(r) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (n *Normalizer) sellers(recs []source.RawRecord, rep *Report, geo map[string]models.Geolocation) ([]models.Seller, error) {
	out := make([]models.Seller, 0, len(recs))
	seen := keySet{}
	for _, rec := range recs {
		r := &rowReader{src: source.Sellers, rec: rec, report: rep}
		id, err := r.key("seller_id")
		if err != nil {
			return nil, err
		}
		if !seen.first(r, id) {
			accept(r)
			continue
		}
		s := models.Seller{
			SellerID:      id,
			ZipCodePrefix: r.str("seller_zip_code_prefix"),
			City:          n.text.city(r.str("seller_city")),
			State:         UpperCode(r.str("seller_state")),
		}
		s.Lat, s.Lng = coordinates(geo, s.ZipCodePrefix)
		if accept(r) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (n *Normalizer) products(recs []source.RawRecord, rep *Report, translations map[string]string) ([]models.Product, error) {
	out := make([]models.Product, 0, len(recs))
	seen := keySet{}
	for _, rec := range recs {
		r := &rowReader{src: source.Products, rec: rec, report: rep}
		id, err := r.key("product_id")
		if err != nil {
			return nil, err
		}
		if !seen.first(r, id) {
			accept(r)
			continue
		}
		p := models.Product{
			ProductID:    id,
			CategoryCode: r.optStr("product_category_name"),
			// the source files spell "length" as "lenght"
			NameLength:        r.optInt("product_name_lenght"),
			DescriptionLength: r.optInt("product_description_lenght"),
			PhotosQty:         r.optInt("product_photos_qty"),
			WeightG:           r.optFloat("product_weight_g"),
			LengthCm:          r.optFloat("product_length_cm"),
			HeightCm:          r.optFloat("product_height_cm"),
			WidthCm:           r.optFloat("product_width_cm"),
		}
		p.Category = TranslateCategory(p.CategoryCode, translations)
		if p.LengthCm != nil && p.HeightCm != nil && p.WidthCm != nil {
			v := *p.LengthCm * *p.HeightCm * *p.WidthCm
			p.VolumeCm3 = &v
		}
		if accept(r) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (n *Normalizer) orders(recs []source.RawRecord, rep *Report) ([]models.Order, error) {
	out := make([]models.Order, 0, len(recs))
	seen := keySet{}
	for _, rec := range recs {
		r := &rowReader{src: source.Orders, rec: rec, report: rep}
		id, err := r.key("order_id")
		if err != nil {
			return nil, err
		}
		if !seen.first(r, id) {
			accept(r)
			continue
		}
		o := models.Order{
			OrderID:            id,
			CustomerID:         r.str("customer_id"),
			Status:             lowerCode(r.str("order_status")),
			PurchasedAt:        r.reqTime("order_purchase_timestamp"),
			ApprovedAt:         r.optTime("order_approved_at"),
			DeliveredCarrierAt: r.optTime("order_delivered_carrier_date"),
			DeliveredAt:        r.optTime("order_delivered_customer_date"),
			EstimatedAt:        r.optTime("order_estimated_delivery_date"),
		}
		if accept(r) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (n *Normalizer) orderItems(recs []source.RawRecord, rep *Report) ([]models.OrderItem, error) {
	out := make([]models.OrderItem, 0, len(recs))
	seen := keySet{}
	for _, rec := range recs {
		r := &rowReader{src: source.OrderItems, rec: rec, report: rep}
		orderID, err := r.key("order_id")
		if err != nil {
			return nil, err
		}
		itemID, err := r.intKey("order_item_id")
		if err != nil {
			return nil, err
		}
		if !seen.first(r, fmt.Sprintf("%s#%d", orderID, itemID)) {
			accept(r)
			continue
		}
		it := models.OrderItem{
			OrderID:         orderID,
			ItemID:          itemID,
			ProductID:       r.str("product_id"),
			SellerID:        r.str("seller_id"),
			ShippingLimitAt: r.optTime("shipping_limit_date"),
			Price:           r.money("price"),
			Freight:         r.money("freight_value"),
		}
		if accept(r) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (n *Normalizer) payments(recs []source.RawRecord, rep *Report) ([]models.Payment, error) {
	out := make([]models.Payment, 0, len(recs))
	seen := keySet{}
	for _, rec := range recs {
		r := &rowReader{src: source.Payments, rec: rec, report: rep}
		orderID, err := r.key("order_id")
		if err != nil {
			return nil, err
		}
		seq, err := r.intKey("payment_sequential")
		if err != nil {
			return nil, err
		}
		if !seen.first(r, fmt.Sprintf("%s#%d", orderID, seq)) {
			accept(r)
			continue
		}
		p := models.Payment{
			OrderID:      orderID,
			Sequential:   seq,
			Method:       lowerCode(r.str("payment_type")),
			Installments: r.reqInt("payment_installments"),
			Value:        r.money("payment_value"),
		}
		if accept(r) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (n *Normalizer) reviews(recs []source.RawRecord, rep *Report) ([]models.Review, error) {
	all := make([]models.Review, 0, len(recs))
	for _, rec := range recs {
		r := &rowReader{src: source.Reviews, rec: rec, report: rep}
		orderID, err := r.key("order_id")
		if err != nil {
			return nil, err
		}
		rv := models.Review{
			OrderID:        orderID,
			ReviewID:       r.str("review_id"),
			Score:          r.reqInt("review_score"),
			CommentTitle:   r.optStr("review_comment_title"),
			CommentMessage: r.optStr("review_comment_message"),
			CreatedAt:      r.optTime("review_creation_date"),
			AnsweredAt:     r.optTime("review_answer_timestamp"),
		}
		if !r.dropped && (rv.Score < 1 || rv.Score > 5) {
			r.drop("review_score", fmt.Sprint(rv.Score), ErrOutOfRange)
		}
		if accept(r) {
			all = append(all, rv)
		}
	}
	return DedupeReviews(all), nil
}

func lowerCode(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
