package controller

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ordermart/ordermart/pkg/db/entities"
	"github.com/ordermart/ordermart/pkg/db/models"
	model "github.com/ordermart/ordermart/pkg/db/models/intermediate"
	stg "github.com/ordermart/ordermart/pkg/db/models/staging"
)

type orderDetail struct {
	Order    models.Row      `json:"order"`
	Items    []stg.OrderItem `json:"items"`
	Payments []stg.Payment   `json:"payments"`
	Review   models.Row      `json:"review,omitempty"`
}

// HandleOrder returns an enriched order together with its items, payments and review.
func (c *Controller) HandleOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ctx := r.Context()

	order, found, err := c.App.Cache.Get(ctx, entities.EnrichedOrders, id)
	if err != nil {
		c.storeError(w, entities.EnrichedOrders, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "order "+id+" not found")
		return
	}
	out := orderDetail{Order: order, Items: []stg.OrderItem{}, Payments: []stg.Payment{}}

	items, err := c.App.Cache.Rows(ctx, entities.OrderItems)
	if err != nil {
		c.storeError(w, entities.OrderItems, err)
		return
	}
	for _, row := range items {
		if it, ok := row.(stg.OrderItem); ok && it.OrderID == id {
			out.Items = append(out.Items, it)
		}
	}

	payments, err := c.App.Cache.Rows(ctx, entities.Payments)
	if err != nil {
		c.storeError(w, entities.Payments, err)
		return
	}
	for _, row := range payments {
		if p, ok := row.(stg.Payment); ok && p.OrderID == id {
			out.Payments = append(out.Payments, p)
		}
	}

	review, found, err := c.App.Cache.Get(ctx, entities.Reviews, id)
	if err != nil {
		c.storeError(w, entities.Reviews, err)
		return
	}
	if found {
		out.Review = review
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleSellerHistory returns the status intervals of one seller, oldest first.
func (c *Controller) HandleSellerHistory(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rows, err := c.App.Cache.Rows(r.Context(), entities.SellerStatusHistory)
	if err != nil {
		c.storeError(w, entities.SellerStatusHistory, err)
		return
	}
	out := make([]model.SellerStatusInterval, 0)
	for _, row := range rows {
		if iv, ok := row.(model.SellerStatusInterval); ok && iv.SellerID == id {
			out = append(out, iv)
		}
	}
	if len(out) == 0 {
		writeError(w, http.StatusNotFound, "seller "+id+" has no status history")
		return
	}
	writeJSON(w, http.StatusOK, out)
}
