package controller

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ordermart/ordermart/pkg/db/entities"
	"github.com/ordermart/ordermart/pkg/db/warehouse"
)

type entityInfo struct {
	Name    string         `json:"name"`
	Alias   string         `json:"alias"`
	Layer   entities.Layer `json:"layer"`
	Key     []string       `json:"key"`
	Columns []columnInfo   `json:"columns"`
}

type columnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// HandleEntities lists every table the pipeline publishes.
func (c *Controller) HandleEntities(w http.ResponseWriter, _ *http.Request) {
	all := entities.All()
	out := make([]entityInfo, 0, len(all))
	for _, e := range all {
		defs := warehouse.Columns(e)
		cols := make([]columnInfo, 0, len(defs))
		for _, d := range defs {
			cols = append(cols, columnInfo{Name: d.Name, Type: d.Type})
		}
		out = append(out, entityInfo{
			Name:    e.TableName(),
			Alias:   e.Alias(),
			Layer:   e.Layer(),
			Key:     e.Key(),
			Columns: cols,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleEntityRows returns a page of rows of any published entity.
func (c *Controller) HandleEntityRows(w http.ResponseWriter, r *http.Request) {
	e, ok := c.entityFromPath(w, r, "entity", "")
	if !ok {
		return
	}
	c.writeRows(w, r, e)
}

// HandleEntityRow returns one row by its key.
func (c *Controller) HandleEntityRow(w http.ResponseWriter, r *http.Request) {
	e, ok := c.entityFromPath(w, r, "entity", "")
	if !ok {
		return
	}
	c.writeRow(w, r, e)
}

// HandleMart returns a page of a reporting view.
func (c *Controller) HandleMart(w http.ResponseWriter, r *http.Request) {
	e, ok := c.entityFromPath(w, r, "view", entities.LayerMarts)
	if !ok {
		return
	}
	c.writeRows(w, r, e)
}

func (c *Controller) HandleMartRow(w http.ResponseWriter, r *http.Request) {
	e, ok := c.entityFromPath(w, r, "view", entities.LayerMarts)
	if !ok {
		return
	}
	c.writeRow(w, r, e)
}

// entityFromPath resolves the path variable to an entity, optionally restricted to one layer.
func (c *Controller) entityFromPath(w http.ResponseWriter, r *http.Request, name string, layer entities.Layer) (entities.Entity, bool) {
	e, err := entities.FromString(mux.Vars(r)[name])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return "", false
	}
	if layer != "" && e.Layer() != layer {
		writeError(w, http.StatusNotFound, "not a "+string(layer)+" view: "+e.TableName())
		return "", false
	}
	return e, true
}

func (c *Controller) writeRows(w http.ResponseWriter, r *http.Request, e entities.Entity) {
	p, err := parsePage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows, err := c.App.Cache.Rows(r.Context(), e)
	if err != nil {
		c.storeError(w, e, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(rows, p))
}

func (c *Controller) writeRow(w http.ResponseWriter, r *http.Request, e entities.Entity) {
	key := mux.Vars(r)["key"]
	row, found, err := c.App.Cache.Get(r.Context(), e, key)
	if err != nil {
		c.storeError(w, e, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, e.Alias()+" "+key+" not found")
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (c *Controller) storeError(w http.ResponseWriter, e entities.Entity, err error) {
	if errors.Is(err, warehouse.ErrNotPublished) {
		writeError(w, http.StatusNotFound, e.TableName()+" has not been published yet")
		return
	}
	c.App.Logger.Error("Failed to read entity", zap.String("entity", e.TableName()), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "failed to read "+e.TableName())
}
