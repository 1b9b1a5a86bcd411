package tushare

import (
	"math"

	"github.com/tidwall/gjson"
)

// Table data.fields + data.items
type Table struct {
	index map[string]int
	items []gjson.Result
}

func parseTable(raw []byte) *Table {
	data := gjson.GetBytes(raw, "data")
	t := &Table{index: make(map[string]int)}
	for i, f := range data.Get("fields").Array() {
		t.index[f.String()] = i
	}
	t.items = data.Get("items").Array()
	return t
}

func (t *Table) Len() int { return len(t.items) }

func (t *Table) Has(field string) bool {
	_, ok := t.index[field]
	return ok
}

func (t *Table) Row(i int) Row {
	return Row{t: t, cells: t.items[i].Array()}
}

type Row struct {
	t     *Table
	cells []gjson.Result
}

func (r Row) cell(field string) (gjson.Result, bool) {
	i, ok := r.t.index[field]
	if !ok || i >= len(r.cells) {
		return gjson.Result{}, false
	}
	c := r.cells[i]
	if c.Type == gjson.Null {
		return c, false
	}
	return c, true
}

func (r Row) Str(field string) string {
	c, ok := r.cell(field)
	if !ok {
		return ""
	}
	return c.String()
}

// Float null 或缺列返回 false
func (r Row) Float(field string) (float64, bool) {
	c, ok := r.cell(field)
	if !ok || c.Type != gjson.Number {
		return 0, false
	}
	return c.Float(), true
}

// FloatOr null 时返回 0
func (r Row) FloatOr(field string) float64 {
	v, _ := r.Float(field)
	return v
}

// FloatOrNaN null 时返回 NaN, 下游按缺失处理
func (r Row) FloatOrNaN(field string) float64 {
	v, ok := r.Float(field)
	if !ok {
		return math.NaN()
	}
	return v
}

// FloatPtr null 时返回 nil
func (r Row) FloatPtr(field string) *float64 {
	v, ok := r.Float(field)
	if !ok {
		return nil
	}
	return &v
}
