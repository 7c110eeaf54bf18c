package jsonstat

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fastjson"

	"github.com/robert-malhotra/go-csodata/pkg/table"
)

// ErrNoDimensions reports a document without a usable dimension block.
var ErrNoDimensions = errors.New("jsonstat: document has no dimensions")

// Dimension is one axis of a JSON-stat cube.
type Dimension struct {
	ID    string
	Label string
	// Codes and Labels are parallel, in category index order.
	Codes  []string
	Labels []string
	// Units holds the category unit labels, for the statistic dimension.
	Units []string
	// SpatialURL is the first enclosure link of the dimension, if any.
	SpatialURL string
}

// IDMapping maps each category label to its code.
func (d Dimension) IDMapping() map[string]string {
	m := make(map[string]string, len(d.Codes))
	for i, code := range d.Codes {
		m[d.Labels[i]] = code
	}
	return m
}

// Extension holds the PxStat-specific "extension" block.
type Extension struct {
	Matrix        string
	Reasons       []string
	Official      bool
	Experimental  bool
	Reservation   bool
	Archive       bool
	Analytical    bool
	Exceptional   bool
	CopyrightName string
	CopyrightHref string
	ContactName   string
	ContactEmail  string
	ContactPhone  string
}

// Dataset is a decoded JSON-stat 2.0 dataset (or a catalogue item, which has
// the same shape without values).
type Dataset struct {
	Label          string
	Updated        string
	Dimensions     []Dimension
	Sizes          []int
	TimeDimensions []string
	Notes          []string
	Extension      Extension
	// Values is the dense, row-major observation array; missing or
	// non-numeric observations are nil.
	Values []any
}

// Dimension returns the dimension with the given id.
func (ds *Dataset) Dimension(id string) (Dimension, bool) {
	for _, d := range ds.Dimensions {
		if d.ID == id {
			return d, true
		}
	}
	return Dimension{}, false
}

// TimeDimension returns the first dimension with the time role.
func (ds *Dataset) TimeDimension() (Dimension, bool) {
	if len(ds.TimeDimensions) == 0 {
		return Dimension{}, false
	}
	return ds.Dimension(ds.TimeDimensions[0])
}

// CanonicalLabel maps the statistic dimension's label variants onto
// table.StatisticColumn.
func CanonicalLabel(label string) string {
	if strings.EqualFold(label, table.StatisticColumn) {
		return table.StatisticColumn
	}
	return label
}

// Decode parses a JSON-stat 2.0 dataset document.
func Decode(data []byte) (*Dataset, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("jsonstat: %w", err)
	}
	return decodeValue(v)
}

// Item is one entry of a catalogue collection: a decoded dataset or the
// reason it could not be decoded.
type Item struct {
	Index   int
	Dataset *Dataset
	Err     error
}

// DecodeCollection parses a ReadCollection response. Items that fail to decode
// are returned with their error rather than failing the whole collection.
func DecodeCollection(data []byte) ([]Item, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("jsonstat: %w", err)
	}
	raw := v.GetArray("link", "item")
	items := make([]Item, 0, len(raw))
	for i, iv := range raw {
		ds, err := decodeValue(iv)
		items = append(items, Item{Index: i, Dataset: ds, Err: err})
	}
	return items, nil
}

func decodeValue(v *fastjson.Value) (*Dataset, error) {
	if v == nil || v.Type() != fastjson.TypeObject {
		return nil, errors.New("jsonstat: not an object")
	}
	dimObj := v.GetObject("dimension")
	if dimObj == nil {
		return nil, ErrNoDimensions
	}

	ds := &Dataset{
		Label:   string(v.GetStringBytes("label")),
		Updated: string(v.GetStringBytes("updated")),
	}

	var ids []string
	for _, idv := range v.GetArray("id") {
		ids = append(ids, string(idv.GetStringBytes()))
	}
	if len(ids) == 0 {
		dimObj.Visit(func(key []byte, _ *fastjson.Value) {
			ids = append(ids, string(key))
		})
	}
	for _, id := range ids {
		dv := dimObj.Get(id)
		if dv == nil {
			return nil, fmt.Errorf("jsonstat: dimension %q listed in id but not defined", id)
		}
		ds.Dimensions = append(ds.Dimensions, decodeDimension(id, dv))
	}

	sizes, err := decodeSizes(v.GetArray("size"), ds.Dimensions)
	if err != nil {
		return nil, err
	}
	ds.Sizes = sizes

	for _, tv := range v.GetArray("role", "time") {
		ds.TimeDimensions = append(ds.TimeDimensions, string(tv.GetStringBytes()))
	}
	for _, nv := range v.GetArray("note") {
		ds.Notes = append(ds.Notes, string(nv.GetStringBytes()))
	}
	ds.Extension = decodeExtension(v.Get("extension"))

	if vals := v.Get("value"); vals != nil {
		values, err := decodeValues(vals, ds.cells())
		if err != nil {
			return nil, err
		}
		ds.Values = values
	}
	return ds, nil
}

func decodeDimension(id string, dv *fastjson.Value) Dimension {
	d := Dimension{ID: id, Label: id}
	if l := dv.GetStringBytes("label"); l != nil {
		d.Label = string(l)
	}
	d.Label = CanonicalLabel(d.Label)

	labels := map[string]string{}
	var labelOrder []string
	if lo := dv.GetObject("category", "label"); lo != nil {
		lo.Visit(func(key []byte, lv *fastjson.Value) {
			labels[string(key)] = string(lv.GetStringBytes())
			labelOrder = append(labelOrder, string(key))
		})
	}

	index := dv.Get("category", "index")
	switch {
	case index != nil && index.Type() == fastjson.TypeArray:
		for _, cv := range index.GetArray() {
			d.Codes = append(d.Codes, string(cv.GetStringBytes()))
		}
	case index != nil && index.Type() == fastjson.TypeObject:
		o, _ := index.Object()
		d.Codes = make([]string, o.Len())
		o.Visit(func(key []byte, pv *fastjson.Value) {
			if pos := pv.GetInt(); pos >= 0 && pos < len(d.Codes) {
				d.Codes[pos] = string(key)
			}
		})
	default:
		d.Codes = labelOrder
	}
	for _, code := range d.Codes {
		label, ok := labels[code]
		if !ok {
			label = code
		}
		d.Labels = append(d.Labels, label)
	}

	if uo := dv.GetObject("category", "unit"); uo != nil {
		uo.Visit(func(_ []byte, uv *fastjson.Value) {
			if l := uv.GetStringBytes("label"); len(l) > 0 {
				d.Units = append(d.Units, string(l))
			}
		})
	}

	if enc := dv.GetArray("link", "enclosure"); len(enc) > 0 {
		d.SpatialURL = string(enc[0].GetStringBytes("href"))
	}
	return d
}

func decodeExtension(ev *fastjson.Value) Extension {
	if ev == nil {
		return Extension{}
	}
	ext := Extension{
		Matrix:        string(ev.GetStringBytes("matrix")),
		Official:      ev.GetBool("official"),
		Experimental:  ev.GetBool("experimental"),
		Reservation:   ev.GetBool("reservation"),
		Archive:       ev.GetBool("archive"),
		Analytical:    ev.GetBool("analytical"),
		Exceptional:   ev.GetBool("exceptional"),
		CopyrightName: string(ev.GetStringBytes("copyright", "name")),
		CopyrightHref: string(ev.GetStringBytes("copyright", "href")),
		ContactName:   string(ev.GetStringBytes("contact", "name")),
		ContactEmail:  string(ev.GetStringBytes("contact", "email")),
		ContactPhone:  string(ev.GetStringBytes("contact", "phone")),
	}
	for _, rv := range ev.GetArray("reasons") {
		ext.Reasons = append(ext.Reasons, string(rv.GetStringBytes()))
	}
	return ext
}

// MaxCells bounds the number of observations a document may describe.
const MaxCells = 1 << 27

// decodeSizes reads the size array, or derives it from the category counts
// when absent. Each size must match its dimension's category count.
func decodeSizes(raw []*fastjson.Value, dims []Dimension) ([]int, error) {
	sizes := make([]int, len(dims))
	if len(raw) > 0 && len(raw) != len(dims) {
		return nil, fmt.Errorf("jsonstat: size has %d entries for %d dimensions", len(raw), len(dims))
	}
	total := 1
	for i, d := range dims {
		sizes[i] = len(d.Codes)
		if len(raw) > 0 {
			n, err := raw[i].Int()
			if err != nil {
				return nil, fmt.Errorf("jsonstat: size of %q: %w", d.ID, err)
			}
			if n < 0 {
				return nil, fmt.Errorf("jsonstat: size of %q is negative (%d)", d.ID, n)
			}
			if n != len(d.Codes) {
				return nil, fmt.Errorf("jsonstat: size of %q is %d but it has %d categories", d.ID, n, len(d.Codes))
			}
		}
		if sizes[i] > 0 && total > MaxCells/sizes[i] {
			return nil, fmt.Errorf("jsonstat: dimensions describe more than %d cells", MaxCells)
		}
		total *= sizes[i]
	}
	return sizes, nil
}

// cells is the product of the sizes; decodeSizes keeps it within MaxCells.
func (ds *Dataset) cells() int {
	if len(ds.Sizes) == 0 {
		return 0
	}
	n := 1
	for _, s := range ds.Sizes {
		n *= s
	}
	return n
}

func decodeValues(v *fastjson.Value, n int) ([]any, error) {
	out := make([]any, n)
	switch v.Type() {
	case fastjson.TypeArray:
		arr := v.GetArray()
		if len(arr) != n {
			return nil, fmt.Errorf("jsonstat: value has %d entries, dimensions describe %d", len(arr), n)
		}
		for i, x := range arr {
			out[i] = numeric(x)
		}
	case fastjson.TypeObject:
		o, _ := v.Object()
		var err error
		o.Visit(func(key []byte, x *fastjson.Value) {
			i, convErr := strconv.Atoi(string(key))
			if convErr != nil || i < 0 || i >= n {
				err = fmt.Errorf("jsonstat: invalid value index %q", key)
				return
			}
			out[i] = numeric(x)
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("jsonstat: unexpected value type %s", v.Type())
	}
	return out, nil
}

func numeric(x *fastjson.Value) any {
	switch x.Type() {
	case fastjson.TypeNumber:
		f, err := x.Float64()
		if err != nil {
			return nil
		}
		return f
	case fastjson.TypeString:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(x.GetStringBytes())), 64)
		if err != nil {
			return nil
		}
		return f
	default:
		return nil
	}
}

// Table expands the cube into a long table with one column per dimension
// (holding category labels) followed by table.ValueColumn.
func (ds *Dataset) Table() *table.Table {
	cols := make([]string, 0, len(ds.Dimensions)+1)
	for _, d := range ds.Dimensions {
		cols = append(cols, d.Label)
	}
	t := table.New(append(cols, table.ValueColumn)...)

	n := ds.cells()
	if len(ds.Values) != n {
		return t
	}
	t.Rows = make([][]any, 0, n)
	idx := make([]int, len(ds.Dimensions))
	for i := 0; i < n; i++ {
		rem := i
		for j := len(ds.Sizes) - 1; j >= 0; j-- {
			idx[j] = rem % ds.Sizes[j]
			rem /= ds.Sizes[j]
		}
		row := make([]any, 0, len(cols)+1)
		for j, d := range ds.Dimensions {
			if idx[j] < len(d.Labels) {
				row = append(row, d.Labels[idx[j]])
			} else {
				row = append(row, nil)
			}
		}
		t.Rows = append(t.Rows, append(row, ds.Values[i]))
	}
	return t
}

var updatedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ParseUpdated parses the "updated" timestamp of a document.
func ParseUpdated(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range updatedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
