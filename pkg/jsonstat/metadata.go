package jsonstat

import (
	"regexp"
	"strings"
	"time"

	"github.com/robert-malhotra/go-csodata/pkg/table"
)

// SpatialInfo locates the boundary file linked from a dataset.
type SpatialInfo struct {
	URL string
	// Key is the label of the dimension the boundaries describe.
	Key string
}

// Available reports whether boundary data is linked.
func (s SpatialInfo) Available() bool { return s.URL != "" && s.Key != "" }

// Metadata describes a CSO table.
type Metadata struct {
	TableCode    string
	Title        string
	Units        []string
	TimeVariable string
	Reasons      []string
	Official     bool
	Experimental bool
	Reservation  bool
	Archive      bool
	Analytical   bool
	Geographic   bool
	Tags         []string
	Variables    []string
	Statistics   []string
	// LastUpdated is zero when the document carries no timestamp.
	LastUpdated   time.Time
	Notes         []string
	CopyrightName string
	CopyrightHref string
	ContactName   string
	ContactEmail  string
	ContactPhone  string
	Spatial       SpatialInfo
}

// Spatial returns the first dimension that links boundary data.
func (ds *Dataset) Spatial() SpatialInfo {
	for _, d := range ds.Dimensions {
		if d.SpatialURL != "" {
			return SpatialInfo{URL: d.SpatialURL, Key: d.Label}
		}
	}
	return SpatialInfo{}
}

// StatisticDimension returns the statistic dimension.
func (ds *Dataset) StatisticDimension() (Dimension, bool) {
	for _, d := range ds.Dimensions {
		if d.Label == table.StatisticColumn || strings.EqualFold(d.ID, table.StatisticColumn) {
			return d, true
		}
	}
	return Dimension{}, false
}

// Metadata extracts the descriptive fields of the document.
func (ds *Dataset) Metadata() Metadata {
	ext := ds.Extension
	m := Metadata{
		TableCode:     ext.Matrix,
		Title:         ds.Label,
		Reasons:       ext.Reasons,
		Official:      ext.Official,
		Experimental:  ext.Experimental,
		Reservation:   ext.Reservation,
		Archive:       ext.Archive,
		Analytical:    ext.Analytical,
		Notes:         cleanNotes(ds.Notes),
		CopyrightName: ext.CopyrightName,
		CopyrightHref: ext.CopyrightHref,
		ContactName:   ext.ContactName,
		ContactEmail:  ext.ContactEmail,
		ContactPhone:  ext.ContactPhone,
		Spatial:       ds.Spatial(),
	}
	if stat, ok := ds.StatisticDimension(); ok {
		m.Units = stat.Units
		m.Statistics = stat.Labels
	}
	if td, ok := ds.TimeDimension(); ok {
		m.TimeVariable = td.Label
	}
	for _, d := range ds.Dimensions {
		m.Variables = append(m.Variables, d.Label)
	}
	if t, ok := ParseUpdated(ds.Updated); ok {
		m.LastUpdated = t
	}
	m.Geographic = m.Spatial.Available()
	m.Tags = buildTags(ext, m.Geographic)
	return m
}

func buildTags(ext Extension, geographic bool) []string {
	var tags []string
	for _, f := range []struct {
		set   bool
		label string
	}{
		{ext.Experimental, "Experimental Statistics"},
		{ext.Reservation, "Reservation Statistics"},
		{ext.Archive, "Archive Statistics"},
		{ext.Analytical, "Analytical Statistics"},
		{ext.Official, "Official Statistics"},
	} {
		if f.set {
			tags = append(tags, f.label)
		}
	}
	if geographic {
		tags = append(tags, "Geographic Data")
	}
	return tags
}

var (
	spaceRun   = regexp.MustCompile(`\s+`)
	urlMarkup  = regexp.MustCompile(`\s*\[url=(.*?)\](.*?)\[/url\]\s*`)
	tagRemover = strings.NewReplacer("[i]", "", "[/i]", "", "[b]", "", "[/b]", "", "\n", " ")
)

// cleanNotes strips PxStat markup from notes, rendering [url=x]text[/url] as
// "text (x)".
func cleanNotes(notes []string) []string {
	var out []string
	for _, n := range notes {
		if n == "" {
			continue
		}
		s := tagRemover.Replace(strings.TrimSpace(n))
		s = strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
		s = urlMarkup.ReplaceAllStringFunc(s, func(match string) string {
			sub := urlMarkup.FindStringSubmatch(match)
			return " " + strings.TrimSpace(sub[2]) + " (" + strings.TrimSpace(sub[1]) + ") "
		})
		out = append(out, s)
	}
	return out
}
