package detection

import (
	"slices"
)

// Table is an immutable, loaded set of detections.
type Table struct {
	records []Record
	columns []string
	byTag   map[string][]int
	tags    []string
}

// NewTable builds a table from records, which are taken to be in source row order:
// each record's Seq is set to its slice position. columns is the source column order
// with the collection time named timestamp. Canonical columns missing from it are
// placed first. The table owns a copy of the input.
func NewTable(records []Record, columns []string) *Table {
	t := &Table{
		records: CloneAll(records),
		columns: NormalizeColumns(columns),
		byTag:   make(map[string][]int),
	}
	if t.records == nil {
		t.records = []Record{}
	}

	for i := range t.records {
		t.records[i].Seq = i
		tag := t.records[i].TagID
		if _, seen := t.byTag[tag]; !seen {
			t.tags = append(t.tags, tag)
		}
		t.byTag[tag] = append(t.byTag[tag], i)
	}
	slices.Sort(t.tags)

	return t
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.records)
}

// Records returns a copy of every record in source order.
func (t *Table) Records() []Record {
	return CloneAll(t.records)
}

// Tags returns the sorted unique tag IDs.
func (t *Table) Tags() []string {
	return slices.Clone(t.tags)
}

// HasTag reports whether any record belongs to tag.
func (t *Table) HasTag(tag string) bool {
	_, ok := t.byTag[tag]
	return ok
}

// Track returns a chronologically sorted copy of the records for tag.
// An unknown tag yields an empty, non-nil slice.
func (t *Table) Track(tag string) []Record {
	idx := t.byTag[tag]
	out := make([]Record, 0, len(idx))
	for _, i := range idx {
		out = append(out, t.records[i].Clone())
	}
	SortChronological(out)
	return out
}

// Columns returns the source column order, canonical columns included.
func (t *Table) Columns() []string {
	return slices.Clone(t.columns)
}

// ExtraColumns returns the non-canonical input columns in input order.
func (t *Table) ExtraColumns() []string {
	var extras []string
	for _, col := range t.columns {
		if !IsCanonicalColumn(col) {
			extras = append(extras, col)
		}
	}
	return extras
}

// TagInfo summarizes one tag for listings.
type TagInfo struct {
	TagID          string `json:"tagname"`
	CommonName     string `json:"commonname"`
	ScientificName string `json:"scientificname"`
	Detections     int    `json:"detections"`
}

// TagInfos returns one entry per tag in Tags() order. Species names come from the tag's first record.
func (t *Table) TagInfos() []TagInfo {
	out := make([]TagInfo, 0, len(t.tags))
	for _, tag := range t.tags {
		idx := t.byTag[tag]
		first := t.records[idx[0]]
		out = append(out, TagInfo{
			TagID:          tag,
			CommonName:     first.CommonName,
			ScientificName: first.ScientificName,
			Detections:     len(idx),
		})
	}
	return out
}
