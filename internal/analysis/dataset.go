package analysis

// Row is a single execution record keyed by column name.
type Row = map[string]any

// Dataset is a small, ordered tabular container: a column list plus a row
// slice. Handlers receive datasets read-only by convention; a handler that
// needs to mutate rows must copy them first.
type Dataset struct {
	columns []string
	colSet  map[string]struct{}
	rows    []Row
}

// NewDataset creates an empty dataset with the given column order.
func NewDataset(columns ...string) *Dataset {
	colSet := make(map[string]struct{}, len(columns))
	for _, column := range columns {
		colSet[column] = struct{}{}
	}
	return &Dataset{
		columns: append([]string(nil), columns...),
		colSet:  colSet,
	}
}

// Append adds one row to the dataset.
func (d *Dataset) Append(row Row) {
	d.rows = append(d.rows, row)
}

// Columns returns the dataset's column names in declaration order.
func (d *Dataset) Columns() []string {
	return append([]string(nil), d.columns...)
}

// HasColumn reports whether the dataset declares the named column.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.colSet[name]
	return ok
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.rows)
}

// Rows returns the backing row slice in insertion order.
func (d *Dataset) Rows() []Row {
	return d.rows
}

// Group is one bucket produced by GroupBy: a group key plus the rows that
// mapped to it, in first-encountered order.
type Group struct {
	Key  any
	Rows []Row
}

// GroupBy buckets rows by the key the supplied function derives from each
// row. Groups are returned in first-encountered order, which keeps any
// downstream positional labelling deterministic for a given row order.
func (d *Dataset) GroupBy(keyFn func(index int, row Row) any) []*Group {
	var groups []*Group
	byKey := make(map[any]*Group)
	for i, row := range d.rows {
		key := keyFn(i, row)
		group, ok := byKey[key]
		if !ok {
			group = &Group{Key: key}
			byKey[key] = group
			groups = append(groups, group)
		}
		group.Rows = append(group.Rows, row)
	}
	return groups
}
