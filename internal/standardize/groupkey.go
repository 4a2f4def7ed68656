package standardize

import (
	"strings"

	"factorstd/internal/dataset"
	apierrors "factorstd/internal/errors"
)

// ungroupedKey is the synthetic key used when no grouping fields are
// configured: every row lands in one group.
const ungroupedKey = "all"

// group is one partition of the input rows. Rows holds the original row
// indices in input order, so merging results back preserves row identity.
type group struct {
	Key  string
	Rows []int
}

// keyEscaper makes the '|' join unambiguous: a separator inside a field
// value cannot produce the same key as a separator between fields.
var keyEscaper = strings.NewReplacer(`\`, `\\`, `|`, `\|`)

// resolveGroups partitions the table's rows by the values of the grouping
// fields. Rows with identical field values, including identical null
// patterns, land in the same group; rows with different tuples never share
// a key even when a cell contains the separator. Groups are returned in
// order of first appearance so downstream iteration is deterministic.
func resolveGroups(t *dataset.Table, groupBy []string) ([]group, error) {
	n := t.NumRows()

	if len(groupBy) == 0 {
		rows := make([]int, n)
		for i := range rows {
			rows[i] = i
		}
		return []group{{Key: ungroupedKey, Rows: rows}}, nil
	}

	cols := make([]*dataset.Column, len(groupBy))
	for i, field := range groupBy {
		col, ok := t.Column(field)
		if !ok {
			return nil, apierrors.NewConfigError("group_by", "unknown grouping field %q", field)
		}
		cols[i] = col
	}

	byKey := make(map[string]int)
	var groups []group
	var key strings.Builder
	for row := 0; row < n; row++ {
		key.Reset()
		for i, col := range cols {
			if i > 0 {
				key.WriteByte('|')
			}
			key.WriteString(keyEscaper.Replace(col.CellString(row)))
		}
		k := key.String()
		gi, seen := byKey[k]
		if !seen {
			gi = len(groups)
			byKey[k] = gi
			groups = append(groups, group{Key: k})
		}
		groups[gi].Rows = append(groups[gi].Rows, row)
	}
	return groups, nil
}
