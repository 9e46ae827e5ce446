package db

import (
	"fmt"
	"net/url"
	"strings"
)

// Query is a PostgREST read/filter over one table: equality filters plus an
// optional select clause with relation embeds.
type Query struct {
	table   string
	filters []filter
	sel     []string
}

type filter struct {
	column string
	value  string
}

// From starts a query on table.
func From(table string) *Query {
	return &Query{table: table}
}

// Table returns the queried table.
func (q *Query) Table() string {
	return q.table
}

// Select sets the select clause. Use Embed for nested relations.
func (q *Query) Select(columns ...string) *Query {
	q.sel = append(q.sel, columns...)
	return q
}

// Eq adds a column=eq.value filter.
func (q *Query) Eq(column string, value any) *Query {
	q.filters = append(q.filters, filter{column: column, value: fmt.Sprint(value)})
	return q
}

// Embed renders a relation embed such as sub_category(name,category(name)).
// No columns means every column.
func Embed(relation string, columns ...string) string {
	if len(columns) == 0 {
		columns = []string{"*"}
	}
	return relation + "(" + strings.Join(columns, ",") + ")"
}

// Encode renders the query string: filters in the order added, then select.
func (q *Query) Encode() string {
	var parts []string
	for _, f := range q.filters {
		parts = append(parts, escape(f.column)+"=eq."+escape(f.value))
	}
	if len(q.sel) > 0 {
		parts = append(parts, "select="+escape(strings.Join(q.sel, ",")))
	}
	return strings.Join(parts, "&")
}

// PostgREST syntax characters stay readable on the wire.
var unescaper = strings.NewReplacer("%2A", "*", "%28", "(", "%29", ")", "%2C", ",")

func escape(s string) string {
	return unescaper.Replace(url.QueryEscape(s))
}
