package supabase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/supabase-community/postgrest-go"
)

type filter func(*postgrest.FilterBuilder) *postgrest.FilterBuilder

// Query is a PostgREST read. Builders return the receiver for chaining; the
// request is only built when Execute runs, so the bearer token reflects the
// session at that point.
type Query struct {
	client  *Client
	table   string
	columns string
	filters []filter
}

// Select sets the column list ("*" when never called).
func (q *Query) Select(columns string) *Query {
	q.columns = columns
	return q
}

// Eq filters rows where column equals value.
func (q *Query) Eq(column, value string) *Query {
	q.filters = append(q.filters, func(f *postgrest.FilterBuilder) *postgrest.FilterBuilder {
		return f.Eq(column, value)
	})
	return q
}

// Order sorts by column.
func (q *Query) Order(column string, ascending bool) *Query {
	q.filters = append(q.filters, func(f *postgrest.FilterBuilder) *postgrest.FilterBuilder {
		return f.Order(column, &postgrest.OrderOpts{Ascending: ascending})
	})
	return q
}

func (q *Query) Limit(n int) *Query {
	q.filters = append(q.filters, func(f *postgrest.FilterBuilder) *postgrest.FilterBuilder {
		return f.Limit(n, "")
	})
	return q
}

type queryResult struct {
	body []byte
	err  error
}

// Execute runs the query and decodes the JSON array response into dest. It
// returns when ctx is done or the client timeout elapses, whichever is first.
func (q *Query) Execute(ctx context.Context, dest any) error {
	rest := q.client.rest()
	if rest.ClientError != nil {
		return fmt.Errorf("supabase: %w", rest.ClientError)
	}
	columns := q.columns
	if columns == "" {
		columns = "*"
	}
	f := rest.From(q.table).Select(columns, "", false)
	for _, apply := range q.filters {
		f = apply(f)
	}

	ctx, cancel := context.WithTimeout(ctx, q.client.timeout)
	defer cancel()
	done := make(chan queryResult, 1)
	go func() {
		body, _, err := f.Execute()
		done <- queryResult{body: body, err: err}
	}()

	var res queryResult
	select {
	case <-ctx.Done():
		return fmt.Errorf("supabase: query %s: %w", q.table, ctx.Err())
	case res = <-done:
	}
	if res.err != nil {
		return fmt.Errorf("supabase: query %s: %w", q.table, res.err)
	}
	if err := json.Unmarshal(res.body, dest); err != nil {
		return fmt.Errorf("supabase: decode %s response: %w", q.table, err)
	}
	return nil
}
