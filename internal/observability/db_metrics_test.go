package observability

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: &pgconn.PgError{Code: "23505"}, want: "unique_violation"},
		{err: fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "40P01"}), want: "deadlock"},
		{err: &pgconn.PgError{Code: "22001"}, want: "pg_22001"},
		{err: context.DeadlineExceeded, want: "timeout"},
		{err: errors.New("connection refused"), want: "connection"},
		{err: errors.New("boom"), want: "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyDBErr(tt.err), tt.err.Error())
	}
}

func TestObserveDB_CountsErrors(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	assert.NoError(t, p.ObserveDB("events.get", func() error { return nil }))
	err := p.ObserveDB("events.get", func() error { return &pgconn.PgError{Code: "23505"} })

	assert.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("events.get", "unique_violation")))
}
