package view

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const dbTimeout = 5 * time.Second

// FormatValue renders a monetary value with two decimals.
func FormatValue(v decimal.Decimal) string {
	return v.StringFixed(2)
}

// FormatTime renders t in UTC as YYYY-MM-DD HH:MM.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}

// ShortID keeps the first block of a UUID, enough to tell rows apart.
func ShortID(id uuid.UUID) string {
	return id.String()[:8]
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}
