package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/degenecho/price-game-platform/pkg/contracts/events"
)

// PostgresRepo persiste o histórico de ticks (alimenta gráficos e
// auditoria das liquidações).
type PostgresRepo struct{ db *sql.DB }

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

// InsertHistory registra um tick no histórico.
func (r *PostgresRepo) InsertHistory(ctx context.Context, t events.PriceTick) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO price_history (pair, price, observed_at)
		VALUES ($1,$2,$3)`,
		t.Pair, t.Price, time.UnixMilli(t.TsUnixMs))
	if err != nil {
		return fmt.Errorf("insert price history: %w", err)
	}
	return nil
}
