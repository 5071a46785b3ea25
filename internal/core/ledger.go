package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// DefaultWarehouseLocation is stamped on materials created through a receipt
// when no location is given.
const DefaultWarehouseLocation = "WH1"

// LedgerReader is the read-side of the ledger used by the event router.
type LedgerReader interface {
	Material(ctx context.Context, materialID string) (MaterialRecord, error)
}

// MaterialLedger is the single source of truth for raw material stock. All
// mutations are transactional; consumption validates the entire bill of
// materials before applying any decrement.
type MaterialLedger struct {
	pool   *pgxpool.Pool
	audit  *AuditTrail
	logger *slog.Logger
}

func NewMaterialLedger(pool *pgxpool.Pool, audit *AuditTrail, logger *slog.Logger) *MaterialLedger {
	return &MaterialLedger{pool: pool, audit: audit, logger: logger}
}

// Consume runs ConsumeTx in its own transaction. Used when consumption is not
// part of a larger stage transition.
func (l *MaterialLedger) Consume(ctx context.Context, productionID, finishedProductID string, targetQuantity decimal.Decimal) ([]AffectedMaterial, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin consume transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	affected, err := l.ConsumeTx(ctx, tx, productionID, finishedProductID, targetQuantity)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit consume transaction: %w", err)
	}
	return affected, nil
}

// ConsumeTx decrements stock for every BOM component of finishedProductID,
// scaled by targetQuantity, inside the caller's transaction. Component rows
// are locked in ascending component id order so concurrent consumers acquire
// locks in the same sequence. Every component is validated against on-hand
// stock before the first decrement; a single short component fails the whole
// call with the ledger untouched.
func (l *MaterialLedger) ConsumeTx(ctx context.Context, tx pgx.Tx, productionID, finishedProductID string, targetQuantity decimal.Decimal) ([]AffectedMaterial, error) {
	bom, err := l.bomLines(ctx, tx, finishedProductID)
	if err != nil {
		return nil, err
	}
	if len(bom) == 0 {
		return nil, &MissingBomError{ProductID: finishedProductID}
	}

	type lockedLine struct {
		line     BomLine
		required decimal.Decimal
		record   MaterialRecord
	}
	locked := make([]lockedLine, 0, len(bom))

	// Validation pass: lock and check every component before touching stock.
	for _, line := range bom {
		required := line.QuantityRequired.Mul(targetQuantity)

		var rec MaterialRecord
		err := tx.QueryRow(ctx, `
			SELECT material_id, current_stock, reserved_stock, warehouse_location, last_updated
			FROM materials
			WHERE material_id = $1
			FOR UPDATE`,
			line.ComponentProductID,
		).Scan(&rec.MaterialID, &rec.CurrentStock, &rec.ReservedStock, &rec.WarehouseLocation, &rec.LastUpdated)
		if errors.Is(err, pgx.ErrNoRows) {
			// No ledger row means zero on hand, reported the same way as a
			// plain shortfall.
			return nil, &InsufficientStockError{
				MaterialID: line.ComponentProductID,
				Required:   required,
				OnHand:     decimal.Zero,
			}
		}
		if err != nil {
			return nil, fmt.Errorf("lock material %s: %w", line.ComponentProductID, err)
		}

		if rec.CurrentStock.LessThan(required) {
			return nil, &InsufficientStockError{
				MaterialID: rec.MaterialID,
				Required:   required,
				OnHand:     rec.CurrentStock,
			}
		}
		locked = append(locked, lockedLine{line: line, required: required, record: rec})
	}

	// Apply pass: every component validated, decrement them all.
	now := time.Now().UTC()
	affected := make([]AffectedMaterial, 0, len(locked))
	for _, ll := range locked {
		newStock := ll.record.CurrentStock.Sub(ll.required)
		if _, err := tx.Exec(ctx, `
			UPDATE materials
			SET current_stock = $1, last_updated = $2
			WHERE material_id = $3`,
			newStock, now, ll.record.MaterialID,
		); err != nil {
			return nil, fmt.Errorf("decrement material %s: %w", ll.record.MaterialID, err)
		}
		affected = append(affected, AffectedMaterial{
			MaterialID:        ll.record.MaterialID,
			QuantityConsumed:  ll.required,
			WarehouseLocation: ll.record.WarehouseLocation,
		})
	}

	l.audit.Record(ctx, "ledger.consume", productionID, map[string]any{
		"finished_product_id": finishedProductID,
		"target_quantity":     targetQuantity,
		"affected_materials":  affected,
	})
	l.logger.Info("bill of materials consumed",
		"production_id", productionID,
		"finished_product_id", finishedProductID,
		"components", len(affected))
	return affected, nil
}

// bomLines loads the immutable BOM for a finished product, ordered by
// component id so lock acquisition order is deterministic.
func (l *MaterialLedger) bomLines(ctx context.Context, tx pgx.Tx, finishedProductID string) ([]BomLine, error) {
	rows, err := tx.Query(ctx, `
		SELECT finished_product_id, component_product_id, quantity_required
		FROM bom
		WHERE finished_product_id = $1
		ORDER BY component_product_id`,
		finishedProductID)
	if err != nil {
		return nil, fmt.Errorf("query bom for %s: %w", finishedProductID, err)
	}
	defer rows.Close()

	var out []BomLine
	for rows.Next() {
		var line BomLine
		if err := rows.Scan(&line.FinishedProductID, &line.ComponentProductID, &line.QuantityRequired); err != nil {
			return nil, fmt.Errorf("scan bom line: %w", err)
		}
		out = append(out, line)
	}
	return out, rows.Err()
}

// Receive adds quantity to a material's stock, creating the ledger row when
// it does not exist yet. An empty warehouseLocation defaults for new rows.
func (l *MaterialLedger) Receive(ctx context.Context, materialID string, quantity decimal.Decimal, warehouseLocation string) (MaterialRecord, error) {
	if warehouseLocation == "" {
		warehouseLocation = DefaultWarehouseLocation
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return MaterialRecord{}, fmt.Errorf("begin receive transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	var rec MaterialRecord
	err = tx.QueryRow(ctx, `
		SELECT material_id, current_stock, reserved_stock, warehouse_location, last_updated
		FROM materials
		WHERE material_id = $1
		FOR UPDATE`,
		materialID,
	).Scan(&rec.MaterialID, &rec.CurrentStock, &rec.ReservedStock, &rec.WarehouseLocation, &rec.LastUpdated)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		rec = MaterialRecord{
			MaterialID:        materialID,
			CurrentStock:      quantity,
			ReservedStock:     decimal.Zero,
			WarehouseLocation: warehouseLocation,
			LastUpdated:       now,
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO materials (material_id, current_stock, reserved_stock, warehouse_location, last_updated)
			VALUES ($1, $2, $3, $4, $5)`,
			rec.MaterialID, rec.CurrentStock, rec.ReservedStock, rec.WarehouseLocation, rec.LastUpdated,
		); err != nil {
			return MaterialRecord{}, fmt.Errorf("insert material %s: %w", materialID, err)
		}
	case err != nil:
		return MaterialRecord{}, fmt.Errorf("lock material %s: %w", materialID, err)
	default:
		rec.CurrentStock = rec.CurrentStock.Add(quantity)
		rec.LastUpdated = now
		if _, err := tx.Exec(ctx, `
			UPDATE materials
			SET current_stock = $1, last_updated = $2
			WHERE material_id = $3`,
			rec.CurrentStock, now, materialID,
		); err != nil {
			return MaterialRecord{}, fmt.Errorf("increment material %s: %w", materialID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return MaterialRecord{}, fmt.Errorf("commit receive transaction: %w", err)
	}

	l.audit.Record(ctx, "ledger.receive", materialID, map[string]any{
		"quantity":           quantity,
		"warehouse_location": rec.WarehouseLocation,
		"current_stock":      rec.CurrentStock,
	})
	l.logger.Info("stock received",
		"material_id", materialID,
		"quantity", quantity.String(),
		"current_stock", rec.CurrentStock.String())
	return rec, nil
}

// Material returns one ledger row.
func (l *MaterialLedger) Material(ctx context.Context, materialID string) (MaterialRecord, error) {
	var rec MaterialRecord
	err := l.pool.QueryRow(ctx, `
		SELECT material_id, current_stock, reserved_stock, warehouse_location, last_updated
		FROM materials
		WHERE material_id = $1`,
		materialID,
	).Scan(&rec.MaterialID, &rec.CurrentStock, &rec.ReservedStock, &rec.WarehouseLocation, &rec.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return MaterialRecord{}, &MaterialNotFoundError{MaterialID: materialID}
	}
	if err != nil {
		return MaterialRecord{}, fmt.Errorf("query material %s: %w", materialID, err)
	}
	return rec, nil
}

// StockLevels returns every ledger row, ordered by material id.
func (l *MaterialLedger) StockLevels(ctx context.Context) ([]MaterialRecord, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT material_id, current_stock, reserved_stock, warehouse_location, last_updated
		FROM materials
		ORDER BY material_id`)
	if err != nil {
		return nil, fmt.Errorf("query stock levels: %w", err)
	}
	defer rows.Close()

	var out []MaterialRecord
	for rows.Next() {
		var rec MaterialRecord
		if err := rows.Scan(&rec.MaterialID, &rec.CurrentStock, &rec.ReservedStock, &rec.WarehouseLocation, &rec.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// AddFinishedGoodsTx upserts finished goods stock inside the caller's
// transaction, as part of the COMPLETED transition.
func (l *MaterialLedger) AddFinishedGoodsTx(ctx context.Context, tx pgx.Tx, productID string, quantity decimal.Decimal) error {
	if _, err := tx.Exec(ctx, `
		INSERT INTO finished_goods (product_id, current_stock, last_updated)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id)
		DO UPDATE SET current_stock = finished_goods.current_stock + EXCLUDED.current_stock,
		              last_updated = EXCLUDED.last_updated`,
		productID, quantity, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("add finished goods for %s: %w", productID, err)
	}
	return nil
}

// FinishedGoods returns finished goods stock rows, ordered by product id.
func (l *MaterialLedger) FinishedGoods(ctx context.Context) ([]FinishedGoodsRecord, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT product_id, current_stock, last_updated
		FROM finished_goods
		ORDER BY product_id`)
	if err != nil {
		return nil, fmt.Errorf("query finished goods: %w", err)
	}
	defer rows.Close()

	var out []FinishedGoodsRecord
	for rows.Next() {
		var rec FinishedGoodsRecord
		if err := rows.Scan(&rec.ProductID, &rec.CurrentStock, &rec.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan finished goods: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
