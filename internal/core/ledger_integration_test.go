package core_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/Denno-Labs/Logistria/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// setupTestDB connects to the dedicated test database, truncates all tables
// and seeds the base manufacturing fixture: materials M1/M2, the FP-1 bill of
// materials, planning parameters and two suppliers for M1.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE materials, bom, material_planning, production_orders, wip_tracking,
			finished_goods, qc_log, supplier_master, supplier_products, supplier_performance,
			purchase_orders, audit_events CASCADE;

		INSERT INTO materials (material_id, current_stock, reserved_stock, warehouse_location) VALUES
		('M1', 25, 0, 'WH1'),
		('M2', 100, 0, 'WH1');

		INSERT INTO bom (finished_product_id, component_product_id, quantity_required) VALUES
		('FP-1', 'M1', 2),
		('FP-1', 'M2', 1);

		INSERT INTO material_planning
			(material_id, average_daily_demand, lead_time_days, safety_stock,
			 policy_type, economic_order_quantity, target_level, fixed_lot_size) VALUES
		('M1', 1, 5, 10, 'EOQ', 50, 0, 0),
		('M2', 2, 3, 5, 'TARGET_LEVEL', 0, 200, 0);

		INSERT INTO supplier_master (supplier_id, name, reliability_score, rating, risk_level) VALUES
		('SUP-A', 'Alpha Metals', 0.9, 4.5, 'LOW'),
		('SUP-B', 'Beta Components', 0.6, 3.0, 'HIGH');

		INSERT INTO supplier_products
			(supplier_id, product_id, cost_per_unit, transport_cost, lead_time_days, max_capacity, minimum_order_quantity) VALUES
		('SUP-A', 'M1', 10, 50, 5, 1000, 10),
		('SUP-B', 'M1', 8, 200, 15, 500, 20);

		INSERT INTO supplier_performance
			(supplier_id, product_id, quality_score, on_time_delivery_rate, defect_rate, average_delay_days) VALUES
		('SUP-A', 'M1', 0.95, 0.98, 0.01, 0.5);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}

func newTestLedger(pool *pgxpool.Pool) *core.MaterialLedger {
	audit := core.NewAuditTrail(pool, testLogger())
	return core.NewMaterialLedger(pool, audit, testLogger())
}

func stockOf(t *testing.T, ledger *core.MaterialLedger, materialID string) decimal.Decimal {
	t.Helper()
	rec, err := ledger.Material(context.Background(), materialID)
	if err != nil {
		t.Fatalf("Material(%s): %v", materialID, err)
	}
	return rec.CurrentStock
}

func TestLedger_ConsumeDecrementsAllComponents(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ledger := newTestLedger(pool)
	ctx := context.Background()

	affected, err := ledger.Consume(ctx, "PROD-1", "FP-1", decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}

	// BOM order is component id ascending: M1 then M2.
	if len(affected) != 2 || affected[0].MaterialID != "M1" || affected[1].MaterialID != "M2" {
		t.Fatalf("affected = %+v", affected)
	}
	if !affected[0].QuantityConsumed.Equal(decimal.NewFromInt(20)) {
		t.Errorf("M1 consumed = %s, want 20", affected[0].QuantityConsumed)
	}
	if got := stockOf(t, ledger, "M1"); !got.Equal(decimal.NewFromInt(5)) {
		t.Errorf("M1 stock = %s, want 5", got)
	}
	if got := stockOf(t, ledger, "M2"); !got.Equal(decimal.NewFromInt(90)) {
		t.Errorf("M2 stock = %s, want 90", got)
	}
}

func TestLedger_ShortComponentLeavesLedgerUntouched(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ledger := newTestLedger(pool)
	ctx := context.Background()

	// 20 units need 40 of M1 but only 25 exist. M2 could cover its share,
	// yet nothing may be decremented.
	_, err := ledger.Consume(ctx, "PROD-1", "FP-1", decimal.NewFromInt(20))
	var short *core.InsufficientStockError
	if !errors.As(err, &short) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if short.MaterialID != "M1" {
		t.Errorf("short material = %s, want M1", short.MaterialID)
	}
	if !short.Required.Equal(decimal.NewFromInt(40)) || !short.OnHand.Equal(decimal.NewFromInt(25)) {
		t.Errorf("shortfall detail = required %s, on hand %s", short.Required, short.OnHand)
	}

	if got := stockOf(t, ledger, "M1"); !got.Equal(decimal.NewFromInt(25)) {
		t.Errorf("M1 stock changed to %s after failed consume", got)
	}
	if got := stockOf(t, ledger, "M2"); !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("M2 stock changed to %s after failed consume", got)
	}
}

func TestLedger_MissingComponentReportsZeroOnHand(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ledger := newTestLedger(pool)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO bom (finished_product_id, component_product_id, quantity_required)
		VALUES ('FP-2', 'M9', 1)`)
	if err != nil {
		t.Fatalf("seed bom: %v", err)
	}

	_, err = ledger.Consume(ctx, "PROD-1", "FP-2", decimal.NewFromInt(1))
	var short *core.InsufficientStockError
	if !errors.As(err, &short) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if short.MaterialID != "M9" || !short.OnHand.IsZero() {
		t.Errorf("missing material must report zero on hand: %+v", short)
	}
}

func TestLedger_MissingBom(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ledger := newTestLedger(pool)

	_, err := ledger.Consume(context.Background(), "PROD-1", "FP-UNKNOWN", decimal.NewFromInt(1))
	var missing *core.MissingBomError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingBomError, got %v", err)
	}
}

func TestLedger_ReceiveCreatesAndIncrements(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ledger := newTestLedger(pool)
	ctx := context.Background()

	// New material: row is created with the default warehouse.
	rec, err := ledger.Receive(ctx, "M7", decimal.NewFromInt(30), "")
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if !rec.CurrentStock.Equal(decimal.NewFromInt(30)) || rec.WarehouseLocation != "WH1" {
		t.Errorf("new material record = %+v", rec)
	}

	// Existing material: stock accumulates, location stays.
	rec, err = ledger.Receive(ctx, "M7", decimal.NewFromInt(12), "WH2")
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if !rec.CurrentStock.Equal(decimal.NewFromInt(42)) {
		t.Errorf("stock after second receipt = %s, want 42", rec.CurrentStock)
	}
	if rec.WarehouseLocation != "WH1" {
		t.Errorf("existing row location changed to %s", rec.WarehouseLocation)
	}
}
