package testsupport

import (
	"context"
	"fmt"
	"testing"
	"time"

	"coinpulse/internal/adapters/clickhouse"
	"coinpulse/internal/adapters/config"
)

// ClickHouseTestHelper manages cleanup for ClickHouse integration tests.
type ClickHouseTestHelper struct {
	client *clickhouse.Client
}

// NewClickHouseTestHelper creates a ClickHouse client for tests.
func NewClickHouseTestHelper(t *testing.T, cfg config.ClickHouseConfig) *ClickHouseTestHelper {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client, err := clickhouse.NewClient(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to connect to clickhouse: %v", err)
	}

	helper := &ClickHouseTestHelper{client: client}
	t.Cleanup(func() { _ = client.Close() })
	return helper
}

// Client returns the underlying client
func (h *ClickHouseTestHelper) Client() *clickhouse.Client {
	return h.client
}

// CreateTempTable creates a uniquely named table from a CREATE TABLE template with one %s placeholder
// and drops it on cleanup.
func (h *ClickHouseTestHelper) CreateTempTable(t *testing.T, ddlTemplate string) string {
	t.Helper()

	table := fmt.Sprintf("tmp_test_%d", time.Now().UnixNano())
	if err := h.client.Exec(context.Background(), fmt.Sprintf(ddlTemplate, table)); err != nil {
		t.Fatalf("failed to create clickhouse table: %v", err)
	}

	t.Cleanup(func() {
		_ = h.client.Exec(context.Background(), fmt.Sprintf("DROP TABLE IF EXISTS %s", table))
	})

	return table
}
