package clickhouse_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/stargazer/pkg/domain/types"
	"github.com/m-mizutani/stargazer/pkg/infra/clickhouse"
	"github.com/m-mizutani/stargazer/pkg/infra/sinktest"
)

func TestStore_Contract(t *testing.T) {
	dsn := os.Getenv("TEST_CLICKHOUSE_DSN")
	if dsn == "" {
		t.Skip("TEST_CLICKHOUSE_DSN not set")
	}

	table := fmt.Sprintf("stargazers_test_%d", time.Now().UnixNano())
	store, err := clickhouse.New(context.Background(), dsn,
		clickhouse.WithTable(table),
		clickhouse.WithBatchSize(2),
	)
	gt.NoError(t, err)
	t.Cleanup(func() {
		_ = store.DropTable(context.Background())
		_ = store.Close()
	})

	sinktest.Run(t, store)
}

func TestNew_InvalidTable(t *testing.T) {
	_, err := clickhouse.New(context.Background(), "clickhouse://localhost:9000/default", clickhouse.WithTable("x.y"))
	gt.True(t, goerr.HasTag(err, types.ErrTagConfig))
}
