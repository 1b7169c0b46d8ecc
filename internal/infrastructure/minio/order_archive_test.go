package minio

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spams12/gege/internal/domain"
	"github.com/spams12/gege/internal/usecase"
	"github.com/spams12/gege/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	mu      sync.Mutex
	failFor int
	calls   int
	objects map[string][]byte
}

func (f *fakeObjects) Put(_ context.Context, key string, data []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.calls <= f.failFor {
		return "", errors.New("minio unavailable")
	}
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[key] = data

	return key, nil
}

func testOrder() *domain.Order {
	buyer := domain.NewIdentity("user-1", "Ali", "ali@example.com", "0770")
	address := domain.Address{Name: "Ali", Address: "Main st 1", City: "Baghdad", Phone: "0770"}
	product := &domain.Product{ID: 7, Name: "Lamp", Price: decimal.RequireFromString("12.50")}
	items := []domain.OrderItem{domain.NewOrderItem(product, 2)}
	created := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)

	return domain.NewOrder("ORD-42", buyer, address, items,
		decimal.RequireFromString("5"), decimal.RequireFromString("30"), created)
}

func TestArchiveKey(t *testing.T) {
	assert.Equal(t, "orders/2026/03/ORD-42.json", ArchiveKey(testOrder()))
}

func TestArchiveOrderUploadsRecord(t *testing.T) {
	repo := &fakeObjects{failFor: 1}
	archive := NewOrderArchive(repo, 3, logger.NewNop(), context.Background())

	order := testOrder()
	verdict := usecase.TotalVerdict{
		Policy:      usecase.TotalPolicyAudit,
		ServerTotal: order.Total,
		ClientTotal: order.ClientTotal,
		Difference:  order.ClientTotal.Sub(order.Total),
	}
	archive.ArchiveOrder(order, verdict)
	require.NoError(t, archive.Wait(context.Background()))

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Equal(t, 2, repo.calls)

	data, ok := repo.objects["orders/2026/03/ORD-42.json"]
	require.True(t, ok)

	var record map[string]any
	require.NoError(t, json.Unmarshal(data, &record))
	assert.Equal(t, "ORD-42", record["orderId"])
	assert.Equal(t, "30", record["total"])
	verdictJSON := record["totalVerdict"].(map[string]any)
	assert.Equal(t, "30", verdictJSON["clientTotal"])
	assert.Equal(t, false, verdictJSON["matched"])
}

func TestArchiveOrderGivesUpAfterRetries(t *testing.T) {
	repo := &fakeObjects{failFor: 10}
	archive := NewOrderArchive(repo, 2, logger.NewNop(), context.Background())

	archive.ArchiveOrder(testOrder(), usecase.TotalVerdict{})
	require.NoError(t, archive.Wait(context.Background()))

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Equal(t, 2, repo.calls)
	assert.Empty(t, repo.objects)
}
