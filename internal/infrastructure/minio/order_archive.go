package minio

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spams12/gege/internal/domain"
	"github.com/spams12/gege/internal/usecase"
	"github.com/spams12/gege/pkg/jitter"
	"github.com/spams12/gege/pkg/logger"
)

const (
	archiveContentType   = "application/json"
	archiveUploadTimeout = 30 * time.Second
	archiveBackoffBase   = 500 * time.Millisecond
	archiveBackoffMax    = 5 * time.Second
	maxParallelUploads   = 8
)

// OrderArchive выгружает аудиторские копии заказов в MinIO в фоне.
type OrderArchive struct {
	repo        usecase.ObjectRepository
	logger      logger.Logger
	shutdownCtx context.Context
	retries     int
	sem         chan struct{}
	wg          sync.WaitGroup
	now         func() time.Time
}

func NewOrderArchive(repo usecase.ObjectRepository, retries int, logger logger.Logger, shutdownCtx context.Context) *OrderArchive {
	if retries <= 0 {
		retries = 1
	}

	return &OrderArchive{
		repo:        repo,
		logger:      logger,
		shutdownCtx: shutdownCtx,
		retries:     retries,
		sem:         make(chan struct{}, maxParallelUploads),
		now:         time.Now,
	}
}

type archiveItem struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}

// archiveRecord: содержимое объекта orders/<yyyy>/<mm>/<id>.json.
type archiveRecord struct {
	OrderID         string               `json:"orderId"`
	CustomerID      string               `json:"customerId"`
	CustomerName    string               `json:"customerName"`
	CustomerEmail   string               `json:"customerEmail,omitempty"`
	CustomerPhone   string               `json:"customerPhone"`
	ShippingAddress domain.Address       `json:"shippingAddress"`
	Items           []archiveItem        `json:"items"`
	Subtotal        decimal.Decimal      `json:"subtotal"`
	Shipping        decimal.Decimal      `json:"shipping"`
	Discount        decimal.Decimal      `json:"discount"`
	Total           decimal.Decimal      `json:"total"`
	Status          domain.OrderStatus   `json:"status"`
	PaymentMethod   string               `json:"paymentMethod"`
	ShippingMethod  string               `json:"shippingMethod"`
	CreatedAt       time.Time            `json:"createdAt"`
	Verdict         usecase.TotalVerdict `json:"totalVerdict"`
	ArchivedAt      time.Time            `json:"archivedAt"`
}

func newArchiveRecord(order *domain.Order, verdict usecase.TotalVerdict, archivedAt time.Time) archiveRecord {
	items := make([]archiveItem, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, archiveItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Total:     it.Total,
		})
	}

	return archiveRecord{
		OrderID:         order.ID,
		CustomerID:      order.CustomerID,
		CustomerName:    order.CustomerName,
		CustomerEmail:   order.CustomerEmail,
		CustomerPhone:   order.CustomerPhone,
		ShippingAddress: order.ShippingAddress,
		Items:           items,
		Subtotal:        order.Subtotal,
		Shipping:        order.Shipping,
		Discount:        order.Discount,
		Total:           order.Total,
		Status:          order.Status,
		PaymentMethod:   order.PaymentMethod,
		ShippingMethod:  order.ShippingMethod,
		CreatedAt:       order.CreatedAt,
		Verdict:         verdict,
		ArchivedAt:      archivedAt,
	}
}

// ArchiveKey возвращает ключ объекта для заказа.
func ArchiveKey(order *domain.Order) string {
	created := order.CreatedAt.UTC()
	return fmt.Sprintf("orders/%04d/%02d/%s.json", created.Year(), int(created.Month()), order.ID)
}

// ArchiveOrder не блокирует вызывающего. Ошибки выгрузки только логируются.
func (a *OrderArchive) ArchiveOrder(order *domain.Order, verdict usecase.TotalVerdict) {
	data, err := json.Marshal(newArchiveRecord(order, verdict, a.now().UTC()))
	if err != nil {
		a.logger.Errorf(err, "Failed to marshal archive record for order %s", order.ID)
		return
	}

	key := ArchiveKey(order)
	a.wg.Add(1)
	go a.upload(key, data)
}

// upload выгружает объект с экспоненциальной задержкой и jitter между попытками.
func (a *OrderArchive) upload(key string, data []byte) {
	defer a.wg.Done()

	ctx, cancel := context.WithTimeout(a.shutdownCtx, archiveUploadTimeout)
	defer cancel()

	select {
	case a.sem <- struct{}{}:
		defer func() { <-a.sem }()
	case <-ctx.Done():
		a.logger.Warnf("Order archive skipped by shutdown, key=%s", key)
		return
	}

	err := jitter.Retry(ctx, a.retries, archiveBackoffBase, archiveBackoffMax, func(ctx context.Context) error {
		_, err := a.repo.Put(ctx, key, data, archiveContentType)
		return err
	})
	if err != nil {
		a.logger.Errorf(err, "Order archive upload failed, key=%s", key)
		return
	}

	a.logger.Debugf("Order archived, key=%s", key)
}

// Wait ожидает завершения фоновых выгрузок с учётом таймаута завершения приложения.
func (a *OrderArchive) Wait(shutdownTimeoutCtx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-shutdownTimeoutCtx.Done():
		return fmt.Errorf("order archive timeout during shutdown: %w", shutdownTimeoutCtx.Err())
	}
}
