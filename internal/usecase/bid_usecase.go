package usecase

import (
	"context"
	"strconv"
	"time"

	"github.com/spams12/gege/internal/domain"
	"github.com/spams12/gege/pkg/e"
	"github.com/spams12/gege/pkg/logger"
)

// BidUseCase принимает ставки на аукционные товары.
type BidUseCase struct {
	tx          Transactor
	productRepo ProductRepository
	bidRepo     BidRepository
	outboxRepo  OutboxRepository
	cacheRepo   CacheRepository
	logger      logger.Logger
	now         func() time.Time
}

func NewBidUC(
	tx Transactor,
	productRepo ProductRepository,
	bidRepo BidRepository,
	outboxRepo OutboxRepository,
	cacheRepo CacheRepository,
	logger logger.Logger,
) *BidUseCase {
	return &BidUseCase{
		tx:          tx,
		productRepo: productRepo,
		bidRepo:     bidRepo,
		outboxRepo:  outboxRepo,
		cacheRepo:   cacheRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// PlaceBid проверяет ставку против актуального состояния товара и сохраняет её.
// Товар блокируется на время транзакции, поэтому конкурирующие ставки проверяются
// последовательно и проигравшая получает BidTooLow уже относительно победившей.
func (b *BidUseCase) PlaceBid(ctx context.Context, req *PlaceBidReq) (*PlaceBidRes, error) {
	const op = "BidUseCase.PlaceBid"

	if !req.Amount.IsPositive() || !domain.IsStorableMoney(req.Amount) {
		return nil, e.Wrap(op, e.ErrInvalidBidAmount)
	}

	var res *PlaceBidRes
	err := b.tx.Do(ctx, func(ctx context.Context) error {
		product, err := b.productRepo.GetForUpdate(ctx, req.ProductID)
		if err != nil {
			return err
		}

		if !product.IsActive {
			return e.ErrProductNotFound
		}

		now := b.now()
		if !product.IsAuctionActiveAt(now) {
			return e.ErrAuctionNotActive
		}

		if !product.AcceptsBid(req.Amount) {
			return &e.BidTooLowError{Minimum: product.MinimumAcceptableBid()}
		}

		bid, err := b.bidRepo.Create(ctx, domain.NewBid(product.ID, req.Amount, req.Bidder, now))
		if err != nil {
			return err
		}

		if err := b.productRepo.ApplyBid(ctx, product.ID, req.Amount); err != nil {
			return err
		}
		product.ApplyBid(req.Amount)

		event, err := newOutboxEvent(EventBidPlaced, strconv.FormatInt(product.ID, 10),
			newBidPlacedPayload(product, bid), now)
		if err != nil {
			return err
		}

		if _, err := b.outboxRepo.Create(ctx, event); err != nil {
			return err
		}

		res = NewPlaceBidRes(product, bid)
		return nil
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Удаление из кэша старого состояния аукциона
	if err := b.cacheRepo.InvalidateProducts(ctx, []int64{req.ProductID}); err != nil {
		b.logger.Warnf("Failed to invalidate cached product: %v", e.Wrap(op, err))
	}

	b.logger.Infof("Bid accepted: product_id=%d, bid_id=%d, amount=%s", res.Product.ID, res.Bid.ID, res.Bid.Amount)
	return res, nil
}

// ListBids возвращает историю ставок товара, новые первыми.
func (b *BidUseCase) ListBids(ctx context.Context, req *ListBidsReq) ([]domain.Bid, error) {
	const op = "BidUseCase.ListBids"

	product, err := b.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if !product.IsActive {
		return nil, e.Wrap(op, e.ErrProductNotFound)
	}

	_, limit := normalizePage(1, req.Limit, defaultBidsLimit)
	bids, err := b.bidRepo.ListByProduct(ctx, req.ProductID, limit)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	domain.SortBidsForDisplay(bids)
	return bids, nil
}

// ListAuctions возвращает аукционные товары с окном в заданном состоянии.
func (b *BidUseCase) ListAuctions(ctx context.Context, req *ListAuctionsReq) (*ListProductsRes, error) {
	const op = "BidUseCase.ListAuctions"

	status := req.Status
	if status == "" {
		status = domain.AuctionActive
	}

	switch status {
	case domain.AuctionActive, domain.AuctionUpcoming, domain.AuctionEnded:
	default:
		return nil, e.Wrap(op, e.ErrInvalidQuery)
	}

	page, limit := normalizePage(req.Page, req.Limit, defaultPageLimit)
	products, total, err := b.productRepo.List(ctx, &ProductFilter{
		OnlyAuctions:  true,
		AuctionStatus: status,
		Now:           b.now(),
		Limit:         limit,
		Offset:        (page - 1) * limit,
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return NewListProductsRes(products, total, page, limit), nil
}
