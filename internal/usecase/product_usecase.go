package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/spams12/gege/internal/domain"
	"github.com/spams12/gege/pkg/e"
	"github.com/spams12/gege/pkg/logger"
)

// ProductUseCase реализует чтение каталога.
type ProductUseCase struct {
	productRepo  ProductRepository
	categoryRepo CategoryRepository
	brandRepo    BrandRepository
	cacheRepo    CacheRepository
	logger       logger.Logger
}

func NewProductUC(
	productRepo ProductRepository,
	categoryRepo CategoryRepository,
	brandRepo BrandRepository,
	cacheRepo CacheRepository,
	logger logger.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		brandRepo:    brandRepo,
		cacheRepo:    cacheRepo,
		logger:       logger,
	}
}

// GetProduct возвращает активный товар, сначала пытаясь найти его в кэше.
func (p *ProductUseCase) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	const op = "ProductUseCase.GetProduct"

	if id <= 0 {
		return nil, e.Wrap(op, e.ErrInvalidID)
	}

	cached, err := p.cacheRepo.GetProduct(ctx, id)
	if err != nil {
		p.logger.Warnf("Product cache read failed, falling back to store: %v", e.Wrap(op, err))
	}
	if cached != nil {
		return visibleProduct(op, cached)
	}

	// Получение продукта из БД
	product, err := p.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Фоновое добавление продукта в кэш
	toCache := *product
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		if err := p.cacheRepo.SetProduct(bgCtx, &toCache); err != nil {
			p.logger.Warnf("Failed to cache product in background: %v", e.Wrap(op, err))
		}
	}()

	return visibleProduct(op, product)
}

// GetProductBySlug ищет активный товар по адресу страницы. Кэш ведётся только по id.
func (p *ProductUseCase) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	const op = "ProductUseCase.GetProductBySlug"

	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, e.Wrap(op, e.ErrInvalidID)
	}

	product, err := p.productRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return visibleProduct(op, product)
}

// ListProducts возвращает страницу активных товаров по фильтрам каталога.
func (p *ProductUseCase) ListProducts(ctx context.Context, req *ListProductsReq) (*ListProductsRes, error) {
	const op = "ProductUseCase.ListProducts"

	sortBy := req.Sort
	if sortBy == "" {
		sortBy = SortFeatured
	}

	if !sortBy.Valid() {
		return nil, e.Wrap(op, e.ErrInvalidQuery)
	}

	if req.PriceMin != nil && req.PriceMax != nil && req.PriceMin.GreaterThan(*req.PriceMax) {
		return nil, e.Wrap(op, e.ErrInvalidQuery)
	}

	page, limit := normalizePage(req.Page, req.Limit, defaultPageLimit)
	products, total, err := p.productRepo.List(ctx, &ProductFilter{
		CategoryIDs: req.CategoryIDs,
		Brands:      req.Brands,
		PriceMin:    req.PriceMin,
		PriceMax:    req.PriceMax,
		InStock:     req.InStock,
		Search:      strings.TrimSpace(req.Search),
		Sort:        sortBy,
		Limit:       limit,
		Offset:      (page - 1) * limit,
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return NewListProductsRes(products, total, page, limit), nil
}

// ListCategories возвращает все неархивные категории.
func (p *ProductUseCase) ListCategories(ctx context.Context) ([]domain.Category, error) {
	const op = "ProductUseCase.ListCategories"

	categories, err := p.categoryRepo.List(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return categories, nil
}

// ListBrands возвращает бренды, новые первыми.
func (p *ProductUseCase) ListBrands(ctx context.Context) ([]domain.Brand, error) {
	const op = "ProductUseCase.ListBrands"

	brands, err := p.brandRepo.List(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return brands, nil
}

// visibleProduct скрывает снятые с продажи товары.
func visibleProduct(op string, product *domain.Product) (*domain.Product, error) {
	if !product.IsActive {
		return nil, e.Wrap(op, e.ErrProductNotFound)
	}

	return product, nil
}
