package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spams12/gege/internal/usecase"
	"github.com/spams12/gege/pkg/logger"
)

type ProductHandler struct {
	productUsecase usecase.ProductUC
	logger         logger.Logger
	now            func() time.Time
}

func NewProductHandler(productUsecase usecase.ProductUC, logger logger.Logger) *ProductHandler {
	return &ProductHandler{productUsecase: productUsecase, logger: logger, now: time.Now}
}

// listProducts
//
//	@Summary		Каталог товаров
//	@Description	Возвращает активные товары с фильтрами, сортировкой и пагинацией
//	@Tags			products
//	@Produce		json
//	@Param			category	query		string	false	"id категорий через запятую"
//	@Param			brand		query		string	false	"Бренды через запятую"
//	@Param			minPrice	query		number	false	"Минимальная цена"
//	@Param			maxPrice	query		number	false	"Максимальная цена"
//	@Param			inStock		query		bool	false	"Только в наличии"
//	@Param			search		query		string	false	"Поиск по названию"
//	@Param			sort		query		string	false	"featured | price-asc | price-desc | newest"
//	@Param			page		query		int		false	"Страница"
//	@Param			limit		query		int		false	"Размер страницы"
//	@Success		200			{object}	productListResponse
//	@Failure		400			{object}	ErrorResponse	"Некорректные параметры"
//	@Router			/products [get]
func (p *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	req, err := parseListProductsQuery(r)
	if err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, r.URL.Path, err.Error())
		WriteError(w, err)
		return
	}

	res, err := p.productUsecase.ListProducts(r.Context(), req)
	if err != nil {
		logResult(p.logger, r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newProductListResponse(res, p.now()))
}

// getProduct
//
//	@Summary	Карточка товара
//	@Tags		products
//	@Produce	json
//	@Param		id	path		int	true	"id товара"
//	@Success	200	{object}	productResponse
//	@Failure	404	{object}	ErrorResponse	"Товар не найден"
//	@Router		/products/{id} [get]
func (p *ProductHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	product, err := p.productUsecase.GetProduct(r.Context(), id)
	if err != nil {
		logResult(p.logger, r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newProductResponse(product, p.now()))
}

// getProductBySlug
//
//	@Summary	Карточка товара по адресу страницы
//	@Tags		products
//	@Produce	json
//	@Param		slug	path		string	true	"slug товара"
//	@Success	200		{object}	productResponse
//	@Failure	404		{object}	ErrorResponse	"Товар не найден"
//	@Router		/products/slug/{slug} [get]
func (p *ProductHandler) getProductBySlug(w http.ResponseWriter, r *http.Request) {
	product, err := p.productUsecase.GetProductBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		logResult(p.logger, r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newProductResponse(product, p.now()))
}

// listCategories
//
//	@Summary	Категории каталога
//	@Tags		products
//	@Produce	json
//	@Success	200	{array}	categoryResponse
//	@Router		/categories [get]
func (p *ProductHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := p.productUsecase.ListCategories(r.Context())
	if err != nil {
		logResult(p.logger, r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newCategoriesResponse(categories))
}

// listBrands
//
//	@Summary	Бренды каталога
//	@Tags		products
//	@Produce	json
//	@Success	200	{array}	brandResponse
//	@Router		/brands [get]
func (p *ProductHandler) listBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := p.productUsecase.ListBrands(r.Context())
	if err != nil {
		logResult(p.logger, r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newBrandsResponse(brands))
}

func parseListProductsQuery(r *http.Request) (*usecase.ListProductsReq, error) {
	categories, err := parseInt64ListQuery(r, "category")
	if err != nil {
		return nil, err
	}

	minPrice, err := parseDecimalQuery(r, "minPrice")
	if err != nil {
		return nil, err
	}

	maxPrice, err := parseDecimalQuery(r, "maxPrice")
	if err != nil {
		return nil, err
	}

	inStock, err := parseBoolQuery(r, "inStock")
	if err != nil {
		return nil, err
	}

	page, err := parseIntQuery(r, "page")
	if err != nil {
		return nil, err
	}

	limit, err := parseIntQuery(r, "limit")
	if err != nil {
		return nil, err
	}

	return &usecase.ListProductsReq{
		CategoryIDs: categories,
		Brands:      splitQuery(r, "brand"),
		PriceMin:    minPrice,
		PriceMax:    maxPrice,
		InStock:     inStock,
		Search:      r.URL.Query().Get("search"),
		Sort:        usecase.ProductSort(r.URL.Query().Get("sort")),
		Page:        page,
		Limit:       limit,
	}, nil
}
