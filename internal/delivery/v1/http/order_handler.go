package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/spams12/gege/internal/usecase"
	"github.com/spams12/gege/pkg/e"
	"github.com/spams12/gege/pkg/logger"
)

const (
	idempotencyHeader       = "Idempotency-Key"
	maxIdempotencyKeyLength = 128
)

type OrderHandler struct {
	orderUsecase usecase.OrderUC
	logger       logger.Logger
}

func NewOrderHandler(orderUsecase usecase.OrderUC, logger logger.Logger) *OrderHandler {
	return &OrderHandler{orderUsecase: orderUsecase, logger: logger}
}

// createOrder
//
//	@Summary		Оформление заказа
//	@Description	Проверяет корзину по данным хранилища, списывает остатки и создаёт заказ
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			Idempotency-Key	header		string				false	"Ключ идемпотентности"
//	@Param			body			body		createOrderRequest	true	"Корзина и данные доставки"
//	@Success		201				{object}	createOrderResponse
//	@Success		200				{object}	createOrderResponse	"Повтор запроса с тем же ключом"
//	@Failure		400				{object}	ErrorResponse		"Ошибка проверки корзины"
//	@Failure		401				{object}	ErrorResponse		"Требуется аутентификация"
//	@Failure		404				{object}	ErrorResponse		"Товар не найден"
//	@Failure		500				{object}	ErrorResponse		"Заказ не сохранён"
//	@Router			/orders [post]
func (o *OrderHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	buyer, err := mustIdentity(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if len(key) > maxIdempotencyKeyLength {
		WriteError(w, fmt.Errorf("%w: %s is too long", e.ErrStatusBadRequest, idempotencyHeader))
		return
	}

	var body createOrderRequest
	if err := decodeJSON(w, r, &body); err != nil {
		o.logger.Warnf("%d %s: %s", http.StatusBadRequest, r.URL.Path, err.Error())
		WriteError(w, err)
		return
	}

	res, err := o.orderUsecase.CreateOrder(r.Context(), body.toUsecase(buyer, key))
	if err != nil {
		logResult(o.logger, r, err)
		WriteError(w, err)
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}

	WriteSuccess(w, status, createOrderResponse{
		Message: "Order created successfully",
		OrderID: res.OrderID,
		Order:   newOrderResponse(res.Order),
	})
}

// listOrders
//
//	@Summary	Заказы покупателя
//	@Tags		orders
//	@Produce	json
//	@Security	BearerAuth
//	@Param		page	query		int	false	"Страница"
//	@Param		limit	query		int	false	"Размер страницы"
//	@Success	200		{object}	orderListResponse
//	@Failure	401		{object}	ErrorResponse	"Требуется аутентификация"
//	@Router		/orders [get]
func (o *OrderHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	buyer, err := mustIdentity(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	page, err := parseIntQuery(r, "page")
	if err != nil {
		WriteError(w, err)
		return
	}

	limit, err := parseIntQuery(r, "limit")
	if err != nil {
		WriteError(w, err)
		return
	}

	res, err := o.orderUsecase.ListOrders(r.Context(), usecase.NewListOrdersReq(buyer, page, limit))
	if err != nil {
		logResult(o.logger, r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newOrderListResponse(res))
}

// getOrder
//
//	@Summary	Заказ покупателя
//	@Tags		orders
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"id заказа"
//	@Success	200	{object}	orderResponse
//	@Failure	401	{object}	ErrorResponse	"Требуется аутентификация"
//	@Failure	404	{object}	ErrorResponse	"Заказ не найден"
//	@Router		/orders/{id} [get]
func (o *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	buyer, err := mustIdentity(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	order, err := o.orderUsecase.GetOrder(r.Context(), buyer, chi.URLParam(r, "id"))
	if err != nil {
		logResult(o.logger, r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newOrderResponse(order))
}
