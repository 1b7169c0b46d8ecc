package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/spams12/gege/pkg/e"
	"github.com/spams12/gege/pkg/logger"
)

const maxRequestBody = 1 << 20

// ErrorResponse: тело ответа с ошибкой. Поля с деталями заполняются только для соответствующих ошибок.
type ErrorResponse struct {
	Code           int              `json:"code"`
	Message        string           `json:"message"`
	ErrorCode      string           `json:"errorCode"`
	ProductID      *int64           `json:"productId,omitempty"`
	CorrectPrice   *decimal.Decimal `json:"correctPrice,omitempty"`
	AvailableStock *int             `json:"availableStock,omitempty"`
	MinimumBid     *decimal.Decimal `json:"minimumBid,omitempty"`
	ServerTotal    *decimal.Decimal `json:"serverTotal,omitempty"`
}

func NewErrorResponse(code int, errorCode string, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:      code,
		Message:   message,
		ErrorCode: errorCode,
	}
}

type errorKind struct {
	sentinel  error
	status    int
	errorCode string
}

// errorKinds проверяются по порядку, первая совпавшая запись определяет ответ.
// ErrOrderCommitFailed стоит первым: причина сбоя фиксации заворачивается внутрь и не должна менять ответ.
var errorKinds = []errorKind{
	{e.ErrOrderCommitFailed, http.StatusInternalServerError, "ORDER_COMMIT_FAILED"},

	{e.ErrAuthenticationRequired, http.StatusUnauthorized, "AUTHENTICATION_REQUIRED"},
	{e.ErrAuthenticationInvalid, http.StatusUnauthorized, "AUTHENTICATION_INVALID"},

	{e.ErrProductNotFound, http.StatusNotFound, "PRODUCT_NOT_FOUND"},
	{e.ErrOrderNotFound, http.StatusNotFound, "ORDER_NOT_FOUND"},
	{e.ErrCustomerNotFound, http.StatusNotFound, "CUSTOMER_NOT_FOUND"},

	{e.ErrAuctionNotActive, http.StatusBadRequest, "AUCTION_NOT_ACTIVE"},
	{e.ErrBidTooLow, http.StatusBadRequest, "BID_TOO_LOW"},
	{e.ErrInvalidBidAmount, http.StatusBadRequest, "INVALID_BID_AMOUNT"},

	{e.ErrEmptyCart, http.StatusBadRequest, "EMPTY_CART"},
	{e.ErrInvalidLineItem, http.StatusBadRequest, "INVALID_LINE_ITEM"},
	{e.ErrPriceMismatch, http.StatusBadRequest, "PRICE_MISMATCH"},
	{e.ErrInsufficientStock, http.StatusBadRequest, "INSUFFICIENT_STOCK"},
	{e.ErrInvalidShippingCost, http.StatusBadRequest, "INVALID_SHIPPING_COST"},
	{e.ErrInvalidClientTotal, http.StatusBadRequest, "INVALID_CLIENT_TOTAL"},
	{e.ErrMissingShippingDetails, http.StatusBadRequest, "MISSING_SHIPPING_DETAILS"},
	{e.ErrTotalMismatch, http.StatusBadRequest, "TOTAL_MISMATCH"},

	{e.ErrInvalidEmail, http.StatusBadRequest, "INVALID_EMAIL"},
	{e.ErrInvalidAccountDetails, http.StatusBadRequest, "INVALID_ACCOUNT_DETAILS"},

	{e.ErrStatusBadRequest, http.StatusBadRequest, "BAD_REQUEST"},
	{e.ErrInvalidID, http.StatusBadRequest, "INVALID_ID"},
	{e.ErrInvalidQuery, http.StatusBadRequest, "INVALID_QUERY"},

	{e.ErrTxConflict, http.StatusConflict, "CONCURRENT_UPDATE"},
}

// ToHTTPResponse переводит ошибку ядра в HTTP-статус и структурированное тело.
func ToHTTPResponse(err error) *ErrorResponse {
	var notFound *e.ProductNotFoundError
	if errors.As(err, &notFound) && !errors.Is(err, e.ErrOrderCommitFailed) {
		resp := NewErrorResponse(http.StatusNotFound, "PRODUCT_NOT_FOUND", err.Error())
		resp.ProductID = &notFound.ProductID
		return resp
	}

	for _, k := range errorKinds {
		if !errors.Is(err, k.sentinel) {
			continue
		}

		resp := NewErrorResponse(k.status, k.errorCode, k.sentinel.Error())
		if k.status < http.StatusInternalServerError {
			resp.Message = err.Error()
			fillDetails(resp, err)
		}

		return resp
	}

	return NewErrorResponse(http.StatusInternalServerError, "INTERNAL", e.ErrInternalServerError.Error())
}

func fillDetails(resp *ErrorResponse, err error) {
	var (
		priceErr *e.PriceMismatchError
		stockErr *e.InsufficientStockError
		bidErr   *e.BidTooLowError
		totalErr *e.TotalMismatchError
	)

	switch {
	case errors.As(err, &priceErr):
		resp.ProductID = &priceErr.ProductID
		resp.CorrectPrice = &priceErr.CorrectPrice
	case errors.As(err, &stockErr):
		resp.ProductID = &stockErr.ProductID
		resp.AvailableStock = &stockErr.Available
	case errors.As(err, &bidErr):
		resp.MinimumBid = &bidErr.Minimum
	case errors.As(err, &totalErr):
		resp.ServerTotal = &totalErr.ServerTotal
	}
}

// logResult пишет 5xx как ошибку, остальные отказы как предупреждение.
func logResult(log logger.Logger, r *http.Request, err error) {
	status := ToHTTPResponse(err).Code
	if status >= http.StatusInternalServerError {
		log.Errorf(err, "%d %s %s", status, r.Method, r.URL.Path)
		return
	}

	log.Warnf("%d %s %s: %s", status, r.Method, r.URL.Path, err.Error())
}

func WriteError(w http.ResponseWriter, err error) {
	resp := ToHTTPResponse(err)
	WriteSuccess(w, resp.Code, resp)
}

func WriteSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON читает тело запроса. Неизвестные поля допускаются, лишние данные после объекта нет.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", e.ErrStatusBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON body", e.ErrStatusBadRequest)
	}

	return nil
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s", e.ErrInvalidID, chi.URLParam(r, name))
	}

	return id, nil
}

// parseIntQuery возвращает 0, если параметр не задан.
func parseIntQuery(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", e.ErrInvalidQuery, key, v)
	}

	return n, nil
}

func parseDecimalQuery(r *http.Request, key string) (*decimal.Decimal, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}

	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s=%q", e.ErrInvalidQuery, key, v)
	}

	return &d, nil
}

func parseBoolQuery(r *http.Request, key string) (bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return false, nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q", e.ErrInvalidQuery, key, v)
	}

	return b, nil
}

// splitQuery поддерживает и ?brand=a&brand=b, и ?brand=a,b.
func splitQuery(r *http.Request, key string) []string {
	var res []string
	for _, v := range r.URL.Query()[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				res = append(res, part)
			}
		}
	}

	return res
}

func parseInt64ListQuery(r *http.Request, key string) ([]int64, error) {
	parts := splitQuery(r, key)
	res := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: %s=%q", e.ErrInvalidQuery, key, p)
		}
		res = append(res, id)
	}

	return res, nil
}
