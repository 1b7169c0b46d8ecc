package http

import (
	"net/http"
	"time"

	"github.com/spams12/gege/internal/domain"
	"github.com/spams12/gege/internal/usecase"
	"github.com/spams12/gege/pkg/logger"
)

type AuctionHandler struct {
	bidUsecase usecase.BidUC
	logger     logger.Logger
	now        func() time.Time
}

func NewAuctionHandler(bidUsecase usecase.BidUC, logger logger.Logger) *AuctionHandler {
	return &AuctionHandler{bidUsecase: bidUsecase, logger: logger, now: time.Now}
}

// listAuctions
//
//	@Summary	Список аукционов
//	@Tags		auctions
//	@Produce	json
//	@Param		status	query		string	false	"active | upcoming | ended"
//	@Param		page	query		int		false	"Страница"
//	@Param		limit	query		int		false	"Размер страницы"
//	@Success	200		{object}	productListResponse
//	@Failure	400		{object}	ErrorResponse	"Некорректный статус"
//	@Router		/auctions [get]
func (a *AuctionHandler) listAuctions(w http.ResponseWriter, r *http.Request) {
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

	status := domain.AuctionStatus(r.URL.Query().Get("status"))
	res, err := a.bidUsecase.ListAuctions(r.Context(), usecase.NewListAuctionsReq(status, page, limit))
	if err != nil {
		logResult(a.logger, r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newProductListResponse(res, a.now()))
}

// listBids
//
//	@Summary	История ставок
//	@Tags		auctions
//	@Produce	json
//	@Param		id		path	int	true	"id товара"
//	@Param		limit	query	int	false	"Количество ставок"
//	@Success	200		{array}		bidResponse
//	@Failure	404		{object}	ErrorResponse	"Товар не найден"
//	@Router		/auctions/{id}/bids [get]
func (a *AuctionHandler) listBids(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	limit, err := parseIntQuery(r, "limit")
	if err != nil {
		WriteError(w, err)
		return
	}

	bids, err := a.bidUsecase.ListBids(r.Context(), usecase.NewListBidsReq(id, limit))
	if err != nil {
		logResult(a.logger, r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newBidsResponse(bids))
}

// placeBid
//
//	@Summary		Ставка на аукционный товар
//	@Description	Принимает ставку, если аукцион активен и сумма не ниже минимально допустимой
//	@Tags			auctions
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int				true	"id товара"
//	@Param			body	body		placeBidRequest	true	"Сумма ставки"
//	@Success		201		{object}	placeBidResponse
//	@Failure		400		{object}	ErrorResponse	"Аукцион неактивен или ставка слишком мала"
//	@Failure		401		{object}	ErrorResponse	"Требуется аутентификация"
//	@Failure		404		{object}	ErrorResponse	"Товар не найден"
//	@Failure		409		{object}	ErrorResponse	"Конкурентное обновление"
//	@Router			/auctions/{id}/bids [post]
func (a *AuctionHandler) placeBid(w http.ResponseWriter, r *http.Request) {
	bidder, err := mustIdentity(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	id, err := parseIDParam(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	var body placeBidRequest
	if err := decodeJSON(w, r, &body); err != nil {
		a.logger.Warnf("%d %s: %s", http.StatusBadRequest, r.URL.Path, err.Error())
		WriteError(w, err)
		return
	}

	res, err := a.bidUsecase.PlaceBid(r.Context(), usecase.NewPlaceBidReq(id, bidder, body.Amount))
	if err != nil {
		logResult(a.logger, r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, placeBidResponse{
		Message: "Bid placed successfully",
		Bid:     newBidResponse(res.Bid),
		Product: newProductResponse(res.Product, a.now()),
	})
}
