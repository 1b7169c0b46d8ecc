package http

import (
	"net/http"

	"github.com/spams12/gege/internal/usecase"
	"github.com/spams12/gege/pkg/logger"
)

type AccountHandler struct {
	accountUsecase usecase.AccountUC
	logger         logger.Logger
}

func NewAccountHandler(accountUsecase usecase.AccountUC, logger logger.Logger) *AccountHandler {
	return &AccountHandler{accountUsecase: accountUsecase, logger: logger}
}

// getAccount
//
//	@Summary		Профиль покупателя
//	@Description	Контактные данные для предзаполнения заказа и статистика заказов
//	@Tags			account
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	accountResponse
//	@Failure		401	{object}	ErrorResponse	"Требуется аутентификация"
//	@Router			/account [get]
func (a *AccountHandler) getAccount(w http.ResponseWriter, r *http.Request) {
	buyer, err := mustIdentity(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	customer, err := a.accountUsecase.GetAccount(r.Context(), buyer)
	if err != nil {
		logResult(a.logger, r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newAccountResponse(customer))
}

// updateAccount
//
//	@Summary	Обновление профиля покупателя
//	@Tags		account
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		updateAccountRequest	true	"Контактные данные"
//	@Success	200		{object}	accountResponse
//	@Failure	400		{object}	ErrorResponse	"Некорректные данные"
//	@Failure	401		{object}	ErrorResponse	"Требуется аутентификация"
//	@Router		/account [put]
func (a *AccountHandler) updateAccount(w http.ResponseWriter, r *http.Request) {
	buyer, err := mustIdentity(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var body updateAccountRequest
	if err := decodeJSON(w, r, &body); err != nil {
		a.logger.Warnf("%d %s: %s", http.StatusBadRequest, r.URL.Path, err.Error())
		WriteError(w, err)
		return
	}

	customer, err := a.accountUsecase.UpdateAccount(r.Context(), body.toUsecase(buyer))
	if err != nil {
		logResult(a.logger, r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newAccountResponse(customer))
}
