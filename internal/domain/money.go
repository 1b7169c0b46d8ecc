package domain

import "github.com/shopspring/decimal"

// MoneyScale: число знаков после запятой во всех денежных колонках (NUMERIC(14,2)).
const MoneyScale = 2

// maxMoney: первое значение, не помещающееся в NUMERIC(14,2).
var maxMoney = decimal.New(1, 14-MoneyScale)

// IsStorableMoney сообщает, сохранится ли сумма без округления.
func IsStorableMoney(v decimal.Decimal) bool {
	return v.Equal(v.Truncate(MoneyScale)) && v.Abs().LessThan(maxMoney)
}
