// README: Common money value object used across modules.
package types

// CurrencyUnit is the ISO 4217 code for "no currency": fares are quoted in
// abstract units.
const CurrencyUnit = "XXX"

type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func Units(amount int64) Money {
	return Money{Amount: amount, Currency: CurrencyUnit}
}
