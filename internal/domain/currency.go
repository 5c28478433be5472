package domain

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// CurrencyCode is an ISO 4217 code from the supported set.
type CurrencyCode string

// ReferenceCurrency is the currency all live rate tables are quoted against.
const ReferenceCurrency CurrencyCode = "USD"

const (
	USD CurrencyCode = "USD"
	EUR CurrencyCode = "EUR"
	THB CurrencyCode = "THB"
	GBP CurrencyCode = "GBP"
	JPY CurrencyCode = "JPY"
	CNY CurrencyCode = "CNY"
	AUD CurrencyCode = "AUD"
	CAD CurrencyCode = "CAD"
	CHF CurrencyCode = "CHF"
	SEK CurrencyCode = "SEK"
	NOK CurrencyCode = "NOK"
	DKK CurrencyCode = "DKK"
	INR CurrencyCode = "INR"
	KRW CurrencyCode = "KRW"
	SGD CurrencyCode = "SGD"
	HKD CurrencyCode = "HKD"
	MYR CurrencyCode = "MYR"
	PHP CurrencyCode = "PHP"
	IDR CurrencyCode = "IDR"
	ZAR CurrencyCode = "ZAR"
	BRL CurrencyCode = "BRL"
	MXN CurrencyCode = "MXN"
	VND CurrencyCode = "VND"
	LAK CurrencyCode = "LAK"
	KHR CurrencyCode = "KHR"
)

// Currency carries display metadata for a supported currency.
type Currency struct {
	Code     CurrencyCode `json:"code"`
	Symbol   string       `json:"symbol"`
	FullName string       `json:"fullName"`
	Flag     string       `json:"flag"`
}

// Currencies lists every supported currency in picker order.
var Currencies = []Currency{
	{USD, "$", "US Dollar", "🇺🇸"},
	{EUR, "€", "Euro", "🇪🇺"},
	{THB, "฿", "Thai Baht", "🇹🇭"},
	{GBP, "£", "British Pound", "🇬🇧"},
	{JPY, "¥", "Japanese Yen", "🇯🇵"},
	{CNY, "¥", "Chinese Yuan", "🇨🇳"},
	{AUD, "$", "Australian Dollar", "🇦🇺"},
	{CAD, "$", "Canadian Dollar", "🇨🇦"},
	{CHF, "Fr", "Swiss Franc", "🇨🇭"},
	{SEK, "kr", "Swedish Krona", "🇸🇪"},
	{NOK, "kr", "Norwegian Krone", "🇳🇴"},
	{DKK, "kr", "Danish Krone", "🇩🇰"},
	{INR, "₹", "Indian Rupee", "🇮🇳"},
	{KRW, "₩", "South Korean Won", "🇰🇷"},
	{SGD, "$", "Singapore Dollar", "🇸🇬"},
	{HKD, "$", "Hong Kong Dollar", "🇭🇰"},
	{MYR, "RM", "Malaysian Ringgit", "🇲🇾"},
	{PHP, "₱", "Philippine Peso", "🇵🇭"},
	{IDR, "Rp", "Indonesian Rupiah", "🇮🇩"},
	{ZAR, "R", "South African Rand", "🇿🇦"},
	{BRL, "R$", "Brazilian Real", "🇧🇷"},
	{MXN, "$", "Mexican Peso", "🇲🇽"},
	{VND, "₫", "Vietnamese Dong", "🇻🇳"},
	{LAK, "₭", "Lao Kip", "🇱🇦"},
	{KHR, "៛", "Cambodian Riel", "🇰🇭"},
}

var currencyByCode = lo.KeyBy(Currencies, func(c Currency) CurrencyCode { return c.Code })

// Info returns display metadata for the code. ok is false for unsupported codes.
func (c CurrencyCode) Info() (Currency, bool) {
	info, ok := currencyByCode[c]
	return info, ok
}

// Supported reports whether the code belongs to the supported set.
func (c CurrencyCode) Supported() bool {
	_, ok := currencyByCode[c]
	return ok
}

// ParseCurrency normalizes and validates a currency code.
func ParseCurrency(s string) (CurrencyCode, error) {
	code := CurrencyCode(strings.ToUpper(strings.TrimSpace(s)))
	if !code.Supported() {
		return "", fmt.Errorf("%w: unsupported currency %q", ErrInvalidInput, s)
	}
	return code, nil
}
