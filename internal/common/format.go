// Package common provides shared utilities for Nestegg
package common

import (
	"fmt"
	"strings"
)

// currencySymbols maps ISO currency codes to their display prefixes.
var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CHF": "CHF",
	"CAD": "C$",
	"AUD": "A$",
	"NZD": "NZ$",
	"CNY": "¥",
	"HKD": "HK$",
	"SGD": "S$",
	"SEK": "kr",
	"NOK": "kr",
	"DKK": "kr",
	"INR": "₹",
	"BRL": "R$",
	"MXN": "MX$",
	"ZAR": "R",
	"KRW": "₩",
	"TWD": "NT$",
	"PLN": "zł",
	"CZK": "Kč",
}

// CurrencySymbol returns the display prefix for a currency code.
// Unknown codes return the code itself.
func CurrencySymbol(currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if sym, ok := currencySymbols[code]; ok {
		return sym
	}
	return code
}

// FormatMoney formats a float as a dollar amount with comma separators
func FormatMoney(v float64) string {
	negative := v < 0
	if negative {
		v = -v
	}
	whole := int64(v)
	cents := int64((v-float64(whole))*100 + 0.5)
	if cents >= 100 {
		whole++
		cents -= 100
	}

	s := fmt.Sprintf("%d", whole)
	if len(s) > 3 {
		var parts []string
		for len(s) > 3 {
			parts = append([]string{s[len(s)-3:]}, parts...)
			s = s[:len(s)-3]
		}
		parts = append([]string{s}, parts...)
		s = strings.Join(parts, ",")
	}

	if negative {
		return fmt.Sprintf("-$%s.%02d", s, cents)
	}
	return fmt.Sprintf("$%s.%02d", s, cents)
}

// FormatSignedMoney formats a dollar amount with +/- prefix
func FormatSignedMoney(v float64) string {
	if v >= 0 {
		return "+" + FormatMoney(v)
	}
	return FormatMoney(v)
}

// FormatSignedPct formats a percentage with +/- prefix
func FormatSignedPct(v float64) string {
	if v >= 0 {
		return fmt.Sprintf("+%.2f%%", v)
	}
	return fmt.Sprintf("%.2f%%", v)
}

// FormatMoneyWithCurrency formats a float as a currency amount with the appropriate symbol.
// USD -> "$1,234.56", EUR -> "€1,234.56", unknown codes keep the code prefix.
func FormatMoneyWithCurrency(v float64, currency string) string {
	sym := CurrencySymbol(currency)
	negative := v < 0
	if negative {
		v = -v
	}
	whole := int64(v)
	cents := int64((v-float64(whole))*100 + 0.5)
	if cents >= 100 {
		whole++
		cents -= 100
	}

	s := fmt.Sprintf("%d", whole)
	if len(s) > 3 {
		var parts []string
		for len(s) > 3 {
			parts = append([]string{s[len(s)-3:]}, parts...)
			s = s[:len(s)-3]
		}
		parts = append([]string{s}, parts...)
		s = strings.Join(parts, ",")
	}

	if negative {
		return fmt.Sprintf("-%s%s.%02d", sym, s, cents)
	}
	return fmt.Sprintf("%s%s.%02d", sym, s, cents)
}

// FormatSignedMoneyWithCurrency formats a currency amount with +/- prefix.
func FormatSignedMoneyWithCurrency(v float64, currency string) string {
	if v >= 0 {
		return "+" + FormatMoneyWithCurrency(v, currency)
	}
	return FormatMoneyWithCurrency(v, currency)
}

// FormatMarketCap formats market cap with appropriate suffix (M/B/T)
func FormatMarketCap(v float64) string {
	if v >= 1e12 {
		return fmt.Sprintf("$%.2fT", v/1e12)
	}
	if v >= 1e9 {
		return fmt.Sprintf("$%.2fB", v/1e9)
	}
	return fmt.Sprintf("$%.2fM", v/1e6)
}
