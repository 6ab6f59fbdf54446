package handlers

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const currencySymbol = "₹"

// formatAmount renders an amount with the grouping rules of locale and two
// fraction digits.
func formatAmount(locale string, amount decimal.Decimal) string {
	p := message.NewPrinter(localeTag(locale))
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	return sign + currencySymbol + p.Sprint(number.Decimal(
		amount.Round(2).InexactFloat64(),
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}

// formatDate renders a record date the way locale writes short dates.
func formatDate(locale string, t time.Time) string {
	tag := localeTag(locale)
	if region, conf := tag.Region(); conf == language.Exact && region.String() == "US" {
		return t.Format("01/02/2006")
	}
	if base, _ := tag.Base(); base.String() == "en" {
		if _, conf := tag.Region(); conf != language.Exact {
			return t.Format("Jan 2, 2006")
		}
	}
	return t.Format("02/01/2006")
}

func localeTag(locale string) language.Tag {
	tag, err := language.Parse(locale)
	if err != nil {
		return language.English
	}
	return tag
}
