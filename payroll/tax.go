package payroll

import "github.com/shopspring/decimal"

// TaxBracket applies to the part of gross above Over. Base is the exact
// cumulative tax at Over, written as a literal rather than derived.
type TaxBracket struct {
	Over decimal.Decimal
	Base decimal.Decimal
	Rate decimal.Decimal
}

// TaxSchedule is an ascending list of marginal brackets. Gross at or below
// the first bracket's Over pays no tax. Treat the slice as read-only once the
// schedule is handed to a Calculator.
type TaxSchedule struct {
	Brackets []TaxBracket
}

// DefaultTaxSchedule returns the weekly withholding schedule:
//
//	gross <= 370          0
//	370  < gross <= 900   (g - 370)  * 0.10
//	900  < gross <= 1500  53     + (g - 900)  * 0.19
//	1500 < gross <= 3000  167    + (g - 1500) * 0.325
//	3000 < gross <= 5000  654.5  + (g - 3000) * 0.37
//	gross > 5000          1394.5 + (g - 5000) * 0.45
func DefaultTaxSchedule() TaxSchedule {
	return TaxSchedule{Brackets: []TaxBracket{
		bracket("370", "0", "0.10"),
		bracket("900", "53", "0.19"),
		bracket("1500", "167", "0.325"),
		bracket("3000", "654.5", "0.37"),
		bracket("5000", "1394.5", "0.45"),
	}}
}

func bracket(over, base, rate string) TaxBracket {
	return TaxBracket{
		Over: decimal.RequireFromString(over),
		Base: decimal.RequireFromString(base),
		Rate: decimal.RequireFromString(rate),
	}
}

// Tax maps gross through the schedule. Bracket arithmetic is exact; the
// result is rounded to cents once at the end and never negative.
func (s TaxSchedule) Tax(gross decimal.Decimal) decimal.Decimal {
	tax := decimal.Zero
	for _, b := range s.Brackets {
		if !gross.GreaterThan(b.Over) {
			break
		}
		tax = b.Base.Add(gross.Sub(b.Over).Mul(b.Rate))
	}
	if tax.IsNegative() {
		return decimal.Zero
	}
	return Round2(tax)
}
