package billing

import (
	"github.com/goliatone/go-nestsync/domain"
)

// TaxRate holds the sales tax components applied to a charge, expressed in
// hundred-thousandths of the pre-tax amount (5% GST = 5000). HST provinces
// carry a single combined rate; the rest stack GST with a provincial tax.
type TaxRate struct {
	GST int
	PST int
	HST int
}

// Total returns the combined rate in hundred-thousandths.
func (r TaxRate) Total() int {
	if r.HST > 0 {
		return r.HST
	}
	return r.GST + r.PST
}

// provinceTaxRates covers every province and territory. Quebec's QST is
// 9.975%, which is why rates are hundred-thousandths rather than basis
// points. Nova Scotia's HST dropped to 14% on April 1, 2025.
var provinceTaxRates = map[domain.Province]TaxRate{
	domain.ProvinceAB: {GST: 5000},
	domain.ProvinceBC: {GST: 5000, PST: 7000},
	domain.ProvinceMB: {GST: 5000, PST: 7000},
	domain.ProvinceNB: {HST: 15000},
	domain.ProvinceNL: {HST: 15000},
	domain.ProvinceNS: {HST: 14000},
	domain.ProvinceNT: {GST: 5000},
	domain.ProvinceNU: {GST: 5000},
	domain.ProvinceON: {HST: 13000},
	domain.ProvincePE: {HST: 15000},
	domain.ProvinceQC: {GST: 5000, PST: 9975},
	domain.ProvinceSK: {GST: 5000, PST: 6000},
	domain.ProvinceYT: {GST: 5000},
}

// RateFor returns the tax rate for a province. Unknown or empty provinces
// report a zero rate; the caller decides whether that is worth a warning.
func RateFor(province domain.Province) (TaxRate, bool) {
	rate, ok := provinceTaxRates[province]
	return rate, ok
}

// TaxCents computes the tax on an amount in integer cents, rounding half up.
func TaxCents(province domain.Province, amountCents int) int {
	if amountCents <= 0 {
		return 0
	}
	rate, ok := provinceTaxRates[province]
	if !ok {
		return 0
	}
	return (amountCents*rate.Total() + 50000) / 100000
}
