package business

import (
	"github.com/shopspring/decimal"

	"github.com/taibogaston/admininmo-sub000/service/utility"
)

var (
	zeroPercent    = decimal.Zero
	hundredPercent = decimal.NewFromInt(100)
)

// Split is the division of one rent payment between the parties.
type Split struct {
	AgencyCommission   decimal.Decimal
	PlatformCommission decimal.Decimal
	OwnerNet           decimal.Decimal
	AgencyNet          decimal.Decimal
}

// SplitCommission divides total between owner, agency and platform. The platform takes
// platformPct of the agency commission. Every part is rounded to cents on its own.
func SplitCommission(total, agencyPct, platformPct decimal.Decimal) Split {
	agencyCommission := utility.RoundMoney(utility.Percent(total, agencyPct))
	platformCommission := utility.RoundMoney(utility.Percent(agencyCommission, platformPct))

	return Split{
		AgencyCommission:   agencyCommission,
		PlatformCommission: platformCommission,
		OwnerNet:           utility.RoundMoney(total.Sub(agencyCommission)),
		AgencyNet:          utility.RoundMoney(agencyCommission.Sub(platformCommission)),
	}
}

// ClampPercent bounds pct to [0, 100].
func ClampPercent(pct decimal.Decimal) decimal.Decimal {
	if pct.LessThan(zeroPercent) {
		return zeroPercent
	}
	if pct.GreaterThan(hundredPercent) {
		return hundredPercent
	}
	return pct
}
