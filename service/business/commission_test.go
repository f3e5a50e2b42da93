package business

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibogaston/admininmo-sub000/service/utility"
)

func TestSplitCommission(t *testing.T) {
	tests := []struct {
		name         string
		total        string
		agencyPct    string
		platformPct  string
		wantAgency   string
		wantPlatform string
		wantOwner    string
		wantAgencyN  string
	}{
		{
			name: "reference split", total: "100000", agencyPct: "10", platformPct: "5",
			wantAgency: "10000.00", wantPlatform: "500.00", wantOwner: "90000.00", wantAgencyN: "9500.00",
		},
		{
			name: "no platform share", total: "1234.56", agencyPct: "8", platformPct: "0",
			wantAgency: "98.76", wantPlatform: "0.00", wantOwner: "1135.80", wantAgencyN: "98.76",
		},
		{
			name: "half cent rounds away from zero", total: "0.50", agencyPct: "1", platformPct: "0",
			wantAgency: "0.01", wantPlatform: "0.00", wantOwner: "0.49", wantAgencyN: "0.01",
		},
		{
			name: "zero commission", total: "500", agencyPct: "0", platformPct: "50",
			wantAgency: "0.00", wantPlatform: "0.00", wantOwner: "500.00", wantAgencyN: "0.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := SplitCommission(
				decimal.RequireFromString(tt.total),
				decimal.RequireFromString(tt.agencyPct),
				decimal.RequireFromString(tt.platformPct),
			)
			assert.Equal(t, tt.wantAgency, s.AgencyCommission.StringFixed(2))
			assert.Equal(t, tt.wantPlatform, s.PlatformCommission.StringFixed(2))
			assert.Equal(t, tt.wantOwner, s.OwnerNet.StringFixed(2))
			assert.Equal(t, tt.wantAgencyN, s.AgencyNet.StringFixed(2))
		})
	}
}

func TestSplitCommissionConservesTotal(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		total := decimal.New(rng.Int63n(100_000_000), -2)
		agencyPct := decimal.New(rng.Int63n(10_001), -2)
		platformPct := decimal.New(rng.Int63n(10_001), -2)

		s := SplitCommission(total, agencyPct, platformPct)
		sum := s.OwnerNet.Add(s.AgencyNet).Add(s.PlatformCommission)
		require.Truef(t, sum.Equal(utility.RoundMoney(total)),
			"total=%s agency=%s platform=%s sum=%s", total, agencyPct, platformPct, sum)
		require.False(t, s.OwnerNet.IsNegative())
		require.False(t, s.AgencyNet.IsNegative())
	}
}

func TestClampPercent(t *testing.T) {
	assert.True(t, ClampPercent(decimal.NewFromInt(-3)).IsZero())
	assert.True(t, ClampPercent(decimal.NewFromInt(140)).Equal(decimal.NewFromInt(100)))
	assert.True(t, ClampPercent(decimal.RequireFromString("12.5")).Equal(decimal.RequireFromString("12.5")))
}
