package model

// Indicators holds the derived ratios and growth figures for one period.
// Every value is nullable: a nil or zero denominator yields nil, never an
// error or an infinity.
type Indicators struct {
	// Profitability
	GrossMargin *float64 `json:"gross_margin,omitempty"` // %
	NetMargin   *float64 `json:"net_margin,omitempty"`   // %
	ROE         *float64 `json:"roe,omitempty"`          // %
	ROA         *float64 `json:"roa,omitempty"`          // %

	// Growth, year over year
	RevenueYoY   *float64 `json:"revenue_yoy,omitempty"`    // %
	NetProfitYoY *float64 `json:"net_profit_yoy,omitempty"` // %

	// Solvency and operations
	DebtToAsset             *float64 `json:"debt_to_asset,omitempty"` // %
	CurrentRatio            *float64 `json:"current_ratio,omitempty"`
	InventoryTurnoverDays   *float64 `json:"inventory_turnover_days,omitempty"`
	ReceivablesTurnoverDays *float64 `json:"receivables_turnover_days,omitempty"`

	// Cash flow
	FCF            *float64 `json:"fcf,omitempty"`
	CFOToNetIncome *float64 `json:"cfo_to_net_income,omitempty"`
}
