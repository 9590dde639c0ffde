package model

// Canonical field names. Every provider label maps into one of these; the
// names double as the persisted JSON keys and are shared by the fetchers,
// the calculator, the reconciliation engine, and the presentation layer.
const (
	// Income statement
	FieldRevenue           = "revenue"
	FieldCostOfRevenue     = "cost_of_revenue"
	FieldGrossProfit       = "gross_profit"
	FieldSellingExpenses   = "selling_expenses"
	FieldAdminExpenses     = "admin_expenses"
	FieldRDExpenses        = "rd_expenses"
	FieldFinancialExpenses = "financial_expenses"
	FieldIncomeTaxExpenses = "income_tax_expenses"
	FieldInvestmentIncome  = "investment_income"
	FieldOperatingIncome   = "operating_income"
	FieldTotalProfit       = "total_profit"
	FieldNetIncome         = "net_income"
	FieldNetIncomeParent   = "net_income_parent"
	FieldNetIncomeDeducted = "net_income_deducted"

	// Balance sheet
	FieldTotalAssets           = "total_assets"
	FieldCurrentAssets         = "current_assets"
	FieldNonCurrentAssets      = "non_current_assets"
	FieldTotalLiabilities      = "total_liabilities"
	FieldCurrentLiabilities    = "current_liabilities"
	FieldNonCurrentLiabilities = "non_current_liabilities"
	FieldTotalEquity           = "total_equity"
	FieldShareCapital          = "share_capital"
	FieldRetainedEarnings      = "retained_earnings"
	FieldCashEquivalents       = "cash_equivalents"
	FieldAccountsReceivable    = "accounts_receivable"
	FieldInventory             = "inventory"
	FieldFixedAssets           = "fixed_assets"
	FieldIntangibleAssets      = "intangible_assets"
	FieldGoodwill              = "goodwill"
	FieldShortTermDebt         = "short_term_debt"
	FieldLongTermDebt          = "long_term_debt"
	FieldAccountsPayable       = "accounts_payable"
	FieldContractLiabilities   = "contract_liabilities"

	// Cash flow statement
	FieldCFONet               = "cfo_net"
	FieldCFINet               = "cfi_net"
	FieldCFFNet               = "cff_net"
	FieldNetCashFlow          = "net_cash_flow"
	FieldCapex                = "capex"
	FieldCashPaidForDividends = "cash_paid_for_dividends"

	// Per-share
	FieldEPSBasic = "eps_basic"
	FieldBPS      = "bps"
)

// CanonicalFields lists every canonical field in statement order.
var CanonicalFields = []string{
	FieldRevenue, FieldCostOfRevenue, FieldGrossProfit,
	FieldSellingExpenses, FieldAdminExpenses, FieldRDExpenses,
	FieldFinancialExpenses, FieldIncomeTaxExpenses, FieldInvestmentIncome,
	FieldOperatingIncome, FieldTotalProfit, FieldNetIncome,
	FieldNetIncomeParent, FieldNetIncomeDeducted,
	FieldTotalAssets, FieldCurrentAssets, FieldNonCurrentAssets,
	FieldTotalLiabilities, FieldCurrentLiabilities, FieldNonCurrentLiabilities,
	FieldTotalEquity, FieldShareCapital, FieldRetainedEarnings,
	FieldCashEquivalents, FieldAccountsReceivable, FieldInventory,
	FieldFixedAssets, FieldIntangibleAssets, FieldGoodwill,
	FieldShortTermDebt, FieldLongTermDebt, FieldAccountsPayable,
	FieldContractLiabilities,
	FieldCFONet, FieldCFINet, FieldCFFNet, FieldNetCashFlow,
	FieldCapex, FieldCashPaidForDividends,
	FieldEPSBasic, FieldBPS,
}

// IsCanonicalField reports whether name is a known canonical field.
func IsCanonicalField(name string) bool {
	_, ok := fieldPtrs[name]
	return ok
}

// Fields is the canonical numeric schema of one statement period. Every
// value is nullable: a field with no matching provider label stays nil.
type Fields struct {
	Revenue           *float64 `json:"revenue,omitempty"`
	CostOfRevenue     *float64 `json:"cost_of_revenue,omitempty"`
	GrossProfit       *float64 `json:"gross_profit,omitempty"`
	SellingExpenses   *float64 `json:"selling_expenses,omitempty"`
	AdminExpenses     *float64 `json:"admin_expenses,omitempty"`
	RDExpenses        *float64 `json:"rd_expenses,omitempty"`
	FinancialExpenses *float64 `json:"financial_expenses,omitempty"`
	IncomeTaxExpenses *float64 `json:"income_tax_expenses,omitempty"`
	InvestmentIncome  *float64 `json:"investment_income,omitempty"`
	OperatingIncome   *float64 `json:"operating_income,omitempty"`
	TotalProfit       *float64 `json:"total_profit,omitempty"`
	NetIncome         *float64 `json:"net_income,omitempty"`
	NetIncomeParent   *float64 `json:"net_income_parent,omitempty"`
	NetIncomeDeducted *float64 `json:"net_income_deducted,omitempty"`

	TotalAssets           *float64 `json:"total_assets,omitempty"`
	CurrentAssets         *float64 `json:"current_assets,omitempty"`
	NonCurrentAssets      *float64 `json:"non_current_assets,omitempty"`
	TotalLiabilities      *float64 `json:"total_liabilities,omitempty"`
	CurrentLiabilities    *float64 `json:"current_liabilities,omitempty"`
	NonCurrentLiabilities *float64 `json:"non_current_liabilities,omitempty"`
	TotalEquity           *float64 `json:"total_equity,omitempty"`
	ShareCapital          *float64 `json:"share_capital,omitempty"`
	RetainedEarnings      *float64 `json:"retained_earnings,omitempty"`
	CashEquivalents       *float64 `json:"cash_equivalents,omitempty"`
	AccountsReceivable    *float64 `json:"accounts_receivable,omitempty"`
	Inventory             *float64 `json:"inventory,omitempty"`
	FixedAssets           *float64 `json:"fixed_assets,omitempty"`
	IntangibleAssets      *float64 `json:"intangible_assets,omitempty"`
	Goodwill              *float64 `json:"goodwill,omitempty"`
	ShortTermDebt         *float64 `json:"short_term_debt,omitempty"`
	LongTermDebt          *float64 `json:"long_term_debt,omitempty"`
	AccountsPayable       *float64 `json:"accounts_payable,omitempty"`
	ContractLiabilities   *float64 `json:"contract_liabilities,omitempty"`

	CFONet               *float64 `json:"cfo_net,omitempty"`
	CFINet               *float64 `json:"cfi_net,omitempty"`
	CFFNet               *float64 `json:"cff_net,omitempty"`
	NetCashFlow          *float64 `json:"net_cash_flow,omitempty"`
	Capex                *float64 `json:"capex,omitempty"`
	CashPaidForDividends *float64 `json:"cash_paid_for_dividends,omitempty"`

	EPSBasic *float64 `json:"eps_basic,omitempty"`
	BPS      *float64 `json:"bps,omitempty"`
}

// fieldPtrs resolves a canonical name to its slot in a Fields value.
var fieldPtrs = map[string]func(*Fields) **float64{
	FieldRevenue:               func(f *Fields) **float64 { return &f.Revenue },
	FieldCostOfRevenue:         func(f *Fields) **float64 { return &f.CostOfRevenue },
	FieldGrossProfit:           func(f *Fields) **float64 { return &f.GrossProfit },
	FieldSellingExpenses:       func(f *Fields) **float64 { return &f.SellingExpenses },
	FieldAdminExpenses:         func(f *Fields) **float64 { return &f.AdminExpenses },
	FieldRDExpenses:            func(f *Fields) **float64 { return &f.RDExpenses },
	FieldFinancialExpenses:     func(f *Fields) **float64 { return &f.FinancialExpenses },
	FieldIncomeTaxExpenses:     func(f *Fields) **float64 { return &f.IncomeTaxExpenses },
	FieldInvestmentIncome:      func(f *Fields) **float64 { return &f.InvestmentIncome },
	FieldOperatingIncome:       func(f *Fields) **float64 { return &f.OperatingIncome },
	FieldTotalProfit:           func(f *Fields) **float64 { return &f.TotalProfit },
	FieldNetIncome:             func(f *Fields) **float64 { return &f.NetIncome },
	FieldNetIncomeParent:       func(f *Fields) **float64 { return &f.NetIncomeParent },
	FieldNetIncomeDeducted:     func(f *Fields) **float64 { return &f.NetIncomeDeducted },
	FieldTotalAssets:           func(f *Fields) **float64 { return &f.TotalAssets },
	FieldCurrentAssets:         func(f *Fields) **float64 { return &f.CurrentAssets },
	FieldNonCurrentAssets:      func(f *Fields) **float64 { return &f.NonCurrentAssets },
	FieldTotalLiabilities:      func(f *Fields) **float64 { return &f.TotalLiabilities },
	FieldCurrentLiabilities:    func(f *Fields) **float64 { return &f.CurrentLiabilities },
	FieldNonCurrentLiabilities: func(f *Fields) **float64 { return &f.NonCurrentLiabilities },
	FieldTotalEquity:           func(f *Fields) **float64 { return &f.TotalEquity },
	FieldShareCapital:          func(f *Fields) **float64 { return &f.ShareCapital },
	FieldRetainedEarnings:      func(f *Fields) **float64 { return &f.RetainedEarnings },
	FieldCashEquivalents:       func(f *Fields) **float64 { return &f.CashEquivalents },
	FieldAccountsReceivable:    func(f *Fields) **float64 { return &f.AccountsReceivable },
	FieldInventory:             func(f *Fields) **float64 { return &f.Inventory },
	FieldFixedAssets:           func(f *Fields) **float64 { return &f.FixedAssets },
	FieldIntangibleAssets:      func(f *Fields) **float64 { return &f.IntangibleAssets },
	FieldGoodwill:              func(f *Fields) **float64 { return &f.Goodwill },
	FieldShortTermDebt:         func(f *Fields) **float64 { return &f.ShortTermDebt },
	FieldLongTermDebt:          func(f *Fields) **float64 { return &f.LongTermDebt },
	FieldAccountsPayable:       func(f *Fields) **float64 { return &f.AccountsPayable },
	FieldContractLiabilities:   func(f *Fields) **float64 { return &f.ContractLiabilities },
	FieldCFONet:                func(f *Fields) **float64 { return &f.CFONet },
	FieldCFINet:                func(f *Fields) **float64 { return &f.CFINet },
	FieldCFFNet:                func(f *Fields) **float64 { return &f.CFFNet },
	FieldNetCashFlow:           func(f *Fields) **float64 { return &f.NetCashFlow },
	FieldCapex:                 func(f *Fields) **float64 { return &f.Capex },
	FieldCashPaidForDividends:  func(f *Fields) **float64 { return &f.CashPaidForDividends },
	FieldEPSBasic:              func(f *Fields) **float64 { return &f.EPSBasic },
	FieldBPS:                   func(f *Fields) **float64 { return &f.BPS },
}

// Value returns the named canonical field, or nil when the name is unknown
// or the field is unset.
func (f *Fields) Value(name string) *float64 {
	ptr, ok := fieldPtrs[name]
	if !ok {
		return nil
	}
	return *ptr(f)
}

// Set assigns the named canonical field and reports whether the name is
// canonical. A nil value clears the field.
func (f *Fields) Set(name string, v *float64) bool {
	ptr, ok := fieldPtrs[name]
	if !ok {
		return false
	}
	*ptr(f) = v
	return true
}

// Aux is the free-form superset of originally-observed provider line items,
// keyed by the provider's own label. Values are nil when the provider
// reported a placeholder. JSON key order follows Go's deterministic sorted
// map marshaling.
type Aux map[string]*float64

// Float returns a pointer to a copy of v, for building nullable fields.
func Float(v float64) *float64 { return &v }
