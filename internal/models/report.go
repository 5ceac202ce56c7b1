package models

// ProfitReport 利润报表
type ProfitReport struct {
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	Revenue   float64 `json:"revenue"`   // 营收（人民币）
	Expenses  float64 `json:"expenses"`  // 支出（人民币）
	OrderCost float64 `json:"order_cost"` // 已确认订单成本
	Profit    float64 `json:"profit"`
	Margin    float64 `json:"margin"` // 利润率百分比
}

// OrderProfit 单订单利润
type OrderProfit struct {
	OrderNumber  string  `json:"order_number"`
	Revenue      float64 `json:"revenue"`
	ProductCost  float64 `json:"product_cost"`
	Cost         float64 `json:"cost"`
	CostRecorded bool    `json:"cost_recorded"` // 是否已录入成本，区分零成本与未录入
	Expense      float64 `json:"expense"`
	Profit       float64 `json:"profit"`
	Margin       float64 `json:"margin"`
}

// PeriodPoint 按日或按月的利润时间序列点
type PeriodPoint struct {
	Period    string  `json:"period"` // 2006-01-02 或 2006-01
	Revenue   float64 `json:"revenue"`
	Expenses  float64 `json:"expenses"`
	OrderCost float64 `json:"order_cost"`
	Profit    float64 `json:"profit"`
}

// OrderCostSummary 订单成本区间汇总
type OrderCostSummary struct {
	TotalShipping float64 `json:"total_shipping"`
	TotalFangguo  float64 `json:"total_fangguo"`
	TotalOther    float64 `json:"total_other"`
	Total         float64 `json:"total"`
	Count         int64   `json:"count"`
}

// AccountSummary 账户汇总
type AccountSummary struct {
	AccountID       int64   `json:"account_id"`
	Platform        string  `json:"platform"`
	AccountName     string  `json:"account_name"`
	Balance         float64 `json:"balance"`
	TotalRecharge   float64 `json:"total_recharge"`
	TotalConsumed   float64 `json:"total_consumed"`
	RechargeCount   int64   `json:"recharge_count"`
	ConsumptionCount int64  `json:"consumption_count"`
}

// CategorySummary 分类汇总项
type CategorySummary struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Count    int64   `json:"count"`
}
