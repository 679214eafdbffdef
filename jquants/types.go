/*
Copyright 2022

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package jquants

// Config carries the settings the client needs to talk to J-Quants V2.
// Callers build it from their own configuration source; this package never
// reads the environment or files.
type Config struct {
	// APIKey is attached to every request as the x-api-key header.
	APIKey string
	// Plan is the subscription tier ("free", "light", "standard", "premium").
	Plan string
	// BaseURL overrides DefaultBaseURL when non-empty.
	BaseURL string
	// RateLimit is the maximum number of follow-up pages requested per
	// second while draining a paginated feed. Zero means DefaultRateLimit.
	RateLimit int
}

// IsFreePlan reports whether the configured subscription is the free tier.
func (c Config) IsFreePlan() bool {
	return c.Plan == "" || c.Plan == "free"
}

// StockRecord is one row of the /equities/master feed.
type StockRecord struct {
	Code               string `json:"Code"`
	CompanyName        string `json:"CoName"`
	CompanyNameEnglish string `json:"CoNameEn"`
	Sector17Code       string `json:"S17"`
	Sector17Name       string `json:"S17Nm"`
	Sector33Code       string `json:"S33"`
	Sector33Name       string `json:"S33Nm"`
	MarketCode         string `json:"Mkt"`
	MarketName         string `json:"MktNm"`
	MarginCode         string `json:"Mrgn"`
	FiscalYearEnd      string `json:"FYE"`
}

// QuoteRecord is one row of the /equities/bars/daily feed: a single
// security's unadjusted and adjusted bar for one trading day.
type QuoteRecord struct {
	Code             string `json:"Code"`
	Date             Day    `json:"Date"`
	Open             Float  `json:"O"`
	High             Float  `json:"H"`
	Low              Float  `json:"L"`
	Close            Float  `json:"C"`
	Volume           Float  `json:"Vo"`
	TurnoverValue    Float  `json:"Va"`
	AdjustmentFactor Float  `json:"AdjFactor"`
	AdjustmentOpen   Float  `json:"AdjO"`
	AdjustmentHigh   Float  `json:"AdjH"`
	AdjustmentLow    Float  `json:"AdjL"`
	AdjustmentClose  Float  `json:"AdjC"`
	AdjustmentVolume Float  `json:"AdjVo"`
}

// FinancialRecord is one row of the /fins/summary feed: the headline
// figures of a single disclosure event. Every numeric field is optional; a
// disclosure may omit any subset.
type FinancialRecord struct {
	Code                   string `json:"Code"`
	DisclosedDate          Day    `json:"DiscDate"`
	DisclosedTime          string `json:"DiscTime"`
	TypeOfDocument         string `json:"DocType"`
	CurrentPeriodType      string `json:"CurPerType"`
	CurrentFiscalYearStart string `json:"CurFYSt"`

	NetSales         Float `json:"Sales"`
	OperatingProfit  Float `json:"OP"`
	OrdinaryProfit   Float `json:"OdP"`
	Profit           Float `json:"NP"`
	EarningsPerShare Float `json:"EPS"`

	ForecastNetSales         Float `json:"FSales"`
	ForecastOperatingProfit  Float `json:"FOP"`
	ForecastOrdinaryProfit   Float `json:"FOdP"`
	ForecastProfit           Float `json:"FNP"`
	ForecastEarningsPerShare Float `json:"FEPS"`

	TotalAssets            Float `json:"TA"`
	Equity                 Float `json:"Eq"`
	EquityToAssetRatio     Float `json:"EqAR"`
	BookValuePerShare      Float `json:"BPS"`
	CashFlowsFromOperating Float `json:"CFO"`
	CashFlowsFromInvesting Float `json:"CFI"`
	CashFlowsFromFinancing Float `json:"CFF"`

	ResultDividendPerShareAnnual   Float `json:"DivTotalAnn"`
	ForecastDividendPerShareAnnual Float `json:"FDivTotalAnn"`
}

// FiscalYear derives the fiscal year label from the period start date
// (e.g. "2024-04-01" -> "2024"). Empty when the feed omitted the field.
func (r *FinancialRecord) FiscalYear() string {
	if len(r.CurrentFiscalYearStart) < 4 {
		return ""
	}
	return r.CurrentFiscalYearStart[:4]
}

// Quarter classifies the disclosure's fiscal quarter from its period-type
// label. Full-year and out-of-pattern labels report ok=false.
func (r *FinancialRecord) Quarter() (int, bool) {
	return ClassifyQuarter(r.CurrentPeriodType)
}
