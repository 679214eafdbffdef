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

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog/log"
)

// Store is the persistence contract the sync engine writes through. Each
// method opens one session, applies every row inside a single transaction
// and commits once; on any row error the whole call is rolled back and the
// error returned.
type Store interface {
	// SaveStocks upserts security master rows keyed on code. On conflict
	// the entire row is overwritten and updated_at touched: every master
	// sync restates the whole record.
	SaveStocks(ctx context.Context, stocks []*StockRecord) error

	// SaveDailyQuotes upserts daily bars keyed on (code, date). On
	// conflict only close, volume, adjustment_close and adjustment_factor
	// are refreshed; the remaining columns keep their initial values.
	SaveDailyQuotes(ctx context.Context, quotes []*QuoteRecord) error

	// InsertFinancialSummaries appends disclosure rows unconditionally.
	// The table has no natural-key constraint, so re-running an
	// overlapping range duplicates rows. Callers driving repeated
	// backfills over the same dates must account for that.
	InsertFinancialSummaries(ctx context.Context, summaries []*FinancialRecord) error
}

// DB implements Store against Postgres. Connections are scoped to a single
// call: connect, one transaction, close.
type DB struct {
	url string
}

func NewDB(url string) *DB {
	return &DB{url: url}
}

const upsertStockSQL = `INSERT INTO stocks (
	"code",
	"company_name",
	"company_name_english",
	"sector17_code",
	"sector17_name",
	"sector33_code",
	"sector33_name",
	"market_code",
	"market_name",
	"margin_code",
	"fiscal_year_end",
	"updated_at"
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now()
) ON CONFLICT (code)
DO UPDATE SET
	company_name = EXCLUDED.company_name,
	company_name_english = EXCLUDED.company_name_english,
	sector17_code = EXCLUDED.sector17_code,
	sector17_name = EXCLUDED.sector17_name,
	sector33_code = EXCLUDED.sector33_code,
	sector33_name = EXCLUDED.sector33_name,
	market_code = EXCLUDED.market_code,
	market_name = EXCLUDED.market_name,
	margin_code = EXCLUDED.margin_code,
	fiscal_year_end = EXCLUDED.fiscal_year_end,
	updated_at = now();`

func (db *DB) SaveStocks(ctx context.Context, stocks []*StockRecord) error {
	conn, err := pgx.Connect(ctx, db.url)
	if err != nil {
		log.Error().Err(err).Msg("Could not connect to database")
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(ctx)

	tx, err := conn.Begin(ctx)
	if err != nil {
		log.Error().Err(err).Msg("could not begin transaction")
		return fmt.Errorf("begin: %w", err)
	}

	for _, stock := range stocks {
		if _, err := tx.Exec(ctx, upsertStockSQL,
			stock.Code, stock.CompanyName, stock.CompanyNameEnglish,
			stock.Sector17Code, stock.Sector17Name,
			stock.Sector33Code, stock.Sector33Name,
			stock.MarketCode, stock.MarketName,
			stock.MarginCode, stock.FiscalYearEnd); err != nil {
			tx.Rollback(ctx)
			log.Error().Err(err).Str("Code", stock.Code).Msg("error saving stock to database")
			return fmt.Errorf("upsert stock %s: %w", stock.Code, err)
		}
	}

	return tx.Commit(ctx)
}

const upsertDailyQuoteSQL = `INSERT INTO daily_prices (
	"code",
	"date",
	"open",
	"high",
	"low",
	"close",
	"volume",
	"turnover_value",
	"adjustment_factor",
	"adjustment_open",
	"adjustment_high",
	"adjustment_low",
	"adjustment_close",
	"adjustment_volume"
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
) ON CONFLICT (code, date)
DO UPDATE SET
	close = EXCLUDED.close,
	volume = EXCLUDED.volume,
	adjustment_close = EXCLUDED.adjustment_close,
	adjustment_factor = EXCLUDED.adjustment_factor;`

func (db *DB) SaveDailyQuotes(ctx context.Context, quotes []*QuoteRecord) error {
	conn, err := pgx.Connect(ctx, db.url)
	if err != nil {
		log.Error().Err(err).Msg("Could not connect to database")
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(ctx)

	tx, err := conn.Begin(ctx)
	if err != nil {
		log.Error().Err(err).Msg("could not begin transaction")
		return fmt.Errorf("begin: %w", err)
	}

	for _, quote := range quotes {
		// (code, date) is the bar's identity; a row the vendor shipped
		// without either cannot be keyed and is skipped.
		if quote.Code == "" || !quote.Date.Valid {
			log.Warn().Str("Code", quote.Code).Msg("daily quote missing code or date, skipping")
			continue
		}
		if _, err := tx.Exec(ctx, upsertDailyQuoteSQL,
			quote.Code, quote.Date.Time,
			quote.Open.arg(), quote.High.arg(), quote.Low.arg(), quote.Close.arg(),
			quote.Volume.arg(), quote.TurnoverValue.arg(),
			quote.AdjustmentFactor.arg(),
			quote.AdjustmentOpen.arg(), quote.AdjustmentHigh.arg(),
			quote.AdjustmentLow.arg(), quote.AdjustmentClose.arg(),
			quote.AdjustmentVolume.arg()); err != nil {
			tx.Rollback(ctx)
			log.Error().Err(err).Str("Code", quote.Code).Time("Date", quote.Date.Time).Msg("error saving daily quote to database")
			return fmt.Errorf("upsert daily quote %s: %w", quote.Code, err)
		}
	}

	return tx.Commit(ctx)
}

const insertFinancialSummarySQL = `INSERT INTO financial_summaries (
	"code",
	"disclosed_date",
	"disclosed_time",
	"type_of_document",
	"fiscal_year",
	"fiscal_quarter",
	"net_sales",
	"operating_profit",
	"ordinary_profit",
	"profit",
	"earnings_per_share",
	"forecast_net_sales",
	"forecast_operating_profit",
	"forecast_ordinary_profit",
	"forecast_profit",
	"forecast_earnings_per_share",
	"total_assets",
	"equity",
	"equity_to_asset_ratio",
	"book_value_per_share",
	"cash_flows_from_operating",
	"cash_flows_from_investing",
	"cash_flows_from_financing",
	"result_dividend_per_share_annual",
	"forecast_dividend_per_share_annual",
	"updated_at"
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
	$17, $18, $19, $20, $21, $22, $23, $24, $25, now()
);`

func (db *DB) InsertFinancialSummaries(ctx context.Context, summaries []*FinancialRecord) error {
	conn, err := pgx.Connect(ctx, db.url)
	if err != nil {
		log.Error().Err(err).Msg("Could not connect to database")
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(ctx)

	tx, err := conn.Begin(ctx)
	if err != nil {
		log.Error().Err(err).Msg("could not begin transaction")
		return fmt.Errorf("begin: %w", err)
	}

	for _, summary := range summaries {
		var fiscalYear interface{}
		if year := summary.FiscalYear(); year != "" {
			fiscalYear = year
		}
		var fiscalQuarter interface{}
		if quarter, ok := summary.Quarter(); ok {
			fiscalQuarter = quarter
		}
		if _, err := tx.Exec(ctx, insertFinancialSummarySQL,
			summary.Code, summary.DisclosedDate.arg(), summary.DisclosedTime,
			summary.TypeOfDocument, fiscalYear, fiscalQuarter,
			summary.NetSales.arg(), summary.OperatingProfit.arg(),
			summary.OrdinaryProfit.arg(), summary.Profit.arg(),
			summary.EarningsPerShare.arg(),
			summary.ForecastNetSales.arg(), summary.ForecastOperatingProfit.arg(),
			summary.ForecastOrdinaryProfit.arg(), summary.ForecastProfit.arg(),
			summary.ForecastEarningsPerShare.arg(),
			summary.TotalAssets.arg(), summary.Equity.arg(),
			summary.EquityToAssetRatio.arg(), summary.BookValuePerShare.arg(),
			summary.CashFlowsFromOperating.arg(), summary.CashFlowsFromInvesting.arg(),
			summary.CashFlowsFromFinancing.arg(),
			summary.ResultDividendPerShareAnnual.arg(),
			summary.ForecastDividendPerShareAnnual.arg()); err != nil {
			tx.Rollback(ctx)
			log.Error().Err(err).Str("Code", summary.Code).Msg("error saving financial summary to database")
			return fmt.Errorf("insert financial summary %s: %w", summary.Code, err)
		}
	}

	return tx.Commit(ctx)
}
