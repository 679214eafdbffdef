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
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
)

// Fetcher is the slice of Client the sync engine depends on.
type Fetcher interface {
	ListedStocks(ctx context.Context) ([]*StockRecord, error)
	DailyQuotes(ctx context.Context, code string, from, to time.Time) ([]*QuoteRecord, error)
	FinancialSummaries(ctx context.Context, code string, from, to time.Time) ([]*FinancialRecord, error)
}

// SyncService pulls feeds through a Fetcher and persists them through a
// Store. Every Sync* call is independent: one fetch, one transaction.
// Stock and daily-price syncs are idempotent; financial-summary syncs are
// not (see Store.InsertFinancialSummaries).
type SyncService struct {
	client Fetcher
	store  Store

	// Limit truncates each fetched result set to at most N rows before
	// persisting. Zero means no limit. Intended for smoke tests only.
	Limit int
}

func NewSyncService(client Fetcher, store Store) *SyncService {
	return &SyncService{client: client, store: store}
}

func (s *SyncService) truncate(n int) int {
	if s.Limit > 0 && n > s.Limit {
		return s.Limit
	}
	return n
}

// SyncStocks refreshes the security master. Every fetched row is upserted
// keyed on its code; an empty feed is a warning, not an error.
func (s *SyncService) SyncStocks(ctx context.Context) error {
	log.Info().Msg("syncing security master")
	stocks, err := s.client.ListedStocks(ctx)
	if err != nil {
		return err
	}
	if len(stocks) == 0 {
		log.Warn().Msg("security master feed returned no rows")
		return nil
	}
	stocks = stocks[:s.truncate(len(stocks))]
	if err := s.store.SaveStocks(ctx, stocks); err != nil {
		return err
	}
	log.Info().Int("NumRecords", len(stocks)).Msg("security master synced")
	return nil
}

// SyncDailyPrices syncs one security's daily bars over an inclusive date
// range and returns the rows it persisted (for callers that export them).
func (s *SyncService) SyncDailyPrices(ctx context.Context, code string, from, to time.Time) ([]*QuoteRecord, error) {
	log.Info().Str("Code", code).Time("From", from).Time("To", to).Msg("syncing daily prices")
	return s.syncQuotes(ctx, code, from, to)
}

// SyncDailyPricesOnDate syncs the whole market's daily bars for a single
// date.
func (s *SyncService) SyncDailyPricesOnDate(ctx context.Context, day time.Time) ([]*QuoteRecord, error) {
	log.Info().Time("Date", day).Msg("syncing daily prices for date")
	return s.syncQuotes(ctx, "", day, day)
}

func (s *SyncService) syncQuotes(ctx context.Context, code string, from, to time.Time) ([]*QuoteRecord, error) {
	quotes, err := s.client.DailyQuotes(ctx, code, from, to)
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		log.Warn().Str("Code", code).Msg("no daily quotes returned")
		return nil, nil
	}
	quotes = quotes[:s.truncate(len(quotes))]
	if err := s.store.SaveDailyQuotes(ctx, quotes); err != nil {
		return nil, err
	}
	log.Info().Int("NumRecords", len(quotes)).Msg("daily prices synced")
	return quotes, nil
}

// SyncFinancialSummary syncs one security's disclosure summaries over an
// inclusive date range.
func (s *SyncService) SyncFinancialSummary(ctx context.Context, code string, from, to time.Time) error {
	log.Info().Str("Code", code).Time("From", from).Time("To", to).Msg("syncing financial summaries")
	return s.syncSummaries(ctx, code, from, to)
}

// SyncFinancialSummaryOnDate syncs every issuer's disclosure summaries for
// a single date.
func (s *SyncService) SyncFinancialSummaryOnDate(ctx context.Context, day time.Time) error {
	log.Info().Time("Date", day).Msg("syncing financial summaries for date")
	return s.syncSummaries(ctx, "", day, day)
}

func (s *SyncService) syncSummaries(ctx context.Context, code string, from, to time.Time) error {
	summaries, err := s.client.FinancialSummaries(ctx, code, from, to)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		log.Warn().Str("Code", code).Msg("no financial summaries returned")
		return nil
	}
	summaries = summaries[:s.truncate(len(summaries))]
	if err := s.store.InsertFinancialSummaries(ctx, summaries); err != nil {
		return err
	}
	log.Info().Int("NumRecords", len(summaries)).Msg("financial summaries synced")
	return nil
}

// SyncAllHistoricalData walks every weekday in the inclusive range and
// syncs the whole market's prices and financial summaries for each day.
// Weekends are skipped without a remote call. A failing day is logged and
// skipped; the walk always runs to completion and the call itself only
// reports failures through the log.
func (s *SyncService) SyncAllHistoricalData(ctx context.Context, from, to time.Time) error {
	days := businessDays(from, to)
	log.Info().Time("From", from).Time("To", to).Int("BusinessDays", len(days)).Msg("starting historical backfill")

	bar := progressbar.Default(int64(len(days)))
	failed := 0
	for _, day := range days {
		bar.Add(1)
		if err := s.syncDay(ctx, day); err != nil {
			log.Error().Err(err).Str("Date", day.Format("2006-01-02")).Msg("sync failed for date, continuing with remaining days")
			failed++
		}
	}

	log.Info().Int("BusinessDays", len(days)).Int("Failed", failed).Msg("historical backfill finished")
	return nil
}

func (s *SyncService) syncDay(ctx context.Context, day time.Time) error {
	if _, err := s.SyncDailyPricesOnDate(ctx, day); err != nil {
		return err
	}
	return s.SyncFinancialSummaryOnDate(ctx, day)
}

// businessDays lists the weekdays in the inclusive range, oldest first.
func businessDays(from, to time.Time) []time.Time {
	var days []time.Time
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		days = append(days, day)
	}
	return days
}
