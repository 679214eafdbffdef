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
	"errors"
	"testing"
	"time"
)

type quoteCall struct {
	code     string
	from, to time.Time
}

// fakeFetcher serves canned records per from-date and can fail specific
// dates to exercise backfill isolation.
type fakeFetcher struct {
	stocks    []*StockRecord
	stocksErr error

	quotes     map[string][]*QuoteRecord
	quotesErr  map[string]error
	quoteCalls []quoteCall

	summaries    map[string][]*FinancialRecord
	summariesErr map[string]error
	summaryCalls []quoteCall
}

func dayKey(day time.Time) string {
	return day.Format("2006-01-02")
}

func (f *fakeFetcher) ListedStocks(ctx context.Context) ([]*StockRecord, error) {
	return f.stocks, f.stocksErr
}

func (f *fakeFetcher) DailyQuotes(ctx context.Context, code string, from, to time.Time) ([]*QuoteRecord, error) {
	f.quoteCalls = append(f.quoteCalls, quoteCall{code: code, from: from, to: to})
	if err := f.quotesErr[dayKey(from)]; err != nil {
		return nil, err
	}
	return f.quotes[dayKey(from)], nil
}

func (f *fakeFetcher) FinancialSummaries(ctx context.Context, code string, from, to time.Time) ([]*FinancialRecord, error) {
	f.summaryCalls = append(f.summaryCalls, quoteCall{code: code, from: from, to: to})
	if err := f.summariesErr[dayKey(from)]; err != nil {
		return nil, err
	}
	return f.summaries[dayKey(from)], nil
}

// fakeStore records everything saved through it.
type fakeStore struct {
	stocks    []*StockRecord
	quotes    []*QuoteRecord
	summaries []*FinancialRecord
	err       error
}

func (s *fakeStore) SaveStocks(ctx context.Context, stocks []*StockRecord) error {
	if s.err != nil {
		return s.err
	}
	s.stocks = append(s.stocks, stocks...)
	return nil
}

func (s *fakeStore) SaveDailyQuotes(ctx context.Context, quotes []*QuoteRecord) error {
	if s.err != nil {
		return s.err
	}
	s.quotes = append(s.quotes, quotes...)
	return nil
}

func (s *fakeStore) InsertFinancialSummaries(ctx context.Context, summaries []*FinancialRecord) error {
	if s.err != nil {
		return s.err
	}
	s.summaries = append(s.summaries, summaries...)
	return nil
}

func TestSyncStocks(t *testing.T) {
	fetcher := &fakeFetcher{stocks: []*StockRecord{{Code: "1301"}, {Code: "7203"}}}
	store := &fakeStore{}
	svc := NewSyncService(fetcher, store)

	if err := svc.SyncStocks(context.Background()); err != nil {
		t.Fatalf("SyncStocks failed: %v", err)
	}
	if len(store.stocks) != 2 {
		t.Errorf("expected 2 stocks saved, got %d", len(store.stocks))
	}
}

func TestSyncStocksEmptyIsNoOp(t *testing.T) {
	fetcher := &fakeFetcher{}
	store := &fakeStore{err: errors.New("store must not be called")}
	svc := NewSyncService(fetcher, store)

	if err := svc.SyncStocks(context.Background()); err != nil {
		t.Fatalf("empty feed must not be an error, got %v", err)
	}
}

func TestSyncStocksPropagatesErrors(t *testing.T) {
	fetcher := &fakeFetcher{stocksErr: errors.New("boom")}
	svc := NewSyncService(fetcher, &fakeStore{})
	if err := svc.SyncStocks(context.Background()); err == nil {
		t.Error("expected fetch error to propagate")
	}

	fetcher = &fakeFetcher{stocks: []*StockRecord{{Code: "1301"}}}
	svc = NewSyncService(fetcher, &fakeStore{err: errors.New("constraint violation")})
	if err := svc.SyncStocks(context.Background()); err == nil {
		t.Error("expected store error to propagate")
	}
}

func TestSyncStocksLimit(t *testing.T) {
	fetcher := &fakeFetcher{stocks: []*StockRecord{{Code: "1301"}, {Code: "7203"}, {Code: "9984"}}}
	store := &fakeStore{}
	svc := NewSyncService(fetcher, store)
	svc.Limit = 2

	if err := svc.SyncStocks(context.Background()); err != nil {
		t.Fatalf("SyncStocks failed: %v", err)
	}
	if len(store.stocks) != 2 {
		t.Errorf("expected limit to truncate to 2 stocks, got %d", len(store.stocks))
	}
}

func TestSyncDailyPrices(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{quotes: map[string][]*QuoteRecord{
		dayKey(day): {{Code: "7203", Date: Day{Time: day, Valid: true}}},
	}}
	store := &fakeStore{}
	svc := NewSyncService(fetcher, store)

	quotes, err := svc.SyncDailyPrices(context.Background(), "7203", day, day.AddDate(0, 0, 5))
	if err != nil {
		t.Fatalf("SyncDailyPrices failed: %v", err)
	}
	if len(quotes) != 1 || len(store.quotes) != 1 {
		t.Errorf("expected 1 quote synced and returned, got %d returned / %d saved", len(quotes), len(store.quotes))
	}

	call := fetcher.quoteCalls[0]
	if call.code != "7203" || !call.from.Equal(day) || !call.to.Equal(day.AddDate(0, 0, 5)) {
		t.Errorf("unexpected fetch call %+v", call)
	}
}

func TestSyncDailyPricesOnDateOmitsCode(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{}
	svc := NewSyncService(fetcher, &fakeStore{})

	if _, err := svc.SyncDailyPricesOnDate(context.Background(), day); err != nil {
		t.Fatalf("SyncDailyPricesOnDate failed: %v", err)
	}
	call := fetcher.quoteCalls[0]
	if call.code != "" {
		t.Errorf("whole-market fetch must omit the code, got %q", call.code)
	}
	if !call.from.Equal(day) || !call.to.Equal(day) {
		t.Errorf("single-date fetch must use from == to == %v, got %+v", day, call)
	}
}

func TestSyncFinancialSummaryEmptyIsNoOp(t *testing.T) {
	fetcher := &fakeFetcher{}
	store := &fakeStore{err: errors.New("store must not be called")}
	svc := NewSyncService(fetcher, store)

	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	if err := svc.SyncFinancialSummary(context.Background(), "7203", day, day); err != nil {
		t.Fatalf("empty feed must not be an error, got %v", err)
	}
}

func TestBackfillSkipsWeekends(t *testing.T) {
	// Fri 2024-01-05 through Mon 2024-01-08
	from := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{}
	svc := NewSyncService(fetcher, &fakeStore{})

	if err := svc.SyncAllHistoricalData(context.Background(), from, to); err != nil {
		t.Fatalf("SyncAllHistoricalData failed: %v", err)
	}

	if len(fetcher.quoteCalls) != 2 {
		t.Fatalf("expected price fetches for 2 business days, got %d", len(fetcher.quoteCalls))
	}
	for _, call := range fetcher.quoteCalls {
		if wd := call.from.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Errorf("remote call issued for weekend date %v", call.from)
		}
	}
}

func TestBackfillIsolatesFailingDays(t *testing.T) {
	// Mon 2024-01-01 through Fri 2024-01-05; Wednesday's price sync fails.
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	badDay := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	quotes := map[string][]*QuoteRecord{}
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		quotes[dayKey(day)] = []*QuoteRecord{{Code: "7203", Date: Day{Time: day, Valid: true}}}
	}
	fetcher := &fakeFetcher{
		quotes:    quotes,
		quotesErr: map[string]error{dayKey(badDay): errors.New("transport error")},
	}
	store := &fakeStore{}
	svc := NewSyncService(fetcher, store)

	if err := svc.SyncAllHistoricalData(context.Background(), from, to); err != nil {
		t.Fatalf("backfill must run to completion, got %v", err)
	}

	if len(store.quotes) != 4 {
		t.Errorf("expected quotes persisted for 4 of 5 days, got %d", len(store.quotes))
	}
	for _, q := range store.quotes {
		if q.Date.Time.Equal(badDay) {
			t.Errorf("failed day %v must not be persisted", badDay)
		}
	}

	// the failing day aborts before its financial sync
	if len(fetcher.summaryCalls) != 4 {
		t.Errorf("expected financial fetches for 4 days, got %d", len(fetcher.summaryCalls))
	}
}

func TestBackfillRunsToCompletionWhenEveryDayFails(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	quotesErr := map[string]error{}
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		quotesErr[dayKey(day)] = errors.New("transport error")
	}
	fetcher := &fakeFetcher{quotesErr: quotesErr}
	svc := NewSyncService(fetcher, &fakeStore{})

	if err := svc.SyncAllHistoricalData(context.Background(), from, to); err != nil {
		t.Errorf("backfill must report success even when every day fails, got %v", err)
	}
	if len(fetcher.quoteCalls) != 5 {
		t.Errorf("expected all 5 business days attempted, got %d", len(fetcher.quoteCalls))
	}
}

func TestBusinessDays(t *testing.T) {
	// Mon 2024-01-01 through Sun 2024-01-07
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)

	days := businessDays(from, to)
	if len(days) != 5 {
		t.Fatalf("expected 5 business days, got %d", len(days))
	}
	if !days[0].Equal(from) {
		t.Errorf("expected first day %v, got %v", from, days[0])
	}
	if !days[4].Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected last day 2024-01-05, got %v", days[4])
	}

	if got := businessDays(to, from); len(got) != 0 {
		t.Errorf("inverted range must yield no days, got %d", len(got))
	}
}
