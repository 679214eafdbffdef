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
package cmd

import (
	"context"
	"errors"

	"github.com/penny-vault/import-jquants/jquants"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Sync daily price bars",
	Long: `Download daily price bars from J-Quants and upsert them into the
daily_prices table. Use --code with --from/--to for one security over a
date range, or --date for the whole market on a single day.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, client := newSyncService()
		defer client.Close()
		ctx := context.Background()

		var quotes []*jquants.QuoteRecord
		if date := viper.GetString("prices.date"); date != "" {
			day, err := parseDay(date, "date")
			if err != nil {
				return err
			}
			if quotes, err = svc.SyncDailyPricesOnDate(ctx, day); err != nil {
				return err
			}
		} else {
			code := viper.GetString("prices.code")
			if code == "" {
				return errors.New("either --code or --date is required")
			}
			from, err := parseDay(viper.GetString("prices.from"), "from")
			if err != nil {
				return err
			}
			to, err := parseDay(viper.GetString("prices.to"), "to")
			if err != nil {
				return err
			}
			if quotes, err = svc.SyncDailyPrices(ctx, code, from, to); err != nil {
				return err
			}
		}

		if fn := viper.GetString("parquet_file"); fn != "" && len(quotes) > 0 {
			return jquants.SaveToParquet(quotes, fn)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pricesCmd)

	pricesCmd.Flags().StringP("code", "c", "", "security code to sync")
	viper.BindPFlag("prices.code", pricesCmd.Flags().Lookup("code"))

	pricesCmd.Flags().String("from", "", "start of the date range (inclusive)")
	viper.BindPFlag("prices.from", pricesCmd.Flags().Lookup("from"))

	pricesCmd.Flags().String("to", "", "end of the date range (inclusive)")
	viper.BindPFlag("prices.to", pricesCmd.Flags().Lookup("to"))

	pricesCmd.Flags().String("date", "", "sync the whole market for a single date")
	viper.BindPFlag("prices.date", pricesCmd.Flags().Lookup("date"))

	pricesCmd.Flags().String("parquet-file", "", "save results to parquet")
	viper.BindPFlag("parquet_file", pricesCmd.Flags().Lookup("parquet-file"))
}
