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

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var financialsCmd = &cobra.Command{
	Use:   "financials",
	Short: "Sync financial disclosure summaries",
	Long: `Download financial disclosure summaries from J-Quants and insert
them into the financial_summaries table. Use --code with --from/--to for
one security over a date range, or --date for every issuer on a single day.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, client := newSyncService()
		defer client.Close()
		ctx := context.Background()

		if date := viper.GetString("financials.date"); date != "" {
			day, err := parseDay(date, "date")
			if err != nil {
				return err
			}
			return svc.SyncFinancialSummaryOnDate(ctx, day)
		}

		code := viper.GetString("financials.code")
		if code == "" {
			return errors.New("either --code or --date is required")
		}
		from, err := parseDay(viper.GetString("financials.from"), "from")
		if err != nil {
			return err
		}
		to, err := parseDay(viper.GetString("financials.to"), "to")
		if err != nil {
			return err
		}
		return svc.SyncFinancialSummary(ctx, code, from, to)
	},
}

func init() {
	rootCmd.AddCommand(financialsCmd)

	financialsCmd.Flags().StringP("code", "c", "", "security code to sync")
	viper.BindPFlag("financials.code", financialsCmd.Flags().Lookup("code"))

	financialsCmd.Flags().String("from", "", "start of the date range (inclusive)")
	viper.BindPFlag("financials.from", financialsCmd.Flags().Lookup("from"))

	financialsCmd.Flags().String("to", "", "end of the date range (inclusive)")
	viper.BindPFlag("financials.to", financialsCmd.Flags().Lookup("to"))

	financialsCmd.Flags().String("date", "", "sync every issuer for a single date")
	viper.BindPFlag("financials.date", financialsCmd.Flags().Lookup("date"))
}
