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

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Backfill whole-market history over a date range",
	Long: `Walk every weekday in the range and sync the whole market's daily
price bars and financial disclosure summaries for each day. Days that fail
are logged and skipped; the backfill always runs to the end of the range.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := parseDay(viper.GetString("backfill.from"), "from")
		if err != nil {
			return err
		}
		to, err := parseDay(viper.GetString("backfill.to"), "to")
		if err != nil {
			return err
		}

		svc, client := newSyncService()
		defer client.Close()
		return svc.SyncAllHistoricalData(context.Background(), from, to)
	},
}

func init() {
	rootCmd.AddCommand(backfillCmd)

	backfillCmd.Flags().String("from", "", "start of the backfill range (inclusive)")
	viper.BindPFlag("backfill.from", backfillCmd.Flags().Lookup("from"))

	backfillCmd.Flags().String("to", "", "end of the backfill range (inclusive)")
	viper.BindPFlag("backfill.to", backfillCmd.Flags().Lookup("to"))
}
