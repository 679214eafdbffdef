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
	"fmt"
	"os"
	"time"

	"github.com/penny-vault/import-jquants/jquants"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "import-jquants",
	Short: "Download Japanese market data from J-Quants",
	Long:  `Download listed securities, daily price bars and financial disclosure summaries from the J-Quants API and save them to the penny-vault database`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	cobra.OnInitialize(initLog)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is import-jquants.toml)")
	rootCmd.PersistentFlags().Bool("log.json", false, "print logs as json to stderr")
	viper.BindPFlag("log.json", rootCmd.PersistentFlags().Lookup("log.json"))

	rootCmd.PersistentFlags().StringP("database-url", "d", "host=localhost port=5432", "DSN for database connection")
	viper.BindPFlag("database.url", rootCmd.PersistentFlags().Lookup("database-url"))

	rootCmd.PersistentFlags().String("api-key", "", "J-Quants API key")
	viper.BindPFlag("jquants.api_key", rootCmd.PersistentFlags().Lookup("api-key"))
	viper.BindEnv("jquants.api_key", "JQUANTS_API_KEY")

	rootCmd.PersistentFlags().String("plan", "free", "J-Quants subscription plan")
	viper.BindPFlag("jquants.plan", rootCmd.PersistentFlags().Lookup("plan"))
	viper.BindEnv("jquants.plan", "JQUANTS_PLAN")

	rootCmd.PersistentFlags().String("base-url", "", "override the J-Quants API base url")
	viper.BindPFlag("jquants.base_url", rootCmd.PersistentFlags().Lookup("base-url"))

	rootCmd.PersistentFlags().Int("jquants-rate-limit", jquants.DefaultRateLimit, "jquants rate limit (pages per second)")
	viper.BindPFlag("jquants.rate_limit", rootCmd.PersistentFlags().Lookup("jquants-rate-limit"))

	rootCmd.PersistentFlags().Uint32P("limit", "l", 0, "limit results to N")
	viper.BindPFlag("limit", rootCmd.PersistentFlags().Lookup("limit"))
}

func initLog() {
	if !viper.GetBool("log.json") {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".import-jquants" (without extension).
		viper.AddConfigPath("/etc/import-jquants/") // path to look for the config file in
		viper.AddConfigPath(fmt.Sprintf("%s/.import-jquants", home))
		viper.AddConfigPath(".")
		viper.SetConfigType("toml")
		viper.SetConfigName("import-jquants")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Debug().Str("ConfigFile", viper.ConfigFileUsed()).Msg("Loaded config file")
	} else {
		log.Error().Err(err).Msg("error reading config file")
	}
}

// newSyncService wires a sync service from the loaded configuration. The
// returned client must be closed by the caller.
func newSyncService() (*jquants.SyncService, *jquants.Client) {
	cfg := jquants.Config{
		APIKey:    viper.GetString("jquants.api_key"),
		Plan:      viper.GetString("jquants.plan"),
		BaseURL:   viper.GetString("jquants.base_url"),
		RateLimit: viper.GetInt("jquants.rate_limit"),
	}
	log.Debug().Str("Plan", cfg.Plan).Bool("FreePlan", cfg.IsFreePlan()).Msg("configured J-Quants client")

	client := jquants.NewClient(cfg)
	svc := jquants.NewSyncService(client, jquants.NewDB(viper.GetString("database.url")))
	svc.Limit = viper.GetInt("limit")
	return svc, client
}

// parseDay parses a date flag; both 2006-01-02 and 20060102 are accepted.
func parseDay(value, flag string) (time.Time, error) {
	day := jquants.ParseDay(value)
	if !day.Valid {
		return time.Time{}, fmt.Errorf("invalid --%s date: %q", flag, value)
	}
	return day.Time, nil
}
