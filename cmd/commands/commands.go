package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/DVSJagadeesh/Cryptographic-Solutions-for-Supply-Chain-Security/pkg/core"
)

const version = "0.1.0"

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "scledger",
	Short: "scledger - a single-node proof-of-work ledger",
	Long: `scledger keeps a hash-linked chain of signed value transfers on a single
node. Blocks are mined against a configurable difficulty predicate and the
chain can be audited, persisted and served over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	RootCmd.PersistentFlags().String("data-dir", defaultDataDir(), "Data directory")
	RootCmd.PersistentFlags().String("db", "pebble", "Database backend (memory, leveldb, pebble)")
	RootCmd.PersistentFlags().String("listen", "127.0.0.1:8545", "HTTP listen address")
	RootCmd.PersistentFlags().String("difficulty", core.DefaultSuffix, "Required hex suffix of a mined block hash")
	RootCmd.PersistentFlags().Float64("reward", core.DefaultReward, "Mining reward per block")
	RootCmd.PersistentFlags().Int("workers", 1, "Concurrent nonce-search workers")
	RootCmd.PersistentFlags().Uint64("max-attempts", 0, "Nonce search bound per block, 0 means unbounded")

	for _, key := range []string{"data-dir", "db", "listen", "difficulty", "reward", "workers", "max-attempts"} {
		viper.BindPFlag(key, RootCmd.PersistentFlags().Lookup(key))
	}

	RootCmd.AddCommand(versionCmd)
}

// defaultDataDir returns the default data directory
func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./.scledger"
	}
	return filepath.Join(homeDir, ".scledger")
}

// initConfig installs the logger and reads in config file and ENV variables
// if set.
func initConfig() {
	slog.SetDefault(slog.New(pterm.NewSlogHandler(&pterm.DefaultLogger)))

	viper.SetDefault("data-dir", defaultDataDir())
	viper.SetDefault("db", "pebble")
	viper.SetDefault("listen", "127.0.0.1:8545")
	viper.SetDefault("difficulty", core.DefaultSuffix)
	viper.SetDefault("reward", core.DefaultReward)
	viper.SetDefault("workers", 1)
	viper.SetDefault("max-attempts", 0)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.scledger")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		slog.Debug("config file loaded", "path", viper.ConfigFileUsed())
	}
}

// nodeOptions translates the mining configuration into node options shared
// by the demo and serve commands.
func nodeOptions() []core.Option {
	return []core.Option{
		core.WithPredicate(core.NewSuffixPredicate(viper.GetString("difficulty"))),
		core.WithReward(viper.GetFloat64("reward")),
		core.WithWorkers(viper.GetInt("workers")),
		core.WithMaxAttempts(viper.GetUint64("max-attempts")),
	}
}

// keystoreDir returns the keystore path under the data directory.
func keystoreDir() string {
	return filepath.Join(viper.GetString("data-dir"), "keystore")
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("scledger v%s\n", version)
	},
}
