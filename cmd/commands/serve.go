package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/DVSJagadeesh/Cryptographic-Solutions-for-Supply-Chain-Security/pkg/account"
	"github.com/DVSJagadeesh/Cryptographic-Solutions-for-Supply-Chain-Security/pkg/core"
	"github.com/DVSJagadeesh/Cryptographic-Solutions-for-Supply-Chain-Security/pkg/db"
	"github.com/DVSJagadeesh/Cryptographic-Solutions-for-Supply-Chain-Security/pkg/keystore"
	"github.com/DVSJagadeesh/Cryptographic-Solutions-for-Supply-Chain-Security/pkg/rpc"
)

var serveMiner string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ledger node and serve its HTTP API",
	Long: `Serve opens the configured database backend, restores the chain from the
last snapshot (mining a fresh genesis block when none exists) and serves
the HTTP API until interrupted. The chain is snapshotted on shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveMiner, "miner", "", "Keystore address collecting mining rewards, ephemeral key when empty")
	RootCmd.AddCommand(serveCmd)
}

func runServe() error {
	dataDir := viper.GetString("data-dir")
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	miner, err := resolveMiner()
	if err != nil {
		return err
	}

	backend := db.DBType(viper.GetString("db"))
	database, err := db.NewDatabase(backend)
	if err != nil {
		return err
	}
	if err := database.Open(filepath.Join(dataDir, "chaindata")); err != nil {
		return fmt.Errorf("open %s database: %w", backend, err)
	}
	defer database.Close()

	store := core.NewChainStore(database)
	node, err := openNode(miner.Address, store)
	if err != nil {
		return err
	}

	srv := rpc.NewServer(viper.GetString("listen"), node, slog.Default())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Start()
	}()

	slog.Info("node running",
		"miner", miner.Address.Display(),
		"listen", viper.GetString("listen"),
		"db", string(backend),
		"height", node.Height())

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown", "error", err)
	}

	if err := store.Save(node.Chain()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	slog.Info("snapshot saved", "height", node.Height())
	return nil
}

// resolveMiner loads the reward key from the keystore, or generates a
// throwaway account when no miner was named.
func resolveMiner() (*account.Account, error) {
	if serveMiner == "" {
		acc, err := account.NewAccount()
		if err != nil {
			return nil, fmt.Errorf("generate miner key: %w", err)
		}
		slog.Warn("no --miner given, rewards go to an ephemeral account",
			"address", acc.Address.Display())
		return acc, nil
	}

	ks := keystore.NewKeyStore(keystoreDir())
	path, addr, err := resolveKey(ks, serveMiner)
	if err != nil {
		return nil, err
	}
	password, err := promptPassword(pterm.Sprintf("Passphrase for %s", addr.Display()))
	if err != nil {
		return nil, err
	}
	privateKey, err := ks.LoadKey(path, password)
	if err != nil {
		return nil, err
	}
	return account.NewAccountFromPrivateKey(privateKey)
}

// openNode restores the chain from the last snapshot, starting fresh when
// the store is empty.
func openNode(miner account.Address, store *core.ChainStore) (*core.Node, error) {
	node, err := core.NewNodeFromSnapshot(miner, store, nodeOptions()...)
	if err == nil {
		return node, nil
	}
	if !errors.Is(err, db.ErrKeyNotFound) {
		return nil, fmt.Errorf("restore snapshot: %w", err)
	}

	slog.Info("no snapshot found, mining a fresh genesis block")
	node, err = core.NewNode(miner, nodeOptions()...)
	if err != nil {
		return nil, err
	}
	return node, nil
}
