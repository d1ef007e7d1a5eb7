package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/DVSJagadeesh/Cryptographic-Solutions-for-Supply-Chain-Security/pkg/account"
	"github.com/DVSJagadeesh/Cryptographic-Solutions-for-Supply-Chain-Security/pkg/core"
	"github.com/DVSJagadeesh/Cryptographic-Solutions-for-Supply-Chain-Security/pkg/db"
)

// demoCmd represents the demo command
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Walk through mining, transfers, tamper detection and snapshots",
	Long: `Demo runs a scripted session against an in-process node: it mines blocks,
moves value between two freshly generated accounts, shows how tampered and
underfunded transactions are rejected, audits the chain and round-trips it
through a snapshot.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDemo(cmd.Context())
	},
}

func init() {
	RootCmd.AddCommand(demoCmd)
}

func runDemo(ctx context.Context) error {
	pterm.DefaultHeader.WithFullWidth().Println("scledger walkthrough")

	pterm.DefaultSection.Println("Participants")
	supplier, err := account.NewAccount()
	if err != nil {
		return fmt.Errorf("generate account: %w", err)
	}
	distributor, err := account.NewAccount()
	if err != nil {
		return fmt.Errorf("generate account: %w", err)
	}
	pterm.Info.Printfln("supplier (mines blocks): %s", pterm.LightCyan(supplier.Address.Display()))
	pterm.Info.Printfln("distributor:             %s", pterm.LightCyan(distributor.Address.Display()))

	pterm.DefaultSection.Println("Genesis")
	node, err := core.NewNode(supplier.Address, nodeOptions()...)
	if err != nil {
		return fmt.Errorf("start node: %w", err)
	}
	genesis := node.Chain()[0]
	pterm.Info.Printfln("genesis block mined: nonce=%d hash=%s", genesis.Nonce, tailHash(genesis.Hash))
	pterm.Info.Printfln("a reward of %s for the supplier is now pending", fmtValue(node.Reward()))

	pterm.DefaultSection.Println("Funding the miner")
	if _, err := mineOne(ctx, node); err != nil {
		return err
	}
	pterm.Info.Printfln("supplier balance: %s", fmtValue(node.Balance(supplier.Address)))

	pterm.DefaultSection.Println("A signed transfer")
	transfer := core.NewTransaction(supplier.Address, distributor.Address, 0.35)
	if err := transfer.Sign(supplier.PrivateKey); err != nil {
		return fmt.Errorf("sign transfer: %w", err)
	}
	if err := node.SubmitTransaction(transfer); err != nil {
		return fmt.Errorf("submit transfer: %w", err)
	}
	pterm.Info.Printfln("transfer of %s accepted into the pool", fmtValue(transfer.Value))
	if _, err := mineOne(ctx, node); err != nil {
		return err
	}

	pterm.DefaultSection.Println("Tampering is caught")
	tampered := core.NewTransaction(supplier.Address, distributor.Address, 0.35)
	if err := tampered.Sign(supplier.PrivateKey); err != nil {
		return fmt.Errorf("sign transfer: %w", err)
	}
	tampered.Value = 3.5 // signature no longer covers the payload
	showRejection(node.SubmitTransaction(tampered))

	pterm.DefaultSection.Println("Overdrafts are refused")
	overdraft := core.NewTransaction(distributor.Address, supplier.Address, 5)
	if err := overdraft.Sign(distributor.PrivateKey); err != nil {
		return fmt.Errorf("sign transfer: %w", err)
	}
	showRejection(node.SubmitTransaction(overdraft))

	pterm.DefaultSection.Println("Balances")
	balances := pterm.TableData{{"Participant", "Address", "Balance"}}
	for _, row := range []struct {
		name string
		addr account.Address
	}{
		{"supplier", supplier.Address},
		{"distributor", distributor.Address},
		{"system (issuance)", account.SystemAddress},
	} {
		balances = append(balances, []string{
			row.name,
			row.addr.Display(),
			fmtValue(node.Balance(row.addr)),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(balances).Render(); err != nil {
		return err
	}

	pterm.DefaultSection.Println("Audit")
	if ok, fault := node.ValidateChain(); !ok {
		pterm.Error.Printfln("chain invalid: %v", fault)
		return errors.New("chain failed validation")
	}
	pterm.Success.Printfln("every linkage and proof of work checks out (difficulty suffix %q)",
		viper.GetString("difficulty"))
	blocks := pterm.TableData{{"Block", "Nonce", "Txs", "Hash", "Parent"}}
	for _, b := range node.Chain() {
		blocks = append(blocks, []string{
			strconv.FormatUint(b.Index, 10),
			strconv.FormatUint(b.Nonce, 10),
			strconv.Itoa(len(b.Transactions)),
			tailHash(b.Hash),
			tailHash(b.PrevHash),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(blocks).Render(); err != nil {
		return err
	}

	pterm.DefaultSection.Println("Snapshot round trip")
	database, err := db.NewDatabase(db.Memory)
	if err != nil {
		return err
	}
	defer database.Close()
	store := core.NewChainStore(database)
	if err := store.Save(node.Chain()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	restored, err := core.NewNodeFromSnapshot(supplier.Address, store, nodeOptions()...)
	if err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	pterm.Success.Printfln("chain restored at height %d, tip %s",
		restored.Height(), tailHash(restored.LatestBlock().Hash))

	return nil
}

// mineOne runs one nonce search with a spinner on the terminal.
func mineOne(ctx context.Context, node *core.Node) (*core.Block, error) {
	spinner, _ := pterm.DefaultSpinner.Start("mining block ", node.Height())
	block, err := node.MineBlock(ctx)
	if err != nil {
		spinner.Fail(err.Error())
		return nil, err
	}
	spinner.Success(pterm.Sprintf("block %d mined: nonce=%d hash=%s txs=%d",
		block.Index, block.Nonce, tailHash(block.Hash), len(block.Transactions)))
	return block, nil
}

// showRejection prints the structured rejection carried by a *core.TxError.
func showRejection(err error) {
	var txErr *core.TxError
	if !errors.As(err, &txErr) {
		pterm.Error.Printfln("expected a rejection, got: %v", err)
		return
	}
	pterm.Warning.Printfln("rejected (%s): %s -> %s value=%s",
		txErr.Reason,
		txErr.Tx.Sender.Display(),
		txErr.Tx.Recipient.Display(),
		fmtValue(txErr.Tx.Value))
}

// tailHash keeps the end of a hash visible, where the difficulty suffix
// lives.
func tailHash(h string) string {
	if len(h) <= 12 {
		return h
	}
	return ".." + h[len(h)-12:]
}

func fmtValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
