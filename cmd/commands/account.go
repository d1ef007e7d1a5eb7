package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/DVSJagadeesh/Cryptographic-Solutions-for-Supply-Chain-Security/pkg/account"
	"github.com/DVSJagadeesh/Cryptographic-Solutions-for-Supply-Chain-Security/pkg/keystore"
)

var showPrivate bool

// accountCmd represents the account command
var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage keystore accounts",
}

func init() {
	accountShowCmd.Flags().BoolVar(&showPrivate, "private", false, "Decrypt and print the private key")

	accountCmd.AddCommand(accountNewCmd)
	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountShowCmd)
	RootCmd.AddCommand(accountCmd)
}

// accountNewCmd represents the account new command
var accountNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a new encrypted account",
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := promptPassword("Passphrase for the new key")
		if err != nil {
			return err
		}
		confirm, err := promptPassword("Repeat passphrase")
		if err != nil {
			return err
		}
		if password != confirm {
			return errors.New("passphrases do not match")
		}

		acc, err := account.NewAccount()
		if err != nil {
			return fmt.Errorf("generate key: %w", err)
		}

		ks := keystore.NewKeyStore(keystoreDir())
		path, err := ks.StoreKey(acc.PrivateKey, password)
		if err != nil {
			return fmt.Errorf("store key: %w", err)
		}

		pterm.Success.Printfln("Created account %s", acc.Address.Display())
		pterm.Info.Printfln("Address: %s", acc.Address.String())
		pterm.Info.Printfln("Key file: %s", path)
		return nil
	},
}

// accountListCmd represents the account list command
var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List keystore accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ks := keystore.NewKeyStore(keystoreDir())
		paths, err := ks.ListKeys()
		if err != nil {
			return fmt.Errorf("read keystore: %w", err)
		}
		if len(paths) == 0 {
			pterm.Info.Println("No accounts found. Run 'scledger account new' to create one.")
			return nil
		}

		rows := pterm.TableData{{"Account", "Address", "Created", "File"}}
		for _, path := range paths {
			addressHex, createdAt, err := ks.Inspect(path)
			if err != nil {
				return fmt.Errorf("inspect %s: %w", path, err)
			}
			var addr account.Address
			if err := addr.UnmarshalText([]byte(addressHex)); err != nil {
				return fmt.Errorf("inspect %s: %w", path, err)
			}
			rows = append(rows, []string{
				addr.Display(),
				addressHex,
				createdAt.UTC().Format("2006-01-02 15:04:05"),
				path,
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	},
}

// accountShowCmd represents the account show command
var accountShowCmd = &cobra.Command{
	Use:   "show <address>",
	Short: "Show one account, optionally decrypting its private key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ks := keystore.NewKeyStore(keystoreDir())
		path, addr, err := resolveKey(ks, args[0])
		if err != nil {
			return err
		}

		_, createdAt, err := ks.Inspect(path)
		if err != nil {
			return fmt.Errorf("inspect %s: %w", path, err)
		}
		pterm.Info.Printfln("Account: %s", addr.Display())
		pterm.Info.Printfln("Address: %s", addr.String())
		pterm.Info.Printfln("Created: %s", createdAt.UTC().Format("2006-01-02 15:04:05"))
		pterm.Info.Printfln("Key file: %s", path)

		if !showPrivate {
			return nil
		}
		password, err := promptPassword("Passphrase")
		if err != nil {
			return err
		}
		privateKey, err := ks.LoadKey(path, password)
		if err != nil {
			return err
		}
		acc, err := account.NewAccountFromPrivateKey(privateKey)
		if err != nil {
			return err
		}
		pterm.Warning.Println("Never disclose your private key. Anyone with it controls the account.")
		fmt.Printf("Private key: %s\n", acc.ExportPrivateKeyHex())
		return nil
	},
}

// resolveKey accepts either a key file path or a hex address and returns the
// matching key file.
func resolveKey(ks *keystore.KeyStore, target string) (string, account.Address, error) {
	if _, err := os.Stat(target); err == nil {
		addressHex, _, err := ks.Inspect(target)
		if err != nil {
			return "", account.Address{}, err
		}
		var addr account.Address
		if err := addr.UnmarshalText([]byte(addressHex)); err != nil {
			return "", account.Address{}, err
		}
		return target, addr, nil
	}

	var want account.Address
	if err := want.UnmarshalText([]byte(target)); err != nil {
		return "", account.Address{}, fmt.Errorf("%q is neither a key file nor a hex address", target)
	}

	paths, err := ks.ListKeys()
	if err != nil {
		return "", account.Address{}, err
	}
	for _, path := range paths {
		addressHex, _, err := ks.Inspect(path)
		if err != nil {
			continue
		}
		var addr account.Address
		if err := addr.UnmarshalText([]byte(addressHex)); err != nil {
			continue
		}
		if addr == want {
			return path, addr, nil
		}
	}
	return "", account.Address{}, fmt.Errorf("no key for address %s in %s", target, keystoreDir())
}

func promptPassword(label string) (string, error) {
	password, err := pterm.DefaultInteractiveTextInput.WithMask("*").Show(label)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	return password, nil
}
