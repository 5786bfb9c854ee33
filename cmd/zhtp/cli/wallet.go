package cli

import (
	"encoding/hex"

	"github.com/spf13/cobra"

	"zhtp-network/internal/zkcrypto"
)

// WalletCmd manages post-quantum identity key material.
var WalletCmd = &cobra.Command{Use: "wallet", Short: "Manage ZHTP identity keys"}

var walletNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Generate a new keypair and recovery phrase",
	RunE:  runWalletNew,
}

var walletAddressCmd = &cobra.Command{
	Use:   "address <mnemonic>",
	Short: "Derive a key's fingerprint from its recovery phrase",
	Args:  cobra.ExactArgs(1),
	RunE:  runWalletAddress,
}

func init() {
	WalletCmd.AddCommand(walletNewCmd)
	WalletCmd.AddCommand(walletAddressCmd)
}

func runWalletNew(cmd *cobra.Command, args []string) error {
	phrase, err := zkcrypto.NewMnemonic()
	if err != nil {
		return InternalError(err)
	}
	pub, priv, err := zkcrypto.KeypairFromMnemonic(phrase, "")
	if err != nil {
		return InternalError(err)
	}
	defer priv.Destroy()

	return Render(cmd.OutOrStdout(), map[string]any{
		"mnemonic":    phrase,
		"fingerprint": hex.EncodeToString(pub.Fingerprint[:]),
	})
}

func runWalletAddress(cmd *cobra.Command, args []string) error {
	pub, priv, err := zkcrypto.KeypairFromMnemonic(args[0], "")
	if err != nil {
		return UserError(err)
	}
	priv.Destroy()

	return Render(cmd.OutOrStdout(), map[string]any{
		"fingerprint": hex.EncodeToString(pub.Fingerprint[:]),
	})
}
