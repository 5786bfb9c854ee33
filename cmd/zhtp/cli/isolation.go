package cli

import (
	"github.com/spf13/cobra"

	"zhtp-network/internal/chain"
)

// IsolationCmd operates a node in edge/isolation mode: a lightweight
// chain view that checks header continuity without re-deriving full
// transaction semantics, delegating that to a full peer on demand.
var IsolationCmd = &cobra.Command{Use: "isolation", Short: "Run a lightweight edge chain view"}

var isolationTrackCmd = &cobra.Command{
	Use:   "track <hex-commitment>",
	Short: "Report the tracked balance for a commitment in a fresh edge view",
	Args:  cobra.ExactArgs(1),
	RunE:  runIsolationTrack,
}

var isolationTipCmd = &cobra.Command{
	Use:   "tip",
	Short: "Report the current tip of a fresh genesis-only edge view",
	RunE:  runIsolationTip,
}

func init() {
	IsolationCmd.AddCommand(isolationTrackCmd)
	IsolationCmd.AddCommand(isolationTipCmd)
}

func freshEdgeChain() (*chain.EdgeChain, error) {
	utxo, err := chain.NewUTXOSet(chain.DefaultUTXOCacheSize, nil)
	if err != nil {
		return nil, InternalError(err)
	}
	genesis := chain.Header{Height: 0}
	return chain.NewEdgeChain(genesis, utxo), nil
}

func runIsolationTrack(cmd *cobra.Command, args []string) error {
	edge, err := freshEdgeChain()
	if err != nil {
		return err
	}
	commitment, parseErr := parseCommitment(args[0])
	if parseErr != nil {
		return UserError(parseErr)
	}
	amount, ok := edge.TrackedBalance(commitment)
	return Render(cmd.OutOrStdout(), map[string]any{"tracked": ok, "amount": amount})
}

func runIsolationTip(cmd *cobra.Command, args []string) error {
	edge, err := freshEdgeChain()
	if err != nil {
		return err
	}
	tip := edge.Tip()
	return Render(cmd.OutOrStdout(), map[string]any{"height": tip.Height})
}
