package cli

import (
	"crypto/rand"

	"github.com/spf13/cobra"

	"zhtp-network/internal/dht"
)

// NetworkCmd inspects and manipulates the DHT routing table, grounded
// on the teacher's peer-management subcommand family.
var NetworkCmd = &cobra.Command{Use: "network", Short: "Inspect DHT peers and routing state"}

var networkPeersCmd = &cobra.Command{
	Use:   "peers",
	Short: "List peers known to a fresh routing table seeded with this invocation's local ID",
	RunE:  runNetworkPeers,
}

var networkNearestCmd = &cobra.Command{
	Use:   "nearest <hex-target-id>",
	Short: "Find the k peers nearest a target ID in the current table",
	Args:  cobra.ExactArgs(1),
	RunE:  runNetworkNearest,
}

func init() {
	NetworkCmd.AddCommand(networkPeersCmd)
	NetworkCmd.AddCommand(networkNearestCmd)
}

func localTable() (*dht.Table, error) {
	var local dht.NodeID
	if _, err := rand.Read(local[:]); err != nil {
		return nil, InternalError(err)
	}
	return dht.NewTable(local, nil), nil
}

func runNetworkPeers(cmd *cobra.Command, args []string) error {
	table, err := localTable()
	if err != nil {
		return err
	}
	return Render(cmd.OutOrStdout(), map[string]any{"peers": table.Nearest(dht.NodeID{}, dht.BucketSize)})
}

func runNetworkNearest(cmd *cobra.Command, args []string) error {
	table, err := localTable()
	if err != nil {
		return err
	}
	target, parseErr := parseNodeID(args[0])
	if parseErr != nil {
		return UserError(parseErr)
	}
	return Render(cmd.OutOrStdout(), map[string]any{"nearest": table.Nearest(target, dht.BucketSize)})
}
