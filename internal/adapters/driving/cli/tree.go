package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sefs/internal/core/domain"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Show the organised layout",
	Long: `Scan the root and print the domain, cluster and file hierarchy.
Files that are not inside a <domain>/<cluster> folder are listed under
Unsorted/Files. Nothing is moved.`,
	RunE: runTree,
}

func init() {
	treeCmd.Flags().Bool("json", false, "print the tree as JSON")
	rootCmd.AddCommand(treeCmd)
}

func runTree(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json") //nolint:errcheck // flag is registered above

	ctx := cmd.Context()
	session, err := open(ctx, false)
	if err != nil {
		return err
	}
	defer closeSession(cmd, session)

	if err := session.Organiser.Scan(ctx); err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	tree := session.Organiser.Tree()

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(tree)
	}
	printTree(cmd, tree, 0)
	return nil
}

func printTree(cmd *cobra.Command, n *domain.TreeNode, depth int) {
	if n == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	switch n.Type {
	case domain.NodeFile:
		cmd.Printf("%s%s\n", indent, n.Name)
	case domain.NodeRoot:
		cmd.Printf("%s (%d files)\n", n.Path, n.Count())
	default:
		cmd.Printf("%s%s/ (%d)\n", indent, n.Name, n.Count())
	}
	for _, c := range n.Children {
		printTree(cmd, c, depth+1)
	}
}
