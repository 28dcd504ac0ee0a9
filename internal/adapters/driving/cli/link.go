package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chronicle-labs/docvault/internal/core/domain"
)

var (
	linkStrength  float64
	linkDirection string
	linkType      string
	pathsMaxDepth int
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Manage document relationships",
	Long:  `Add, remove and query typed, weighted relationships between documents.`,
}

var linkAddCmd = &cobra.Command{
	Use:   "add [source-id] [target-id] [type]",
	Short: "Add a relationship",
	Args:  cobra.ExactArgs(3),
	RunE:  runLinkAdd,
}

var linkRmCmd = &cobra.Command{
	Use:   "rm [relationship-id]",
	Short: "Remove a relationship",
	Args:  cobra.ExactArgs(1),
	RunE:  runLinkRm,
}

var linkListCmd = &cobra.Command{
	Use:   "list [doc-id]",
	Short: "List a document's relationships",
	Args:  cobra.ExactArgs(1),
	RunE:  runLinkList,
}

var linkPathsCmd = &cobra.Command{
	Use:   "paths [source-id] [target-id]",
	Short: "Find relationship paths between two documents",
	Args:  cobra.ExactArgs(2),
	RunE:  runLinkPaths,
}

var linkStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show relationship graph statistics",
	Args:  cobra.NoArgs,
	RunE:  runLinkStats,
}

func init() {
	linkAddCmd.Flags().Float64Var(&linkStrength, "strength", domain.DefaultStrength, "relationship strength in [0,1]")
	linkListCmd.Flags().StringVarP(&linkDirection, "direction", "d", "both", "edge direction: in, out or both")
	linkListCmd.Flags().StringVarP(&linkType, "type", "t", "", "filter by relationship type")
	linkPathsCmd.Flags().IntVar(&pathsMaxDepth, "max-depth", 3, "maximum path length in hops")

	linkCmd.AddCommand(linkAddCmd)
	linkCmd.AddCommand(linkRmCmd)
	linkCmd.AddCommand(linkListCmd)
	linkCmd.AddCommand(linkPathsCmd)
	linkCmd.AddCommand(linkStatsCmd)
	rootCmd.AddCommand(linkCmd)
}

func runLinkAdd(cmd *cobra.Command, args []string) error {
	if graphService == nil {
		return errors.New("graph service not configured")
	}

	rel, err := graphService.AddRelationship(cmd.Context(), args[0], args[1], args[2], linkStrength, nil)
	if err != nil {
		return fmt.Errorf("failed to add relationship: %w", err)
	}

	cmd.Printf("Linked %s -[%s %.2f]-> %s (id %s)\n", rel.SourceID, rel.Type, rel.Strength, rel.TargetID, rel.ID)
	return nil
}

func runLinkRm(cmd *cobra.Command, args []string) error {
	if graphService == nil {
		return errors.New("graph service not configured")
	}

	if err := graphService.RemoveRelationship(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to remove relationship: %w", err)
	}

	cmd.Printf("Removed relationship %s\n", args[0])
	return nil
}

func runLinkList(cmd *cobra.Command, args []string) error {
	if graphService == nil {
		return errors.New("graph service not configured")
	}

	dir := domain.Direction(linkDirection)
	if !dir.Valid() {
		return fmt.Errorf("%w: direction must be in, out or both", domain.ErrInvalidInput)
	}

	related, err := graphService.Relationships(cmd.Context(), args[0], dir, linkType)
	if err != nil {
		return fmt.Errorf("failed to list relationships: %w", err)
	}

	if len(related) == 0 {
		cmd.Printf("No relationships for %s\n", args[0])
		return nil
	}

	for i := range related {
		r := &related[i]
		arrow := "->"
		if r.Direction == domain.DirectionIn {
			arrow = "<-"
		}
		cmd.Printf("  %s %s %s (%s, strength %.2f)\n",
			args[0], arrow, r.RelatedTitle, r.Relationship.Type, r.Relationship.Strength)
		cmd.Printf("    id: %s\n", r.Relationship.ID)
	}

	cmd.Printf("\nTotal: %d relationships\n", len(related))
	return nil
}

func runLinkPaths(cmd *cobra.Command, args []string) error {
	if graphService == nil {
		return errors.New("graph service not configured")
	}

	paths, err := graphService.FindPaths(cmd.Context(), args[0], args[1], pathsMaxDepth)
	if err != nil {
		return fmt.Errorf("failed to find paths: %w", err)
	}

	if len(paths) == 0 {
		cmd.Printf("No paths from %s to %s within %d hops.\n", args[0], args[1], pathsMaxDepth)
		return nil
	}

	for i := range paths {
		path := &paths[i]
		cmd.Printf("  %s (strength %.3f, %d hops)\n",
			strings.Join(path.Nodes, " -> "), path.TotalStrength, path.Length())
	}

	cmd.Printf("\nTotal: %d paths\n", len(paths))
	return nil
}

func runLinkStats(cmd *cobra.Command, _ []string) error {
	if graphService == nil {
		return errors.New("graph service not configured")
	}

	stats, err := graphService.Statistics(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to compute statistics: %w", err)
	}

	cmd.Println("Relationship graph:")
	cmd.Printf("  Documents:      %d\n", stats.TotalDocuments)
	cmd.Printf("  Relationships:  %d\n", stats.TotalRelationships)
	cmd.Printf("  Components:     %d\n", stats.ConnectedComponents)
	cmd.Printf("  Avg strength:   %.3f\n", stats.AverageStrength)
	cmd.Printf("  Density:        %.4f\n", stats.Density)

	if len(stats.TypeBreakdown) > 0 {
		cmd.Println("\n  By type:")
		for relType, count := range stats.TypeBreakdown {
			cmd.Printf("    %s: %d\n", relType, count)
		}
	}

	if len(stats.TopNodes) > 0 {
		cmd.Println("\n  Most connected:")
		for _, node := range stats.TopNodes {
			cmd.Printf("    %s (%d edges)\n", node.DocumentID, node.Degree)
		}
	}

	return nil
}
