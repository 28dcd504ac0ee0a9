package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chronicle-labs/docvault/internal/core/domain"
)

var (
	tagCategory    string
	tagConfidence  float64
	taxonomyParent string
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Manage document tags",
}

var tagAddCmd = &cobra.Command{
	Use:   "add [doc-id] [tag]",
	Short: "Tag a document",
	Args:  cobra.ExactArgs(2),
	RunE:  runTagAdd,
}

var tagListCmd = &cobra.Command{
	Use:   "list [doc-id]",
	Short: "List a document's tags",
	Args:  cobra.ExactArgs(1),
	RunE:  runTagList,
}

var tagTaxonomyCmd = &cobra.Command{
	Use:   "taxonomy [tag]",
	Short: "Define a taxonomy node",
	Long:  `Defines or updates a tag in the taxonomy. Parent chains must stay acyclic.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTagTaxonomy,
}

func init() {
	tagAddCmd.Flags().StringVarP(&tagCategory, "category", "c", "", "tag category")
	tagAddCmd.Flags().Float64Var(&tagConfidence, "confidence", 1.0, "assignment confidence")
	tagTaxonomyCmd.Flags().StringVar(&taxonomyParent, "parent", "", "parent tag")
	tagTaxonomyCmd.Flags().StringVarP(&tagCategory, "category", "c", "", "tag category")

	tagCmd.AddCommand(tagAddCmd)
	tagCmd.AddCommand(tagListCmd)
	tagCmd.AddCommand(tagTaxonomyCmd)
	rootCmd.AddCommand(tagCmd)
}

func runTagAdd(cmd *cobra.Command, args []string) error {
	if graphService == nil {
		return errors.New("graph service not configured")
	}

	if err := graphService.AssignTag(cmd.Context(), args[0], args[1], tagCategory, tagConfidence); err != nil {
		return fmt.Errorf("failed to tag document: %w", err)
	}

	cmd.Printf("Tagged %s with %s\n", args[0], args[1])
	return nil
}

func runTagList(cmd *cobra.Command, args []string) error {
	if graphService == nil {
		return errors.New("graph service not configured")
	}

	tags, err := graphService.Tags(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to list tags: %w", err)
	}

	if len(tags) == 0 {
		cmd.Printf("No tags on %s\n", args[0])
		return nil
	}

	for _, tag := range tags {
		cmd.Printf("  %s", tag.Tag)
		if tag.Category != "" {
			cmd.Printf(" (%s)", tag.Category)
		}
		cmd.Println()
	}

	return nil
}

func runTagTaxonomy(cmd *cobra.Command, args []string) error {
	if graphService == nil {
		return errors.New("graph service not configured")
	}

	node := domain.TaxonomyNode{
		Tag:       args[0],
		Category:  tagCategory,
		ParentTag: taxonomyParent,
	}
	if err := graphService.SaveTaxonomyNode(cmd.Context(), node); err != nil {
		return fmt.Errorf("failed to save taxonomy node: %w", err)
	}

	if taxonomyParent != "" {
		cmd.Printf("Defined %s under %s\n", args[0], taxonomyParent)
	} else {
		cmd.Printf("Defined root tag %s\n", args[0])
	}
	return nil
}
