package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chronicle-labs/docvault/internal/core/domain"
	"github.com/chronicle-labs/docvault/internal/core/ports/driving"
)

var (
	putID      string
	putMeta    []string
	putSummary string
	putBy      string
	listLimit  int
)

var putCmd = &cobra.Command{
	Use:   "put [file]",
	Short: "Store a document",
	Long: `Stores a document from a file, or from stdin when no file is given.
Without --id, the identifier is derived from the content hash, so
identical content maps to the same document.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPut,
}

var getCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

var catCmd = &cobra.Command{
	Use:   "cat [doc-id]",
	Short: "Print document content",
	Args:  cobra.ExactArgs(1),
	RunE:  runCat,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	putCmd.Flags().StringVar(&putID, "id", "", "document identifier (derived from content when empty)")
	putCmd.Flags().StringArrayVarP(&putMeta, "meta", "m", nil, "metadata entry as key=value (repeatable)")
	putCmd.Flags().StringVarP(&putSummary, "summary", "s", "", "change summary recorded on overwrite")
	putCmd.Flags().StringVar(&putBy, "by", "", "author recorded on overwrite")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 50, "maximum number of documents")

	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(catCmd)
	rootCmd.AddCommand(listCmd)
}

func runPut(cmd *cobra.Command, args []string) error {
	if repositoryService == nil {
		return errors.New("repository service not configured")
	}

	var content []byte
	var err error
	if len(args) == 1 {
		content, err = os.ReadFile(args[0])
	} else {
		content, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("reading content: %w", err)
	}

	metadata, err := parseMetadata(putMeta)
	if err != nil {
		return err
	}

	result, err := repositoryService.Put(cmd.Context(), driving.PutInput{
		ID:            putID,
		Content:       string(content),
		Metadata:      metadata,
		ChangeSummary: putSummary,
		ChangedBy:     putBy,
	})
	if err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}

	if result.Created {
		cmd.Printf("Created %s\n", result.ID)
	} else {
		cmd.Printf("Updated %s (prior state saved as version %d)\n", result.ID, result.SnapshotVersion)
	}
	cmd.Printf("  Hash: %s\n", result.ContentHash)
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	if repositoryService == nil {
		return errors.New("repository service not configured")
	}

	doc, err := repositoryService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Title:    %s\n", doc.Title())
	cmd.Printf("  Hash:     %s\n", doc.ContentHash)
	cmd.Printf("  Length:   %d bytes\n", len(doc.Content))
	cmd.Printf("  Created:  %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:  %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))

	if len(doc.Metadata) > 0 {
		cmd.Println("\n  Metadata:")
		for k, v := range doc.Metadata {
			cmd.Printf("    %s: %v\n", k, v)
		}
	}

	return nil
}

func runCat(cmd *cobra.Command, args []string) error {
	if repositoryService == nil {
		return errors.New("repository service not configured")
	}

	doc, err := repositoryService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Print(doc.Content)
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	if repositoryService == nil {
		return errors.New("repository service not configured")
	}

	docs, err := repositoryService.List(cmd.Context(), listLimit)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents stored.")
		return nil
	}

	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Title: %s\n", docs[i].Title)
		cmd.Printf("    Size:  %d bytes\n", docs[i].ContentLength)
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

// parseMetadata converts key=value flag entries into metadata.
func parseMetadata(entries []string) (domain.Metadata, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	metadata := make(domain.Metadata, len(entries))
	for _, entry := range entries {
		key, value, found := strings.Cut(entry, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("%w: metadata entry %q is not key=value", domain.ErrInvalidInput, entry)
		}
		metadata[key] = value
	}
	return metadata, nil
}
