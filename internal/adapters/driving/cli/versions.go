package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	versionsLimit  int
	versionsOffset int
	pruneKeep      int
	rollbackBy     string
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "Manage document version history",
	Long:  `List, inspect, compare, restore or prune version snapshots.`,
}

var versionsListCmd = &cobra.Command{
	Use:   "list [doc-id]",
	Short: "List version snapshots",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersionsList,
}

var versionsShowCmd = &cobra.Command{
	Use:   "show [doc-id] [version]",
	Short: "Show one version snapshot",
	Args:  cobra.ExactArgs(2),
	RunE:  runVersionsShow,
}

var versionsDiffCmd = &cobra.Command{
	Use:   "diff [doc-id] [version-a] [version-b]",
	Short: "Compare two versions",
	Args:  cobra.ExactArgs(3),
	RunE:  runVersionsDiff,
}

var versionsRollbackCmd = &cobra.Command{
	Use:   "rollback [doc-id] [version]",
	Short: "Restore a version as the live document",
	Long: `Restores the target version's content and metadata as the live
document. The current state is snapshotted first; history is never
rewritten.`,
	Args: cobra.ExactArgs(2),
	RunE: runVersionsRollback,
}

var versionsPruneCmd = &cobra.Command{
	Use:   "prune [doc-id]",
	Short: "Delete old version snapshots",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersionsPrune,
}

func init() {
	versionsListCmd.Flags().IntVarP(&versionsLimit, "limit", "n", 20, "maximum number of versions")
	versionsListCmd.Flags().IntVar(&versionsOffset, "offset", 0, "number of versions to skip")
	versionsPruneCmd.Flags().IntVarP(&pruneKeep, "keep", "k", 0, "versions to keep (default from config)")
	versionsRollbackCmd.Flags().StringVar(&rollbackBy, "by", "", "author recorded on the rollback")

	versionsCmd.AddCommand(versionsListCmd)
	versionsCmd.AddCommand(versionsShowCmd)
	versionsCmd.AddCommand(versionsDiffCmd)
	versionsCmd.AddCommand(versionsRollbackCmd)
	versionsCmd.AddCommand(versionsPruneCmd)
	rootCmd.AddCommand(versionsCmd)
}

func runVersionsList(cmd *cobra.Command, args []string) error {
	if versionService == nil {
		return errors.New("version service not configured")
	}

	versions, err := versionService.List(cmd.Context(), args[0], versionsLimit, versionsOffset)
	if err != nil {
		return fmt.Errorf("failed to list versions: %w", err)
	}

	if len(versions) == 0 {
		cmd.Printf("No versions recorded for %s\n", args[0])
		return nil
	}

	cmd.Printf("Versions of %s:\n\n", args[0])
	for i := range versions {
		v := &versions[i]
		cmd.Printf("  v%d  %s", v.VersionNumber, v.CreatedAt.Format("2006-01-02 15:04:05"))
		if v.ChangedBy != "" {
			cmd.Printf("  by %s", v.ChangedBy)
		}
		cmd.Println()
		if v.ChangeSummary != "" {
			cmd.Printf("      %s\n", v.ChangeSummary)
		}
	}

	return nil
}

func runVersionsShow(cmd *cobra.Command, args []string) error {
	if versionService == nil {
		return errors.New("version service not configured")
	}

	number, err := parseVersionNumber(args[1])
	if err != nil {
		return err
	}

	v, err := versionService.Get(cmd.Context(), args[0], number)
	if err != nil {
		return fmt.Errorf("failed to get version: %w", err)
	}

	cmd.Printf("Version %d of %s\n\n", v.VersionNumber, v.DocumentID)
	cmd.Printf("  Hash:     %s\n", v.ContentHash)
	cmd.Printf("  Created:  %s\n", v.CreatedAt.Format("2006-01-02 15:04:05"))
	if v.ChangedBy != "" {
		cmd.Printf("  By:       %s\n", v.ChangedBy)
	}
	if v.ChangeSummary != "" {
		cmd.Printf("  Summary:  %s\n", v.ChangeSummary)
	}
	cmd.Printf("\n%s\n", v.Content)
	return nil
}

func runVersionsDiff(cmd *cobra.Command, args []string) error {
	if versionService == nil {
		return errors.New("version service not configured")
	}

	versionA, err := parseVersionNumber(args[1])
	if err != nil {
		return err
	}
	versionB, err := parseVersionNumber(args[2])
	if err != nil {
		return err
	}

	diff, err := versionService.Compare(cmd.Context(), args[0], versionA, versionB)
	if err != nil {
		return fmt.Errorf("failed to compare versions: %w", err)
	}

	if diff.Identical {
		cmd.Printf("v%d and v%d have identical content.\n", versionA, versionB)
	} else {
		cmd.Printf("Content changes (v%d -> v%d):\n", versionA, versionB)
		for _, change := range diff.ContentChanges {
			marker := "~"
			switch change.Kind {
			case "added":
				marker = "+"
			case "removed":
				marker = "-"
			}
			cmd.Printf("  %s %d: %s\n", marker, change.Line, change.Text)
		}
	}

	if len(diff.MetadataAdded) > 0 || len(diff.MetadataRemoved) > 0 || len(diff.MetadataChanged) > 0 {
		cmd.Println("\nMetadata changes:")
		for _, key := range diff.MetadataAdded {
			cmd.Printf("  + %s\n", key)
		}
		for _, key := range diff.MetadataRemoved {
			cmd.Printf("  - %s\n", key)
		}
		for _, key := range diff.MetadataChanged {
			cmd.Printf("  ~ %s\n", key)
		}
	}

	return nil
}

func runVersionsRollback(cmd *cobra.Command, args []string) error {
	if versionService == nil {
		return errors.New("version service not configured")
	}

	number, err := parseVersionNumber(args[1])
	if err != nil {
		return err
	}

	doc, err := versionService.Rollback(cmd.Context(), args[0], number, rollbackBy)
	if err != nil {
		return fmt.Errorf("failed to roll back: %w", err)
	}

	cmd.Printf("Restored %s to version %d (hash %s)\n", doc.ID, number, doc.ContentHash)
	return nil
}

func runVersionsPrune(cmd *cobra.Command, args []string) error {
	if versionService == nil {
		return errors.New("version service not configured")
	}

	keep := pruneKeep
	if keep <= 0 && appConfig != nil {
		keep = appConfig.KeepVersions
	}

	deleted, err := versionService.Prune(cmd.Context(), args[0], keep)
	if err != nil {
		return fmt.Errorf("failed to prune versions: %w", err)
	}

	cmd.Printf("Deleted %d versions of %s (kept %d)\n", deleted, args[0], keep)
	return nil
}

func parseVersionNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid version number %q", s)
	}
	return n, nil
}
