package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/sagarc03/lfsgate"
	"github.com/sagarc03/lfsgate/config"
	"github.com/sagarc03/lfsgate/database"
)

var locksCmd = &cobra.Command{
	Use:   "locks",
	Short: "Inspect and release file locks",
}

var locksListCmd = &cobra.Command{
	Use:   "list <repo>",
	Short: "List the locks of a repository",
	Long: `List every lock held in a repository together with its owner.

Examples:
  lfsgate locks list assets
  lfsgate locks list assets --path models/ship.blend`,
	Args: cobra.ExactArgs(1),
	RunE: runLocksList,
}

var locksUnlockCmd = &cobra.Command{
	Use:   "unlock <repo> <id>",
	Short: "Force release a lock",
	Long: `Release a lock regardless of its owner. Asks for confirmation
unless --yes is given.

Examples:
  lfsgate locks unlock assets 12345678
  lfsgate locks unlock assets 12345678 --yes`,
	Args: cobra.ExactArgs(2),
	RunE: runLocksUnlock,
}

var (
	locksPath string
	unlockYes bool
)

func init() {
	locksListCmd.Flags().StringVar(&locksPath, "path", "", "only show the lock on this path")
	locksUnlockCmd.Flags().BoolVarP(&unlockYes, "yes", "y", false, "skip the confirmation prompt")

	locksCmd.AddCommand(locksListCmd, locksUnlockCmd)
	rootCmd.AddCommand(locksCmd)
}

func runLocksList(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	repo, closeDB, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer closeDB()

	records, err := repo.GetLocks(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get locks: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPATH\tOWNER\tLOCKED AT")
	for _, r := range records {
		if locksPath != "" && r.Path != locksPath {
			continue
		}
		owner := r.Owner
		if owner == "" {
			owner = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Path, owner, r.LockedAt.UTC().Format(time.RFC3339))
	}
	return w.Flush()
}

func runLocksUnlock(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	repoName, id := args[0], args[1]

	if !unlockYes {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Release lock %s in %s", id, repoName),
			IsConfirm: true,
		}
		if _, promptErr := prompt.Run(); promptErr != nil {
			if errors.Is(promptErr, promptui.ErrInterrupt) {
				return errors.New("interrupted")
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil //nolint:nilerr // User declined, not an error
		}
	}

	ctx := cmd.Context()

	repo, closeDB, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer closeDB()

	// Force removal needs no object storage.
	service := lfsgate.NewLFSService(repo, nil, lfsgate.ServiceConfig{})

	lock, err := service.DeleteLock(ctx, repoName, id, "", true)
	if err != nil {
		if errors.Is(err, lfsgate.ErrNotFound) {
			return fmt.Errorf("lock %s not found in %s", id, repoName)
		}
		return fmt.Errorf("unlock: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Released lock %s on %s\n", lock.ID, lock.Path)
	return nil
}
