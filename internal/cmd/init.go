package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/modm-io/lbuild/internal/config"
	"github.com/modm-io/lbuild/internal/output"
	"github.com/modm-io/lbuild/internal/vcs"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Download the remote repositories declared in the configuration",
		RunE:  runSync,
	}
}

// NewUpdateCmd creates the update command.
func NewUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Update previously downloaded remote repositories",
		RunE:  runSync,
	}
}

func runSync(cmd *cobra.Command, args []string) error {
	fs := afero.NewOsFs()
	node, err := configChain(fs)
	if err != nil {
		return err
	}
	merged := node.Flatten()

	if len(merged.VCS) == 0 {
		output.Println("No remote repositories declared.")
		return nil
	}

	cache := merged.Cache
	if cache == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		cache = filepath.Join(cwd, config.DefaultCacheFolder)
	}

	if err := vcs.Update(cmd.Context(), cache, merged.VCS); err != nil {
		return err
	}
	output.Println(fmt.Sprintf("Synchronized %d repositories into %s.",
		len(merged.VCS), cache))
	return nil
}
