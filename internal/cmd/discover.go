package cmd

import (
	"github.com/spf13/cobra"

	"github.com/modm-io/lbuild/internal/output"
	"github.com/modm-io/lbuild/internal/tree"
)

// NewDiscoverCmd creates the discover command.
func NewDiscoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover [name...]",
		Short: "Render the tree of repositories, modules, and options",
		Long: `Render the tree of everything the loaded repositories declare:
modules, submodules, options with their current values, queries, and
collectors. Optional name arguments (partial or wildcarded) restrict
the output to the matching subtrees.`,
		RunE: runDiscover,
	}
}

func runDiscover(cmd *cobra.Command, args []string) error {
	proj, err := loadProject(nil)
	if err != nil {
		return err
	}
	if err := proj.prepare(); err != nil {
		return err
	}

	if len(args) == 0 {
		output.Print(output.RenderTree(proj.engine.Root()))
		return nil
	}
	for _, name := range args {
		node, err := proj.engine.Root().Resolve(name)
		if err != nil {
			return err
		}
		output.Println(output.Label(node))
		output.Print(output.RenderTree(node))
	}
	return nil
}

// NewDiscoverOptionsCmd creates the discover-options command.
func NewDiscoverOptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover-options",
		Short: "List all repository options",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscoverOptions(tree.KindRepository)
		},
	}
}

// NewDiscoverModuleOptionsCmd creates the discover-module-options
// command.
func NewDiscoverModuleOptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover-module-options",
		Short: "List the options of every available module",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscoverOptions(tree.KindModule)
		},
	}
}

func runDiscoverOptions(ownerKind tree.Kind) error {
	proj, err := loadProject(nil)
	if err != nil {
		return err
	}
	if err := proj.prepare(); err != nil {
		return err
	}

	for _, node := range proj.engine.Root().FindAll(tree.KindOption, true) {
		if node.Parent().Kind() != ownerKind {
			continue
		}
		output.Println(output.Label(node))
	}
	return nil
}

// NewDiscoverOptionCmd creates the discover-option command.
func NewDiscoverOptionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover-option <name>",
		Short: "Show the full help text of one option",
		Args:  cobra.ExactArgs(1),
		RunE:  runDiscoverOption,
	}
	return cmd
}

func runDiscoverOption(cmd *cobra.Command, args []string) error {
	proj, err := loadProject(nil)
	if err != nil {
		return err
	}
	if err := proj.prepare(); err != nil {
		return err
	}

	node, err := proj.engine.Root().ResolveKind(args[0], tree.KindOption)
	if err != nil {
		return err
	}
	output.Print(output.DescribeOption(node))
	return nil
}
