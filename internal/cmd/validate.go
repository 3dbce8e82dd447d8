package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modm-io/lbuild/internal/output"
)

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [module...]",
		Short: "Resolve and validate the active modules without building",
		Long: `Compute the active module closure from the configuration plus any
module arguments, finalize every option value, and run the module
validation hooks. All failures across the closure are reported
together.`,
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	proj, err := loadProject(args)
	if err != nil {
		return err
	}
	if err := proj.resolve(); err != nil {
		return err
	}
	if err := proj.engine.Validate(proj.outpath); err != nil {
		return err
	}

	modules := proj.engine.Ordered()
	output.Println(fmt.Sprintf("Validated %d modules.", len(modules)))
	for _, node := range modules {
		output.Debug("validated", "module", node.FullName())
	}
	return nil
}
