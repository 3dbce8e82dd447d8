package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/modm-io/lbuild/internal/buildlog"
	"github.com/modm-io/lbuild/internal/output"
)

var noLogFlag bool

// BuildLogFileName is the build log artifact written into the output
// path after a build.
const BuildLogFileName = "buildlog.xml"

// NewBuildCmd creates the build command.
func NewBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [module...]",
		Short: "Generate code for the active modules",
		Long: `Validate the active module closure, then execute every module's
generation action in dependency order. The produced files are
recorded in a build log written next to them; a build that fails
midway keeps the log of everything generated so far.`,
		RunE: runBuild,
	}
	cmd.Flags().BoolVar(&noLogFlag, "no-log", false,
		"Do not write the buildlog.xml artifact")
	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
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

	log, buildErr := proj.engine.Build(proj.outpath)
	if !noLogFlag {
		if err := writeBuildLog(proj.fs, log); err != nil {
			if buildErr == nil {
				return err
			}
			output.Error("writing build log failed", "error", err)
		}
	}
	if buildErr != nil {
		return buildErr
	}

	output.Println(fmt.Sprintf("Built %d modules, generated %d files.",
		len(log.Modules()), len(log.Operations())))
	return nil
}

func writeBuildLog(fs afero.Fs, log *buildlog.BuildLog) error {
	data, err := log.ToXML(log.OutPath())
	if err != nil {
		return err
	}
	path := filepath.Join(log.OutPath(), BuildLogFileName)
	if err := fs.MkdirAll(log.OutPath(), 0o755); err != nil {
		return err
	}
	return afero.WriteFile(fs, path, data, 0o644)
}
