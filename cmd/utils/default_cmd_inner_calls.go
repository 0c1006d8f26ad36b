package utils

import "github.com/spf13/cobra"

// PropagatePersistentPreRun runs the parent command's PersistentPreRun, so
// nested commands still resolve the global config options.
var PropagatePersistentPreRun = func(cmd *cobra.Command, args []string) {
	if cmd.Parent().PersistentPreRun != nil {
		cmd.Parent().PersistentPreRun(cmd.Parent(), args)
	}
}

// CallHelpCommand is the RunE for commands that only group subcommands.
var CallHelpCommand = func(cmd *cobra.Command, args []string) error {
	return cmd.Help()
}
