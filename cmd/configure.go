package cmd

import (
	"github.com/spf13/cobra"
)

var configureCmd = &cobra.Command{
	Use:          "configure",
	Short:        "Create or update the configuration file",
	Long:         `Asks for the ADFS entry URL, AWS region, output format and profile name and stores them in the configuration file.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         configure,
}

func init() {
	RootCmd.AddCommand(configureCmd)
}

func configure(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	if err := s.migrator().Migrate(s.doc); err != nil {
		return err
	}
	return s.setup(cmd).Run(s.doc)
}
