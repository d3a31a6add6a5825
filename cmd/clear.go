package cmd

import (
	"fmt"
	"os"

	"github.com/dnitsch/aws-adfs-auth/internal/config"
	"github.com/dnitsch/aws-adfs-auth/internal/credentialexchange"
	"github.com/dnitsch/aws-adfs-auth/internal/web"
	"github.com/spf13/cobra"
)

var (
	force    bool
	clearCmd = &cobra.Command{
		Use:          "clear-cache <flags>",
		Short:        "Clears the federation password stored in the OS secret store",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         clear,
	}
)

func init() {
	clearCmd.PersistentFlags().BoolVarP(&force, "force", "f", false, "If aws-adfs-auth exited improprely in a previous run there is a chance that there could be hanging processes left over - this will clean them up forcefully")
	RootCmd.AddCommand(clearCmd)
}

func clear(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	if force {
		if err := web.New(web.NewWebConf(dataDir(s.home))).WithLogger(s.logger).ClearCache(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Chromium Cache cleared")
	}

	username := s.doc.Get(config.SectionMsAdfs, config.KeyUsername)
	if username == "" {
		s.logger.V(1).Info("no username configured, nothing to clear in the secret store")
		return nil
	}
	secretStore, err := credentialexchange.NewSecretStore(config.SELF_NAME, os.TempDir())
	if err != nil {
		return err
	}
	return secretStore.WithLogger(s.logger).Clear(username)
}
