package cmd

import (
	"os"
	"path/filepath"

	"github.com/dnitsch/aws-adfs-auth/internal/cmdutils"
	"github.com/dnitsch/aws-adfs-auth/internal/config"
	"github.com/dnitsch/aws-adfs-auth/internal/credentialexchange"
	"github.com/dnitsch/aws-adfs-auth/internal/web"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/werf/lockgate/pkg/file_locker"
)

var loginCmd = &cobra.Command{
	Use:          "login",
	Short:        "Sign in through ADFS and store AWS temporary credentials",
	Long:         `Sign in through ADFS, choose a role and store the STS credentials under the configured profile. Runs the setup first when no configuration exists.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         login,
}

func init() {
	RootCmd.AddCommand(loginCmd)
}

func login(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	if err := cmdutils.EnsureConfig(s.doc, s.setup(cmd), s.migrator()); err != nil {
		return err
	}
	settings := s.doc.Settings()

	svc, err := credentialexchange.NewStsClient(cmd.Context(), settings.Region, settings.SslVerification)
	if err != nil {
		return err
	}

	webConf := web.NewWebConf(dataDir(s.home)).WithTimeout(viper.GetInt("timeout"))
	if viper.GetBool("headless") {
		webConf.WithHeadless()
	}
	if !settings.SslVerification {
		webConf.WithIgnoreCertErrors()
	}

	locker, err := file_locker.NewFileLocker(filepath.Join(os.TempDir(), config.SELF_NAME+"-credentials-lock"))
	if err != nil {
		return err
	}

	deps := cmdutils.Deps{
		Fetcher:  web.New(webConf).WithLogger(s.logger),
		Sts:      svc,
		Prompter: s.prompter,
		Fs:       s.fs,
		Locker:   locker,
		Out:      cmd.OutOrStdout(),
		Logger:   s.logger,
	}
	opts := cmdutils.Options{UseKeyring: viper.GetBool("keyring")}
	if opts.UseKeyring {
		secretStore, err := credentialexchange.NewSecretStore(config.SELF_NAME, os.TempDir())
		if err != nil {
			return err
		}
		deps.Secrets = secretStore.WithLogger(s.logger)
	}

	return cmdutils.GetSamlCreds(cmd.Context(), deps, s.doc, opts)
}
