package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dnitsch/aws-adfs-auth/internal/config"
	"github.com/dnitsch/aws-adfs-auth/internal/prompt"
	"github.com/dnitsch/aws-adfs-auth/internal/util"
	"github.com/go-logr/logr"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "AWS_ADFS_AUTH"

var (
	cfgFile    string
	verbose    int
	useKeyring bool
	headless   bool
	timeout    int
	RootCmd    = &cobra.Command{
		Use:   config.SELF_NAME,
		Short: "CLI tool for retrieving AWS temporary credentials through ADFS",
		Long: `CLI tool for retrieving AWS temporary credentials through a Microsoft ADFS login.
Signs in with your federation credentials, lets you choose one of the AWS roles granted by the SAML assertion
and stores the temporary credentials under a named profile in the AWS shared credentials file.
Running without a sub command is the same as running login.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         login,
	}
)

func Execute() {
	if err := RootCmd.ExecuteContext(context.Background()); err != nil {
		util.Exit(err)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to the configuration file (default $HOME/.aws/adfs_auth.ini)")
	RootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "Verbose output, repeat for debug output")
	RootCmd.PersistentFlags().BoolVarP(&useKeyring, "keyring", "k", false, "Keep the federation password in the OS keyring")
	RootCmd.PersistentFlags().BoolVarP(&headless, "headless", "", false, "Run the browser without a window")
	RootCmd.PersistentFlags().IntVarP(&timeout, "timeout", "t", 120, "Seconds to wait for the identity provider to return the SAML response")
	_ = viper.BindPFlags(RootCmd.PersistentFlags())
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// session holds what every command needs once flags are resolved
type session struct {
	home     string
	fs       afero.Fs
	logger   logr.Logger
	doc      *config.Document
	prompter prompt.Prompter
}

func newSession(cmd *cobra.Command) (*session, error) {
	logger := util.NewLogger(cmd.ErrOrStderr(), viper.GetInt("verbose"))
	home, err := util.HomeDir()
	if err != nil {
		return nil, err
	}
	path := viper.GetString("config")
	if path == "" {
		path = config.DefaultConfigPath(home)
	}
	fs := afero.NewOsFs()
	doc, err := config.Load(fs, path)
	if err != nil {
		return nil, err
	}
	logger.V(1).Info("using config file", "path", doc.Path())
	return &session{
		home:     home,
		fs:       fs,
		logger:   logger,
		doc:      doc,
		prompter: prompt.New(),
	}, nil
}

func (s *session) migrator() *config.Migrator {
	return config.NewMigrator(s.home, s.logger)
}

func (s *session) setup(cmd *cobra.Command) *config.Setup {
	return config.NewSetup(s.prompter, cmd.OutOrStdout(), s.home, s.logger)
}

func dataDir(home string) string {
	return filepath.Join(home, ".aws", fmt.Sprintf(".%s-data", config.SELF_NAME))
}
