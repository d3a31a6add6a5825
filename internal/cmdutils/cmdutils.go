package cmdutils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dnitsch/aws-adfs-auth/internal/config"
	"github.com/dnitsch/aws-adfs-auth/internal/credentialexchange"
	"github.com/dnitsch/aws-adfs-auth/internal/roles"
	"github.com/dnitsch/aws-adfs-auth/internal/saml"
	"github.com/go-logr/logr"
	"github.com/spf13/afero"
	"github.com/werf/lockgate"
)

var (
	ErrMissingArg      = errors.New("missing arg")
	ErrMissingPassword = errors.New("no password provided")
)

// Fetcher signs the operator into the identity provider and returns the
// response document carrying the SAMLResponse.
type Fetcher interface {
	FetchAssertion(ctx context.Context, loginURL, username, password string) (string, error)
}

type Prompter interface {
	PromptWithDefault(label, def string) (string, error)
	PromptPassword(label string) (string, error)
}

type SecretStore interface {
	Password(user string) (string, error)
	SavePassword(user, password string) error
}

// Deps are the collaborators of a login.
type Deps struct {
	Fetcher  Fetcher
	Sts      credentialexchange.AuthSamlApi
	Prompter Prompter
	// Secrets is optional, without it the password is always prompted for
	Secrets SecretStore
	Fs      afero.Fs
	// Locker is optional and serialises credential file updates
	Locker lockgate.Locker
	Out    io.Writer
	Logger logr.Logger
}

type Options struct {
	UseKeyring bool
}

// PromptSelector lists the role options and reads the chosen index,
// remembering the last answer in the configuration document.
func PromptSelector(doc *config.Document, p config.Prompter, out io.Writer) roles.Selector {
	return roles.SelectorFunc(func(options []string) (int, error) {
		fmt.Fprintln(out, "")
		fmt.Fprintln(out, "Please choose the role you would like to assume:")
		for _, o := range options {
			fmt.Fprintln(out, o)
		}
		v, err := doc.Ask(p, config.SectionMsAdfs, config.KeySelectedRoleIndex, "Selection")
		if err != nil {
			return -1, err
		}
		idx, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return -1, fmt.Errorf("%q is not a role index, %w", v, roles.ErrInvalidSelection)
		}
		return idx, nil
	})
}

// EnsureConfig runs the setup wizard on an unconfigured document and
// upgrades the document to the current schema version.
func EnsureConfig(doc *config.Document, setup *config.Setup, migrator *config.Migrator) error {
	if !doc.IsConfigured() {
		if setup == nil {
			return fmt.Errorf("%s, %w", doc.Path(), config.ErrNotConfigured)
		}
		if err := setup.Run(doc); err != nil {
			return err
		}
	}
	return migrator.Migrate(doc)
}

// GetSamlCreds runs a full login: federation credentials, browser sign in,
// role choice, STS exchange and credential storage.
func GetSamlCreds(ctx context.Context, deps Deps, doc *config.Document, opts Options) error {
	logger := deps.Logger
	settings := doc.Settings()
	if settings.IdpEntryUrl == "" {
		return fmt.Errorf("idp entry url not set, %w", config.ErrNotConfigured)
	}
	if settings.CredentialsFile == "" {
		return fmt.Errorf("credentials file not set, %w", ErrMissingArg)
	}

	fmt.Fprintln(deps.Out, "Please enter your federation credentials")
	username, err := doc.Ask(deps.Prompter, config.SectionMsAdfs, config.KeyUsername, "Username")
	if err != nil {
		return err
	}
	if username == "" {
		return fmt.Errorf("username, %w", ErrMissingArg)
	}
	password, err := federationPassword(deps, username, opts)
	if err != nil {
		return err
	}

	logger.V(1).Info("signing in", "url", settings.IdpEntryUrl, "username", username)
	document, err := deps.Fetcher.FetchAssertion(ctx, settings.IdpEntryUrl, username, password)
	if err != nil {
		return err
	}
	assertion, err := saml.ExtractSAMLResponse(document)
	if err != nil {
		return err
	}
	raw, err := saml.ParseRoleClaims(assertion)
	if err != nil {
		return err
	}
	claims, err := roles.Normalize(raw)
	if err != nil {
		return err
	}
	logger.V(2).Info("roles in assertion", "count", len(claims))

	role, err := roles.Resolve(claims, doc.AccountLabels(), PromptSelector(doc, deps.Prompter, deps.Out))
	if err != nil {
		return err
	}
	if err := doc.Save(); err != nil {
		return err
	}
	logger.V(1).Info("assuming role", "role", role.RoleARN, "principal", role.PrincipalARN)

	creds, err := credentialexchange.LoginStsSaml(ctx, assertion, credentialexchange.AWSRole{
		RoleARN:      role.RoleARN,
		PrincipalARN: role.PrincipalARN,
		Duration:     credentialexchange.MaxSessionDuration,
	}, deps.Sts)
	if err != nil {
		return err
	}

	store := credentialexchange.NewCredentialStore(deps.Fs, settings.CredentialsFile).WithLogger(logger)
	if deps.Locker != nil {
		store = store.WithLocker(deps.Locker)
	}
	if err := store.Write(settings.ProfileName, creds, settings.Region, settings.OutputFormat); err != nil {
		return err
	}
	if settings.SetEnvironment {
		if err := credentialexchange.WriteEnvironmentFile(deps.Fs, settings.EnvironmentFile, creds, settings.Region); err != nil {
			return err
		}
		logger.V(1).Info("environment file written", "path", settings.EnvironmentFile)
	}

	printSummary(deps.Out, store.Path(), settings, creds)
	return nil
}

func federationPassword(deps Deps, username string, opts Options) (string, error) {
	useKeyring := opts.UseKeyring && deps.Secrets != nil
	if useKeyring {
		stored, err := deps.Secrets.Password(username)
		if err != nil {
			deps.Logger.Error(err, "keyring unavailable, falling back to prompt")
			useKeyring = false
		}
		if stored != "" {
			deps.Logger.V(1).Info("using password from keyring", "username", username)
			return stored, nil
		}
	}
	password, err := deps.Prompter.PromptPassword("Password")
	if err != nil {
		return "", err
	}
	if password == "" {
		return "", ErrMissingPassword
	}
	if useKeyring {
		if err := deps.Secrets.SavePassword(username, password); err != nil {
			deps.Logger.Error(err, "unable to store password in keyring")
		}
	}
	return password, nil
}

func printSummary(out io.Writer, path string, settings config.Settings, creds *credentialexchange.AWSCredentials) {
	fmt.Fprint(out, "\n\n----------------------------------------------------------------\n")
	fmt.Fprintf(out, "Your new access key pair has been stored in the AWS configuration file %s under the %s profile.\n", path, settings.ProfileName)
	fmt.Fprintf(out, "Note that it will expire at %s.\n", creds.Expires)
	fmt.Fprintln(out, "After this time, you may safely rerun this command to refresh your access key pair.")
	fmt.Fprintf(out, "To use this credential, call the AWS CLI with the --profile option (e.g. aws --profile %s ec2 describe-instances).\n", settings.ProfileName)
	if settings.SetEnvironment {
		fmt.Fprintf(out, "Or load it into your shell with: source %s\n", settings.EnvironmentFile)
	}
	fmt.Fprint(out, "----------------------------------------------------------------\n\n")
}
