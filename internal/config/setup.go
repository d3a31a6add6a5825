package config

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
)

// Providers lists the supported identity providers.
var Providers = []string{ProviderMicrosoft}

type SetupPrompter interface {
	Prompter
	PromptYesNo(label string, def bool) (bool, error)
}

// Setup interactively fills in the configuration document.
type Setup struct {
	prompter SetupPrompter
	out      io.Writer
	home     string
	logger   logr.Logger
}

func NewSetup(prompter SetupPrompter, out io.Writer, home string, logger logr.Logger) *Setup {
	return &Setup{prompter: prompter, out: out, home: home, logger: logger}
}

// Run asks for every setting, applies the defaults and saves the document.
func (s *Setup) Run(d *Document) error {
	steps := []func(*Document) error{
		s.provider,
		s.idpEntryUrl,
		s.variables,
		s.defaults,
		s.profileName,
		s.environment,
	}
	for _, step := range steps {
		if err := step(d); err != nil {
			return err
		}
	}
	s.logger.V(1).Info("storing config file", "path", d.Path())
	return d.Save()
}

func (s *Setup) provider(d *Document) error {
	fmt.Fprintf(s.out, "Please choose which ADFS provider you want to use (currently only %s is supported)\n", strings.Join(Providers, ", "))
	idx := 0
	if len(Providers) > 1 {
		for i, p := range Providers {
			fmt.Fprintf(s.out, "[%2d]: %-30s\n", i, p)
		}
		v, err := s.prompter.PromptWithDefault("Selection", "0")
		if err != nil {
			return err
		}
		idx, err = strconv.Atoi(strings.TrimSpace(v))
		if err != nil || idx < 0 || idx >= len(Providers) {
			return fmt.Errorf("invalid provider selection %q, %w", v, ErrConfigFailure)
		}
	}
	d.Set(SectionProvider, KeyProviderName, Providers[idx])
	return nil
}

func (s *Setup) idpEntryUrl(d *Document) error {
	fmt.Fprintln(s.out, "Please enter the ADFS provider entry URL for your configuration")
	fmt.Fprintln(s.out, "Example: https://<provider>/adfs/ls/IdpInitiatedSignOn.aspx?loginToRp=urn:amazon:webservices")
	v, err := d.Ask(s.prompter, SectionProvider, KeyIdpEntryUrl, "URL")
	if err != nil {
		return err
	}
	if v == "" {
		return fmt.Errorf("idp entry url is required, %w", ErrConfigFailure)
	}
	return nil
}

func (s *Setup) variables(d *Document) error {
	fmt.Fprintln(s.out, "Please enter the AWS region")
	if _, err := d.Ask(s.prompter, SectionAws, KeyRegion, "Region"); err != nil {
		return err
	}
	_, err := d.Ask(s.prompter, SectionAws, KeyOutputFormat, "Output format")
	return err
}

func (s *Setup) defaults(d *Document) error {
	d.SetDefault(SectionAws, KeyCredentialsFile, DefaultCredentialsFile(s.home))
	d.SetDefault(SectionAws, KeySslVerification, "True")
	d.SetDefault(SectionInfo, KeyVersion, CurrentVersion)
	d.SetDefault(SectionProvider, KeyProfileName, DefaultProfileName)
	d.SetDefault(SectionAws, KeySetEnvironmentVar, "False")
	d.SetDefault(SectionAws, KeyEnvironmentFile, DefaultEnvironmentFile(s.home))
	return nil
}

func (s *Setup) profileName(d *Document) error {
	fmt.Fprintln(s.out, "Please enter the AWS profile you want to use for storing your credentials")
	fmt.Fprintln(s.out, "If you use the default profile you don't need to specify the profile when executing AWS commands.")
	fmt.Fprintln(s.out, "An existing profile is backed up once to <profile>.backup before it is overwritten.")
	_, err := d.Ask(s.prompter, SectionProvider, KeyProfileName, "AWS Profile")
	return err
}

func (s *Setup) environment(d *Document) error {
	enabled, err := s.prompter.PromptYesNo("Also write the credentials to a shell environment file", d.Bool(SectionAws, KeySetEnvironmentVar))
	if err != nil {
		return err
	}
	d.Set(SectionAws, KeySetEnvironmentVar, iniBool(enabled))
	return nil
}

// iniBool renders booleans the way the document has always stored them.
func iniBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
