package config_test

import (
	"errors"
	"testing"

	"github.com/dnitsch/aws-adfs-auth/internal/config"
	"github.com/go-logr/logr"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfPath = "/home/tester/.aws/adfs_auth.ini"

type mockPrompter struct {
	answers map[string]string
	yesNo   bool
	asked   map[string]string
	err     error
}

func (m *mockPrompter) PromptWithDefault(label, def string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.asked == nil {
		m.asked = map[string]string{}
	}
	m.asked[label] = def
	return m.answers[label], nil
}

func (m *mockPrompter) PromptYesNo(label string, def bool) (bool, error) {
	return m.yesNo, m.err
}

func loadDoc(t *testing.T, fs afero.Fs, content string) *config.Document {
	t.Helper()
	if content != "" {
		require.NoError(t, afero.WriteFile(fs, testConfPath, []byte(content), 0o600))
	}
	doc, err := config.Load(fs, testConfPath)
	require.NoError(t, err)
	return doc
}

func Test_Load_missing_file_is_empty(t *testing.T) {
	doc := loadDoc(t, afero.NewMemMapFs(), "")
	assert.Equal(t, "", doc.Version())
	assert.False(t, doc.IsConfigured())
	assert.Empty(t, doc.AccountLabels())
}

func Test_Document_accessors(t *testing.T) {
	doc := loadDoc(t, afero.NewMemMapFs(), `[info]
version = 0.4.0

[provider]
name = Microsoft
idpentryurl = https://adfs.example.com/adfs/ls/IdpInitiatedSignOn.aspx
profile_name = work

[aws]
region = eu-west-1
outputformat = json
credentials_file = /home/tester/.aws/credentials
sslverification = False
set_environment_variables = True
environment_file = /home/tester/.aws/environment.sh

[aws_accounts]
111111111111 = Production
222222222222 = Staging
`)

	assert.True(t, doc.IsConfigured())
	assert.Equal(t, map[string]string{"111111111111": "Production", "222222222222": "Staging"}, doc.AccountLabels())
	assert.Equal(t, config.Settings{
		IdpEntryUrl:     "https://adfs.example.com/adfs/ls/IdpInitiatedSignOn.aspx",
		ProfileName:     "work",
		Region:          "eu-west-1",
		OutputFormat:    "json",
		CredentialsFile: "/home/tester/.aws/credentials",
		SslVerification: false,
		SetEnvironment:  true,
		EnvironmentFile: "/home/tester/.aws/environment.sh",
	}, doc.Settings())
}

func Test_Settings_defaults(t *testing.T) {
	doc := loadDoc(t, afero.NewMemMapFs(), "[provider]\nname = Microsoft\n")
	s := doc.Settings()
	assert.Equal(t, config.DefaultProfileName, s.ProfileName)
	assert.True(t, s.SslVerification)
	assert.False(t, s.SetEnvironment)
}

func Test_Document_dotted_section_keeps_own_keys(t *testing.T) {
	doc := loadDoc(t, afero.NewMemMapFs(), "[aws]\nregion = eu-west-1\n\n[aws.extra]\n")

	assert.False(t, doc.Has("aws.extra", config.KeyRegion))
	assert.Equal(t, "", doc.Get("aws.extra", config.KeyRegion))

	doc.SetDefault("aws.extra", config.KeyRegion, "us-east-2")
	assert.Equal(t, "us-east-2", doc.Get("aws.extra", config.KeyRegion))
	assert.Equal(t, "eu-west-1", doc.Get(config.SectionAws, config.KeyRegion))
}

func Test_Ask_remembers_default(t *testing.T) {
	ttests := map[string]struct {
		stored string
		input  string
		expect string
	}{
		"empty input reuses stored value": {
			stored: "jdoe", input: "", expect: "jdoe",
		},
		"whitespace input reuses stored value": {
			stored: "jdoe", input: "   ", expect: "jdoe",
		},
		"new input overrides stored value": {
			stored: "jdoe", input: "asmith", expect: "asmith",
		},
		"nothing stored takes input": {
			stored: "", input: "asmith", expect: "asmith",
		},
	}
	for name, tt := range ttests {
		t.Run(name, func(t *testing.T) {
			doc := loadDoc(t, afero.NewMemMapFs(), "")
			if tt.stored != "" {
				doc.Set(config.SectionMsAdfs, config.KeyUsername, tt.stored)
			}
			p := &mockPrompter{answers: map[string]string{"Username": tt.input}}

			got, err := doc.Ask(p, config.SectionMsAdfs, config.KeyUsername, "Username")

			require.NoError(t, err)
			assert.Equal(t, tt.expect, got)
			assert.Equal(t, tt.stored, p.asked["Username"], "stored value must be offered as default")
			assert.Equal(t, tt.expect, doc.Get(config.SectionMsAdfs, config.KeyUsername))
		})
	}
}

func Test_Ask_prompt_error(t *testing.T) {
	doc := loadDoc(t, afero.NewMemMapFs(), "")
	perr := errors.New("interrupted")
	_, err := doc.Ask(&mockPrompter{err: perr}, config.SectionMsAdfs, config.KeyUsername, "Username")
	assert.ErrorIs(t, err, perr)
	assert.False(t, doc.Has(config.SectionMsAdfs, config.KeyUsername))
}

func Test_Save_round_trip(t *testing.T) {
	fs := afero.NewMemMapFs()
	doc := loadDoc(t, fs, "")
	doc.Set(config.SectionAccounts, "111111111111", "Production")
	require.NoError(t, doc.Save())

	reloaded, err := config.Load(fs, testConfPath)
	require.NoError(t, err)
	assert.Equal(t, "Production", reloaded.AccountLabels()["111111111111"])
}

func Test_Setup_Run(t *testing.T) {
	fs := afero.NewMemMapFs()
	doc := loadDoc(t, fs, "")
	p := &mockPrompter{
		answers: map[string]string{
			"URL":           "https://adfs.example.com/adfs/ls/IdpInitiatedSignOn.aspx?loginToRp=urn:amazon:webservices",
			"Region":        "eu-central-1",
			"Output format": "json",
			"AWS Profile":   "",
		},
		yesNo: true,
	}

	err := config.NewSetup(p, new(discard), "/home/tester", logr.Discard()).Run(doc)
	require.NoError(t, err)

	saved, err := config.Load(fs, testConfPath)
	require.NoError(t, err)
	assert.True(t, saved.IsConfigured())
	assert.Equal(t, config.CurrentVersion, saved.Version())
	assert.Equal(t, config.ProviderMicrosoft, saved.Get(config.SectionProvider, config.KeyProviderName))
	assert.Equal(t, "saml", saved.Get(config.SectionProvider, config.KeyProfileName))
	assert.Equal(t, "/home/tester/.aws/credentials", saved.Get(config.SectionAws, config.KeyCredentialsFile))
	assert.Equal(t, "True", saved.Get(config.SectionAws, config.KeySslVerification))
	assert.Equal(t, "True", saved.Get(config.SectionAws, config.KeySetEnvironmentVar))
	assert.Equal(t, "eu-central-1", saved.Get(config.SectionAws, config.KeyRegion))
}

func Test_Setup_requires_idp_url(t *testing.T) {
	doc := loadDoc(t, afero.NewMemMapFs(), "")
	p := &mockPrompter{answers: map[string]string{}}
	err := config.NewSetup(p, new(discard), "/home/tester", logr.Discard()).Run(doc)
	assert.ErrorIs(t, err, config.ErrConfigFailure)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
