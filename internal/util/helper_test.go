package util_test

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/dnitsch/aws-adfs-auth/internal/util"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_WriteFileAtomic(t *testing.T) {
	ttests := map[string]struct {
		existing []byte
		data     []byte
	}{
		"creates file and parent dir": {
			existing: nil,
			data:     []byte("[saml]\nregion = eu-west-1\n"),
		},
		"replaces existing content": {
			existing: []byte("[old]\nkey = value\n"),
			data:     []byte("[new]\nkey = other\n"),
		},
	}
	for name, tt := range ttests {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			target := "/home/user/.aws/credentials"
			if tt.existing != nil {
				require.NoError(t, afero.WriteFile(fs, target, tt.existing, 0o600))
			}

			require.NoError(t, util.WriteFileAtomic(fs, target, tt.data, 0o600))

			got, err := afero.ReadFile(fs, target)
			require.NoError(t, err)
			assert.Equal(t, tt.data, got)

			entries, err := afero.ReadDir(fs, "/home/user/.aws")
			require.NoError(t, err)
			assert.Len(t, entries, 1, "temporary file left behind")

			fi, err := fs.Stat(target)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
		})
	}
}

func Test_WriteFileAtomic_read_only_fs_leaves_original(t *testing.T) {
	base := afero.NewMemMapFs()
	target := "/home/user/.aws/credentials"
	require.NoError(t, afero.WriteFile(base, target, []byte("original"), 0o600))

	err := util.WriteFileAtomic(afero.NewReadOnlyFs(base), target, []byte("new"), 0o600)
	assert.Error(t, err)

	got, _ := afero.ReadFile(base, target)
	assert.Equal(t, "original", string(got))
}

func Test_NewLogger_verbosity(t *testing.T) {
	ttests := map[string]struct {
		verbosity int
		expect    []string
		notExpect []string
	}{
		"quiet only prints errors": {
			verbosity: 0,
			expect:    []string{"boom"},
			notExpect: []string{"progress", "detail"},
		},
		"verbose prints progress": {
			verbosity: 1,
			expect:    []string{"boom", "progress"},
			notExpect: []string{"detail"},
		},
		"debug prints everything": {
			verbosity: 2,
			expect:    []string{"boom", "progress", "detail"},
		},
	}
	for name, tt := range ttests {
		t.Run(name, func(t *testing.T) {
			b := new(bytes.Buffer)
			log := util.NewLogger(b, tt.verbosity)
			log.Error(nil, "boom")
			log.V(1).Info("progress")
			log.V(2).Info("detail")
			out := b.String()
			for _, e := range tt.expect {
				if !strings.Contains(out, e) {
					t.Errorf("expected %q in output: %s", e, out)
				}
			}
			for _, e := range tt.notExpect {
				if strings.Contains(out, e) {
					t.Errorf("did not expect %q in output: %s", e, out)
				}
			}
		})
	}
}
