package roles_test

import (
	"errors"
	"testing"

	"github.com/dnitsch/aws-adfs-auth/internal/roles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Normalize(t *testing.T) {
	ttests := map[string]struct {
		raw    []string
		expect []roles.RoleClaim
	}{
		"provider first is swapped": {
			raw: []string{"arn:aws:iam::111:saml-provider/X,arn:aws:iam::111:role/Y"},
			expect: []roles.RoleClaim{
				{RoleARN: "arn:aws:iam::111:role/Y", PrincipalARN: "arn:aws:iam::111:saml-provider/X"},
			},
		},
		"role first is kept": {
			raw: []string{"arn:aws:iam::111:role/Y,arn:aws:iam::111:saml-provider/X"},
			expect: []roles.RoleClaim{
				{RoleARN: "arn:aws:iam::111:role/Y", PrincipalARN: "arn:aws:iam::111:saml-provider/X"},
			},
		},
		"order of claims is preserved": {
			raw: []string{
				"arn:aws:iam::222:saml-provider/X,arn:aws:iam::222:role/B",
				"arn:aws:iam::111:role/A,arn:aws:iam::111:saml-provider/X",
				"C,D",
			},
			expect: []roles.RoleClaim{
				{RoleARN: "arn:aws:iam::222:role/B", PrincipalARN: "arn:aws:iam::222:saml-provider/X"},
				{RoleARN: "arn:aws:iam::111:role/A", PrincipalARN: "arn:aws:iam::111:saml-provider/X"},
				{RoleARN: "C", PrincipalARN: "D"},
			},
		},
		"whitespace around identifiers": {
			raw:    []string{" A , B "},
			expect: []roles.RoleClaim{{RoleARN: "A", PrincipalARN: "B"}},
		},
	}
	for name, tt := range ttests {
		t.Run(name, func(t *testing.T) {
			got, err := roles.Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.expect, got)
		})
	}
}

func Test_Normalize_String_matches_swapped_pair(t *testing.T) {
	got, err := roles.Normalize([]string{"arn:aws:iam::111:saml-provider/X,arn:aws:iam::111:role/Y"})
	require.NoError(t, err)
	assert.Equal(t, "arn:aws:iam::111:role/Y,arn:aws:iam::111:saml-provider/X", got[0].String())
}

func Test_Normalize_malformed(t *testing.T) {
	ttests := map[string]struct {
		raw []string
	}{
		"no comma":        {[]string{"arn:aws:iam::111:role/Y"}},
		"three parts":     {[]string{"A,B,C"}},
		"empty principal": {[]string{"A,"}},
		"empty claim":     {[]string{""}},
	}
	for name, tt := range ttests {
		t.Run(name, func(t *testing.T) {
			_, err := roles.Normalize(tt.raw)
			assert.ErrorIs(t, err, roles.ErrMalformedClaim)
		})
	}
}

type recordingSelector struct {
	idx     int
	err     error
	called  bool
	options []string
}

func (s *recordingSelector) Select(options []string) (int, error) {
	s.called = true
	s.options = options
	return s.idx, s.err
}

func Test_Resolve_single_claim_never_prompts(t *testing.T) {
	claims := []roles.RoleClaim{{RoleARN: "A", PrincipalARN: "B"}}
	sel := &recordingSelector{idx: 5}

	got, err := roles.Resolve(claims, nil, sel)

	require.NoError(t, err)
	assert.Equal(t, claims[0], got)
	assert.False(t, sel.called)
}

func Test_Resolve_selection(t *testing.T) {
	claims := []roles.RoleClaim{
		{RoleARN: "arn:aws:iam::111:role/Admin", PrincipalARN: "arn:aws:iam::111:saml-provider/ADFS"},
		{RoleARN: "arn:aws:iam::222:role/ReadOnly", PrincipalARN: "arn:aws:iam::222:saml-provider/ADFS"},
		{RoleARN: "C", PrincipalARN: "D"},
	}
	ttests := map[string]struct {
		idx    int
		expect roles.RoleClaim
		errTyp error
	}{
		"first":        {idx: 0, expect: claims[0]},
		"last":         {idx: 2, expect: claims[2]},
		"too large":    {idx: 3, errTyp: roles.ErrInvalidSelection},
		"negative":     {idx: -1, errTyp: roles.ErrInvalidSelection},
		"way too high": {idx: 42, errTyp: roles.ErrInvalidSelection},
	}
	for name, tt := range ttests {
		t.Run(name, func(t *testing.T) {
			sel := &recordingSelector{idx: tt.idx}
			got, err := roles.Resolve(claims, roles.AccountLabels{"111": "Prod"}, sel)
			assert.True(t, sel.called)
			if tt.errTyp != nil {
				assert.ErrorIs(t, err, tt.errTyp)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expect, got)
		})
	}
}

func Test_Resolve_selector_error(t *testing.T) {
	perr := errors.New("interrupted")
	claims := []roles.RoleClaim{{RoleARN: "A", PrincipalARN: "B"}, {RoleARN: "C", PrincipalARN: "D"}}
	_, err := roles.Resolve(claims, nil, roles.SelectorFunc(func([]string) (int, error) { return 0, perr }))
	assert.ErrorIs(t, err, perr)
}

func Test_Resolve_no_claims(t *testing.T) {
	_, err := roles.Resolve(nil, nil, &recordingSelector{})
	assert.ErrorIs(t, err, roles.ErrMalformedClaim)
}

func Test_Options(t *testing.T) {
	claims := []roles.RoleClaim{
		{RoleARN: "arn:aws:iam::111111111111:role/Admin", PrincipalARN: "p"},
		{RoleARN: "arn:aws:iam::222222222222:role/ReadOnly", PrincipalARN: "p"},
		{RoleARN: "not-an-arn", PrincipalARN: "p"},
	}
	got := roles.Options(claims, roles.AccountLabels{"111111111111": "Production"})
	assert.Equal(t, []string{
		"[ 0]: 111111111111 Production                    :role/Admin",
		"[ 1]: arn:aws:iam::222222222222:role/ReadOnly",
		"[ 2]: not-an-arn",
	}, got)
}
