// Package roles turns the role claims of a SAML assertion into the
// role and principal pair used for the STS exchange.
package roles

import (
	"errors"
	"fmt"
	"strings"
)

// providerMarker identifies the principal half of a claim.
const providerMarker = "saml-provider"

var (
	ErrMalformedClaim   = errors.New("malformed role claim")
	ErrInvalidSelection = errors.New("you selected an invalid role index")
)

// RoleClaim is a role the assertion authorizes together with the
// identity provider principal trusted by that role.
type RoleClaim struct {
	RoleARN      string
	PrincipalARN string
}

func (r RoleClaim) String() string {
	return r.RoleARN + "," + r.PrincipalARN
}

// AccountLabels maps an account id to a display name.
type AccountLabels map[string]string

// Selector picks one of the options shown to the operator and returns its index.
type Selector interface {
	Select(options []string) (int, error)
}

// SelectorFunc adapts a function to a Selector.
type SelectorFunc func(options []string) (int, error)

func (f SelectorFunc) Select(options []string) (int, error) {
	return f(options)
}

// Normalize converts raw "role,principal" claims into RoleClaims.
// Identity providers are known to emit the pair in either order, a claim
// whose first half is the saml-provider is swapped. Order is preserved.
func Normalize(raw []string) ([]RoleClaim, error) {
	claims := make([]RoleClaim, 0, len(raw))
	for _, r := range raw {
		parts := strings.Split(r, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("%q does not hold a role and principal pair, %w", r, ErrMalformedClaim)
		}
		first, second := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if first == "" || second == "" {
			return nil, fmt.Errorf("%q has an empty identifier, %w", r, ErrMalformedClaim)
		}
		if strings.Contains(first, providerMarker) {
			first, second = second, first
		}
		claims = append(claims, RoleClaim{RoleARN: first, PrincipalARN: second})
	}
	return claims, nil
}

// Options renders the list the operator chooses from.
// Roles in a labelled account show the account id, label and role,
// anything else shows the raw role arn.
func Options(claims []RoleClaim, labels AccountLabels) []string {
	options := make([]string, 0, len(claims))
	for i, c := range claims {
		a, err := ParseARN(c.RoleARN)
		if err == nil {
			if label, ok := labels[a.AccountID]; ok {
				options = append(options, fmt.Sprintf("[%2d]: %-12s %-30s:%s", i, a.AccountID, label, a.Resource))
				continue
			}
		}
		options = append(options, fmt.Sprintf("[%2d]: %s", i, c.RoleARN))
	}
	return options
}

// Resolve returns the claim to exchange. A single claim is returned
// without asking, otherwise the selector chooses and the index is
// checked against the list.
func Resolve(claims []RoleClaim, labels AccountLabels, selector Selector) (RoleClaim, error) {
	switch len(claims) {
	case 0:
		return RoleClaim{}, fmt.Errorf("no roles to choose from, %w", ErrMalformedClaim)
	case 1:
		return claims[0], nil
	}

	idx, err := selector.Select(Options(claims, labels))
	if err != nil {
		return RoleClaim{}, err
	}
	if idx < 0 || idx >= len(claims) {
		return RoleClaim{}, fmt.Errorf("index %d not in [0, %d), %w", idx, len(claims), ErrInvalidSelection)
	}
	return claims[idx], nil
}
