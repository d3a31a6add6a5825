package roles

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
)

var ErrInvalidARN = errors.New("invalid arn")

// ARN is a parsed Amazon Resource Name.
type ARN struct {
	arn.ARN
}

// ParseARN parses s, failing with ErrInvalidARN when s is not of the form
// arn:partition:service:region:account-id:resource.
func ParseARN(s string) (ARN, error) {
	a, err := arn.Parse(s)
	if err != nil {
		return ARN{}, fmt.Errorf("%q: %s, %w", s, err, ErrInvalidARN)
	}
	if a.AccountID == "" || a.Resource == "" {
		return ARN{}, fmt.Errorf("%q: missing account id or resource, %w", s, ErrInvalidARN)
	}
	return ARN{ARN: a}, nil
}

// ResourceType is the part of the resource before the first slash, e.g. role.
func (a ARN) ResourceType() string {
	typ, _, found := strings.Cut(a.Resource, "/")
	if !found {
		return ""
	}
	return typ
}

// Name is the part of the resource after the last slash,
// paths are dropped: role/team/Admin => Admin.
func (a ARN) Name() string {
	return a.Resource[strings.LastIndex(a.Resource, "/")+1:]
}
