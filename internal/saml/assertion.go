package saml

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/beevik/etree"
)

const (
	AssertionNamespace = "urn:oasis:names:tc:SAML:2.0:assertion"
	RoleAttributeName  = "https://aws.amazon.com/SAML/Attributes/Role"
)

var (
	ErrMalformedAssertion  = errors.New("malformed saml assertion")
	ErrNoAssertionContents = fmt.Errorf("no assertion contents, %w", ErrMalformedAssertion)
)

// ParseRoleClaims decodes a base64 encoded SAML response and returns the
// values of the AWS role attribute in document order.
func ParseRoleClaims(encoded string) ([]string, error) {
	raw, err := decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("unable to decode: %s, %w", err, ErrMalformedAssertion)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("unable to parse xml: %s, %w", err, ErrMalformedAssertion)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("no root element, %w", ErrMalformedAssertion)
	}

	claims := []string{}
	for _, attr := range doc.FindElements("//Attribute") {
		if attr.NamespaceURI() != AssertionNamespace || attr.SelectAttrValue("Name", "") != RoleAttributeName {
			continue
		}
		for _, value := range attr.FindElements(".//AttributeValue") {
			if value.NamespaceURI() != AssertionNamespace {
				continue
			}
			claims = append(claims, strings.TrimSpace(value.Text()))
		}
	}

	if len(claims) == 0 {
		return nil, ErrNoAssertionContents
	}
	return claims, nil
}

// decode accepts the response with or without line breaks
func decode(encoded string) ([]byte, error) {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, encoded)
	if compact == "" {
		return nil, errors.New("empty input")
	}
	return base64.StdEncoding.DecodeString(compact)
}
