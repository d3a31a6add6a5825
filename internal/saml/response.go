package saml

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

const samlResponseField = "SAMLResponse"

var ErrNoSAMLResponse = errors.New("response did not contain a valid SAML assertion")

// ExtractSAMLResponse returns the encoded assertion from either the page
// holding the form the identity provider auto-posts to AWS, or the
// urlencoded body of that post.
func ExtractSAMLResponse(document string) (string, error) {
	if assertion := fromFormBody(document); assertion != "" {
		return assertion, nil
	}

	root, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return "", fmt.Errorf("%s, %w", err, ErrNoSAMLResponse)
	}

	assertion := ""
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "input" && attr(n, "name") == samlResponseField {
			assertion = attr(n, "value")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if assertion == "" {
		return "", ErrNoSAMLResponse
	}
	return assertion, nil
}

func fromFormBody(document string) string {
	trimmed := strings.TrimSpace(document)
	if strings.HasPrefix(trimmed, "<") {
		return ""
	}
	values, err := url.ParseQuery(trimmed)
	if err != nil {
		return ""
	}
	return values.Get(samlResponseField)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
