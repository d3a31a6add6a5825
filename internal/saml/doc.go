// Package saml reads the SAML response posted back by the identity provider.
//
// It pulls the encoded SAMLResponse out of the login page, or out of the
// body posted to the AWS sign in endpoint, and extracts the
// AWS role claims carried in the assertion attributes. Signatures are not
// verified, AWS does that when the assertion is exchanged.
package saml
