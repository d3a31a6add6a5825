// credentialexchange
//
// Exchanges a SAML assertion for temporary AWS credentials via
// sts:AssumeRoleWithSAML and persists them.
//
// Credentials are written to a named profile of the shared credentials
// file. The first time an existing profile is overwritten its previous
// contents are kept in a `<profile>.backup` section, later writes leave
// that backup alone.
package credentialexchange
