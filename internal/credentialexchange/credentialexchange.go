package credentialexchange

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
)

var (
	ErrExchangeFailed      = errors.New("unable to exchange assertion for credentials")
	ErrUnableSessionCreate = errors.New("unable to create a session")
)

// AWSRole is the role assumed with the assertion
type AWSRole struct {
	RoleARN      string
	PrincipalARN string
	Duration     int
}

// AWSCredentials are the temporary credentials returned by STS
type AWSCredentials struct {
	AWSAccessKey    string    `json:"AccessKeyId"`
	AWSSecretKey    string    `json:"SecretAccessKey"`
	AWSSessionToken string    `json:"SessionToken"`
	PrincipalARN    string    `json:"-"`
	Expires         time.Time `json:"Expiration"`
}

type AuthSamlApi interface {
	AssumeRoleWithSAML(ctx context.Context, params *sts.AssumeRoleWithSAMLInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleWithSAMLOutput, error)
}

// NewStsClient returns an STS client for the region.
// AssumeRoleWithSAML is an unsigned call so no credentials are resolved.
// With verifySSL false the TLS certificate of the endpoint is not checked.
func NewStsClient(ctx context.Context, region string, verifySSL bool) (*sts.Client, error) {
	if region == "" {
		region = DefaultStsRegion
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
		config.WithCredentialsProvider(aws.AnonymousCredentials{}),
	}
	if !verifySSL {
		opts = append(opts, config.WithHTTPClient(awshttp.NewBuildableClient().WithTransportOptions(func(tr *http.Transport) {
			if tr.TLSClientConfig == nil {
				tr.TLSClientConfig = &tls.Config{}
			}
			tr.TLSClientConfig.InsecureSkipVerify = true
		})))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s, %w", err, ErrUnableSessionCreate)
	}
	return sts.NewFromConfig(cfg), nil
}

// LoginStsSaml exchanges saml response for STS creds
func LoginStsSaml(ctx context.Context, samlResponse string, role AWSRole, svc AuthSamlApi) (*AWSCredentials, error) {
	duration := role.Duration
	if duration <= 0 || duration > MaxSessionDuration {
		duration = MaxSessionDuration
	}

	params := &sts.AssumeRoleWithSAMLInput{
		PrincipalArn:    aws.String(role.PrincipalARN), // Required
		RoleArn:         aws.String(role.RoleARN),      // Required
		SAMLAssertion:   aws.String(samlResponse),      // Required
		DurationSeconds: aws.Int32(int32(duration)),
	}

	resp, err := svc.AssumeRoleWithSAML(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve STS credentials using SAML: %w, %w", &exchangeError{cause: err}, ErrExchangeFailed)
	}
	if resp.Credentials == nil {
		return nil, fmt.Errorf("response contained no credentials, %w", ErrExchangeFailed)
	}

	creds := &AWSCredentials{
		AWSAccessKey:    aws.ToString(resp.Credentials.AccessKeyId),
		AWSSecretKey:    aws.ToString(resp.Credentials.SecretAccessKey),
		AWSSessionToken: aws.ToString(resp.Credentials.SessionToken),
	}
	if resp.AssumedRoleUser != nil {
		creds.PrincipalARN = aws.ToString(resp.AssumedRoleUser.Arn)
	}
	if resp.Credentials.Expiration != nil {
		creds.Expires = resp.Credentials.Expiration.Local()
	}
	return creds, nil
}

// exchangeError prints the API error code and message instead of the full
// operation error chain, the chain stays reachable through Unwrap
type exchangeError struct {
	cause error
}

func (e *exchangeError) Error() string {
	var apiErr smithy.APIError
	if errors.As(e.cause, &apiErr) {
		return fmt.Sprintf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return e.cause.Error()
}

func (e *exchangeError) Unwrap() error {
	return e.cause
}
