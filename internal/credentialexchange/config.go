package credentialexchange

const (
	SELF_NAME = "aws-adfs-auth"
	// MaxSessionDuration is the ceiling, in seconds, requested for every session
	MaxSessionDuration = 3600
	// DefaultStsRegion is used when no region is configured
	DefaultStsRegion = "us-east-1"
)

// keys of a credentials profile
const (
	KeyOutput          = "output"
	KeyRegion          = "region"
	KeyAccessKeyId     = "aws_access_key_id"
	KeySecretAccessKey = "aws_secret_access_key"
	KeySessionToken    = "aws_session_token"

	BackupSuffix = ".backup"
)
