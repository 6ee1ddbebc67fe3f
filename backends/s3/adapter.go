// Package s3 implements the backend capability interface over an S3 or
// S3-compatible (MinIO) bucket. Directories are modeled as key prefixes with
// zero-byte marker objects.
package s3

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	"go.uber.org/zap"
)

// Options configures an S3 mount.
type Options struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	// Endpoint overrides the AWS endpoint, e.g. for MinIO.
	Endpoint string
}

// Adapter is a backends.FS over one S3 bucket.
type Adapter struct {
	client *awss3.S3
	bucket string
	logger *zap.Logger
}

// New creates an S3 storage adapter and verifies bucket access.
func New(opts Options, logger *zap.Logger) (*Adapter, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket name is required")
	}

	awsConfig := &aws.Config{
		Region: aws.String(opts.Region),
		Credentials: credentials.NewStaticCredentials(
			opts.AccessKey,
			opts.SecretKey,
			"",
		),
	}
	if opts.Endpoint != "" {
		awsConfig.Endpoint = aws.String(opts.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true) // required for MinIO
		awsConfig.S3DisableContentMD5Validation = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	client := awss3.New(sess)

	if _, err := client.HeadBucket(&awss3.HeadBucketInput{
		Bucket: aws.String(opts.Bucket),
	}); err != nil {
		return nil, fmt.Errorf("failed to access S3 bucket %s: %w", opts.Bucket, err)
	}

	return &Adapter{
		client: client,
		bucket: opts.Bucket,
		logger: logger,
	}, nil
}

// Close closes any resources used by the S3 adapter.
func (a *Adapter) Close() error {
	return nil
}

// pathToKey converts a virtual path to an S3 object key.
func pathToKey(path string) string {
	return strings.TrimPrefix(path, "/")
}

// dirPrefix converts a virtual directory path to a trailing-slash prefix,
// empty for the root.
func dirPrefix(path string) string {
	prefix := strings.TrimPrefix(path, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}

// isNotFound checks whether an S3 error indicates a missing object.
func isNotFound(err error) bool {
	return err != nil &&
		(strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "NotFound"))
}
