package media

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pedcare/pedcare/internal/config"
)

// s3API is the subset of the S3 client used by S3Store.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// s3Presigner generates time-limited download links for stored objects.
type s3Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// downloadLinkTTL is how long presigned download links remain valid.
const downloadLinkTTL = 24 * time.Hour

// S3Store uploads to an S3 bucket. The public reference is formed from the
// configured public base URL and the object key; a presigned download link
// is attached when one can be generated.
type S3Store struct {
	client    s3API
	presigner s3Presigner
	bucket    string
	prefix    string
	publicURL string
}

// NewS3Store builds an S3Store using the default AWS credential chain.
func NewS3Store(ctx context.Context, cfg *config.Config) (*S3Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)

	publicURL := strings.TrimRight(cfg.S3PublicURL, "/")
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, awsCfg.Region)
	}

	return &S3Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.S3Bucket,
		prefix:    strings.Trim(cfg.S3Prefix, "/"),
		publicURL: publicURL,
	}, nil
}

// Put uploads the stream to the bucket. The reference is returned only after
// S3 acknowledges the put; a backend failure is surfaced as-is with no
// fallback to local storage.
func (s *S3Store) Put(ctx context.Context, filename, contentType string, r io.Reader) (*Object, error) {
	key := filename
	if s.prefix != "" {
		key = s.prefix + "/" + filename
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("upload to s3: %w", err)
	}

	obj := &Object{URL: s.publicURL + "/" + key}

	// The download link is a convenience on top of the durable reference;
	// the upload has already committed, so a presign failure is not fatal.
	presigned, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(downloadLinkTTL))
	if err == nil {
		obj.DownloadURL = presigned.URL
	}

	return obj, nil
}
