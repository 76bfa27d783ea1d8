// Package s3 implements storage.Backend on Amazon S3 and S3-compatible
// services such as MinIO.
package s3

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/kbukum/blobkit/logger"
	"github.com/kbukum/blobkit/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderS3, func(ep storage.Endpoint, log *logger.Logger) (storage.Backend, error) {
		return New(context.Background(), ep, log)
	})
}

// MinPresignTTL is the shortest lifetime S3 accepts for a presigned URL.
// Shorter or already elapsed expiries are signed with this lifetime,
// backdated so the URL still expires at the requested time.
const MinPresignTTL = time.Second

// Backend implements storage.Backend using the S3 API.
type Backend struct {
	client  *awss3.Client
	presign *awss3.PresignClient
	ep      storage.Endpoint
	log     *logger.Logger
	now     func() time.Time
}

var _ storage.Backend = (*Backend)(nil)

// New creates an S3 backend for the endpoint. Static credentials are used
// when the endpoint carries them; otherwise the default AWS credential chain.
func New(ctx context.Context, ep storage.Endpoint, log *logger.Logger) (*Backend, error) {
	if ep.Region == "" {
		ep.Region = storage.DefaultRegion
	}
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(ep.Region),
	}
	if ep.AccessKey != "" && ep.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(ep.AccessKey, ep.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if ep.Address != "" {
			o.BaseEndpoint = aws.String(ep.Address)
		}
		o.UsePathStyle = ep.PathStyle
	})

	if log == nil {
		log = logger.NewNop()
	}
	return &Backend{
		client:  client,
		presign: awss3.NewPresignClient(client),
		ep:      ep,
		log:     log.WithComponent("storage.s3"),
		now:     time.Now,
	}, nil
}

// Name returns the provider name.
func (b *Backend) Name() string { return storage.ProviderS3 }

// IsAvailable reports whether the service answers a bucket listing.
func (b *Backend) IsAvailable(ctx context.Context) bool {
	_, err := b.client.ListBuckets(ctx, &awss3.ListBucketsInput{MaxBuckets: aws.Int32(1)})
	return err == nil
}

// CreateContainerIfNotExists creates the bucket unless it already exists.
// Existing buckets are left untouched; only a bucket created by this call
// gets the public read policy. CreateBucket alone cannot tell the two apart
// because us-east-1 answers 200 for buckets the caller already owns.
func (b *Backend) CreateContainerIfNotExists(ctx context.Context, name string, access storage.Access) error {
	exists, err := b.bucketExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	in := &awss3.CreateBucketInput{Bucket: aws.String(name)}
	if b.ep.Region != storage.DefaultRegion {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(b.ep.Region),
		}
	}

	if _, err := b.client.CreateBucket(ctx, in); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if stderrors.As(err, &owned) || apiErrorCode(err) == "BucketAlreadyOwnedByYou" {
			// Created concurrently by another client; not ours to configure.
			return nil
		}
		return fmt.Errorf("s3: create bucket %s: %w", name, err)
	}
	b.log.Debug("bucket created", logger.Fields(logger.FieldContainer, name, logger.FieldAccess, string(access)))

	if access != storage.AccessPublicRead {
		return nil
	}
	return b.makePublic(ctx, name)
}

func (b *Backend) bucketExists(ctx context.Context, name string) (bool, error) {
	_, err := b.client.HeadBucket(ctx, &awss3.HeadBucketInput{Bucket: aws.String(name)})
	switch {
	case err == nil:
		return true, nil
	case isNotFound(err) || apiErrorCode(err) == "NoSuchBucket":
		return false, nil
	default:
		return false, fmt.Errorf("s3: head bucket %s: %w", name, err)
	}
}

func (b *Backend) makePublic(ctx context.Context, name string) error {
	// MinIO does not implement public access blocks.
	if _, err := b.client.DeletePublicAccessBlock(ctx, &awss3.DeletePublicAccessBlockInput{Bucket: aws.String(name)}); err != nil {
		b.log.Debug("public access block not removed", logger.MergeWithError(logger.Fields(logger.FieldContainer, name), err))
	}

	policy, err := publicReadPolicy(name)
	if err != nil {
		return err
	}
	if _, err := b.client.PutBucketPolicy(ctx, &awss3.PutBucketPolicyInput{
		Bucket: aws.String(name),
		Policy: aws.String(policy),
	}); err != nil {
		return fmt.Errorf("s3: set public policy on %s: %w", name, err)
	}
	return nil
}

// ContainerAccess derives the access mode from the bucket policy.
func (b *Backend) ContainerAccess(ctx context.Context, name string) (storage.Access, error) {
	out, err := b.client.GetBucketPolicy(ctx, &awss3.GetBucketPolicyInput{Bucket: aws.String(name)})
	if err != nil {
		if apiErrorCode(err) == "NoSuchBucketPolicy" {
			return storage.AccessPrivate, nil
		}
		return "", fmt.Errorf("s3: get bucket policy %s: %w", name, err)
	}
	return accessFromPolicy(name, aws.ToString(out.Policy))
}

// PutObject replaces the object. Non-seekable readers are buffered so the
// payload can be signed.
func (b *Backend) PutObject(ctx context.Context, container, key string, r io.Reader) error {
	body, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("s3: read upload body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	if _, err := b.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(key),
		Body:   body,
	}); err != nil {
		return fmt.Errorf("s3: put %s/%s: %w", container, key, err)
	}
	return nil
}

// SetProperties rewrites the object's metadata by copying it onto itself.
// The stored content type is kept when props carries none.
func (b *Backend) SetProperties(ctx context.Context, container, key string, props storage.Properties) error {
	contentType := props.ContentType
	if contentType == "" {
		head, err := b.client.HeadObject(ctx, &awss3.HeadObjectInput{
			Bucket: aws.String(container),
			Key:    aws.String(key),
		})
		if err != nil {
			return b.objectError("head", container, key, err)
		}
		contentType = aws.ToString(head.ContentType)
	}

	in := &awss3.CopyObjectInput{
		Bucket:            aws.String(container),
		Key:               aws.String(key),
		CopySource:        aws.String(copySource(container, key)),
		MetadataDirective: types.MetadataDirectiveReplace,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if props.CacheControl != "" {
		in.CacheControl = aws.String(props.CacheControl)
	}
	if _, err := b.client.CopyObject(ctx, in); err != nil {
		return b.objectError("set properties", container, key, err)
	}
	return nil
}

// GetObject opens the object body.
func (b *Backend) GetObject(ctx context.Context, container, key string) (io.ReadCloser, error) {
	out, err := b.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, b.objectError("get", container, key, err)
	}
	return out.Body, nil
}

// DeleteObject removes the object. S3 reports success for absent keys.
func (b *Backend) DeleteObject(ctx context.Context, container, key string) error {
	_, err := b.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("s3: delete %s/%s: %w", container, key, err)
	}
	return nil
}

// ObjectURL returns the unsigned object address.
func (b *Backend) ObjectURL(container, key string) (string, error) {
	return objectURL(b.ep, container, key)
}

// SignRead presigns a GetObject request and returns its query string.
// The request is signed at Expiry minus its lifetime, so an elapsed expiry
// produces a URL that S3 already rejects.
func (b *Backend) SignRead(ctx context.Context, container, key string, policy storage.ReadPolicy) (string, error) {
	ttl := policy.Expiry.Sub(b.now()).Truncate(time.Second)
	if ttl < MinPresignTTL {
		ttl = MinPresignTTL
	}
	signAt := policy.Expiry.Add(-ttl)

	req, err := b.presign.PresignGetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(key),
	}, awss3.WithPresignExpires(ttl), func(o *awss3.PresignOptions) {
		o.Presigner = signingTimePresigner{inner: o.Presigner, at: signAt}
	})
	if err != nil {
		return "", fmt.Errorf("s3: presign %s/%s: %w", container, key, err)
	}

	u, err := url.Parse(req.URL)
	if err != nil {
		return "", fmt.Errorf("s3: parse presigned url: %w", err)
	}
	return u.RawQuery, nil
}

// signingTimePresigner signs with a fixed signing time instead of the
// current clock.
type signingTimePresigner struct {
	inner awss3.HTTPPresignerV4
	at    time.Time
}

func (p signingTimePresigner) PresignHTTP(
	ctx context.Context, creds aws.Credentials, r *http.Request,
	payloadHash, service, region string, _ time.Time,
	optFns ...func(*v4.SignerOptions),
) (string, http.Header, error) {
	return p.inner.PresignHTTP(ctx, creds, r, payloadHash, service, region, p.at, optFns...)
}

func (b *Backend) objectError(op, container, key string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("s3: %s %s/%s: %w", op, container, key, storage.ErrObjectNotFound)
	}
	return fmt.Errorf("s3: %s %s/%s: %w", op, container, key, err)
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	if stderrors.As(err, &nsk) || stderrors.As(err, &nf) {
		return true
	}
	switch apiErrorCode(err) {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}

func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
