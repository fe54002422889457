package source

import (
	"context"
	"fmt"
	"io"
	"math"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/time/rate"

	s3config "github.com/aws/aws-sdk-go-v2/config"

	"photopull/internal/config"
	"photopull/internal/pull"
)

// S3API is the subset of the S3 client the source uses. An interface so
// tests can provide a stub implementation.
type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Bucket layout of a photo library mirror:
//
//	Personal/<files>
//	Shared_With_Me/<files>
//	Shared_Albums/<album>/<files>
//
// Per-object user metadata carries what the listing alone cannot:
// asset-id, created (RFC 3339), latitude, longitude, and live-video
// (the key of a live photo's companion clip).
const (
	metaAssetID   = "asset-id"
	metaCreated   = "created"
	metaLatitude  = "latitude"
	metaLongitude = "longitude"
	metaLiveVideo = "live-video"
)

// S3Source enumerates and fetches assets from an S3-compatible photo
// library mirror.
type S3Source struct {
	client  S3API
	bucket  string
	limiter *rate.Limiter
	timeout time.Duration
	retries int
}

var _ pull.AssetSource = (*S3Source)(nil)

// NewS3Source creates a source from config, building a real S3 client.
func NewS3Source(cfg config.SourceConfig) (*S3Source, error) {
	region := cfg.S3Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := s3config.LoadDefaultConfig(
		context.TODO(),
		s3config.WithRegion(region),
		s3config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			// Path-style addressing for S3-compatible storage.
			o.UsePathStyle = true
		}
	})

	return NewS3SourceWithClient(client, cfg), nil
}

// NewS3SourceWithClient wires a source around an existing client.
func NewS3SourceWithClient(client S3API, cfg config.SourceConfig) *S3Source {
	var limiter *rate.Limiter
	if cfg.MaxRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxRPS), cfg.MaxRPS)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}

	return &S3Source{
		client:  client,
		bucket:  cfg.S3Bucket,
		limiter: limiter,
		timeout: timeout,
		retries: retries,
	}
}

func sectionPrefix(s pull.Section) string {
	return s.String() + "/"
}

// Sections returns the two fixed library sections plus one section per
// album prefix found under Shared_Albums/.
func (c *S3Source) Sections(ctx context.Context) ([]pull.Section, error) {
	sections := []pull.Section{pull.Personal(), pull.SharedWithMe()}

	resp, err := c.listWithRetry(ctx, &s3.ListObjectsV2Input{
		Bucket:    aws.String(c.bucket),
		Prefix:    aws.String("Shared_Albums/"),
		Delimiter: aws.String("/"),
	})
	if err != nil {
		return nil, fmt.Errorf("listing shared albums: %w", err)
	}

	for _, cp := range resp.CommonPrefixes {
		album := strings.TrimSuffix(strings.TrimPrefix(*cp.Prefix, "Shared_Albums/"), "/")
		if album != "" {
			sections = append(sections, pull.SharedAlbum(album))
		}
	}
	return sections, nil
}

// Enumerate pages through the section's prefix lazily, heading each
// object for its asset metadata. The channel closes when the listing is
// exhausted; a mid-stream fault is delivered once on the error channel.
func (c *S3Source) Enumerate(ctx context.Context, section pull.Section) (<-chan pull.Asset, <-chan error) {
	out := make(chan pull.Asset)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		prefix := sectionPrefix(section)
		var continuationToken *string
		for {
			resp, err := c.listWithRetry(ctx, &s3.ListObjectsV2Input{
				Bucket:            aws.String(c.bucket),
				Prefix:            aws.String(prefix),
				ContinuationToken: continuationToken,
			})
			if err != nil {
				errCh <- fmt.Errorf("listing %s: %w", prefix, err)
				return
			}

			for _, obj := range resp.Contents {
				key := *obj.Key
				if strings.HasSuffix(key, "/") {
					continue // directory marker
				}
				asset, err := c.buildAsset(ctx, section, key, obj.Size)
				if err != nil {
					errCh <- err
					return
				}
				select {
				case out <- asset:
				case <-ctx.Done():
					return
				}
			}

			if resp.IsTruncated != nil && aws.ToBool(resp.IsTruncated) {
				continuationToken = resp.NextContinuationToken
			} else {
				return
			}
		}
	}()

	return out, errCh
}

// buildAsset heads one object and assembles the Asset descriptor.
func (c *S3Source) buildAsset(ctx context.Context, section pull.Section, key string, size *int64) (pull.Asset, error) {
	head, err := c.headWithRetry(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return pull.Asset{}, fmt.Errorf("heading %s: %w", key, err)
	}

	filename := path.Base(key)
	a := pull.Asset{
		ID:       head.Metadata[metaAssetID],
		Filename: filename,
		Section:  section,
		Variants: map[string]pull.Variant{
			pull.VariantOriginal: {Type: variantType(filename), Ref: key, Size: aws.ToInt64(size)},
		},
	}

	if raw := head.Metadata[metaCreated]; raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			a.Created = t
		}
	}
	if lat, lon, ok := parseCoordinates(head.Metadata); ok {
		a.Location = &pull.Location{Latitude: lat, Longitude: lon}
	}
	if liveKey := head.Metadata[metaLiveVideo]; liveKey != "" {
		a.Variants[pull.VariantVideo] = pull.Variant{Type: "video", Ref: liveKey}
	}
	return a, nil
}

func variantType(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".mov", ".mp4", ".m4v":
		return "video"
	default:
		return "image"
	}
}

func parseCoordinates(metadata map[string]string) (float64, float64, bool) {
	latRaw, lonRaw := metadata[metaLatitude], metadata[metaLongitude]
	if latRaw == "" || lonRaw == "" {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err := strconv.ParseFloat(lonRaw, 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

// Fetch opens the byte stream of one variant. The per-call timeout is
// released when the returned reader is closed.
func (c *S3Source) Fetch(ctx context.Context, asset pull.Asset, variant string) (io.ReadCloser, error) {
	v, ok := asset.Variants[variant]
	if !ok {
		return nil, fmt.Errorf("asset %s has no %q variant", asset.Filename, variant)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	resp, err := c.client.GetObject(reqCtx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(v.Ref),
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("getting %s: %w", v.Ref, err)
	}
	return &cancelReadCloser{ReadCloser: resp.Body, cancel: cancel}, nil
}

// cancelReadCloser releases the request context when the body closes.
type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

// listWithRetry executes a listing call with rate limiting, a bounded
// timeout, and exponential backoff between attempts.
func (c *S3Source) listWithRetry(ctx context.Context, input *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
	var out *s3.ListObjectsV2Output
	err := c.withRetry(ctx, func(reqCtx context.Context) error {
		var err error
		out, err = c.client.ListObjectsV2(reqCtx, input)
		return err
	})
	return out, err
}

func (c *S3Source) headWithRetry(ctx context.Context, input *s3.HeadObjectInput) (*s3.HeadObjectOutput, error) {
	var out *s3.HeadObjectOutput
	err := c.withRetry(ctx, func(reqCtx context.Context) error {
		var err error
		out, err = c.client.HeadObject(reqCtx, input)
		return err
	})
	return out, err
}

func (c *S3Source) withRetry(ctx context.Context, fn func(context.Context) error) error {
	var lastErr error
	for i := 0; i < c.retries; i++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limiter: %w", err)
			}
		}

		reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := fn(reqCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		backoff := time.Duration(math.Pow(2, float64(i))) * 200 * time.Millisecond
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("all retries failed: %w", lastErr)
}
