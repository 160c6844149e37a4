// Package storage reads dataset files from a local path or an s3:// location.
package storage

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/songquanpeng/prompt-studio/common"
	"github.com/songquanpeng/prompt-studio/common/config"
)

const s3Scheme = "s3://"

var (
	ErrTooLarge = errors.New("dataset exceeds the size limit")
	// ErrLocalPathDenied is returned by Confine for local paths outside the dataset directory.
	ErrLocalPathDenied = errors.New("local dataset path is not allowed")
)

// GetObjectAPI is the subset of the S3 client used to fetch datasets.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Location is a parsed dataset reference.
type Location struct {
	Bucket string
	Key    string
	Path   string
}

func (l Location) IsS3() bool { return l.Bucket != "" }

// Name is the base file name of the location, used as the dataset source label.
func (l Location) Name() string {
	if l.IsS3() {
		return path.Base(l.Key)
	}
	return path.Base(l.Path)
}

func (l Location) String() string {
	if l.IsS3() {
		return s3Scheme + l.Bucket + "/" + l.Key
	}
	return l.Path
}

// ParseLocation accepts s3://bucket/key or a local path. Local paths go through common.ExpandPath.
func ParseLocation(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, errors.New("dataset location is empty")
	}

	if !strings.HasPrefix(strings.ToLower(raw), s3Scheme) {
		return Location{Path: common.ExpandPath(raw)}, nil
	}

	bucket, key, ok := strings.Cut(raw[len(s3Scheme):], "/")
	if !ok || bucket == "" || strings.TrimLeft(key, "/") == "" {
		return Location{}, errors.Errorf("invalid s3 location %q, want s3://bucket/key", raw)
	}
	return Location{Bucket: bucket, Key: strings.TrimLeft(key, "/")}, nil
}

// Confine keeps local locations inside root. Relative paths are taken relative to root and
// symlinks are resolved before the check. S3 locations pass through. An empty root denies every
// local path.
func Confine(loc Location, root string) (Location, error) {
	if loc.IsS3() {
		return loc, nil
	}
	if strings.TrimSpace(root) == "" {
		return Location{}, errors.Wrapf(ErrLocalPathDenied, "%s, set DATASET_DIR or use s3://", loc.Path)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Location{}, errors.Wrapf(err, "resolve dataset dir %s", root)
	}
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = resolved
	}

	p := loc.Path
	if !filepath.IsAbs(p) {
		p = filepath.Join(absRoot, p)
	}
	p = filepath.Clean(p)
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		p = resolved
	}

	rel, err := filepath.Rel(absRoot, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return Location{}, errors.Wrapf(ErrLocalPathDenied, "%s is outside the dataset dir", loc.Path)
	}
	return Location{Path: p}, nil
}

// Loader fetches dataset bytes. S3 may be nil when only local files are used.
type Loader struct {
	S3       GetObjectAPI
	MaxBytes int64
	// LocalRoot is the only directory the HTTP API may read local datasets from. Empty allows
	// s3:// only. Load itself does not enforce it; callers serving untrusted input use Confine.
	LocalRoot string
}

// NewLoader builds a loader with the configured size limit and dataset dir.
func NewLoader(client GetObjectAPI) *Loader {
	return &Loader{S3: client, MaxBytes: config.MaxDatasetBytes(), LocalRoot: config.DatasetDir}
}

// Load reads the whole dataset at loc.
func (l *Loader) Load(ctx context.Context, loc Location) ([]byte, error) {
	if !loc.IsS3() {
		f, err := os.Open(loc.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "open dataset %s", loc.Path)
		}
		defer f.Close()
		return ReadLimited(f, l.MaxBytes)
	}

	if l.S3 == nil {
		return nil, errors.Errorf("s3 is not configured, cannot read %s", loc)
	}

	ctx, cancel := context.WithTimeout(ctx, config.VendorTimeout)
	defer cancel()

	out, err := l.S3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return nil, errors.Wrapf(err, "get %s: %s", loc, apiErr.ErrorCode())
		}
		return nil, errors.Wrapf(err, "get %s", loc)
	}
	defer out.Body.Close()

	if l.MaxBytes > 0 && out.ContentLength != nil && *out.ContentLength > l.MaxBytes {
		return nil, errors.Wrapf(ErrTooLarge, "%s is %d bytes", loc, *out.ContentLength)
	}
	return ReadLimited(out.Body, l.MaxBytes)
}

// ReadLimited reads r fully and fails with ErrTooLarge past limit bytes. limit <= 0 disables the limit.
func ReadLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, errors.Wrap(err, "read dataset")
		}
		return b, nil
	}

	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, errors.Wrap(err, "read dataset")
	}
	if int64(len(b)) > limit {
		return nil, ErrTooLarge
	}
	return b, nil
}
