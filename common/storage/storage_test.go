package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Laisky/errors/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	body  string
	err   error
	input *s3.GetObjectInput
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(strings.NewReader(f.body)),
		ContentLength: aws.Int64(int64(len(f.body))),
	}, nil
}

func TestParseLocation(t *testing.T) {
	loc, err := ParseLocation("s3://my-bucket/data/squad.jsonl")
	require.NoError(t, err)
	require.True(t, loc.IsS3())
	require.Equal(t, "my-bucket", loc.Bucket)
	require.Equal(t, "data/squad.jsonl", loc.Key)
	require.Equal(t, "squad.jsonl", loc.Name())
	require.Equal(t, "s3://my-bucket/data/squad.jsonl", loc.String())

	t.Setenv("DATA_DIR", "/srv/data")
	loc, err = ParseLocation("$DATA_DIR/a.jsonl")
	require.NoError(t, err)
	require.False(t, loc.IsS3())
	require.Equal(t, "/srv/data/a.jsonl", loc.Path)

	for _, bad := range []string{"", "s3://", "s3://bucket", "s3://bucket/", "s3:///key"} {
		_, err := ParseLocation(bad)
		require.Error(t, err, bad)
	}
}

func TestLoadFromS3(t *testing.T) {
	client := &fakeS3{body: `{"question":"q"}` + "\n"}
	l := &Loader{S3: client, MaxBytes: 1 << 10}

	loc, err := ParseLocation("s3://b/k.jsonl")
	require.NoError(t, err)
	b, err := l.Load(context.Background(), loc)
	require.NoError(t, err)
	require.Equal(t, client.body, string(b))
	require.Equal(t, "b", aws.ToString(client.input.Bucket))
	require.Equal(t, "k.jsonl", aws.ToString(client.input.Key))
}

func TestLoadFromS3Errors(t *testing.T) {
	loc := Location{Bucket: "b", Key: "k"}

	_, err := (&Loader{}).Load(context.Background(), loc)
	require.Error(t, err)

	l := &Loader{S3: &fakeS3{err: &smithy.GenericAPIError{Code: "NoSuchKey", Message: "missing"}}}
	_, err = l.Load(context.Background(), loc)
	require.Error(t, err)
	require.Contains(t, err.Error(), "NoSuchKey")

	l = &Loader{S3: &fakeS3{body: strings.Repeat("x", 20)}, MaxBytes: 10}
	_, err = l.Load(context.Background(), loc)
	require.True(t, errors.Is(err, ErrTooLarge))
}

func TestLoadLocal(t *testing.T) {
	p := filepath.Join(t.TempDir(), "d.jsonl")
	require.NoError(t, os.WriteFile(p, []byte("{}\n"), 0o600))

	l := &Loader{MaxBytes: 100}
	b, err := l.Load(context.Background(), Location{Path: p})
	require.NoError(t, err)
	require.Equal(t, "{}\n", string(b))

	_, err = l.Load(context.Background(), Location{Path: p + ".missing"})
	require.Error(t, err)
}

func TestReadLimited(t *testing.T) {
	b, err := ReadLimited(strings.NewReader("12345"), 5)
	require.NoError(t, err)
	require.Equal(t, "12345", string(b))

	_, err = ReadLimited(strings.NewReader("123456"), 5)
	require.ErrorIs(t, err, ErrTooLarge)

	b, err = ReadLimited(strings.NewReader("123456"), 0)
	require.NoError(t, err)
	require.Len(t, b, 6)
}

func TestConfine(t *testing.T) {
	root := t.TempDir()
	inside := filepath.Join(root, "squad.jsonl")
	require.NoError(t, os.WriteFile(inside, []byte("{}\n"), 0o600))
	outside := filepath.Join(t.TempDir(), "secret.jsonl")
	require.NoError(t, os.WriteFile(outside, []byte("{}\n"), 0o600))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link.jsonl")))

	s3loc := Location{Bucket: "b", Key: "k"}
	loc, err := Confine(s3loc, "")
	require.NoError(t, err)
	require.Equal(t, s3loc, loc)

	_, err = Confine(Location{Path: inside}, "")
	require.ErrorIs(t, err, ErrLocalPathDenied)

	loc, err = Confine(Location{Path: "squad.jsonl"}, root)
	require.NoError(t, err)
	b, err := (&Loader{}).Load(context.Background(), loc)
	require.NoError(t, err)
	require.Equal(t, "{}\n", string(b))

	loc, err = Confine(Location{Path: inside}, root)
	require.NoError(t, err)
	require.Equal(t, "squad.jsonl", filepath.Base(loc.Path))

	for _, bad := range []string{
		"/etc/passwd",
		outside,
		"../secret.jsonl",
		"sub/../../secret.jsonl",
		"link.jsonl",
		".",
		root,
	} {
		_, err := Confine(Location{Path: bad}, root)
		require.ErrorIs(t, err, ErrLocalPathDenied, bad)
	}
}
