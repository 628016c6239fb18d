package backup

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path"
	"strings"
)

// S3Config holds uploader parameters.
type S3Config struct {
	BucketURL    string
	Endpoint     string
	Region       string
	AccessKey    string
	SecretKey    string
	SessionToken string
	UseSSL       bool
}

// S3Uploader copies exports with the AWS CLI (`aws s3 cp`), which also
// covers S3-compatible endpoints such as MinIO.
type S3Uploader struct {
	target bucketTarget
	cfg    S3Config
}

type bucketTarget struct {
	bucket string
	prefix string
}

// objectURL returns the s3:// destination for a local file.
func (b bucketTarget) objectURL(localPath string) string {
	key := path.Base(localPath)
	if b.prefix != "" {
		key = path.Join(b.prefix, key)
	}
	return "s3://" + b.bucket + "/" + key
}

// NewS3Uploader parses BucketURL (s3://bucket/optional/prefix) and checks
// that credentials and the aws binary are available.
func NewS3Uploader(cfg S3Config) (*S3Uploader, error) {
	target, err := parseBucketURL(cfg.BucketURL)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.AccessKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, fmt.Errorf("s3: access key and secret key are required")
	}
	if _, err := exec.LookPath("aws"); err != nil {
		return nil, fmt.Errorf("s3: aws cli not found in PATH")
	}
	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-1"
	}
	return &S3Uploader{target: target, cfg: cfg}, nil
}

// UploadFile copies localPath under the configured prefix.
func (u *S3Uploader) UploadFile(ctx context.Context, localPath string) error {
	cmd := exec.CommandContext(ctx, "aws", u.args(localPath)...)
	cmd.Env = append(os.Environ(), u.env()...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("s3 upload command failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (u *S3Uploader) args(localPath string) []string {
	args := []string{"s3", "cp", localPath, u.target.objectURL(localPath), "--region", u.cfg.Region, "--only-show-errors"}
	if endpoint := endpointURL(u.cfg.Endpoint, u.cfg.UseSSL); endpoint != "" {
		args = append(args, "--endpoint-url", endpoint)
	}
	return args
}

func (u *S3Uploader) env() []string {
	env := []string{
		"AWS_ACCESS_KEY_ID=" + u.cfg.AccessKey,
		"AWS_SECRET_ACCESS_KEY=" + u.cfg.SecretKey,
		"AWS_DEFAULT_REGION=" + u.cfg.Region,
	}
	if strings.TrimSpace(u.cfg.SessionToken) != "" {
		env = append(env, "AWS_SESSION_TOKEN="+u.cfg.SessionToken)
	}
	return env
}

// endpointURL adds a scheme to a bare host:port endpoint.
func endpointURL(endpoint string, useSSL bool) string {
	endpoint = strings.TrimSpace(endpoint)
	switch {
	case endpoint == "":
		return ""
	case strings.HasPrefix(endpoint, "http://"), strings.HasPrefix(endpoint, "https://"):
		return endpoint
	case useSSL:
		return "https://" + endpoint
	default:
		return "http://" + endpoint
	}
}

func parseBucketURL(raw string) (bucketTarget, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return bucketTarget{}, fmt.Errorf("s3: parse bucket-url: %w", err)
	}
	if u.Scheme != "s3" {
		return bucketTarget{}, fmt.Errorf("s3: bucket-url must use s3:// scheme")
	}
	if strings.TrimSpace(u.Host) == "" {
		return bucketTarget{}, fmt.Errorf("s3: bucket-url missing bucket name")
	}
	return bucketTarget{bucket: u.Host, prefix: strings.Trim(u.Path, "/")}, nil
}
