package backup

import (
	"reflect"
	"testing"
)

func TestParseBucketURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw     string
		want    bucketTarget
		wantErr bool
	}{
		{"s3://pool-backups", bucketTarget{bucket: "pool-backups"}, false},
		{"s3://pool-backups/history/daily/", bucketTarget{bucket: "pool-backups", prefix: "history/daily"}, false},
		{"https://pool-backups/x", bucketTarget{}, true},
		{"s3:///nobucket", bucketTarget{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseBucketURL(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEndpointURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		endpoint string
		ssl      bool
		want     string
	}{
		{"", true, ""},
		{"minio:9000", false, "http://minio:9000"},
		{"s3.example.com", true, "https://s3.example.com"},
		{"http://already", true, "http://already"},
	}
	for _, tt := range tests {
		if got := endpointURL(tt.endpoint, tt.ssl); got != tt.want {
			t.Errorf("endpointURL(%q, %v) = %q, want %q", tt.endpoint, tt.ssl, got, tt.want)
		}
	}
}

func TestUploaderArgsAndEnv(t *testing.T) {
	t.Parallel()
	u := &S3Uploader{
		target: bucketTarget{bucket: "b", prefix: "p"},
		cfg:    S3Config{Region: "eu-west-1", Endpoint: "minio:9000", AccessKey: "ak", SecretKey: "sk", SessionToken: "tok"},
	}
	wantArgs := []string{"s3", "cp", "/tmp/x.parquet", "s3://b/p/x.parquet", "--region", "eu-west-1", "--only-show-errors", "--endpoint-url", "http://minio:9000"}
	if got := u.args("/tmp/x.parquet"); !reflect.DeepEqual(got, wantArgs) {
		t.Errorf("args = %v", got)
	}
	wantEnv := []string{"AWS_ACCESS_KEY_ID=ak", "AWS_SECRET_ACCESS_KEY=sk", "AWS_DEFAULT_REGION=eu-west-1", "AWS_SESSION_TOKEN=tok"}
	if got := u.env(); !reflect.DeepEqual(got, wantEnv) {
		t.Errorf("env = %v", got)
	}
}

func TestNewS3Uploader_RequiresCredentials(t *testing.T) {
	t.Parallel()
	if _, err := NewS3Uploader(S3Config{BucketURL: "s3://b"}); err == nil {
		t.Fatal("expected error without credentials")
	}
}
