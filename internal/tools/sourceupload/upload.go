// Package sourceupload pushes the raw dataset from a workstation into the
// bucket the insights service reads from.
package sourceupload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/joho/godotenv"

	awsclients "sector-insights/internal/common/aws"
	"sector-insights/internal/common/errors"
	"sector-insights/internal/common/logger"
)

// Environment variable names read from the .env file.
const (
	EnvAccessKeyID     = "AWS_ACCESS_KEY_ID"
	EnvSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	EnvBucket          = "AWS_BUCKET_NAME"
	EnvFilePath        = "LOCAL_FILE_PATH"
	EnvObjectKey       = "AWS_S3_OBJECT"
	EnvRegion          = "AWS_REGION"
)

type Settings struct {
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	FilePath        string
	ObjectKey       string
	Region          string
}

// LoadSettings reads envPath. Variables already present in the process
// environment take precedence over the file, as with godotenv.Load.
func LoadSettings(envPath string) (Settings, error) {
	values, err := godotenv.Read(envPath)
	if err != nil {
		return Settings{}, errors.NewUploadPrerequisiteError([]string{fmt.Sprintf(".env file (%s)", envPath)})
	}

	get := func(key string) string {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v
		}
		return values[key]
	}

	return Settings{
		AccessKeyID:     get(EnvAccessKeyID),
		SecretAccessKey: get(EnvSecretAccessKey),
		Bucket:          get(EnvBucket),
		FilePath:        get(EnvFilePath),
		ObjectKey:       get(EnvObjectKey),
		Region:          get(EnvRegion),
	}, nil
}

// Key is the object key to write, defaulting to the local file name.
func (s Settings) Key() string {
	if s.ObjectKey != "" {
		return s.ObjectKey
	}
	return filepath.Base(s.FilePath)
}

// Missing lists the required settings that are empty.
func (s Settings) Missing() []string {
	var missing []string
	if s.Bucket == "" {
		missing = append(missing, EnvBucket)
	}
	if s.FilePath == "" {
		missing = append(missing, EnvFilePath)
	}
	if s.AccessKeyID == "" {
		missing = append(missing, EnvAccessKeyID)
	}
	if s.SecretAccessKey == "" {
		missing = append(missing, EnvSecretAccessKey)
	}
	return missing
}

// Diagnose prints which settings were detected.
func Diagnose(w io.Writer, s Settings) {
	mark := func(ok bool, yes, no string) string {
		if ok {
			return yes
		}
		return no
	}
	fmt.Fprintln(w, "--- Settings check ---")
	fmt.Fprintf(w, "Bucket:     %s\n", mark(s.Bucket != "", "detected", "EMPTY"))
	fmt.Fprintf(w, "File path:  %s\n", mark(s.FilePath != "", "detected", "EMPTY"))
	fmt.Fprintf(w, "AWS keys:   %s\n", mark(s.AccessKeyID != "" && s.SecretAccessKey != "", "detected", "MISSING"))
	fmt.Fprintln(w, "----------------------")
}

// ObjectUploader is satisfied by *aws.S3Client.
type ObjectUploader interface {
	Upload(ctx context.Context, bucket, key string, body io.Reader) (string, error)
}

// NewS3Uploader builds an S3 client from the static keys in s.
func NewS3Uploader(ctx context.Context, s Settings) (*awsclients.S3Client, error) {
	return awsclients.NewS3Client(ctx, s.Region,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(s.AccessKeyID, s.SecretAccessKey, "")),
	)
}

type Runner struct {
	uploader ObjectUploader
	logger   logger.Logger
}

func NewRunner(uploader ObjectUploader, log logger.Logger) *Runner {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Runner{uploader: uploader, logger: log}
}

// Run checks every prerequisite before opening the file; nothing is sent
// unless all of them hold.
func (r *Runner) Run(ctx context.Context, s Settings) (string, error) {
	if missing := s.Missing(); len(missing) > 0 {
		return "", errors.NewUploadPrerequisiteError(missing)
	}

	info, err := os.Stat(s.FilePath)
	if err != nil || info.IsDir() {
		return "", errors.NewUploadPrerequisiteError([]string{fmt.Sprintf("local file %s", s.FilePath)})
	}

	f, err := os.Open(s.FilePath)
	if err != nil {
		return "", errors.NewUploadPrerequisiteError([]string{fmt.Sprintf("local file %s", s.FilePath)})
	}
	defer f.Close()

	key := s.Key()
	r.logger.Info("Starting upload", map[string]interface{}{
		"bucket": s.Bucket,
		"key":    key,
		"bytes":  info.Size(),
	})

	location, err := r.uploader.Upload(ctx, s.Bucket, key, f)
	if err != nil {
		return "", errors.NewUploadError(s.Bucket, key, err)
	}

	r.logger.Info("Upload complete", map[string]interface{}{
		"location": location,
	})
	return location, nil
}
