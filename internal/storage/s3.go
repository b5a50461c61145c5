package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"strings"
	"time"

	"github.com/isEarth/earth-api/internal/util"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func NewS3Client(ctx context.Context) *s3.Client {
	region := util.GetEnv("AWS_REGION")
	endpoint := util.GetEnv("AWS_ENDPOINT")
	accessKey := util.GetEnv("AWS_ACCESS_KEY")
	secretKey := util.GetEnv("AWS_SECRET_KEY")
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(region),
		config.WithBaseEndpoint(endpoint),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey,
			secretKey,
			"",
		)),
	)
	if err != nil {
		return nil
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return client
}

func GetFile(ctx context.Context, client *s3.Client, key string) ([]byte, error) {
	bucket := util.GetEnv("AWS_BUCKET")
	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get file from S3: %w", err)
	}
	defer result.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, result.Body); err != nil {
		return nil, fmt.Errorf("failed to read file contents: %w", err)
	}

	return buf.Bytes(), nil
}

func PutFile(ctx context.Context, client *s3.Client, path string, name string, key string, file io.ReadSeeker) (string, error) {
	bucket := util.GetEnv("AWS_BUCKET")
	splitExt := strings.Split(name, ".")
	ext := splitExt[len(splitExt)-1]
	mimeType := mime.TypeByExtension("." + ext)
	objectKey := fmt.Sprintf("%s/%s.%s", path, key, ext)
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(objectKey),
		Body:        file,
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to S3: %w", err)
	}

	return objectKey, nil
}

// PresignDownload returns a time-limited GET link for an object. When
// AWS_PUBLIC_ENDPOINT is set the link is signed against that endpoint so
// the signature matches the Host header the client will send.
func PresignDownload(ctx context.Context, baseClient *s3.Client, key string) (string, error) {
	bucket := util.GetEnv("AWS_BUCKET")
	publicEndpoint := util.GetEnvString("AWS_PUBLIC_ENDPOINT", "")

	signClient := baseClient
	prefix := ""
	if publicEndpoint != "" {
		publicURL, err := url.Parse(publicEndpoint)
		if err != nil || publicURL.Scheme == "" || publicURL.Host == "" {
			return "", fmt.Errorf("invalid AWS_PUBLIC_ENDPOINT: %s", publicEndpoint)
		}
		prefix = strings.TrimSuffix(publicURL.Path, "/")

		signClient = s3.NewFromConfig(
			aws.Config{
				Region:      baseClient.Options().Region,
				Credentials: baseClient.Options().Credentials,
				HTTPClient:  baseClient.Options().HTTPClient,
			},
			func(o *s3.Options) {
				o.BaseEndpoint = aws.String(fmt.Sprintf("%s://%s", publicURL.Scheme, publicURL.Host))
				o.UsePathStyle = true
			},
		)
	}

	presigner := s3.NewPresignClient(signClient)
	out, err := presigner.PresignGetObject(
		ctx,
		&s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		},
		s3.WithPresignExpires(15*time.Minute),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate download link: %w", err)
	}

	if prefix != "" {
		signedURL, parseErr := url.Parse(out.URL)
		if parseErr != nil {
			return "", fmt.Errorf("failed to parse presigned url: %w", parseErr)
		}
		signedURL.Path = prefix + signedURL.Path
		return signedURL.String(), nil
	}

	return out.URL, nil
}
