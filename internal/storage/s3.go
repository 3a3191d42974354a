package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/petermazzocco/snapgram/internal/backend"
	"github.com/petermazzocco/snapgram/internal/log"
	"github.com/petermazzocco/snapgram/models"
)

// ObjectAPI is the subset of the S3 client used here.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3 stores files in an S3-compatible bucket (Cloudflare R2 in
// production). Originals live under files/<id>; rendered previews are
// cached under previews/<id>/.
type S3 struct {
	client    ObjectAPI
	bucket    string
	publicURL string
	transform func(data []byte, opts backend.PreviewOptions) ([]byte, error)
}

var _ backend.FileStorage = (*S3)(nil)

func NewS3(client ObjectAPI, bucket, publicURL string) *S3 {
	return &S3{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		transform: Transform,
	}
}

func originalKey(fileID string) string {
	return "files/" + fileID
}

func previewPrefix(fileID string) string {
	return "previews/" + fileID + "/"
}

func previewKey(fileID string, opts backend.PreviewOptions) string {
	return fmt.Sprintf("%s%dx%d_%s_q%d.jpg", previewPrefix(fileID), opts.Width, opts.Height, opts.Gravity, opts.Quality)
}

func (s *S3) Upload(ctx context.Context, file backend.FileUpload) (*models.StoredFile, error) {
	if file.Body == nil {
		return nil, fmt.Errorf("upload %s: %w", file.Name, backend.ErrInvalidInput)
	}
	id := uuid.New().String()

	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(originalKey(id)),
		Body:        file.Body,
		ContentType: aws.String(file.MimeType),
		Metadata:    map[string]string{"filename": file.Name},
	}
	if file.Size > 0 {
		in.ContentLength = aws.Int64(file.Size)
	}
	obj, err := s.client.PutObject(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", originalKey(id), err)
	}
	log.Info.Printf("file uploaded: %s, ETag: %s", originalKey(id), aws.ToString(obj.ETag))

	return &models.StoredFile{ID: id, Name: file.Name, MimeType: file.MimeType, Size: file.Size}, nil
}

// PreviewURL confirms the file exists and returns the address of its
// rendered preview.
func (s *S3) PreviewURL(ctx context.Context, fileID string, opts backend.PreviewOptions) (string, error) {
	if fileID == "" {
		return "", backend.ErrInvalidInput
	}
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(originalKey(fileID)),
	})
	if err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("file %s: %w", fileID, backend.ErrNotFound)
		}
		return "", fmt.Errorf("head object %s: %w", originalKey(fileID), err)
	}

	q := url.Values{}
	q.Set("width", strconv.Itoa(opts.Width))
	q.Set("height", strconv.Itoa(opts.Height))
	q.Set("gravity", opts.Gravity)
	q.Set("quality", strconv.Itoa(opts.Quality))
	return CleanURL(fmt.Sprintf("%s/files/%s/preview?%s", s.publicURL, url.PathEscape(fileID), q.Encode())), nil
}

// Delete removes the original and any cached previews. Deleting a missing
// file succeeds.
func (s *S3) Delete(ctx context.Context, fileID string) error {
	if fileID == "" {
		return backend.ErrInvalidInput
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(originalKey(fileID)),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("delete object %s: %w", originalKey(fileID), err)
	}

	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(previewPrefix(fileID)),
	})
	if err != nil {
		log.Warn.Printf("list previews of %s: %v", fileID, err)
		return nil
	}
	for _, obj := range out.Contents {
		if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    obj.Key,
		}); err != nil {
			log.Warn.Printf("delete preview %s: %v", aws.ToString(obj.Key), err)
		}
	}
	return nil
}

// Preview returns the rendered JPEG for fileID, rendering and caching it
// on first request.
func (s *S3) Preview(ctx context.Context, fileID string, opts backend.PreviewOptions) ([]byte, error) {
	key := previewKey(fileID, opts)
	cached, err := s.read(ctx, key)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, backend.ErrNotFound) {
		return nil, err
	}

	original, err := s.read(ctx, originalKey(fileID))
	if err != nil {
		return nil, err
	}
	rendered, err := s.transform(original, opts)
	if err != nil {
		return nil, fmt.Errorf("render preview of %s: %w", fileID, err)
	}

	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(rendered),
		ContentType: aws.String("image/jpeg"),
	}); err != nil {
		log.Warn.Printf("cache preview %s: %v", key, err)
	}
	return rendered, nil
}

func (s *S3) read(ctx context.Context, key string) ([]byte, error) {
	res, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("object %s: %w", key, backend.ErrNotFound)
		}
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}

func CleanURL(urlStr string) string {
	urlStr = strings.ReplaceAll(urlStr, " ", "%20")
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return urlStr
	}
	return parsedURL.String()
}
