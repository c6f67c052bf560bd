package s3

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const presignTTL = 15 * time.Minute

// accepted listing photo types and the extension their keys get
var imageExt = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// ListingImageKey returns listings/{userID}/{uuid}.{ext}. The owner prefix is
// what later lets the wizard reject keys belonging to someone else.
func ListingImageKey(userID, contentType string) (string, error) {
	ext, ok := imageExt[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", fmt.Errorf("unsupported image type %q", contentType)
	}
	if userID == "" || strings.ContainsAny(userID, "/.") {
		return "", fmt.Errorf("invalid owner id %q", userID)
	}
	return path.Join("listings", userID, uuid.NewString()+"."+ext), nil
}

// Upload is handed to the client so it can PUT the file itself.
type Upload struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func withTTL(o *s3.PresignOptions) { o.Expires = presignTTL }

// PresignListingImage allocates a key for userID and presigns a PUT for it.
// The signed Content-Type must match the upload.
func (s *S3Client) PresignListingImage(ctx context.Context, userID, contentType string) (Upload, error) {
	key, err := ListingImageKey(userID, contentType)
	if err != nil {
		return Upload{}, err
	}
	req, err := s.Presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, withTTL)
	if err != nil {
		return Upload{}, fmt.Errorf("presign put %s: %w", key, err)
	}
	return Upload{Key: key, URL: req.URL, ExpiresAt: time.Now().UTC().Add(presignTTL)}, nil
}

// ImageURL presigns a GET for key.
func (s *S3Client) ImageURL(ctx context.Context, key string) (string, error) {
	req, err := s.Presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	}, withTTL)
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", key, err)
	}
	return req.URL, nil
}

// ImageURLs presigns every key it can; failures are skipped so one bad key
// does not hide a listing's other photos.
func (s *S3Client) ImageURLs(ctx context.Context, keys []string) []string {
	urls := make([]string, 0, len(keys))
	for _, k := range keys {
		if u, err := s.ImageURL(ctx, k); err == nil {
			urls = append(urls, u)
		}
	}
	return urls
}

// DeleteObject removes key. S3 treats a missing key as success.
func (s *S3Client) DeleteObject(ctx context.Context, key string) error {
	if _, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}
