package aws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path"

	"gallery-server/core"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const (
	artworkPrefix = "artworks/"
	userPrefix    = "users/"
	sessionKey    = "session.json"
)

// s3Store keeps one object per record, so appends never rewrite the list.
type s3Store struct {
	s3Client *s3.Client
	bucket   string
}

// NewStore creates a new S3-based store.
func NewStore(bucketName string) *s3Store {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	return &s3Store{
		s3Client: s3.NewFromConfig(cfg),
		bucket:   bucketName,
	}
}

func recordKey(prefix, id string) (string, error) {
	if id == "" || path.Base(id) != id || id == "." || id == ".." {
		return "", fmt.Errorf("invalid record id %q", id)
	}
	return prefix + id + ".json", nil
}

func (s *s3Store) putJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", key, err)
	}
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

func (s *s3Store) getJSON(ctx context.Context, key string, v any) (bool, error) {
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal object %s: %w", key, err)
	}
	return true, nil
}

// ArtworkStore implementation

func (s *s3Store) Append(ctx context.Context, artwork *core.Artwork) error {
	key, err := recordKey(artworkPrefix, artwork.ID)
	if err != nil {
		return err
	}
	return s.putJSON(ctx, key, artwork)
}

func (s *s3Store) ListAll(ctx context.Context) ([]*core.Artwork, error) {
	output, err := s.s3Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(artworkPrefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list artworks: %w", err)
	}

	artworks := make([]*core.Artwork, 0, len(output.Contents))
	for _, object := range output.Contents {
		var artwork core.Artwork
		found, err := s.getJSON(ctx, *object.Key, &artwork)
		if err != nil || !found {
			log.Printf("warn: skipping artwork object %s: %v", *object.Key, err)
			continue
		}
		artworks = append(artworks, &artwork)
	}
	return artworks, nil
}

// UserStore implementation

func (s *s3Store) CreateUser(ctx context.Context, user *core.User) error {
	key, err := recordKey(userPrefix, user.ID)
	if err != nil {
		return err
	}
	return s.putJSON(ctx, key, user)
}

func (s *s3Store) FindUserByEmail(ctx context.Context, email string) (*core.User, error) {
	output, err := s.s3Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(userPrefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	for _, object := range output.Contents {
		var user core.User
		found, err := s.getJSON(ctx, *object.Key, &user)
		if err != nil || !found {
			log.Printf("warn: skipping user object %s: %v", *object.Key, err)
			continue
		}
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, nil
}

func (s *s3Store) FindUserByID(ctx context.Context, id string) (*core.User, error) {
	key, err := recordKey(userPrefix, id)
	if err != nil {
		return nil, err
	}
	var user core.User
	found, err := s.getJSON(ctx, key, &user)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

// SessionStore implementation

func (s *s3Store) SaveSession(ctx context.Context, session *core.Session) error {
	return s.putJSON(ctx, sessionKey, session)
}

func (s *s3Store) LoadSession(ctx context.Context) (*core.Session, error) {
	var session core.Session
	found, err := s.getJSON(ctx, sessionKey, &session)
	if err != nil || !found {
		return nil, err
	}
	return &session, nil
}

func (s *s3Store) ClearSession(ctx context.Context) error {
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(sessionKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete session object: %w", err)
	}
	return nil
}
