package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patent-normalizer/pkg/errors"
	dto "github.com/turtacn/patent-normalizer/pkg/types/patent"
)

// ArchiveStore keeps the raw text of every record next to the normalized
// document produced from it.
//
// Raw keys are "{archive}/{record:07d}.{ext}", so a raw object sorts in
// archive order.  Normalized keys are "{country}/{id}.json".
type ArchiveStore struct {
	client *Client
	logger logging.Logger
}

func NewArchiveStore(client *Client, log logging.Logger) *ArchiveStore {
	return &ArchiveStore{client: client, logger: logging.OrDefault(log)}
}

// RawKey is the object key of record n of archive.
func RawKey(archive string, n int, format string) string {
	ext := "xml"
	if strings.HasPrefix(format, "aps") {
		ext = "txt"
	}
	return fmt.Sprintf("%s/%07d.%s", path.Base(archive), n, ext)
}

// DocumentKey is the object key of a normalized document.
func DocumentKey(id, country string) string {
	if country == "" {
		country = "XX"
	}
	return country + "/" + id + ".json"
}

// PutRaw stores the raw text of one record and returns its key.
func (s *ArchiveStore) PutRaw(ctx context.Context, archive string, n int, format string, raw []byte) (string, error) {
	api, err := s.client.client()
	if err != nil {
		return "", err
	}
	key := RawKey(archive, n, format)
	contentType := "application/xml"
	if strings.HasSuffix(key, ".txt") {
		contentType = "text/plain"
	}
	_, err = api.PutObject(ctx, s.client.RawBucket(), key, bytes.NewReader(raw), int64(len(raw)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"format": format, "archive": archive},
	})
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrCodeExternalService, "failed to store raw record %s", key)
	}
	return key, nil
}

// GetRaw loads a raw record by key.
func (s *ArchiveStore) GetRaw(ctx context.Context, key string) ([]byte, error) {
	return s.get(ctx, s.client.RawBucket(), key)
}

// PutDocument stores doc as JSON and returns its key.
func (s *ArchiveStore) PutDocument(ctx context.Context, doc *dto.Document) (string, error) {
	api, err := s.client.client()
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode document")
	}
	key := DocumentKey(doc.ID.ID, doc.ID.Country)
	_, err = api.PutObject(ctx, s.client.NormalizedBucket(), key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
		UserMetadata: map[string]string{
			"format":         doc.Source.Format,
			"schema-version": doc.SchemaVersion,
		},
	})
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrCodeExternalService, "failed to store document %s", key)
	}
	s.logger.Debug("document archived", logging.String(logging.KeyDocID, doc.ID.ID), logging.String("key", key))
	return key, nil
}

// GetDocument loads a normalized document.
func (s *ArchiveStore) GetDocument(ctx context.Context, id, country string) (*dto.Document, error) {
	data, err := s.get(ctx, s.client.NormalizedBucket(), DocumentKey(id, country))
	if err != nil {
		return nil, err
	}
	var doc dto.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeSerialization, "stored document %s is corrupt", id)
	}
	return &doc, nil
}

// Exists reports whether the normalized document is stored.
func (s *ArchiveStore) Exists(ctx context.Context, id, country string) (bool, error) {
	api, err := s.client.client()
	if err != nil {
		return false, err
	}
	_, err = api.StatObject(ctx, s.client.NormalizedBucket(), DocumentKey(id, country), minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrCodeExternalService, "failed to stat document")
	}
	return true, nil
}

// ListRaw returns the raw keys stored for archive, in record order.
func (s *ArchiveStore) ListRaw(ctx context.Context, archive string) ([]string, error) {
	api, err := s.client.client()
	if err != nil {
		return nil, err
	}
	var keys []string
	for obj := range api.ListObjects(ctx, s.client.RawBucket(), minio.ListObjectsOptions{Prefix: path.Base(archive) + "/", Recursive: true}) {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, errors.ErrCodeExternalService, "failed to list raw records")
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// DeleteDocument removes a normalized document.
func (s *ArchiveStore) DeleteDocument(ctx context.Context, id, country string) error {
	api, err := s.client.client()
	if err != nil {
		return err
	}
	if err := api.RemoveObject(ctx, s.client.NormalizedBucket(), DocumentKey(id, country), minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to delete document")
	}
	return nil
}

func (s *ArchiveStore) get(ctx context.Context, bucket, key string) ([]byte, error) {
	api, err := s.client.client()
	if err != nil {
		return nil, err
	}
	obj, err := api.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapGetError(err, key)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.mapGetError(err, key)
	}
	return data, nil
}

func (s *ArchiveStore) mapGetError(err error, key string) error {
	if isNotFound(err) {
		return errors.Newf(errors.ErrCodeNotFound, "object %s not found", key)
	}
	return errors.Wrapf(err, errors.ErrCodeExternalService, "failed to read object %s", key)
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchObject"
}

//Personal.AI order the ending
