// Package artifact stores the per-run export.Result dump alongside the
// run-history record in internal/runstore, the LIPO analogue of the
// teacher's internal/storage: the same local/COS backend switch, plus a
// domain-specific SaveDump/LoadDump pair built on pkg/writer's generic
// JSON codec.
package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/tencentyun/cos-go-sdk-v5"

	"github.com/lipo-groupgen/internal/export"
	"github.com/lipo-groupgen/pkg/config"
	"github.com/lipo-groupgen/pkg/errors"
)

// Store is the interface for dump-artifact storage operations.
type Store interface {
	Upload(ctx context.Context, key string, reader io.Reader) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	GetURL(key string) string
}

// NewStore creates a Store per cfg.Type ("local" or "cos").
func NewStore(cfg *config.StorageConfig) (Store, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeConfigError, "artifact: storage config is nil")
	}
	switch cfg.Type {
	case "", "local":
		return newLocalStore(cfg.LocalPath)
	case "cos":
		return newCOSStore(cfg)
	default:
		return nil, errors.New(errors.CodeConfigError, fmt.Sprintf("artifact: unsupported storage type %q", cfg.Type))
	}
}

// SaveDump serialises result as pretty JSON and uploads it under key.
func SaveDump(ctx context.Context, store Store, key string, result *export.Result) error {
	var buf bytes.Buffer
	w := export.NewPrettyJSONWriter()
	if err := w.Write(*result, &buf); err != nil {
		return errors.Wrap(errors.CodeUploadError, "artifact: encode dump", err)
	}
	if err := store.Upload(ctx, key, &buf); err != nil {
		return errors.Wrap(errors.CodeUploadError, "artifact: upload dump", err)
	}
	return nil
}

// LoadDump downloads key and decodes it back into an export.Result.
func LoadDump(ctx context.Context, store Store, key string) (*export.Result, error) {
	rc, err := store.Download(ctx, key)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDownloadError, "artifact: download dump", err)
	}
	defer rc.Close()

	var result export.Result
	if err := json.NewDecoder(rc).Decode(&result); err != nil {
		return nil, errors.Wrap(errors.CodeParseError, "artifact: decode dump", err)
	}
	return &result, nil
}

// localStore implements Store over the local filesystem.
type localStore struct {
	basePath string
}

func newLocalStore(basePath string) (*localStore, error) {
	if basePath == "" {
		basePath = "./dumps"
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, errors.Wrap(errors.CodeUploadError, "artifact: create storage dir", err)
	}
	return &localStore{basePath: basePath}, nil
}

func (s *localStore) fullPath(key string) string { return filepath.Join(s.basePath, key) }

func (s *localStore) Upload(ctx context.Context, key string, reader io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full := s.fullPath(key)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return errors.Wrap(errors.CodeUploadError, "artifact: mkdir", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return errors.Wrap(errors.CodeUploadError, "artifact: create file", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, reader); err != nil {
		return errors.Wrap(errors.CodeUploadError, "artifact: write file", err)
	}
	return nil
}

func (s *localStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.fullPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.CodeNotFound, "artifact: "+key, err)
		}
		return nil, errors.Wrap(errors.CodeDownloadError, "artifact: open file", err)
	}
	return f, nil
}

func (s *localStore) Delete(ctx context.Context, key string) error {
	if err := os.Remove(s.fullPath(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.CodeUploadError, "artifact: delete file", err)
	}
	return nil
}

func (s *localStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(s.fullPath(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrap(errors.CodeUploadError, "artifact: stat file", err)
}

func (s *localStore) GetURL(key string) string { return s.fullPath(key) }

// cosStore implements Store over Tencent Cloud COS.
type cosStore struct {
	client *cos.Client
	bucket string
	region string
	domain string
	scheme string
}

func newCOSStore(cfg *config.StorageConfig) (*cosStore, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, errors.New(errors.CodeConfigError, "artifact: COS bucket and region are required")
	}
	if cfg.SecretID == "" || cfg.SecretKey == "" {
		return nil, errors.New(errors.CodeConfigError, "artifact: COS credentials are required")
	}

	domain := cfg.Domain
	if domain == "" {
		domain = "myqcloud.com"
	}
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "https"
	}

	bucketURL, err := url.Parse(fmt.Sprintf("%s://%s.cos.%s.%s", scheme, cfg.Bucket, cfg.Region, domain))
	if err != nil {
		return nil, errors.Wrap(errors.CodeConfigError, "artifact: parse bucket URL", err)
	}
	serviceURL, err := url.Parse(fmt.Sprintf("%s://cos.%s.%s", scheme, cfg.Region, domain))
	if err != nil {
		return nil, errors.Wrap(errors.CodeConfigError, "artifact: parse service URL", err)
	}

	client := cos.NewClient(&cos.BaseURL{BucketURL: bucketURL, ServiceURL: serviceURL}, &http.Client{
		Transport: &cos.AuthorizationTransport{SecretID: cfg.SecretID, SecretKey: cfg.SecretKey},
	})

	return &cosStore{client: client, bucket: cfg.Bucket, region: cfg.Region, domain: domain, scheme: scheme}, nil
}

func (s *cosStore) Upload(ctx context.Context, key string, reader io.Reader) error {
	if _, err := s.client.Object.Put(ctx, key, reader, nil); err != nil {
		return errors.Wrap(errors.CodeUploadError, "artifact: COS put", err)
	}
	return nil
}

func (s *cosStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := s.client.Object.Get(ctx, key, nil)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDownloadError, "artifact: COS get", err)
	}
	return resp.Body, nil
}

func (s *cosStore) Delete(ctx context.Context, key string) error {
	if _, err := s.client.Object.Delete(ctx, key, nil); err != nil {
		return errors.Wrap(errors.CodeUploadError, "artifact: COS delete", err)
	}
	return nil
}

func (s *cosStore) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.Object.IsExist(ctx, key)
	if err != nil {
		return false, errors.Wrap(errors.CodeDownloadError, "artifact: COS exists", err)
	}
	return ok, nil
}

func (s *cosStore) GetURL(key string) string {
	return fmt.Sprintf("%s://%s.cos.%s.%s/%s", s.scheme, s.bucket, s.region, s.domain, key)
}
