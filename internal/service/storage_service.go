package service

import (
	"bytes"
	"context"
	"errors"
	"exam_portal_backend/internal/config"
	"exam_portal_backend/internal/util"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// presignExpiry 远端存储下载链接的有效期
const presignExpiry = 15 * time.Minute

// localDownloadPrefix 本地存储的文件只能经后台鉴权接口下载
const localDownloadPrefix = "/api/admin/"

// StorageProvider 成绩导出文件的存放位置
type StorageProvider interface {
	Put(ctx context.Context, object string, data []byte, contentType string) error
	Open(ctx context.Context, object string) (io.ReadCloser, error)
	Delete(ctx context.Context, object string) error
	URL(ctx context.Context, object string) (string, error)
}

// LocalStorageProvider 写入本地目录，不挂静态路由
type LocalStorageProvider struct {
	Root string
}

func (p *LocalStorageProvider) path(object string) string {
	return filepath.Join(p.Root, filepath.FromSlash(object))
}

func (p *LocalStorageProvider) Put(ctx context.Context, object string, data []byte, contentType string) error {
	dst := p.path(object)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0600)
}

func (p *LocalStorageProvider) Open(ctx context.Context, object string) (io.ReadCloser, error) {
	f, err := os.Open(p.path(object))
	if errors.Is(err, os.ErrNotExist) {
		return nil, util.ErrExportNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (p *LocalStorageProvider) Delete(ctx context.Context, object string) error {
	err := os.Remove(p.path(object))
	if errors.Is(err, os.ErrNotExist) {
		return util.ErrExportNotFound
	}
	return err
}

func (p *LocalStorageProvider) URL(ctx context.Context, object string) (string, error) {
	return localDownloadPrefix + object, nil
}

type MinioStorageProvider struct {
	Bucket   string
	Endpoint string
	UseSSL   bool
	Client   *minio.Client
}

func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorageProvider{
		Bucket:   cfg.MinioBucket,
		Endpoint: cfg.MinioEndpoint,
		UseSSL:   cfg.MinioUseSSL,
		Client:   client,
	}, nil
}

func (p *MinioStorageProvider) Put(ctx context.Context, object string, data []byte, contentType string) error {
	_, err := p.Client.PutObject(ctx, p.Bucket, object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (p *MinioStorageProvider) Open(ctx context.Context, object string) (io.ReadCloser, error) {
	obj, err := p.Client.GetObject(ctx, p.Bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject 不会立即请求，先 Stat 判断对象是否存在
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, util.ErrExportNotFound
		}
		return nil, err
	}
	return obj, nil
}

func (p *MinioStorageProvider) Delete(ctx context.Context, object string) error {
	return p.Client.RemoveObject(ctx, p.Bucket, object, minio.RemoveObjectOptions{})
}

// URL 返回限时的预签名下载地址
func (p *MinioStorageProvider) URL(ctx context.Context, object string) (string, error) {
	u, err := p.Client.PresignedGetObject(ctx, p.Bucket, object, presignExpiry, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// OSSStorageProvider 阿里云OSS
type OSSStorageProvider struct {
	BucketName string
	Endpoint   string
	Client     *oss.Client
}

func NewOSSStorageProvider(cfg *config.StorageConfig) (*OSSStorageProvider, error) {
	client, err := oss.New(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSSecretKey)
	if err != nil {
		return nil, err
	}
	return &OSSStorageProvider{BucketName: cfg.OSSBucket, Endpoint: cfg.OSSEndpoint, Client: client}, nil
}

func (p *OSSStorageProvider) Put(ctx context.Context, object string, data []byte, contentType string) error {
	bucket, err := p.Client.Bucket(p.BucketName)
	if err != nil {
		return err
	}
	return bucket.PutObject(object, bytes.NewReader(data), oss.ContentType(contentType))
}

func (p *OSSStorageProvider) Open(ctx context.Context, object string) (io.ReadCloser, error) {
	bucket, err := p.Client.Bucket(p.BucketName)
	if err != nil {
		return nil, err
	}
	body, err := bucket.GetObject(object)
	if err != nil {
		var se oss.ServiceError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, util.ErrExportNotFound
		}
		return nil, err
	}
	return body, nil
}

func (p *OSSStorageProvider) Delete(ctx context.Context, object string) error {
	bucket, err := p.Client.Bucket(p.BucketName)
	if err != nil {
		return err
	}
	return bucket.DeleteObject(object)
}

// URL 返回限时的签名下载地址
func (p *OSSStorageProvider) URL(ctx context.Context, object string) (string, error) {
	bucket, err := p.Client.Bucket(p.BucketName)
	if err != nil {
		return "", err
	}
	return bucket.SignURL(object, oss.HTTPGet, int64(presignExpiry/time.Second))
}

type StorageService struct {
	Provider StorageProvider
}

// NewStorageService 按 storage.type 选择实现；远端存储初始化失败时直接返回错误
func NewStorageService(cfg *config.StorageConfig) (*StorageService, error) {
	var provider StorageProvider
	switch cfg.Type {
	case util.StorageMinio:
		p, err := NewMinioStorageProvider(cfg)
		if err != nil {
			return nil, fmt.Errorf("init minio storage: %w", err)
		}
		provider = p
	case util.StorageOSS:
		p, err := NewOSSStorageProvider(cfg)
		if err != nil {
			return nil, fmt.Errorf("init oss storage: %w", err)
		}
		provider = p
	case "", util.StorageLocal:
		provider = &LocalStorageProvider{Root: cfg.LocalPath}
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.Type)
	}
	return &StorageService{Provider: provider}, nil
}

// Put 上传后返回下载地址
func (s *StorageService) Put(ctx context.Context, object string, data []byte, contentType string) (string, error) {
	if err := s.Provider.Put(ctx, object, data, contentType); err != nil {
		return "", err
	}
	return s.Provider.URL(ctx, object)
}

func (s *StorageService) Open(ctx context.Context, object string) (io.ReadCloser, error) {
	return s.Provider.Open(ctx, object)
}

func (s *StorageService) Delete(ctx context.Context, object string) error {
	return s.Provider.Delete(ctx, object)
}
