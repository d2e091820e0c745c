// Package storage は物件画像のオブジェクトストレージを提供する。
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrImageNotFound は指定キーの画像が存在しないことを表す。
var ErrImageNotFound = errors.New("image not found")

// ImageStore は画像オブジェクトの保存・取得のインターフェース。
type ImageStore interface {
	// Put は画像を指定キーで保存する。
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Get は画像の読み取りストリームとContent-Typeを返す。
	// 存在しない場合はErrImageNotFoundを返す。呼び出し側がCloseする。
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	// Remove は画像を削除する。存在しないキーでも成功を返す。
	Remove(ctx context.Context, key string) error
}

// MinioImageStore はMinIO（S3互換）を使用したImageStoreの実装。
type MinioImageStore struct {
	client *minio.Client
	bucket string
}

// MinioConfig はMinIO接続設定。
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewMinioImageStore はMinIOクライアントを初期化し、バケットの存在を保証する。
func NewMinioImageStore(ctx context.Context, cfg MinioConfig) (*MinioImageStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &MinioImageStore{client: client, bucket: cfg.Bucket}, nil
}

// Put は画像を指定キーで保存する。
func (s *MinioImageStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to put image: %w", err)
	}
	return nil
}

// Get は画像の読み取りストリームとContent-Typeを返す。
func (s *MinioImageStore) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get image: %w", err)
	}

	// GetObjectは遅延実行のため、Statで実際の存在を確認する
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, "", ErrImageNotFound
		}
		return nil, "", fmt.Errorf("failed to stat image: %w", err)
	}

	return obj, info.ContentType, nil
}

// Remove は画像を削除する。
func (s *MinioImageStore) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove image: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ImageStore = (*MinioImageStore)(nil)
