package minio

import (
	"bytes"
	"context"

	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
	"github.com/spams12/gege/internal/cfg"
	"github.com/spams12/gege/pkg/e"
)

// ObjectRepo хранит документы в бакете MinIO.
type ObjectRepo struct {
	mc  *minio.Client
	cfg *cfg.MinIOCfg
}

func NewObjectRepo(mc *minio.Client, cfg *cfg.MinIOCfg) *ObjectRepo {
	return &ObjectRepo{
		mc:  mc,
		cfg: cfg,
	}
}

// Put загружает объект и возвращает его ключ. Существующий объект перезаписывается.
func (o *ObjectRepo) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	info, err := o.mc.PutObject(ctx, o.cfg.BucketName, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return info.Key, nil
}
