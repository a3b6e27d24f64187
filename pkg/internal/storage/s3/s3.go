// Package s3 处理对象存储操作，基于 MinIO 客户端兼容任意 S3 服务.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yeisme/papervault/pkg/configs"
	"github.com/yeisme/papervault/pkg/internal/types"
	nlog "github.com/yeisme/papervault/pkg/log"
)

// publicReadPolicy 匿名只读策略模板.
const publicReadPolicy = `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`

// Client 包装 MinIO 客户端，所有操作作用于单个 bucket.
type Client struct {
	*minio.Client
	bucket     string
	publicBase string
}

// New 初始化 MinIO 客户端，若 bucket 不存在则创建.
func New(ctx context.Context, cfg configs.S3Config) (*Client, error) {
	endpoint := cfg.Endpoint
	// 允许传完整 schema endpoint（http:// 或 https://）
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		cfg.UseSSL = u.Scheme == "https"
		cfg.Endpoint = endpoint
	}

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo("papervault", configs.AppVersion)

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}

	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}

		nlog.Logger().Info().Str("bucket", cfg.Bucket).Msg("bucket created")
	}

	if cfg.PublicRead {
		if err := cli.SetBucketPolicy(ctx, cfg.Bucket, fmt.Sprintf(publicReadPolicy, cfg.Bucket)); err != nil {
			return nil, fmt.Errorf("set public read policy on %s: %w", cfg.Bucket, err)
		}
	}

	nlog.Logger().Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.Bucket).Msg("s3 connected")

	return &Client{
		Client:     cli,
		bucket:     cfg.Bucket,
		publicBase: cfg.GetPublicBaseURL(),
	}, nil
}

// Upload 写入对象，同名对象会被覆盖.
func (c *Client) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := c.PutObject(ctx, c.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}

	return nil
}

// Move 先复制再删除源对象（S3 没有原子重命名）.
func (c *Client) Move(ctx context.Context, src, dst string) error {
	if src == dst {
		return nil
	}

	_, err := c.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: c.bucket, Object: dst},
		minio.CopySrcOptions{Bucket: c.bucket, Object: src},
	)
	if err != nil {
		return fmt.Errorf("copy object %s -> %s: %w", src, dst, err)
	}

	if err := c.RemoveObject(ctx, c.bucket, src, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove source object %s: %w", src, err)
	}

	return nil
}

// Remove 删除对象，对象不存在时不返回错误.
func (c *Client) Remove(ctx context.Context, key string) error {
	err := c.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return fmt.Errorf("remove object %s: %w", key, err)
	}

	return nil
}

// List 递归列出 bucket 中的全部对象.
func (c *Client) List(ctx context.Context) ([]types.ObjectInfo, error) {
	var out []types.ObjectInfo

	for obj := range c.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}

		out = append(out, types.ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			ContentType:  obj.ContentType,
			LastModified: obj.LastModified,
		})
	}

	return out, nil
}

// Exists 判断对象是否存在.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}

	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}

	return false, err
}

// PublicURL 返回对象的公开访问链接，每段路径单独转义.
func (c *Client) PublicURL(key string) string {
	return JoinPublicURL(c.publicBase, key)
}

// JoinPublicURL 拼接公开访问前缀和对象路径.
func JoinPublicURL(base, key string) string {
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}

	return strings.TrimRight(base, "/") + "/" + strings.Join(segs, "/")
}

// HealthCheck 通过检查 bucket 是否存在来验证连接.
func (c *Client) HealthCheck(ctx context.Context) error {
	ok, err := c.BucketExists(ctx, c.bucket)
	if err != nil {
		return err
	}

	if !ok {
		return errors.New("bucket " + c.bucket + " not found")
	}

	return nil
}

// Close 关闭 S3 客户端连接（无实际操作，接口兼容）.
func (c *Client) Close() error {
	return nil
}
