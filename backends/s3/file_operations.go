package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	"go.uber.org/zap"

	"github.com/filegate/filegate/backends"
)

func (a *Adapter) Exists(ctx context.Context, p string) (bool, error) {
	if p == "/" || p == "" {
		return true, nil
	}
	isFile, err := a.IsFile(ctx, p)
	if err != nil {
		return false, err
	}
	if isFile {
		return true, nil
	}
	return a.IsDir(ctx, p)
}

func (a *Adapter) IsFile(ctx context.Context, p string) (bool, error) {
	if p == "/" || p == "" {
		return false, nil
	}
	_, err := a.client.HeadObjectWithContext(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(pathToKey(p)),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object in S3: %w", err)
	}
	return true, nil
}

func (a *Adapter) Stat(ctx context.Context, p string) (backends.EntryInfo, error) {
	key := pathToKey(p)

	result, err := a.client.HeadObjectWithContext(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		info := backends.EntryInfo{
			Name: path.Base(p),
			Size: aws.Int64Value(result.ContentLength),
		}
		if result.LastModified != nil {
			info.ModTime = *result.LastModified
		}
		return info, nil
	}
	if !isNotFound(err) {
		return backends.EntryInfo{}, fmt.Errorf("failed to stat object in S3: %w", err)
	}

	isDir, dirErr := a.IsDir(ctx, p)
	if dirErr != nil {
		return backends.EntryInfo{}, dirErr
	}
	if !isDir {
		return backends.EntryInfo{}, backends.ErrNotFound
	}
	return backends.EntryInfo{
		Name:    path.Base(p),
		IsDir:   true,
		ModTime: time.Now(),
	}, nil
}

func (a *Adapter) OpenRead(ctx context.Context, p string) (io.ReadCloser, error) {
	key := pathToKey(p)

	result, err := a.client.GetObjectWithContext(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, backends.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}

	a.logger.Debug("File opened from S3",
		zap.String("bucket", a.bucket),
		zap.String("key", key))

	return result.Body, nil
}

// s3Writer buffers written bytes and uploads them as one object on Close.
// S3 has no partial-write primitive at this size class, so the buffer is the
// atomic unit.
type s3Writer struct {
	a   *Adapter
	ctx context.Context
	key string
	buf bytes.Buffer
}

func (w *s3Writer) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *s3Writer) Close() error {
	return w.a.put(w.ctx, w.key, w.buf.Bytes())
}

func (a *Adapter) put(ctx context.Context, key string, data []byte) error {
	_, err := a.client.PutObjectWithContext(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to put object to S3: %w", err)
	}
	a.logger.Debug("Object written to S3",
		zap.String("bucket", a.bucket),
		zap.String("key", key),
		zap.Int("size", len(data)))
	return nil
}

func (a *Adapter) OpenWrite(ctx context.Context, p string) (io.WriteCloser, error) {
	return &s3Writer{a: a, ctx: ctx, key: pathToKey(p)}, nil
}

func (a *Adapter) Remove(ctx context.Context, p string) error {
	isFile, err := a.IsFile(ctx, p)
	if err != nil {
		return err
	}
	if !isFile {
		isDir, err := a.IsDir(ctx, p)
		if err != nil {
			return err
		}
		if isDir {
			return backends.ErrNotFile
		}
		return backends.ErrNotFound
	}

	_, err = a.client.DeleteObjectWithContext(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(pathToKey(p)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object from S3: %w", err)
	}
	return nil
}

func (a *Adapter) Move(ctx context.Context, src, dst string) error {
	isFile, err := a.IsFile(ctx, src)
	if err != nil {
		return err
	}
	if !isFile {
		return backends.ErrNotFile
	}
	exists, err := a.Exists(ctx, dst)
	if err != nil {
		return err
	}
	if exists {
		return backends.ErrAlreadyExists
	}
	return a.copyDelete(ctx, pathToKey(src), pathToKey(dst))
}

func (a *Adapter) copyDelete(ctx context.Context, srcKey, dstKey string) error {
	_, err := a.client.CopyObjectWithContext(ctx, &awss3.CopyObjectInput{
		Bucket:     aws.String(a.bucket),
		CopySource: aws.String(a.bucket + "/" + srcKey),
		Key:        aws.String(dstKey),
	})
	if err != nil {
		return fmt.Errorf("failed to copy object in S3: %w", err)
	}
	_, err = a.client.DeleteObjectWithContext(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(srcKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete source object in S3: %w", err)
	}
	return nil
}

func (a *Adapter) ReadText(ctx context.Context, p string) (string, error) {
	reader, err := a.OpenRead(ctx, p)
	if err != nil {
		return "", err
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read object body: %w", err)
	}
	return string(data), nil
}

func (a *Adapter) WriteText(ctx context.Context, p, content string) error {
	return a.put(ctx, pathToKey(p), []byte(content))
}
