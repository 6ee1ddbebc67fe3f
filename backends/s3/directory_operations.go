package s3

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	"go.uber.org/zap"

	"github.com/filegate/filegate/backends"
)

func (a *Adapter) IsDir(ctx context.Context, p string) (bool, error) {
	if p == "/" || p == "" {
		return true, nil
	}
	prefix := dirPrefix(p)
	result, err := a.client.ListObjectsV2WithContext(ctx, &awss3.ListObjectsV2Input{
		Bucket:  aws.String(a.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int64(1),
	})
	if err != nil {
		return false, fmt.Errorf("failed to list objects in S3: %w", err)
	}
	return len(result.Contents) > 0, nil
}

// Scan lists the immediate children of a directory prefix. Subdirectories
// surface as common prefixes, files as objects directly under the prefix.
func (a *Adapter) Scan(ctx context.Context, dir string) ([]backends.EntryInfo, error) {
	prefix := dirPrefix(dir)

	input := &awss3.ListObjectsV2Input{
		Bucket:    aws.String(a.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	}

	var entries []backends.EntryInfo
	seen := false

	for {
		result, err := a.client.ListObjectsV2WithContext(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects in S3: %w", err)
		}

		for _, commonPrefix := range result.CommonPrefixes {
			if commonPrefix.Prefix == nil {
				continue
			}
			seen = true
			dirName := strings.TrimSuffix(strings.TrimPrefix(*commonPrefix.Prefix, prefix), "/")
			if dirName == "" {
				continue
			}
			entries = append(entries, backends.EntryInfo{
				Name:    dirName,
				IsDir:   true,
				ModTime: time.Now(),
			})
		}

		for _, object := range result.Contents {
			if object.Key == nil {
				continue
			}
			seen = true
			// Skip the directory marker itself.
			if strings.HasSuffix(*object.Key, "/") {
				continue
			}
			fileName := strings.TrimPrefix(*object.Key, prefix)
			if fileName == "" || strings.Contains(fileName, "/") {
				continue
			}
			info := backends.EntryInfo{
				Name: fileName,
				Size: aws.Int64Value(object.Size),
			}
			if object.LastModified != nil {
				info.ModTime = *object.LastModified
			}
			entries = append(entries, info)
		}

		if result.NextContinuationToken == nil {
			break
		}
		input.ContinuationToken = result.NextContinuationToken
	}

	if !seen && prefix != "" {
		return nil, backends.ErrNotFound
	}
	return entries, nil
}

// MakeDir creates a zero-byte marker object so empty directories survive.
func (a *Adapter) MakeDir(ctx context.Context, p string) error {
	key := dirPrefix(p)
	if key == "" {
		return nil
	}
	if err := a.put(ctx, key, nil); err != nil {
		return err
	}
	a.logger.Debug("Directory marker created in S3",
		zap.String("bucket", a.bucket),
		zap.String("key", key))
	return nil
}

// RemoveTree deletes every object under the directory prefix in batches.
func (a *Adapter) RemoveTree(ctx context.Context, p string) error {
	isDir, err := a.IsDir(ctx, p)
	if err != nil {
		return err
	}
	if !isDir {
		isFile, err := a.IsFile(ctx, p)
		if err != nil {
			return err
		}
		if isFile {
			return backends.ErrNotDirectory
		}
		return backends.ErrNotFound
	}

	keys, err := a.listAll(ctx, dirPrefix(p))
	if err != nil {
		return err
	}
	for start := 0; start < len(keys); start += 1000 {
		end := start + 1000
		if end > len(keys) {
			end = len(keys)
		}
		objects := make([]*awss3.ObjectIdentifier, 0, end-start)
		for _, key := range keys[start:end] {
			objects = append(objects, &awss3.ObjectIdentifier{Key: aws.String(key)})
		}
		_, err := a.client.DeleteObjectsWithContext(ctx, &awss3.DeleteObjectsInput{
			Bucket: aws.String(a.bucket),
			Delete: &awss3.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("failed to delete objects from S3: %w", err)
		}
	}
	return nil
}

// MoveTree renames a directory by copying every object to the new prefix and
// deleting the originals. Not atomic; S3 offers no rename primitive.
func (a *Adapter) MoveTree(ctx context.Context, src, dst string) error {
	isDir, err := a.IsDir(ctx, src)
	if err != nil {
		return err
	}
	if !isDir {
		return backends.ErrNotDirectory
	}
	exists, err := a.Exists(ctx, dst)
	if err != nil {
		return err
	}
	if exists {
		return backends.ErrAlreadyExists
	}

	srcPrefix := dirPrefix(src)
	dstPrefix := dirPrefix(dst)
	keys, err := a.listAll(ctx, srcPrefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := a.copyDelete(ctx, key, dstPrefix+strings.TrimPrefix(key, srcPrefix)); err != nil {
			return err
		}
	}
	return nil
}

// listAll returns every key under prefix, markers included.
func (a *Adapter) listAll(ctx context.Context, prefix string) ([]string, error) {
	input := &awss3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(prefix),
	}
	var keys []string
	for {
		result, err := a.client.ListObjectsV2WithContext(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects in S3: %w", err)
		}
		for _, object := range result.Contents {
			if object.Key != nil {
				keys = append(keys, *object.Key)
			}
		}
		if result.NextContinuationToken == nil {
			break
		}
		input.ContinuationToken = result.NextContinuationToken
	}
	return keys, nil
}
