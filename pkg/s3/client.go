/*
Copyright 2017 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrNotFound is returned when a bucket or an object does not exist.
var ErrNotFound = errors.New("not found")

// Client is a configured S3 client. It is cheap to create and holds no
// connection until the first request.
type Client struct {
	cfg     Config
	version SignatureVersion
	creds   *credentials.Credentials
	minio   *minio.Client
}

// NewClientWithV4Signatures creates a client using the default V4 signer.
func NewClientWithV4Signatures(cfg *Config) (*Client, error) {
	return NewClient(cfg, SignatureV4)
}

// NewClientWithV2Signatures creates a client using the legacy V2 signer.
func NewClientWithV2Signatures(cfg *Config) (*Client, error) {
	return NewClient(cfg, SignatureV2)
}

// NewClient creates a client for cfg signing requests with version.
// Path-style bucket addressing is always used. Credentials are not
// checked here, wrong or empty ones fail on first use.
func NewClient(cfg *Config, version SignatureVersion) (*Client, error) {
	var client = &Client{}

	client.cfg = *cfg
	client.version = version

	endpoint, ssl, err := parseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	if !cfg.PathStyle {
		glog.Warningf("path-style addressing is required for custom endpoints, ignoring path-style=false")
		client.cfg.PathStyle = true
	}
	if !cfg.HasCredentials() {
		glog.Warningf("no credentials configured for %s, requests will be anonymous", cfg.Endpoint)
	}

	client.creds = credentials.NewStatic(cfg.AccessKeyID, cfg.SecretAccessKey, "", version.signerType())
	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:        client.creds,
		Secure:       ssl,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, err
	}
	client.minio = minioClient

	glog.Infof("Running with %s signatures", version)
	return client, nil
}

func parseEndpoint(endpoint string) (string, bool, error) {
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Hostname() == "" {
		return "", false, fmt.Errorf("invalid endpoint %q: no host", endpoint)
	}
	// u.Host keeps the brackets of IPv6 literals
	return u.Host, u.Scheme == "https", nil
}

// Endpoint returns the URL requests are sent to.
func (client *Client) Endpoint() *url.URL {
	return client.minio.EndpointURL()
}

func (client *Client) Region() string {
	return client.cfg.Region
}

// PathStyle reports whether buckets are addressed in the URL path. Always true.
func (client *Client) PathStyle() bool {
	return client.cfg.PathStyle
}

func (client *Client) SignatureVersion() SignatureVersion {
	return client.version
}

// SignerType returns the signer the credentials resolve to. Anonymous if
// any of the keys is empty.
func (client *Client) SignerType() (credentials.SignatureType, error) {
	v, err := client.creds.Get()
	if err != nil {
		return credentials.SignatureDefault, err
	}
	return v.SignerType, nil
}

// Config returns a copy of the config the client was built from.
func (client *Client) Config() Config {
	return client.cfg
}

// Minio exposes the underlying client for operations not wrapped here.
func (client *Client) Minio() *minio.Client {
	return client.minio
}

func (client *Client) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return client.minio.BucketExists(ctx, bucketName)
}

func (client *Client) CreateBucket(ctx context.Context, bucketName string) error {
	glog.V(4).Infof("creating bucket %s", bucketName)
	return client.minio.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: client.cfg.Region})
}

// EnableVersioning turns on versioning for an existing bucket.
func (client *Client) EnableVersioning(ctx context.Context, bucketName string) error {
	if err := client.minio.EnableVersioning(ctx, bucketName); err != nil {
		return wrapNotFound(err, "bucket %s", bucketName)
	}
	return nil
}

// RemoveBucket removes all objects, including old versions, and the bucket.
func (client *Client) RemoveBucket(ctx context.Context, bucketName string) error {
	var err error

	if err = client.removeObjects(ctx, bucketName); err == nil {
		return client.minio.RemoveBucket(ctx, bucketName)
	}

	glog.Warningf("removeObjects failed with: %s, will try removeObjectsOneByOne", err)

	if err = client.removeObjectsOneByOne(ctx, bucketName); err == nil {
		return client.minio.RemoveBucket(ctx, bucketName)
	}

	return err
}

func (client *Client) listObjects(ctx context.Context, bucketName string, objectsCh chan<- minio.ObjectInfo) error {
	defer close(objectsCh)

	for object := range client.minio.ListObjects(ctx, bucketName,
		minio.ListObjectsOptions{Recursive: true, WithVersions: true}) {
		if object.Err != nil {
			return object.Err
		}
		objectsCh <- object
	}
	return nil
}

func (client *Client) removeObjects(ctx context.Context, bucketName string) error {
	objectsCh := make(chan minio.ObjectInfo)
	listErrCh := make(chan error, 1)

	go func() {
		listErrCh <- client.listObjects(ctx, bucketName, objectsCh)
	}()

	opts := minio.RemoveObjectsOptions{
		GovernanceBypass: true,
	}
	errorCh := client.minio.RemoveObjects(ctx, bucketName, objectsCh, opts)
	haveErrWhenRemoveObjects := false
	for e := range errorCh {
		glog.Errorf("Failed to remove object %s, error: %s", e.ObjectName, e.Err)
		haveErrWhenRemoveObjects = true
	}
	if err := <-listErrCh; err != nil {
		glog.Error("Error listing objects", err)
		return wrapNotFound(err, "bucket %s", bucketName)
	}
	if haveErrWhenRemoveObjects {
		return fmt.Errorf("failed to remove all objects of bucket %s", bucketName)
	}

	return nil
}

// will delete objects one by one, for endpoints without multi-object delete
func (client *Client) removeObjectsOneByOne(ctx context.Context, bucketName string) error {
	objectsCh := make(chan minio.ObjectInfo, 1)
	listErrCh := make(chan error, 1)

	go func() {
		listErrCh <- client.listObjects(ctx, bucketName, objectsCh)
	}()

	haveErrWhenRemoveObjects := false
	for object := range objectsCh {
		err := client.minio.RemoveObject(ctx, bucketName, object.Key,
			minio.RemoveObjectOptions{VersionID: object.VersionID, GovernanceBypass: true})
		if err != nil {
			glog.Errorf("Failed to remove object %s, error: %s", object.Key, err)
			haveErrWhenRemoveObjects = true
		}
	}
	if err := <-listErrCh; err != nil {
		glog.Error("Error listing objects", err)
		return wrapNotFound(err, "bucket %s", bucketName)
	}
	if haveErrWhenRemoveObjects {
		return fmt.Errorf("failed to remove all objects of bucket %s", bucketName)
	}

	return nil
}

func (client *Client) PutObject(ctx context.Context, bucketName, objectName string, r io.Reader, size int64, contentType string) error {
	opts := minio.PutObjectOptions{ContentType: contentType}
	_, err := client.minio.PutObject(ctx, bucketName, objectName, r, size, opts)
	if err != nil {
		return wrapNotFound(err, "bucket %s", bucketName)
	}
	return nil
}

func (client *Client) GetObject(ctx context.Context, bucketName, objectName string) ([]byte, error) {
	obj, err := client.minio.GetObject(ctx, bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, wrapNotFound(err, "object %s", path.Join(bucketName, objectName))
	}
	defer obj.Close()

	b, err := io.ReadAll(obj)
	if err != nil {
		return nil, wrapNotFound(err, "object %s", path.Join(bucketName, objectName))
	}
	return b, nil
}

func (client *Client) RemoveObject(ctx context.Context, bucketName, objectName string) error {
	return client.minio.RemoveObject(ctx, bucketName, objectName, minio.RemoveObjectOptions{})
}

// PresignedGetObject returns a URL granting read access to an object
// without credentials. It is computed locally.
func (client *Client) PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration) (*url.URL, error) {
	return client.minio.PresignedGetObject(ctx, bucketName, objectName, expires, nil)
}

// PublicURL returns the object URL on the namespace public endpoint.
func (client *Client) PublicURL(bucketName, objectName string) (string, error) {
	base, err := client.cfg.PublicEndpoint()
	if err != nil {
		return "", err
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid public endpoint %q: %w", base, err)
	}
	u.Path = "/" + path.Join(bucketName, objectName)
	return u.String(), nil
}

// IsNotFound reports whether err means a missing bucket or object.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NoSuchVersion":
		return true
	}
	return false
}

func wrapNotFound(err error, format string, args ...interface{}) error {
	if IsNotFound(err) && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%s %w: %v", fmt.Sprintf(format, args...), ErrNotFound, err)
	}
	return err
}
