package main

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"time"

	"github.com/ctrox/s3-workshop/pkg/s3"
	"github.com/golang/glog"
	"github.com/urfave/cli"
)

func commands() []cli.Command {
	return []cli.Command{
		{
			Name:   "info",
			Usage:  "print the resolved configuration",
			Action: infoAction,
		},
		{
			Name:  "bucket",
			Usage: "bucket operations",
			Subcommands: []cli.Command{
				{
					Name:      "create",
					Usage:     "create a bucket",
					ArgsUsage: "[bucket]",
					Flags: []cli.Flag{
						cli.BoolFlag{Name: "versioned", Usage: "create the versioned bucket with versioning enabled"},
					},
					Action: bucketCreateAction,
				},
				{
					Name:      "exists",
					Usage:     "check if a bucket exists",
					ArgsUsage: "[bucket]",
					Action:    bucketExistsAction,
				},
				{
					Name:      "remove",
					Usage:     "remove a bucket and all of its objects",
					ArgsUsage: "[bucket]",
					Action:    bucketRemoveAction,
				},
			},
		},
		{
			Name:  "object",
			Usage: "object operations",
			Subcommands: []cli.Command{
				{
					Name:      "put",
					Usage:     "upload an object from a file or a string",
					ArgsUsage: "[bucket] [object]",
					Flags: []cli.Flag{
						cli.StringFlag{Name: "file", Usage: "file to upload"},
						cli.StringFlag{Name: "content", Usage: "content to upload"},
						cli.StringFlag{Name: "content-type", Value: "text/plain"},
					},
					Action: objectPutAction,
				},
				{
					Name:      "get",
					Usage:     "print an object",
					ArgsUsage: "[bucket] [object]",
					Action:    objectGetAction,
				},
				{
					Name:      "remove",
					Usage:     "remove an object",
					ArgsUsage: "[bucket] [object]",
					Action:    objectRemoveAction,
				},
			},
		},
		{
			Name:      "versioning",
			Usage:     "enable versioning on a bucket",
			ArgsUsage: "[bucket]",
			Action:    versioningAction,
		},
		{
			Name:      "presign",
			Usage:     "print a presigned GET URL",
			ArgsUsage: "[bucket] [object]",
			Flags: []cli.Flag{
				cli.DurationFlag{Name: "expires", Value: time.Hour},
			},
			Action: presignAction,
		},
		{
			Name:      "public-url",
			Usage:     "print the URL of an object on the namespace public endpoint",
			ArgsUsage: "[bucket] [object]",
			Action:    publicURLAction,
		},
	}
}

// loadConfig resolves the config file, the environment, the secret
// file and finally the global flags.
func loadConfig(c *cli.Context) (*s3.Config, error) {
	cfg, err := s3.LoadConfig(c.GlobalString("config"))
	if err != nil {
		return nil, err
	}

	if secretFile := c.GlobalString("secret-file"); secretFile != "" {
		secret, err := s3.LoadSecretFile(secretFile, c.GlobalString("secret-name"))
		if err != nil {
			return nil, err
		}
		fromSecret, err := s3.ConfigFromSecret(secret)
		if err != nil {
			return nil, err
		}
		cfg.Endpoint = fromSecret.Endpoint
		cfg.Region = fromSecret.Region
		cfg.AccessKeyID = fromSecret.AccessKeyID
		cfg.SecretAccessKey = fromSecret.SecretAccessKey
		if _, ok := secret[s3.SecretSignatureVersion]; ok {
			cfg.SignatureVersion = fromSecret.SignatureVersion
		}
		if fromSecret.Namespace != "" {
			cfg.Namespace = fromSecret.Namespace
		}
	}

	flags := map[string]*string{
		"endpoint":          &cfg.Endpoint,
		"region":            &cfg.Region,
		"namespace":         &cfg.Namespace,
		"access-key-id":     &cfg.AccessKeyID,
		"secret-access-key": &cfg.SecretAccessKey,
	}
	for name, field := range flags {
		if c.GlobalIsSet(name) {
			*field = c.GlobalString(name)
		}
	}
	if c.GlobalIsSet("signature") {
		if cfg.SignatureVersion, err = s3.ParseSignatureVersion(c.GlobalString("signature")); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newClient(c *cli.Context) (*s3.Client, *s3.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	glog.V(4).Infof("using config %s", cfg)
	client, err := s3.NewClient(cfg, cfg.SignatureVersion)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize S3 client: %w", err)
	}
	return client, cfg, nil
}

func commandContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.GlobalDuration("timeout"))
}

// argOr returns the positional argument i or def if it is missing.
func argOr(c *cli.Context, i int, def string) string {
	if arg := c.Args().Get(i); arg != "" {
		return arg
	}
	return def
}

func infoAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	out := c.App.Writer
	fmt.Fprintln(out, cfg)
	fmt.Fprintf(out, "buckets: %s %s (versioned: %s), object: %s\n", cfg.Bucket, cfg.Bucket2, cfg.VersionedBucket, cfg.Object)
	if public, err := cfg.PublicEndpoint(); err == nil {
		fmt.Fprintf(out, "public endpoint: %s\n", public)
	} else {
		fmt.Fprintf(out, "public endpoint: %s\n", err)
	}
	return nil
}

func bucketCreateAction(c *cli.Context) error {
	client, cfg, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(c)
	defer cancel()

	bucketName := argOr(c, 0, cfg.Bucket)
	if c.Bool("versioned") {
		bucketName = argOr(c, 0, cfg.VersionedBucket)
	}

	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket %s exists: %w", bucketName, err)
	}
	if exists {
		glog.Infof("bucket %s already exists", bucketName)
	} else if err := client.CreateBucket(ctx, bucketName); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucketName, err)
	}

	if c.Bool("versioned") {
		if err := client.EnableVersioning(ctx, bucketName); err != nil {
			return fmt.Errorf("failed to enable versioning on %s: %w", bucketName, err)
		}
	}
	fmt.Fprintf(c.App.Writer, "created bucket %s\n", bucketName)
	return nil
}

func bucketExistsAction(c *cli.Context) error {
	client, cfg, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(c)
	defer cancel()

	bucketName := argOr(c, 0, cfg.Bucket)
	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "bucket %s exists: %t\n", bucketName, exists)
	return nil
}

func bucketRemoveAction(c *cli.Context) error {
	client, cfg, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(c)
	defer cancel()

	bucketName := argOr(c, 0, cfg.Bucket)
	if err := client.RemoveBucket(ctx, bucketName); err != nil {
		return fmt.Errorf("failed to remove bucket %s: %w", bucketName, err)
	}
	fmt.Fprintf(c.App.Writer, "removed bucket %s\n", bucketName)
	return nil
}

func objectPutAction(c *cli.Context) error {
	client, cfg, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(c)
	defer cancel()

	content := []byte(c.String("content"))
	if file := c.String("file"); file != "" {
		if content, err = ioutil.ReadFile(file); err != nil {
			return err
		}
	}

	bucketName := argOr(c, 0, cfg.Bucket)
	objectName := argOr(c, 1, cfg.Object)
	err = client.PutObject(ctx, bucketName, objectName, bytes.NewReader(content), int64(len(content)), c.String("content-type"))
	if err != nil {
		return fmt.Errorf("failed to put object %s/%s: %w", bucketName, objectName, err)
	}
	fmt.Fprintf(c.App.Writer, "put object %s/%s (%d bytes)\n", bucketName, objectName, len(content))
	return nil
}

func objectGetAction(c *cli.Context) error {
	client, cfg, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(c)
	defer cancel()

	b, err := client.GetObject(ctx, argOr(c, 0, cfg.Bucket), argOr(c, 1, cfg.Object))
	if err != nil {
		return err
	}
	_, err = c.App.Writer.Write(b)
	return err
}

func objectRemoveAction(c *cli.Context) error {
	client, cfg, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(c)
	defer cancel()

	return client.RemoveObject(ctx, argOr(c, 0, cfg.Bucket), argOr(c, 1, cfg.Object))
}

func versioningAction(c *cli.Context) error {
	client, cfg, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(c)
	defer cancel()

	bucketName := argOr(c, 0, cfg.VersionedBucket)
	if err := client.EnableVersioning(ctx, bucketName); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "enabled versioning on %s\n", bucketName)
	return nil
}

func presignAction(c *cli.Context) error {
	client, cfg, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(c)
	defer cancel()

	u, err := client.PresignedGetObject(ctx, argOr(c, 0, cfg.Bucket), argOr(c, 1, cfg.Object), c.Duration("expires"))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, u)
	return nil
}

func publicURLAction(c *cli.Context) error {
	client, cfg, err := newClient(c)
	if err != nil {
		return err
	}
	u, err := client.PublicURL(argOr(c, 0, cfg.Bucket), argOr(c, 1, cfg.Object))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, u)
	return nil
}
