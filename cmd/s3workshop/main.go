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

package main

import (
	"flag"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/urfave/cli"
)

var vendorVersion = "v0.1.0"

func init() {
	flag.Set("logtostderr", "true")
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "s3workshop"
	app.Usage = "run the S3 workshop exercises against an ECS endpoint"
	app.Version = vendorVersion
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config",
			Usage:  "INI file with an [s3] section",
			EnvVar: "S3_CONFIG",
		},
		cli.StringFlag{
			Name:  "secret-file",
			Usage: "YAML file of named secrets, overrides connection settings of --config",
		},
		cli.StringFlag{
			Name:  "secret-name",
			Value: "S3Secret",
			Usage: "secret to use from --secret-file",
		},
		cli.StringFlag{Name: "endpoint", Usage: "S3 Endpoint URL to use"},
		cli.StringFlag{Name: "region", Usage: "S3 Region to use"},
		cli.StringFlag{Name: "namespace", Usage: "ECS namespace of the user"},
		cli.StringFlag{Name: "access-key-id", Usage: "S3 Access Key ID to use"},
		cli.StringFlag{Name: "secret-access-key", Usage: "S3 Secret Access Key to use"},
		cli.StringFlag{Name: "signature", Usage: "request signature version, v2 or v4"},
		cli.DurationFlag{
			Name:  "timeout",
			Value: 30 * time.Second,
			Usage: "timeout of a single command",
		},
		cli.StringFlag{
			Name:  "log-level",
			Value: "0",
			Usage: "log level for V logs",
		},
	}
	app.Before = func(c *cli.Context) error {
		return flag.Set("v", c.GlobalString("log-level"))
	}
	app.Commands = commands()
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		glog.Fatal(err)
	}
	glog.Flush()
}
