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
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/ctrox/s3-workshop/pkg/keygen"
	"github.com/golang/glog"
)

func init() {
	flag.Set("logtostderr", "true")
}

var (
	bits    = flag.Int("bits", keygen.DefaultBits, "RSA key size in bits")
	withSSH = flag.Bool("ssh", false, "also print the public key in OpenSSH format")
)

// Generates a RSA key pair for testing.
func main() {
	flag.Parse()

	if err := run(); err != nil {
		switch {
		case errors.Is(err, keygen.ErrProviderUnavailable):
			glog.Errorf("could not generate key pair: %s", err)
		case errors.Is(err, keygen.ErrEncoding):
			glog.Errorf("could not encode key pair: %s", err)
		default:
			glog.Error(err)
		}
		glog.Flush()
		os.Exit(1)
	}
}

func run() error {
	kp, err := keygen.Generate(*bits)
	if err != nil {
		return err
	}
	glog.V(2).Infof("generated %d bit key pair", kp.Bits())

	pub, err := kp.EncodedPublicKey()
	if err != nil {
		return err
	}
	priv, err := kp.EncodedPrivateKey()
	if err != nil {
		return err
	}
	fmt.Println("Public Key: " + pub)
	fmt.Println("Private Key: " + priv)

	if *withSSH {
		authorized, err := kp.AuthorizedKey()
		if err != nil {
			return err
		}
		fmt.Print("SSH Public Key: " + authorized)
	}
	return nil
}
