package s3

import (
	"errors"
	"fmt"
	"io/ioutil"

	"gopkg.in/yaml.v2"
)

// keys of a secret map
const (
	SecretAccessKeyID      = "accessKeyID"
	SecretSecretAccessKey  = "secretAccessKey"
	SecretRegion           = "region"
	SecretEndpoint         = "endpoint"
	SecretNamespace        = "namespace"
	SecretSignatureVersion = "signatureVersion"
)

// ConfigFromSecret builds a Config on top of the defaults from a secret
// map. Only the endpoint is mandatory, missing credentials fail on use.
func ConfigFromSecret(secret map[string]string) (*Config, error) {
	if _, exist := secret[SecretEndpoint]; !exist {
		return nil, errors.New("endpoint is not found in secret")
	}

	cfg := DefaultConfig()
	cfg.Endpoint = secret[SecretEndpoint]
	cfg.AccessKeyID = secret[SecretAccessKeyID]
	cfg.SecretAccessKey = secret[SecretSecretAccessKey]
	cfg.Namespace = secret[SecretNamespace]
	if region, ok := secret[SecretRegion]; ok && region != "" {
		cfg.Region = region
	}
	if v, ok := secret[SecretSignatureVersion]; ok {
		if err := cfg.SignatureVersion.UnmarshalText([]byte(v)); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// NewClientFromSecret creates a client with the signature version named
// in the secret, V4 if none.
func NewClientFromSecret(secret map[string]string) (*Client, error) {
	cfg, err := ConfigFromSecret(secret)
	if err != nil {
		return nil, err
	}
	return NewClient(cfg, cfg.SignatureVersion)
}

// LoadSecretFile reads a YAML file of named secrets and returns the one
// called name.
func LoadSecretFile(filename, name string) (map[string]string, error) {
	b, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	secrets := map[string]map[string]string{}
	if err := yaml.Unmarshal(b, &secrets); err != nil {
		return nil, fmt.Errorf("failed to parse secret file %s: %w", filename, err)
	}
	secret, ok := secrets[name]
	if !ok {
		return nil, fmt.Errorf("secret %s is not found in %s", name, filename)
	}
	return secret, nil
}
