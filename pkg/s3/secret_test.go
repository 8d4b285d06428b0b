package s3_test

import (
	"os"
	"path"

	"github.com/ctrox/s3-workshop/pkg/s3"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"gopkg.in/yaml.v2"
)

var _ = Describe("Secret", func() {
	It("builds a client from a secret", func() {
		secret := newSecret()["V2Secret"]
		client, err := s3.NewClientFromSecret(secret)
		Expect(err).NotTo(HaveOccurred())
		Expect(client.Endpoint().String()).To(Equal("http://127.0.0.1:9000"))
		Expect(client.SignatureVersion()).To(Equal(s3.SignatureV2))
		// an empty region falls back to the default
		Expect(client.Region()).To(Equal(s3.DefaultRegion))
	})

	It("defaults to V4 signatures", func() {
		secret := newSecret()["V2Secret"]
		delete(secret, s3.SecretSignatureVersion)
		client, err := s3.NewClientFromSecret(secret)
		Expect(err).NotTo(HaveOccurred())
		Expect(client.SignatureVersion()).To(Equal(s3.SignatureV4))
	})

	It("requires an endpoint", func() {
		secret := newSecret()["V2Secret"]
		delete(secret, s3.SecretEndpoint)
		_, err := s3.NewClientFromSecret(secret)
		Expect(err).To(HaveOccurred())
	})

	It("accepts empty credentials", func() {
		secret := newSecret()["V2Secret"]
		secret[s3.SecretAccessKeyID] = ""
		secret[s3.SecretSecretAccessKey] = ""
		_, err := s3.NewClientFromSecret(secret)
		Expect(err).NotTo(HaveOccurred())
	})

	It("loads secrets from a file", func() {
		secretFile := path.Join(os.TempDir(), "s3-workshop-test", "secret.yaml")
		defer os.RemoveAll(path.Dir(secretFile))
		Expect(writeSecret(newSecret(), secretFile)).To(Succeed())

		secret, err := s3.LoadSecretFile(secretFile, "V2Secret")
		Expect(err).NotTo(HaveOccurred())
		Expect(secret).To(Equal(commonSecret["V2Secret"]))

		_, err = s3.LoadSecretFile(secretFile, "Missing")
		Expect(err).To(HaveOccurred())
	})
})

func writeSecret(secret map[string]map[string]string, filename string) error {
	if e := os.MkdirAll(path.Dir(filename), 0700); e != nil {
		return e
	}
	bytes, e := yaml.Marshal(secret)
	if e != nil {
		return e
	}
	f, e := os.Create(filename)
	if e != nil {
		return e
	}
	defer f.Close()

	_, e = f.Write(bytes)
	return e
}

// deep copy and return a secret
func newSecret() map[string]map[string]string {
	secret := make(map[string]map[string]string, len(commonSecret))
	for k, v := range commonSecret {
		innerMap := make(map[string]string, len(v))
		for innerKey, innerValue := range v {
			innerMap[innerKey] = innerValue
		}
		secret[k] = innerMap
	}
	return secret
}

var commonSecret = map[string]map[string]string{
	"V2Secret": {
		"accessKeyID":      "FJDSJ",
		"secretAccessKey":  "DSG643HGDS",
		"endpoint":         "http://127.0.0.1:9000",
		"region":           "",
		"signatureVersion": "v2",
	},
	"V4Secret": {
		"accessKeyID":     "FJDSJ",
		"secretAccessKey": "DSG643HGDS",
		"endpoint":        "http://127.0.0.1:9000",
		"region":          "us-east-1",
	},
}
