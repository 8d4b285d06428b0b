package s3_test

import (
	"io/ioutil"
	"os"
	"path"

	"github.com/ctrox/s3-workshop/pkg/s3"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

const testConfigFile = `
[s3]
endpoint = http://ecs.local:9020
namespace = workshop
access_key_id = user1
access_key_id_2 = user2
secret_key = c2VjcmV0
bucket = my-bucket
path_style = false
signature_version = S3SignerType
`

var envKeys = []string{
	"S3_ENDPOINT",
	"S3_REGION",
	"S3_ACCESS_KEY_ID",
	"S3_SECRET_KEY",
	"S3_PATH_STYLE",
	"S3_SIGNATURE_VERSION",
}

var _ = Describe("Config", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = ioutil.TempDir("", "s3-config")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
		for _, key := range envKeys {
			os.Unsetenv(key)
		}
	})

	writeConfig := func(content string) string {
		filename := path.Join(tmpDir, "s3.ini")
		Expect(ioutil.WriteFile(filename, []byte(content), 0600)).To(Succeed())
		return filename
	}

	It("has placeholder defaults", func() {
		cfg := s3.DefaultConfig()
		Expect(cfg.Endpoint).To(Equal(s3.DefaultEndpoint))
		Expect(cfg.Region).To(Equal("us-east-1"))
		Expect(cfg.PathStyle).To(BeTrue())
		Expect(cfg.SignatureVersion).To(Equal(s3.SignatureV4))
		Expect(cfg.AccessKeyID).To(BeEmpty())
		Expect(cfg.SecretAccessKey).To(BeEmpty())
		Expect(cfg.HasCredentials()).To(BeFalse())
		Expect(cfg.VersionedBucket).To(Equal("workshop-versioned-bucket"))
	})

	It("loads an INI file", func() {
		cfg, err := s3.LoadConfig(writeConfig(testConfigFile))
		Expect(err).NotTo(HaveOccurred())

		Expect(cfg.Endpoint).To(Equal("http://ecs.local:9020"))
		Expect(cfg.Namespace).To(Equal("workshop"))
		Expect(cfg.AccessKeyID).To(Equal("user1"))
		Expect(cfg.AccessKeyID2).To(Equal("user2"))
		Expect(cfg.SecretAccessKey).To(Equal("c2VjcmV0"))
		Expect(cfg.Bucket).To(Equal("my-bucket"))
		Expect(cfg.PathStyle).To(BeFalse())
		Expect(cfg.SignatureVersion).To(Equal(s3.SignatureV2))
		// keys missing from the file keep their default
		Expect(cfg.Region).To(Equal(s3.DefaultRegion))
		Expect(cfg.Bucket2).To(Equal("workshop-bucket-2"))
	})

	It("rejects invalid values", func() {
		_, err := s3.LoadConfig(writeConfig("[s3]\nsignature_version = v3\n"))
		Expect(err).To(HaveOccurred())

		_, err = s3.LoadConfig(writeConfig("[s3]\npath_style = maybe\n"))
		Expect(err).To(HaveOccurred())
	})

	It("fails on a missing file", func() {
		_, err := s3.LoadConfig(path.Join(tmpDir, "missing.ini"))
		Expect(err).To(HaveOccurred())
	})

	It("lets the environment override the file", func() {
		os.Setenv("S3_ENDPOINT", "https://env.example.com")
		os.Setenv("S3_SECRET_KEY", "from-env")
		os.Setenv("S3_SIGNATURE_VERSION", "v4")

		cfg, err := s3.LoadConfig(writeConfig(testConfigFile))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Endpoint).To(Equal("https://env.example.com"))
		Expect(cfg.SecretAccessKey).To(Equal("from-env"))
		Expect(cfg.SignatureVersion).To(Equal(s3.SignatureV4))
		// untouched by the environment
		Expect(cfg.AccessKeyID).To(Equal("user1"))
	})

	It("rejects invalid environment values", func() {
		os.Setenv("S3_PATH_STYLE", "maybe")
		_, err := s3.LoadConfig("")
		Expect(err).To(HaveOccurred())
	})

	Describe("PublicEndpoint", func() {
		It("interpolates the namespace", func() {
			cfg := s3.DefaultConfig()
			cfg.Namespace = "ns1"
			endpoint, err := cfg.PublicEndpoint()
			Expect(err).NotTo(HaveOccurred())
			Expect(endpoint).To(Equal("https://ns1.public.ecstestdrive.com"))
		})

		It("refuses an empty namespace", func() {
			_, err := s3.DefaultConfig().PublicEndpoint()
			Expect(err).To(HaveOccurred())
		})

		It("needs a placeholder in the template", func() {
			cfg := s3.DefaultConfig()
			cfg.Namespace = "ns1"
			cfg.PublicEndpointTemplate = "https://public.example.com"
			_, err := cfg.PublicEndpoint()
			Expect(err).To(HaveOccurred())
		})
	})

	It("masks secrets when printed", func() {
		cfg := s3.DefaultConfig()
		cfg.AccessKeyID = "131693042649205091@ecstestdrive.emc.com"
		cfg.SecretAccessKey = "supersecret"
		out := cfg.String()
		Expect(out).To(ContainSubstring("access-key-id=1316"))
		Expect(out).NotTo(ContainSubstring("131693042649205091"))
		Expect(out).NotTo(ContainSubstring("supersecret"))
		Expect(out).To(ContainSubstring("signature=V4"))
	})
})

var _ = DescribeTable("ParseSignatureVersion",
	func(input string, expected s3.SignatureVersion, valid bool) {
		version, err := s3.ParseSignatureVersion(input)
		if !valid {
			Expect(err).To(HaveOccurred())
			return
		}
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(expected))
	},
	Entry("empty defaults to V4", "", s3.SignatureV4, true),
	Entry("v4", "v4", s3.SignatureV4, true),
	Entry("V2", "V2", s3.SignatureV2, true),
	Entry("legacy signer override", "S3SignerType", s3.SignatureV2, true),
	Entry("V4 signer override", "AWSS3V4SignerType", s3.SignatureV4, true),
	Entry("unknown", "v3", s3.SignatureV4, false),
)
