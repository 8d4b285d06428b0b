package s3

import (
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7/pkg/credentials"
)

// SignatureVersion selects the request signing scheme of a client.
type SignatureVersion int

const (
	// SignatureV4 is the library default.
	SignatureV4 SignatureVersion = iota
	// SignatureV2 is the legacy scheme, kept for older endpoints.
	SignatureV2
)

// names of the signer overrides as known by the AWS SDKs
const (
	v2SignerOverride = "s3signertype"
	v4SignerOverride = "awss3v4signertype"
)

func (v SignatureVersion) String() string {
	switch v {
	case SignatureV2:
		return "V2"
	case SignatureV4:
		return "V4"
	default:
		return fmt.Sprintf("SignatureVersion(%d)", int(v))
	}
}

// ParseSignatureVersion accepts "v2", "v4" and the SDK signer override names.
func ParseSignatureVersion(s string) (SignatureVersion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "v4", "4", v4SignerOverride:
		return SignatureV4, nil
	case "v2", "2", v2SignerOverride:
		return SignatureV2, nil
	}
	return SignatureV4, fmt.Errorf("unknown signature version %q", s)
}

// UnmarshalText lets envconfig and flag decoding fill a SignatureVersion.
func (v *SignatureVersion) UnmarshalText(text []byte) error {
	parsed, err := ParseSignatureVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v SignatureVersion) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(v.String())), nil
}

func (v SignatureVersion) signerType() credentials.SignatureType {
	if v == SignatureV2 {
		return credentials.SignatureV2
	}
	return credentials.SignatureV4
}
