// Package awsenv turns the region and endpoint settings of the CLI and test
// harness into an aws.Config.
package awsenv

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// Environment variables read by Settings.FromEnv.
const (
	EnvEndpointURL = "AWS_ENDPOINT_URL"
	EnvRegion      = "AWS_REGION"
)

// LocalRegion and LocalCredential are used when only an endpoint is given,
// which is how DynamoDB Local and similar emulators are addressed.
const (
	LocalRegion     = "local"
	LocalCredential = "local"
)

// Settings are the user supplied connection details. Both are optional.
type Settings struct {
	Region      string
	EndpointURL string
}

// FromEnv fills unset fields from AWS_REGION and AWS_ENDPOINT_URL.
func (s Settings) FromEnv() Settings {
	if s.Region == "" {
		s.Region = os.Getenv(EnvRegion)
	}
	if s.EndpointURL == "" {
		s.EndpointURL = os.Getenv(EnvEndpointURL)
	}
	return s
}

// Mode describes how a Settings value is turned into a config.
type Mode int

const (
	// ModeDefault uses the SDK defaults for region and endpoint.
	ModeDefault Mode = iota
	// ModeRegion uses the default endpoint of the given region.
	ModeRegion
	// ModeCustom uses the given endpoint in the given region.
	ModeCustom
	// ModeLocal uses the given endpoint in region "local".
	ModeLocal
)

func (m Mode) String() string {
	switch m {
	case ModeRegion:
		return "region"
	case ModeCustom:
		return "custom"
	case ModeLocal:
		return "local"
	default:
		return "default"
	}
}

// Resolved is the outcome of resolving Settings.
type Resolved struct {
	Mode     Mode
	Region   string
	Endpoint string
	// StaticCredentials is set when local/local credentials must be supplied
	// because the environment has none.
	StaticCredentials bool
}

// Resolve decides region, endpoint and credentials for s. lookupEnv is
// consulted for existing credentials and is normally os.LookupEnv.
func Resolve(s Settings, lookupEnv func(string) (string, bool)) Resolved {
	switch {
	case s.Region != "" && s.EndpointURL != "":
		return Resolved{Mode: ModeCustom, Region: s.Region, Endpoint: s.EndpointURL}
	case s.Region != "":
		return Resolved{Mode: ModeRegion, Region: s.Region}
	case s.EndpointURL != "":
		return Resolved{
			Mode:              ModeLocal,
			Region:            LocalRegion,
			Endpoint:          s.EndpointURL,
			StaticCredentials: !hasEnv(lookupEnv, "AWS_ACCESS_KEY_ID") || !hasEnv(lookupEnv, "AWS_SECRET_ACCESS_KEY"),
		}
	default:
		return Resolved{Mode: ModeDefault}
	}
}

func hasEnv(lookupEnv func(string) (string, bool), key string) bool {
	v, ok := lookupEnv(key)
	return ok && v != ""
}

// LoadConfig resolves s against the process environment and loads an aws.Config.
func LoadConfig(ctx context.Context, s Settings, optFns ...func(*config.LoadOptions) error) (aws.Config, Resolved, error) {
	r := Resolve(s, os.LookupEnv)

	var opts []func(*config.LoadOptions) error
	if r.Region != "" {
		opts = append(opts, config.WithRegion(r.Region))
	}
	if r.StaticCredentials {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(LocalCredential, LocalCredential, ""),
		))
	}
	opts = append(opts, optFns...)

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, r, fmt.Errorf("load aws config: %w", err)
	}
	if r.Endpoint != "" {
		cfg.BaseEndpoint = aws.String(r.Endpoint)
	}
	return cfg, r, nil
}
