package mainconfig

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/callkaidsroofing/lead-intake/internal/config"
)

func TestNeedsAWS(t *testing.T) {
	cases := []struct {
		name string
		cfg  appconfig.Config
		want bool
	}{
		{"nothing", appconfig.Config{EmailProvider: appconfig.EmailResend}, false},
		{"queue", appconfig.Config{LeadQueueURL: "http://localhost:4566/000/leads"}, true},
		{"archive", appconfig.Config{LeadArchiveBucket: "leads"}, true},
		{"ses", appconfig.Config{EmailProvider: appconfig.EmailSES}, true},
	}
	for _, tc := range cases {
		if got := NeedsAWS(&tc.cfg); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestLoadAWSConfigEndpointOverride(t *testing.T) {
	cfg := &appconfig.Config{
		AWSRegion:           "ap-southeast-2",
		AWSAccessKeyID:      "test",
		AWSSecretAccessKey:  "test",
		AWSEndpointOverride: "http://localhost:4566",
	}
	awsCfg, err := LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if awsCfg.Region != "ap-southeast-2" {
		t.Fatalf("expected region, got %q", awsCfg.Region)
	}
	for _, svc := range []string{sqs.ServiceID, s3.ServiceID} {
		ep, err := awsCfg.EndpointResolverWithOptions.ResolveEndpoint(svc, cfg.AWSRegion)
		if err != nil {
			t.Fatalf("%s: %v", svc, err)
		}
		if ep.URL != "http://localhost:4566" {
			t.Fatalf("%s: expected override, got %q", svc, ep.URL)
		}
	}
	if _, err := awsCfg.EndpointResolverWithOptions.ResolveEndpoint("DynamoDB", cfg.AWSRegion); err == nil {
		t.Fatalf("expected other services to fall through")
	}
}
