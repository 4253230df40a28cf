package opensearch

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsopensearch "github.com/aws/aws-sdk-go-v2/service/opensearch"
	opensearchgo "github.com/opensearch-project/opensearch-go"
	"github.com/poiesic/vsloader/core"
)

const (
	localPort = "9002"
	awsPort   = "443"
)

// Connection describes how to reach a cluster.
// When URL is set it is used with basic auth and unverified TLS.
// Otherwise the VPC endpoint of the AWS domain EndpointName is looked up.
type Connection struct {
	URL          string
	Username     string
	Password     string
	EndpointName string
	Region       string
}

// DomainDescriber is the subset of the AWS OpenSearch API used for
// endpoint discovery.
type DomainDescriber interface {
	DescribeDomain(ctx context.Context, params *awsopensearch.DescribeDomainInput, optFns ...func(*awsopensearch.Options)) (*awsopensearch.DescribeDomainOutput, error)
}

// Dial builds an opensearch-go client for conn. describer may be nil, in
// which case one is created from the default AWS config when needed.
func Dial(ctx context.Context, conn Connection, describer DomainDescriber) (*opensearchgo.Client, error) {
	if conn.URL != "" {
		return opensearchgo.NewClient(opensearchgo.Config{
			Addresses: []string{withScheme(conn.URL, localPort)},
			Username:  conn.Username,
			Password:  conn.Password,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
			},
		})
	}

	if describer == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(conn.Region))
		if err != nil {
			return nil, fmt.Errorf("%w: loading aws config: %w", core.ErrStorageUnavailable, err)
		}
		describer = awsopensearch.NewFromConfig(cfg)
	}
	endpoint, err := ResolveEndpoint(ctx, describer, conn.EndpointName)
	if err != nil {
		return nil, err
	}
	return opensearchgo.NewClient(opensearchgo.Config{
		Addresses: []string{withScheme(endpoint, awsPort)},
	})
}

// ResolveEndpoint returns the VPC endpoint of an AWS OpenSearch domain.
func ResolveEndpoint(ctx context.Context, describer DomainDescriber, domain string) (string, error) {
	out, err := describer.DescribeDomain(ctx, &awsopensearch.DescribeDomainInput{
		DomainName: aws.String(domain),
	})
	if err != nil {
		return "", fmt.Errorf("%w: describing domain %s: %w", core.ErrStorageUnavailable, domain, err)
	}
	if out.DomainStatus == nil {
		return "", fmt.Errorf("%w: domain %s has no status", core.ErrStorageUnavailable, domain)
	}
	if vpc, ok := out.DomainStatus.Endpoints["vpc"]; ok && vpc != "" {
		return vpc, nil
	}
	if out.DomainStatus.Endpoint != nil && *out.DomainStatus.Endpoint != "" {
		return *out.DomainStatus.Endpoint, nil
	}
	return "", fmt.Errorf("%w: domain %s has no endpoint", core.ErrStorageUnavailable, domain)
}

// withScheme turns a bare host into an https URL on port.
func withScheme(address, port string) string {
	if strings.Contains(address, "://") {
		return address
	}
	if !strings.Contains(address, ":") {
		address += ":" + port
	}
	return "https://" + address
}
