// Package awsident implements the "aws_identity" provider: resolves the
// AWS identity the flowtoy process is running as, via STS
// GetCallerIdentity. Not present in the original project; added because
// the teacher repo carries the full aws-sdk-go-v2 stack and a "who am I"
// lookup is a natural data-collection source alongside directory/http/env.
package awsident

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/flowtoy/flowtoy/internal/provider"
	"github.com/flowtoy/flowtoy/internal/result"
)

func init() {
	provider.RegisterPlugin("aws_identity", New)
}

// Identity calls sts:GetCallerIdentity against a configured AWS profile
// and region.
type Identity struct {
	profile string
	region  string
}

// New constructs an Identity provider. Both "profile" and "region" are
// optional; when absent, the SDK's default credential/region chain
// applies (environment, shared config, instance metadata).
func New(cfg map[string]interface{}) (provider.Provider, error) {
	id := &Identity{}
	if v, ok := cfg["profile"].(string); ok {
		id.profile = v
	}
	if v, ok := cfg["region"].(string); ok {
		id.region = v
	}
	return id, nil
}

// Call ignores payload and returns the caller's account, ARN, and user ID.
func (id *Identity) Call(ctx context.Context, payload interface{}) (result.Result, error) {
	var opts []func(*awscfg.LoadOptions) error
	if id.profile != "" {
		opts = append(opts, awscfg.WithSharedConfigProfile(id.profile))
	}
	if id.region != "" {
		opts = append(opts, awscfg.WithRegion(id.region))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return result.FromException(err), nil
	}

	client := sts.NewFromConfig(awsCfg)
	out, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return result.FromException(fmt.Errorf("sts:GetCallerIdentity: %w", err)), nil
	}

	data := map[string]interface{}{
		"account": aws.ToString(out.Account),
		"arn":     aws.ToString(out.Arn),
		"user_id": aws.ToString(out.UserId),
	}
	return result.Make(true, nil, data, nil, nil), nil
}
