package config

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

// OverlaySSM copies every parameter under SSM_PARAMETER_PATH into c, keyed by the
// last segment of the parameter name. It is a no-op when the path is unset.
func OverlaySSM(ctx context.Context, c map[string]string) error {
	paramPath := GetString(c, "SSM_PARAMETER_PATH", "")
	if paramPath == "" {
		return nil
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if region := GetString(c, "AWS_REGION", ""); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	return overlayParameters(ctx, ssm.NewFromConfig(awsCfg), paramPath, c)
}

func overlayParameters(ctx context.Context, client ssm.GetParametersByPathAPIClient, paramPath string, c map[string]string) error {
	paginator := ssm.NewGetParametersByPathPaginator(client, &ssm.GetParametersByPathInput{
		Path:           aws.String(paramPath),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})

	count := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("read ssm parameters under %s: %w", paramPath, err)
		}
		for _, p := range page.Parameters {
			name := strings.TrimSpace(path.Base(aws.ToString(p.Name)))
			if name == "" || name == "/" || name == "." {
				continue
			}
			c[name] = aws.ToString(p.Value)
			count++
		}
	}

	log.Info().Str("path", paramPath).Int("count", count).Msg("Applied SSM parameters")
	return nil
}
