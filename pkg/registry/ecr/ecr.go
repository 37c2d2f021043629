package ecr

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/aws/smithy-go"
	godigest "github.com/opencontainers/go-digest"

	zerr "github.com/regtools/tagreap/errors"
	zlog "github.com/regtools/tagreap/pkg/log"
	"github.com/regtools/tagreap/pkg/registry"
)

var errUnableToLoadAWSConfig = errors.New("unable to load AWS config for region")

// api is the slice of the ECR surface the client touches; tests substitute a
// fake transport through it.
type api interface {
	DescribeImages(ctx context.Context, in *ecr.DescribeImagesInput,
		optFns ...func(*ecr.Options)) (*ecr.DescribeImagesOutput, error)
	BatchDeleteImage(ctx context.Context, in *ecr.BatchDeleteImageInput,
		optFns ...func(*ecr.Options)) (*ecr.BatchDeleteImageOutput, error)
}

type Client struct {
	api       api
	batchSize int
	log       zlog.Logger
}

func New(ctx context.Context, region string, batchSize int, log zlog.Logger) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", errUnableToLoadAWSConfig, region, err)
	}

	return NewWithAPI(ecr.NewFromConfig(cfg), batchSize, log), nil
}

func NewWithAPI(ecrAPI api, batchSize int, log zlog.Logger) *Client {
	return &Client{api: ecrAPI, batchSize: batchSize, log: log}
}

// ListImages pages through DescribeImages and flattens the result: one record
// per (tag, digest) pair, plus untagged records the planner reports but never
// deletes.
func (c *Client) ListImages(ctx context.Context, repo string) ([]registry.Image, error) {
	paginator := ecr.NewDescribeImagesPaginator(c.api, &ecr.DescribeImagesInput{
		RepositoryName: aws.String(repo),
	})

	images := make([]registry.Image, 0)

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			var notFound *ecrtypes.RepositoryNotFoundException
			if errors.As(err, &notFound) {
				return nil, fmt.Errorf("%w: %s", zerr.ErrRepoNotFound, repo)
			}

			var apiErr smithy.APIError
			if errors.As(err, &apiErr) {
				c.log.Error().Str("repository", repo).
					Str("code", apiErr.ErrorCode()).Msg("failed to list images")
			}

			return nil, fmt.Errorf("failed to list images for %s: %w", repo, err)
		}

		for _, detail := range page.ImageDetails {
			if detail.ImageDigest == nil {
				continue
			}

			img := registry.Image{
				Digest:   godigest.Digest(*detail.ImageDigest),
				PushedAt: aws.ToTime(detail.ImagePushedAt),
			}

			if len(detail.ImageTags) == 0 {
				images = append(images, img)

				continue
			}

			for _, tag := range detail.ImageTags {
				img.Tag = tag
				images = append(images, img)
			}
		}
	}

	c.log.Info().Str("repository", repo).Int("count", len(images)).Msg("listed images")

	return images, nil
}

// DeleteDigests issues BatchDeleteImage calls in chunks. Per-digest failures
// are collected and returned; they never abort the remaining batches.
func (c *Client) DeleteDigests(ctx context.Context, repo string, digests []godigest.Digest,
) ([]registry.DeleteFailure, error) {
	failures := make([]registry.DeleteFailure, 0)

	for start := 0; start < len(digests); start += c.batchSize {
		upper := start + c.batchSize
		if upper > len(digests) {
			upper = len(digests)
		}

		imageIds := make([]ecrtypes.ImageIdentifier, 0, upper-start)
		for _, digest := range digests[start:upper] {
			imageIds = append(imageIds, ecrtypes.ImageIdentifier{
				ImageDigest: aws.String(digest.String()),
			})
		}

		output, err := c.api.BatchDeleteImage(ctx, &ecr.BatchDeleteImageInput{
			RepositoryName: aws.String(repo),
			ImageIds:       imageIds,
		})
		if err != nil {
			return failures, fmt.Errorf("failed to delete image batch for %s: %w", repo, err)
		}

		c.log.Info().Str("repository", repo).
			Int("deleted", len(output.ImageIds)).Msg("deleted image batch")

		for _, failure := range output.Failures {
			deleteFailure := registry.DeleteFailure{
				Code:   string(failure.FailureCode),
				Reason: aws.ToString(failure.FailureReason),
			}

			if failure.ImageId != nil {
				deleteFailure.Digest = godigest.Digest(aws.ToString(failure.ImageId.ImageDigest))
			}

			c.log.Error().Str("repository", repo).
				Str("digest", deleteFailure.Digest.String()).
				Str("code", deleteFailure.Code).
				Str("reason", deleteFailure.Reason).Msg("failed to delete image")

			failures = append(failures, deleteFailure)
		}
	}

	return failures, nil
}
