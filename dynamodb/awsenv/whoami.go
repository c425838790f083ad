package awsenv

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

type STSClient interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

type IAMClient interface {
	GetUser(ctx context.Context, params *iam.GetUserInput, optFns ...func(*iam.Options)) (*iam.GetUserOutput, error)
}

// Identity is the caller the configured credentials resolve to.
type Identity struct {
	Account string
	Arn     string
	UserID  string
	// UserName is only known for IAM users.
	UserName string
}

// WhoAmI asks STS for the caller identity. When iamClient is set it also
// looks up the IAM user name; that lookup fails for roles and is ignored.
func WhoAmI(ctx context.Context, stsClient STSClient, iamClient IAMClient) (*Identity, error) {
	out, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("get caller identity: %w", err)
	}
	id := &Identity{
		Account: aws.ToString(out.Account),
		Arn:     aws.ToString(out.Arn),
		UserID:  aws.ToString(out.UserId),
	}

	if iamClient != nil {
		user, err := iamClient.GetUser(ctx, &iam.GetUserInput{})
		if err == nil && user.User != nil {
			id.UserName = aws.ToString(user.User.UserName)
		}
	}
	return id, nil
}

// NewWhoAmIClients builds the STS and IAM clients for cfg.
func NewWhoAmIClients(cfg aws.Config) (*sts.Client, *iam.Client) {
	return sts.NewFromConfig(cfg), iam.NewFromConfig(cfg)
}
