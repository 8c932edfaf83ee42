package dynamodb_service

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodb_types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/soulpass/api/functions/gateway/helpers"
	"github.com/soulpass/api/functions/gateway/services"
	internal_types "github.com/soulpass/api/functions/gateway/types"
)

var profilesTableName = helpers.GetDbTableName(helpers.ProfilesTablePrefix)

type ProfileService struct{}

func NewProfileService() internal_types.ProfileServiceInterface {
	return &ProfileService{}
}

// ensureProfile creates the placeholder profile for an address on its first
// interaction. The conditional put makes concurrent first interactions
// converge on a single item, the loser reads the winner's row back.
func ensureProfile(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, address string) (*internal_types.Profile, error) {
	if profilesTableName == "" {
		return nil, fmt.Errorf("ERR: profilesTableName is empty")
	}

	now := time.Now().UTC()
	profile := internal_types.Profile{
		Address:   address,
		FullName:  helpers.DefaultDisplayName(address),
		CreatedAt: now,
		UpdatedAt: now,
	}

	item, err := attributevalue.MarshalMap(&profile)
	if err != nil {
		return nil, err
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(profilesTableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(address)"),
	}

	_, err = dynamodbClient.PutItem(ctx, input)
	if err != nil {
		if isConditionalCheckFailure(err) {
			return getProfileItem(ctx, dynamodbClient, address)
		}
		return nil, translateDynamoErr(err)
	}

	return withLabel(&profile), nil
}

func withLabel(profile *internal_types.Profile) *internal_types.Profile {
	profile.ReputationLabel = services.ReputationLabel(profile.ReputationScore)
	return profile
}

func getProfileItem(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, address string) (*internal_types.Profile, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(profilesTableName),
		Key: map[string]dynamodb_types.AttributeValue{
			"address": &dynamodb_types.AttributeValueMemberS{Value: address},
		},
	}

	result, err := dynamodbClient.GetItem(ctx, input)
	if err != nil {
		return nil, translateDynamoErr(err)
	}
	if len(result.Item) == 0 {
		return nil, internal_types.NewDomainError(internal_types.KindNotFound, "profile not found")
	}

	var profile internal_types.Profile
	err = attributevalue.UnmarshalMap(result.Item, &profile)
	if err != nil {
		return nil, err
	}

	return withLabel(&profile), nil
}

// refreshProfileReputation recomputes the cached reputation projection from
// the address's full RSVP history and writes it through to the profile item.
func refreshProfileReputation(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, address string) (*internal_types.Profile, error) {
	rsvps, err := queryRsvpsByUser(ctx, dynamodbClient, address)
	if err != nil {
		return nil, err
	}
	summary := services.ComputeReputation(rsvps)

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(profilesTableName),
		Key: map[string]dynamodb_types.AttributeValue{
			"address": &dynamodb_types.AttributeValueMemberS{Value: address},
		},
		UpdateExpression:    aws.String("SET reputationScore = :score, eventsApproved = :approved, eventsAttended = :attended, totalRequests = :total, updatedAt = :updatedAt"),
		ConditionExpression: aws.String("attribute_exists(address)"),
		ExpressionAttributeValues: map[string]dynamodb_types.AttributeValue{
			":score":     &dynamodb_types.AttributeValueMemberN{Value: fmt.Sprintf("%g", summary.Score)},
			":approved":  &dynamodb_types.AttributeValueMemberN{Value: fmt.Sprintf("%d", summary.EventsApproved)},
			":attended":  &dynamodb_types.AttributeValueMemberN{Value: fmt.Sprintf("%d", summary.EventsAttended)},
			":total":     &dynamodb_types.AttributeValueMemberN{Value: fmt.Sprintf("%d", summary.TotalRequests)},
			":updatedAt": &dynamodb_types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
		ReturnValues: dynamodb_types.ReturnValueAllNew,
	}

	res, err := dynamodbClient.UpdateItem(ctx, input)
	if err != nil {
		if isConditionalCheckFailure(err) {
			return nil, internal_types.NewDomainError(internal_types.KindNotFound, "profile not found")
		}
		return nil, translateDynamoErr(err)
	}

	var profile internal_types.Profile
	err = attributevalue.UnmarshalMap(res.Attributes, &profile)
	if err != nil {
		return nil, err
	}

	return withLabel(&profile), nil
}

func (s *ProfileService) EnsureProfile(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, address string) (*internal_types.Profile, error) {
	return ensureProfile(ctx, dynamodbClient, address)
}

// GetProfileByAddress refreshes the cached reputation on the way out so a
// stale projection repairs itself on the next read.
func (s *ProfileService) GetProfileByAddress(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, address string) (*internal_types.Profile, error) {
	if _, err := getProfileItem(ctx, dynamodbClient, address); err != nil {
		return nil, err
	}
	return refreshProfileReputation(ctx, dynamodbClient, address)
}

func (s *ProfileService) UpdateProfile(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, address string, updateProfile internal_types.ProfileUpdate) (*internal_types.Profile, error) {
	if err := validate.Struct(updateProfile); err != nil {
		return nil, internal_types.WrapDomainError(internal_types.KindValidation, "invalid profile payload", err)
	}

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(profilesTableName),
		Key: map[string]dynamodb_types.AttributeValue{
			"address": &dynamodb_types.AttributeValueMemberS{Value: address},
		},
		ConditionExpression:       aws.String("attribute_exists(address)"),
		ExpressionAttributeNames:  make(map[string]string),
		ExpressionAttributeValues: make(map[string]dynamodb_types.AttributeValue),
		UpdateExpression:          aws.String("SET"),
		ReturnValues:              dynamodb_types.ReturnValueAllNew,
	}

	if updateProfile.FullName != "" {
		input.ExpressionAttributeNames["#fullName"] = "fullName"
		input.ExpressionAttributeValues[":fullName"] = &dynamodb_types.AttributeValueMemberS{Value: updateProfile.FullName}
		*input.UpdateExpression += " #fullName = :fullName,"
	}

	if updateProfile.Bio != "" {
		input.ExpressionAttributeNames["#bio"] = "bio"
		input.ExpressionAttributeValues[":bio"] = &dynamodb_types.AttributeValueMemberS{Value: updateProfile.Bio}
		*input.UpdateExpression += " #bio = :bio,"
	}

	if updateProfile.AvatarURL != "" {
		input.ExpressionAttributeNames["#avatarUrl"] = "avatarUrl"
		input.ExpressionAttributeValues[":avatarUrl"] = &dynamodb_types.AttributeValueMemberS{Value: updateProfile.AvatarURL}
		*input.UpdateExpression += " #avatarUrl = :avatarUrl,"
	}

	if updateProfile.LinkedinURL != "" {
		input.ExpressionAttributeNames["#linkedinUrl"] = "linkedinUrl"
		input.ExpressionAttributeValues[":linkedinUrl"] = &dynamodb_types.AttributeValueMemberS{Value: updateProfile.LinkedinURL}
		*input.UpdateExpression += " #linkedinUrl = :linkedinUrl,"
	}

	if updateProfile.TwitterURL != "" {
		input.ExpressionAttributeNames["#twitterUrl"] = "twitterUrl"
		input.ExpressionAttributeValues[":twitterUrl"] = &dynamodb_types.AttributeValueMemberS{Value: updateProfile.TwitterURL}
		*input.UpdateExpression += " #twitterUrl = :twitterUrl,"
	}

	if updateProfile.GithubURL != "" {
		input.ExpressionAttributeNames["#githubUrl"] = "githubUrl"
		input.ExpressionAttributeValues[":githubUrl"] = &dynamodb_types.AttributeValueMemberS{Value: updateProfile.GithubURL}
		*input.UpdateExpression += " #githubUrl = :githubUrl,"
	}

	// Set the updatedAt field
	input.ExpressionAttributeNames["#updatedAt"] = "updatedAt"
	input.ExpressionAttributeValues[":updatedAt"] = &dynamodb_types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)}
	*input.UpdateExpression += " #updatedAt = :updatedAt"

	res, err := dynamodbClient.UpdateItem(ctx, input)
	if err != nil {
		if isConditionalCheckFailure(err) {
			return nil, internal_types.NewDomainError(internal_types.KindNotFound, "profile not found")
		}
		return nil, translateDynamoErr(err)
	}

	var profile internal_types.Profile
	err = attributevalue.UnmarshalMap(res.Attributes, &profile)
	if err != nil {
		return nil, err
	}

	return withLabel(&profile), nil
}

func (s *ProfileService) RefreshReputation(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, address string) (*internal_types.Profile, error) {
	return refreshProfileReputation(ctx, dynamodbClient, address)
}

type MockProfileService struct {
	EnsureProfileFunc       func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, address string) (*internal_types.Profile, error)
	GetProfileByAddressFunc func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, address string) (*internal_types.Profile, error)
	UpdateProfileFunc       func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, address string, profile internal_types.ProfileUpdate) (*internal_types.Profile, error)
	RefreshReputationFunc   func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, address string) (*internal_types.Profile, error)
}

func (m *MockProfileService) EnsureProfile(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, address string) (*internal_types.Profile, error) {
	return m.EnsureProfileFunc(ctx, dynamodbClient, address)
}

func (m *MockProfileService) GetProfileByAddress(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, address string) (*internal_types.Profile, error) {
	return m.GetProfileByAddressFunc(ctx, dynamodbClient, address)
}

func (m *MockProfileService) UpdateProfile(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, address string, profile internal_types.ProfileUpdate) (*internal_types.Profile, error) {
	return m.UpdateProfileFunc(ctx, dynamodbClient, address, profile)
}

func (m *MockProfileService) RefreshReputation(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, address string) (*internal_types.Profile, error) {
	return m.RefreshReputationFunc(ctx, dynamodbClient, address)
}
