package dynamodb_service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodb_types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/soulpass/api/functions/gateway/helpers"
	internal_types "github.com/soulpass/api/functions/gateway/types"
)

var rsvpTableName = helpers.GetDbTableName(helpers.RsvpsTablePrefix)

type EventRsvpService struct{}

func NewEventRsvpService() internal_types.EventRsvpServiceInterface {
	return &EventRsvpService{}
}

func withStatus(rsvp *internal_types.EventRsvp) *internal_types.EventRsvp {
	rsvp.Status = rsvp.DerivedStatus()
	return rsvp
}

func (s *EventRsvpService) RequestJoin(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId, participantId string) (*internal_types.EventRsvp, error) {
	event, err := fetchEvent(ctx, dynamodbClient, eventId)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID == participantId {
		return nil, internal_types.NewDomainError(internal_types.KindForbidden, "organizers cannot request to join their own event")
	}

	// profile is created lazily on first interaction
	if _, err := ensureProfile(ctx, dynamodbClient, participantId); err != nil {
		return nil, fmt.Errorf("failed to ensure participant profile: %w", err)
	}

	if rsvpTableName == "" {
		return nil, fmt.Errorf("ERR: rsvpTableName is empty")
	}

	rsvp := internal_types.EventRsvp{
		ID:          uuid.NewString(),
		EventID:     eventId,
		UserID:      participantId,
		RequestedAt: time.Now().UTC(),
	}

	item, err := attributevalue.MarshalMap(&rsvp)
	if err != nil {
		return nil, err
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(rsvpTableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(eventId) AND attribute_not_exists(userId)"),
	}

	_, err = dynamodbClient.PutItem(ctx, input)
	if err != nil {
		if isConditionalCheckFailure(err) {
			return nil, internal_types.WrapDomainError(internal_types.KindConflict, "an RSVP already exists for this participant", err)
		}
		return nil, translateDynamoErr(err)
	}

	return withStatus(&rsvp), nil
}

func (s *EventRsvpService) GetEventRsvpByPk(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId, userId string) (*internal_types.EventRsvp, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(rsvpTableName),
		Key: map[string]dynamodb_types.AttributeValue{
			"eventId": &dynamodb_types.AttributeValueMemberS{Value: eventId},
			"userId":  &dynamodb_types.AttributeValueMemberS{Value: userId},
		},
	}

	result, err := dynamodbClient.GetItem(ctx, input)
	if err != nil {
		return nil, translateDynamoErr(err)
	}
	if len(result.Item) == 0 {
		return nil, internal_types.NewDomainError(internal_types.KindNotFound, "rsvp not found")
	}

	var rsvp internal_types.EventRsvp
	err = attributevalue.UnmarshalMap(result.Item, &rsvp)
	if err != nil {
		return nil, err
	}

	return withStatus(&rsvp), nil
}

func (s *EventRsvpService) GetEventRsvpsByEventID(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId string) ([]internal_types.EventRsvp, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(rsvpTableName),
		KeyConditionExpression: aws.String("eventId = :eventId"),
		ExpressionAttributeValues: map[string]dynamodb_types.AttributeValue{
			":eventId": &dynamodb_types.AttributeValueMemberS{Value: eventId},
		},
	}

	result, err := dynamodbClient.Query(ctx, input)
	if err != nil {
		return nil, translateDynamoErr(err)
	}

	var rsvps []internal_types.EventRsvp
	err = attributevalue.UnmarshalListOfMaps(result.Items, &rsvps)
	if err != nil {
		return nil, err
	}

	for i := range rsvps {
		rsvps[i].Status = rsvps[i].DerivedStatus()
	}
	return rsvps, nil
}

// queryRsvpsByUser is shared with the profile service, which recomputes
// reputation from the full per-user RSVP history.
func queryRsvpsByUser(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, userId string) ([]internal_types.EventRsvp, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(rsvpTableName),
		IndexName:              aws.String(helpers.RsvpUserIdGsiName),
		KeyConditionExpression: aws.String("userId = :userId"),
		ExpressionAttributeValues: map[string]dynamodb_types.AttributeValue{
			":userId": &dynamodb_types.AttributeValueMemberS{Value: userId},
		},
	}

	result, err := dynamodbClient.Query(ctx, input)
	if err != nil {
		return nil, translateDynamoErr(err)
	}

	var rsvps []internal_types.EventRsvp
	err = attributevalue.UnmarshalListOfMaps(result.Items, &rsvps)
	if err != nil {
		return nil, err
	}

	for i := range rsvps {
		rsvps[i].Status = rsvps[i].DerivedStatus()
	}
	return rsvps, nil
}

func (s *EventRsvpService) GetEventRsvpsByUserID(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, userId string) ([]internal_types.EventRsvp, error) {
	return queryRsvpsByUser(ctx, dynamodbClient, userId)
}

// getRsvpByID resolves an rsvpId inside an event partition. Partitions are
// small (bounded by event capacity) so a partition query is sufficient, no
// dedicated index.
func getRsvpByID(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId, rsvpId string) (*internal_types.EventRsvp, error) {
	rsvps, err := (&EventRsvpService{}).GetEventRsvpsByEventID(ctx, dynamodbClient, eventId)
	if err != nil {
		return nil, err
	}
	for i := range rsvps {
		if rsvps[i].ID == rsvpId {
			return &rsvps[i], nil
		}
	}
	return nil, internal_types.NewDomainError(internal_types.KindNotFound, "rsvp not found")
}

func (s *EventRsvpService) ApproveEventRsvp(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId, rsvpId, actingId string) (*internal_types.EventRsvp, error) {
	event, err := fetchEvent(ctx, dynamodbClient, eventId)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != actingId {
		return nil, internal_types.NewDomainError(internal_types.KindForbidden, "only the organizer may approve RSVPs")
	}

	rsvp, err := getRsvpByID(ctx, dynamodbClient, eventId, rsvpId)
	if err != nil {
		return nil, err
	}
	if rsvp.ApprovedAt != nil {
		// approval is monotonic, re-approving is a no-op success
		return withStatus(rsvp), nil
	}

	now := time.Now().UTC()
	nowAttr := &dynamodb_types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)}

	// The approval write and the capacity check commit or fail together:
	// incrementing approvedCount is conditioned on capacity headroom while
	// setting approvedAt is conditioned on the RSVP still being pending, so
	// racing approvals near the limit cannot both succeed.
	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []dynamodb_types.TransactWriteItem{
			{
				Update: &dynamodb_types.Update{
					TableName: aws.String(eventsTableName),
					Key: map[string]dynamodb_types.AttributeValue{
						"id": &dynamodb_types.AttributeValueMemberS{Value: eventId},
					},
					UpdateExpression:    aws.String("SET approvedCount = approvedCount + :one"),
					ConditionExpression: aws.String("attribute_not_exists(capacity) OR approvedCount < capacity"),
					ExpressionAttributeValues: map[string]dynamodb_types.AttributeValue{
						":one": &dynamodb_types.AttributeValueMemberN{Value: "1"},
					},
				},
			},
			{
				Update: &dynamodb_types.Update{
					TableName: aws.String(rsvpTableName),
					Key: map[string]dynamodb_types.AttributeValue{
						"eventId": &dynamodb_types.AttributeValueMemberS{Value: eventId},
						"userId":  &dynamodb_types.AttributeValueMemberS{Value: rsvp.UserID},
					},
					UpdateExpression:    aws.String("SET approvedAt = :now"),
					ConditionExpression: aws.String("attribute_exists(eventId) AND attribute_not_exists(approvedAt)"),
					ExpressionAttributeValues: map[string]dynamodb_types.AttributeValue{
						":now": nowAttr,
					},
				},
			},
		},
	}

	_, err = dynamodbClient.TransactWriteItems(ctx, input)
	if err != nil {
		codes := transactCancellationCodes(err)
		if len(codes) == 2 {
			if codes[1] == cancellationConditionalCheckFailed {
				// lost a race with another approval of the same RSVP,
				// already-approved is a success
				return s.GetEventRsvpByPk(ctx, dynamodbClient, eventId, rsvp.UserID)
			}
			if codes[0] == cancellationConditionalCheckFailed {
				return nil, internal_types.WrapDomainError(internal_types.KindCapacityExceeded, "event is at capacity", err)
			}
		}
		return nil, translateDynamoErr(err)
	}

	refreshReputationAfterTransition(ctx, dynamodbClient, rsvp.UserID)

	rsvp.ApprovedAt = &now
	return withStatus(rsvp), nil
}

func (s *EventRsvpService) MarkEventRsvpAttended(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId, rsvpId, actingId string) (*internal_types.EventRsvp, error) {
	event, err := fetchEvent(ctx, dynamodbClient, eventId)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != actingId {
		return nil, internal_types.NewDomainError(internal_types.KindForbidden, "only the organizer may mark attendance")
	}

	rsvp, err := getRsvpByID(ctx, dynamodbClient, eventId, rsvpId)
	if err != nil {
		return nil, err
	}
	if rsvp.ApprovedAt == nil {
		return nil, internal_types.NewDomainError(internal_types.KindPrecondition, "attendance cannot be recorded before approval")
	}
	if rsvp.AttendedAt != nil {
		// already marked, idempotent no-op
		return withStatus(rsvp), nil
	}

	now := time.Now().UTC()
	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(rsvpTableName),
		Key: map[string]dynamodb_types.AttributeValue{
			"eventId": &dynamodb_types.AttributeValueMemberS{Value: eventId},
			"userId":  &dynamodb_types.AttributeValueMemberS{Value: rsvp.UserID},
		},
		UpdateExpression:    aws.String("SET attendedAt = :now"),
		ConditionExpression: aws.String("attribute_exists(approvedAt) AND attribute_not_exists(attendedAt)"),
		ExpressionAttributeValues: map[string]dynamodb_types.AttributeValue{
			":now": &dynamodb_types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
		},
	}

	_, err = dynamodbClient.UpdateItem(ctx, input)
	if err != nil {
		if isConditionalCheckFailure(err) {
			// raced with another scan of the same attendee
			return s.GetEventRsvpByPk(ctx, dynamodbClient, eventId, rsvp.UserID)
		}
		return nil, translateDynamoErr(err)
	}

	refreshReputationAfterTransition(ctx, dynamodbClient, rsvp.UserID)

	rsvp.AttendedAt = &now
	return withStatus(rsvp), nil
}

func (s *EventRsvpService) ListPendingEventRsvps(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId, actingId string) ([]internal_types.PendingEventRsvp, error) {
	event, err := fetchEvent(ctx, dynamodbClient, eventId)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != actingId {
		return nil, internal_types.NewDomainError(internal_types.KindForbidden, "only the organizer may list pending RSVPs")
	}

	rsvps, err := s.GetEventRsvpsByEventID(ctx, dynamodbClient, eventId)
	if err != nil {
		return nil, err
	}

	var pending []internal_types.PendingEventRsvp
	for i := range rsvps {
		if rsvps[i].ApprovedAt != nil {
			continue
		}
		entry := internal_types.PendingEventRsvp{EventRsvp: rsvps[i]}
		profile, err := getProfileItem(ctx, dynamodbClient, rsvps[i].UserID)
		if err != nil {
			// a missing profile ranks as zero reputation rather than
			// failing the whole listing
			log.Printf("ERR: failed to load profile for %s: %v", rsvps[i].UserID, err)
		} else {
			entry.Profile = profile
		}
		pending = append(pending, entry)
	}

	// highest reputation first so organizers triage trustworthy requests
	// under capacity pressure, earlier request wins a tie
	sort.Slice(pending, func(i, j int) bool {
		scoreI, scoreJ := 0.0, 0.0
		if pending[i].Profile != nil {
			scoreI = pending[i].Profile.ReputationScore
		}
		if pending[j].Profile != nil {
			scoreJ = pending[j].Profile.ReputationScore
		}
		if scoreI != scoreJ {
			return scoreI > scoreJ
		}
		if !pending[i].RequestedAt.Equal(pending[j].RequestedAt) {
			return pending[i].RequestedAt.Before(pending[j].RequestedAt)
		}
		return pending[i].ID < pending[j].ID
	})

	return pending, nil
}

func (s *EventRsvpService) ListApprovedEventRsvps(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId string) ([]internal_types.EventRsvp, error) {
	rsvps, err := s.GetEventRsvpsByEventID(ctx, dynamodbClient, eventId)
	if err != nil {
		return nil, err
	}

	var approved []internal_types.EventRsvp
	for i := range rsvps {
		if rsvps[i].ApprovedAt != nil {
			approved = append(approved, rsvps[i])
		}
	}

	sort.Slice(approved, func(i, j int) bool {
		if !approved[i].ApprovedAt.Equal(*approved[j].ApprovedAt) {
			return approved[i].ApprovedAt.Before(*approved[j].ApprovedAt)
		}
		return approved[i].ID < approved[j].ID
	})
	return approved, nil
}

// refreshReputationAfterTransition recomputes the participant's cached score
// after a successful approve or attendance write. The mutation is already
// durable, so a failed refresh only logs, the next profile read repairs it.
func refreshReputationAfterTransition(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, userId string) {
	if _, err := refreshProfileReputation(ctx, dynamodbClient, userId); err != nil {
		log.Printf("ERR: failed to refresh reputation for %s: %v", userId, err)
	}
}

type MockEventRsvpService struct {
	RequestJoinFunc            func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId, participantId string) (*internal_types.EventRsvp, error)
	GetEventRsvpByPkFunc       func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId, userId string) (*internal_types.EventRsvp, error)
	GetEventRsvpsByEventIDFunc func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId string) ([]internal_types.EventRsvp, error)
	GetEventRsvpsByUserIDFunc  func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, userId string) ([]internal_types.EventRsvp, error)
	ApproveEventRsvpFunc       func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId, rsvpId, actingId string) (*internal_types.EventRsvp, error)
	MarkEventRsvpAttendedFunc  func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId, rsvpId, actingId string) (*internal_types.EventRsvp, error)
	ListPendingEventRsvpsFunc  func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId, actingId string) ([]internal_types.PendingEventRsvp, error)
	ListApprovedEventRsvpsFunc func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId string) ([]internal_types.EventRsvp, error)
}

func (m *MockEventRsvpService) RequestJoin(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId, participantId string) (*internal_types.EventRsvp, error) {
	return m.RequestJoinFunc(ctx, dynamodbClient, eventId, participantId)
}

func (m *MockEventRsvpService) GetEventRsvpByPk(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId, userId string) (*internal_types.EventRsvp, error) {
	return m.GetEventRsvpByPkFunc(ctx, dynamodbClient, eventId, userId)
}

func (m *MockEventRsvpService) GetEventRsvpsByEventID(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId string) ([]internal_types.EventRsvp, error) {
	return m.GetEventRsvpsByEventIDFunc(ctx, dynamodbClient, eventId)
}

func (m *MockEventRsvpService) GetEventRsvpsByUserID(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, userId string) ([]internal_types.EventRsvp, error) {
	return m.GetEventRsvpsByUserIDFunc(ctx, dynamodbClient, userId)
}

func (m *MockEventRsvpService) ApproveEventRsvp(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId, rsvpId, actingId string) (*internal_types.EventRsvp, error) {
	return m.ApproveEventRsvpFunc(ctx, dynamodbClient, eventId, rsvpId, actingId)
}

func (m *MockEventRsvpService) MarkEventRsvpAttended(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId, rsvpId, actingId string) (*internal_types.EventRsvp, error) {
	return m.MarkEventRsvpAttendedFunc(ctx, dynamodbClient, eventId, rsvpId, actingId)
}

func (m *MockEventRsvpService) ListPendingEventRsvps(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId, actingId string) ([]internal_types.PendingEventRsvp, error) {
	return m.ListPendingEventRsvpsFunc(ctx, dynamodbClient, eventId, actingId)
}

func (m *MockEventRsvpService) ListApprovedEventRsvps(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, eventId string) ([]internal_types.EventRsvp, error) {
	return m.ListApprovedEventRsvpsFunc(ctx, dynamodbClient, eventId)
}
