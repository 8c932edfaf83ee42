package dynamodb_service

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodb_types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-playground/validator"
	"github.com/google/uuid"
	"github.com/soulpass/api/functions/gateway/helpers"
	internal_types "github.com/soulpass/api/functions/gateway/types"
)

var eventsTableName = helpers.GetDbTableName(helpers.EventsTablePrefix)

var validate *validator.Validate = validator.New()

type EventService struct{}

func NewEventService() internal_types.EventServiceInterface {
	return &EventService{}
}

func (s *EventService) InsertEvent(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, createEvent internal_types.EventInsert) (*internal_types.Event, error) {
	if err := validate.Struct(createEvent); err != nil {
		return nil, internal_types.WrapDomainError(internal_types.KindValidation, "invalid event payload", err)
	}
	if createEvent.EndTime != nil && createEvent.EndTime.Before(createEvent.StartTime) {
		return nil, internal_types.NewDomainError(internal_types.KindValidation, "end_time must not be before start_time")
	}

	if eventsTableName == "" {
		return nil, fmt.Errorf("ERR: eventsTableName is empty")
	}

	// absent capacity means unlimited, stored as zero with the attribute
	// dropped so the approval gate's capacity condition never fires
	var capacity int64
	if createEvent.Capacity != nil {
		capacity = *createEvent.Capacity
	}

	now := time.Now().UTC()
	newEvent := internal_types.Event{
		Id:            uuid.NewString(),
		OrganizerID:   createEvent.OrganizerID,
		Title:         createEvent.Title,
		Description:   createEvent.Description,
		StartTime:     createEvent.StartTime,
		EndTime:       createEvent.EndTime,
		Location:      createEvent.Location,
		Address:       createEvent.Address,
		ImageURL:      createEvent.ImageURL,
		Capacity:      capacity,
		ApprovedCount: 0,
		Visibility:    createEvent.Visibility,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	item, err := attributevalue.MarshalMap(&newEvent)
	if err != nil {
		return nil, err
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(eventsTableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	}

	_, err = dynamodbClient.PutItem(ctx, input)
	if err != nil {
		return nil, translateDynamoErr(err)
	}

	// organizers get a profile on first interaction, same as participants
	if _, err := ensureProfile(ctx, dynamodbClient, createEvent.OrganizerID); err != nil {
		return nil, fmt.Errorf("failed to ensure organizer profile: %w", err)
	}

	return &newEvent, nil
}

// fetchEvent is shared with the RSVP service, which needs the organizer and
// capacity of the target event for every transition.
func fetchEvent(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id string) (*internal_types.Event, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(eventsTableName),
		Key: map[string]dynamodb_types.AttributeValue{
			"id": &dynamodb_types.AttributeValueMemberS{Value: id},
		},
	}

	result, err := dynamodbClient.GetItem(ctx, input)
	if err != nil {
		return nil, translateDynamoErr(err)
	}
	if result.Item == nil || len(result.Item) == 0 {
		return nil, internal_types.NewDomainError(internal_types.KindNotFound, "event not found")
	}

	var event internal_types.Event
	err = attributevalue.UnmarshalMap(result.Item, &event)
	if err != nil {
		return nil, err
	}

	return &event, nil
}

func (s *EventService) GetEventByID(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id string) (*internal_types.Event, error) {
	return fetchEvent(ctx, dynamodbClient, id)
}

func (s *EventService) UpdateEvent(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id, actingId string, updateEvent internal_types.EventUpdate) (*internal_types.Event, error) {
	if err := validate.Struct(updateEvent); err != nil {
		return nil, internal_types.WrapDomainError(internal_types.KindValidation, "invalid event payload", err)
	}

	event, err := fetchEvent(ctx, dynamodbClient, id)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != actingId {
		return nil, internal_types.NewDomainError(internal_types.KindForbidden, "only the organizer may update the event")
	}

	// cross-field invariant checked against the merged result
	effectiveStart := event.StartTime
	if updateEvent.StartTime != nil {
		effectiveStart = *updateEvent.StartTime
	}
	effectiveEnd := event.EndTime
	if updateEvent.EndTime != nil {
		effectiveEnd = updateEvent.EndTime
	}
	if effectiveEnd != nil && effectiveEnd.Before(effectiveStart) {
		return nil, internal_types.NewDomainError(internal_types.KindValidation, "end_time must not be before start_time")
	}

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(eventsTableName),
		Key: map[string]dynamodb_types.AttributeValue{
			"id": &dynamodb_types.AttributeValueMemberS{Value: id},
		},
		ExpressionAttributeNames:  make(map[string]string),
		ExpressionAttributeValues: make(map[string]dynamodb_types.AttributeValue),
		UpdateExpression:          aws.String("SET"),
		ReturnValues:              dynamodb_types.ReturnValueAllNew,
	}

	if updateEvent.Title != "" {
		input.ExpressionAttributeNames["#title"] = "title"
		input.ExpressionAttributeValues[":title"] = &dynamodb_types.AttributeValueMemberS{Value: updateEvent.Title}
		*input.UpdateExpression += " #title = :title,"
	}

	if updateEvent.Description != "" {
		input.ExpressionAttributeNames["#description"] = "description"
		input.ExpressionAttributeValues[":description"] = &dynamodb_types.AttributeValueMemberS{Value: updateEvent.Description}
		*input.UpdateExpression += " #description = :description,"
	}

	if updateEvent.StartTime != nil {
		input.ExpressionAttributeNames["#startTime"] = "startTime"
		input.ExpressionAttributeValues[":startTime"] = &dynamodb_types.AttributeValueMemberS{Value: updateEvent.StartTime.Format(time.RFC3339Nano)}
		*input.UpdateExpression += " #startTime = :startTime,"
	}

	if updateEvent.EndTime != nil {
		input.ExpressionAttributeNames["#endTime"] = "endTime"
		input.ExpressionAttributeValues[":endTime"] = &dynamodb_types.AttributeValueMemberS{Value: updateEvent.EndTime.Format(time.RFC3339Nano)}
		*input.UpdateExpression += " #endTime = :endTime,"
	}

	if updateEvent.Location != "" {
		input.ExpressionAttributeNames["#location"] = "location"
		input.ExpressionAttributeValues[":location"] = &dynamodb_types.AttributeValueMemberS{Value: updateEvent.Location}
		*input.UpdateExpression += " #location = :location,"
	}

	if updateEvent.Address != "" {
		input.ExpressionAttributeNames["#address"] = "address"
		input.ExpressionAttributeValues[":address"] = &dynamodb_types.AttributeValueMemberS{Value: updateEvent.Address}
		*input.UpdateExpression += " #address = :address,"
	}

	if updateEvent.ImageURL != "" {
		input.ExpressionAttributeNames["#imageUrl"] = "imageUrl"
		input.ExpressionAttributeValues[":imageUrl"] = &dynamodb_types.AttributeValueMemberS{Value: updateEvent.ImageURL}
		*input.UpdateExpression += " #imageUrl = :imageUrl,"
	}

	// Set the updatedAt field
	input.ExpressionAttributeNames["#updatedAt"] = "updatedAt"
	input.ExpressionAttributeValues[":updatedAt"] = &dynamodb_types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)}
	*input.UpdateExpression += " #updatedAt = :updatedAt"

	res, err := dynamodbClient.UpdateItem(ctx, input)
	if err != nil {
		return nil, translateDynamoErr(err)
	}

	var updatedEvent internal_types.Event
	err = attributevalue.UnmarshalMap(res.Attributes, &updatedEvent)
	if err != nil {
		return nil, err
	}

	return &updatedEvent, nil
}

func (s *EventService) ListPublicEvents(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, filter internal_types.EventListFilter) (*internal_types.EventListPage, error) {
	cond := expression.Name("visibility").Equal(expression.Value(internal_types.EventVisibilityPublic))
	expr, err := expression.NewBuilder().WithFilter(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build filter expression: %w", err)
	}

	limit := int(filter.Limit)
	if limit <= 0 {
		limit = helpers.DefaultEventPageLimit
	}

	// Scan pages arrive in internal hash order, so the whole view is drained
	// before sorting. Paginating raw scan pages would let a later page carry
	// events that sort ahead of everything already returned.
	var events []internal_types.Event
	var startKey map[string]dynamodb_types.AttributeValue
	for {
		input := &dynamodb.ScanInput{
			TableName:                 aws.String(eventsTableName),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		}

		result, err := dynamodbClient.Scan(ctx, input)
		if err != nil {
			return nil, translateDynamoErr(err)
		}

		var pageEvents []internal_types.Event
		err = attributevalue.UnmarshalListOfMaps(result.Items, &pageEvents)
		if err != nil {
			return nil, err
		}
		events = append(events, pageEvents...)

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		startKey = result.LastEvaluatedKey
	}

	events = filterEvents(events, filter.Query, filter.Location)
	sortEvents(events, filter.SortBy)

	// the cursor names the last event already returned, the next page starts
	// right after it in the sorted sequence
	start := 0
	if filter.Cursor != "" {
		lastId, err := decodeEventCursor(filter.Cursor)
		if err != nil {
			return nil, internal_types.WrapDomainError(internal_types.KindValidation, "malformed cursor", err)
		}
		start = -1
		for i := range events {
			if events[i].Id == lastId {
				start = i + 1
				break
			}
		}
		if start < 0 {
			return nil, internal_types.NewDomainError(internal_types.KindValidation, "unknown cursor")
		}
	}

	end := start + limit
	if end > len(events) {
		end = len(events)
	}

	page := &internal_types.EventListPage{Events: events[start:end]}
	if end < len(events) && end > start {
		page.NextCursor = encodeEventCursor(events[end-1].Id)
	}
	return page, nil
}

func (s *EventService) GetEventsByOrganizerID(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, organizerId string) ([]internal_types.Event, error) {
	cond := expression.Name("organizerId").Equal(expression.Value(organizerId))
	expr, err := expression.NewBuilder().WithFilter(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build filter expression: %w", err)
	}

	input := &dynamodb.ScanInput{
		TableName:                 aws.String(eventsTableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	result, err := dynamodbClient.Scan(ctx, input)
	if err != nil {
		return nil, translateDynamoErr(err)
	}

	var events []internal_types.Event
	err = attributevalue.UnmarshalListOfMaps(result.Items, &events)
	if err != nil {
		return nil, err
	}

	// newest first, matching the profile page
	sort.Slice(events, func(i, j int) bool {
		if !events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].CreatedAt.After(events[j].CreatedAt)
		}
		return events[i].Id < events[j].Id
	})
	return events, nil
}

func filterEvents(events []internal_types.Event, query, location string) []internal_types.Event {
	if query == "" && location == "" {
		return events
	}
	query = strings.ToLower(query)
	location = strings.ToLower(location)

	filtered := events[:0]
	for _, event := range events {
		if query != "" &&
			!strings.Contains(strings.ToLower(event.Title), query) &&
			!strings.Contains(strings.ToLower(event.Description), query) {
			continue
		}
		if location != "" &&
			!strings.Contains(strings.ToLower(event.Location), location) &&
			!strings.Contains(strings.ToLower(event.Address), location) {
			continue
		}
		filtered = append(filtered, event)
	}
	return filtered
}

// sortEvents orders a page by the requested key with id as the tiebreak so
// the ordering is deterministic across identical sort values.
func sortEvents(events []internal_types.Event, sortBy string) {
	less := func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime)
	}
	equal := func(i, j int) bool {
		return events[i].StartTime.Equal(events[j].StartTime)
	}
	switch sortBy {
	case internal_types.EventSortByTitle:
		less = func(i, j int) bool { return events[i].Title < events[j].Title }
		equal = func(i, j int) bool { return events[i].Title == events[j].Title }
	case internal_types.EventSortByCreatedAt:
		less = func(i, j int) bool { return events[i].CreatedAt.Before(events[j].CreatedAt) }
		equal = func(i, j int) bool { return events[i].CreatedAt.Equal(events[j].CreatedAt) }
	}

	sort.Slice(events, func(i, j int) bool {
		if equal(i, j) {
			return events[i].Id < events[j].Id
		}
		return less(i, j)
	})
}

func encodeEventCursor(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

func decodeEventCursor(cursor string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

type MockEventService struct {
	InsertEventFunc            func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, event internal_types.EventInsert) (*internal_types.Event, error)
	GetEventByIDFunc           func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id string) (*internal_types.Event, error)
	UpdateEventFunc            func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id, actingId string, event internal_types.EventUpdate) (*internal_types.Event, error)
	ListPublicEventsFunc       func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, filter internal_types.EventListFilter) (*internal_types.EventListPage, error)
	GetEventsByOrganizerIDFunc func(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, organizerId string) ([]internal_types.Event, error)
}

func (m *MockEventService) InsertEvent(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, event internal_types.EventInsert) (*internal_types.Event, error) {
	return m.InsertEventFunc(ctx, dynamodbClient, event)
}

func (m *MockEventService) GetEventByID(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id string) (*internal_types.Event, error) {
	return m.GetEventByIDFunc(ctx, dynamodbClient, id)
}

func (m *MockEventService) UpdateEvent(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, id, actingId string, event internal_types.EventUpdate) (*internal_types.Event, error) {
	return m.UpdateEventFunc(ctx, dynamodbClient, id, actingId, event)
}

func (m *MockEventService) ListPublicEvents(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, filter internal_types.EventListFilter) (*internal_types.EventListPage, error) {
	return m.ListPublicEventsFunc(ctx, dynamodbClient, filter)
}

func (m *MockEventService) GetEventsByOrganizerID(ctx context.Context, dynamodbClient internal_types.DynamoDBAPI, organizerId string) ([]internal_types.Event, error) {
	return m.GetEventsByOrganizerIDFunc(ctx, dynamodbClient, organizerId)
}
