// Package dynamo stores events, donations and forms in DynamoDB. Donations
// live under a composite key (event_id, id); the form document is written
// with a condition on its version.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"donortrack/internal/domain"
	"donortrack/internal/domain/donorform"
)

// API is the subset of *dynamodb.Client the repositories call.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

var _ API = (*dynamodb.Client)(nil)

// Tables names the three tables of one deployment.
type Tables struct {
	Events    string
	Donations string
	Forms     string
}

// TablesWithPrefix derives table names from DYNAMODB_TABLE_PREFIX.
func TablesWithPrefix(prefix string) Tables {
	return Tables{
		Events:    prefix + "events",
		Donations: prefix + "donations",
		Forms:     prefix + "donor_forms",
	}
}

// batchLimit is the DynamoDB cap on BatchWriteItem requests.
const batchLimit = 25

type backend struct {
	api    API
	tables Tables
	now    func() time.Time
}

// NewStore wires the DynamoDB repositories.
func NewStore(api API, tables Tables) domain.Store {
	b := &backend{api: api, tables: tables, now: time.Now}
	return domain.Store{
		Events:    &EventRepository{b: b},
		Donations: &DonationRepository{b: b},
		Forms:     &FormRepository{b: b},
	}
}

func (b *backend) eventExists(ctx context.Context, id string) (bool, error) {
	out, err := b.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(b.tables.Events),
		Key:                  idKey(id),
		ProjectionExpression: aws.String("id"),
	})
	if err != nil {
		return false, fmt.Errorf("get event: %w", err)
	}
	return out.Item != nil, nil
}

func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}}
}

func donationKey(eventID, id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"event_id": &types.AttributeValueMemberS{Value: eventID},
		"id":       &types.AttributeValueMemberS{Value: id},
	}
}

func formKey(eventID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"event_id": &types.AttributeValueMemberS{Value: eventID}}
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// EventRepository implements domain.EventRepository.
type EventRepository struct{ b *backend }

func (r *EventRepository) Create(ctx context.Context, event *domain.Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = r.b.now().UTC()
	}
	item, err := attributevalue.MarshalMap(toEventItem(event))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = r.b.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.b.tables.Events),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return fmt.Errorf("put event: %w", err)
	}
	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	out, err := r.b.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.b.tables.Events),
		Key:       idKey(id),
	})
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if out.Item == nil {
		return nil, domain.ErrNotFound
	}
	var it eventItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	return it.domain()
}

func (r *EventRepository) List(ctx context.Context) ([]domain.Event, error) {
	items := make([]domain.Event, 0)
	var start map[string]types.AttributeValue
	for {
		out, err := r.b.api.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.b.tables.Events),
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, fmt.Errorf("scan events: %w", err)
		}
		var page []eventItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal events: %w", err)
		}
		for _, it := range page {
			ev, err := it.domain()
			if err != nil {
				return nil, err
			}
			items = append(items, *ev)
		}
		start = out.LastEvaluatedKey
		if len(start) == 0 {
			break
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

func (r *EventRepository) Update(ctx context.Context, id string, in domain.EventInput) (*domain.Event, error) {
	out, err := r.b.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.b.tables.Events),
		Key:                 idKey(id),
		UpdateExpression:    aws.String("SET #n = :n, description = :d, admin_password = :a, visitor_password = :v"),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeNames: map[string]string{
			"#n": "name",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":n": &types.AttributeValueMemberS{Value: in.Name},
			":d": &types.AttributeValueMemberS{Value: in.Description},
			":a": &types.AttributeValueMemberS{Value: in.AdminPassword},
			":v": &types.AttributeValueMemberS{Value: in.VisitorPassword},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	var it eventItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	return it.domain()
}

// Delete removes the donations, the form and finally the event itself.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	ok, err := r.b.eventExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}

	keys, err := r.b.donationKeys(ctx, id)
	if err != nil {
		return err
	}
	for start := 0; start < len(keys); start += batchLimit {
		end := start + batchLimit
		if end > len(keys) {
			end = len(keys)
		}
		if err := r.b.deleteBatch(ctx, keys[start:end]); err != nil {
			return err
		}
	}

	if _, err := r.b.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.b.tables.Forms),
		Key:       formKey(id),
	}); err != nil {
		return fmt.Errorf("delete form: %w", err)
	}
	if _, err := r.b.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.b.tables.Events),
		Key:       idKey(id),
	}); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func (r *EventRepository) AdjustTotals(ctx context.Context, id string, amountDelta decimal.Decimal, visitorDelta int64) error {
	return r.updateTotals(ctx, id, "ADD current_amount :a, total_visitors :v", amountDelta, visitorDelta)
}

// SetTotals writes only while the item still carries the expected counters.
// A failed condition is told apart from a missing event with a follow-up read.
func (r *EventRepository) SetTotals(ctx context.Context, id string, expected, totals domain.Totals) error {
	_, err := r.b.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.b.tables.Events),
		Key:                 idKey(id),
		UpdateExpression:    aws.String("SET current_amount = :a, total_visitors = :v"),
		ConditionExpression: aws.String("current_amount = :ea AND total_visitors = :ev"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":a":  &types.AttributeValueMemberN{Value: totals.Amount.String()},
			":v":  &types.AttributeValueMemberN{Value: strconv.FormatInt(totals.Visitors, 10)},
			":ea": &types.AttributeValueMemberN{Value: expected.Amount.String()},
			":ev": &types.AttributeValueMemberN{Value: strconv.FormatInt(expected.Visitors, 10)},
		},
	})
	if err == nil {
		return nil
	}
	if !isConditionFailed(err) {
		return fmt.Errorf("set totals: %w", err)
	}
	ok, err := r.b.eventExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	return domain.ErrTotalsChanged
}

func (r *EventRepository) updateTotals(ctx context.Context, id, expr string, amount decimal.Decimal, visitors int64) error {
	_, err := r.b.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.b.tables.Events),
		Key:                 idKey(id),
		UpdateExpression:    aws.String(expr),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":a": &types.AttributeValueMemberN{Value: amount.String()},
			":v": &types.AttributeValueMemberN{Value: strconv.FormatInt(visitors, 10)},
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update totals: %w", err)
	}
	return nil
}

func (b *backend) queryDonations(ctx context.Context, eventID string, keysOnly bool) ([]map[string]types.AttributeValue, error) {
	var (
		all   []map[string]types.AttributeValue
		start map[string]types.AttributeValue
	)
	for {
		in := &dynamodb.QueryInput{
			TableName:              aws.String(b.tables.Donations),
			KeyConditionExpression: aws.String("event_id = :e"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":e": &types.AttributeValueMemberS{Value: eventID},
			},
			ExclusiveStartKey: start,
		}
		if keysOnly {
			in.ProjectionExpression = aws.String("event_id, id")
		}
		out, err := b.api.Query(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("query donations: %w", err)
		}
		all = append(all, out.Items...)
		start = out.LastEvaluatedKey
		if len(start) == 0 {
			return all, nil
		}
	}
}

func (b *backend) donationKeys(ctx context.Context, eventID string) ([]map[string]types.AttributeValue, error) {
	return b.queryDonations(ctx, eventID, true)
}

func (b *backend) deleteBatch(ctx context.Context, keys []map[string]types.AttributeValue) error {
	reqs := make([]types.WriteRequest, len(keys))
	for i, k := range keys {
		reqs[i] = types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: k}}
	}
	pending := map[string][]types.WriteRequest{b.tables.Donations: reqs}
	for attempt := 0; len(pending) > 0; attempt++ {
		if attempt >= 5 {
			return fmt.Errorf("delete donations: unprocessed items remain")
		}
		out, err := b.api.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return fmt.Errorf("delete donations: %w", err)
		}
		pending = out.UnprocessedItems
	}
	return nil
}

// DonationRepository implements domain.DonationRepository.
type DonationRepository struct{ b *backend }

func (r *DonationRepository) Create(ctx context.Context, donation *domain.Donation) error {
	ok, err := r.b.eventExists(ctx, donation.EventID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	if donation.CreatedAt.IsZero() {
		donation.CreatedAt = r.b.now().UTC()
	}
	item, err := attributevalue.MarshalMap(toDonationItem(donation))
	if err != nil {
		return fmt.Errorf("marshal donation: %w", err)
	}
	if _, err := r.b.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.b.tables.Donations),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("put donation: %w", err)
	}
	return nil
}

func (r *DonationRepository) GetByID(ctx context.Context, eventID, id string) (*domain.Donation, error) {
	out, err := r.b.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.b.tables.Donations),
		Key:       donationKey(eventID, id),
	})
	if err != nil {
		return nil, fmt.Errorf("get donation: %w", err)
	}
	if out.Item == nil {
		return nil, domain.ErrNotFound
	}
	var it donationItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("unmarshal donation: %w", err)
	}
	return it.domain()
}

func (r *DonationRepository) ListByEvent(ctx context.Context, eventID string) ([]domain.Donation, error) {
	raw, err := r.b.queryDonations(ctx, eventID, false)
	if err != nil {
		return nil, err
	}
	var page []donationItem
	if err := attributevalue.UnmarshalListOfMaps(raw, &page); err != nil {
		return nil, fmt.Errorf("unmarshal donations: %w", err)
	}
	items := make([]domain.Donation, 0, len(page))
	for _, it := range page {
		d, err := it.domain()
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (r *DonationRepository) Update(ctx context.Context, donation *domain.Donation) error {
	now := r.b.now().UTC()
	values, err := attributevalue.Marshal(map[string]any(donation.CustomFields))
	if err != nil {
		return fmt.Errorf("marshal custom fields: %w", err)
	}
	if donation.CustomFields == nil {
		values = &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{}}
	}
	updatedAt, err := attributevalue.Marshal(now)
	if err != nil {
		return fmt.Errorf("marshal updated_at: %w", err)
	}
	out, err := r.b.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.b.tables.Donations),
		Key:                 donationKey(donation.EventID, donation.ID),
		UpdateExpression:    aws.String("SET donor_name = :n, amount = :a, custom_fields = :c, updated_at = :u"),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":n": &types.AttributeValueMemberS{Value: donation.DonorName},
			":a": &types.AttributeValueMemberN{Value: donation.Amount.String()},
			":c": values,
			":u": updatedAt,
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update donation: %w", err)
	}
	var it donationItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return fmt.Errorf("unmarshal donation: %w", err)
	}
	donation.CreatedAt = it.CreatedAt
	donation.UpdatedAt = &now
	return nil
}

func (r *DonationRepository) Delete(ctx context.Context, eventID, id string) error {
	_, err := r.b.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.b.tables.Donations),
		Key:                 donationKey(eventID, id),
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete donation: %w", err)
	}
	return nil
}

// FormRepository implements domain.FormRepository.
type FormRepository struct{ b *backend }

func (r *FormRepository) Get(ctx context.Context, eventID string) (*domain.FormConfig, error) {
	out, err := r.b.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.b.tables.Forms),
		Key:            formKey(eventID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get form: %w", err)
	}
	if out.Item == nil {
		return &domain.FormConfig{EventID: eventID, Fields: []donorform.Field{}}, nil
	}
	var it formItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("unmarshal form: %w", err)
	}
	return it.domain(), nil
}

func (r *FormRepository) Save(ctx context.Context, eventID string, fields []donorform.Field, expectedVersion int64) (*domain.FormConfig, error) {
	ok, err := r.b.eventExists(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotFound
	}

	cfg := &domain.FormConfig{
		EventID:   eventID,
		Fields:    donorform.Clone(fields),
		Version:   expectedVersion + 1,
		UpdatedAt: r.b.now().UTC(),
	}
	if cfg.Fields == nil {
		cfg.Fields = []donorform.Field{}
	}
	item, err := attributevalue.MarshalMap(toFormItem(cfg))
	if err != nil {
		return nil, fmt.Errorf("marshal form: %w", err)
	}

	in := &dynamodb.PutItemInput{
		TableName: aws.String(r.b.tables.Forms),
		Item:      item,
	}
	if expectedVersion == 0 {
		in.ConditionExpression = aws.String("attribute_not_exists(event_id)")
	} else {
		in.ConditionExpression = aws.String("version = :expected")
		in.ExpressionAttributeValues = map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: strconv.FormatInt(expectedVersion, 10)},
		}
	}
	if _, err := r.b.api.PutItem(ctx, in); err != nil {
		if isConditionFailed(err) {
			return nil, domain.ErrVersionConflict
		}
		return nil, fmt.Errorf("put form: %w", err)
	}
	return cfg, nil
}
