package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/boozebuddy/backend/models"
	"github.com/boozebuddy/backend/pkg/slug"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// DynamoAdapter is a DynamoDB-backed ProductRepo. Products live in a table
// keyed by `product_id`. The string set `store_ids` mirrors the assignment
// list so that "append if absent" can be a single conditional update.
type DynamoAdapter struct {
	client *dynamodb.Client
	table  string
}

func NewDynamoAdapter(client *dynamodb.Client, table string) *DynamoAdapter {
	return &DynamoAdapter{client: client, table: table}
}

type ddbAssignment struct {
	StoreID       string  `dynamodbav:"store_id"`
	ScanCount     int64   `dynamodbav:"scan_count"`
	LastScannedAt *string `dynamodbav:"last_scanned_at,omitempty"`
}

type ddbProduct struct {
	ProductID       string            `dynamodbav:"product_id"`
	UserID          string            `dynamodbav:"user_id"`
	Name            string            `dynamodbav:"name"`
	NameLower       string            `dynamodbav:"name_lower"`
	Slug            string            `dynamodbav:"slug"`
	Description     *string           `dynamodbav:"description,omitempty"`
	Pairings        []string          `dynamodbav:"pairings,omitempty"`
	TasteNotes      []string          `dynamodbav:"taste_notes,omitempty"`
	Origin          map[string]string `dynamodbav:"origin,omitempty"`
	Image           string            `dynamodbav:"image"`
	BackgroundImage *string           `dynamodbav:"background_image,omitempty"`
	Style           map[string]string `dynamodbav:"style,omitempty"`
	Status          string            `dynamodbav:"status"`
	Stores          []ddbAssignment   `dynamodbav:"stores"`
	StoreIDs        []string          `dynamodbav:"store_ids,stringset,omitempty"`
	LegacyScanCount int64             `dynamodbav:"legacy_scan_count"`
	CreatedAt       string            `dynamodbav:"created_at"`
}

func toDDBProduct(p *models.Product) ddbProduct {
	dp := ddbProduct{
		ProductID:       p.ID.String(),
		UserID:          p.UserID.String(),
		Name:            p.Name,
		NameLower:       strings.ToLower(p.Name),
		Slug:            p.Slug,
		Pairings:        p.Pairings,
		TasteNotes:      p.TasteNotes,
		Image:           p.Image,
		Status:          string(p.Status),
		Stores:          []ddbAssignment{},
		LegacyScanCount: p.LegacyScanCount,
		CreatedAt:       p.CreatedAt.Format(time.RFC3339Nano),
		Origin: map[string]string{
			"city":    p.Origin.City,
			"state":   p.Origin.State,
			"country": p.Origin.Country,
		},
		Style: map[string]string{
			"text_color":   p.Style.TextColor,
			"body_color":   p.Style.BodyColor,
			"border_color": p.Style.BorderColor,
		},
	}
	if p.Description != "" {
		dp.Description = &p.Description
	}
	if p.BackgroundImage != "" {
		dp.BackgroundImage = &p.BackgroundImage
	}
	for _, a := range p.Stores {
		da := ddbAssignment{StoreID: a.StoreID.String(), ScanCount: a.ScanCount}
		if a.LastScannedAt != nil {
			s := a.LastScannedAt.Format(time.RFC3339Nano)
			da.LastScannedAt = &s
		}
		dp.Stores = append(dp.Stores, da)
		dp.StoreIDs = append(dp.StoreIDs, da.StoreID)
	}
	return dp
}

func (dp ddbProduct) toModel() *models.Product {
	p := &models.Product{
		Name:            dp.Name,
		Slug:            dp.Slug,
		Pairings:        dp.Pairings,
		TasteNotes:      dp.TasteNotes,
		Image:           dp.Image,
		Status:          models.ProductStatus(dp.Status),
		Stores:          []models.StoreAssignment{},
		LegacyScanCount: dp.LegacyScanCount,
		Origin: models.Origin{
			City:    dp.Origin["city"],
			State:   dp.Origin["state"],
			Country: dp.Origin["country"],
		},
		Style: models.DisplayStyle{
			TextColor:   dp.Style["text_color"],
			BodyColor:   dp.Style["body_color"],
			BorderColor: dp.Style["border_color"],
		},
	}
	p.ID, _ = uuid.Parse(dp.ProductID)
	p.UserID, _ = uuid.Parse(dp.UserID)
	if dp.Description != nil {
		p.Description = *dp.Description
	}
	if dp.BackgroundImage != nil {
		p.BackgroundImage = *dp.BackgroundImage
	}
	if t, err := time.Parse(time.RFC3339Nano, dp.CreatedAt); err == nil {
		p.CreatedAt = t
	}
	for _, da := range dp.Stores {
		a := models.StoreAssignment{StoreID: slug.StoreSlug(da.StoreID), ScanCount: da.ScanCount}
		if da.LastScannedAt != nil {
			if t, err := time.Parse(time.RFC3339Nano, *da.LastScannedAt); err == nil {
				a.LastScannedAt = &t
			}
		}
		p.Stores = append(p.Stores, a)
	}
	return p
}

func (d *DynamoAdapter) key(id uuid.UUID) (map[string]types.AttributeValue, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"product_id": id.String()})
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}
	return key, nil
}

func (d *DynamoAdapter) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	key, err := d.key(id)
	if err != nil {
		return nil, err
	}
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{TableName: &d.table, Key: key, ConsistentRead: aws.Bool(true)})
	if err != nil {
		return nil, fmt.Errorf("dynamodb GetItem failed: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	var dp ddbProduct
	if err := attributevalue.UnmarshalMap(out.Item, &dp); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return dp.toModel(), nil
}

func (d *DynamoAdapter) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Product, error) {
	return d.scan(ctx, "user_id = :uid", map[string]interface{}{":uid": ownerID.String()})
}

func (d *DynamoAdapter) FindByOwnerAndName(ctx context.Context, ownerID uuid.UUID, name string) (*models.Product, error) {
	return d.scanOne(ctx, "user_id = :uid AND name_lower = :n", map[string]interface{}{
		":uid": ownerID.String(),
		":n":   strings.ToLower(name),
	})
}

func (d *DynamoAdapter) FindByOwnerAndSlug(ctx context.Context, ownerID uuid.UUID, productSlug string) (*models.Product, error) {
	return d.scanOne(ctx, "user_id = :uid AND slug = :s", map[string]interface{}{
		":uid": ownerID.String(),
		":s":   productSlug,
	})
}

func (d *DynamoAdapter) FindByStore(ctx context.Context, storeID slug.StoreSlug) ([]*models.Product, error) {
	return d.scan(ctx, "contains(store_ids, :sid)", map[string]interface{}{":sid": storeID.String()})
}

// Create puts the product unless the id is taken. Per-supplier name
// uniqueness is checked by the caller; DynamoDB has no secondary unique index.
func (d *DynamoAdapter) Create(ctx context.Context, product *models.Product) error {
	item, err := attributevalue.MarshalMap(toDDBProduct(product))
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &d.table,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(product_id)"),
	})
	if isConditionFailed(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return nil
}

func (d *DynamoAdapter) AppendStoreAssignment(ctx context.Context, id uuid.UUID, assignment models.StoreAssignment) error {
	key, err := d.key(id)
	if err != nil {
		return err
	}
	newEntry, err := attributevalue.Marshal([]ddbAssignment{{StoreID: assignment.StoreID.String(), ScanCount: assignment.ScanCount}})
	if err != nil {
		return fmt.Errorf("marshal assignment: %w", err)
	}
	sid := assignment.StoreID.String()
	_, err = d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           &d.table,
		Key:                 key,
		UpdateExpression:    aws.String("SET stores = list_append(if_not_exists(stores, :empty), :new), #status = :assigned ADD store_ids :sidset"),
		ConditionExpression: aws.String("attribute_exists(product_id) AND NOT contains(store_ids, :sid)"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":empty":    &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
			":new":      newEntry,
			":assigned": &types.AttributeValueMemberS{Value: string(models.ProductStatusAssigned)},
			":sidset":   &types.AttributeValueMemberSS{Value: []string{sid}},
			":sid":      &types.AttributeValueMemberS{Value: sid},
		},
	})
	if isConditionFailed(err) {
		return d.missOrConflict(ctx, key, ErrAlreadyAssigned)
	}
	if err != nil {
		return fmt.Errorf("dynamodb UpdateItem failed: %w", err)
	}
	return nil
}

// IncrementStoreScan locates the assignment's list index and increments it
// with a condition on the store id at that index. Entries are only ever
// appended, so an index stays valid once found.
func (d *DynamoAdapter) IncrementStoreScan(ctx context.Context, id uuid.UUID, storeID slug.StoreSlug) error {
	product, err := d.FindByID(ctx, id)
	if err != nil {
		return err
	}
	idx := -1
	for i, a := range product.Stores {
		if a.StoreID == storeID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotAssigned
	}
	key, err := d.key(id)
	if err != nil {
		return err
	}
	elem := fmt.Sprintf("stores[%d]", idx)
	_, err = d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           &d.table,
		Key:                 key,
		UpdateExpression:    aws.String(fmt.Sprintf("SET %[1]s.scan_count = %[1]s.scan_count + :one, %[1]s.last_scanned_at = :now", elem)),
		ConditionExpression: aws.String(elem + ".store_id = :sid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
			":now": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
			":sid": &types.AttributeValueMemberS{Value: storeID.String()},
		},
	})
	if isConditionFailed(err) {
		return ErrNotAssigned
	}
	if err != nil {
		return fmt.Errorf("dynamodb UpdateItem failed: %w", err)
	}
	return nil
}

func (d *DynamoAdapter) IncrementLegacyScan(ctx context.Context, id uuid.UUID) error {
	key, err := d.key(id)
	if err != nil {
		return err
	}
	_, err = d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           &d.table,
		Key:                 key,
		UpdateExpression:    aws.String("ADD legacy_scan_count :one"),
		ConditionExpression: aws.String("attribute_exists(product_id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
	})
	if isConditionFailed(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("dynamodb UpdateItem failed: %w", err)
	}
	return nil
}

func (d *DynamoAdapter) EnsureIndexes(ctx context.Context) error {
	// Dynamo table / GSI creation should be handled by infrastructure init or IaC.
	return nil
}

func (d *DynamoAdapter) missOrConflict(ctx context.Context, key map[string]types.AttributeValue, conflict error) error {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            &d.table,
		Key:                  key,
		ProjectionExpression: aws.String("product_id"),
		ConsistentRead:       aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("dynamodb GetItem failed: %w", err)
	}
	if len(out.Item) == 0 {
		return ErrNotFound
	}
	return conflict
}

func (d *DynamoAdapter) scanOne(ctx context.Context, filter string, values map[string]interface{}) (*models.Product, error) {
	products, err := d.scan(ctx, filter, values)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrNotFound
	}
	return products[0], nil
}

// scan walks the whole table with a filter and returns matches in creation
// order; Scan itself has no defined order.
func (d *DynamoAdapter) scan(ctx context.Context, filter string, values map[string]interface{}) ([]*models.Product, error) {
	exprVals, err := attributevalue.MarshalMap(values)
	if err != nil {
		return nil, fmt.Errorf("marshal filter values: %w", err)
	}
	input := &dynamodb.ScanInput{
		TableName:                 &d.table,
		FilterExpression:          aws.String(filter),
		ExpressionAttributeValues: exprVals,
	}
	results := []*models.Product{}
	paginator := dynamodb.NewScanPaginator(d.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan page failed: %w", err)
		}
		for _, it := range page.Items {
			var dp ddbProduct
			if err := attributevalue.UnmarshalMap(it, &dp); err != nil {
				return nil, fmt.Errorf("unmarshal item: %w", err)
			}
			results = append(results, dp.toModel())
		}
	}
	sortByCreation(results)
	return results, nil
}

func sortByCreation(products []*models.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		if !products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].CreatedAt.Before(products[j].CreatedAt)
		}
		return products[i].ID.String() < products[j].ID.String()
	})
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return err != nil && errors.As(err, &ccf)
}
