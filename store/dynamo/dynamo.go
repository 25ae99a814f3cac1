package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gofrs/uuid/v5"

	"github.com/rezzza07/artmart/models"
)

const (
	ownerArtworksIndex    = "GSI_OwnerArtworks"
	visibilityIndex       = "GSI_Visibility"
	userEngagementsIndex  = "GSI_UserEngagements"
	engagementDeleteDelay = 50 * time.Millisecond
)

type DynamoArtmartStore struct {
	client    *dynamodb.Client
	tableName string
}

func NewDynamoArtmartStore(ctx context.Context, devMode bool, dynamodbEndpoint string, tableName string) (*DynamoArtmartStore, error) {
	client, err := newDynamoDBClient(context.Background(), devMode, dynamodbEndpoint)
	if err != nil {
		return nil, err
	}

	tables, err := getTables(client, ctx)
	if err != nil {
		return nil, err
	}

	foundTable := false
	for _, table := range tables {
		if table == tableName {
			foundTable = true
			break
		}
	}
	if !foundTable {
		return nil, fmt.Errorf("given table name '%s' not found in dynamodb", tableName)
	}

	return &DynamoArtmartStore{client: client, tableName: tableName}, nil
}

func (dynamoStore *DynamoArtmartStore) CreateArtwork(ctx context.Context, artwork models.Artwork) (models.Artwork, error) {
	// UUIDv7 ids are time-ordered, so the id itself is a creation-time tiebreaker
	artworkId, err := uuid.NewV7()
	if err != nil {
		return models.Artwork{}, err
	}
	artwork.Id = artworkId.String()
	artwork.Created = time.Now().Unix()

	da := artworkToDynamo(artwork)
	if err := putItemIfAbsent(dynamoStore, ctx, da); err != nil {
		return models.Artwork{}, err
	}

	return artworkFromDynamo(da), nil
}

func (dynamoStore *DynamoArtmartStore) GetArtwork(ctx context.Context, artworkId string) (models.Artwork, error) {
	da, err := getItem[dynamoArtwork](dynamoStore, ctx, artPKPrefix+artworkId, artworkSK, false)
	if err != nil {
		return models.Artwork{}, err
	}

	return artworkFromDynamo(da), nil
}

func (dynamoStore *DynamoArtmartStore) UpdateArtwork(ctx context.Context, artwork models.Artwork, fields []string) (models.Artwork, error) {
	da := artworkToDynamo(artwork)
	da, err := updateItem(dynamoStore, ctx, da, fields, nil, true)
	if err != nil {
		return models.Artwork{}, err
	}

	return artworkFromDynamo(da), nil
}

func (dynamoStore *DynamoArtmartStore) DeleteArtwork(ctx context.Context, artworkId string) error {
	return deleteItem(dynamoStore, ctx, artPKPrefix+artworkId, artworkSK)
}

func (dynamoStore *DynamoArtmartStore) ListArtworksByOwner(ctx context.Context, ownerEmail string) ([]models.Artwork, error) {
	dynamoArtworks, err := queryItemsByGSI[dynamoArtwork](dynamoStore, ctx, ownerArtworksIndex, "Owner", ownerEmail, true, 0)
	if err != nil {
		return nil, err
	}

	artworks := make([]models.Artwork, 0, len(dynamoArtworks))
	for _, da := range dynamoArtworks {
		artworks = append(artworks, artworkFromDynamo(da))
	}

	return artworks, nil
}

func (dynamoStore *DynamoArtmartStore) ListPublicArtworks(ctx context.Context, newestFirst bool, limit int32) ([]models.Artwork, error) {
	// GSI_Visibility sorts by Created; ScanIndexForward false = newest first
	dynamoArtworks, err := queryItemsByGSI[dynamoArtwork](dynamoStore, ctx, visibilityIndex, "Visibility", models.VisibilityPublic, !newestFirst, limit)
	if err != nil {
		return nil, err
	}

	artworks := make([]models.Artwork, 0, len(dynamoArtworks))
	for _, da := range dynamoArtworks {
		artworks = append(artworks, artworkFromDynamo(da))
	}

	return artworks, nil
}

func (dynamoStore *DynamoArtmartStore) AdjustLikes(ctx context.Context, artworkId string, delta int) (int, error) {
	return adjustCounter(dynamoStore.client, ctx, dynamoStore.tableName, artPKPrefix+artworkId, artworkSK, "Likes", delta)
}

func (dynamoStore *DynamoArtmartStore) GetEngagement(ctx context.Context, artworkId string, userEmail string, kind models.EngagementKind) (models.Engagement, error) {
	de, err := getItem[dynamoEngagement](dynamoStore, ctx, artPKPrefix+artworkId, kindSKPrefix(kind)+userEmail, false)
	if err != nil {
		return models.Engagement{}, err
	}

	return engagementFromDynamo(de), nil
}

func (dynamoStore *DynamoArtmartStore) PutEngagement(ctx context.Context, engagement models.Engagement) error {
	engagement.Created = time.Now().Unix()
	return putItemIfAbsent(dynamoStore, ctx, engagementToDynamo(engagement))
}

func (dynamoStore *DynamoArtmartStore) DeleteEngagement(ctx context.Context, artworkId string, userEmail string, kind models.EngagementKind) error {
	return deleteItem(dynamoStore, ctx, artPKPrefix+artworkId, kindSKPrefix(kind)+userEmail)
}

func (dynamoStore *DynamoArtmartStore) ListEngagedArtworkIds(ctx context.Context, userEmail string, kind models.EngagementKind) ([]string, error) {
	prefix := kindSKPrefix(kind)
	edges, err := queryEdgesByGSI(dynamoStore, ctx, userEngagementsIndex, "UserEmail", userEmail, prefix)
	if err != nil {
		return nil, err
	}

	artworkIds := make([]string, 0, len(edges))
	for _, edge := range edges {
		// Edge format is LIKE#<artworkId> / FAV#<artworkId>
		if len(edge) > len(prefix) {
			artworkIds = append(artworkIds, edge[len(prefix):])
		}
	}

	return artworkIds, nil
}

func (dynamoStore *DynamoArtmartStore) CountEngagements(ctx context.Context, userEmail string, kind models.EngagementKind) (int, error) {
	return countByGSI(dynamoStore, ctx, userEngagementsIndex, "UserEmail", userEmail, "Edge", kindSKPrefix(kind))
}

func (dynamoStore *DynamoArtmartStore) DeleteArtworkEngagements(ctx context.Context, artworkId string) error {
	// The artwork row itself is deleted up front; keep META anyway in case a
	// cleanup message is ever replayed against a live artwork
	return batchDeletePartitionThrottled(dynamoStore, ctx, artPKPrefix+artworkId, []string{artworkSK}, engagementDeleteDelay)
}

func (dynamoStore *DynamoArtmartStore) CreateUser(ctx context.Context, user models.User) (models.User, bool, error) {
	du := userToDynamo(user)
	du.Created = time.Now().Unix()

	du, created, err := ensureItem(dynamoStore, ctx, du)
	if err != nil {
		return models.User{}, false, err
	}

	return userFromDynamo(du), created, nil
}

func (dynamoStore *DynamoArtmartStore) GetUser(ctx context.Context, email string) (models.User, error) {
	du, err := getItem[dynamoUser](dynamoStore, ctx, userPKPrefix+email, profileSK, false)
	if err != nil {
		return models.User{}, err
	}

	return userFromDynamo(du), nil
}

func (dynamoStore *DynamoArtmartStore) UpsertUser(ctx context.Context, user models.User, fields []string) (models.User, error) {
	du := userToDynamo(user)
	// Upserts can create the profile row; stamp Created on first insert only
	du.Created = time.Now().Unix()
	du, err := updateItem(dynamoStore, ctx, du, fields, []string{"Created"}, false)
	if err != nil {
		return models.User{}, err
	}

	return userFromDynamo(du), nil
}
