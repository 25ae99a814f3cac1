package dynamo

import (
	"strings"

	"github.com/rezzza07/artmart/models"
)

// Single-table layout:
//
//	Artwork     PK=ART#<id>      SK=META
//	Engagement  PK=ART#<id>      SK=LIKE#<email> | FAV#<email>
//	User        PK=USER#<email>  SK=PROFILE
//
// GSI_OwnerArtworks:   Owner -> Created        (artwork rows only)
// GSI_Visibility:      Visibility -> Created   (artwork rows only)
// GSI_UserEngagements: UserEmail -> Edge       (engagement rows; Edge = LIKE#<artId> | FAV#<artId>)

const (
	artPKPrefix  = "ART#"
	userPKPrefix = "USER#"

	artworkSK = "META"
	profileSK = "PROFILE"

	likeSKPrefix = "LIKE#"
	favSKPrefix  = "FAV#"
)

type dynamoArtwork struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	Id          string `dynamodbav:"Id"`
	Owner       string `dynamodbav:"Owner"`
	Title       string `dynamodbav:"Title"`
	Category    string `dynamodbav:"Category"`
	Description string `dynamodbav:"Description"`
	Visibility  string `dynamodbav:"Visibility"`
	Likes       int    `dynamodbav:"Likes"`
	Created     int64  `dynamodbav:"Created"`
}

// Map domain Artwork -> Dynamo
func artworkToDynamo(a models.Artwork) dynamoArtwork {
	return dynamoArtwork{
		PK:          artPKPrefix + a.Id,
		SK:          artworkSK,
		Id:          a.Id,
		Owner:       a.Owner,
		Title:       a.Title,
		Category:    a.Category,
		Description: a.Description,
		Visibility:  a.Visibility,
		Likes:       a.Likes,
		Created:     a.Created,
	}
}

// Map Dynamo -> domain Artwork
func artworkFromDynamo(da dynamoArtwork) models.Artwork {
	return models.Artwork{
		Id:          da.Id,
		Owner:       da.Owner,
		Title:       da.Title,
		Category:    da.Category,
		Description: da.Description,
		Visibility:  da.Visibility,
		Likes:       da.Likes,
		Created:     da.Created,
	}
}

type dynamoEngagement struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	ArtworkId string `dynamodbav:"ArtworkId"`
	UserEmail string `dynamodbav:"UserEmail"`
	Edge      string `dynamodbav:"Edge"`
	Created   int64  `dynamodbav:"Created"`
}

func kindSKPrefix(kind models.EngagementKind) string {
	if kind == models.EngagementFavorite {
		return favSKPrefix
	}
	return likeSKPrefix
}

// Map domain Engagement -> Dynamo
func engagementToDynamo(e models.Engagement) dynamoEngagement {
	prefix := kindSKPrefix(e.Kind)
	return dynamoEngagement{
		PK:        artPKPrefix + e.ArtworkId,
		SK:        prefix + e.UserEmail,
		ArtworkId: e.ArtworkId,
		UserEmail: e.UserEmail,
		Edge:      prefix + e.ArtworkId,
		Created:   e.Created,
	}
}

// Map Dynamo -> domain Engagement
func engagementFromDynamo(de dynamoEngagement) models.Engagement {
	kind := models.EngagementLike
	if strings.HasPrefix(de.SK, favSKPrefix) {
		kind = models.EngagementFavorite
	}
	return models.Engagement{
		ArtworkId: de.ArtworkId,
		UserEmail: de.UserEmail,
		Kind:      kind,
		Created:   de.Created,
	}
}

type dynamoUser struct {
	PK       string `dynamodbav:"PK"`
	SK       string `dynamodbav:"SK"`
	Email    string `dynamodbav:"Email"`
	Name     string `dynamodbav:"Name"`
	PhotoURL string `dynamodbav:"PhotoURL"`
	Address  string `dynamodbav:"Address"`
	Created  int64  `dynamodbav:"Created"`
}

// Map domain User -> Dynamo
func userToDynamo(u models.User) dynamoUser {
	return dynamoUser{
		PK:       userPKPrefix + u.Email,
		SK:       profileSK,
		Email:    u.Email,
		Name:     u.Name,
		PhotoURL: u.PhotoURL,
		Address:  u.Address,
		Created:  u.Created,
	}
}

// Map Dynamo -> domain User
func userFromDynamo(du dynamoUser) models.User {
	return models.User{
		Email:    du.Email,
		Name:     du.Name,
		PhotoURL: du.PhotoURL,
		Address:  du.Address,
		Created:  du.Created,
	}
}
