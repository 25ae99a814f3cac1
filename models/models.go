package models

type Artwork struct {
	Id          string `json:"id"`
	Owner       string `json:"owner"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Visibility  string `json:"visibility"`
	Likes       int    `json:"likes"`
	Created     int64  `json:"created"`
}

const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

type User struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL"`
	Address  string `json:"address"`
	Created  int64  `json:"created"`
}

type EngagementKind int

const (
	EngagementLike EngagementKind = iota
	EngagementFavorite
)

// Engagement is a relation row between a user and an artwork. Its existence
// is the sole source of truth for "this user currently likes/favorites this
// artwork"; at most one row exists per (artwork, user, kind).
type Engagement struct {
	ArtworkId string
	UserEmail string
	Kind      EngagementKind
	Created   int64
}

type UserStats struct {
	Artworks   int `json:"artworks"`
	Favorites  int `json:"favorites"`
	TotalLikes int `json:"totalLikes"`
}
