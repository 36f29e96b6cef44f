package response

import (
	"time"

	"github.com/mcoot/creditshop/internal/model"
)

// Item represents a catalog entry in API responses
type Item struct {
	Key       string `json:"item_key"`
	Name      string `json:"name"`
	Price     int    `json:"price"`
	SellPrice int    `json:"sell_price"`
}

// ItemFromModel converts a model.Item
func ItemFromModel(i model.Item) Item {
	return Item{
		Key:       i.Key,
		Name:      i.Name,
		Price:     i.Price,
		SellPrice: i.SellPrice(),
	}
}

// ItemList is the response for the catalog listing
type ItemList struct {
	Items []Item `json:"items"`
}

// ItemListFromModel converts a catalog listing
func ItemListFromModel(items []model.Item) ItemList {
	out := make([]Item, len(items))
	for i, item := range items {
		out[i] = ItemFromModel(item)
	}
	return ItemList{Items: out}
}

// Account represents an account in API responses
type Account struct {
	Nickname   string    `json:"nickname"`
	Credits    int       `json:"credits"`
	OwnedItems []string  `json:"owned_items"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AccountFromModel converts a model.Account
func AccountFromModel(a *model.Account) Account {
	owned := a.OwnedItems
	if owned == nil {
		owned = []string{}
	}
	return Account{
		Nickname:   a.Nickname,
		Credits:    a.Credits,
		OwnedItems: owned,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

// Health is the response for the health check
type Health struct {
	Status          string `json:"status"`
	CatalogLoaded   bool   `json:"catalog_loaded"`
	OpenSessions    int    `json:"open_sessions"`
	LoggedInPlayers int    `json:"logged_in_players"`
}
