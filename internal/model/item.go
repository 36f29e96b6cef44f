package model

import "fmt"

// Item is a catalog entry that accounts can buy and sell
type Item struct {
	Key   string `json:"item_key" yaml:"key"`
	Name  string `json:"name" yaml:"name"`
	Price int    `json:"price" yaml:"price"`
}

// SellPrice is the refund for selling the item back: half the price, rounded down
func (i Item) SellPrice() int {
	return i.Price / 2
}

// Validate checks that the item is usable as a catalog entry
func (i Item) Validate() error {
	if i.Key == "" {
		return fmt.Errorf("%w: item key is required", ErrInvalidCatalog)
	}
	if i.Name == "" {
		return fmt.Errorf("%w: item %q has no name", ErrInvalidCatalog, i.Key)
	}
	if i.Price <= 0 {
		return fmt.Errorf("%w: item %q must have a positive price", ErrInvalidCatalog, i.Key)
	}
	return nil
}

// DefaultItems is the catalog used when no definition has been provided
func DefaultItems() []Item {
	return []Item{
		{Key: "sword", Name: "Sword", Price: 50},
		{Key: "shield", Name: "Shield", Price: 40},
		{Key: "potion", Name: "Potion", Price: 10},
	}
}
