package model

import (
	"slices"
	"time"
)

// Account is a player's balance and inventory, keyed by nickname
type Account struct {
	Nickname   string    `json:"nickname"`
	Credits    int       `json:"credits"`
	OwnedItems []string  `json:"owned_items"` // sorted, no duplicates
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewAccount creates an account with the given starting balance and no items
func NewAccount(nickname string, credits int, now time.Time) *Account {
	return &Account{
		Nickname:   nickname,
		Credits:    credits,
		OwnedItems: []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Owns reports whether the account holds the given item
func (a *Account) Owns(itemKey string) bool {
	_, found := slices.BinarySearch(a.OwnedItems, itemKey)
	return found
}

// AddItem inserts an item key, keeping OwnedItems sorted. Returns false if already owned.
func (a *Account) AddItem(itemKey string) bool {
	i, found := slices.BinarySearch(a.OwnedItems, itemKey)
	if found {
		return false
	}
	a.OwnedItems = slices.Insert(a.OwnedItems, i, itemKey)
	return true
}

// RemoveItem deletes an item key. Returns false if not owned.
func (a *Account) RemoveItem(itemKey string) bool {
	i, found := slices.BinarySearch(a.OwnedItems, itemKey)
	if !found {
		return false
	}
	a.OwnedItems = slices.Delete(a.OwnedItems, i, i+1)
	return true
}

// Clone returns a deep copy safe to hand to other goroutines
func (a *Account) Clone() *Account {
	c := *a
	c.OwnedItems = slices.Clone(a.OwnedItems)
	if c.OwnedItems == nil {
		c.OwnedItems = []string{}
	}
	return &c
}

// Normalize sorts and deduplicates OwnedItems, e.g. after loading from storage
func (a *Account) Normalize() {
	if a.OwnedItems == nil {
		a.OwnedItems = []string{}
		return
	}
	slices.Sort(a.OwnedItems)
	a.OwnedItems = slices.Compact(a.OwnedItems)
}
