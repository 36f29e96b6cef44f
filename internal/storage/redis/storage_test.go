package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/creditshop/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	s.storage = NewWithClient(client, DefaultConfig())
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

// Account tests

func (s *StorageSuite) TestSaveAndGetAccount() {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	account := model.NewAccount("nova", 80, now)
	account.AddItem("sword")

	err := s.storage.SaveAccount(s.ctx, account)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetAccount(s.ctx, "nova")
	s.Require().NoError(err)
	s.Equal("nova", retrieved.Nickname)
	s.Equal(80, retrieved.Credits)
	s.Equal([]string{"sword"}, retrieved.OwnedItems)
	s.True(now.Equal(retrieved.CreatedAt))
}

func (s *StorageSuite) TestGetAccountNotFound() {
	_, err := s.storage.GetAccount(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrAccountNotFound)
}

func (s *StorageSuite) TestSaveAccountUsesPrefixedKeys() {
	_ = s.storage.SaveAccount(s.ctx, model.NewAccount("nova", 80, time.Now()))

	s.True(s.mini.Exists("cshop:account:nova"))
	isMember, err := s.mini.SIsMember("cshop:idx:accounts", "nova")
	s.Require().NoError(err)
	s.True(isMember)
}

func (s *StorageSuite) TestCountAccounts() {
	_ = s.storage.SaveAccount(s.ctx, model.NewAccount("nova", 10, time.Now()))
	_ = s.storage.SaveAccount(s.ctx, model.NewAccount("rex", 10, time.Now()))
	_ = s.storage.SaveAccount(s.ctx, model.NewAccount("nova", 30, time.Now()))

	count, err := s.storage.CountAccounts(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, count)
}

func (s *StorageSuite) TestGetAccountCorruptRecord() {
	s.Require().NoError(s.mini.Set("cshop:account:nova", "{not json"))

	_, err := s.storage.GetAccount(s.ctx, "nova")
	s.Error(err)
	s.NotErrorIs(err, model.ErrAccountNotFound)
}

func (s *StorageSuite) TestStorageUnavailable() {
	s.mini.Close()

	_, err := s.storage.GetAccount(s.ctx, "nova")
	s.Error(err)
	s.NotErrorIs(err, model.ErrAccountNotFound)

	err = s.storage.SaveAccount(s.ctx, model.NewAccount("nova", 10, time.Now()))
	s.Error(err)
}

// Catalog tests

func (s *StorageSuite) TestGetCatalogNotLoaded() {
	_, err := s.storage.GetCatalog(s.ctx)
	s.ErrorIs(err, model.ErrCatalogNotLoaded)
}

func (s *StorageSuite) TestSaveAndGetCatalog() {
	err := s.storage.SaveCatalog(s.ctx, model.DefaultItems())
	s.Require().NoError(err)

	items, err := s.storage.GetCatalog(s.ctx)
	s.Require().NoError(err)
	s.ElementsMatch(model.DefaultItems(), items)
}

func (s *StorageSuite) TestSaveCatalogReplaces() {
	_ = s.storage.SaveCatalog(s.ctx, model.DefaultItems())
	_ = s.storage.SaveCatalog(s.ctx, []model.Item{{Key: "gem", Name: "Gem", Price: 7}})

	items, err := s.storage.GetCatalog(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.Item{{Key: "gem", Name: "Gem", Price: 7}}, items)
}
