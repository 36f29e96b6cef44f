package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/creditshop/internal/model"
	"github.com/mcoot/creditshop/internal/storage/memory"
	"github.com/mcoot/creditshop/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.service = New(s.storage, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) writeFile(content string) string {
	path := filepath.Join(s.T().TempDir(), "catalog.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (s *ServiceSuite) TestIsNotLoadedByDefault() {
	s.False(s.service.IsLoaded())
	s.Nil(s.service.List())

	_, err := s.service.Get("sword")
	s.ErrorIs(err, model.ErrCatalogNotLoaded)
}

func (s *ServiceSuite) TestLoadFromStorageSeedsDefaults() {
	err := s.service.LoadFromStorage(s.ctx)
	s.Require().NoError(err)

	s.True(s.service.IsLoaded())
	item, err := s.service.Get("sword")
	s.Require().NoError(err)
	s.Equal(50, item.Price)

	stored, err := s.storage.GetCatalog(s.ctx)
	s.Require().NoError(err)
	s.Len(stored, 3)
}

func (s *ServiceSuite) TestLoadFromStorageUsesExisting() {
	_ = s.storage.SaveCatalog(s.ctx, []model.Item{{Key: "gem", Name: "Gem", Price: 7}})

	err := s.service.LoadFromStorage(s.ctx)
	s.Require().NoError(err)

	s.Equal([]model.Item{{Key: "gem", Name: "Gem", Price: 7}}, s.service.List())
	_, err = s.service.Get("sword")
	s.ErrorIs(err, model.ErrItemNotFound)
}

func (s *ServiceSuite) TestLoadFromStorageRejectsMalformedStoredCatalog() {
	_ = s.storage.SaveCatalog(s.ctx, []model.Item{{Key: "gem", Name: "Gem", Price: 0}})

	err := s.service.LoadFromStorage(s.ctx)
	s.ErrorIs(err, model.ErrInvalidCatalog)
	s.False(s.service.IsLoaded())
}

func (s *ServiceSuite) TestLoadFromFile() {
	path := s.writeFile(`
items:
  - key: sword
    name: Sword
    price: 50
  - key: gem
    name: Gem
    price: 7
`)
	err := s.service.LoadFromFile(s.ctx, path)
	s.Require().NoError(err)

	list := s.service.List()
	s.Require().Len(list, 2)
	s.Equal("gem", list[0].Key)
	s.Equal("sword", list[1].Key)

	stored, err := s.storage.GetCatalog(s.ctx)
	s.Require().NoError(err)
	s.Len(stored, 2)
}

func (s *ServiceSuite) TestLoadFromFileMissingPrice() {
	path := s.writeFile(`
items:
  - key: sword
    name: Sword
`)
	err := s.service.LoadFromFile(s.ctx, path)
	s.ErrorIs(err, model.ErrInvalidCatalog)
	s.False(s.service.IsLoaded())

	_, err = s.storage.GetCatalog(s.ctx)
	s.ErrorIs(err, model.ErrCatalogNotLoaded)
}

func (s *ServiceSuite) TestLoadFromFileRefusesRemovingStoredItems() {
	s.Require().NoError(s.storage.SaveCatalog(s.ctx, model.DefaultItems()))
	path := s.writeFile(`
items:
  - key: sword
    name: Sword
    price: 50
`)
	err := s.service.LoadFromFile(s.ctx, path)
	s.ErrorIs(err, model.ErrInvalidCatalog)
	s.ErrorContains(err, "potion")
	s.ErrorContains(err, "shield")
	s.False(s.service.IsLoaded())

	stored, err := s.storage.GetCatalog(s.ctx)
	s.Require().NoError(err)
	s.Len(stored, 3)
}

func (s *ServiceSuite) TestLoadFromFileMayAddAndRepriceStoredItems() {
	s.Require().NoError(s.storage.SaveCatalog(s.ctx, model.DefaultItems()))
	path := s.writeFile(`
items:
  - key: sword
    name: Sword
    price: 60
  - key: shield
    name: Shield
    price: 40
  - key: potion
    name: Potion
    price: 10
  - key: gem
    name: Gem
    price: 7
`)
	s.Require().NoError(s.service.LoadFromFile(s.ctx, path))

	item, err := s.service.Get("sword")
	s.Require().NoError(err)
	s.Equal(60, item.Price)
	s.Len(s.service.List(), 4)
}

func (s *ServiceSuite) TestLoadFromFileNotFound() {
	err := s.service.LoadFromFile(s.ctx, filepath.Join(s.T().TempDir(), "missing.yaml"))
	s.Error(err)
}

func (s *ServiceSuite) TestSecondLoadRejected() {
	s.Require().NoError(s.service.LoadItems(model.DefaultItems()))

	err := s.service.LoadItems([]model.Item{{Key: "gem", Name: "Gem", Price: 7}})
	s.ErrorIs(err, ErrAlreadyLoaded)

	_, err = s.service.Get("gem")
	s.ErrorIs(err, model.ErrItemNotFound)
}

func (s *ServiceSuite) TestListReturnsCopy() {
	s.Require().NoError(s.service.LoadItems(model.DefaultItems()))

	list := s.service.List()
	list[0].Price = 1

	again := s.service.List()
	s.NotEqual(1, again[0].Price)
}

func (s *ServiceSuite) TestParseDefinitionErrors() {
	cases := map[string]string{
		"not yaml":      "items: [",
		"no items":      "items: []",
		"missing name":  "items:\n  - key: a\n    price: 1\n",
		"missing key":   "items:\n  - name: A\n    price: 1\n",
		"zero price":    "items:\n  - key: a\n    name: A\n    price: 0\n",
		"duplicate key": "items:\n  - key: a\n    name: A\n    price: 1\n  - key: a\n    name: B\n    price: 2\n",
		"unknown field": "items:\n  - key: a\n    name: A\n    price: 1\n    colour: red\n",
	}
	for name, content := range cases {
		s.Run(name, func() {
			_, err := ParseDefinition(strings.NewReader(content))
			s.ErrorIs(err, model.ErrInvalidCatalog)
		})
	}
}

func (s *ServiceSuite) TestShippedCatalogParses() {
	f, err := os.Open("../../../data/catalog.yaml")
	s.Require().NoError(err)
	defer f.Close()

	items, err := ParseDefinition(f)
	s.Require().NoError(err)
	s.NotEmpty(items)
}
