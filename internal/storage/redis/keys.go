package redis

import "fmt"

// accountKey returns the Redis key for an Account
func (s *Storage) accountKey(nickname string) string {
	return fmt.Sprintf("%s:account:%s", s.cfg.KeyPrefix, nickname)
}

// accountIndexKey returns the Redis key for the SET of known nicknames
func (s *Storage) accountIndexKey() string {
	return fmt.Sprintf("%s:idx:accounts", s.cfg.KeyPrefix)
}

// catalogKey returns the Redis key for the catalog HASH (item_key -> item JSON)
func (s *Storage) catalogKey() string {
	return fmt.Sprintf("%s:catalog", s.cfg.KeyPrefix)
}
