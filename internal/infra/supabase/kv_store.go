package supabase

import (
	"context"
	"fmt"
	"time"

	supa "github.com/supabase-community/supabase-go"
)

type row struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// KVStore keeps local-storage keys in a Supabase table with columns
// key (primary key), value and updated_at. The PostgREST client has no
// context support, so ctx is only checked before each call.
type KVStore struct {
	client *supa.Client
	table  string
}

func NewKVStore(url, key, table string) (*KVStore, error) {
	client, err := supa.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("connect supabase: %w", err)
	}
	return &KVStore{client: client, table: table}, nil
}

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	var rows []row
	_, err := s.client.From(s.table).Select("key,value", "", false).Eq("key", key).ExecuteTo(&rows)
	if err != nil {
		return "", false, fmt.Errorf("select %s: %w", key, err)
	}
	if len(rows) == 0 {
		return "", false, nil
	}
	return rows[0].Value, true, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rec := row{Key: key, Value: value, UpdatedAt: time.Now().UTC().Format(time.RFC3339)}
	if _, _, err := s.client.From(s.table).Insert(rec, true, "key", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, _, err := s.client.From(s.table).Delete("minimal", "").Eq("key", key).Execute(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
