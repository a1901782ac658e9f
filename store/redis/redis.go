package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smallnest/search4people/store"
)

const (
	personKeyPrefix = "s4p:person:"
	peopleSetKey    = "s4p:people"
	nextIDKey       = "s4p:person:next_id"
)

// RedisPersonStore implements store.Store on Redis. Each person is stored as
// a JSON blob under its own key, with a sorted set indexing the IDs.
type RedisPersonStore struct {
	client *redis.Client
}

var _ store.Store = (*RedisPersonStore)(nil)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisPersonStore connects to Redis and verifies the connection.
func NewRedisPersonStore(opts Options) (*RedisPersonStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("unable to connect to redis: %w", err)
	}
	return &RedisPersonStore{client: client}, nil
}

// NewWithClient wraps an existing client, mainly for tests.
func NewWithClient(client *redis.Client) *RedisPersonStore {
	return &RedisPersonStore{client: client}
}

// Close closes the Redis connection.
func (s *RedisPersonStore) Close() error {
	return s.client.Close()
}

func personKey(id int64) string {
	return fmt.Sprintf("%s%d", personKeyPrefix, id)
}

func (s *RedisPersonStore) save(ctx context.Context, p *store.Person) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal person: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, personKey(p.ID), raw, 0)
	pipe.ZAdd(ctx, peopleSetKey, redis.Z{Score: float64(p.ID), Member: p.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save person: %w", err)
	}
	return nil
}

// Create inserts a new person.
func (s *RedisPersonStore) Create(ctx context.Context, p *store.Person) (int64, error) {
	id, err := s.client.Incr(ctx, nextIDKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate id: %w", err)
	}

	now := time.Now().UTC()
	stored := *p
	stored.ID = id
	if stored.Status == "" {
		stored.Status = store.StatusActive
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now

	if err := s.save(ctx, &stored); err != nil {
		return 0, err
	}
	return id, nil
}

// Get returns the person with the given ID.
func (s *RedisPersonStore) Get(ctx context.Context, id int64) (*store.Person, error) {
	raw, err := s.client.Get(ctx, personKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load person: %w", err)
	}
	var p store.Person
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal person: %w", err)
	}
	return &p, nil
}

// List returns people ordered most recently updated first.
func (s *RedisPersonStore) List(ctx context.Context, includeArchived bool) ([]*store.Person, error) {
	ids, err := s.client.ZRange(ctx, peopleSetKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list person ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = personKeyPrefix + id
	}
	raws, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load people: %w", err)
	}

	var people []*store.Person
	for _, raw := range raws {
		str, ok := raw.(string)
		if !ok {
			continue // id indexed but key expired or deleted
		}
		var p store.Person
		if err := json.Unmarshal([]byte(str), &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal person: %w", err)
		}
		if !includeArchived && p.Status != store.StatusActive {
			continue
		}
		people = append(people, &p)
	}

	sort.Slice(people, func(i, j int) bool {
		if people[i].UpdatedAt.Equal(people[j].UpdatedAt) {
			return people[i].ID > people[j].ID
		}
		return people[i].UpdatedAt.After(people[j].UpdatedAt)
	})
	return people, nil
}

// Update rewrites the mutable fields of an existing person.
func (s *RedisPersonStore) Update(ctx context.Context, p *store.Person) error {
	existing, err := s.Get(ctx, p.ID)
	if err != nil {
		return err
	}

	updated := *p
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	if updated.Status == "" {
		updated.Status = existing.Status
	}
	return s.save(ctx, &updated)
}

// Archive marks the person archived.
func (s *RedisPersonStore) Archive(ctx context.Context, id int64) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	p.Status = store.StatusArchived
	p.UpdatedAt = time.Now().UTC()
	return s.save(ctx, p)
}

// Delete removes the person.
func (s *RedisPersonStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, personKey(id))
	pipe.ZRem(ctx, peopleSetKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}
	return nil
}

// FindExisting returns an active person matching the identity fields.
func (s *RedisPersonStore) FindExisting(ctx context.Context, firstName, lastName, surname, phone string) (*store.Person, error) {
	people, err := s.List(ctx, false)
	if err != nil {
		return nil, err
	}
	for _, p := range people {
		if p.MatchesIdentity(firstName, lastName, surname, phone) {
			return p, nil
		}
	}
	return nil, nil
}
