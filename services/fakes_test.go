package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/boozebuddy/backend/models"
	awspkg "github.com/boozebuddy/backend/pkg/aws"
	"github.com/boozebuddy/backend/pkg/slug"
	"github.com/boozebuddy/backend/repository"

	"github.com/google/uuid"
)

// memProducts is an in-memory ProductRepo. Conditional updates hold the
// mutex for their whole duration, like a single document update would.
type memProducts struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]*models.Product
	order []uuid.UUID
	err   error
}

func newMemProducts(products ...*models.Product) *memProducts {
	m := &memProducts{byID: make(map[uuid.UUID]*models.Product)}
	for _, p := range products {
		_ = m.Create(context.Background(), p)
	}
	return m
}

func clone(p *models.Product) *models.Product {
	cp := *p
	cp.Stores = append([]models.StoreAssignment{}, p.Stores...)
	return &cp
}

func (m *memProducts) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(p), nil
}

func (m *memProducts) filter(keep func(*models.Product) bool) ([]*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []*models.Product{}
	for _, id := range m.order {
		if p := m.byID[id]; keep(p) {
			out = append(out, clone(p))
		}
	}
	return out, nil
}

func (m *memProducts) FindByOwner(_ context.Context, ownerID uuid.UUID) ([]*models.Product, error) {
	return m.filter(func(p *models.Product) bool { return p.UserID == ownerID })
}

func (m *memProducts) FindByOwnerAndName(_ context.Context, ownerID uuid.UUID, name string) (*models.Product, error) {
	found, err := m.filter(func(p *models.Product) bool { return p.UserID == ownerID && strings.EqualFold(p.Name, name) })
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, repository.ErrNotFound
	}
	return found[0], nil
}

func (m *memProducts) FindByOwnerAndSlug(_ context.Context, ownerID uuid.UUID, productSlug string) (*models.Product, error) {
	found, err := m.filter(func(p *models.Product) bool { return p.UserID == ownerID && p.Slug == productSlug })
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, repository.ErrNotFound
	}
	return found[0], nil
}

func (m *memProducts) FindByStore(_ context.Context, storeID slug.StoreSlug) ([]*models.Product, error) {
	return m.filter(func(p *models.Product) bool {
		_, ok := p.Assignment(storeID)
		return ok
	})
}

func (m *memProducts) Create(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[p.ID]; ok {
		return repository.ErrDuplicate
	}
	if p.Slug == "" {
		p.Slug = slug.Slugify(p.Name)
	}
	m.byID[p.ID] = clone(p)
	m.order = append(m.order, p.ID)
	return nil
}

func (m *memProducts) AppendStoreAssignment(_ context.Context, id uuid.UUID, a models.StoreAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	if _, exists := p.Assignment(a.StoreID); exists {
		return repository.ErrAlreadyAssigned
	}
	p.Stores = append(p.Stores, a)
	p.Status = models.ProductStatusAssigned
	return nil
}

func (m *memProducts) IncrementStoreScan(_ context.Context, id uuid.UUID, storeID slug.StoreSlug) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	a, exists := p.Assignment(storeID)
	if !exists {
		return repository.ErrNotAssigned
	}
	now := time.Now().UTC()
	a.ScanCount++
	a.LastScannedAt = &now
	return nil
}

func (m *memProducts) IncrementLegacyScan(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.LegacyScanCount++
	return nil
}

func (m *memProducts) EnsureIndexes(context.Context) error { return nil }

type memUsers struct {
	users []*models.User
}

func (m *memUsers) find(keep func(*models.User) bool) (*models.User, error) {
	for _, u := range m.users {
		if keep(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ID == id })
}

func (m *memUsers) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*models.User, error) {
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := []*models.User{}
	for _, u := range m.users {
		if want[u.ID] {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memUsers) FindByNameOrEmail(_ context.Context, identifier string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return strings.EqualFold(u.Name, identifier) || u.Email == identifier })
}

func (m *memUsers) FindBySlug(_ context.Context, userSlug string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return slug.Slugify(u.Name) == userSlug || u.Slug == userSlug })
}

func (m *memUsers) EnsureIndexes(context.Context) error { return nil }

type blobObject struct {
	data        []byte
	contentType string
}

// memBlobs is an in-memory BlobStore that counts writes and can be told to
// fail selected puts.
type memBlobs struct {
	mu      sync.Mutex
	objects map[string]blobObject
	puts    int
	failPut func(key string) error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: make(map[string]blobObject)}
}

func (b *memBlobs) Put(_ context.Context, key string, data []byte, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failPut != nil {
		if err := b.failPut(key); err != nil {
			return err
		}
	}
	b.puts++
	b.objects[key] = blobObject{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

func (b *memBlobs) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	obj, ok := b.objects[key]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", key, awspkg.ErrObjectNotFound)
	}
	return append([]byte(nil), obj.data...), nil
}

func (b *memBlobs) GetJSON(ctx context.Context, key string, v interface{}) error {
	data, err := b.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w: %w", key, awspkg.ErrMalformedObject, err)
	}
	return nil
}

func (b *memBlobs) List(_ context.Context, prefix string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := []string{}
	for k := range b.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *memBlobs) Exists(_ context.Context, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok, nil
}

func (b *memBlobs) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://signed.test/%s?ttl=%d", key, int(ttl.Seconds())), nil
}

func (b *memBlobs) PresignPut(_ context.Context, key, contentType string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://upload.test/%s?ct=%s", key, contentType), nil
}

func (b *memBlobs) putCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.puts
}

func (b *memBlobs) object(key string) (blobObject, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	obj, ok := b.objects[key]
	return obj, ok
}

type publishedEvent struct {
	topic, eventType string
	payload          interface{}
}

type memEvents struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (e *memEvents) Publish(_ context.Context, topicArn, eventType string, payload interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, publishedEvent{topicArn, eventType, payload})
	return nil
}

func newSupplier(name string) *models.User {
	return &models.User{
		ID:   uuid.New(),
		Name: name,
		Slug: slug.Slugify(name),
		Role: models.RoleSupplier,
	}
}

func newStoreManager(name, storeName, storeNumber string) *models.User {
	return &models.User{
		ID:    uuid.New(),
		Name:  name,
		Slug:  slug.Slugify(name),
		Role:  models.RoleStoreManager,
		Store: &models.StoreDetails{StoreName: storeName, StoreNumber: storeNumber},
	}
}

func newProduct(owner *models.User, name string, created time.Time, stores ...models.StoreAssignment) *models.Product {
	status := models.ProductStatusPending
	if len(stores) > 0 {
		status = models.ProductStatusAssigned
	}
	return &models.Product{
		ID:        uuid.New(),
		UserID:    owner.ID,
		Name:      name,
		Slug:      slug.Slugify(name),
		Status:    status,
		Stores:    stores,
		CreatedAt: created,
	}
}

func assigned(storeID string, scans int64) models.StoreAssignment {
	return models.StoreAssignment{StoreID: slug.StoreSlug(storeID), ScanCount: scans}
}
