package service

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"mnemosyne-server/internal/cache"
	"mnemosyne-server/internal/domain"
	"mnemosyne-server/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	dataDir        = "data"
	assetsDir      = "assets"
	itemFileSuffix = ".json"

	// pageSize is the fixed pagination window: the feed always covers
	// the most recent pageSize items, and fan-out concurrency in
	// GetItems is bounded by it.
	pageSize = 20
)

// StorageService coordinates the remote repository and the two
// session-local caches. The remote repository is the single source of
// truth; items are written exactly once at a path derived from their
// immutable fields and never overwritten by this flow.
type StorageService struct {
	remote    repository.RemoteRepository
	items     *cache.ItemCache
	assets    *cache.AssetCache
	repoName  string
	validator *validator.Validate
}

func NewStorageService(remote repository.RemoteRepository, items *cache.ItemCache, assets *cache.AssetCache, repoName string) *StorageService {
	return &StorageService{
		remote:    remote,
		items:     items,
		assets:    assets,
		repoName:  repoName,
		validator: validator.New(),
	}
}

// Init makes sure the backing repository exists. Safe to call on
// every session start.
func (s *StorageService) Init() error {
	return s.remote.EnsureRepository(s.repoName)
}

// Create builds a new item from the request and saves it.
func (s *StorageService) Create(req *domain.CreateItemRequest) (*domain.Item, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	item := s.newItem(req)
	if err := s.SaveItem(item); err != nil {
		return nil, err
	}

	return item, nil
}

// CreateImage uploads the asset and then saves an item referencing
// it. The upload must be durable before the item is written: an
// orphaned asset is acceptable, an item pointing at a missing asset
// is not.
func (s *StorageService) CreateImage(req *domain.CreateItemRequest, filename, contentType string, data io.Reader) (*domain.Item, error) {
	assetPath, err := s.UploadAsset(filename, data)
	if err != nil {
		return nil, err
	}

	req.Type = domain.ItemTypeImage
	req.Image = assetPath
	req.ContentType = contentType
	if req.Content == "" {
		req.Content = filename
	}

	return s.Create(req)
}

// SaveItem writes one item to the remote repository and keeps the
// item cache consistent with it.
func (s *StorageService) SaveItem(item *domain.Item) error {
	if err := s.validator.Struct(item); err != nil {
		return err
	}

	body, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode item %s: %w", item.ID, err)
	}

	path := fmt.Sprintf("%s/%s-%s%s", dataDir, item.CreatedAt, item.ID, itemFileSuffix)
	message := fmt.Sprintf("Save %s: %s", item.Type, titleOrID(item))

	if err := s.remote.WriteFile(path, string(body), message, false); err != nil {
		return err
	}

	s.items.Set(*item)
	return nil
}

// UploadAsset stores a binary payload under assets/ and returns the
// remote path for later reference from an item's image field.
func (s *StorageService) UploadAsset(filename string, data io.Reader) (string, error) {
	payload, err := io.ReadAll(data)
	if err != nil {
		return "", fmt.Errorf("failed to read asset %s: %w", filename, err)
	}

	encoded := base64.StdEncoding.EncodeToString(payload)

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		ext = "bin"
	}

	path := fmt.Sprintf("%s/%s.%s", assetsDir, uuid.New().String(), ext)
	message := fmt.Sprintf("Upload asset: %s", filename)

	if err := s.remote.WriteFile(path, encoded, message, true); err != nil {
		return "", err
	}

	return path, nil
}

// GetItems returns the feed: the pageSize most recent items in
// descending chronological order. Fresh cache state is served
// directly; otherwise the durable snapshot, otherwise the remote
// listing. Missing or malformed remote files are dropped rather than
// failing the feed, and a listing failure degrades to whatever the
// cache still holds.
func (s *StorageService) GetItems() []domain.Item {
	if !s.items.IsStale() {
		if cached := s.items.GetAll(); len(cached) > 0 {
			return page(cached)
		}
	}

	if loaded, ok := s.items.Load(); ok {
		return page(loaded)
	}

	items, err := s.fetchItems()
	if err != nil {
		log.Printf("storage: remote listing failed, serving cached feed: %v", err)
		return page(s.items.GetAll())
	}

	s.items.Save(items)
	return items
}

func (s *StorageService) fetchItems() ([]domain.Item, error) {
	entries, err := s.remote.ListDirectory(dataDir)
	if err != nil {
		return nil, err
	}

	var names []repository.RemoteEntry
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name, itemFileSuffix) {
			names = append(names, entry)
		}
	}

	// File names start with the fixed-width createdAt timestamp, so
	// descending name order is descending chronological order.
	sort.Slice(names, func(i, j int) bool {
		return names[i].Name > names[j].Name
	})
	if len(names) > pageSize {
		names = names[:pageSize]
	}

	results := make([]*domain.Item, len(names))
	g := new(errgroup.Group)
	for i, entry := range names {
		i, entry := i, entry
		g.Go(func() error {
			content, ok := s.remote.ReadFile(entry.Path)
			if !ok {
				return nil
			}

			var item domain.Item
			if err := json.Unmarshal([]byte(content), &item); err != nil {
				log.Printf("storage: skipping malformed item file %s: %v", entry.Path, err)
				return nil
			}
			if item.ID == "" {
				log.Printf("storage: skipping item file %s: missing id", entry.Path)
				return nil
			}

			results[i] = &item
			return nil
		})
	}
	g.Wait()

	items := make([]domain.Item, 0, len(results))
	for _, item := range results {
		if item != nil {
			items = append(items, *item)
		}
	}

	return items, nil
}

// GetAsset resolves a remote asset path to its base64 content,
// consulting the asset cache first. ok=false on any failure so the
// caller can render a fallback.
func (s *StorageService) GetAsset(path string) (string, bool) {
	if path == "" {
		return "", false
	}

	if content, ok := s.assets.Get(path); ok {
		return content, true
	}

	content, ok := s.remote.ReadFileRaw(path)
	if !ok {
		return "", false
	}

	s.assets.Set(path, content)
	return content, true
}

// Reset drops the session's cached items, e.g. on logout. The remote
// repository is untouched.
func (s *StorageService) Reset() {
	s.items.Clear()
}

func (s *StorageService) newItem(req *domain.CreateItemRequest) *domain.Item {
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	return &domain.Item{
		ID:          uuid.New().String(),
		Type:        req.Type,
		Content:     req.Content,
		Title:       req.Title,
		Description: req.Description,
		Image:       req.Image,
		ContentType: req.ContentType,
		CreatedAt:   domain.FormatTimestamp(time.Now()),
		Tags:        tags,
	}
}

func titleOrID(item *domain.Item) string {
	if item.Title != "" {
		return item.Title
	}
	return item.ID
}

// page sorts items most-recent-first and clamps to the pagination
// window.
func page(items []domain.Item) []domain.Item {
	sorted := make([]domain.Item, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt > sorted[j].CreatedAt
	})

	if len(sorted) > pageSize {
		sorted = sorted[:pageSize]
	}
	return sorted
}
