package biz

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/skypan-cloud/skypan-backend/internal/file/models"
	apperrors "github.com/skypan-cloud/skypan-backend/internal/pkg/errors"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/logger"
)

var (
	errDuplicateHash = errors.New("duplicate hash")
	errNotFound      = errors.New("not found")
)

func testLogger() *logger.Logger {
	log, err := logger.New(&logger.Config{
		Level:  "error",
		Format: "console",
		Output: "console",
	})
	if err != nil {
		panic(err)
	}
	return log
}

// ---- content repo fake ----

type fakeContentRepo struct {
	mu     sync.Mutex
	byID   map[string]*models.ContentObject
	byHash map[string]string

	// createHook runs inside Create before the insert, letting tests
	// interleave a concurrent writer
	createHook func()
}

func newFakeContentRepo() *fakeContentRepo {
	return &fakeContentRepo{
		byID:   make(map[string]*models.ContentObject),
		byHash: make(map[string]string),
	}
}

func (r *fakeContentRepo) Create(ctx context.Context, obj *models.ContentObject) error {
	if r.createHook != nil {
		hook := r.createHook
		r.createHook = nil
		hook()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byHash[obj.Hash]; exists {
		return errDuplicateHash
	}
	cp := *obj
	cp.CreatedAt = time.Now()
	r.byID[obj.ID] = &cp
	r.byHash[obj.Hash] = obj.ID
	return nil
}

func (r *fakeContentRepo) GetByID(ctx context.Context, id string) (*models.ContentObject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	obj, ok := r.byID[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *obj
	return &cp, nil
}

func (r *fakeContentRepo) GetByHash(ctx context.Context, hash string) (*models.ContentObject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byHash[hash]
	if !ok {
		return nil, errNotFound
	}
	cp := *r.byID[id]
	return &cp, nil
}

func (r *fakeContentRepo) IncrementRef(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	obj, ok := r.byID[id]
	if !ok {
		return errNotFound
	}
	obj.RefCount++
	return nil
}

func (r *fakeContentRepo) DecrementRef(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	obj, ok := r.byID[id]
	if !ok || obj.RefCount <= 0 {
		return false, nil
	}
	obj.RefCount--
	return true, nil
}

func (r *fakeContentRepo) DeleteIfUnreferenced(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	obj, ok := r.byID[id]
	if !ok || obj.RefCount != 0 {
		return false, nil
	}
	delete(r.byHash, obj.Hash)
	delete(r.byID, id)
	return true, nil
}

func (r *fakeContentRepo) IsDuplicateHash(err error) bool {
	return errors.Is(err, errDuplicateHash)
}

func (r *fakeContentRepo) Stats(ctx context.Context) (*StorageStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &StorageStats{}
	for _, obj := range r.byID {
		stats.ObjectCount++
		stats.PhysicalBytes += obj.Size
		stats.TotalRefs += obj.RefCount
		stats.LogicalBytes += obj.Size * obj.RefCount
	}
	if stats.PhysicalBytes > 0 {
		stats.DedupRatio = float64(stats.LogicalBytes) / float64(stats.PhysicalBytes)
	}
	return stats, nil
}

// ---- blob store fake ----

type fakeBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (s *fakeBlobStore) Put(ctx context.Context, path string, reader io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = data
	return nil
}

func (s *fakeBlobStore) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[path]
	if !ok {
		return nil, errNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeBlobStore) Remove(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, path)
	return nil
}

func (s *fakeBlobStore) Copy(ctx context.Context, destPath, srcPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[srcPath]
	if !ok {
		return errNotFound
	}
	s.objects[destPath] = append([]byte(nil), data...)
	return nil
}

func (s *fakeBlobStore) Compose(ctx context.Context, destPath string, srcPaths []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var merged []byte
	for _, src := range srcPaths {
		data, ok := s.objects[src]
		if !ok {
			return 0, errNotFound
		}
		merged = append(merged, data...)
	}
	s.objects[destPath] = merged
	return int64(len(merged)), nil
}

func (s *fakeBlobStore) PresignedURL(ctx context.Context, path, downloadName string, expiry time.Duration) (string, error) {
	return "https://blobs.test/" + path, nil
}

func (s *fakeBlobStore) has(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[path]
	return ok
}

func (s *fakeBlobStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// ---- node repo fake ----

type fakeNodeRepo struct {
	mu    sync.Mutex
	nodes map[string]*models.FileNode
}

func newFakeNodeRepo() *fakeNodeRepo {
	return &fakeNodeRepo{nodes: make(map[string]*models.FileNode)}
}

func (r *fakeNodeRepo) Create(ctx context.Context, node *models.FileNode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *node
	now := time.Now()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	r.nodes[node.ID] = &cp
	return nil
}

func (r *fakeNodeRepo) GetByID(ctx context.Context, id string) (*models.FileNode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	node, ok := r.nodes[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *node
	return &cp, nil
}

func (r *fakeNodeRepo) GetOwned(ctx context.Context, ownerID, id string) (*models.FileNode, error) {
	node, err := r.GetByID(ctx, id)
	if err != nil || node.OwnerID != ownerID {
		return nil, errNotFound
	}
	return node, nil
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (r *fakeNodeRepo) FindChildByName(ctx context.Context, ownerID string, parentID *string, name string) (*models.FileNode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, node := range r.nodes {
		if node.OwnerID == ownerID && node.Name == name && !node.InTrash && sameParent(node.ParentID, parentID) {
			cp := *node
			return &cp, nil
		}
	}
	return nil, errNotFound
}

func (r *fakeNodeRepo) ListChildren(ctx context.Context, ownerID string, parentID *string) ([]*models.FileNode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.FileNode
	for _, node := range r.nodes {
		if node.OwnerID == ownerID && !node.InTrash && sameParent(node.ParentID, parentID) {
			cp := *node
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeNodeRepo) Update(ctx context.Context, node *models.FileNode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.nodes[node.ID]; !ok {
		return errNotFound
	}
	cp := *node
	cp.UpdatedAt = time.Now()
	r.nodes[node.ID] = &cp
	return nil
}

func (r *fakeNodeRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.nodes, id)
	return nil
}

func (r *fakeNodeRepo) ListTrash(ctx context.Context, ownerID string) ([]*models.FileNode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.FileNode
	for _, node := range r.nodes {
		if node.OwnerID == ownerID && node.InTrash {
			cp := *node
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeNodeRepo) ListTrashedBefore(ctx context.Context, cutoff time.Time) ([]*models.FileNode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.FileNode
	for _, node := range r.nodes {
		if node.InTrash && node.TrashedAt != nil && node.TrashedAt.Before(cutoff) {
			cp := *node
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeNodeRepo) SumSizeByOwner(ctx context.Context, ownerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, node := range r.nodes {
		if node.OwnerID == ownerID && !node.IsFolder {
			total += node.Size
		}
	}
	return total, nil
}

// ---- version repo fake ----

type fakeVersionRepo struct {
	mu       sync.Mutex
	versions map[string][]*models.FileVersion
}

func newFakeVersionRepo() *fakeVersionRepo {
	return &fakeVersionRepo{versions: make(map[string][]*models.FileVersion)}
}

func (r *fakeVersionRepo) Create(ctx context.Context, v *models.FileVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *v
	cp.CreatedAt = time.Now()
	r.versions[v.FileID] = append(r.versions[v.FileID], &cp)
	return nil
}

func (r *fakeVersionRepo) sortedDesc(fileID string) []*models.FileVersion {
	list := append([]*models.FileVersion(nil), r.versions[fileID]...)
	sort.Slice(list, func(i, j int) bool { return list[i].VersionNo > list[j].VersionNo })
	return list
}

func (r *fakeVersionRepo) ListByFile(ctx context.Context, fileID string) ([]*models.FileVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedDesc(fileID), nil
}

func (r *fakeVersionRepo) GetByFileAndNo(ctx context.Context, fileID string, versionNo int) (*models.FileVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.versions[fileID] {
		if v.VersionNo == versionNo {
			cp := *v
			return &cp, nil
		}
	}
	return nil, errNotFound
}

func (r *fakeVersionRepo) CountByFile(ctx context.Context, fileID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.versions[fileID])), nil
}

func (r *fakeVersionRepo) DeleteOldest(ctx context.Context, fileID string, keep int) ([]*models.FileVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.sortedDesc(fileID)
	if len(list) <= keep {
		return nil, nil
	}
	pruned := list[keep:]
	r.versions[fileID] = list[:keep]
	return pruned, nil
}

func (r *fakeVersionRepo) DeleteByFile(ctx context.Context, fileID string) ([]*models.FileVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := r.versions[fileID]
	delete(r.versions, fileID)
	return removed, nil
}

// ---- session repo fake ----

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*models.UploadSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*models.UploadSession)}
}

func (r *fakeSessionRepo) Create(ctx context.Context, s *models.UploadSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	now := time.Now()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) GetByID(ctx context.Context, id string) (*models.UploadSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) FindActive(ctx context.Context, ownerID, hash string) (*models.UploadSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.OwnerID == ownerID && s.Hash == hash && s.Status == models.SessionStatusActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, errNotFound
}

func (r *fakeSessionRepo) AppendChunk(ctx context.Context, id string, index int) (*models.UploadSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, errNotFound
	}
	s.AddChunk(index)
	s.UpdatedAt = time.Now()
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) UpdateStatus(ctx context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return errNotFound
	}
	s.Status = status
	s.UpdatedAt = time.Now()
	return nil
}

func (r *fakeSessionRepo) ListStaleActive(ctx context.Context, cutoff time.Time) ([]*models.UploadSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.UploadSession
	for _, s := range r.sessions {
		if s.Status == models.SessionStatusActive && s.UpdatedAt.Before(cutoff) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- outbox repo fake ----

type fakeOutboxRepo struct {
	mu       sync.Mutex
	messages map[string]*models.OutboxMessage
}

func newFakeOutboxRepo() *fakeOutboxRepo {
	return &fakeOutboxRepo{messages: make(map[string]*models.OutboxMessage)}
}

func (r *fakeOutboxRepo) Create(ctx context.Context, msg *models.OutboxMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *msg
	cp.CreatedAt = time.Now()
	r.messages[msg.ID] = &cp
	return nil
}

func (r *fakeOutboxRepo) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*models.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var claimed []*models.OutboxMessage
	for _, msg := range r.messages {
		if len(claimed) >= limit {
			break
		}
		if msg.Status == models.OutboxStatusPending && msg.NextRetryAt != nil && !msg.NextRetryAt.After(now) {
			msg.Status = models.OutboxStatusProcessing
			cp := *msg
			claimed = append(claimed, &cp)
		}
	}
	return claimed, nil
}

func (r *fakeOutboxRepo) MarkSuccess(ctx context.Context, id string) error {
	return r.setStatus(id, models.OutboxStatusSuccess, 0, nil, "")
}

func (r *fakeOutboxRepo) MarkRetry(ctx context.Context, id string, attempts int, nextRetryAt time.Time, lastError string) error {
	return r.setStatus(id, models.OutboxStatusPending, attempts, &nextRetryAt, lastError)
}

func (r *fakeOutboxRepo) MarkFailed(ctx context.Context, id string, attempts int, lastError string) error {
	return r.setStatus(id, models.OutboxStatusFailed, attempts, nil, lastError)
}

func (r *fakeOutboxRepo) setStatus(id, status string, attempts int, nextRetryAt *time.Time, lastError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok {
		return errNotFound
	}
	msg.Status = status
	if attempts > 0 {
		msg.Attempts = attempts
	}
	msg.NextRetryAt = nextRetryAt
	msg.LastError = lastError
	return nil
}

func (r *fakeOutboxRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, msg := range r.messages {
		counts[msg.Status]++
	}
	return counts, nil
}

func (r *fakeOutboxRepo) get(id string) *models.OutboxMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok {
		return nil
	}
	cp := *msg
	return &cp
}

func (r *fakeOutboxRepo) all() []*models.OutboxMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.OutboxMessage
	for _, msg := range r.messages {
		cp := *msg
		out = append(out, &cp)
	}
	return out
}

// ---- message bus fake ----

type fakeBus struct {
	mu        sync.Mutex
	failures  int // fail this many deliveries before succeeding
	delivered []*FileEvent
}

func (b *fakeBus) Publish(ctx context.Context, event *FileEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failures > 0 {
		b.failures--
		return errors.New("bus unavailable")
	}
	b.delivered = append(b.delivered, event)
	return nil
}

func (b *fakeBus) deliveredCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.delivered)
}

// ---- cache fakes ----

type fakeLocalCache struct {
	mu     sync.Mutex
	items  map[string][]byte
	hits   uint64
	misses uint64
}

func newFakeLocalCache() *fakeLocalCache {
	return &fakeLocalCache{items: make(map[string][]byte)}
}

func (c *fakeLocalCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

func (c *fakeLocalCache) Set(key string, value []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return true
}

func (c *fakeLocalCache) Del(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *fakeLocalCache) Metrics() (uint64, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

type fakeSharedCache struct {
	mu    sync.Mutex
	items map[string]string
}

func newFakeSharedCache() *fakeSharedCache {
	return &fakeSharedCache{items: make(map[string]string)}
}

func (c *fakeSharedCache) Get(ctx context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok, nil
}

func (c *fakeSharedCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *fakeSharedCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

type fakeRanker struct {
	mu     sync.Mutex
	scores map[string]float64
}

func newFakeRanker() *fakeRanker {
	return &fakeRanker{scores: make(map[string]float64)}
}

func (r *fakeRanker) Incr(ctx context.Context, fileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scores[fileID]++
	return nil
}

func (r *fakeRanker) TopN(ctx context.Context, n int64) ([]HotEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]HotEntry, 0, len(r.scores))
	for id, score := range r.scores {
		entries = append(entries, HotEntry{FileID: id, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	if int64(len(entries)) > n {
		entries = entries[:n]
	}
	return entries, nil
}

func (r *fakeRanker) Score(ctx context.Context, fileID string) (float64, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	score, ok := r.scores[fileID]
	return score, ok, nil
}

func (r *fakeRanker) Rescale(ctx context.Context, factor, min float64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for id, score := range r.scores {
		scaled := score * factor
		if scaled < min {
			delete(r.scores, id)
			removed++
			continue
		}
		r.scores[id] = scaled
	}
	return removed, nil
}

func (r *fakeRanker) TrimBeyond(ctx context.Context, limit int64) (int64, error) {
	entries, _ := r.TopN(ctx, int64(len(r.scores)))
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for i, e := range entries {
		if int64(i) >= limit {
			delete(r.scores, e.FileID)
			removed++
		}
	}
	return removed, nil
}

func (r *fakeRanker) Remove(ctx context.Context, fileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.scores, fileID)
	return nil
}

func (r *fakeRanker) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.scores)), nil
}

// ---- quota fakes ----

type denyQuota struct{}

func (denyQuota) CheckQuota(ctx context.Context, ownerID string, addBytes int64) error {
	return apperrors.New(apperrors.ErrQuotaExceeded)
}

func (denyQuota) Commit(ctx context.Context, ownerID string, deltaBytes int64) error {
	return nil
}

// fakeQuota allows everything and records committed deltas per owner
type fakeQuota struct {
	mu        sync.Mutex
	committed map[string]int64
}

func newFakeQuota() *fakeQuota {
	return &fakeQuota{committed: make(map[string]int64)}
}

func (q *fakeQuota) CheckQuota(ctx context.Context, ownerID string, addBytes int64) error {
	return nil
}

func (q *fakeQuota) Commit(ctx context.Context, ownerID string, deltaBytes int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.committed[ownerID] += deltaBytes
	return nil
}

func (q *fakeQuota) total(ownerID string) int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.committed[ownerID]
}

// ---- wiring helper ----

type testEnv struct {
	contentRepo *fakeContentRepo
	nodeRepo    *fakeNodeRepo
	versionRepo *fakeVersionRepo
	sessionRepo *fakeSessionRepo
	outboxRepo  *fakeOutboxRepo
	blobs       *fakeBlobStore
	bus         *fakeBus
	local       *fakeLocalCache
	shared      *fakeSharedCache
	ranker      *fakeRanker
	quota       *fakeQuota

	content   *ContentUseCase
	versions  *VersionUseCase
	publisher *PublisherUseCase
	cache     *CacheUseCase
	nodes     *NodeUseCase
	uploads   *UploadUseCase
}

func newTestEnv() *testEnv {
	log := testLogger()
	env := &testEnv{
		contentRepo: newFakeContentRepo(),
		nodeRepo:    newFakeNodeRepo(),
		versionRepo: newFakeVersionRepo(),
		sessionRepo: newFakeSessionRepo(),
		outboxRepo:  newFakeOutboxRepo(),
		blobs:       newFakeBlobStore(),
		bus:         &fakeBus{},
		local:       newFakeLocalCache(),
		shared:      newFakeSharedCache(),
		ranker:      newFakeRanker(),
		quota:       newFakeQuota(),
	}

	env.content = NewContentUseCase(env.contentRepo, env.blobs, log)
	env.publisher = NewPublisherUseCase(env.outboxRepo, env.bus, 5, log)
	env.cache = NewCacheUseCase(env.local, env.shared, env.ranker, env.nodeRepo, 30*time.Minute, 1000, log)
	env.versions = NewVersionUseCase(env.versionRepo, env.content, 10, log)
	env.nodes = NewNodeUseCase(env.nodeRepo, env.content, env.versions, env.publisher, env.cache, env.quota, log)
	env.uploads = NewUploadUseCase(env.sessionRepo, env.blobs, env.content, env.nodes, env.quota, 4, 24*time.Hour, log)
	return env
}
