package biz

import (
	"context"
	"testing"

	apperrors "github.com/skypan-cloud/skypan-backend/internal/pkg/errors"
)

func uploadFile(t *testing.T, env *testEnv, owner, name string, data []byte) string {
	t.Helper()
	node, err := env.nodes.Upload(context.Background(), &UploadRequest{
		OwnerID:     owner,
		Name:        name,
		Data:        data,
		ContentType: "text/plain",
	})
	if err != nil {
		t.Fatalf("upload %s failed: %v", name, err)
	}
	return node.ID
}

func TestUploadCreatesFileWithInitialVersion(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	data := []byte("hello world")

	node, err := env.nodes.Upload(ctx, &UploadRequest{
		OwnerID:     "owner-1",
		Name:        "hello.txt",
		Data:        data,
		ContentType: "text/plain",
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if node.Hash != HashBytes(data) {
		t.Errorf("node hash mismatch: %s", node.Hash)
	}
	if node.Version != 1 {
		t.Errorf("expected version 1, got %d", node.Version)
	}

	list, _ := env.versions.List(ctx, node.ID)
	if len(list) != 1 || list[0].VersionNo != 1 {
		t.Fatalf("expected one initial version, got %v", list)
	}
	if list[0].Comment != "initial upload" {
		t.Errorf("unexpected version comment %q", list[0].Comment)
	}

	if env.bus.deliveredCount() != 1 {
		t.Fatalf("expected 1 event, got %d", env.bus.deliveredCount())
	}
	if env.bus.delivered[0].Type != EventFileCreate {
		t.Errorf("expected CREATE event, got %s", env.bus.delivered[0].Type)
	}
}

func TestUploadSameBytesByTwoOwnersSharesContent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	data := []byte("shared across owners")

	uploadFile(t, env, "owner-a", "a.txt", data)
	uploadFile(t, env, "owner-b", "b.txt", data)

	stats, _ := env.content.Stats(ctx)
	if stats.ObjectCount != 1 {
		t.Errorf("expected 1 physical object, got %d", stats.ObjectCount)
	}
	if stats.TotalRefs != 2 {
		t.Errorf("expected 2 references, got %d", stats.TotalRefs)
	}
}

func TestQuickUploadMissFallsThrough(t *testing.T) {
	env := newTestEnv()
	_, err := env.nodes.QuickUpload(context.Background(), &QuickUploadRequest{
		OwnerID: "owner-1",
		Name:    "new.txt",
		Hash:    HashBytes([]byte("never stored")),
	})
	if !apperrors.Is(err, apperrors.ErrContentNotFound) {
		t.Errorf("expected content not found, got %v", err)
	}
}

func TestQuickUploadSizeMismatchRejected(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	data := []byte("sized content")
	if _, err := env.content.Store(ctx, data, ""); err != nil {
		t.Fatalf("seed store failed: %v", err)
	}

	_, err := env.nodes.QuickUpload(ctx, &QuickUploadRequest{
		OwnerID: "owner-1",
		Name:    "liar.txt",
		Hash:    HashBytes(data),
		Size:    int64(len(data)) + 1,
	})
	if !apperrors.Is(err, apperrors.ErrHashMismatch) {
		t.Errorf("expected hash mismatch, got %v", err)
	}
}

func TestUploadConflictingNameGetsSuffix(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	uploadFile(t, env, "owner-1", "report.pdf", []byte("first"))
	node, err := env.nodes.Upload(ctx, &UploadRequest{
		OwnerID: "owner-1",
		Name:    "report.pdf",
		Data:    []byte("second"),
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if node.Name != "report (1).pdf" {
		t.Errorf("expected suffixed name, got %q", node.Name)
	}
}

func TestUpdateContentRecordsNewVersion(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	fileID := uploadFile(t, env, "owner-1", "doc.txt", []byte("draft"))

	node, err := env.nodes.UpdateContent(ctx, "owner-1", fileID, []byte("final"), "text/plain")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if node.Version != 2 {
		t.Errorf("expected version 2, got %d", node.Version)
	}
	if node.Hash != HashBytes([]byte("final")) {
		t.Errorf("node hash mismatch: %s", node.Hash)
	}
	list, _ := env.versions.List(ctx, fileID)
	if len(list) != 2 {
		t.Errorf("expected 2 versions, got %d", len(list))
	}
	// Old bytes stay retrievable through their version row
	if _, err := env.content.FindByHash(ctx, HashBytes([]byte("draft"))); err != nil {
		t.Errorf("previous revision content should survive: %v", err)
	}
}

func TestRollbackAppendsNewVersion(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	original := []byte("version one")
	fileID := uploadFile(t, env, "owner-1", "doc.txt", original)
	if _, err := env.nodes.UpdateContent(ctx, "owner-1", fileID, []byte("version two"), ""); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	node, err := env.nodes.Rollback(ctx, "owner-1", fileID, 1)
	if err != nil {
		t.Fatalf("rollback failed: %v", err)
	}
	if node.Version != 3 {
		t.Errorf("rollback should append version 3, got %d", node.Version)
	}
	if node.Hash != HashBytes(original) {
		t.Errorf("rollback should restore the recorded hash, got %s", node.Hash)
	}

	list, _ := env.versions.List(ctx, fileID)
	if len(list) != 3 {
		t.Fatalf("expected linear history of 3, got %d", len(list))
	}
	if list[0].Comment != "rollback to version 1" {
		t.Errorf("unexpected rollback comment %q", list[0].Comment)
	}
}

func TestRollbackUnknownVersion(t *testing.T) {
	env := newTestEnv()
	fileID := uploadFile(t, env, "owner-1", "doc.txt", []byte("only one"))

	_, err := env.nodes.Rollback(context.Background(), "owner-1", fileID, 9)
	if !apperrors.Is(err, apperrors.ErrVersionNotFound) {
		t.Errorf("expected version not found, got %v", err)
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	fileID := uploadFile(t, env, "owner-1", "private.txt", []byte("secret"))

	if _, err := env.nodes.Get(ctx, "owner-1", fileID); err != nil {
		t.Fatalf("owner read failed: %v", err)
	}
	if _, err := env.nodes.Get(ctx, "owner-2", fileID); !apperrors.Is(err, apperrors.ErrFileUnauthorized) {
		t.Errorf("expected unauthorized for foreign reader, got %v", err)
	}
}

func TestCreateFolderRejectsDuplicateName(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.nodes.CreateFolder(ctx, "owner-1", nil, "docs"); err != nil {
		t.Fatalf("create folder failed: %v", err)
	}
	if _, err := env.nodes.CreateFolder(ctx, "owner-1", nil, "docs"); !apperrors.Is(err, apperrors.ErrFileNameExists) {
		t.Errorf("expected name exists, got %v", err)
	}
}

func TestMoveFolderIntoOwnSubtreeRejected(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	outer, err := env.nodes.CreateFolder(ctx, "owner-1", nil, "outer")
	if err != nil {
		t.Fatalf("create folder failed: %v", err)
	}
	inner, err := env.nodes.CreateFolder(ctx, "owner-1", &outer.ID, "inner")
	if err != nil {
		t.Fatalf("create folder failed: %v", err)
	}

	if _, err := env.nodes.Move(ctx, "owner-1", outer.ID, &inner.ID); !apperrors.Is(err, apperrors.ErrFolderCycle) {
		t.Errorf("expected folder cycle, got %v", err)
	}
}

func TestMoveResolvesNameConflict(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	folder, _ := env.nodes.CreateFolder(ctx, "owner-1", nil, "docs")
	uploadFile(t, env, "owner-1", "note.txt", []byte("root copy"))
	inner, err := env.nodes.Upload(ctx, &UploadRequest{
		OwnerID:  "owner-1",
		FolderID: &folder.ID,
		Name:     "note.txt",
		Data:     []byte("folder copy"),
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	moved, err := env.nodes.Move(ctx, "owner-1", inner.ID, nil)
	if err != nil {
		t.Fatalf("move failed: %v", err)
	}
	if moved.ParentID != nil {
		t.Error("expected node moved to root")
	}
	if moved.Name != "note (1).txt" {
		t.Errorf("expected conflict suffix, got %q", moved.Name)
	}
}

func TestCopyFolderRecursivelySharesContent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	folder, _ := env.nodes.CreateFolder(ctx, "owner-1", nil, "src")
	data := []byte("copied bytes")
	if _, err := env.nodes.Upload(ctx, &UploadRequest{
		OwnerID:  "owner-1",
		FolderID: &folder.ID,
		Name:     "file.txt",
		Data:     data,
	}); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	copied, err := env.nodes.Copy(ctx, "owner-1", folder.ID, nil)
	if err != nil {
		t.Fatalf("copy failed: %v", err)
	}
	if copied.Name != "src (1)" {
		t.Errorf("expected suffixed copy name, got %q", copied.Name)
	}

	children, _ := env.nodes.List(ctx, "owner-1", &copied.ID)
	if len(children) != 1 || children[0].Name != "file.txt" {
		t.Fatalf("expected copied child file, got %v", children)
	}

	// The copy shares bytes with the original through a new reference
	stats, _ := env.content.Stats(ctx)
	if stats.ObjectCount != 1 || stats.TotalRefs != 2 {
		t.Errorf("expected 1 object with 2 refs, got %d objects %d refs", stats.ObjectCount, stats.TotalRefs)
	}
}

func TestTrashHidesNodeFromListings(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	fileID := uploadFile(t, env, "owner-1", "doomed.txt", []byte("bytes"))

	if err := env.nodes.Trash(ctx, "owner-1", fileID); err != nil {
		t.Fatalf("trash failed: %v", err)
	}
	children, _ := env.nodes.List(ctx, "owner-1", nil)
	if len(children) != 0 {
		t.Errorf("trashed node must not appear in listings, got %d", len(children))
	}
	trashed, _ := env.nodes.ListTrash(ctx, "owner-1")
	if len(trashed) != 1 {
		t.Errorf("expected 1 trashed node, got %d", len(trashed))
	}

	if err := env.nodes.Trash(ctx, "owner-1", fileID); !apperrors.Is(err, apperrors.ErrFileInTrash) {
		t.Errorf("expected already in trash, got %v", err)
	}
}

func TestRestoreReturnsNodeToParent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	fileID := uploadFile(t, env, "owner-1", "back.txt", []byte("bytes"))
	if err := env.nodes.Trash(ctx, "owner-1", fileID); err != nil {
		t.Fatalf("trash failed: %v", err)
	}

	node, err := env.nodes.Restore(ctx, "owner-1", fileID)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if node.InTrash {
		t.Error("restored node must leave the trash")
	}
	children, _ := env.nodes.List(ctx, "owner-1", nil)
	if len(children) != 1 {
		t.Errorf("restored node should appear in listings, got %d", len(children))
	}
}

func TestRestoreLandsInRootWhenParentTrashed(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	folder, _ := env.nodes.CreateFolder(ctx, "owner-1", nil, "vanishing")
	node, err := env.nodes.Upload(ctx, &UploadRequest{
		OwnerID:  "owner-1",
		FolderID: &folder.ID,
		Name:     "stranded.txt",
		Data:     []byte("bytes"),
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if err := env.nodes.Trash(ctx, "owner-1", node.ID); err != nil {
		t.Fatalf("trash file failed: %v", err)
	}
	if err := env.nodes.Trash(ctx, "owner-1", folder.ID); err != nil {
		t.Fatalf("trash folder failed: %v", err)
	}

	restored, err := env.nodes.Restore(ctx, "owner-1", node.ID)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if restored.ParentID != nil {
		t.Error("restore with a trashed parent should land in the root")
	}
}

func TestPurgeReleasesContentAndHistory(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	data := []byte("purge me")
	fileID := uploadFile(t, env, "owner-1", "gone.txt", data)

	// Purge requires the node to be trashed first
	if err := env.nodes.Purge(ctx, "owner-1", fileID); !apperrors.Is(err, apperrors.ErrFileNotInTrash) {
		t.Errorf("expected not in trash, got %v", err)
	}

	if err := env.nodes.Trash(ctx, "owner-1", fileID); err != nil {
		t.Fatalf("trash failed: %v", err)
	}
	if err := env.nodes.Purge(ctx, "owner-1", fileID); err != nil {
		t.Fatalf("purge failed: %v", err)
	}

	if _, err := env.nodeRepo.GetByID(ctx, fileID); err == nil {
		t.Error("purged node must be deleted")
	}
	if _, err := env.content.FindByHash(ctx, HashBytes(data)); err == nil {
		t.Error("purged content with no other holders must be collected")
	}
	list, _ := env.versions.List(ctx, fileID)
	if len(list) != 0 {
		t.Errorf("purged file must lose its history, got %d versions", len(list))
	}
	last := env.bus.delivered[len(env.bus.delivered)-1]
	if last.Type != EventFileDelete {
		t.Errorf("expected DELETE event last, got %s", last.Type)
	}
}

func TestPurgeFolderRemovesSubtree(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	folder, _ := env.nodes.CreateFolder(ctx, "owner-1", nil, "tree")
	child, err := env.nodes.Upload(ctx, &UploadRequest{
		OwnerID:  "owner-1",
		FolderID: &folder.ID,
		Name:     "leaf.txt",
		Data:     []byte("leaf bytes"),
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if err := env.nodes.Trash(ctx, "owner-1", folder.ID); err != nil {
		t.Fatalf("trash failed: %v", err)
	}
	if err := env.nodes.Purge(ctx, "owner-1", folder.ID); err != nil {
		t.Fatalf("purge failed: %v", err)
	}

	if _, err := env.nodeRepo.GetByID(ctx, child.ID); err == nil {
		t.Error("children of a purged folder must be deleted")
	}
	stats, _ := env.content.Stats(ctx)
	if stats.ObjectCount != 0 {
		t.Errorf("expected all content collected, got %d objects", stats.ObjectCount)
	}
}

func TestEmptyTrash(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	a := uploadFile(t, env, "owner-1", "a.txt", []byte("aa"))
	b := uploadFile(t, env, "owner-1", "b.txt", []byte("bb"))
	env.nodes.Trash(ctx, "owner-1", a)
	env.nodes.Trash(ctx, "owner-1", b)

	purged, err := env.nodes.EmptyTrash(ctx, "owner-1")
	if err != nil {
		t.Fatalf("empty trash failed: %v", err)
	}
	if purged != 2 {
		t.Errorf("expected 2 purged, got %d", purged)
	}
	trashed, _ := env.nodes.ListTrash(ctx, "owner-1")
	if len(trashed) != 0 {
		t.Errorf("expected empty trash, got %d", len(trashed))
	}
}

func TestUploadQuotaDenied(t *testing.T) {
	env := newTestEnv()
	nodes := NewNodeUseCase(env.nodeRepo, env.content, env.versions, env.publisher, env.cache, denyQuota{}, testLogger())

	_, err := nodes.Upload(context.Background(), &UploadRequest{
		OwnerID: "owner-1",
		Name:    "big.bin",
		Data:    []byte("too big"),
	})
	if !apperrors.Is(err, apperrors.ErrQuotaExceeded) {
		t.Errorf("expected quota exceeded, got %v", err)
	}
}

func TestDownloadURLRejectsFolders(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	folder, _ := env.nodes.CreateFolder(ctx, "owner-1", nil, "docs")

	if _, err := env.nodes.DownloadURL(ctx, "owner-1", folder.ID, 0); !apperrors.Is(err, apperrors.ErrFolderNoDownload) {
		t.Errorf("expected folder download rejection, got %v", err)
	}

	fileID := uploadFile(t, env, "owner-1", "real.txt", []byte("bytes"))
	url, err := env.nodes.DownloadURL(ctx, "owner-1", fileID, 0)
	if err != nil {
		t.Fatalf("download url failed: %v", err)
	}
	if url == "" {
		t.Error("expected a presigned URL")
	}
}

func TestVersionDownloadURLResolvesRecordedContent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	fileID := uploadFile(t, env, "owner-1", "doc.txt", []byte("draft"))
	if _, err := env.nodes.UpdateContent(ctx, "owner-1", fileID, []byte("final"), "text/plain"); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	oldURL, err := env.nodes.VersionDownloadURL(ctx, "owner-1", fileID, 1, 0)
	if err != nil {
		t.Fatalf("version download url failed: %v", err)
	}
	currentURL, err := env.nodes.DownloadURL(ctx, "owner-1", fileID, 0)
	if err != nil {
		t.Fatalf("download url failed: %v", err)
	}
	if oldURL == "" || oldURL == currentURL {
		t.Errorf("version 1 should resolve to its own content, got %q vs %q", oldURL, currentURL)
	}

	if _, err := env.nodes.VersionDownloadURL(ctx, "owner-1", fileID, 9, 0); !apperrors.Is(err, apperrors.ErrVersionNotFound) {
		t.Errorf("expected version not found, got %v", err)
	}
	if _, err := env.nodes.VersionDownloadURL(ctx, "owner-2", fileID, 1, 0); !apperrors.Is(err, apperrors.ErrFileUnauthorized) {
		t.Errorf("expected unauthorized for foreign reader, got %v", err)
	}
}

func TestQuotaCommitTracksFootprint(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	fileID := uploadFile(t, env, "owner-1", "doc.txt", []byte("hello"))
	if got := env.quota.total("owner-1"); got != 5 {
		t.Fatalf("expected 5 bytes committed after upload, got %d", got)
	}

	if _, err := env.nodes.UpdateContent(ctx, "owner-1", fileID, []byte("12345678"), "text/plain"); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got := env.quota.total("owner-1"); got != 8 {
		t.Errorf("expected delta to move the total to 8, got %d", got)
	}

	if _, err := env.nodes.Rollback(ctx, "owner-1", fileID, 1); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}
	if got := env.quota.total("owner-1"); got != 5 {
		t.Errorf("expected rollback to shrink the total to 5, got %d", got)
	}

	if err := env.nodes.Trash(ctx, "owner-1", fileID); err != nil {
		t.Fatalf("trash failed: %v", err)
	}
	if err := env.nodes.Purge(ctx, "owner-1", fileID); err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if got := env.quota.total("owner-1"); got != 0 {
		t.Errorf("expected purge to release the footprint, got %d", got)
	}
}

func TestEventPayloadDescribesNode(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	folder, err := env.nodes.CreateFolder(ctx, "owner-1", nil, "docs")
	if err != nil {
		t.Fatalf("create folder failed: %v", err)
	}
	if _, err := env.nodes.Upload(ctx, &UploadRequest{
		OwnerID:     "owner-1",
		FolderID:    &folder.ID,
		Name:        "report.pdf",
		Data:        []byte("pdf bytes"),
		ContentType: "application/pdf",
	}); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if env.bus.deliveredCount() != 2 {
		t.Fatalf("expected folder and file events, got %d", env.bus.deliveredCount())
	}
	folderEvent := env.bus.delivered[0]
	if !folderEvent.IsFolder {
		t.Error("folder event must be marked as a folder")
	}

	fileEvent := env.bus.delivered[1]
	if fileEvent.IsFolder {
		t.Error("file event must not be marked as a folder")
	}
	if fileEvent.ParentID == nil || *fileEvent.ParentID != folder.ID {
		t.Errorf("file event should place the node under %s, got %v", folder.ID, fileEvent.ParentID)
	}
	if fileEvent.ContentType != "application/pdf" {
		t.Errorf("file event content type mismatch: %q", fileEvent.ContentType)
	}
	if fileEvent.OwnerID != "owner-1" || fileEvent.Name != "report.pdf" {
		t.Errorf("file event identity mismatch: %+v", fileEvent)
	}
}
