package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"transit_portal_backend/internal/adapters/storage"
	casesrepo "transit_portal_backend/internal/cases/repository"
	"transit_portal_backend/internal/documents/repository"
	"transit_portal_backend/platform/apperr"
	"transit_portal_backend/platform/logger"
)

type fakeBlobs struct {
	objects map[string][]byte
	maxSize int64
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: make(map[string][]byte), maxSize: 1 << 20}
}

func (f *fakeBlobs) EnsureBucketExists(context.Context, string) error { return nil }

func (f *fakeBlobs) UploadFile(_ context.Context, _, folder, fileName, _ string, reader io.Reader, _ int64) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	key := folder + "/" + fileName
	f.objects[key] = data
	return key, nil
}

func (f *fakeBlobs) DownloadFile(_ context.Context, _, fileKey string) (io.ReadCloser, error) {
	data, ok := f.objects[fileKey]
	if !ok {
		return nil, fmt.Errorf("object %s not found", fileKey)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeBlobs) GenerateDownloadURL(_ context.Context, bucket, fileKey string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{
		URL:       "https://blobs.test/" + bucket + "/" + fileKey,
		FileKey:   fileKey,
		ExpiresAt: time.Now().Add(storage.DownloadURLTTL),
	}, nil
}

func (f *fakeBlobs) DeleteObject(_ context.Context, _, fileKey string) error {
	delete(f.objects, fileKey)
	return nil
}

func (f *fakeBlobs) ValidateContentType(contentType string) error {
	if contentType != "application/pdf" && !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("content type %q is not allowed", contentType)
	}
	return nil
}

func (f *fakeBlobs) ValidateFileSize(size int64) error {
	if size <= 0 || size > f.maxSize {
		return fmt.Errorf("bad size %d", size)
	}
	return nil
}

type fakeMetadata struct {
	docs map[uuid.UUID]repository.Document
}

func (f *fakeMetadata) Create(_ context.Context, params repository.CreateParams) (repository.Document, error) {
	d := repository.Document{
		ID:          uuid.New(),
		CaseID:      params.CaseID,
		StageID:     params.StageID,
		FileName:    params.FileName,
		FileKey:     params.FileKey,
		ContentType: params.ContentType,
		SizeBytes:   params.SizeBytes,
		UploadedBy:  params.UploadedBy,
	}
	f.docs[d.ID] = d
	return d, nil
}

func (f *fakeMetadata) GetByID(_ context.Context, id uuid.UUID) (repository.Document, error) {
	d, ok := f.docs[id]
	if !ok || d.IsDeleted {
		return repository.Document{}, apperr.NotFound("document not found")
	}
	return d, nil
}

func (f *fakeMetadata) ListByCase(_ context.Context, caseID uuid.UUID) ([]repository.Document, error) {
	var out []repository.Document
	for _, d := range f.docs {
		if d.CaseID == caseID && !d.IsDeleted {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeMetadata) ListByStage(_ context.Context, stageID uuid.UUID) ([]repository.Document, error) {
	var out []repository.Document
	for _, d := range f.docs {
		if d.StageID != nil && *d.StageID == stageID && !d.IsDeleted {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeMetadata) SetVerified(_ context.Context, id uuid.UUID, verifiedBy uuid.UUID) (repository.Document, error) {
	d, ok := f.docs[id]
	if !ok || d.IsDeleted {
		return repository.Document{}, apperr.NotFound("document not found")
	}
	d.IsVerified = true
	d.VerifiedBy = &verifiedBy
	f.docs[id] = d
	return d, nil
}

func (f *fakeMetadata) SoftDelete(_ context.Context, id uuid.UUID) error {
	d, ok := f.docs[id]
	if !ok || d.IsDeleted {
		return apperr.NotFound("document not found")
	}
	d.IsDeleted = true
	f.docs[id] = d
	return nil
}

type fakeCases struct {
	cases  map[uuid.UUID]casesrepo.Case
	stages map[uuid.UUID]casesrepo.Stage
}

func (f *fakeCases) GetByID(_ context.Context, id uuid.UUID) (casesrepo.Case, error) {
	c, ok := f.cases[id]
	if !ok {
		return casesrepo.Case{}, apperr.NotFound("case not found")
	}
	return c, nil
}

func (f *fakeCases) GetStage(_ context.Context, id uuid.UUID) (casesrepo.Stage, error) {
	st, ok := f.stages[id]
	if !ok {
		return casesrepo.Stage{}, apperr.NotFound("case stage not found")
	}
	return st, nil
}

func newTestService() (*Service, *fakeBlobs, *fakeCases) {
	blobs := newFakeBlobs()
	cases := &fakeCases{
		cases:  make(map[uuid.UUID]casesrepo.Case),
		stages: make(map[uuid.UUID]casesrepo.Stage),
	}
	meta := &fakeMetadata{docs: make(map[uuid.UUID]repository.Document)}
	return New(meta, blobs, cases, "case-documents", logger.New("test")), blobs, cases
}

func TestUploadAndDownloadCaseDocument(t *testing.T) {
	svc, blobs, cases := newTestService()
	ctx := context.Background()
	caseID := uuid.New()
	cases.cases[caseID] = casesrepo.Case{ID: caseID}

	content := []byte("%PDF-1.7 invoice")
	doc, err := svc.UploadCaseDocument(ctx, caseID, "invoice.pdf", "application/pdf",
		bytes.NewReader(content), int64(len(content)), uuid.New())
	if err != nil {
		t.Fatalf("UploadCaseDocument() error = %v", err)
	}
	if doc.CaseID != caseID || doc.StageID != nil {
		t.Fatalf("document scope = %+v, want case-level", doc)
	}
	if len(blobs.objects) != 1 {
		t.Fatalf("blob store has %d objects, want 1", len(blobs.objects))
	}

	link, err := svc.DownloadLink(ctx, doc.ID)
	if err != nil {
		t.Fatalf("DownloadLink() error = %v", err)
	}
	if link.FileName != "invoice.pdf" || !strings.Contains(link.URL, "case-documents") {
		t.Fatalf("download link = %+v", link)
	}
}

func TestUploadValidation(t *testing.T) {
	svc, _, cases := newTestService()
	ctx := context.Background()
	caseID := uuid.New()
	cases.cases[caseID] = casesrepo.Case{ID: caseID}

	_, err := svc.UploadCaseDocument(ctx, caseID, "malware.exe", "application/x-msdownload",
		strings.NewReader("MZ"), 2, uuid.New())
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("disallowed content type error = %v, want validation error", err)
	}

	_, err = svc.UploadCaseDocument(ctx, caseID, "empty.pdf", "application/pdf",
		strings.NewReader(""), 0, uuid.New())
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("zero size error = %v, want validation error", err)
	}

	_, err = svc.UploadCaseDocument(ctx, uuid.New(), "a.pdf", "application/pdf",
		strings.NewReader("x"), 1, uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("upload on missing case error = %v, want not found", err)
	}
}

func TestVerifyAndSoftDelete(t *testing.T) {
	svc, _, cases := newTestService()
	ctx := context.Background()
	caseID := uuid.New()
	stageID := uuid.New()
	cases.cases[caseID] = casesrepo.Case{ID: caseID}
	cases.stages[stageID] = casesrepo.Stage{ID: stageID, CaseID: caseID}

	doc, err := svc.UploadStageDocument(ctx, stageID, "permit.pdf", "application/pdf",
		strings.NewReader("permit"), 6, uuid.New())
	if err != nil {
		t.Fatalf("UploadStageDocument() error = %v", err)
	}

	assessor := uuid.New()
	verified, err := svc.Verify(ctx, doc.ID, assessor)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !verified.IsVerified || verified.VerifiedBy == nil || *verified.VerifiedBy != assessor {
		t.Fatalf("verified document = %+v", verified)
	}
	if _, err := svc.Verify(ctx, doc.ID, assessor); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("double verify error = %v, want conflict", err)
	}

	if err := svc.Delete(ctx, doc.ID, uuid.New()); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	docs, err := svc.ListStageDocuments(ctx, stageID)
	if err != nil {
		t.Fatalf("ListStageDocuments() error = %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("stage documents after delete = %d, want 0", len(docs))
	}
	if _, err := svc.DownloadLink(ctx, doc.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("download of deleted document error = %v, want not found", err)
	}
}
