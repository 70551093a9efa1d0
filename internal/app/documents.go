package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"soloboss/pkg/domain"
	"soloboss/pkg/store"
)

// DocumentInput carries the creatable document metadata fields. The file
// itself is uploaded out of band; FileURL is its location (or object key
// when object storage is configured).
type DocumentInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	FileURL     string  `json:"fileUrl"`
	FileType    string  `json:"fileType"`
	FileSize    int64   `json:"fileSize"`
	FolderPath  *string `json:"folderPath"`
}

// CreateDocument inserts a document metadata row owned by the caller.
func (a *App) CreateDocument(ownerID string, input DocumentInput) (domain.Document, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.Document{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.FileURL) == "" {
		return domain.Document{}, fmt.Errorf("%w: fileUrl is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.FileType) == "" {
		return domain.Document{}, fmt.Errorf("%w: fileType is required", ErrInvalidInput)
	}
	if input.FileSize <= 0 {
		return domain.Document{}, fmt.Errorf("%w: fileSize must be positive", ErrInvalidInput)
	}
	doc := domain.Document{
		ID:          uuid.NewString(),
		UserID:      ownerID,
		Name:        name,
		Description: input.Description,
		FileURL:     strings.TrimSpace(input.FileURL),
		FileType:    strings.TrimSpace(input.FileType),
		FileSize:    input.FileSize,
		FolderPath:  input.FolderPath,
	}
	created, err := a.store.CreateDocument(doc)
	if err != nil {
		if errors.Is(err, store.ErrOwnerMissing) {
			return domain.Document{}, fmt.Errorf("%w: %s", ErrOwnerNotFound, ownerID)
		}
		return domain.Document{}, fmt.Errorf("create document: %w", err)
	}
	if err := a.recordActivity(ownerID, "document_created", "Added document: "+name, domain.EntityDocument, created.ID); err != nil {
		return domain.Document{}, err
	}
	return created, nil
}

// ListDocuments returns the caller's documents, newest first, with the
// three-way folder filter.
func (a *App) ListDocuments(ownerID string, folder domain.FolderFilter) ([]domain.Document, error) {
	docs, err := a.store.ListDocuments(ownerID, folder)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// UpdateDocument applies the explicitly-present fields of the patch to the
// caller's document, with the same null-vs-omitted contract as tasks.
func (a *App) UpdateDocument(ownerID, documentID string, patch Patch) (domain.Document, error) {
	if strings.TrimSpace(documentID) == "" {
		return domain.Document{}, fmt.Errorf("%w: document id is required", ErrInvalidInput)
	}
	updates := make(map[string]any, len(patch))
	for key := range patch {
		switch key {
		case "name":
			value, err := patch.requiredString(key)
			if err != nil {
				return domain.Document{}, err
			}
			updates["name"] = value
		case "description":
			value, err := patch.nullableString(key)
			if err != nil {
				return domain.Document{}, err
			}
			updates["description"] = value
		case "folderPath":
			value, err := patch.nullableString(key)
			if err != nil {
				return domain.Document{}, err
			}
			updates["folder_path"] = value
		}
	}
	doc, ok, err := a.store.UpdateDocument(ownerID, documentID, updates)
	if err != nil {
		return domain.Document{}, fmt.Errorf("update document: %w", err)
	}
	if !ok {
		return domain.Document{}, ErrNotFoundOrDenied
	}
	if err := a.recordActivity(ownerID, "document_updated", "Updated document: "+doc.Name, domain.EntityDocument, doc.ID); err != nil {
		return domain.Document{}, err
	}
	return doc, nil
}

// DeleteDocument removes the caller's document row. When object storage is
// configured the stored file is removed best-effort; the metadata delete is
// already final at that point.
func (a *App) DeleteDocument(ownerID, documentID string) (bool, error) {
	doc, found, err := a.store.GetDocument(ownerID, documentID)
	if err != nil {
		return false, fmt.Errorf("load document: %w", err)
	}
	deleted, err := a.store.DeleteDocument(ownerID, documentID)
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	if !deleted {
		return false, nil
	}
	if a.objects != nil && found {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.objects.Remove(ctx, doc.FileURL); err != nil {
			slog.Warn("remove stored file", "document_id", documentID, "err", err)
		}
		cancel()
	}
	if err := a.recordActivity(ownerID, "document_deleted", "Deleted a document", domain.EntityDocument, documentID); err != nil {
		return true, err
	}
	return true, nil
}

// DocumentDownloadURL resolves a download location for the caller's
// document: a pre-signed URL when object storage is configured, the stored
// file URL otherwise.
func (a *App) DocumentDownloadURL(ctx context.Context, ownerID, documentID string) (string, error) {
	doc, ok, err := a.store.GetDocument(ownerID, documentID)
	if err != nil {
		return "", fmt.Errorf("load document: %w", err)
	}
	if !ok {
		return "", ErrNotFoundOrDenied
	}
	if a.objects == nil {
		return doc.FileURL, nil
	}
	url, err := a.objects.PresignGet(ctx, doc.FileURL, a.downloadTTL)
	if err != nil {
		return "", fmt.Errorf("presign download: %w", err)
	}
	return url, nil
}
