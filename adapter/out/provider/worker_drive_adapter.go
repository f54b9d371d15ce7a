package provider

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"draft_worker/core/domain"
	"draft_worker/core/port/out"
	"draft_worker/pkg/resilience"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	folderMimeType = "application/vnd.google-apps.folder"
	linkPermission = "anyoneWithLink"
	fileFields     = "id, webViewLink"
)

// DriveAdapter implements out.FileStore for Google Drive.
type DriveAdapter struct {
	svc *drive.Service
	cb  *resilience.Breaker
}

var _ out.FileStore = (*DriveAdapter)(nil)

// NewDriveAdapter creates a Drive adapter authenticated with ts.
func NewDriveAdapter(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (*DriveAdapter, error) {
	svc, err := drive.NewService(ctx, ClientOptions(ts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &DriveAdapter{svc: svc, cb: resilience.NewBreaker("drive-api")}, nil
}

// EnsureFolder returns the first non-trashed folder called name under parentID,
// creating one when none exists.
func (a *DriveAdapter) EnsureFolder(ctx context.Context, parentID, name string) (domain.StoredFile, error) {
	var found []*drive.File
	err := a.cb.Execute("ListFolders", func() error {
		resp, apiErr := a.svc.Files.List().
			Q(folderQuery(parentID, name)).
			Fields("files(id, webViewLink)").
			PageSize(1).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx).Do()
		if apiErr != nil {
			return apiErr
		}
		found = resp.Files
		return nil
	})
	if err != nil {
		return domain.StoredFile{}, wrapError("drive", err, "failed to list folders")
	}
	if len(found) > 0 {
		return storedFile(found[0], true), nil
	}

	var created *drive.File
	err = a.cb.Execute("CreateFolder", func() error {
		var apiErr error
		created, apiErr = a.svc.Files.Create(&drive.File{
			Name:     name,
			MimeType: folderMimeType,
			Parents:  []string{parentID},
		}).Fields(fileFields).SupportsAllDrives(true).Context(ctx).Do()
		return apiErr
	})
	if err != nil {
		return domain.StoredFile{}, wrapError("drive", err, "failed to create folder")
	}
	return storedFile(created, true), nil
}

// Upload creates a file with data in folderID.
func (a *DriveAdapter) Upload(ctx context.Context, folderID, name, mimeType string, data []byte) (domain.StoredFile, error) {
	var created *drive.File
	err := a.cb.Execute("Upload", func() error {
		var apiErr error
		created, apiErr = a.svc.Files.Create(&drive.File{
			Name:    name,
			Parents: []string{folderID},
		}).Media(bytes.NewReader(data), googleapi.ContentType(mimeType)).
			Fields(fileFields).SupportsAllDrives(true).Context(ctx).Do()
		return apiErr
	})
	if err != nil {
		return domain.StoredFile{}, wrapError("drive", err, "failed to upload "+name)
	}
	return storedFile(created, false), nil
}

// Copy copies fileID into folderID as name.
func (a *DriveAdapter) Copy(ctx context.Context, fileID, folderID, name string) (domain.StoredFile, error) {
	var copied *drive.File
	err := a.cb.Execute("Copy", func() error {
		var apiErr error
		copied, apiErr = a.svc.Files.Copy(fileID, &drive.File{
			Name:    name,
			Parents: []string{folderID},
		}).Fields(fileFields).SupportsAllDrives(true).Context(ctx).Do()
		return apiErr
	})
	if err != nil {
		return domain.StoredFile{}, wrapError("drive", err, "failed to copy "+fileID)
	}
	return storedFile(copied, false), nil
}

// Stat checks that fileID is visible.
func (a *DriveAdapter) Stat(ctx context.Context, fileID string) error {
	err := a.cb.Execute("Stat", func() error {
		_, apiErr := a.svc.Files.Get(fileID).Fields("id").SupportsAllDrives(true).Context(ctx).Do()
		return apiErr
	})
	return wrapError("drive", err, "failed to stat "+fileID)
}

// ShareWithLink grants anyone-with-link read access and returns a direct download URI.
func (a *DriveAdapter) ShareWithLink(ctx context.Context, fileID string) (string, error) {
	err := a.cb.Execute("Share", func() error {
		_, apiErr := a.svc.Permissions.Create(fileID, &drive.Permission{
			Type: "anyone",
			Role: "reader",
		}).SupportsAllDrives(true).Context(ctx).Do()
		return apiErr
	})
	if err != nil {
		return "", wrapError("drive", err, "failed to share "+fileID)
	}
	return DownloadURI(fileID), nil
}

// Unshare removes the anyone-with-link permission.
func (a *DriveAdapter) Unshare(ctx context.Context, fileID string) error {
	err := a.cb.Execute("Unshare", func() error {
		return a.svc.Permissions.Delete(fileID, linkPermission).SupportsAllDrives(true).Context(ctx).Do()
	})
	return wrapError("drive", err, "failed to unshare "+fileID)
}

// DownloadURI is the public content URI of a shared Drive file.
func DownloadURI(fileID string) string {
	return "https://drive.google.com/uc?export=download&id=" + fileID
}

// folderQuery builds the Drive search for a child folder by exact name.
func folderQuery(parentID, name string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(name)
	return fmt.Sprintf("'%s' in parents and name = '%s' and mimeType = '%s' and trashed = false",
		parentID, escaped, folderMimeType)
}

func storedFile(f *drive.File, folder bool) domain.StoredFile {
	url := f.WebViewLink
	if url == "" {
		if folder {
			url = "https://drive.google.com/drive/folders/" + f.Id
		} else {
			url = "https://drive.google.com/file/d/" + f.Id + "/view"
		}
	}
	return domain.StoredFile{ID: f.Id, URL: url}
}
