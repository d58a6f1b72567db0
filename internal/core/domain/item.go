package domain

import "fmt"

// FileStatus is the transfer lifecycle state of one sync item.
type FileStatus string

const (
	// StatusPending marks an item created by a listing call, not yet fetched.
	StatusPending FileStatus = "PENDING"
	// StatusProcessed marks an item whose content has been fetched from the source.
	StatusProcessed FileStatus = "PROCESSED"
	// StatusUploaded marks an item written to the destination. Terminal.
	StatusUploaded FileStatus = "UPLOADED"
	// StatusError marks an item whose transfer failed. Terminal; the error
	// text is kept on the item so a retry can target the failed subset.
	StatusError FileStatus = "ERROR"
)

// statusRank orders the monotonic path PENDING -> PROCESSED -> UPLOADED.
var statusRank = map[FileStatus]int{
	StatusPending:   0,
	StatusProcessed: 1,
	StatusUploaded:  2,
}

// Terminal reports whether no further transitions are allowed.
func (s FileStatus) Terminal() bool {
	return s == StatusUploaded || s == StatusError
}

// SyncItem is one discrete unit (file or object) being transferred.
type SyncItem struct {
	// UUID is assigned once the item is persisted to the destination.
	// Empty before upload.
	UUID string

	// Title is the item's display name (usually the file name).
	Title string

	// OriginalID is the provider-native identifier.
	OriginalID string

	// Metadata carries provider-specific attributes (MIME type, media
	// links) needed later by Download or GetLink.
	Metadata map[string]string

	// Status is the item's position in the transfer lifecycle.
	Status FileStatus

	// Error holds the failure message when Status is StatusError.
	Error string
}

// NewSyncItem returns a pending item with a non-nil metadata map.
func NewSyncItem(originalID, title string) SyncItem {
	return SyncItem{
		Title:      title,
		OriginalID: originalID,
		Metadata:   map[string]string{},
		Status:     StatusPending,
	}
}

// Advance moves the item one step along the PENDING -> PROCESSED -> UPLOADED
// path. Any other transition, including a regression, is rejected.
func (i *SyncItem) Advance(next FileStatus) error {
	cur, okCur := statusRank[i.Status]
	nxt, okNext := statusRank[next]
	if !okCur || !okNext {
		return fmt.Errorf("%w: %s -> %s", ErrStatusRegression, i.Status, next)
	}
	if nxt != cur+1 {
		return fmt.Errorf("%w: %s -> %s", ErrStatusRegression, i.Status, next)
	}
	i.Status = next
	return nil
}

// MarkError moves a non-terminal item to the error state, recording the cause.
func (i *SyncItem) MarkError(err error) error {
	if i.Status.Terminal() {
		return fmt.Errorf("%w: %s is terminal", ErrStatusRegression, i.Status)
	}
	i.Status = StatusError
	if err != nil {
		i.Error = err.Error()
	}
	return nil
}
