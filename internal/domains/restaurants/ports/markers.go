package ports

import "context"

// ApprovalMarkerStore records that a restaurant has seen its post-approval summary.
type ApprovalMarkerStore interface {
	// MarkSeen sets the marker and reports whether this call set it.
	MarkSeen(ctx context.Context, restaurantID int64) (bool, error)
}
