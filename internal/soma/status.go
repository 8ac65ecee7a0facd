package soma

// Reconstruction status taxonomy. Buckets are the summary column
// identifiers; the sheet itself carries the display strings ("Pending
// Review" etc). Anything outside the six canonical statuses lands in Other.
const (
	BucketCompleted     = "Completed"
	BucketPendingReview = "Pending_Review"
	BucketHold          = "Hold"
	BucketUntraceable   = "Untraceable"
	BucketInProgress    = "In_Progress"
	BucketIncomplete    = "Incomplete"
	BucketOther         = "Other"
)

// StatusBuckets is the fixed stacking and column order.
var StatusBuckets = []string{
	BucketCompleted,
	BucketPendingReview,
	BucketHold,
	BucketUntraceable,
	BucketInProgress,
	BucketIncomplete,
	BucketOther,
}

// statusBucket maps the sheet's exact status text to its bucket. Matching is
// exact, not fuzzy.
var statusBucket = map[string]string{
	"Completed":      BucketCompleted,
	"Pending Review": BucketPendingReview,
	"Hold":           BucketHold,
	"Untraceable":    BucketUntraceable,
	"In Progress":    BucketInProgress,
	"Incomplete":     BucketIncomplete,
}

// BucketColors assigns each bucket its fixed chart color. The colors are
// visual identity only.
var BucketColors = map[string]string{
	BucketCompleted:     "#2E8B57", // sea green
	BucketPendingReview: "#FFD700", // gold
	BucketHold:          "#FF6347", // tomato
	BucketUntraceable:   "#696969", // dim gray
	BucketInProgress:    "#4169E1", // royal blue
	BucketIncomplete:    "#FFA500", // orange
	BucketOther:         "#DDA0DD", // plum
}

// bucketLabel renders a bucket for human display ("Pending Review").
func bucketLabel(bucket string) string {
	switch bucket {
	case BucketPendingReview:
		return "Pending Review"
	case BucketInProgress:
		return "In Progress"
	default:
		return bucket
	}
}
