package streamly

import "time"

// Role identifies a user's permission tier.
type Role string

const (
	RoleUser     Role = "ROLE_USER"
	RoleUploader Role = "ROLE_UPLOADER"
	RoleAdmin    Role = "ROLE_ADMIN"
)

// User represents a Streamly account as returned by the identity endpoints.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Nickname  string    `json:"nickname"`
	Role      Role      `json:"role"`
	Provider  string    `json:"provider,omitempty"` // identity-provider tag for social logins
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// Video processing states reported by the backend pipeline.
const (
	StatusUploading = "UPLOADING"
	StatusUploaded  = "UPLOADED"
	StatusEncoding  = "ENCODING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
	StatusDeleted   = "DELETED"
)

// Approval workflow states.
const (
	ApprovalPending  = "PENDING"
	ApprovalApproved = "APPROVED"
	ApprovalRejected = "REJECTED"
)

// Video represents a video and its processing/approval state.
type Video struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	UploaderName     string  `json:"uploaderName"`
	UploaderID       int64   `json:"uploaderId"`
	OriginalFilename string  `json:"originalFilename"`
	OriginalFileSize int64   `json:"originalFileSize"`
	PlaybackURL      string  `json:"cloudfrontUrl"`
	ThumbnailURL     string  `json:"thumbnailUrl"`
	DurationSeconds  int     `json:"durationSeconds"`
	Resolution       string  `json:"resolution"`
	Status           string  `json:"status"`
	EncodingProgress int     `json:"encodingProgress"`
	ViewCount        int64   `json:"viewCount"`
	Category         string  `json:"category"`
	AgeRating        string  `json:"ageRating"`
	ApprovalStatus   string  `json:"approvalStatus"`
	RejectionReason  string  `json:"rejectionReason"`
	CreatedAt        string  `json:"createdAt"`
	PublishedAt      *string `json:"publishedAt"`
}

// Watchable reports whether the video can be played right now.
func (v *Video) Watchable() bool {
	return v.Status == StatusCompleted && v.ApprovalStatus == ApprovalApproved && v.PlaybackURL != ""
}

// Page is the backend's paginated list envelope.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
}

// UploaderRequest represents a pending or resolved uploader-promotion request.
type UploaderRequest struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"userId"`
	UserEmail string `json:"userEmail"`
	Reason    string `json:"reason"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

// DashboardStats summarizes platform state for the admin dashboard.
type DashboardStats struct {
	TotalVideos    int64 `json:"totalVideos"`
	PendingVideos  int64 `json:"pendingVideos"`
	ApprovedVideos int64 `json:"approvedVideos"`
	RejectedVideos int64 `json:"rejectedVideos"`
	TotalUsers     int64 `json:"totalUsers"`
	TotalViews     int64 `json:"totalViews"`
}

// UploadMeta carries the metadata fields accompanying a video upload.
type UploadMeta struct {
	Title       string
	Description string
	Category    string
	AgeRating   string
}

// VideoUpdate carries the editable fields of a video.
type VideoUpdate struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	AgeRating   string `json:"ageRating,omitempty"`
}
