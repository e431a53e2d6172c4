package careerhub

import (
	"fmt"
	"time"
)

// ============================================================================
// Result Envelope
// ============================================================================

// APIError represents a backend error normalized from the hosted API's
// heterogeneous error shapes.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Status  int    `json:"-"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// Result is the uniform outcome of every gateway operation.
//
// Exactly one of Data/Error is non-nil, with one exception: defined
// "no rows" reads (e.g. no stress check-in today) return both nil.
// Callers must treat that third state as a valid empty result, not a failure.
type Result[T any] struct {
	Data   *T
	Error  *APIError
	Status int
}

// OK reports whether the operation did not fail. A "no rows" result is OK.
func (r Result[T]) OK() bool { return r.Error == nil }

// Value returns the payload or the zero value when absent.
func (r Result[T]) Value() T {
	if r.Data != nil {
		return *r.Data
	}
	var zero T
	return zero
}

func errResult[T any](message, code string, status int) Result[T] {
	return Result[T]{Error: &APIError{Message: message, Code: code, Status: status}, Status: status}
}

// Ack is the payload of write operations that return no rows.
type Ack struct{}

// Profile is a platform user profile row.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	TeamID    string    `json:"team_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ============================================================================
// Peer Support Groups
// ============================================================================

// Group is a peer support group row. IsMember is derived client-side from the
// acting user's membership rows and is never persisted.
type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	MemberCount int       `json:"member_count"`
	PostCount   int       `json:"post_count"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	IsMember    bool      `json:"-"`
}

// GroupMembership links a user to a group.
type GroupMembership struct {
	ID       string    `json:"id"`
	GroupID  string    `json:"group_id"`
	UserID   string    `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// GroupPost is a post in a group feed. AuthorName comes pre-joined from the
// backend; IsLiked is derived client-side.
type GroupPost struct {
	ID         string    `json:"id"`
	GroupID    string    `json:"group_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name,omitempty"`
	Content    string    `json:"content"`
	LikeCount  int       `json:"like_count"`
	CreatedAt  time.Time `json:"created_at"`
	IsLiked    bool      `json:"-"`
}

// PostLike links a user to a liked post.
type PostLike struct {
	ID     string `json:"id"`
	PostID string `json:"post_id"`
	UserID string `json:"user_id"`
}

// Challenge is a time-boxed group activity. IsParticipating is derived.
type Challenge struct {
	ID               string     `json:"id"`
	GroupID          string     `json:"group_id"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	StartsAt         time.Time  `json:"starts_at"`
	EndsAt           *time.Time `json:"ends_at,omitempty"`
	ParticipantCount int        `json:"participant_count"`
	IsParticipating  bool       `json:"-"`
}

// ChallengeParticipation links a user to a challenge.
type ChallengeParticipation struct {
	ID          string `json:"id"`
	ChallengeID string `json:"challenge_id"`
	UserID      string `json:"user_id"`
}

// GroupFilter selects groups by optional predicates. Every set field maps to
// one query predicate; predicates are ANDed. A zero filter is canonical.
type GroupFilter struct {
	Category  string
	CreatedBy string
	Search    string
}

// IsZero reports whether the filter selects the canonical unfiltered view.
func (f *GroupFilter) IsZero() bool {
	return f == nil || (f.Category == "" && f.CreatedBy == "" && f.Search == "")
}

// CreateGroupOptions creates a new peer support group.
type CreateGroupOptions struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	CreatedBy   string `json:"created_by"`
}

// CreatePostOptions creates a post in a group.
type CreatePostOptions struct {
	GroupID  string `json:"group_id"`
	AuthorID string `json:"author_id"`
	Content  string `json:"content"`
}

// ============================================================================
// Family / Personal Support
// ============================================================================

// Supporter is a member of the user's personal support circle.
type Supporter struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	SupporterID string    `json:"supporter_id,omitempty"`
	Name        string    `json:"name"`
	Relation    string    `json:"relation,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// AddSupporterOptions adds a supporter to the circle.
type AddSupporterOptions struct {
	UserID      string `json:"user_id"`
	SupporterID string `json:"supporter_id,omitempty"`
	Name        string `json:"name"`
	Relation    string `json:"relation,omitempty"`
}

// Milestone is a tracked career goal or step.
type Milestone struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Notes       string     `json:"notes,omitempty"`
	TargetDate  *time.Time `json:"target_date,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CreateMilestoneOptions creates a milestone.
type CreateMilestoneOptions struct {
	UserID     string     `json:"user_id"`
	Title      string     `json:"title"`
	Notes      string     `json:"notes,omitempty"`
	TargetDate *time.Time `json:"target_date,omitempty"`
}

// MilestoneUpdate patches a milestone. Nil fields are left untouched.
type MilestoneUpdate struct {
	Title       *string    `json:"title,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	TargetDate  *time.Time `json:"target_date,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Boundary is a personal boundary the user is maintaining during the search.
type Boundary struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Description string    `json:"description"`
	Category    string    `json:"category,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateBoundaryOptions creates a boundary.
type CreateBoundaryOptions struct {
	UserID      string `json:"user_id"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
}

// BoundaryUpdate patches a boundary. Nil fields are left untouched.
type BoundaryUpdate struct {
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

// StressCheckin is one day's stress self-report (level 1-10).
type StressCheckin struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Level     int       `json:"level"`
	Note      string    `json:"note,omitempty"`
	Day       string    `json:"day"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmitCheckinOptions submits today's stress check-in.
type SubmitCheckinOptions struct {
	UserID string `json:"user_id"`
	Level  int    `json:"level"`
	Note   string `json:"note,omitempty"`
}

// SuccessStory is a shared outcome story.
type SuccessStory struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name,omitempty"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// ============================================================================
// Team Messaging
// ============================================================================

// MessageType tags a progress message.
type MessageType string

const (
	TypeMessage        MessageType = "message"
	TypeEncouragement  MessageType = "encouragement"
	TypeCelebration    MessageType = "celebration"
	TypeProgressUpdate MessageType = "progress_update"
	TypeGoalReminder   MessageType = "goal_reminder"
	TypeFeedback       MessageType = "feedback"
)

// ProgressMessage is the atomic unit of the messaging subsystem. Messages are
// created by send, mutated only to flip read state, and soft-deleted only.
type ProgressMessage struct {
	ID           string      `json:"id"`
	TeamID       string      `json:"team_id"`
	SenderID     string      `json:"sender_id"`
	RecipientID  string      `json:"recipient_id"`
	Content      string      `json:"content"`
	Type         MessageType `json:"type"`
	Read         bool        `json:"read"`
	Deleted      bool        `json:"deleted"`
	ParentID     *string     `json:"parent_id,omitempty"`
	ThreadRootID *string     `json:"thread_root_id,omitempty"`
	ClientRef    string      `json:"client_ref,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// SendMessageOptions sends a progress message within a team.
type SendMessageOptions struct {
	TeamID       string      `json:"team_id"`
	SenderID     string      `json:"sender_id"`
	RecipientID  string      `json:"recipient_id"`
	Content      string      `json:"content"`
	Type         MessageType `json:"type,omitempty"`
	ParentID     *string     `json:"parent_id,omitempty"`
	ThreadRootID *string     `json:"thread_root_id,omitempty"`
	ClientRef    string      `json:"client_ref,omitempty"`
}

// ConversationSummary aggregates one partner's thread: last message preview
// and unread counter. Derived server-side; never the source of truth.
type ConversationSummary struct {
	PartnerID     string    `json:"partner_id"`
	PartnerName   string    `json:"partner_name,omitempty"`
	LastMessage   string    `json:"last_message,omitempty"`
	LastMessageAt time.Time `json:"last_message_at"`
	UnreadCount   int       `json:"unread_count"`
}

func (c ConversationSummary) String() string {
	return fmt.Sprintf("%s (%d unread)", c.PartnerID, c.UnreadCount)
}
