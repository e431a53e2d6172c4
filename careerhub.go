// Package careerhub provides the Go client for the CareerHub platform API:
// peer support groups, personal support tracking, and team progress messaging
// over the hosted CRUD backend.
//
// Example:
//
//	client := careerhub.NewClient("ch-token-...")
//
//	// Gateway access
//	groups := client.Groups().List(ctx, nil)
//
//	// Cached synchronization layer
//	feed := careerhub.NewGroupFeed(client, "user-123")
//	res := feed.Groups(ctx, nil)
//
//	// Messaging with realtime + polling reconciliation
//	inbox := careerhub.NewInbox(client, "team-1", "user-123", nil)
//	inbox.Start(ctx)
package careerhub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ============================================================================
// Environment
// ============================================================================

type Environment string

const (
	Production Environment = "production"
	Staging    Environment = "staging"
)

var environments = map[Environment]string{
	Production: "https://api.careerhub.dev",
	Staging:    "https://staging.api.careerhub.dev",
}

const (
	DefaultBaseURL  = "https://api.careerhub.dev"
	DefaultTimeout  = 30 * time.Second
	DefaultCacheTTL = 5 * time.Minute
)

// ============================================================================
// Client
// ============================================================================

// Client talks to the CareerHub backend. One Client owns one process-wide
// cache store shared by every synchronization component built on it.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time
	cacheTTL   time.Duration
	cache      *Store

	groups    *GroupsService
	support   *SupportService
	messaging *MessagingService
}

type ClientOption func(*Client)

func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithEnvironment(env Environment) ClientOption {
	return func(c *Client) {
		if u, ok := environments[env]; ok {
			c.baseURL = u
		}
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = client }
}

// WithLogger sets the structured logger. The default is a no-op logger;
// best-effort failures (denormalized counter updates, poll errors) are
// reported here and nowhere else.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithCacheTTL overrides the 5 minute freshness window of the shared cache.
func WithCacheTTL(ttl time.Duration) ClientOption {
	return func(c *Client) { c.cacheTTL = ttl }
}

// WithClock injects the time source used for cache freshness.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) { c.now = now }
}

// NewClient creates a new CareerHub client.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		token:   token,
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger:   zap.NewNop(),
		now:      time.Now,
		cacheTTL: DefaultCacheTTL,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.cache = newStore(c.cacheTTL, c.now)
	c.groups = &GroupsService{c: c}
	c.support = &SupportService{c: c}
	c.messaging = &MessagingService{c: c}
	return c
}

// SetToken sets or updates the auth token.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Groups returns the peer support groups gateway.
func (c *Client) Groups() *GroupsService { return c.groups }

// Support returns the family/personal support gateway.
func (c *Client) Support() *SupportService { return c.support }

// Messaging returns the team messaging gateway.
func (c *Client) Messaging() *MessagingService { return c.messaging }

// Cache returns the shared cache store.
func (c *Client) Cache() *Store { return c.cache }

// Health checks backend health.
func (c *Client) Health(ctx context.Context) Result[Ack] {
	return exec(ctx, c, http.MethodGet, "/health", nil, nil)
}

// ProfileByEmail looks up a user profile by email address. An unknown email
// is a no-rows result, not an error.
func (c *Client) ProfileByEmail(ctx context.Context, email string) Result[Profile] {
	q := url.Values{"email": {eq(email)}}
	return firstRow(request[[]Profile](ctx, c, http.MethodGet, "/rest/v1/profiles", nil, q))
}

// Realtime creates a realtime push client for this backend. Call Connect to
// establish the connection.
func (c *Client) Realtime(config *RealtimeConfig) *RealtimeClient {
	cfg := RealtimeConfig{}
	if config != nil {
		cfg = *config
	}
	if cfg.Token == "" {
		cfg.Token = c.token
	}
	cfg.defaults()
	return &RealtimeClient{
		baseURL:      c.baseURL,
		config:       &cfg,
		logger:       c.logger,
		state:        StateDisconnected,
		dispatcher:   newEventDispatcher(),
		recon:        newReconnector(&cfg),
		pendingPings: make(map[string]chan pongPayload),
	}
}

// ============================================================================
// Internal request helpers
// ============================================================================

func (c *Client) doRequest(ctx context.Context, method, path string, body any, query url.Values) (int, []byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, data, nil
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// request issues a call and normalizes transport errors, API errors, and
// row payloads into a single Result shape.
func request[T any](ctx context.Context, c *Client, method, path string, body any, query url.Values) Result[T] {
	status, data, err := c.doRequest(ctx, method, path, body, query)
	if err != nil {
		return errResult[T](err.Error(), "network_error", status)
	}
	if status >= 400 {
		var eb errorBody
		if json.Unmarshal(data, &eb) != nil || eb.Message == "" {
			eb.Message = http.StatusText(status)
		}
		return Result[T]{Error: &APIError{Message: eb.Message, Code: eb.Code, Status: status}, Status: status}
	}
	if len(data) == 0 || string(data) == "null" {
		// No rows: the deliberately distinguished third state.
		return Result[T]{Status: status}
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return errResult[T]("failed to decode response: "+err.Error(), "decode_error", status)
	}
	return Result[T]{Data: &v, Status: status}
}

// exec issues a write with no meaningful row response; any 2xx is an Ack.
func exec(ctx context.Context, c *Client, method, path string, body any, query url.Values) Result[Ack] {
	status, data, err := c.doRequest(ctx, method, path, body, query)
	if err != nil {
		return errResult[Ack](err.Error(), "network_error", status)
	}
	if status >= 400 {
		var eb errorBody
		if json.Unmarshal(data, &eb) != nil || eb.Message == "" {
			eb.Message = http.StatusText(status)
		}
		return Result[Ack]{Error: &APIError{Message: eb.Message, Code: eb.Code, Status: status}, Status: status}
	}
	return Result[Ack]{Data: &Ack{}, Status: status}
}

// firstRow narrows a row-set result to its first row. An empty set becomes
// the no-rows state.
func firstRow[T any](r Result[[]T]) Result[T] {
	if r.Error != nil {
		return Result[T]{Error: r.Error, Status: r.Status}
	}
	if r.Data == nil || len(*r.Data) == 0 {
		return Result[T]{Status: r.Status}
	}
	row := (*r.Data)[0]
	return Result[T]{Data: &row, Status: r.Status}
}

func eq(v string) string { return "eq." + v }

// bumpCounter performs the best-effort secondary update of a denormalized
// counter. Failure is logged, never surfaced: the primary write already
// succeeded and there is no transaction spanning both.
func (c *Client) bumpCounter(ctx context.Context, table, id, column string, delta int) {
	res := exec(ctx, c, http.MethodPost, "/rest/v1/rpc/bump_counter", map[string]any{
		"rel":    table,
		"row_id": id,
		"col":    column,
		"delta":  delta,
	}, nil)
	if !res.OK() {
		c.logger.Warn("counter update failed",
			zap.String("table", table),
			zap.String("column", column),
			zap.Int("delta", delta),
			zap.Error(res.Error))
	}
}

// ============================================================================
// GroupsService
// ============================================================================

// GroupsService is the peer support groups gateway.
type GroupsService struct{ c *Client }

func (f *GroupFilter) apply(q url.Values) {
	if f == nil {
		return
	}
	if f.Category != "" {
		q.Set("category", eq(f.Category))
	}
	if f.CreatedBy != "" {
		q.Set("created_by", eq(f.CreatedBy))
	}
	if f.Search != "" {
		q.Set("name", "ilike.*"+f.Search+"*")
	}
}

func (g *GroupsService) List(ctx context.Context, filter *GroupFilter) Result[[]Group] {
	q := url.Values{"order": {"created_at.desc"}}
	filter.apply(q)
	return request[[]Group](ctx, g.c, http.MethodGet, "/rest/v1/support_groups", nil, q)
}

func (g *GroupsService) Get(ctx context.Context, groupID string) Result[Group] {
	q := url.Values{"id": {eq(groupID)}}
	return firstRow(request[[]Group](ctx, g.c, http.MethodGet, "/rest/v1/support_groups", nil, q))
}

func (g *GroupsService) Create(ctx context.Context, opts *CreateGroupOptions) Result[Group] {
	return firstRow(request[[]Group](ctx, g.c, http.MethodPost, "/rest/v1/support_groups", opts, nil))
}

// Memberships returns the acting user's membership rows, side-loaded to
// compute the derived IsMember flag.
func (g *GroupsService) Memberships(ctx context.Context, userID string) Result[[]GroupMembership] {
	q := url.Values{"user_id": {eq(userID)}}
	return request[[]GroupMembership](ctx, g.c, http.MethodGet, "/rest/v1/group_members", nil, q)
}

// Join adds the user to a group. The existing-row check returns a structured
// 400 "already a member"; the server-side uniqueness constraint is the real
// backstop for the check-then-insert race.
func (g *GroupsService) Join(ctx context.Context, groupID, userID string) Result[GroupMembership] {
	q := url.Values{"group_id": {eq(groupID)}, "user_id": {eq(userID)}}
	existing := request[[]GroupMembership](ctx, g.c, http.MethodGet, "/rest/v1/group_members", nil, q)
	if !existing.OK() {
		return Result[GroupMembership]{Error: existing.Error, Status: existing.Status}
	}
	if existing.Data != nil && len(*existing.Data) > 0 {
		return errResult[GroupMembership]("already a member", "conflict", http.StatusBadRequest)
	}

	res := firstRow(request[[]GroupMembership](ctx, g.c, http.MethodPost, "/rest/v1/group_members",
		map[string]string{"group_id": groupID, "user_id": userID}, nil))
	if res.OK() {
		g.c.bumpCounter(ctx, "support_groups", groupID, "member_count", 1)
	}
	return res
}

// Leave removes the user from a group.
func (g *GroupsService) Leave(ctx context.Context, groupID, userID string) Result[Ack] {
	q := url.Values{"group_id": {eq(groupID)}, "user_id": {eq(userID)}}
	res := exec(ctx, g.c, http.MethodDelete, "/rest/v1/group_members", nil, q)
	if res.OK() {
		g.c.bumpCounter(ctx, "support_groups", groupID, "member_count", -1)
	}
	return res
}

func (g *GroupsService) Posts(ctx context.Context, groupID string) Result[[]GroupPost] {
	q := url.Values{"group_id": {eq(groupID)}, "order": {"created_at.desc"}}
	return request[[]GroupPost](ctx, g.c, http.MethodGet, "/rest/v1/group_posts", nil, q)
}

func (g *GroupsService) CreatePost(ctx context.Context, opts *CreatePostOptions) Result[GroupPost] {
	res := firstRow(request[[]GroupPost](ctx, g.c, http.MethodPost, "/rest/v1/group_posts", opts, nil))
	if res.OK() && res.Data != nil {
		g.c.bumpCounter(ctx, "support_groups", opts.GroupID, "post_count", 1)
	}
	return res
}

// Likes returns the user's like rows, side-loaded to compute IsLiked.
func (g *GroupsService) Likes(ctx context.Context, userID string) Result[[]PostLike] {
	q := url.Values{"user_id": {eq(userID)}}
	return request[[]PostLike](ctx, g.c, http.MethodGet, "/rest/v1/post_likes", nil, q)
}

func (g *GroupsService) LikePost(ctx context.Context, postID, userID string) Result[Ack] {
	res := exec(ctx, g.c, http.MethodPost, "/rest/v1/post_likes",
		map[string]string{"post_id": postID, "user_id": userID}, nil)
	if res.OK() {
		g.c.bumpCounter(ctx, "group_posts", postID, "like_count", 1)
	}
	return res
}

func (g *GroupsService) UnlikePost(ctx context.Context, postID, userID string) Result[Ack] {
	q := url.Values{"post_id": {eq(postID)}, "user_id": {eq(userID)}}
	res := exec(ctx, g.c, http.MethodDelete, "/rest/v1/post_likes", nil, q)
	if res.OK() {
		g.c.bumpCounter(ctx, "group_posts", postID, "like_count", -1)
	}
	return res
}

func (g *GroupsService) Challenges(ctx context.Context, groupID string) Result[[]Challenge] {
	q := url.Values{"group_id": {eq(groupID)}, "order": {"starts_at.desc"}}
	return request[[]Challenge](ctx, g.c, http.MethodGet, "/rest/v1/challenges", nil, q)
}

// Participations returns the user's challenge participation rows.
func (g *GroupsService) Participations(ctx context.Context, userID string) Result[[]ChallengeParticipation] {
	q := url.Values{"user_id": {eq(userID)}}
	return request[[]ChallengeParticipation](ctx, g.c, http.MethodGet, "/rest/v1/challenge_participants", nil, q)
}

// JoinChallenge enrolls the user. Same check-then-insert shape as Join.
func (g *GroupsService) JoinChallenge(ctx context.Context, challengeID, userID string) Result[ChallengeParticipation] {
	q := url.Values{"challenge_id": {eq(challengeID)}, "user_id": {eq(userID)}}
	existing := request[[]ChallengeParticipation](ctx, g.c, http.MethodGet, "/rest/v1/challenge_participants", nil, q)
	if !existing.OK() {
		return Result[ChallengeParticipation]{Error: existing.Error, Status: existing.Status}
	}
	if existing.Data != nil && len(*existing.Data) > 0 {
		return errResult[ChallengeParticipation]("already participating", "conflict", http.StatusBadRequest)
	}

	res := firstRow(request[[]ChallengeParticipation](ctx, g.c, http.MethodPost, "/rest/v1/challenge_participants",
		map[string]string{"challenge_id": challengeID, "user_id": userID}, nil))
	if res.OK() {
		g.c.bumpCounter(ctx, "challenges", challengeID, "participant_count", 1)
	}
	return res
}

// ============================================================================
// SupportService
// ============================================================================

// SupportService is the family/personal support gateway.
type SupportService struct{ c *Client }

func (s *SupportService) Supporters(ctx context.Context, userID string) Result[[]Supporter] {
	q := url.Values{"user_id": {eq(userID)}, "order": {"created_at.asc"}}
	return request[[]Supporter](ctx, s.c, http.MethodGet, "/rest/v1/supporters", nil, q)
}

func (s *SupportService) AddSupporter(ctx context.Context, opts *AddSupporterOptions) Result[Supporter] {
	return firstRow(request[[]Supporter](ctx, s.c, http.MethodPost, "/rest/v1/supporters", opts, nil))
}

func (s *SupportService) RemoveSupporter(ctx context.Context, id, userID string) Result[Ack] {
	q := url.Values{"id": {eq(id)}, "user_id": {eq(userID)}}
	return exec(ctx, s.c, http.MethodDelete, "/rest/v1/supporters", nil, q)
}

func (s *SupportService) Milestones(ctx context.Context, userID string) Result[[]Milestone] {
	q := url.Values{"user_id": {eq(userID)}, "order": {"created_at.desc"}}
	return request[[]Milestone](ctx, s.c, http.MethodGet, "/rest/v1/milestones", nil, q)
}

func (s *SupportService) CreateMilestone(ctx context.Context, opts *CreateMilestoneOptions) Result[Milestone] {
	return firstRow(request[[]Milestone](ctx, s.c, http.MethodPost, "/rest/v1/milestones", opts, nil))
}

func (s *SupportService) UpdateMilestone(ctx context.Context, id, userID string, patch *MilestoneUpdate) Result[Milestone] {
	q := url.Values{"id": {eq(id)}, "user_id": {eq(userID)}}
	return firstRow(request[[]Milestone](ctx, s.c, http.MethodPatch, "/rest/v1/milestones", patch, q))
}

func (s *SupportService) DeleteMilestone(ctx context.Context, id, userID string) Result[Ack] {
	q := url.Values{"id": {eq(id)}, "user_id": {eq(userID)}}
	return exec(ctx, s.c, http.MethodDelete, "/rest/v1/milestones", nil, q)
}

func (s *SupportService) Boundaries(ctx context.Context, userID string) Result[[]Boundary] {
	q := url.Values{"user_id": {eq(userID)}, "order": {"created_at.asc"}}
	return request[[]Boundary](ctx, s.c, http.MethodGet, "/rest/v1/boundaries", nil, q)
}

func (s *SupportService) CreateBoundary(ctx context.Context, opts *CreateBoundaryOptions) Result[Boundary] {
	return firstRow(request[[]Boundary](ctx, s.c, http.MethodPost, "/rest/v1/boundaries", opts, nil))
}

func (s *SupportService) UpdateBoundary(ctx context.Context, id, userID string, patch *BoundaryUpdate) Result[Boundary] {
	q := url.Values{"id": {eq(id)}, "user_id": {eq(userID)}}
	return firstRow(request[[]Boundary](ctx, s.c, http.MethodPatch, "/rest/v1/boundaries", patch, q))
}

func (s *SupportService) DeleteBoundary(ctx context.Context, id, userID string) Result[Ack] {
	q := url.Values{"id": {eq(id)}, "user_id": {eq(userID)}}
	return exec(ctx, s.c, http.MethodDelete, "/rest/v1/boundaries", nil, q)
}

// TodayCheckin returns today's stress check-in. No check-in today is the
// no-rows state (Data and Error both nil), not a failure.
func (s *SupportService) TodayCheckin(ctx context.Context, userID string) Result[StressCheckin] {
	day := s.c.now().UTC().Format("2006-01-02")
	q := url.Values{"user_id": {eq(userID)}, "day": {eq(day)}}
	return firstRow(request[[]StressCheckin](ctx, s.c, http.MethodGet, "/rest/v1/stress_checkins", nil, q))
}

// SubmitCheckin upserts today's check-in (one row per user per day).
func (s *SupportService) SubmitCheckin(ctx context.Context, opts *SubmitCheckinOptions) Result[StressCheckin] {
	body := map[string]any{
		"user_id": opts.UserID,
		"level":   opts.Level,
		"note":    opts.Note,
		"day":     s.c.now().UTC().Format("2006-01-02"),
	}
	return firstRow(request[[]StressCheckin](ctx, s.c, http.MethodPost, "/rest/v1/stress_checkins", body, nil))
}

func (s *SupportService) Stories(ctx context.Context) Result[[]SuccessStory] {
	q := url.Values{"order": {"created_at.desc"}}
	return request[[]SuccessStory](ctx, s.c, http.MethodGet, "/rest/v1/success_stories", nil, q)
}

// ============================================================================
// MessagingService
// ============================================================================

// MessagingService is the team messaging gateway. Conversation aggregation
// (unread counts, last message) happens in the two RPCs; the client never
// aggregates raw rows itself.
type MessagingService struct{ c *Client }

// Send creates a progress message. A client reference is generated when the
// caller does not supply one, so retried sends stay idempotent server-side.
func (m *MessagingService) Send(ctx context.Context, opts *SendMessageOptions) Result[ProgressMessage] {
	body := *opts
	if body.Type == "" {
		body.Type = TypeMessage
	}
	if body.ClientRef == "" {
		body.ClientRef = uuid.NewString()
	}
	return firstRow(request[[]ProgressMessage](ctx, m.c, http.MethodPost, "/rest/v1/progress_messages", &body, nil))
}

// History returns the full pre-joined conversation between two users within
// a team, chronological by creation time.
func (m *MessagingService) History(ctx context.Context, teamID, userA, userB string) Result[[]ProgressMessage] {
	return request[[]ProgressMessage](ctx, m.c, http.MethodPost, "/rest/v1/rpc/get_conversation", map[string]string{
		"p_team_id": teamID,
		"p_user_a":  userA,
		"p_user_b":  userB,
	}, nil)
}

// Conversations returns the pre-aggregated conversation list for a user.
func (m *MessagingService) Conversations(ctx context.Context, teamID, userID string) Result[[]ConversationSummary] {
	return request[[]ConversationSummary](ctx, m.c, http.MethodPost, "/rest/v1/rpc/get_conversations_list", map[string]string{
		"p_team_id": teamID,
		"p_user_id": userID,
	}, nil)
}

// MarkRead flips read state on every unread message from sender to recipient.
// Marking already-read messages is a server-side no-op.
func (m *MessagingService) MarkRead(ctx context.Context, teamID, senderID, recipientID string) Result[Ack] {
	q := url.Values{
		"team_id":      {eq(teamID)},
		"sender_id":    {eq(senderID)},
		"recipient_id": {eq(recipientID)},
		"read":         {"eq.false"},
	}
	return exec(ctx, m.c, http.MethodPatch, "/rest/v1/progress_messages", map[string]bool{"read": true}, q)
}

// Delete soft-deletes a message owned by the user.
func (m *MessagingService) Delete(ctx context.Context, messageID, userID string) Result[Ack] {
	q := url.Values{"id": {eq(messageID)}, "sender_id": {eq(userID)}}
	return exec(ctx, m.c, http.MethodPatch, "/rest/v1/progress_messages", map[string]bool{"deleted": true}, q)
}
