package careerhub

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ============================================================================
// View state machine
// ============================================================================

// ViewState is the lifecycle of one tracked resource view.
//
// Absent → Loading → Ready; Ready → Loading on reload or cache miss;
// Loading → Error on failure. Stale is Ready whose cache entry has expired.
// On Error the previous Ready data is retained and still served; the failure
// is returned to the caller of the failing operation rather than stored in a
// shared error field.
type ViewState int

const (
	ViewAbsent ViewState = iota
	ViewLoading
	ViewReady
	ViewStale
	ViewError
)

func (s ViewState) String() string {
	switch s {
	case ViewLoading:
		return "loading"
	case ViewReady:
		return "ready"
	case ViewStale:
		return "stale"
	case ViewError:
		return "error"
	default:
		return "absent"
	}
}

// Cache kinds owned by the synchronization layer.
const (
	kindGroups     = "groups"
	kindGroup      = "group"
	kindPosts      = "posts"
	kindChallenges = "challenges"
	kindSupporters = "supporters"
	kindMilestones = "milestones"
	kindBoundaries = "boundaries"
	kindCheckin    = "checkin"
	kindStories    = "stories"
)

// ============================================================================
// Shared synchronization core
// ============================================================================

type viewStatus struct {
	state     ViewState
	err       *APIError
	cacheable bool
}

// syncCore carries the state shared by GroupFeed and SupportTracker: the
// owning client (and through it the one process-wide cache), per-view state,
// in-flight request collapsing, and the closed flag that guards every state
// mutation after teardown.
type syncCore struct {
	c      *Client
	userID string

	mu     sync.Mutex
	closed bool
	views  map[Key]viewStatus
	flight singleflight.Group
}

func (f *syncCore) key(kind, scope string) Key {
	return Key{Kind: kind, UserID: f.userID, ScopeID: scope}
}

// apply runs fn under the core lock unless the core is closed. A response
// arriving after Close must not mutate state; every publish path funnels
// through here.
func (f *syncCore) apply(fn func()) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	fn()
	return true
}

func (f *syncCore) setState(key Key, s ViewState, err *APIError, cacheable bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.views[key] = viewStatus{state: s, err: err, cacheable: cacheable}
}

func (f *syncCore) stateOf(key Key) ViewState {
	f.mu.Lock()
	defer f.mu.Unlock()
	vs, ok := f.views[key]
	if !ok {
		return ViewAbsent
	}
	if vs.state == ViewReady && vs.cacheable && !f.c.cache.Fresh(key) {
		return ViewStale
	}
	return vs.state
}

// Close tears the store down. In-flight responses resolving afterwards are
// returned to their callers but publish nothing.
func (f *syncCore) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func flightKey(k Key) string {
	return k.Kind + "|" + k.UserID + "|" + k.ScopeID
}

// loadView resolves one canonical view: cache hit short-circuits without a
// network call; otherwise the fetch runs once per key (concurrent callers
// are collapsed) and the result is published and cached.
func loadView[T any](ctx context.Context, f *syncCore, key Key, fetch func(context.Context) Result[T], publish func(T)) Result[T] {
	if v, ok := f.c.cache.Get(key); ok {
		if data, match := v.(T); match {
			f.apply(func() { publish(data) })
			f.setState(key, ViewReady, nil, true)
			return Result[T]{Data: &data, Status: http.StatusOK}
		}
	}

	f.setState(key, ViewLoading, nil, true)
	v, _, _ := f.flight.Do(flightKey(key), func() (any, error) {
		return fetch(ctx), nil
	})
	res := v.(Result[T])
	if !res.OK() {
		f.setState(key, ViewError, res.Error, true)
		return res
	}

	data := res.Value()
	if f.apply(func() { publish(data) }) {
		f.c.cache.Set(key, data)
		f.setState(key, ViewReady, nil, true)
	}
	return res
}

var errClosed = &APIError{Message: "store closed", Code: "closed"}

// mutateWrite runs a write with an explicit optimistic policy.
//
// optimistic=true: patch is applied before the request and rollback must
// undo it when the request fails. optimistic=false: patch is applied only
// after the gateway confirms, so no rollback ever runs.
func (f *syncCore) mutateWrite(optimistic bool, patch, rollback func(), call func() *APIError) *APIError {
	if optimistic {
		if !f.apply(patch) {
			return errClosed
		}
		if err := call(); err != nil {
			f.apply(rollback)
			return err
		}
		return nil
	}
	if err := call(); err != nil {
		return err
	}
	if !f.apply(patch) {
		return errClosed
	}
	return nil
}

// ============================================================================
// GroupFeed: peer support groups
// ============================================================================

// GroupFeed is the cached synchronization layer for one user's peer support
// groups: group list, per-group posts and challenges, and the derived
// IsMember / IsLiked / IsParticipating flags.
//
// List ordering is always server-determined; only membership, presence, and
// scalar counters are adjusted locally after writes.
type GroupFeed struct {
	syncCore
	groups     []Group
	posts      map[string][]GroupPost
	challenges map[string][]Challenge
}

// NewGroupFeed creates a group feed for userID over the client's shared cache.
func NewGroupFeed(c *Client, userID string) *GroupFeed {
	return &GroupFeed{
		syncCore:   syncCore{c: c, userID: userID, views: make(map[Key]viewStatus)},
		posts:      make(map[string][]GroupPost),
		challenges: make(map[string][]Challenge),
	}
}

// Groups loads the group list. The canonical unfiltered view is served from
// and stored to the shared cache; filtered views bypass the cache entirely
// and are returned directly without touching feed state.
func (f *GroupFeed) Groups(ctx context.Context, filter *GroupFilter) Result[[]Group] {
	if !filter.IsZero() {
		res := f.c.Groups().List(ctx, filter)
		if !res.OK() {
			return res
		}
		return f.decorateGroups(ctx, res.Value(), res.Status)
	}

	return loadView(ctx, &f.syncCore, f.key(kindGroups, ""), func(ctx context.Context) Result[[]Group] {
		res := f.c.Groups().List(ctx, nil)
		if !res.OK() {
			return res
		}
		return f.decorateGroups(ctx, res.Value(), res.Status)
	}, func(groups []Group) { f.groups = groups })
}

// Group loads a single group with its derived membership flag.
func (f *GroupFeed) Group(ctx context.Context, groupID string) Result[Group] {
	return loadView(ctx, &f.syncCore, f.key(kindGroup, groupID), func(ctx context.Context) Result[Group] {
		res := f.c.Groups().Get(ctx, groupID)
		if !res.OK() || res.Data == nil {
			return res
		}
		decorated := f.decorateGroups(ctx, []Group{*res.Data}, res.Status)
		if !decorated.OK() {
			return Result[Group]{Error: decorated.Error, Status: decorated.Status}
		}
		g := decorated.Value()[0]
		return Result[Group]{Data: &g, Status: res.Status}
	}, func(g Group) {
		for i := range f.groups {
			if f.groups[i].ID == g.ID {
				f.groups[i] = g
			}
		}
	})
}

// Posts loads a group's post feed with derived like flags.
func (f *GroupFeed) Posts(ctx context.Context, groupID string) Result[[]GroupPost] {
	return loadView(ctx, &f.syncCore, f.key(kindPosts, groupID), func(ctx context.Context) Result[[]GroupPost] {
		res := f.c.Groups().Posts(ctx, groupID)
		if !res.OK() {
			return res
		}
		likes := f.c.Groups().Likes(ctx, f.userID)
		if !likes.OK() {
			return Result[[]GroupPost]{Error: likes.Error, Status: likes.Status}
		}
		liked := make(map[string]bool, len(likes.Value()))
		for _, l := range likes.Value() {
			liked[l.PostID] = true
		}
		posts := res.Value()
		for i := range posts {
			posts[i].IsLiked = liked[posts[i].ID]
		}
		return Result[[]GroupPost]{Data: &posts, Status: res.Status}
	}, func(posts []GroupPost) { f.posts[groupID] = posts })
}

// Challenges loads a group's challenges with derived participation flags.
func (f *GroupFeed) Challenges(ctx context.Context, groupID string) Result[[]Challenge] {
	return loadView(ctx, &f.syncCore, f.key(kindChallenges, groupID), func(ctx context.Context) Result[[]Challenge] {
		res := f.c.Groups().Challenges(ctx, groupID)
		if !res.OK() {
			return res
		}
		parts := f.c.Groups().Participations(ctx, f.userID)
		if !parts.OK() {
			return Result[[]Challenge]{Error: parts.Error, Status: parts.Status}
		}
		joined := make(map[string]bool, len(parts.Value()))
		for _, p := range parts.Value() {
			joined[p.ChallengeID] = true
		}
		challenges := res.Value()
		for i := range challenges {
			challenges[i].IsParticipating = joined[challenges[i].ID]
		}
		return Result[[]Challenge]{Data: &challenges, Status: res.Status}
	}, func(cs []Challenge) { f.challenges[groupID] = cs })
}

// decorateGroups recomputes IsMember by joining the rows against the user's
// side-loaded membership list. Derived fields are never persisted and must be
// recomputed on every fetch.
func (f *GroupFeed) decorateGroups(ctx context.Context, groups []Group, status int) Result[[]Group] {
	ms := f.c.Groups().Memberships(ctx, f.userID)
	if !ms.OK() {
		return Result[[]Group]{Error: ms.Error, Status: ms.Status}
	}
	member := make(map[string]bool, len(ms.Value()))
	for _, m := range ms.Value() {
		member[m.GroupID] = true
	}
	for i := range groups {
		groups[i].IsMember = member[groups[i].ID]
	}
	return Result[[]Group]{Data: &groups, Status: status}
}

// CreateGroup creates a group and patches it into the local list after the
// gateway confirms.
func (f *GroupFeed) CreateGroup(ctx context.Context, name, description, category string) Result[Group] {
	res := f.c.Groups().Create(ctx, &CreateGroupOptions{
		Name:        name,
		Description: description,
		Category:    category,
		CreatedBy:   f.userID,
	})
	if res.OK() && res.Data != nil {
		g := *res.Data
		g.IsMember = true
		f.apply(func() { f.groups = append([]Group{g}, f.groups...) })
		f.c.cache.Invalidate(f.key(kindGroups, ""))
	}
	return res
}

// Join adds the user to a group. The member counter and IsMember flag are
// patched before the request is acknowledged and reverted on failure; a
// subsequent canonical refetch restores server truth either way.
func (f *GroupFeed) Join(ctx context.Context, groupID string) *APIError {
	return f.mutateWrite(true,
		func() { f.patchGroupLocked(groupID, 1, true) },
		func() { f.patchGroupLocked(groupID, -1, false) },
		func() *APIError {
			res := f.c.Groups().Join(ctx, groupID, f.userID)
			if !res.OK() {
				return res.Error
			}
			f.invalidateGroup(groupID)
			return nil
		})
}

// Leave removes the user from a group; same optimistic counter policy as Join.
func (f *GroupFeed) Leave(ctx context.Context, groupID string) *APIError {
	return f.mutateWrite(true,
		func() { f.patchGroupLocked(groupID, -1, false) },
		func() { f.patchGroupLocked(groupID, 1, true) },
		func() *APIError {
			res := f.c.Groups().Leave(ctx, groupID, f.userID)
			if !res.OK() {
				return res.Error
			}
			f.invalidateGroup(groupID)
			return nil
		})
}

// CreatePost creates a post and prepends it locally after success.
func (f *GroupFeed) CreatePost(ctx context.Context, groupID, content string) Result[GroupPost] {
	res := f.c.Groups().CreatePost(ctx, &CreatePostOptions{
		GroupID:  groupID,
		AuthorID: f.userID,
		Content:  content,
	})
	if res.OK() && res.Data != nil {
		post := *res.Data
		f.apply(func() {
			f.posts[groupID] = append([]GroupPost{post}, f.posts[groupID]...)
			for i := range f.groups {
				if f.groups[i].ID == groupID {
					f.groups[i].PostCount++
				}
			}
		})
		f.c.cache.Invalidate(f.key(kindPosts, groupID))
		f.invalidateGroup(groupID)
	}
	return res
}

// ToggleLike flips the user's like on a post. The like counter and flag are
// patched before the request and reverted if it fails.
func (f *GroupFeed) ToggleLike(ctx context.Context, groupID, postID string) *APIError {
	liked := false
	f.mu.Lock()
	for _, p := range f.posts[groupID] {
		if p.ID == postID {
			liked = p.IsLiked
		}
	}
	f.mu.Unlock()

	delta := 1
	if liked {
		delta = -1
	}
	return f.mutateWrite(true,
		func() { f.patchPostLocked(groupID, postID, delta, !liked) },
		func() { f.patchPostLocked(groupID, postID, -delta, liked) },
		func() *APIError {
			var res Result[Ack]
			if liked {
				res = f.c.Groups().UnlikePost(ctx, postID, f.userID)
			} else {
				res = f.c.Groups().LikePost(ctx, postID, f.userID)
			}
			if !res.OK() {
				return res.Error
			}
			f.c.cache.Invalidate(f.key(kindPosts, groupID))
			return nil
		})
}

// JoinChallenge enrolls the user; optimistic counter policy.
func (f *GroupFeed) JoinChallenge(ctx context.Context, groupID, challengeID string) *APIError {
	return f.mutateWrite(true,
		func() { f.patchChallengeLocked(groupID, challengeID, 1, true) },
		func() { f.patchChallengeLocked(groupID, challengeID, -1, false) },
		func() *APIError {
			res := f.c.Groups().JoinChallenge(ctx, challengeID, f.userID)
			if !res.OK() {
				return res.Error
			}
			f.c.cache.Invalidate(f.key(kindChallenges, groupID))
			return nil
		})
}

// Refresh clears every cache entry owned by this feed and re-runs all base
// loads in parallel. The first failure is returned.
func (f *GroupFeed) Refresh(ctx context.Context) *APIError {
	f.mu.Lock()
	postScopes := make([]string, 0, len(f.posts))
	for scope := range f.posts {
		postScopes = append(postScopes, scope)
	}
	challengeScopes := make([]string, 0, len(f.challenges))
	for scope := range f.challenges {
		challengeScopes = append(challengeScopes, scope)
	}
	var groupScopes []string
	for k := range f.views {
		if k.Kind == kindGroup {
			groupScopes = append(groupScopes, k.ScopeID)
		}
	}
	f.mu.Unlock()

	f.c.cache.Invalidate(f.key(kindGroups, ""))
	for _, scope := range groupScopes {
		f.c.cache.Invalidate(f.key(kindGroup, scope))
	}
	for _, scope := range postScopes {
		f.c.cache.Invalidate(f.key(kindPosts, scope))
	}
	for _, scope := range challengeScopes {
		f.c.cache.Invalidate(f.key(kindChallenges, scope))
	}

	errs := make(chan *APIError, 1+len(postScopes)+len(challengeScopes))
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs <- f.Groups(ctx, nil).Error
	}()
	for _, scope := range postScopes {
		scope := scope
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.Posts(ctx, scope).Error
		}()
	}
	for _, scope := range challengeScopes {
		scope := scope
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.Challenges(ctx, scope).Error
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// GroupsState reports the state of the canonical group list view.
func (f *GroupFeed) GroupsState() ViewState {
	return f.stateOf(f.key(kindGroups, ""))
}

// PostsState reports the state of one group's post view.
func (f *GroupFeed) PostsState(groupID string) ViewState {
	return f.stateOf(f.key(kindPosts, groupID))
}

// CurrentGroups returns the last published group list.
func (f *GroupFeed) CurrentGroups() []Group {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Group(nil), f.groups...)
}

// CurrentPosts returns the last published post list for a group.
func (f *GroupFeed) CurrentPosts(groupID string) []GroupPost {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]GroupPost(nil), f.posts[groupID]...)
}

// CurrentChallenges returns the last published challenge list for a group.
func (f *GroupFeed) CurrentChallenges(groupID string) []Challenge {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Challenge(nil), f.challenges[groupID]...)
}

func (f *GroupFeed) patchGroupLocked(groupID string, delta int, member bool) {
	for i := range f.groups {
		if f.groups[i].ID == groupID {
			f.groups[i].MemberCount += delta
			f.groups[i].IsMember = member
		}
	}
}

func (f *GroupFeed) patchPostLocked(groupID, postID string, delta int, liked bool) {
	posts := f.posts[groupID]
	for i := range posts {
		if posts[i].ID == postID {
			posts[i].LikeCount += delta
			posts[i].IsLiked = liked
		}
	}
}

func (f *GroupFeed) patchChallengeLocked(groupID, challengeID string, delta int, joined bool) {
	cs := f.challenges[groupID]
	for i := range cs {
		if cs[i].ID == challengeID {
			cs[i].ParticipantCount += delta
			cs[i].IsParticipating = joined
		}
	}
}

func (f *GroupFeed) invalidateGroup(groupID string) {
	f.c.cache.Invalidate(f.key(kindGroups, ""))
	f.c.cache.Invalidate(f.key(kindGroup, groupID))
}

// ============================================================================
// SupportTracker: family / personal support
// ============================================================================

// SupportTracker is the cached synchronization layer for one user's personal
// support data: supporters, milestones, boundaries, stress check-ins, and
// success stories.
type SupportTracker struct {
	syncCore
	supporters []Supporter
	milestones []Milestone
	boundaries []Boundary
	checkin    *StressCheckin
	stories    []SuccessStory
}

// NewSupportTracker creates a tracker for userID over the client's shared cache.
func NewSupportTracker(c *Client, userID string) *SupportTracker {
	return &SupportTracker{
		syncCore: syncCore{c: c, userID: userID, views: make(map[Key]viewStatus)},
	}
}

func (t *SupportTracker) Supporters(ctx context.Context) Result[[]Supporter] {
	return loadView(ctx, &t.syncCore, t.key(kindSupporters, ""), func(ctx context.Context) Result[[]Supporter] {
		return t.c.Support().Supporters(ctx, t.userID)
	}, func(rows []Supporter) { t.supporters = rows })
}

func (t *SupportTracker) Milestones(ctx context.Context) Result[[]Milestone] {
	return loadView(ctx, &t.syncCore, t.key(kindMilestones, ""), func(ctx context.Context) Result[[]Milestone] {
		return t.c.Support().Milestones(ctx, t.userID)
	}, func(rows []Milestone) { t.milestones = rows })
}

func (t *SupportTracker) Boundaries(ctx context.Context) Result[[]Boundary] {
	return loadView(ctx, &t.syncCore, t.key(kindBoundaries, ""), func(ctx context.Context) Result[[]Boundary] {
		return t.c.Support().Boundaries(ctx, t.userID)
	}, func(rows []Boundary) { t.boundaries = rows })
}

func (t *SupportTracker) Stories(ctx context.Context) Result[[]SuccessStory] {
	return loadView(ctx, &t.syncCore, t.key(kindStories, ""), func(ctx context.Context) Result[[]SuccessStory] {
		return t.c.Support().Stories(ctx)
	}, func(rows []SuccessStory) { t.stories = rows })
}

// TodayCheckin loads today's stress check-in. "No check-in today" is a valid
// cached value, not an error; callers get a nil pointer inside an OK result.
func (t *SupportTracker) TodayCheckin(ctx context.Context) Result[*StressCheckin] {
	return loadView(ctx, &t.syncCore, t.key(kindCheckin, ""), func(ctx context.Context) Result[*StressCheckin] {
		res := t.c.Support().TodayCheckin(ctx, t.userID)
		if !res.OK() {
			return Result[*StressCheckin]{Error: res.Error, Status: res.Status}
		}
		ptr := res.Data
		return Result[*StressCheckin]{Data: &ptr, Status: res.Status}
	}, func(c *StressCheckin) { t.checkin = c })
}

func (t *SupportTracker) AddSupporter(ctx context.Context, name, relation string) Result[Supporter] {
	res := t.c.Support().AddSupporter(ctx, &AddSupporterOptions{
		UserID:   t.userID,
		Name:     name,
		Relation: relation,
	})
	if res.OK() && res.Data != nil {
		row := *res.Data
		t.apply(func() { t.supporters = append(t.supporters, row) })
		t.c.cache.Invalidate(t.key(kindSupporters, ""))
	}
	return res
}

func (t *SupportTracker) RemoveSupporter(ctx context.Context, id string) *APIError {
	return t.mutateWrite(false,
		func() {
			kept := t.supporters[:0]
			for _, s := range t.supporters {
				if s.ID != id {
					kept = append(kept, s)
				}
			}
			t.supporters = kept
			t.c.cache.Invalidate(t.key(kindSupporters, ""))
		},
		nil,
		func() *APIError {
			return t.c.Support().RemoveSupporter(ctx, id, t.userID).Error
		})
}

func (t *SupportTracker) CreateMilestone(ctx context.Context, title, notes string, target *time.Time) Result[Milestone] {
	res := t.c.Support().CreateMilestone(ctx, &CreateMilestoneOptions{
		UserID:     t.userID,
		Title:      title,
		Notes:      notes,
		TargetDate: target,
	})
	if res.OK() && res.Data != nil {
		row := *res.Data
		t.apply(func() { t.milestones = append([]Milestone{row}, t.milestones...) })
		t.c.cache.Invalidate(t.key(kindMilestones, ""))
	}
	return res
}

func (t *SupportTracker) UpdateMilestone(ctx context.Context, id string, patch *MilestoneUpdate) Result[Milestone] {
	res := t.c.Support().UpdateMilestone(ctx, id, t.userID, patch)
	if res.OK() && res.Data != nil {
		row := *res.Data
		t.apply(func() {
			for i := range t.milestones {
				if t.milestones[i].ID == id {
					t.milestones[i] = row
				}
			}
		})
		t.c.cache.Invalidate(t.key(kindMilestones, ""))
	}
	return res
}

// CompleteMilestone marks a milestone done with a completion timestamp.
func (t *SupportTracker) CompleteMilestone(ctx context.Context, id string) Result[Milestone] {
	done := true
	at := t.c.now().UTC()
	return t.UpdateMilestone(ctx, id, &MilestoneUpdate{Completed: &done, CompletedAt: &at})
}

func (t *SupportTracker) DeleteMilestone(ctx context.Context, id string) *APIError {
	return t.mutateWrite(false,
		func() {
			kept := t.milestones[:0]
			for _, m := range t.milestones {
				if m.ID != id {
					kept = append(kept, m)
				}
			}
			t.milestones = kept
			t.c.cache.Invalidate(t.key(kindMilestones, ""))
		},
		nil,
		func() *APIError {
			return t.c.Support().DeleteMilestone(ctx, id, t.userID).Error
		})
}

func (t *SupportTracker) CreateBoundary(ctx context.Context, description, category string) Result[Boundary] {
	res := t.c.Support().CreateBoundary(ctx, &CreateBoundaryOptions{
		UserID:      t.userID,
		Description: description,
		Category:    category,
	})
	if res.OK() && res.Data != nil {
		row := *res.Data
		t.apply(func() { t.boundaries = append(t.boundaries, row) })
		t.c.cache.Invalidate(t.key(kindBoundaries, ""))
	}
	return res
}

func (t *SupportTracker) UpdateBoundary(ctx context.Context, id string, patch *BoundaryUpdate) Result[Boundary] {
	res := t.c.Support().UpdateBoundary(ctx, id, t.userID, patch)
	if res.OK() && res.Data != nil {
		row := *res.Data
		t.apply(func() {
			for i := range t.boundaries {
				if t.boundaries[i].ID == id {
					t.boundaries[i] = row
				}
			}
		})
		t.c.cache.Invalidate(t.key(kindBoundaries, ""))
	}
	return res
}

func (t *SupportTracker) DeleteBoundary(ctx context.Context, id string) *APIError {
	return t.mutateWrite(false,
		func() {
			kept := t.boundaries[:0]
			for _, b := range t.boundaries {
				if b.ID != id {
					kept = append(kept, b)
				}
			}
			t.boundaries = kept
			t.c.cache.Invalidate(t.key(kindBoundaries, ""))
		},
		nil,
		func() *APIError {
			return t.c.Support().DeleteBoundary(ctx, id, t.userID).Error
		})
}

// SubmitCheckin records today's stress level and replaces the cached view.
func (t *SupportTracker) SubmitCheckin(ctx context.Context, level int, note string) Result[StressCheckin] {
	res := t.c.Support().SubmitCheckin(ctx, &SubmitCheckinOptions{
		UserID: t.userID,
		Level:  level,
		Note:   note,
	})
	if res.OK() && res.Data != nil {
		row := *res.Data
		t.apply(func() { t.checkin = &row })
		t.c.cache.Invalidate(t.key(kindCheckin, ""))
	}
	return res
}

// Refresh clears every cache entry owned by this tracker and re-runs all
// base loads in parallel. The first failure is returned.
func (t *SupportTracker) Refresh(ctx context.Context) *APIError {
	for _, kind := range []string{kindSupporters, kindMilestones, kindBoundaries, kindCheckin, kindStories} {
		t.c.cache.Invalidate(t.key(kind, ""))
	}

	loads := []func() *APIError{
		func() *APIError { return t.Supporters(ctx).Error },
		func() *APIError { return t.Milestones(ctx).Error },
		func() *APIError { return t.Boundaries(ctx).Error },
		func() *APIError { return t.TodayCheckin(ctx).Error },
		func() *APIError { return t.Stories(ctx).Error },
	}
	errs := make(chan *APIError, len(loads))
	var wg sync.WaitGroup
	for _, load := range loads {
		load := load
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- load()
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// CurrentMilestones returns the last published milestone list.
func (t *SupportTracker) CurrentMilestones() []Milestone {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Milestone(nil), t.milestones...)
}

// CurrentSupporters returns the last published supporter list.
func (t *SupportTracker) CurrentSupporters() []Supporter {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Supporter(nil), t.supporters...)
}

// CurrentBoundaries returns the last published boundary list.
func (t *SupportTracker) CurrentBoundaries() []Boundary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Boundary(nil), t.boundaries...)
}

// CurrentCheckin returns the last published check-in, nil when none today.
func (t *SupportTracker) CurrentCheckin() *StressCheckin {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.checkin
}
