package careerhub

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ============================================================================
// Inbox: team messaging reconciliation
// ============================================================================

const (
	// DefaultConversationPoll is the open-conversation history poll cadence.
	DefaultConversationPoll = 5 * time.Second
	// DefaultListPoll is the conversation list poll cadence.
	DefaultListPoll = 15 * time.Second
)

// InboxOptions tunes the Inbox polling cadence and optional push transport.
type InboxOptions struct {
	PollInterval     time.Duration
	ListPollInterval time.Duration

	// Realtime, when set, feeds pushed messages into the same reconciliation
	// path the pollers use. The inbox never relies on push for correctness.
	Realtime *RealtimeClient
}

// Inbox reconciles one user's team messaging state from three sources: the
// conversation list poll, the open-conversation history poll, and optional
// realtime push. All three funnel through a single id-keyed merge, so a
// message arriving on several paths lands exactly once and the visible
// thread stays in chronological order.
//
// At most one conversation is open at a time. Opening a conversation marks
// its unread messages read; the server treats re-marking as a no-op, so
// overlapping mark-read calls are harmless.
type Inbox struct {
	c      *Client
	teamID string
	userID string

	pollInterval time.Duration
	listInterval time.Duration
	rt           *RealtimeClient

	mu            sync.Mutex
	closed        bool
	started       bool
	conversations []ConversationSummary
	unread        map[string]int
	open          string
	messages      []ProgressMessage
	seen          map[string]bool
	counted       map[string]bool

	cancelList context.CancelFunc
	cancelConv context.CancelFunc
	wg         sync.WaitGroup
}

// NewInbox creates an inbox for userID within teamID. Pass nil options for
// defaults.
func NewInbox(c *Client, teamID, userID string, opts *InboxOptions) *Inbox {
	in := &Inbox{
		c:            c,
		teamID:       teamID,
		userID:       userID,
		pollInterval: DefaultConversationPoll,
		listInterval: DefaultListPoll,
		unread:       make(map[string]int),
		seen:         make(map[string]bool),
		counted:      make(map[string]bool),
	}
	if opts != nil {
		if opts.PollInterval > 0 {
			in.pollInterval = opts.PollInterval
		}
		if opts.ListPollInterval > 0 {
			in.listInterval = opts.ListPollInterval
		}
		in.rt = opts.Realtime
	}
	return in
}

var errAlreadyStarted = &APIError{Message: "inbox already started", Code: "already_started"}

// Start loads the conversation list, wires the push transport if present,
// and begins the background list poll. Start is not idempotent; call once.
func (in *Inbox) Start(ctx context.Context) *APIError {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return errClosed
	}
	if in.started {
		in.mu.Unlock()
		return errAlreadyStarted
	}
	in.started = true
	in.mu.Unlock()

	if err := in.refreshList(ctx); err != nil {
		return err
	}

	if in.rt != nil {
		in.rt.OnMessage(func(msg ProgressMessage) {
			in.Deliver(msg)
		})
		if err := in.rt.Subscribe(ctx, in.teamID); err != nil {
			// Push is best effort; polling covers delivery.
			in.c.logger.Warn("realtime subscribe failed",
				zap.String("team_id", in.teamID),
				zap.Error(err))
		}
	}

	listCtx, cancel := context.WithCancel(ctx)
	in.mu.Lock()
	in.cancelList = cancel
	in.mu.Unlock()

	in.wg.Add(1)
	go in.listLoop(listCtx)
	return nil
}

// Open switches the active conversation to partnerID: fetches full history,
// marks the partner's messages read, and begins the per-conversation poll.
// Any previously open conversation is closed first.
func (in *Inbox) Open(ctx context.Context, partnerID string) Result[[]ProgressMessage] {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return Result[[]ProgressMessage]{Error: errClosed}
	}
	if in.cancelConv != nil {
		in.cancelConv()
		in.cancelConv = nil
	}
	in.open = partnerID
	in.messages = nil
	in.seen = make(map[string]bool)
	in.mu.Unlock()

	res := in.c.Messaging().History(ctx, in.teamID, in.userID, partnerID)
	if !res.OK() {
		return res
	}

	in.mu.Lock()
	if in.closed || in.open != partnerID {
		in.mu.Unlock()
		return res
	}
	in.mergeLocked(res.Value())
	in.unread[partnerID] = 0
	snapshot := append([]ProgressMessage(nil), in.messages...)
	in.mu.Unlock()

	if mr := in.c.Messaging().MarkRead(ctx, in.teamID, partnerID, in.userID); !mr.OK() {
		in.c.logger.Warn("mark read failed",
			zap.String("partner_id", partnerID),
			zap.Error(mr.Error))
	}

	convCtx, cancel := context.WithCancel(ctx)
	in.mu.Lock()
	if in.closed || in.open != partnerID {
		in.mu.Unlock()
		cancel()
		return Result[[]ProgressMessage]{Data: &snapshot, Status: res.Status}
	}
	in.cancelConv = cancel
	in.mu.Unlock()

	in.wg.Add(1)
	go in.convLoop(convCtx, partnerID)

	return Result[[]ProgressMessage]{Data: &snapshot, Status: res.Status}
}

// CloseConversation stops the per-conversation poll and clears the thread.
func (in *Inbox) CloseConversation() {
	in.mu.Lock()
	if in.cancelConv != nil {
		in.cancelConv()
		in.cancelConv = nil
	}
	in.open = ""
	in.messages = nil
	in.seen = make(map[string]bool)
	in.mu.Unlock()
}

// Close tears the inbox down and waits for both poll loops to exit. No state
// mutation happens after Close returns; late responses are discarded.
func (in *Inbox) Close() {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return
	}
	in.closed = true
	if in.cancelList != nil {
		in.cancelList()
		in.cancelList = nil
	}
	if in.cancelConv != nil {
		in.cancelConv()
		in.cancelConv = nil
	}
	in.mu.Unlock()
	in.wg.Wait()
}

// Send sends content to the open conversation partner and merges the created
// row into the thread.
func (in *Inbox) Send(ctx context.Context, content string, msgType MessageType) Result[ProgressMessage] {
	in.mu.Lock()
	partner := in.open
	closed := in.closed
	in.mu.Unlock()
	if closed {
		return Result[ProgressMessage]{Error: errClosed}
	}
	if partner == "" {
		return errResult[ProgressMessage]("no open conversation", "no_conversation", 0)
	}

	res := in.c.Messaging().Send(ctx, &SendMessageOptions{
		TeamID:      in.teamID,
		SenderID:    in.userID,
		RecipientID: partner,
		Content:     content,
		Type:        msgType,
	})
	if res.OK() && res.Data != nil {
		msg := *res.Data
		in.mu.Lock()
		if !in.closed && in.open == partner {
			in.mergeLocked([]ProgressMessage{msg})
		}
		in.mu.Unlock()
	}
	return res
}

// Deliver is the single entry point for externally observed messages
// (realtime push, webhook relays). Messages for other teams are dropped;
// messages for the open conversation are merged and marked read; messages
// for closed conversations bump that partner's unread counter once per id.
func (in *Inbox) Deliver(msgs ...ProgressMessage) {
	var markRead []string

	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return
	}
	for _, msg := range msgs {
		if msg.TeamID != in.teamID || msg.Deleted {
			continue
		}
		partner := in.partnerOf(msg)
		if partner == "" {
			continue
		}
		if in.open != "" && partner == in.open {
			if in.mergeLocked([]ProgressMessage{msg}) > 0 &&
				msg.RecipientID == in.userID && !msg.Read {
				markRead = append(markRead, partner)
			}
			continue
		}
		if msg.RecipientID == in.userID && !msg.Read && !in.counted[msg.ID] {
			in.counted[msg.ID] = true
			in.unread[partner]++
		}
	}
	in.mu.Unlock()

	for _, partner := range markRead {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
		if mr := in.c.Messaging().MarkRead(ctx, in.teamID, partner, in.userID); !mr.OK() {
			in.c.logger.Warn("mark read failed",
				zap.String("partner_id", partner),
				zap.Error(mr.Error))
		}
		cancel()
	}
}

// Messages returns the open conversation thread in chronological order.
func (in *Inbox) Messages() []ProgressMessage {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]ProgressMessage(nil), in.messages...)
}

// Conversations returns the last fetched conversation list.
func (in *Inbox) Conversations() []ConversationSummary {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]ConversationSummary(nil), in.conversations...)
}

// Unread returns the unread counter for one partner.
func (in *Inbox) Unread(partnerID string) int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.unread[partnerID]
}

// TotalUnread is always the sum of the per-partner counters; the two views
// cannot disagree because there is no separately maintained global counter.
func (in *Inbox) TotalUnread() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	total := 0
	for _, n := range in.unread {
		total += n
	}
	return total
}

// OpenPartner returns the open conversation partner id, empty when none.
func (in *Inbox) OpenPartner() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.open
}

// ============================================================================
// Internals
// ============================================================================

func (in *Inbox) partnerOf(msg ProgressMessage) string {
	switch in.userID {
	case msg.SenderID:
		return msg.RecipientID
	case msg.RecipientID:
		return msg.SenderID
	}
	return ""
}

// mergeLocked folds rows into the open thread, skipping ids already present
// and re-sorting chronologically (ties broken by id so order is stable
// across merge interleavings). Returns the number of rows actually added.
func (in *Inbox) mergeLocked(msgs []ProgressMessage) int {
	added := 0
	for _, msg := range msgs {
		if msg.Deleted || in.seen[msg.ID] {
			continue
		}
		in.seen[msg.ID] = true
		in.counted[msg.ID] = true
		in.messages = append(in.messages, msg)
		added++
	}
	if added > 0 {
		sort.SliceStable(in.messages, func(i, j int) bool {
			a, b := in.messages[i], in.messages[j]
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.ID < b.ID
		})
	}
	return added
}

// refreshList pulls the aggregated conversation list and rebuilds the unread
// counters from it. The open conversation is clamped to zero because a local
// mark-read may not be visible in the aggregate yet.
func (in *Inbox) refreshList(ctx context.Context) *APIError {
	res := in.c.Messaging().Conversations(ctx, in.teamID, in.userID)
	if !res.OK() {
		return res.Error
	}
	rows := res.Value()

	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return nil
	}
	in.conversations = rows
	unread := make(map[string]int, len(rows))
	for _, row := range rows {
		unread[row.PartnerID] = row.UnreadCount
	}
	if in.open != "" {
		unread[in.open] = 0
	}
	in.unread = unread
	return nil
}

func (in *Inbox) listLoop(ctx context.Context) {
	defer in.wg.Done()
	ticker := time.NewTicker(in.listInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := in.refreshList(ctx); err != nil {
				in.c.logger.Warn("conversation list poll failed", zap.Error(err))
			}
		}
	}
}

func (in *Inbox) convLoop(ctx context.Context, partnerID string) {
	defer in.wg.Done()
	ticker := time.NewTicker(in.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res := in.c.Messaging().History(ctx, in.teamID, in.userID, partnerID)
			if !res.OK() {
				in.c.logger.Warn("conversation poll failed",
					zap.String("partner_id", partnerID),
					zap.Error(res.Error))
				continue
			}
			in.mu.Lock()
			if !in.closed && in.open == partnerID {
				in.mergeLocked(res.Value())
			}
			in.mu.Unlock()
		}
	}
}
