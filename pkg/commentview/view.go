// Package commentview holds the state of a post's comment screen: the post,
// its comments, the compose box and the edit and delete dialogs.
//
// The screen moves Loading -> Loaded -> (Submitting -> Loaded)*. A failed
// load ends in Failed until Load is called again. Every successful mutation
// re-fetches the whole comment list; comments are never patched locally.
package commentview

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ManuelReschke/PixelForum/pkg/forumclient"
)

type State int

const (
	Loading State = iota
	Loaded
	Submitting
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Submitting:
		return "submitting"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Action names the user action an alert is about.
type Action string

const (
	ActionLoad   Action = "load post and comments"
	ActionCreate Action = "add comment"
	ActionEdit   Action = "update comment"
	ActionDelete Action = "delete comment"
)

var (
	// ErrEmptyContent is alerted when the content is blank after trimming.
	ErrEmptyContent = errors.New("comment must not be empty")
	// ErrBusy is returned while another submission is in flight.
	ErrBusy = errors.New("a submission is already in progress")
	// ErrNotLoaded is returned for mutations before the screen has loaded.
	ErrNotLoaded = errors.New("comments are not loaded")
	// ErrSignedOut is alerted when a mutation is attempted without a session.
	ErrSignedOut = errors.New("not signed in")
	// ErrNoSelection is returned when saving or confirming without an open dialog.
	ErrNoSelection = errors.New("no comment selected")
)

// API is the part of forumclient.Client the screen uses.
type API interface {
	GetPost(ctx context.Context, postID uint) (*forumclient.Post, error)
	ListComments(ctx context.Context, postID uint) ([]forumclient.Comment, error)
	CreateComment(ctx context.Context, postID uint, content string) (*forumclient.Comment, error)
	UpdateComment(ctx context.Context, commentID uint, content string) error
	DeleteComment(ctx context.Context, commentID uint) error
}

// Session is the signed-in user, if any.
type Session interface {
	UserID() (uint, bool)
	SignOut()
}

// Alerter shows a blocking alert for a failed action.
type Alerter interface {
	Alert(action Action, err error)
}

// Snapshot is a copy of the screen state for rendering.
type Snapshot struct {
	State    State
	Post     *forumclient.Post
	Comments []forumclient.Comment
	Draft    string

	// Editing is the comment in the edit dialog, EditContent its text.
	Editing     *forumclient.Comment
	EditContent string

	// PendingDelete is the comment awaiting delete confirmation.
	PendingDelete *forumclient.Comment
}

// View is the comment screen of one post. It is safe for concurrent use.
type View struct {
	api     API
	session Session
	alerter Alerter
	postID  uint

	mu            sync.Mutex
	state         State
	post          *forumclient.Post
	comments      []forumclient.Comment
	draft         string
	editing       *forumclient.Comment
	editContent   string
	pendingDelete *forumclient.Comment
}

func New(api API, session Session, alerter Alerter, postID uint) *View {
	return &View{
		api:     api,
		session: session,
		alerter: alerter,
		postID:  postID,
		state:   Loading,
	}
}

// Snapshot returns the current state.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := Snapshot{
		State:       v.state,
		Post:        v.post,
		Comments:    append([]forumclient.Comment(nil), v.comments...),
		Draft:       v.draft,
		EditContent: v.editContent,
	}
	if v.editing != nil {
		c := *v.editing
		s.Editing = &c
	}
	if v.pendingDelete != nil {
		c := *v.pendingDelete
		s.PendingDelete = &c
	}
	return s
}

// CanModify reports whether the edit and delete controls are shown for c.
// The server decides authoritatively.
func (v *View) CanModify(c forumclient.Comment) bool {
	if v.session == nil {
		return false
	}
	id, ok := v.session.UserID()
	return ok && id == c.UserID
}

// Load fetches the post and its comments concurrently. The screen is Loaded
// only when both succeed.
func (v *View) Load(ctx context.Context) error {
	v.mu.Lock()
	if v.state == Submitting {
		v.mu.Unlock()
		return ErrBusy
	}
	v.state = Loading
	v.mu.Unlock()

	post, comments, err := v.fetch(ctx)

	v.mu.Lock()
	if err != nil {
		v.state = Failed
	} else {
		v.post, v.comments, v.state = post, comments, Loaded
	}
	v.mu.Unlock()

	if err != nil {
		v.fail(ActionLoad, err)
	}
	return err
}

func (v *View) fetch(ctx context.Context) (*forumclient.Post, []forumclient.Comment, error) {
	var (
		post     *forumclient.Post
		comments []forumclient.Comment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		post, err = v.api.GetPost(gctx, v.postID)
		return err
	})
	g.Go(func() error {
		var err error
		comments, err = v.api.ListComments(gctx, v.postID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return post, comments, nil
}

// SetDraft updates the compose box.
func (v *View) SetDraft(content string) {
	v.mu.Lock()
	v.draft = content
	v.mu.Unlock()
}

// Submit posts the draft as a new comment.
func (v *View) Submit(ctx context.Context) error {
	v.mu.Lock()
	draft := v.draft
	v.mu.Unlock()
	if err := v.checkContent(ActionCreate, draft); err != nil {
		return err
	}

	return v.mutate(ctx, ActionCreate, func(ctx context.Context) error {
		_, err := v.api.CreateComment(ctx, v.postID, draft)
		return err
	}, func() {
		v.draft = ""
	})
}

// BeginEdit opens the edit dialog for c, prefilled with its content.
func (v *View) BeginEdit(c forumclient.Comment) bool {
	if !v.CanModify(c) {
		return false
	}
	v.mu.Lock()
	v.editing, v.editContent = &c, c.Content
	v.mu.Unlock()
	return true
}

// SetEditContent updates the text in the edit dialog.
func (v *View) SetEditContent(content string) {
	v.mu.Lock()
	v.editContent = content
	v.mu.Unlock()
}

// CancelEdit closes the edit dialog without saving.
func (v *View) CancelEdit() {
	v.mu.Lock()
	v.editing, v.editContent = nil, ""
	v.mu.Unlock()
}

// SaveEdit sends the edited content. The dialog stays open on failure.
func (v *View) SaveEdit(ctx context.Context) error {
	v.mu.Lock()
	editing, content := v.editing, v.editContent
	v.mu.Unlock()
	if editing == nil {
		return ErrNoSelection
	}
	if err := v.checkContent(ActionEdit, content); err != nil {
		return err
	}

	return v.mutate(ctx, ActionEdit, func(ctx context.Context) error {
		return v.api.UpdateComment(ctx, editing.ID, content)
	}, func() {
		v.editing, v.editContent = nil, ""
	})
}

// RequestDelete asks for confirmation before deleting c.
func (v *View) RequestDelete(c forumclient.Comment) bool {
	if !v.CanModify(c) {
		return false
	}
	v.mu.Lock()
	v.pendingDelete = &c
	v.mu.Unlock()
	return true
}

// CancelDelete dismisses the confirmation.
func (v *View) CancelDelete() {
	v.mu.Lock()
	v.pendingDelete = nil
	v.mu.Unlock()
}

// ConfirmDelete deletes the comment awaiting confirmation.
func (v *View) ConfirmDelete(ctx context.Context) error {
	v.mu.Lock()
	target := v.pendingDelete
	v.mu.Unlock()
	if target == nil {
		return ErrNoSelection
	}

	return v.mutate(ctx, ActionDelete, func(ctx context.Context) error {
		return v.api.DeleteComment(ctx, target.ID)
	}, func() {
		v.pendingDelete = nil
	})
}

// mutate runs send in the Submitting state and re-fetches the list after
// success. onSuccess runs under the lock before the re-fetch.
func (v *View) mutate(ctx context.Context, action Action, send func(context.Context) error, onSuccess func()) error {
	if v.session == nil {
		v.fail(action, ErrSignedOut)
		return ErrSignedOut
	}
	if _, ok := v.session.UserID(); !ok {
		v.fail(action, ErrSignedOut)
		return ErrSignedOut
	}

	v.mu.Lock()
	switch v.state {
	case Submitting:
		v.mu.Unlock()
		return ErrBusy
	case Loaded:
	default:
		v.mu.Unlock()
		return ErrNotLoaded
	}
	v.state = Submitting
	v.mu.Unlock()

	if err := send(ctx); err != nil {
		v.mu.Lock()
		v.state = Loaded
		v.mu.Unlock()
		v.fail(action, err)
		return err
	}

	v.mu.Lock()
	onSuccess()
	v.mu.Unlock()

	post, comments, err := v.fetch(ctx)

	v.mu.Lock()
	if err != nil {
		v.state = Failed
	} else {
		v.post, v.comments, v.state = post, comments, Loaded
	}
	v.mu.Unlock()

	if err != nil {
		v.fail(ActionLoad, err)
		return err
	}
	return nil
}

func (v *View) checkContent(action Action, content string) error {
	if strings.TrimSpace(content) == "" {
		v.fail(action, ErrEmptyContent)
		return ErrEmptyContent
	}
	return nil
}

// fail alerts the user. A rejected credential also ends the session; a 403
// for someone else's comment does not.
func (v *View) fail(action Action, err error) {
	if v.alerter != nil {
		v.alerter.Alert(action, err)
	}
	if errors.Is(err, ErrSignedOut) || forumclient.IsAuthError(err) {
		if v.session != nil {
			v.session.SignOut()
		}
	}
}
