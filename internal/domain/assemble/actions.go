package assemble

import (
	"sort"

	"github.com/bobvengers/mapmate/internal/domain/identity"
)

// Action is a user-facing control the client may offer
type Action string

const (
	ActionApply             Action = "apply"
	ActionClosePost         Action = "close"
	ActionDeletePost        Action = "delete"
	ActionAccept            Action = "accept"
	ActionReject            Action = "reject"
	ActionCancelApplication Action = "cancel"
	ActionComment           Action = "comment"
)

// ActionSet is an unordered set of actions
type ActionSet map[Action]struct{}

// Has reports whether a is in the set
func (s ActionSet) Has(a Action) bool {
	_, ok := s[a]
	return ok
}

// List returns the actions in a stable order
func (s ActionSet) List() []Action {
	out := make([]Action, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s ActionSet) add(actions ...Action) {
	for _, a := range actions {
		s[a] = struct{}{}
	}
}

// AllowedActions decides which controls to enable for user on post and/or
// application. Either of post or application may be nil. The result gates UI
// controls only; the server remains the authority and may still reject.
//
// Any authenticated user may comment while the post is Recruiting or Closed.
// The server still limits comments to the host and accepted participants.
func AllowedActions(post *Post, application *Application, user *identity.User) ActionSet {
	set := ActionSet{}
	if user == nil {
		return set
	}

	if post != nil {
		host := post.IsHostedBy(user)
		switch post.Status {
		case PostStatusRecruiting:
			if host {
				set.add(ActionClosePost, ActionDeletePost)
			} else {
				set.add(ActionApply)
			}
			set.add(ActionComment)
		case PostStatusClosed:
			if host {
				set.add(ActionDeletePost)
			}
			set.add(ActionComment)
		}
	}

	if application != nil {
		if application.IsHost(user) && application.Status == ApplicationStatusRequested {
			set.add(ActionAccept, ActionReject)
		}
		if application.IsParty(user) && application.Status.IsDeletable() {
			set.add(ActionCancelApplication)
		}
	}

	return set
}

// CanComment reports whether the comment form should be enabled
func CanComment(post *Post, user *identity.User) bool {
	return AllowedActions(post, nil, user).Has(ActionComment)
}
