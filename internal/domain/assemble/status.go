package assemble

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PostStatus represents the recruiting state of an assemble post
type PostStatus string

const (
	PostStatusRecruiting PostStatus = "모집중"
	PostStatusClosed     PostStatus = "모집마감"
)

// IsValid checks if the status is a valid PostStatus
func (s PostStatus) IsValid() bool {
	switch s {
	case PostStatusRecruiting, PostStatusClosed:
		return true
	}
	return false
}

// String returns the wire value
func (s PostStatus) String() string {
	return string(s)
}

// Label returns the English name of the status
func (s PostStatus) Label() string {
	switch s {
	case PostStatusRecruiting:
		return "Recruiting"
	case PostStatusClosed:
		return "Closed"
	}
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// Closing is one-way; there is no reopen.
func (s PostStatus) CanTransitionTo(target PostStatus) bool {
	switch s {
	case PostStatusRecruiting:
		return target == PostStatusClosed
	case PostStatusClosed:
		return false
	}
	return false
}

// ParsePostStatus accepts either the wire value or the English label
func ParsePostStatus(v string) (PostStatus, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case string(PostStatusRecruiting), "recruiting":
		return PostStatusRecruiting, nil
	case string(PostStatusClosed), "closed":
		return PostStatusClosed, nil
	}
	return "", fmt.Errorf("unknown post status %q", v)
}

// UnmarshalJSON normalises English labels to wire values. Unknown values are
// kept verbatim so the client still displays whatever the server sent.
func (s *PostStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if parsed, err := ParsePostStatus(raw); err == nil {
		*s = parsed
		return nil
	}
	*s = PostStatus(raw)
	return nil
}

// ApplicationStatus represents the state of a matching application
type ApplicationStatus string

const (
	ApplicationStatusRequested ApplicationStatus = "요청됨"
	ApplicationStatusAccepted  ApplicationStatus = "수락됨"
	ApplicationStatusRejected  ApplicationStatus = "거절됨"
)

// IsValid checks if the status is a valid ApplicationStatus
func (s ApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationStatusRequested, ApplicationStatusAccepted, ApplicationStatusRejected:
		return true
	}
	return false
}

// String returns the wire value
func (s ApplicationStatus) String() string {
	return string(s)
}

// Label returns the English name of the status
func (s ApplicationStatus) Label() string {
	switch s {
	case ApplicationStatusRequested:
		return "Requested"
	case ApplicationStatusAccepted:
		return "Accepted"
	case ApplicationStatusRejected:
		return "Rejected"
	}
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// The host decides once; both outcomes are terminal.
func (s ApplicationStatus) CanTransitionTo(target ApplicationStatus) bool {
	switch s {
	case ApplicationStatusRequested:
		return target == ApplicationStatusAccepted || target == ApplicationStatusRejected
	case ApplicationStatusAccepted, ApplicationStatusRejected:
		return false
	}
	return false
}

// IsTerminal returns true once the host has decided
func (s ApplicationStatus) IsTerminal() bool {
	return s == ApplicationStatusAccepted || s == ApplicationStatusRejected
}

// IsDeletable returns true unless the application was accepted
func (s ApplicationStatus) IsDeletable() bool {
	return s != ApplicationStatusAccepted
}

// ParseApplicationStatus accepts either the wire value or the English label
func ParseApplicationStatus(v string) (ApplicationStatus, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case string(ApplicationStatusRequested), "requested":
		return ApplicationStatusRequested, nil
	case string(ApplicationStatusAccepted), "accepted":
		return ApplicationStatusAccepted, nil
	case string(ApplicationStatusRejected), "rejected":
		return ApplicationStatusRejected, nil
	}
	return "", fmt.Errorf("unknown application status %q", v)
}

// UnmarshalJSON normalises English labels to wire values
func (s *ApplicationStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if parsed, err := ParseApplicationStatus(raw); err == nil {
		*s = parsed
		return nil
	}
	*s = ApplicationStatus(raw)
	return nil
}
