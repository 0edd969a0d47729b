package review

import (
	"testing"

	"github.com/bobvengers/mapmate/internal/domain/identity"
	"github.com/bobvengers/mapmate/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestCanModify(t *testing.T) {
	author := &identity.User{UserID: 7, Nickname: "writer"}
	other := &identity.User{UserID: 8, Nickname: "reader"}
	r := &Review{ReviewID: 1, AuthorID: 7, Rating: 4, Content: "good"}

	assert.True(t, CanModify(r, author))
	assert.False(t, CanModify(r, other))
	assert.False(t, CanModify(r, nil))
	assert.False(t, CanModify(nil, author))
}

func TestValidateRating(t *testing.T) {
	tests := []struct {
		rating  int
		wantErr bool
	}{
		{0, true},
		{1, false},
		{5, false},
		{6, true},
		{-1, true},
	}

	for _, tt := range tests {
		err := ValidateRating(tt.rating)
		if tt.wantErr {
			assert.Error(t, err)
			assert.Equal(t, "INVALID_RATING", shared.CodeOf(err))
		} else {
			assert.NoError(t, err)
		}
	}
}

func TestValidateContent(t *testing.T) {
	assert.NoError(t, ValidateContent("tasty"))
	assert.ErrorIs(t, ValidateContent("  \n"), shared.ErrInvalidInput)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "nick", (&Review{Nickname: "nick", Username: "user"}).DisplayName())
	assert.Equal(t, "user", (&Review{Username: "user"}).DisplayName())
}

func TestStars(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name   string
		rating *float64
		want   string
	}{
		{"nil is unrated", nil, "☆☆☆☆☆ -"},
		{"zero is unrated", f(0), "☆☆☆☆☆ -"},
		{"fraction floors stars", f(3.5), "★★★☆☆ 3.5"},
		{"rounds label", f(4.25), "★★★★☆ 4.3"},
		{"full", f(5), "★★★★★ 5.0"},
		{"clamped", f(7), "★★★★★ 5.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Stars(tt.rating).String())
		})
	}
}

func TestStarsInt(t *testing.T) {
	s := StarsInt(2)
	assert.Equal(t, 2, s.Filled)
	assert.Equal(t, 3, s.Empty)
	assert.Equal(t, "2.0", s.Text)
}
