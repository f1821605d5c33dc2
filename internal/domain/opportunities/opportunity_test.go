package opportunities

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/InternHub-KE/client/internal/validation"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusApproved, StatusActive, true},
		{StatusApproved, StatusClosed, true},
		{StatusActive, StatusClosed, true},

		// no edge re-enters pending
		{StatusApproved, StatusPending, false},
		{StatusRejected, StatusPending, false},
		{StatusActive, StatusPending, false},

		// terminal states have no outgoing edges
		{StatusRejected, StatusApproved, false},
		{StatusRejected, StatusActive, false},
		{StatusClosed, StatusActive, false},
		{StatusClosed, StatusApproved, false},

		// skipping review is not a legal edge
		{StatusPending, StatusActive, false},
		{StatusPending, StatusClosed, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StatusRejected))
	assert.True(t, IsTerminal(StatusClosed))
	assert.False(t, IsTerminal(StatusPending))
	assert.False(t, IsTerminal(StatusApproved))
	assert.False(t, IsTerminal(StatusActive))
}

func TestValidFilter(t *testing.T) {
	for _, f := range []string{"all", "pending", "approved", "rejected", "active", "closed"} {
		assert.True(t, ValidFilter(f), f)
	}
	assert.False(t, ValidFilter("published"))
	assert.False(t, ValidFilter(""))
}

func validDraft() Draft {
	return Draft{
		Title:               "Software Engineering Intern",
		Company:             "Safaricom PLC",
		Description:         "Work with the platform team.",
		Requirements:        []string{"Python", "", "SQL", " "},
		Location:            "Nairobi, Kenya",
		Positions:           2,
		ApplicationDeadline: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Type:                TypeInternship,
		Category:            "IT",
	}
}

func TestDraftNormalize_FiltersBlankRequirements(t *testing.T) {
	d := validDraft()
	d.Normalize()

	assert.Equal(t, []string{"Python", "SQL"}, d.Requirements)
	assert.Equal(t, SourceManual, d.Source)
}

func TestDraftNormalize_KeepsOrder(t *testing.T) {
	d := validDraft()
	d.Requirements = []string{"", "C", "", "A", "B", ""}
	d.Normalize()

	assert.Equal(t, []string{"C", "A", "B"}, d.Requirements)
}

func TestDraftValidate(t *testing.T) {
	d := validDraft()
	d.Normalize()
	require.NoError(t, d.Validate())
}

func TestDraftValidate_MissingTitle(t *testing.T) {
	d := validDraft()
	d.Title = ""
	d.Normalize()

	err := d.Validate()
	require.Error(t, err)

	var verr *validation.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "Title", verr.Fields[0].Field)
}

func TestDraftValidate_PositionsBelowOne(t *testing.T) {
	d := validDraft()
	d.Positions = 0

	var verr *validation.ValidationError
	require.True(t, errors.As(d.Validate(), &verr))
}

func TestDraftValidate_BadApplyURL(t *testing.T) {
	d := validDraft()
	bad := "not-a-url"
	d.ApplyURL = &bad

	var verr *validation.ValidationError
	require.True(t, errors.As(d.Validate(), &verr))
	assert.Equal(t, "applyUrl", verr.Fields[0].Field)
}

func TestDraftValidate_BadCategory(t *testing.T) {
	d := validDraft()
	d.Category = "Finance"

	var verr *validation.ValidationError
	require.True(t, errors.As(d.Validate(), &verr))
}
