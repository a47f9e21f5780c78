package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleOrdering(t *testing.T) {
	ordered := []Role{RoleUser, RoleReviewer, RoleAdmin, RoleSuperAdmin}
	for i, lower := range ordered {
		assert.True(t, lower.IsValid())
		assert.True(t, lower.AtLeast(lower))
		for _, higher := range ordered[i+1:] {
			assert.True(t, higher.AtLeast(lower))
			assert.False(t, lower.AtLeast(higher))
		}
	}
}

func TestRoleUnknown(t *testing.T) {
	bogus := Role("WIZARD")
	assert.False(t, bogus.IsValid())
	assert.False(t, bogus.AtLeast(RoleUser), "unknown roles rank below everything")
}

func TestKindStatusSets(t *testing.T) {
	assert.True(t, KindPartnership.ValidStatus(StatusOnboarding))
	assert.False(t, KindPartnership.ValidStatus(StatusDraft))
	assert.True(t, KindRegistration.ValidStatus(StatusSubmitted))
	assert.False(t, KindRegistration.ValidStatus(StatusOnboarding))

	assert.Equal(t, StatusNew, KindPartnership.InitialStatus())
	assert.Equal(t, StatusDraft, KindRegistration.InitialStatus())
}

func TestSuggestedNext(t *testing.T) {
	assert.True(t, SuggestedNext(StatusNew, StatusUnderReview))
	assert.True(t, SuggestedNext(StatusUnderReview, StatusApproved))
	assert.True(t, SuggestedNext(StatusUnderReview, StatusRejected))
	assert.True(t, SuggestedNext(StatusApproved, StatusOnboarding))
	assert.False(t, SuggestedNext(StatusNew, StatusOnboarding))
	assert.False(t, SuggestedNext(StatusRejected, StatusApproved))
	assert.False(t, SuggestedNext(StatusOnboarding, StatusNew))
}
