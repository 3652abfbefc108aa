package dnssec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchingTrustAnchor(t *testing.T) {
	policy := NewPolicy()
	key := newTestKey(testZone)
	policy.AddTrustAnchor(testZone, key.ds)

	assert.True(t, policy.MatchingTrustAnchor(testZone, key.key))

	other := newTestKey(testZone)
	assert.False(t, policy.MatchingTrustAnchor(testZone, other.key), "a different key for the same zone must not match")

	assert.False(t, policy.MatchingTrustAnchor("other.example.", key.key), "no anchor configured for this zone")
}

func TestHasAnchorAtOrAbove(t *testing.T) {
	policy := NewPolicy()
	policy.AddTrustAnchor(".", newTestKey(".").ds)

	assert.True(t, policy.HasAnchorAtOrAbove(testZone))
	assert.True(t, policy.HasAnchorAtOrAbove("."))
	assert.False(t, NewPolicy().HasAnchorAtOrAbove(testZone))
}

func TestZoneExpectationFor_LongestSuffix(t *testing.T) {
	policy := NewPolicy()
	policy.SetZoneExpectation(".", ZoneValidate)
	policy.SetZoneExpectation("example.com.", ZoneSkip)
	policy.SetZoneExpectation("internal.example.com.", ZoneUntrust)

	assert.Equal(t, ZoneValidate, policy.ZoneExpectationFor("com."))
	assert.Equal(t, ZoneSkip, policy.ZoneExpectationFor("example.com."))
	assert.Equal(t, ZoneSkip, policy.ZoneExpectationFor("www.example.com."))
	assert.Equal(t, ZoneUntrust, policy.ZoneExpectationFor("host.internal.example.com."))
}

func TestNSEC3MaxIterFor_Default(t *testing.T) {
	policy := NewPolicy()
	policy.SetNSEC3MaxIterations(testZone, 50)
	assert.Equal(t, uint16(50), policy.NSEC3MaxIterFor(testZone))
	assert.Equal(t, DefaultNSEC3MaxIterations, policy.NSEC3MaxIterFor("other.example."))
}
