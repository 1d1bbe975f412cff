package captcha

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var P, S = Primary, Secondary

func TestCheckExample(t *testing.T) {
	c := challengeOf(P, S, P, S, S, P, S, S, P)
	require.Equal(t, []int{0, 2, 5, 8}, c.Answer())

	assert.True(t, c.Check([]int{0, 2, 5, 8}).Accepted)
	assert.Equal(t, ReasonSent, c.Check([]int{0, 2, 5, 8}).Reason)

	wrong := c.Check([]int{0, 2, 5})
	assert.False(t, wrong.Accepted)
	assert.Equal(t, ReasonWrongChallenge, wrong.Reason)

	assert.False(t, c.Check([]int{0, 1, 2, 5, 8}).Accepted)
}

func TestCheckIsOrderIndependent(t *testing.T) {
	c := challengeOf(S, S, P, S, S, P, S, P, S)
	assert.Equal(t, c.Check([]int{2, 5, 7}), c.Check([]int{7, 2, 5}))
	assert.True(t, c.Check([]int{7, 2, 5}).Accepted)
}

func TestCheckCollapsesDuplicates(t *testing.T) {
	c := challengeOf(P, S, P, S, S, S, S, S, S)
	assert.True(t, c.Check([]int{2, 0, 2, 0}).Accepted)
}

func TestCheckRejectsDisjointAndEmpty(t *testing.T) {
	c := challengeOf(P, S, P, S, S, P, S, S, P)
	assert.False(t, c.Check([]int{1, 3, 4}).Accepted)
	assert.False(t, c.Check(nil).Accepted)
	assert.False(t, c.Check([]int{0, 2, 5, 8, 42}).Accepted)
}

func TestCheckEmptyAnswer(t *testing.T) {
	c := challengeOf(S, S, S, S, S, S, S, S, S)
	assert.True(t, c.Check(nil).Accepted)
	assert.True(t, c.Check([]int{}).Accepted)
	assert.False(t, c.Check([]int{0}).Accepted)
}

func TestCheckSecondaryTarget(t *testing.T) {
	c := challengeOf(P, S, P, S, S, P, S, S, P)
	c.Target = Secondary
	assert.True(t, c.Check([]int{1, 3, 4, 6, 7}).Accepted)
	assert.False(t, c.Check([]int{0, 2, 5, 8}).Accepted)
}

func TestChallengeJSONKeepsCategories(t *testing.T) {
	c := challengeOf(P, S, P)
	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"category":"primary"`)
	assert.Contains(t, string(data), `"target":"primary"`)

	var back Challenge
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, c.Items, back.Items)
	assert.Equal(t, c.Target, back.Target)

	assert.Error(t, json.Unmarshal([]byte(`{"target":"tertiary"}`), &back))
}
