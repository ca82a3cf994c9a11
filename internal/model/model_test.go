package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidAPSLevel(t *testing.T) {
	for _, l := range APSLevels {
		assert.True(t, ValidAPSLevel(l), l)
	}
	assert.True(t, ValidAPSLevel(DefaultAPSLevel))
	assert.False(t, ValidAPSLevel("aps6"))
	assert.False(t, ValidAPSLevel("APS7"))
	assert.False(t, ValidAPSLevel(""))
}

func TestApplyKeepsIdentity(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	ex := WorkExample{ID: "id-1", Title: "old", CreatedAt: created}

	WorkExampleInput{Title: "new", APSLevel: "EL1", Tags: []string{"a"}}.Apply(&ex)

	assert.Equal(t, "id-1", ex.ID)
	assert.Equal(t, created, ex.CreatedAt)
	assert.Equal(t, "new", ex.Title)
	assert.Equal(t, "EL1", ex.APSLevel)
	assert.Equal(t, []string{"a"}, ex.Tags)
	assert.NotNil(t, ex.Capabilities)
	assert.NotNil(t, ex.Behaviours)
}

func TestInputCopiesSlices(t *testing.T) {
	ex := WorkExample{Capabilities: []string{"Achieves Results"}}
	in := ex.Input()
	in.Capabilities[0] = "changed"
	assert.Equal(t, "Achieves Results", ex.Capabilities[0])
}
