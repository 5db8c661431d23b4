// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewReport(t *testing.T) {
	v := BuildView(sampleSnapshot(), RangeInput{From: intp(2019), To: intp(2020)}, testDashboardConfig)

	r := NewReport(v)

	assert.Equal(t, "I1", r.Institution)
	assert.Equal(t, 2019, r.From)
	assert.Equal(t, 2020, r.To)
	assert.Equal(t, 2, r.Summary.Count)
	assert.Equal(t, 50.0, r.Summary.OpenAccessRate)
	assert.Equal(t, "Physics", r.TopTopics[0].Value)
	assert.Equal(t, "Ana", r.TopAuthors[0].Value)
	assert.Empty(t, r.Notices)
}

func TestNewReport_CarriesNotices(t *testing.T) {
	v := BuildView(sampleSnapshot(), RangeInput{From: intp(2021), To: intp(2019)}, testDashboardConfig)

	r := NewReport(v)

	assert.Len(t, r.Notices, 1)
	assert.Contains(t, r.Notices[0], "inverted")
}
