package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestField_AliasOrderAndNesting(t *testing.T) {
	testCases := []struct {
		name     string
		raw      Raw
		attr     Attr
		expected any
		found    bool
	}{
		{
			name:     "direct key wins",
			raw:      Raw{"id": float64(7)},
			attr:     AttrID,
			expected: float64(7),
			found:    true,
		},
		{
			name:     "snake_case fallback",
			raw:      Raw{"submission_id": float64(42)},
			attr:     AttrID,
			expected: float64(42),
			found:    true,
		},
		{
			name:     "nested course object",
			raw:      Raw{"course": map[string]any{"id": float64(3)}},
			attr:     AttrCourseID,
			expected: float64(3),
			found:    true,
		},
		{
			name:  "whitespace-only string is absent",
			raw:   Raw{"studentName": "   "},
			attr:  AttrStudentName,
			found: false,
		},
		{
			name:     "earlier alias skipped when empty",
			raw:      Raw{"studentName": "", "student_name": "Ada"},
			attr:     AttrStudentName,
			expected: "Ada",
			found:    true,
		},
		{
			name:  "nil value is absent",
			raw:   Raw{"grade": nil},
			attr:  AttrGrade,
			found: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, ok := Field(tc.raw, tc.attr)
			assert.Equal(t, tc.found, ok)
			if tc.found {
				assert.Equal(t, tc.expected, v)
			}
		})
	}
}

func TestNumber_StrictFiniteCoercion(t *testing.T) {
	testCases := []struct {
		name     string
		raw      Raw
		expected float64
		ok       bool
	}{
		{"json number", Raw{"grade": 85.5}, 85.5, true},
		{"string digits", Raw{"grade": "85"}, 85, true},
		{"string with spaces", Raw{"grade": " 91.25 "}, 91.25, true},
		{"garbage string", Raw{"grade": "N/A"}, 0, false},
		{"missing", Raw{}, 0, false},
		{"nested feedback grade", Raw{"feedback": map[string]any{"grade": 72.0}}, 72, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, ok := Number(tc.raw, AttrGrade)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.expected, f)
			}
		})
	}
}

func TestInt_RejectsFractions(t *testing.T) {
	_, ok := Int(Raw{"id": 7.5}, AttrID)
	assert.False(t, ok)

	id, ok := Int(Raw{"id": "19"}, AttrID)
	assert.True(t, ok)
	assert.Equal(t, int64(19), id)
}

func TestTime_AcceptsCommonShapes(t *testing.T) {
	ts := Time(Raw{"submitted_at": "2026-08-30T12:00:00Z"}, AttrSubmittedAt)
	assert.NotNil(t, ts)

	ts = Time(Raw{"submittedAt": "2026-08-30 12:00:00"}, AttrSubmittedAt)
	assert.NotNil(t, ts)

	ts = Time(Raw{"timestamp": float64(1767100000)}, AttrSubmittedAt)
	assert.NotNil(t, ts)

	ts = Time(Raw{"submitted_at": "yesterday-ish"}, AttrSubmittedAt)
	assert.Nil(t, ts)
}

func TestStrings_CollectsEveryAliasHit(t *testing.T) {
	r := Raw{
		"course_name": "Algorithms",
		"course": map[string]any{
			"title": "Algorithms", // duplicate spelling collapses
			"code":  "CS101",
		},
	}

	got := Strings(r, AttrCourseLabel)
	assert.Equal(t, []string{"Algorithms", "CS101"}, got)
}
