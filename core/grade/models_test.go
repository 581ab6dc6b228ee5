package grade

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateMetrics(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		maxScore float64
		want     Metrics
	}{
		{name: "perfect", score: 100, maxScore: 100, want: Metrics{Percentage: 100, LetterGrade: "A", GpaPoints: 4.0, GradePoints: 4.0}},
		{name: "A boundary", score: 90, maxScore: 100, want: Metrics{Percentage: 90, LetterGrade: "A", GpaPoints: 4.0, GradePoints: 3.8}},
		{name: "B", score: 85, maxScore: 100, want: Metrics{Percentage: 85, LetterGrade: "B", GpaPoints: 3.7, GradePoints: 3.6}},
		{name: "C", score: 72, maxScore: 100, want: Metrics{Percentage: 72, LetterGrade: "C", GpaPoints: 2.3, GradePoints: 2.4}},
		{name: "D boundary", score: 60, maxScore: 100, want: Metrics{Percentage: 60, LetterGrade: "D", GpaPoints: 1.0, GradePoints: 1.6}},
		{name: "fail", score: 45, maxScore: 100, want: Metrics{Percentage: 45, LetterGrade: "F", GpaPoints: 0, GradePoints: 0}},
		{name: "scaled max score", score: 45, maxScore: 50, want: Metrics{Percentage: 90, LetterGrade: "A", GpaPoints: 4.0, GradePoints: 3.8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateMetrics(tt.score, tt.maxScore))
		})
	}
}

func TestValidType(t *testing.T) {
	for _, typ := range AllTypes {
		assert.True(t, ValidType(typ), typ)
	}
	assert.False(t, ValidType("retake"))
	assert.False(t, ValidType(""))
}
