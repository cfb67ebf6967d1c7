package models

// Course identity is the ID. Title and Code only participate in fallback
// matching when a submission carries no usable course id.
type Course struct {
	ID           int64  `json:"id" validate:"required"`
	Title        string `json:"title"`
	Code         string `json:"code"`
	Description  string `json:"description,omitempty"`
	StudentCount int    `json:"student_count"`
}

type Assignment struct {
	ID               int64    `json:"id" validate:"required"`
	CourseID         int64    `json:"course_id"`
	Title            string   `json:"title"`
	Deadline         *int64   `json:"deadline,omitempty"`
	SubmissionsCount *int     `json:"submissions_count,omitempty"`
	MaxGrade         *float64 `json:"max_grade,omitempty"`
	Description      string   `json:"description,omitempty"`
}
