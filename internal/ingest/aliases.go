package ingest

// Attr names a logical attribute a raw record may carry under any of several
// keys. Every component resolves attributes through these tables and only
// these tables, so alias order cannot drift between call sites.
type Attr string

const (
	AttrID           Attr = "id"
	AttrTitle        Attr = "title"
	AttrStudentName  Attr = "student_name"
	AttrStudentID    Attr = "student_id"
	AttrCourseID     Attr = "course_id"
	AttrAssignmentID Attr = "assignment_id"
	AttrCourseLabel  Attr = "course_label"
	AttrSubmittedAt  Attr = "submitted_at"
	AttrStatus       Attr = "status"
	AttrGrade        Attr = "grade"
	AttrMaxGrade     Attr = "max_grade"
	AttrFeedback     Attr = "feedback"
	AttrCode         Attr = "code"
	AttrDescription  Attr = "description"
	AttrStudentCount Attr = "student_count"
	AttrDeadline     Attr = "deadline"
	AttrSubmsCount   Attr = "submissions_count"
)

// A dot in an alias means one level of nested-object lookup, e.g. "course.id"
// reads key "id" inside a nested "course" object. One level only.
var aliases = map[Attr][]string{
	AttrID: {
		"id", "submission_id", "submissionId", "pk", "submission.id",
	},
	AttrTitle: {
		"title", "assignment_title", "assignmentTitle", "name",
		"assignment.title",
	},
	AttrStudentName: {
		"studentName", "student_name", "full_name", "fullName",
		"student.name", "student.full_name", "user.name", "student",
	},
	AttrStudentID: {
		"studentId", "student_id", "student.id", "user_id", "userId",
	},
	AttrCourseID: {
		"courseId", "course_id", "course.id", "department_id",
		"departmentId",
	},
	AttrAssignmentID: {
		"assignmentId", "assignment_id", "assignment.id",
	},
	AttrCourseLabel: {
		"courseLabel", "course_name", "courseName", "course",
		"department", "course.title", "course.name", "course.code",
	},
	AttrSubmittedAt: {
		"submittedAt", "submitted_at", "submitted", "createdAt",
		"created_at", "timestamp",
	},
	AttrStatus: {
		"status", "state", "review_status", "reviewStatus",
	},
	AttrGrade: {
		"grade", "score", "points", "grade_value", "feedback.grade",
	},
	AttrMaxGrade: {
		"maxGrade", "max_grade", "max_points", "maxPoints",
		"total_points", "assignment.max_grade",
	},
	AttrFeedback: {
		"feedback_text", "feedbackText", "feedback.text", "notes",
		"student_notes", "feedback",
	},
	AttrCode: {
		"code", "course_code", "courseCode", "short_name",
	},
	AttrDescription: {
		"description", "desc", "details", "summary",
	},
	AttrStudentCount: {
		"studentCount", "student_count", "enrolled", "enrolled_count",
		"enrollment", "students_count",
	},
	AttrDeadline: {
		"deadline", "due_date", "dueDate", "due_at",
	},
	AttrSubmsCount: {
		"submissionsCount", "submissions_count", "submission_count",
	},
}
