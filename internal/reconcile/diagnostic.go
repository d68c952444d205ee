package reconcile

import (
	"fmt"
	"time"
)

// DiagnosticKind 诊断类别
type DiagnosticKind string

const (
	DiagMalformedEntry  DiagnosticKind = "malformed_entry"
	DiagNoScheduleMatch DiagnosticKind = "no_schedule_match"
	DiagInvalidInterval DiagnosticKind = "invalid_interval"
	DiagInvalidWeekday  DiagnosticKind = "invalid_weekday"
)

// Diagnostic 非致命的核对提示，只做展示，不影响汇总
type Diagnostic struct {
	Kind        DiagnosticKind `json:"kind"`
	FacultyName string         `json:"faculty_name"`
	Date        string         `json:"date,omitempty"`
	CourseCode  string         `json:"course_code,omitempty"`
	Message     string         `json:"message"`
}

func (d Diagnostic) String() string { return d.Message }

func malformedDiagnostic(faculty string, err error) Diagnostic {
	return Diagnostic{
		Kind:        DiagMalformedEntry,
		FacultyName: faculty,
		Message:     fmt.Sprintf("Skipped malformed timesheet entry for %s: %v", faculty, err),
	}
}

func noScheduleDiagnostic(e TimesheetEntry) Diagnostic {
	date := e.Date.Format(EntryDateLayout)
	return Diagnostic{
		Kind:        DiagNoScheduleMatch,
		FacultyName: e.FacultyName,
		Date:        date,
		CourseCode:  e.CourseCode,
		Message:     fmt.Sprintf("No schedule entry found for %s on %s for course %s", e.FacultyName, date, e.CourseCode),
	}
}

func scheduleRowDiagnostic(kind DiagnosticKind, faculty, course string, row ScheduleEntry, err error) Diagnostic {
	return Diagnostic{
		Kind:        kind,
		FacultyName: faculty,
		CourseCode:  course,
		Message: fmt.Sprintf("Schedule row for %s, course %s (%s to %s, %s-%s) ignored: %v",
			faculty, row.CourseCode,
			row.StartDate.Format(time.DateOnly), row.EndDate.Format(time.DateOnly),
			row.StartTime, row.EndTime, err),
	}
}
