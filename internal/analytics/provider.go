package analytics

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gradeinsight/assistant/internal/intent"
)

// Result carries the tabular output of one executed directive.
type Result struct {
	Directive string           `json:"query_type"`
	Records   []map[string]any `json:"results"`
}

// Provider runs the read-only grade queries against Postgres. The chat
// pipeline treats it as an optional capability: a nil *Provider disables
// analytics grounding entirely.
type Provider struct {
	pool           *pgxpool.Pool
	gradeThreshold float64
}

func NewProvider(ctx context.Context, databaseURL string, gradeThreshold float64) (*Provider, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect analytics db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping analytics db: %w", err)
	}
	if gradeThreshold <= 0 {
		gradeThreshold = 70.0
	}
	return &Provider{pool: pool, gradeThreshold: gradeThreshold}, nil
}

func (p *Provider) Close() {
	p.pool.Close()
}

// Execute runs the query behind a classified directive.
func (p *Provider) Execute(ctx context.Context, teacherID int, d intent.Directive) (Result, error) {
	var (
		records []map[string]any
		err     error
	)
	switch d.Type {
	case intent.DirectiveStrugglingStudents:
		records, err = p.StrugglingStudents(ctx, teacherID, p.gradeThreshold)
	case intent.DirectiveStudentDetail:
		records, err = p.StudentDetail(ctx, teacherID, d.StudentID)
	case intent.DirectiveAssignmentAnalysis:
		records, err = p.AssignmentAnalysis(ctx, teacherID)
	case intent.DirectiveMissingAssignments:
		records, err = p.MissingWork(ctx, teacherID, 1)
	case intent.DirectiveClassOverview:
		records, err = p.ClassOverview(ctx, teacherID)
	default:
		return Result{}, fmt.Errorf("unknown directive %q", d.Type)
	}
	if err != nil {
		return Result{}, err
	}
	return Result{Directive: string(d.Type), Records: records}, nil
}

func (p *Provider) query(ctx context.Context, sql string, args ...any) ([]map[string]any, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("analytics query: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("collect analytics rows: %w", err)
	}
	return records, nil
}

// StrugglingStudents lists students below the grade threshold or with more
// than three missing assignments, worst first.
func (p *Provider) StrugglingStudents(ctx context.Context, teacherID int, threshold float64) ([]map[string]any, error) {
	const q = `
		SELECT
			s.id,
			s.first_name,
			s.last_name,
			s.email,
			ROUND(AVG(CASE WHEN g.grade IS NOT NULL AND a.max_points > 0
				THEN g.grade / a.max_points * 100 END)::numeric, 1) AS avg_grade,
			COUNT(*) FILTER (WHERE g.grade IS NULL) AS missing_count,
			COUNT(a.id) AS total_assignments,
			tn.note AS teacher_note
		FROM students s
		LEFT JOIN grades g ON s.id = g.student_id AND g.teacher_id = $1
		LEFT JOIN assignments a ON g.assignment_id = a.id AND a.teacher_id = $1
		LEFT JOIN teacher_notes tn ON s.id = tn.student_id AND tn.teacher_id = $1
		WHERE EXISTS (
			SELECT 1 FROM grades g2
			WHERE g2.student_id = s.id AND g2.teacher_id = $1
		)
		GROUP BY s.id, s.first_name, s.last_name, s.email, tn.note
		HAVING AVG(CASE WHEN g.grade IS NOT NULL AND a.max_points > 0
				THEN g.grade / a.max_points * 100 END) < $2
			OR COUNT(*) FILTER (WHERE g.grade IS NULL) > 3
		ORDER BY avg_grade ASC NULLS LAST, missing_count DESC
		LIMIT 50`
	return p.query(ctx, q, teacherID, threshold)
}

// StudentDetail returns per-assignment grades for one student, newest first.
func (p *Provider) StudentDetail(ctx context.Context, teacherID, studentID int) ([]map[string]any, error) {
	const q = `
		SELECT
			s.id AS student_id,
			s.first_name,
			s.last_name,
			s.email,
			a.id AS assignment_id,
			a.name AS assignment_name,
			a.due_date,
			a.max_points,
			g.grade,
			CASE
				WHEN g.grade IS NULL THEN NULL
				WHEN a.max_points > 0 THEN ROUND((g.grade / a.max_points * 100)::numeric, 1)
			END AS percentage,
			tn.note AS teacher_note,
			tn.updated_at AS note_updated
		FROM students s
		LEFT JOIN grades g ON s.id = g.student_id AND g.teacher_id = $1
		LEFT JOIN assignments a ON g.assignment_id = a.id
		LEFT JOIN teacher_notes tn ON s.id = tn.student_id AND tn.teacher_id = $1
		WHERE s.id = $2
		ORDER BY a.due_date DESC NULLS LAST`
	return p.query(ctx, q, teacherID, studentID)
}

// AssignmentAnalysis ranks assignments hardest first by average percentage.
func (p *Provider) AssignmentAnalysis(ctx context.Context, teacherID int) ([]map[string]any, error) {
	const q = `
		SELECT
			a.id AS assignment_id,
			a.name AS assignment_name,
			a.due_date,
			a.max_points,
			COUNT(g.id) AS total_submissions,
			COUNT(*) FILTER (WHERE g.grade IS NOT NULL) AS completed,
			COUNT(*) FILTER (WHERE g.grade IS NULL) AS missing,
			ROUND(AVG(CASE WHEN g.grade IS NOT NULL AND a.max_points > 0
				THEN g.grade / a.max_points * 100 END)::numeric, 1) AS avg_percentage,
			ROUND(MIN(CASE WHEN g.grade IS NOT NULL AND a.max_points > 0
				THEN g.grade / a.max_points * 100 END)::numeric, 1) AS min_percentage,
			ROUND(MAX(CASE WHEN g.grade IS NOT NULL AND a.max_points > 0
				THEN g.grade / a.max_points * 100 END)::numeric, 1) AS max_percentage,
			ROUND(STDDEV(CASE WHEN g.grade IS NOT NULL AND a.max_points > 0
				THEN g.grade / a.max_points * 100 END)::numeric, 1) AS std_deviation
		FROM assignments a
		LEFT JOIN grades g ON a.id = g.assignment_id
		WHERE a.teacher_id = $1
		GROUP BY a.id, a.name, a.due_date, a.max_points
		HAVING COUNT(g.id) > 0
		ORDER BY avg_percentage ASC NULLS LAST, missing DESC
		LIMIT 50`
	return p.query(ctx, q, teacherID)
}

// MissingWork lists students with at least minMissing ungraded assignments.
func (p *Provider) MissingWork(ctx context.Context, teacherID, minMissing int) ([]map[string]any, error) {
	const q = `
		SELECT
			s.id,
			s.first_name,
			s.last_name,
			s.email,
			COUNT(*) FILTER (WHERE g.grade IS NULL) AS missing_count,
			COUNT(a.id) AS total_assignments,
			ROUND((COUNT(*) FILTER (WHERE g.grade IS NULL))::numeric
				/ NULLIF(COUNT(a.id), 0) * 100, 1) AS missing_percentage,
			STRING_AGG(CASE WHEN g.grade IS NULL THEN a.name END, ', '
				ORDER BY a.due_date) AS missing_assignments,
			tn.note AS teacher_note
		FROM students s
		LEFT JOIN grades g ON s.id = g.student_id AND g.teacher_id = $1
		LEFT JOIN assignments a ON g.assignment_id = a.id
		LEFT JOIN teacher_notes tn ON s.id = tn.student_id AND tn.teacher_id = $1
		WHERE EXISTS (
			SELECT 1 FROM grades g2
			WHERE g2.student_id = s.id AND g2.teacher_id = $1
		)
		GROUP BY s.id, s.first_name, s.last_name, s.email, tn.note
		HAVING COUNT(*) FILTER (WHERE g.grade IS NULL) >= $2
		ORDER BY missing_count DESC
		LIMIT 50`
	return p.query(ctx, q, teacherID, minMissing)
}

// ClassOverview returns whole-class aggregates and a grade distribution.
func (p *Provider) ClassOverview(ctx context.Context, teacherID int) ([]map[string]any, error) {
	const q = `
		SELECT
			COUNT(DISTINCT s.id) AS total_students,
			COUNT(DISTINCT a.id) AS total_assignments,
			ROUND(AVG(CASE WHEN g.grade IS NOT NULL AND a.max_points > 0
				THEN g.grade / a.max_points * 100 END)::numeric, 1) AS class_average,
			COUNT(*) FILTER (WHERE g.grade IS NULL) AS total_missing,
			COUNT(*) FILTER (WHERE a.max_points > 0
				AND g.grade / a.max_points * 100 >= 90) AS a_grades,
			COUNT(*) FILTER (WHERE a.max_points > 0
				AND g.grade / a.max_points * 100 >= 80
				AND g.grade / a.max_points * 100 < 90) AS b_grades,
			COUNT(*) FILTER (WHERE a.max_points > 0
				AND g.grade / a.max_points * 100 >= 70
				AND g.grade / a.max_points * 100 < 80) AS c_grades,
			COUNT(*) FILTER (WHERE a.max_points > 0
				AND g.grade / a.max_points * 100 >= 60
				AND g.grade / a.max_points * 100 < 70) AS d_grades,
			COUNT(*) FILTER (WHERE a.max_points > 0
				AND g.grade / a.max_points * 100 < 60) AS f_grades
		FROM assignments a
		LEFT JOIN grades g ON a.id = g.assignment_id
		LEFT JOIN students s ON g.student_id = s.id
		WHERE a.teacher_id = $1`
	return p.query(ctx, q, teacherID)
}

// GradeTrends aggregates average scores per assignment due date over the
// trailing window of days.
func (p *Provider) GradeTrends(ctx context.Context, teacherID, days int) ([]map[string]any, error) {
	const q = `
		SELECT
			a.due_date::date AS date,
			a.name AS assignment_name,
			ROUND(AVG(CASE WHEN g.grade IS NOT NULL AND a.max_points > 0
				THEN g.grade / a.max_points * 100 END)::numeric, 1) AS avg_score,
			COUNT(g.id) AS submissions
		FROM assignments a
		LEFT JOIN grades g ON a.id = g.assignment_id
		WHERE a.teacher_id = $1
			AND a.due_date >= CURRENT_DATE - ($2 || ' days')::interval
			AND a.due_date <= CURRENT_DATE
		GROUP BY a.due_date::date, a.name
		ORDER BY a.due_date::date DESC`
	return p.query(ctx, q, teacherID, days)
}

// SearchStudentByName finds students whose name matches the query.
func (p *Provider) SearchStudentByName(ctx context.Context, teacherID int, name string) ([]map[string]any, error) {
	const q = `
		SELECT DISTINCT
			s.id,
			s.first_name,
			s.last_name,
			s.email,
			ROUND(AVG(CASE WHEN g.grade IS NOT NULL AND a.max_points > 0
				THEN g.grade / a.max_points * 100 END)::numeric, 1) AS avg_grade
		FROM students s
		JOIN grades g ON s.id = g.student_id
		JOIN assignments a ON g.assignment_id = a.id
		WHERE g.teacher_id = $1
			AND (s.first_name ILIKE $2
				OR s.last_name ILIKE $2
				OR (s.first_name || ' ' || s.last_name) ILIKE $2)
		GROUP BY s.id, s.first_name, s.last_name, s.email
		LIMIT 20`
	return p.query(ctx, q, teacherID, "%"+name+"%")
}
