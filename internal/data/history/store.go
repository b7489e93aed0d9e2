package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"archlens/internal/core/errors"
	"archlens/internal/core/ports"
	"archlens/internal/engine/fitness"
	"archlens/internal/engine/graph"
	"archlens/internal/shared/observability"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Store persists analyses and fitness runs in a single-writer SQLite file.
type Store struct {
	path string
	keep int
	db   *sql.DB
	mu   sync.Mutex
}

var _ ports.AnalysisStore = (*Store)(nil)

// Open creates the database file and applies pending migrations. keep bounds
// how many analyses are retained per project; 0 disables pruning.
func Open(path string, keep int) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, errors.New(errors.CodeConfig, "history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, errors.Newf(errors.CodeConfig, "history path %q is a directory, expected file", cleanPath)
	}

	if dir := filepath.Dir(cleanPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, errors.CodeStorage, fmt.Sprintf("create history directory %q", dir))
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorage, fmt.Sprintf("open history %q", cleanPath))
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.CodeStorage, fmt.Sprintf("ping history %q", cleanPath))
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.CodeStorage, fmt.Sprintf("initialize history schema %q", cleanPath))
	}

	return &Store{path: cleanPath, keep: keep, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	return s.path
}

// analysisPayload is the JSON body stored beside the summary columns.
type analysisPayload struct {
	Modules  []payloadModule `json:"modules"`
	Edges    []payloadEdge   `json:"edges"`
	Cycles   []graph.Cycle   `json:"cycles"`
	Roots    []string        `json:"roots"`
	Leaves   []string        `json:"leaves"`
	Hotspots []string        `json:"hotspots"`
}

type payloadModule struct {
	Name        string  `json:"name"`
	Language    string  `json:"language,omitempty"`
	Files       int     `json:"files"`
	LOC         int     `json:"loc"`
	FanIn       int     `json:"fan_in"`
	FanOut      int     `json:"fan_out"`
	Instability float64 `json:"instability"`
	External    bool    `json:"external,omitempty"`
}

type payloadEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (s *Store) SaveAnalysis(ctx context.Context, project string, analysis *graph.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	project = normalizeProject(project)

	payload := analysisPayload{
		Cycles:   analysis.Cycles,
		Roots:    analysis.Roots,
		Leaves:   analysis.Leaves,
		Hotspots: analysis.Hotspots,
	}
	for _, name := range analysis.Graph.ModuleNames() {
		mod := analysis.Graph.Modules[name]
		m := analysis.Metrics[name]
		payload.Modules = append(payload.Modules, payloadModule{
			Name:        name,
			Language:    mod.Language,
			Files:       len(mod.Files),
			LOC:         mod.LOC,
			FanIn:       m.FanIn,
			FanOut:      m.FanOut,
			Instability: m.Instability,
			External:    mod.External,
		})
	}
	for _, edge := range analysis.Graph.Edges {
		payload.Edges = append(payload.Edges, payloadEdge{From: edge.From, To: edge.To})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, errors.CodeStorage, "encode analysis payload")
	}

	err = s.withRetry(ctx, "save analysis", func() error {
		_, execErr := s.db.ExecContext(ctx, `
INSERT INTO analyses (id, project, fingerprint, created_at_utc, module_count, edge_count, cycle_count, max_depth, payload)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING
`,
			analysis.ID,
			project,
			analysis.Fingerprint,
			analysis.CreatedAt.UTC().Format(time.RFC3339Nano),
			analysis.ModuleCount,
			analysis.EdgeCount,
			len(analysis.Cycles),
			analysis.MaxDepth,
			string(body),
		)
		return execErr
	})
	if err != nil {
		return err
	}

	observability.HistoryWritesTotal.Inc()
	return s.pruneLocked(ctx, project)
}

func (s *Store) SaveFitness(ctx context.Context, analysisID string, result *fitness.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, errors.CodeStorage, "encode fitness payload")
	}

	err = s.withRetry(ctx, "save fitness run", func() error {
		_, execErr := s.db.ExecContext(ctx, `
INSERT INTO fitness_runs (id, analysis_id, preset, compliance_score, error_count, warning_count, passed_count, created_at_utc, payload)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
			uuid.NewString(),
			analysisID,
			result.Preset,
			result.ComplianceScore,
			result.ErrorCount,
			result.WarningCount,
			result.PassedCount,
			result.EvaluatedAt.UTC().Format(time.RFC3339Nano),
			string(body),
		)
		return execErr
	})
	if err != nil {
		return err
	}

	observability.HistoryWritesTotal.Inc()
	return nil
}

func (s *Store) LatestAnalysis(ctx context.Context, project string) (*ports.HistoryEntry, error) {
	entries, err := s.History(ctx, project, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errors.Newf(errors.CodeNotFound, "no analyses recorded for project %q", normalizeProject(project))
	}
	return &entries[0], nil
}

// History returns stored runs, newest first. Each analysis carries its most
// recent fitness run, when one exists.
func (s *Store) History(ctx context.Context, project string, limit int) ([]ports.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project = normalizeProject(project)
	if limit <= 0 {
		limit = 50
	}

	var rows *sql.Rows
	err := s.withRetry(ctx, "load history", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, `
SELECT
  a.id, a.project, a.fingerprint, a.created_at_utc,
  a.module_count, a.edge_count, a.cycle_count, a.max_depth,
  f.id, f.preset, f.compliance_score, f.error_count, f.warning_count, f.passed_count, f.created_at_utc
FROM analyses a
LEFT JOIN fitness_runs f ON f.id = (
  SELECT id FROM fitness_runs
  WHERE analysis_id = a.id
  ORDER BY created_at_utc DESC
  LIMIT 1
)
WHERE a.project = ?
ORDER BY a.created_at_utc DESC
LIMIT ?
`, project, limit)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ports.HistoryEntry
	for rows.Next() {
		var (
			entry      ports.HistoryEntry
			createdRaw string
			fitID      sql.NullString
			fitPreset  sql.NullString
			fitScore   sql.NullFloat64
			fitErrors  sql.NullInt64
			fitWarns   sql.NullInt64
			fitPassed  sql.NullInt64
			fitCreated sql.NullString
		)
		if err := rows.Scan(
			&entry.Analysis.ID,
			&entry.Analysis.Project,
			&entry.Analysis.Fingerprint,
			&createdRaw,
			&entry.Analysis.Modules,
			&entry.Analysis.Edges,
			&entry.Analysis.Cycles,
			&entry.Analysis.MaxDepth,
			&fitID, &fitPreset, &fitScore, &fitErrors, &fitWarns, &fitPassed, &fitCreated,
		); err != nil {
			return nil, errors.Wrap(err, errors.CodeStorage, "scan history row")
		}

		created, err := time.Parse(time.RFC3339Nano, createdRaw)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeStorage, fmt.Sprintf("parse analysis timestamp %q", createdRaw))
		}
		entry.Analysis.CreatedAt = created.UTC()

		if fitID.Valid {
			fit := &ports.FitnessSummary{
				ID:         fitID.String,
				AnalysisID: entry.Analysis.ID,
				Preset:     fitPreset.String,
				Score:      fitScore.Float64,
				Errors:     int(fitErrors.Int64),
				Warnings:   int(fitWarns.Int64),
				Passed:     int(fitPassed.Int64),
			}
			if fitCreated.Valid {
				if ts, err := time.Parse(time.RFC3339Nano, fitCreated.String); err == nil {
					fit.CreatedAt = ts.UTC()
				}
			}
			entry.Fitness = fit
		}

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeStorage, "iterate history rows")
	}
	return entries, nil
}

func (s *Store) pruneLocked(ctx context.Context, project string) error {
	if s.keep <= 0 {
		return nil
	}
	return s.withRetry(ctx, "prune history", func() error {
		_, err := s.db.ExecContext(ctx, `
DELETE FROM analyses
WHERE project = ? AND id NOT IN (
  SELECT id FROM analyses
  WHERE project = ?
  ORDER BY created_at_utc DESC
  LIMIT ?
)
`, project, project, s.keep)
		return err
	})
}

func (s *Store) withRetry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), errors.CodeCancelled, op)
		case <-time.After(time.Duration(attempt*25) * time.Millisecond):
		}
	}
	return errors.Wrap(lastErr, errors.CodeStorage, op)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func normalizeProject(project string) string {
	project = strings.TrimSpace(project)
	if project == "" {
		return "default"
	}
	return project
}
