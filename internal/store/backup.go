package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/rs/zerolog/log"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

const backupSchemaURL = "schema://backup.json"

// backupSchema describes the payload column of the backups table.
const backupSchema = `{
  "type": "object",
  "required": ["assessmentId", "answers", "timeSpent", "timestamp"],
  "properties": {
    "assessmentId": {"type": "string", "minLength": 1},
    "groupId": {"type": "string"},
    "answers": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["questionId", "optionId"],
        "properties": {
          "questionId": {"type": "string", "minLength": 1},
          "optionId": {"type": "string", "minLength": 1}
        }
      }
    },
    "timeSpent": {"type": "integer", "minimum": 0},
    "timestamp": {"type": "string"}
  }
}`

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func backupValidator() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(backupSchema))
		if err != nil {
			compileErr = fmt.Errorf("parse backup schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(backupSchemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(backupSchemaURL)
	})
	return compiledSchema, compileErr
}

// decodeBackup validates a stored payload and decodes it.
func decodeBackup(payload string) (*Backup, error) {
	sch, err := backupValidator()
	if err != nil {
		return nil, err
	}
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBackup, err)
	}
	if err := sch.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBackup, err)
	}

	var b Backup
	if err := json.Unmarshal([]byte(payload), &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBackup, err)
	}
	return &b, nil
}

// backupRepo implements BackupRepo with ent's SQL builder.
type backupRepo struct {
	drv *entsql.Driver
}

func (r *backupRepo) Save(ctx context.Context, b *Backup) error {
	if b.AssessmentID == "" {
		return fmt.Errorf("save backup: empty assessment id")
	}
	if b.Timestamp.IsZero() {
		b.Timestamp = time.Now()
	}
	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal backup: %w", err)
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(backupsTable).
		Columns("backup_key", "assessment_id", "group_id", "payload", "updated_at").
		Values(BackupKey(b.AssessmentID), b.AssessmentID, b.GroupID, string(payload), b.Timestamp.UnixMilli()).
		OnConflict(
			entsql.ConflictColumns("backup_key"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save backup %s: %w", b.AssessmentID, err)
	}
	return nil
}

func (r *backupRepo) Load(ctx context.Context, assessmentID string) (*Backup, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select("payload").
		From(entsql.Table(backupsTable)).
		Where(entsql.EQ("backup_key", BackupKey(assessmentID))).
		Query()

	payloads, err := r.queryPayloads(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("load backup %s: %w", assessmentID, err)
	}
	if len(payloads) == 0 {
		return nil, nil
	}
	return decodeBackup(payloads[0])
}

func (r *backupRepo) Delete(ctx context.Context, assessmentID string) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Delete(backupsTable).
		Where(entsql.EQ("backup_key", BackupKey(assessmentID))).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("delete backup %s: %w", assessmentID, err)
	}
	return nil
}

func (r *backupRepo) List(ctx context.Context) ([]*Backup, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select("assessment_id", "payload").
		From(entsql.Table(backupsTable)).
		OrderBy(entsql.Desc("updated_at")).
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	defer rows.Close()

	type row struct{ id, payload string }
	var raw []row
	for rows.Next() {
		var rw row
		if err := rows.Scan(&rw.id, &rw.payload); err != nil {
			return nil, fmt.Errorf("list backups: %w", err)
		}
		raw = append(raw, rw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}

	// A corrupt row is skipped so the rest stay recoverable; it can be
	// dropped with Delete.
	backups := make([]*Backup, 0, len(raw))
	for _, rw := range raw {
		b, err := decodeBackup(rw.payload)
		if err != nil {
			log.Warn().Err(err).Str("assessment_id", rw.id).Msg("skipping unreadable backup")
			continue
		}
		backups = append(backups, b)
	}
	return backups, nil
}

// queryPayloads reads the payload column and closes the rows before
// returning, since the store runs on a single connection.
func (r *backupRepo) queryPayloads(ctx context.Context, query string, args []any) ([]string, error) {
	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
