package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	backupsTable        = "backups"
	submitAttemptsTable = "submit_attempts"
)

var (
	backupsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "backup_key", Type: field.TypeString, Unique: true},
		{Name: "assessment_id", Type: field.TypeString},
		{Name: "group_id", Type: field.TypeString, Default: ""},
		{Name: "payload", Type: field.TypeString, Size: 2147483647},
		{Name: "updated_at", Type: field.TypeInt64},
	}
	backupsSchema = &schema.Table{
		Name:       backupsTable,
		Columns:    backupsColumns,
		PrimaryKey: []*schema.Column{backupsColumns[0]},
	}

	submitAttemptsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "attempt_id", Type: field.TypeString},
		{Name: "assessment_id", Type: field.TypeString},
		{Name: "transport", Type: field.TypeString},
		{Name: "success", Type: field.TypeBool},
		{Name: "status_code", Type: field.TypeInt, Default: 0},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "latency_ms", Type: field.TypeInt64},
		{Name: "created_at", Type: field.TypeInt64},
	}
	submitAttemptsSchema = &schema.Table{
		Name:       submitAttemptsTable,
		Columns:    submitAttemptsColumns,
		PrimaryKey: []*schema.Column{submitAttemptsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "submitattempt_assessment_id",
				Columns: []*schema.Column{submitAttemptsColumns[2]},
			},
		},
	}

	tables = []*schema.Table{backupsSchema, submitAttemptsSchema}
)
