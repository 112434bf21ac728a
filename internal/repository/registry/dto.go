package registry

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/kailas-cloud/curriqa/internal/domain"
)

// documentRow is the bun model for the document registry table.
type documentRow struct {
	bun.BaseModel `bun:"table:documents,alias:d"`

	ID              int64     `bun:"id,pk,autoincrement"`
	Filename        string    `bun:"filename,notnull"`
	UploadTimestamp time.Time `bun:"upload_timestamp,notnull,default:current_timestamp"`
}

// chatLogRow is the bun model for the per-session conversation log.
type chatLogRow struct {
	bun.BaseModel `bun:"table:chat_logs,alias:cl"`

	ID        int64     `bun:"id,pk,autoincrement"`
	SessionID string    `bun:"session_id,notnull"`
	Question  string    `bun:"question,notnull"`
	Answer    string    `bun:"answer,notnull"`
	Model     string    `bun:"model,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

func (r documentRow) toDomain() domain.Document {
	return domain.Document{
		ID:              r.ID,
		Filename:        r.Filename,
		UploadTimestamp: r.UploadTimestamp,
	}
}

func (r chatLogRow) toDomain() domain.Turn {
	return domain.Turn{
		SessionID: r.SessionID,
		Question:  r.Question,
		Answer:    r.Answer,
		Model:     r.Model,
		CreatedAt: r.CreatedAt,
	}
}

func turnToRow(t domain.Turn) chatLogRow {
	return chatLogRow{
		SessionID: t.SessionID,
		Question:  t.Question,
		Answer:    t.Answer,
		Model:     t.Model,
		CreatedAt: t.CreatedAt,
	}
}
