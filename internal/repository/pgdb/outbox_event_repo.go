package pgdb

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/spams12/gege/internal/repository/pgdb/converter"
	"github.com/spams12/gege/internal/usecase"
	"github.com/spams12/gege/pkg/e"
	"github.com/spams12/gege/pkg/tr"
)

const (
	// Канал, который слушает outbox-воркер.
	outboxNotifyChannel = "outbox_pending"

	// Через сколько событие в processing считается брошенным упавшим воркером.
	staleProcessingTimeout = 5 * time.Minute

	// last_error обрезается, чтобы мусорный ответ брокера не раздувал таблицу.
	maxLastErrorLen = 1024
)

const claimedOutboxColumns = `
	ev.id, ev.event_id::text AS event_id, ev.event_type, ev.aggregate_id, ev.payload,
	ev.status, ev.attempts, ev.last_error, ev.created_at, ev.processed_at`

// OutboxEventRepo хранит события заказов и ставок до их публикации в Kafka.
type OutboxEventRepo struct {
	pool *pgxpool.Pool
	conv converter.OutboxEventConverter
}

func NewOutboxEventRepo(pool *pgxpool.Pool, conv converter.OutboxEventConverter) *OutboxEventRepo {
	return &OutboxEventRepo{pool: pool, conv: conv}
}

// Create пишет событие в транзакции заказа или ставки. Уведомление воркеру
// доставляется только после коммита этой транзакции.
func (o *OutboxEventRepo) Create(ctx context.Context, event *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model := o.conv.ToModel(event)
	query := `
		INSERT INTO outbox_events (event_id, event_type, aggregate_id, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err = tx.QueryRow(ctx, query,
		model.EventID, model.EventType, model.AggregateID, model.Payload, model.Status, model.CreatedAt,
	).Scan(&model.ID, &model.CreatedAt)
	if err != nil {
		if postgresDuplicate(err) {
			return nil, fmt.Errorf("%s: outbox event %s already exists", whereami.WhereAmI(), event.EventID)
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if _, err := tx.Exec(ctx, "SELECT pg_notify($1, $2)", outboxNotifyChannel, model.EventType); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return o.conv.ToEntity(model), nil
}

// GetAndMarkAsProcessing захватывает до limit событий в порядке создания и
// увеличивает их счётчик попыток. Параллельные воркеры не получают одни и те же
// строки благодаря SKIP LOCKED. Брошенные в processing дольше
// staleProcessingTimeout возвращаются в выдачу.
func (o *OutboxEventRepo) GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*usecase.OutboxEvent, error) {
	query := `
		WITH claimed AS (
			SELECT id FROM outbox_events
			WHERE status = $2
			   OR (status = $1 AND processing_started_at < now() - $4::interval)
			ORDER BY created_at, id
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		UPDATE outbox_events ev
		SET status = $1, processing_started_at = now(), attempts = ev.attempts + 1
		FROM claimed
		WHERE ev.id = claimed.id
		RETURNING ` + claimedOutboxColumns

	rows, err := o.pool.Query(ctx, query, usecase.Processing, usecase.Pending, limit, staleProcessingTimeout)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	models, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[converter.OutboxEventModel])
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	// RETURNING не сохраняет порядок подзапроса
	slices.SortFunc(models, func(a, b *converter.OutboxEventModel) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	return o.conv.ToArrEntity(models), nil
}

// MarkAsProcessed закрывает событие после подтверждения брокером. Ноль строк
// означает, что событие уже закрыл другой воркер.
func (o *OutboxEventRepo) MarkAsProcessed(ctx context.Context, id int64) error {
	query := `
		UPDATE outbox_events
		SET status = $1, processed_at = now(), last_error = NULL
		WHERE id = $2 AND status = $3
	`

	if _, err := o.pool.Exec(ctx, query, usecase.Processed, id, usecase.Processing); err != nil {
		return fmt.Errorf("%s: mark event %d processed: %w", whereami.WhereAmI(), id, err)
	}

	return nil
}

// MarkAsFailed выводит событие из очереди и сохраняет причину для разбора.
func (o *OutboxEventRepo) MarkAsFailed(ctx context.Context, id int64, reason string) error {
	query := `
		UPDATE outbox_events
		SET status = $1, processed_at = now(), last_error = $2
		WHERE id = $3 AND status = $4
	`

	if _, err := o.pool.Exec(ctx, query, usecase.Failed, truncateUTF8(reason, maxLastErrorLen), id, usecase.Processing); err != nil {
		return fmt.Errorf("%s: mark event %d failed: %w", whereami.WhereAmI(), id, err)
	}

	return nil
}
