package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/optional"
)

type UpdateOrCreateNotificationParams struct {
	ColorOverride  optional.Optional[app.EmbedColor]
	IsRead         bool
	NotificationID int64
	OwnerID        int32
	PingOverride   optional.Optional[app.PingType]
	SenderID       int32
	Text           string
	Timestamp      time.Time
	Type           string
}

func (arg UpdateOrCreateNotificationParams) isValid() bool {
	return arg.NotificationID != 0 && arg.OwnerID != 0 && arg.Type != ""
}

// UpdateOrCreateNotification stores a notification keyed by notification and owner ID.
// The sent and timer state are preserved when the notification already exists,
// so re-fetching from ESI never causes duplicate deliveries.
func (st *Storage) UpdateOrCreateNotification(ctx context.Context, arg UpdateOrCreateNotificationParams) error {
	if !arg.isValid() {
		return fmt.Errorf("UpdateOrCreateNotification: %+v: %w", arg, app.ErrInvalid)
	}
	_, err := st.dbRW.ExecContext(
		ctx,
		`INSERT INTO notifications (
			color_override,
			is_read,
			is_sent,
			notification_id,
			owner_id,
			ping_override,
			sender_id,
			text,
			timestamp,
			type
		)
		VALUES (?, ?, FALSE, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (notification_id, owner_id) DO UPDATE SET
			is_read = excluded.is_read,
			text = excluded.text`,
		optional.ToNullInt64(arg.ColorOverride),
		arg.IsRead,
		arg.NotificationID,
		arg.OwnerID,
		optional.ToNullInt64(arg.PingOverride),
		newNullInt64(int64(arg.SenderID)),
		arg.Text,
		arg.Timestamp,
		arg.Type,
	)
	if err != nil {
		return fmt.Errorf("UpdateOrCreateNotification: %+v: %w", arg, err)
	}
	return nil
}

const notificationSelect = `
	SELECT
		nt.id,
		nt.color_override,
		nt.is_read,
		nt.is_sent,
		nt.is_timer_added,
		nt.notification_id,
		nt.owner_id,
		nt.ping_override,
		nt.sender_id,
		sender.category,
		sender.name,
		nt.text,
		nt.timestamp,
		nt.type
	FROM notifications nt
	LEFT JOIN eve_entities AS sender ON sender.id = nt.sender_id
`

// GetNotification returns the notification of an owner with a given notification ID.
func (st *Storage) GetNotification(ctx context.Context, ownerID int32, notificationID int64) (*app.Notification, error) {
	row := st.dbRO.QueryRowContext(
		ctx,
		notificationSelect+"WHERE nt.owner_id = ? AND nt.notification_id = ?",
		ownerID, notificationID,
	)
	o, err := scanNotification(row)
	if err != nil {
		return nil, fmt.Errorf("GetNotification %d/%d: %w", ownerID, notificationID, convertGetError(err))
	}
	return o, nil
}

// ListUnsentNotificationsForOwner returns the unsent notifications of an owner
// which are not older then a cutoff, in ascending order of their timestamps.
func (st *Storage) ListUnsentNotificationsForOwner(ctx context.Context, ownerID int32, cutoff time.Time) ([]*app.Notification, error) {
	rows, err := st.dbRO.QueryContext(
		ctx,
		notificationSelect+"WHERE nt.owner_id = ? AND nt.is_sent IS FALSE AND nt.timestamp > ? ORDER BY nt.timestamp",
		ownerID, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("ListUnsentNotificationsForOwner %d: %w", ownerID, err)
	}
	defer rows.Close()
	oo := make([]*app.Notification, 0)
	for rows.Next() {
		o, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("ListUnsentNotificationsForOwner %d: %w", ownerID, err)
		}
		oo = append(oo, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListUnsentNotificationsForOwner %d: %w", ownerID, err)
	}
	return oo, nil
}

// ListNotificationsForTimerProcessing returns the notifications of an owner
// which have no timer recorded yet and are not older then a cutoff,
// in ascending order of their timestamps.
func (st *Storage) ListNotificationsForTimerProcessing(ctx context.Context, ownerID int32, cutoff time.Time) ([]*app.Notification, error) {
	rows, err := st.dbRO.QueryContext(
		ctx,
		notificationSelect+"WHERE nt.owner_id = ? AND nt.is_timer_added IS NOT TRUE AND nt.timestamp > ? ORDER BY nt.timestamp",
		ownerID, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("ListNotificationsForTimerProcessing %d: %w", ownerID, err)
	}
	defer rows.Close()
	oo := make([]*app.Notification, 0)
	for rows.Next() {
		o, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("ListNotificationsForTimerProcessing %d: %w", ownerID, err)
		}
		oo = append(oo, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListNotificationsForTimerProcessing %d: %w", ownerID, err)
	}
	return oo, nil
}

// ListNotificationsOfType returns the notifications of an owner with a given type,
// in descending order of their timestamps.
func (st *Storage) ListNotificationsOfType(ctx context.Context, ownerID int32, type_ string) ([]*app.Notification, error) {
	rows, err := st.dbRO.QueryContext(
		ctx,
		notificationSelect+"WHERE nt.owner_id = ? AND nt.type = ? ORDER BY nt.timestamp DESC",
		ownerID, type_,
	)
	if err != nil {
		return nil, fmt.Errorf("ListNotificationsOfType %d: %w", ownerID, err)
	}
	defer rows.Close()
	oo := make([]*app.Notification, 0)
	for rows.Next() {
		o, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("ListNotificationsOfType %d: %w", ownerID, err)
		}
		oo = append(oo, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListNotificationsOfType %d: %w", ownerID, err)
	}
	return oo, nil
}

// UpdateNotificationIsSent marks a notification as sent or unsent.
func (st *Storage) UpdateNotificationIsSent(ctx context.Context, id int64, isSent bool) error {
	result, err := st.dbRW.ExecContext(ctx, "UPDATE notifications SET is_sent = ? WHERE id = ?", isSent, id)
	if err != nil {
		return fmt.Errorf("UpdateNotificationIsSent %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateNotificationIsSent %d: %w", id, err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateNotificationIsSent %d: %w", id, app.ErrNotFound)
	}
	return nil
}

// UpdateNotificationIsTimerAdded records whether a timer was added for a notification.
func (st *Storage) UpdateNotificationIsTimerAdded(ctx context.Context, id int64, isTimerAdded bool) error {
	result, err := st.dbRW.ExecContext(ctx, "UPDATE notifications SET is_timer_added = ? WHERE id = ?", isTimerAdded, id)
	if err != nil {
		return fmt.Errorf("UpdateNotificationIsTimerAdded %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateNotificationIsTimerAdded %d: %w", id, err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateNotificationIsTimerAdded %d: %w", id, app.ErrNotFound)
	}
	return nil
}

func scanNotification(r rowScanner) (*app.Notification, error) {
	var (
		id             int64
		colorOverride  sql.NullInt64
		isRead         bool
		isSent         bool
		isTimerAdded   sql.NullBool
		notificationID int64
		ownerID        int64
		pingOverride   sql.NullInt64
		senderID       sql.NullInt64
		senderCategory sql.NullString
		senderName     sql.NullString
		text           string
		timestamp      time.Time
		type_          string
	)
	err := r.Scan(
		&id,
		&colorOverride,
		&isRead,
		&isSent,
		&isTimerAdded,
		&notificationID,
		&ownerID,
		&pingOverride,
		&senderID,
		&senderCategory,
		&senderName,
		&text,
		&timestamp,
		&type_,
	)
	if err != nil {
		return nil, err
	}
	o := &app.Notification{
		ID:             id,
		ColorOverride:  optional.FromNullInt64ToInteger[app.EmbedColor](colorOverride),
		IsRead:         isRead,
		IsSent:         isSent,
		IsTimerAdded:   optionalFromNullBool(isTimerAdded),
		NotificationID: notificationID,
		OwnerID:        int32(ownerID),
		PingOverride:   optional.FromNullInt64ToInteger[app.PingType](pingOverride),
		Text:           text,
		Timestamp:      timestamp,
		Type:           type_,
	}
	if senderID.Valid {
		o.Sender = &app.EveEntity{
			ID:       int32(senderID.Int64),
			Category: eveEntityCategoryFromDBModel(senderCategory.String),
			Name:     senderName.String,
		}
	}
	return o, nil
}
