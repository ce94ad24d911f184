package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema holds the tables the scheduler reads and writes.  Branch, room
// and class rows are owned by the administrative CRUD service; they are
// declared here so a fresh database is usable end to end.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS branches (
        id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
        name       VARCHAR(191) NOT NULL,
        created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS rooms (
        id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
        branch_id  BIGINT UNSIGNED NOT NULL,
        name       VARCHAR(191) NOT NULL,
        CONSTRAINT fk_rooms_branch FOREIGN KEY (branch_id) REFERENCES branches(id)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS classes (
        id   BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
        name VARCHAR(191) NOT NULL
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS users (
        id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
        name          VARCHAR(191) NOT NULL,
        email         VARCHAR(191) NOT NULL,
        password_hash VARCHAR(255) NOT NULL,
        role          ENUM('SuperAdmin','BranchAdmin','Trainer','Member') NOT NULL,
        branch_id     BIGINT UNSIGNED NULL,
        created_at    DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
        UNIQUE KEY uq_users_email (email),
        KEY idx_users_role (role),
        CONSTRAINT fk_users_branch FOREIGN KEY (branch_id) REFERENCES branches(id)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	// Separate indexes on room_id and trainer_id back the two
	// exclusivity domains checked on every schedule write.
	`CREATE TABLE IF NOT EXISTS schedules (
        id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
        class_id   BIGINT UNSIGNED NOT NULL,
        room_id    BIGINT UNSIGNED NOT NULL,
        trainer_id BIGINT UNSIGNED NOT NULL,
        branch_id  BIGINT UNSIGNED NOT NULL,
        start_time DATETIME(6) NOT NULL,
        end_time   DATETIME(6) NOT NULL,
        KEY idx_schedules_room (room_id, start_time),
        KEY idx_schedules_trainer (trainer_id, start_time),
        KEY idx_schedules_branch (branch_id),
        CONSTRAINT fk_schedules_class FOREIGN KEY (class_id) REFERENCES classes(id),
        CONSTRAINT fk_schedules_room FOREIGN KEY (room_id) REFERENCES rooms(id),
        CONSTRAINT fk_schedules_trainer FOREIGN KEY (trainer_id) REFERENCES users(id),
        CONSTRAINT fk_schedules_branch FOREIGN KEY (branch_id) REFERENCES branches(id)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	// active_key is NULL for cancelled rows, so the unique index only
	// constrains live bookings of the same member on the same schedule.
	`CREATE TABLE IF NOT EXISTS session_bookings (
        id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
        member_id   BIGINT UNSIGNED NOT NULL,
        schedule_id BIGINT UNSIGNED NOT NULL,
        status      ENUM('booked','cancelled','attended','missed') NOT NULL DEFAULT 'booked',
        created_at  DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
        active_key  VARCHAR(64) GENERATED ALWAYS AS
                    (IF(status = 'cancelled', NULL, CONCAT(member_id, ':', schedule_id))) STORED,
        UNIQUE KEY uq_bookings_active (active_key),
        KEY idx_bookings_member (member_id),
        KEY idx_bookings_schedule (schedule_id),
        CONSTRAINT fk_bookings_member FOREIGN KEY (member_id) REFERENCES users(id),
        CONSTRAINT fk_bookings_schedule FOREIGN KEY (schedule_id) REFERENCES schedules(id) ON DELETE CASCADE
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS chat_messages (
        id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
        sender_id   BIGINT UNSIGNED NOT NULL,
        receiver_id BIGINT UNSIGNED NULL,
        message     TEXT NOT NULL,
        type        ENUM('direct','broadcast') NOT NULL,
        created_at  DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
        KEY idx_chat_sender (sender_id, created_at),
        KEY idx_chat_receiver (receiver_id, created_at),
        KEY idx_chat_type (type, created_at),
        CONSTRAINT fk_chat_sender FOREIGN KEY (sender_id) REFERENCES users(id),
        CONSTRAINT fk_chat_receiver FOREIGN KEY (receiver_id) REFERENCES users(id),
        CONSTRAINT chk_chat_type CHECK ((type = 'broadcast') = (receiver_id IS NULL))
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.  Statements are idempotent so it
// is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}
