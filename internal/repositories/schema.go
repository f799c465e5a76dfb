package repositories

import "database/sql"

// EnsureSchema creates the tables the booking core owns when they are absent.
// The unique key on booking_seats(trip_id, seat_number) is the storage-level
// backstop against double assignment: seat rows exist only while a booking is
// active, so a conflicting insert fails even if the per-trip lock were ever
// bypassed.
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trips (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			origin VARCHAR(100) NOT NULL,
			destination VARCHAR(100) NOT NULL,
			departure DATETIME NOT NULL,
			cost BIGINT NOT NULL DEFAULT 0,
			seats INT NOT NULL,
			seats_available INT NOT NULL DEFAULT 0,
			status VARCHAR(32) NOT NULL DEFAULT 'scheduled',
			cancel_reason VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			KEY idx_status (status),
			KEY idx_departure (departure)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

		`CREATE TABLE IF NOT EXISTS bookings (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			ref VARCHAR(36) NOT NULL,
			trip_id BIGINT NOT NULL,
			user_email VARCHAR(255) NOT NULL,
			passengers JSON,
			no_of_seats INT NOT NULL,
			assigned_seats JSON,
			total_amount BIGINT NOT NULL DEFAULT 0,
			status VARCHAR(32) NOT NULL DEFAULT 'pending',
			booking_type VARCHAR(16) NOT NULL DEFAULT 'online',
			payment_id BIGINT NULL,
			payment_method VARCHAR(16) NOT NULL DEFAULT '',
			payment_status VARCHAR(16) NOT NULL DEFAULT 'pending',
			refund_status VARCHAR(16) NOT NULL DEFAULT '',
			refund_amount BIGINT NOT NULL DEFAULT 0,
			cancelled_by VARCHAR(16) NOT NULL DEFAULT '',
			cancel_reason VARCHAR(255) NOT NULL DEFAULT '',
			cancelled_at DATETIME NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uniq_ref (ref),
			KEY idx_trip_status (trip_id, status),
			KEY idx_user (user_email)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

		`CREATE TABLE IF NOT EXISTS booking_seats (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			trip_id BIGINT NOT NULL,
			booking_id BIGINT NOT NULL,
			seat_number INT NOT NULL,
			UNIQUE KEY uniq_trip_seat (trip_id, seat_number),
			KEY idx_booking (booking_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

		`CREATE TABLE IF NOT EXISTS payments (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			booking_id BIGINT NOT NULL,
			user_email VARCHAR(255) NOT NULL,
			amount BIGINT NOT NULL,
			method VARCHAR(16) NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'pending',
			card_id BIGINT NULL,
			refund_amount BIGINT NOT NULL DEFAULT 0,
			refunded_at DATETIME NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			KEY idx_booking (booking_id),
			KEY idx_status_created (status, created_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

		`CREATE TABLE IF NOT EXISTS credit_cards (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_email VARCHAR(255) NOT NULL,
			brand VARCHAR(16) NOT NULL DEFAULT '',
			last4 VARCHAR(4) NOT NULL DEFAULT '',
			balance BIGINT NOT NULL DEFAULT 0,
			is_default TINYINT(1) NOT NULL DEFAULT 0,
			KEY idx_user (user_email)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,
	}

	for _, ddl := range stmts {
		if _, err := db.Exec(ddl); err != nil {
			return err
		}
	}
	return nil
}
