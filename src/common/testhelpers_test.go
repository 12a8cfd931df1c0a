package common

import (
	"etix/src/db"
	"etix/src/types"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) sqlmock.Sqlmock {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: conn,
	}), &gorm.Config{})
	if err != nil {
		t.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}
	db.NewDB(gormDB)
	t.Cleanup(func() {
		conn.Close()
	})
	return mock
}

func futureTime() time.Time {
	return time.Now().Add(10 * time.Minute)
}

func openEventRows(eventID uint, mode types.SelectionMode) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "status", "selection_mode", "deadline"}).
		AddRow(eventID, string(types.EVENT_OPEN), string(mode), time.Now().Add(24*time.Hour))
}

func ticketTypeRows(id, eventID uint, price float32, total, available, perUserLimit uint) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "event_id", "tier", "status", "currency", "price", "total", "available", "per_user_limit"}).
		AddRow(id, eventID, "general", string(types.TICKET_TYPE_OPEN), "USD", price, total, available, perUserLimit)
}

func seatStatusRows(eventID uint, state types.SeatState, ticketTypeID uint, seatIDs ...uint) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "event_id", "seat_id", "section_id", "ticket_type_id", "state"})
	for i, seatID := range seatIDs {
		rows.AddRow(uint(i+1), eventID, seatID, 1, ticketTypeID, string(state))
	}
	return rows
}
