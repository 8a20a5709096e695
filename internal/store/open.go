package store

import (
	"fmt"
	"log/slog"
)

// Supported store drivers.
const (
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
)

// Open selects a Store implementation by driver name.
func Open(driver, sqlitePath, badgerPath string, log *slog.Logger) (Store, error) {
	switch driver {
	case DriverSQLite, "":
		log.Info("opening sqlite store", "path", sqlitePath)
		s, err := NewSQLite(sqlitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverBadger:
		log.Info("opening badger store", "path", badgerPath)
		s, err := NewBadger(badgerPath, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
