// Package service wires the task interpreter to storage: it fetches the
// profile, progress and task a render needs, persists answers and enforces
// shared-sprint access.
package service

import (
	"github.com/pkg/errors"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/storage"
)

var (
	ErrInvalid      = errors.New("invalid input")
	ErrAccessDenied = errors.New("access denied")
)

// Logger defines the logging interface for the services
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// inTx runs fn in a transaction, committing when fn succeeds and rolling back
// otherwise.
func inTx(store storage.Store, logger Logger, fn func(tx storage.Store) error) (err error) {
	txStore, err := store.Begin()
	if err != nil {
		logger.Errorf("Failed to begin transaction: %v", err)
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
		}
	}()
	return fn(txStore)
}

func invalidf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalid, format, args...)
}
