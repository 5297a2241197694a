package mongo

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/x/mongo/driver"
)

// translate maps driver errors onto domain sentinels. Duplicate keys become
// onDuplicate; aborted transactions caused by a concurrent writer become
// onConflict.
func translate(err, onDuplicate, onConflict error) error {
	if err == nil {
		return nil
	}
	if onDuplicate != nil && mongo.IsDuplicateKeyError(err) {
		return onDuplicate
	}
	var labeled mongo.LabeledError
	if onConflict != nil && errors.As(err, &labeled) && labeled.HasErrorLabel(driver.TransientTransactionError) {
		return onConflict
	}
	return err
}
