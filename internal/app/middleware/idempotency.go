package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"hotelier/internal/app/commands"
	"hotelier/internal/domain/shared/fault"
)

// IdempotentCommand must be implemented by commands that want replay protection.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any
}

// ScopedCommand names the caller a key belongs to, so two callers sending the
// same key never share a stored outcome.
type ScopedCommand interface {
	IdempotencyScope() string
}

type IdempotencyRecord struct {
	Key        string
	Payload    []byte
	Error      string
	ErrorKind  string
	OccurredAt time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONResultCodec) Decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

var errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")

var kindNames = map[string]error{
	"validation":    fault.ErrValidation,
	"not_found":     fault.ErrNotFound,
	"authorization": fault.ErrAuthorization,
	"conflict":      fault.ErrConflict,
	"state":         fault.ErrState,
}

// Idempotency replays the stored outcome of a command whose key was already
// seen. Keys are namespaced by command key and, for scoped commands, by caller.
func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok || idCmd.IdempotencyKey() == "" {
				return next.Dispatch(ctx, cmd)
			}
			key := storageKey(idCmd)
			rec, found, err := store.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if found {
				return replay(rec, idCmd, codec)
			}

			result, err := next.Dispatch(ctx, cmd)
			record := IdempotencyRecord{Key: key, OccurredAt: time.Now().UTC()}
			if err != nil {
				// Infrastructure failures stay retryable; only classified outcomes are pinned.
				kind := kindName(err)
				if kind == "" {
					return nil, err
				}
				record.Error = err.Error()
				record.ErrorKind = kind
				if saveErr := store.Save(ctx, record); saveErr != nil {
					return nil, errors.Join(err, saveErr)
				}
				return nil, err
			}
			if result != nil {
				payload, encErr := codec.Encode(result)
				if encErr != nil {
					return nil, encErr
				}
				record.Payload = payload
			}
			if saveErr := store.Save(ctx, record); saveErr != nil {
				return nil, saveErr
			}
			return result, nil
		})
	}
}

func storageKey(cmd IdempotentCommand) string {
	key := cmd.Key() + ":"
	if scoped, ok := cmd.(ScopedCommand); ok {
		key += scoped.IdempotencyScope() + ":"
	}
	return key + cmd.IdempotencyKey()
}

func replay(rec IdempotencyRecord, cmd IdempotentCommand, codec ResultCodec) (any, error) {
	if rec.Error != "" {
		if kind, ok := kindNames[rec.ErrorKind]; ok {
			return nil, fault.New(kind, rec.Error)
		}
		return nil, errors.New(rec.Error)
	}
	proto := cmd.ResultPrototype()
	if proto == nil {
		return nil, errMissingPrototype
	}
	if len(rec.Payload) == 0 {
		return nil, nil
	}
	if err := codec.Decode(rec.Payload, proto); err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(proto)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Interface(), nil
	}
	return proto, nil
}

func kindName(err error) string {
	kind := fault.Kind(err)
	for name, k := range kindNames {
		if k == kind {
			return name
		}
	}
	return ""
}
