package middleware

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/toolwire/toolwire/domain"
)

// PanicHandler is called when a panic is recovered.
type PanicHandler func(ctx context.Context, call *domain.Request, panicVal any) (json.RawMessage, error)

// Recover returns middleware that catches panics and converts them to
// internal faults. The panic value is included in the fault message.
func Recover() Middleware {
	return RecoverWithHandler(defaultPanicHandler)
}

// RecoverWithHandler returns middleware that catches panics and calls the
// provided handler. This allows for custom panic handling such as logging
// or alerting.
func RecoverWithHandler(handler PanicHandler) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, call *domain.Request) (result json.RawMessage, err error) {
			defer func() {
				if r := recover(); r != nil {
					result, err = handler(ctx, call, r)
				}
			}()
			return next(ctx, call)
		}
	}
}

func defaultPanicHandler(_ context.Context, _ *domain.Request, panicVal any) (json.RawMessage, error) {
	return nil, domain.NewInternal(fmt.Sprintf("panic: %v", panicVal))
}
