// Package connect provides Connect RPC service implementations.
package connect

import (
	"context"
	"crypto/subtle"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"

	"github.com/osa030/mymusic/internal/api/playerv1/playerv1connect"
)

const (
	// ControlTokenHeader is the header name for the control token.
	ControlTokenHeader = "X-Control-Token"
)

// NewControlTokenInterceptor guards the procedures that change player state.
// On the server it rejects calls without the configured token; on a client
// it attaches the token. An empty token disables the check.
func NewControlTokenInterceptor(token string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if token == "" {
				return next(ctx, req)
			}

			if req.Spec().IsClient {
				req.Header().Set(ControlTokenHeader, token)
				return next(ctx, req)
			}

			if !playerv1connect.MutatingProcedures[req.Spec().Procedure] {
				return next(ctx, req)
			}
			got := req.Header().Get(ControlTokenHeader)
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("invalid control token"))
			}
			return next(ctx, req)
		}
	}
}
