package middlewares

import (
	"bytes"
	"context"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/sbilibin2017/gw-notes/internal/logger"
)

// TxMiddleware wraps an HTTP handler with a database transaction.
// The response is held back until the transaction is finished: it is
// committed for statuses below 400 and rolled back otherwise or on panic.
// Hooks registered with AfterCommit and AfterRollback run once the outcome
// is known, before the response is sent.
func TxMiddleware(db *sqlx.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logger.FromContext(r.Context())

			tx, err := db.BeginTxx(r.Context(), nil)
			if err != nil {
				log.Errorw("failed to begin transaction", "error", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			hooks := &txHooks{}

			defer func() {
				if rec := recover(); rec != nil {
					_ = tx.Rollback()
					hooks.run(hooks.onRollback)
					panic(rec)
				}
			}()

			ctx := setTxToContext(r.Context(), tx)
			ctx = context.WithValue(ctx, hooksKey, hooks)
			r = r.WithContext(ctx)

			bw := &bufferedWriter{header: w.Header(), statusCode: http.StatusOK}
			next.ServeHTTP(bw, r)

			if bw.statusCode >= http.StatusBadRequest {
				if err := tx.Rollback(); err != nil {
					log.Errorw("failed to rollback transaction", "error", err)
				}
				hooks.run(hooks.onRollback)
				bw.flushTo(w)
				return
			}

			if err := tx.Commit(); err != nil {
				log.Errorw("failed to commit transaction", "error", err)
				hooks.run(hooks.onRollback)
				w.Header().Del("Set-Cookie")
				w.Header().Del("Location")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			hooks.run(hooks.onCommit)
			bw.flushTo(w)
		})
	}
}

// bufferedWriter collects the response until the transaction outcome is known.
type bufferedWriter struct {
	header      http.Header
	statusCode  int
	wroteHeader bool
	body        bytes.Buffer
}

func (bw *bufferedWriter) Header() http.Header {
	return bw.header
}

func (bw *bufferedWriter) WriteHeader(code int) {
	if bw.wroteHeader {
		return
	}
	bw.statusCode = code
	bw.wroteHeader = true
}

func (bw *bufferedWriter) Write(b []byte) (int, error) {
	bw.wroteHeader = true
	return bw.body.Write(b)
}

func (bw *bufferedWriter) flushTo(w http.ResponseWriter) {
	w.WriteHeader(bw.statusCode)
	if bw.body.Len() > 0 {
		if _, err := w.Write(bw.body.Bytes()); err != nil {
			logger.Log.Errorw("failed to write response", "error", err)
		}
	}
}

// contextKey is an unexported type for keys in context
type contextKey struct{ name string }

var (
	txKey    = contextKey{"tx"}
	hooksKey = contextKey{"tx-hooks"}
)

// txHooks collects work that depends on the transaction outcome.
type txHooks struct {
	onCommit   []func()
	onRollback []func()
}

func (h *txHooks) run(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}

// AfterCommit runs fn once the request transaction is committed. Without a
// request transaction the change is already durable, so fn runs immediately.
func AfterCommit(ctx context.Context, fn func()) {
	if hooks, ok := ctx.Value(hooksKey).(*txHooks); ok {
		hooks.onCommit = append(hooks.onCommit, fn)
		return
	}
	fn()
}

// AfterRollback runs fn if the request transaction is rolled back or fails
// to commit. Without a request transaction fn is never called.
func AfterRollback(ctx context.Context, fn func()) {
	if hooks, ok := ctx.Value(hooksKey).(*txHooks); ok {
		hooks.onRollback = append(hooks.onRollback, fn)
	}
}

// setTxToContext stores a transaction in the context
func setTxToContext(ctx context.Context, tx *sqlx.Tx) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

// GetTxFromContext retrieves the transaction from the context. Returns nil if not present.
func GetTxFromContext(ctx context.Context) *sqlx.Tx {
	tx, _ := ctx.Value(txKey).(*sqlx.Tx)
	return tx
}
