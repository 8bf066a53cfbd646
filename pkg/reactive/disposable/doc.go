// Package disposable provides the resource-release handles that every
// subscription in rxflow is built on.
//
// A Disposable releases exactly the resources it owns. Dispose is idempotent,
// safe to call from any goroutine, and never panics back into the caller:
// a panicking release function or a failing io.Closer is routed to the
// unhandled error sink (see errors.SetUnhandledHandler).
//
// # Building blocks
//
//   - NewFunc, FromCancel, FromCloser: wrap a release action
//   - Composite: owns a dynamic set of children; adding to a disposed
//     composite disposes the child immediately
//   - SingleAssignment: holds an upstream subscription that may arrive after
//     the owner was already disposed
//   - Serial: holds one replaceable child, disposing the previous one
//
// Example:
//
//	ctx, cancel := context.WithCancel(parent)
//	subs := disposable.NewComposite(disposable.FromCancel(cancel))
//	subs.Add(source.Subscribe(observer))
//	defer subs.Dispose()
package disposable
