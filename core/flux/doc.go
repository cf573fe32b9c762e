// Package flux implements an isolated unidirectional-data-flow runtime.
//
// A Runtime owns a private dispatcher, the action sets created from it and a
// registry of named stores. Nothing is kept at package level: two runtimes
// never share registrations, dispatch state or event streams.
//
// Flow:
//   - CreateActions turns an ActionDescriptor into an ActionSet whose
//     actions dispatch only inside the runtime that created them.
//   - CreateStore runs a StoreDescriptor's Setup against a Binder, then
//     registers the resulting Store under a name and subscribes it to the
//     dispatcher.
//   - Invoking an action computes a payload and delivers it synchronously to
//     every store, in registration order. Stores may WaitFor other stores.
//
// Runtimes follow a single-threaded model. State is still mutex guarded so a
// dispatch started while another one runs fails with ErrDispatchInProgress
// instead of racing.
package flux
