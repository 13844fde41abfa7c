// Package form turns raw user answers into engine input and the current flow into a
// renderable view.
//
// Validation happens here, before the engine is called: a *domain.ValidationError
// never comes out of the engine itself.
package form
