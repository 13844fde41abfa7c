/*
Package session implements session management and persistence orchestration.

It serializes flow transitions per session: a transition requested while another
one for the same session is still running is rejected with
domain.ErrTransitionInFlight rather than queued, so a double click can never apply
the same answer twice. Across replicas an optional distributed locker provides the
same guarantee.
*/
package session
