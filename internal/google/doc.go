// Package google holds the OAuth2 plumbing shared by Google API clients:
// the token provider abstraction that decouples the calendar gateway from
// any particular session technology, and the construction of authenticated
// HTTP clients.
package google
