// Package auth establishes the anonymous web session the photo RPC API
// requires: a luid/ljuniq cookie pair from the auth endpoint, then the
// auth_token embedded in an inline script of the journal page.
package auth
