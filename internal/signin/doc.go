// Package signin drives a complete authorization-code sign-in.
//
// An Authenticator generates a nonce and a PKCE pair, triggers one of the
// flows chosen by the flow selector, and hands the code it receives to an
// Exchanger. OAuth2Exchanger performs the exchange with golang.org/x/oauth2.
//
// Classify turns the error of a failed sign-in into the outcome shown to the
// user.
package signin
