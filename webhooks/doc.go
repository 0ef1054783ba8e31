// Package webhooks verifies SimplyQ webhook deliveries.
//
// A delivery is signed with HMAC-SHA256 over "<timestamp><body>" and carries
// the x-simplyq-timestamp and x-simplyq-signature headers. Verifier checks
// them; Handler wraps a Verifier in an http.Handler with replay protection.
package webhooks
