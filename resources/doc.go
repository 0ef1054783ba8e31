// Package resources exposes the SimplyQ REST resources: applications, their
// endpoints, events, and the delivery attempts of each event.
package resources
