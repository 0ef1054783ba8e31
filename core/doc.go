// Package core holds the SimplyQ client contracts: configuration, the API-call
// pipeline, the closed error taxonomy with its HTTP and network classifiers,
// cursor pagination, and the resource models. It imports no sibling package;
// transports, webhook handling and storage adapters depend on it.
package core
