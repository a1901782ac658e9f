// Package store defines persistence for person records and their workflow
// state. Three backends implement the Store interface: an in-memory map for
// tests and demos, SQLite for the default single-node deployment, and Redis
// for deployments that already run one.
package store
