/*
Package types defines the entities persisted by the store: job folders,
jobs, optimizing jobs, uploaded files, users, groups, permissions, and job
groups.

Entities are plain value objects. The store hands out decoded copies;
callers mutate them through their setters and pass them back to a write
method to persist the change. Each entity encodes itself as a tagged
sequence of (name, value) pairs via pkg/codec, and each decoder skips
element names it does not recognize so that records written by newer
versions remain readable.
*/
package types
