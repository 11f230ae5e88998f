// relmap is the runtime core of a typed data-mapper over relational
// storage. Given a graph of entities connected by belongs-to and has-many
// relations, it resolves foreign keys at write time (including deferred
// resolution of non-primary unique conditions), performs recursive filtered
// eager-loading of related rows, supports partial field projection, and
// exposes a generic CRUD/aggregate builder surface shared by every entity.
//
// The per-entity descriptor tables and typed filter enums are normally
// produced by a code-generation step; this module treats them purely as
// data (see the schema and registry packages).
package relmap
