// Package query implements the larder query model and its executor:
// AND-ed column conditions, multi-key ordering, pagination, and the
// five query kinds (select, insert, update, delete, count). The
// executor is pure request/response; it never mutates the table it is
// handed, which is always a read snapshot.
package query
