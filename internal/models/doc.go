// Package models defines the domain models shared by the Tuitionbook client
// and the reference API server.
//
// # Models
//
//   - Student: an enrolled student, with class reference and fee records
//   - Class: a class (or department) with its monthly fee
//   - Fee: one month's fee for one student
//   - User, Tuition: the signed-in account and the institute that owns it
//   - Plan: a subscription plan purchasable through checkout
//   - Dashboard, MonthlyCollection: server-computed aggregates
//
// # Wire format
//
// JSON field names follow the REST API. The API is loose about scalar types:
// identifiers arrive as numbers or strings and amounts as numbers or numeric
// strings. ID and Amount absorb both forms so callers never see the difference.
//
// # Design Principles
//
//  1. Server entities are a cache: the client never merges, last fetch wins
//  2. Relationships are referenced by uuid strings, never by pointers
//  3. Optional flags that the server may omit are pointers (Student.Active)
package models
