// Package models defines the core domain models for the Secret Santa
// platform.
//
// # Models
//
//   - Event: an immutable gift-exchange configuration (groups, gift amount,
//     optional date/location/notes), created once by the organizer
//   - Group: a named capacity bucket within an event; members of the same
//     group are never assigned to each other
//   - Participant: one registrant, identified by a dense sequential id
//     within its event
//   - EventData: the mutable per-event record (participant list plus the
//     draw-completed and emails-sent flags)
//
// # Design Principles
//
//  1. JSON field names match the records written by earlier deployments
//     (`group_id`, `assigned_to`, `eventName`, ...), so existing stored data
//     stays readable.
//  2. Events are immutable after creation; all mutable state lives in
//     EventData.
//  3. Models carry no storage or transport concerns; encoding and shape
//     validation happen at the store boundary.
package models
