// Package auth implements the session, role-authorization and referral
// code issuance core for the investment platform front end.
//
// The orchestrator coordinates login, signup, logout and refresh against
// a RecordStore collaborator, projects principals into password-free
// sessions kept consistent across a durable and a transient storage
// scope, and gates navigation through a pure route guard built on the
// role hierarchy.
package auth
