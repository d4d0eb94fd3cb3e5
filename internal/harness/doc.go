// Package harness runs scripted platform scenarios and checks their outcome.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	seed: false
//	flow:
//	  - invoke: register
//	    args: { ref: ada, email: ada@olp.test, password: pw, name: Ada, role: instructor }
//	  - invoke: create_course
//	    args: { ref: go, instructor: ada, title: Go Basics, lessons: 3 }
//	  - invoke: enroll
//	    args: { user: bob, course: go }
//	    expect:
//	      percent: 0
//	      enrolled: [go]
//	assertions:
//	  - type: percent
//	    user: bob
//	    course: go
//	    percent: 0
//
// A ref names the record created by a register or create_course step; later
// steps may use the ref or a literal id. A step without an expect clause must
// succeed; expect.error names the domain error code a step must fail with.
//
// # Operations
//
// register, login, logout, enroll, toggle, create_course, edit_course and
// delete_course map onto the identity, catalog and progress components.
// toggle takes a 1-based lesson position or a lesson id.
//
// # Assertion Types
//
//   - enrolled: a user's enrolledCourses, in order
//   - percent: CoursePercent for a (user, course) pair
//   - session: the signed-in user (omit user for no session)
//   - course_count: number of courses in the catalog
//
// After every step the harness also runs CheckInvariants, so a step that
// leaves enrollment asymmetric, progress orphaned or the session stale fails
// the scenario even when its own outcome matched.
//
// # Deterministic Testing
//
// All scenarios execute with deterministic clock and id generation
// (ids are "id-1", "id-2", ...) in an in-memory SQLite database, so the trace
// and final state are identical across runs and can be compared with golden
// files.
package harness
