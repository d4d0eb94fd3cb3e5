// Package domain defines the records shared by the identity, catalog and
// progress components: User, Course, Lesson and Progress, plus the errors,
// clocks and id generators those components are built on.
//
// The JSON shape of every record matches what the document store persists,
// so values read back from a collection can be compared field by field with
// the value that was saved.
package domain
