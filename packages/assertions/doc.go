// Package assertions evaluates response expectations.
//
// Subjects are status, duration, "header Name", "cookie Name", body and
// gjson paths such as body.items[0].id. Operators cover equality, numeric
// comparison, substring and regexp matching, existence, length, membership,
// type checks and JSON Schema validation.
package assertions
