// Package phone splits, normalizes and validates Philippine phone numbers
// supplied as delimited strings per record.
//
// The pipeline runs strictly left to right and keeps no state between
// records:
//
//	Split -> Clean -> Format -> IsValid -> aggregate
//
// Every step is a total function. A token that cannot be normalized is not
// an error; it is routed to the invalid side of the [Result] together with
// its original text so a person can fix it.
//
// # Canonical shapes
//
//   - Mobile:   "0" followed by 10 digits (11 characters), e.g. 09171234567
//   - Landline: "0" followed by 9 digits (10 characters), e.g. 0281234567
//
// Anything starting with "00" or "3" is rejected outright.
//
// # Output tables
//
// [Result.ValidTable] yields one row per record with the valid numbers in
// positional columns TU1..TUk. [Result.InvalidTable] yields one row per
// rejected token with the header "Invalid Value".
package phone
