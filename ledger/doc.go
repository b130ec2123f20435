/*
Package ledger records resolved calls in the order they complete and answers
subset-match queries over them.

A Query only constrains the fields it sets. A recorded call matches when every
set field is present on the call with an equal value, so extra headers or
options on the call never prevent a match.
*/
package ledger
