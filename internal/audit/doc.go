// Package audit appends operation records to .dirvault/audit.jsonl, one JSON
// object per line. The log is best-effort shared project state: it rides
// along in version control with the bundles, and a write failure never fails
// the operation being recorded.
package audit
