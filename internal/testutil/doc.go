// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing pipeline traces and canned model output.
// They avoid importing higher level packages so any package's tests can use
// them. They are not intended for production usage.
package testutil
