package query

// Arguments holds the `$name` values supplied alongside a rule's query at
// evaluation time, keyed by argument name.
type Arguments map[string]Lit
