// Package model declares the fal model registry: which endpoint each model
// maps to, how it is invoked, and the option schema the resolver validates
// user input against.
//
// Definitions are plain data. The resolver dispatches on [OptionKind] and on
// the declared [ResourceSpec] and [ParamAlias] tables, so new models and new
// parameter renames are added here, never as control flow elsewhere.
package model
