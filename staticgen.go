// Package staticgen turns a dynamically-routed web application into a tree
// of static files and pushes that tree to remote object storage. Routes are
// declared as immutable descriptors, expanded into concrete page targets,
// rendered through an external collaborator, written to a local output
// directory, and diffed against a durable manifest so that only changed
// content is rewritten or republished.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency or medium (e.g., fs/, s3/, sqlite/).
package staticgen
