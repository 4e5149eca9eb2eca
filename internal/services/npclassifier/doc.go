// Package npclassifier is a small HTTP client for the NPClassifier
// structure classification service.
//
// One GET per structure returns the pathway, superclass and class label lists.
// Failures are wrapped with the services error markers so callers can map
// them to the unknown taxonomy without inspecting messages.
package npclassifier
