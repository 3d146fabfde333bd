// Package biometric matches face feature vectors against enrolled templates.
//
// A Vector is the fixed-length descriptor produced by the capture page. The
// LinearMatcher computes the Euclidean distance from a probe to every
// candidate and accepts the closest one when its distance is strictly below
// the threshold. Lower distance means more similar.
//
// TemplateSource keeps a short-lived snapshot of all templates so that
// concurrent authentications share one store read.
package biometric
